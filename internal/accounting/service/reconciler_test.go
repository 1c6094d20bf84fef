package service

import (
	"context"
	"testing"
	"time"

	"github.com/karmafleet/allianceledger/internal/accounting/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestReconciler(f *fixture) *Reconciler {
	return NewReconciler(f.repo, f.users, f.clk, f.node, zap.NewNop())
}

func TestReconcileMovesRowOntoUserLedger(t *testing.T) {
	f := newFixture(t)
	reconciler := newTestReconciler(f)
	ctx := context.Background()

	createdAt := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.repo.CreateUnclaimed(ctx, &domain.UnclaimedTax{
		ID:          f.node.Generate(),
		CharacterID: 90000001,
		Amount:      decimal.NewFromInt(-25_000),
		Description: "Ratting Tax",
		EntryType:   domain.EntryTypeTax,
		CreatedAt:   createdAt,
	}))

	// No owner yet: nothing moves.
	count, err := reconciler.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	user := f.seedOwnedCharacter(t, 90000001, "pilot one")

	count, err = reconciler.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	account, err := f.repo.GetOrCreateUserAccount(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(-25_000)))

	var entries []domain.UserLedgerEntry
	require.NoError(t, f.db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Description, "Ratting Tax")
	assert.Contains(t, entries[0].Description, "[Reconciled from unclaimed entry: 2026-03-10T00:00:00Z]")
	assert.Equal(t, domain.EntryTypeTax, entries[0].EntryType)
	require.NotNil(t, entries[0].CharacterID)
	assert.EqualValues(t, 90000001, *entries[0].CharacterID)

	var remaining int64
	require.NoError(t, f.db.Model(&domain.UnclaimedTax{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestReconcileSkipsDeletedOwner(t *testing.T) {
	f := newFixture(t)
	reconciler := newTestReconciler(f)
	ctx := context.Background()

	f.seedOwnedCharacter(t, 90000002, "deleted")
	require.NoError(t, f.repo.CreateUnclaimed(ctx, &domain.UnclaimedTax{
		ID:          f.node.Generate(),
		CharacterID: 90000002,
		Amount:      decimal.NewFromInt(-100),
		EntryType:   domain.EntryTypeTax,
		CreatedAt:   f.clk.Now(),
	}))

	count, err := reconciler.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	var remaining int64
	require.NoError(t, f.db.Model(&domain.UnclaimedTax{}).Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/karmafleet/allianceledger/internal/accounting/domain"
	"github.com/karmafleet/allianceledger/internal/clock"
	"github.com/karmafleet/allianceledger/internal/metrics"
	registrydomain "github.com/karmafleet/allianceledger/internal/registry/domain"
	"go.uber.org/zap"
)

// Reconciler converts unclaimed tax rows into real ledger entries once
// the character gains a resolvable owner.
type Reconciler struct {
	repo     domain.Repository
	registry registrydomain.Repository
	clk      clock.Clock
	node     *snowflake.Node
	log      *zap.Logger
}

func NewReconciler(repo domain.Repository, registry registrydomain.Repository, clk clock.Clock, node *snowflake.Node, log *zap.Logger) *Reconciler {
	return &Reconciler{
		repo:     repo,
		registry: registry,
		clk:      clk,
		node:     node,
		log:      log.Named("accounting.reconciler"),
	}
}

// ReconcileAll returns how many rows were moved onto user ledgers. Rows
// whose characters still have no owner stay untouched.
func (r *Reconciler) ReconcileAll(ctx context.Context) (int, error) {
	rows, err := r.repo.ListUnclaimed(ctx)
	if err != nil {
		return 0, fmt.Errorf("list unclaimed: %w", err)
	}

	var errs []error
	count := 0
	for _, row := range rows {
		owner, err := r.registry.FindOwner(ctx, row.CharacterID)
		if err != nil {
			errs = append(errs, fmt.Errorf("character %d: %w", row.CharacterID, err))
			continue
		}
		if owner == nil || owner.Username == registrydomain.DeletedUsername {
			continue
		}

		account, err := r.repo.GetOrCreateUserAccount(ctx, owner.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		characterID := row.CharacterID
		entry := &domain.UserLedgerEntry{
			ID:        r.node.Generate(),
			AccountID: account.ID,
			Amount:    row.Amount,
			Description: row.Description + fmt.Sprintf(
				"\n[Reconciled from unclaimed entry: %s]",
				row.CreatedAt.Format(time.RFC3339),
			),
			EntryType:   row.EntryType,
			CharacterID: &characterID,
			CreatedAt:   r.clk.Now(),
		}
		if err := r.repo.AddUserEntry(ctx, entry); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := r.repo.DeleteUnclaimed(ctx, row.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		metrics.Runs().IncUnclaimedReconciled()
		count++
		r.log.Info("unclaimed tax reconciled",
			zap.Int64("character_id", row.CharacterID),
			zap.String("username", owner.Username),
			zap.String("amount", row.Amount.String()),
		)
	}
	return count, errors.Join(errs...)
}

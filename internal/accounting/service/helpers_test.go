package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/karmafleet/allianceledger/internal/accounting/domain"
	accountingrepo "github.com/karmafleet/allianceledger/internal/accounting/repository"
	"github.com/karmafleet/allianceledger/internal/clock"
	registrydomain "github.com/karmafleet/allianceledger/internal/registry/domain"
	registryrepo "github.com/karmafleet/allianceledger/internal/registry/repository"
	walletdomain "github.com/karmafleet/allianceledger/internal/wallet/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clk   *clock.FakeClock
	repo  domain.Repository
	users registrydomain.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&registrydomain.User{},
		&registrydomain.Alliance{},
		&registrydomain.Corporation{},
		&registrydomain.Character{},
		&registrydomain.CharacterOwnership{},
		&walletdomain.CorporationJournalEntry{},
		&domain.UserAccount{},
		&domain.CorporationAccount{},
		&domain.UserLedgerEntry{},
		&domain.CorporationLedgerEntry{},
		&domain.UnclaimedTax{},
		&domain.PaymentCursor{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))

	return &fixture{
		db:    db,
		node:  node,
		clk:   clk,
		repo:  accountingrepo.Provide(db, node),
		users: registryrepo.Provide(db),
	}
}

// seedOwnedCharacter creates a character owned by a fresh user and
// returns the user.
func (f *fixture) seedOwnedCharacter(t *testing.T, characterID int64, username string) *registrydomain.User {
	t.Helper()
	user := &registrydomain.User{
		ID:              f.node.Generate(),
		Username:        username,
		State:           "member",
		MainCharacterID: &characterID,
	}
	require.NoError(t, f.db.Create(user).Error)
	require.NoError(t, f.db.Create(&registrydomain.Character{
		CharacterID:   characterID,
		Name:          username,
		CorporationID: 2001,
	}).Error)
	require.NoError(t, f.db.Create(&registrydomain.CharacterOwnership{
		ID:          f.node.Generate(),
		CharacterID: characterID,
		UserID:      user.ID,
	}).Error)
	return user
}

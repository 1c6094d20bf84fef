package rates

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	registrydomain "github.com/karmafleet/allianceledger/internal/registry/domain"
	registryrepo "github.com/karmafleet/allianceledger/internal/registry/repository"
	"github.com/karmafleet/allianceledger/internal/taxes/domain"
	taxesrepo "github.com/karmafleet/allianceledger/internal/taxes/repository"
	walletdomain "github.com/karmafleet/allianceledger/internal/wallet/domain"
	walletrepo "github.com/karmafleet/allianceledger/internal/wallet/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func decimalFromInt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func openSyncerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&walletdomain.Notification{},
		&registrydomain.Corporation{},
		&domain.RatePoint{},
	))
	return db
}

func newTestSyncer(t *testing.T, db *gorm.DB) *Syncer {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewSyncer(
		taxesrepo.Provide(db),
		walletrepo.Provide(db),
		registryrepo.Provide(db),
		node,
		zap.NewNop(),
	)
}

func seedNotification(t *testing.T, db *gorm.DB, id int64, at time.Time, text string) {
	t.Helper()
	require.NoError(t, db.Create(&walletdomain.Notification{
		ID:             snowflake.ID(id),
		NotificationID: id,
		CharacterID:    90000001,
		Type:           "CorpTaxChangeMsg",
		Timestamp:      at,
		Text:           text,
	}).Error)
}

func TestSyncCorporationParsesTaxChanges(t *testing.T) {
	db := openSyncerDB(t)
	syncer := newTestSyncer(t, db)
	ctx := context.Background()

	jan := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 20, 8, 0, 0, 0, time.UTC)
	seedNotification(t, db, 1, jan, "corpID: 2001\nnewTaxRate: 10.0\n")
	seedNotification(t, db, 2, feb, "corpID: 2001\nnewTaxRate: 15.0\ncurrencyNameLabel: UI/Common/ISK\n")
	// Different corporation, must not be picked up.
	seedNotification(t, db, 3, feb, "corpID: 2002\nnewTaxRate: 50.0\n")
	// Non-ISK currency, must be skipped.
	seedNotification(t, db, 4, feb.Add(time.Hour), "corpID: 2001\nnewTaxRate: 99.0\ncurrencyNameLabel: UI/Common/LP\n")
	// Garbage payload, skipped with a warning.
	seedNotification(t, db, 5, feb.Add(2*time.Hour), ": not yaml: [")

	count, err := syncer.SyncCorporation(ctx, 2001, false)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var points []domain.RatePoint
	require.NoError(t, db.Where("corporation_id = ?", 2001).Order("start_date").Find(&points).Error)
	require.Len(t, points, 2)
	assert.True(t, points[0].TaxRate.Equal(decimalFromInt(10)))
	assert.True(t, points[1].TaxRate.Equal(decimalFromInt(15)))
}

func TestSyncCorporationIsIdempotent(t *testing.T) {
	db := openSyncerDB(t)
	syncer := newTestSyncer(t, db)
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedNotification(t, db, 1, at, "corpID: 2001\nnewTaxRate: 10.0\n")

	_, err := syncer.SyncCorporation(ctx, 2001, false)
	require.NoError(t, err)
	_, err = syncer.SyncCorporation(ctx, 2001, false)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&domain.RatePoint{}).Where("corporation_id = ?", 2001).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSyncCorporationFlushRebuildsHistory(t *testing.T) {
	db := openSyncerDB(t)
	syncer := newTestSyncer(t, db)
	ctx := context.Background()

	// A stale point no notification backs anymore.
	require.NoError(t, db.Create(&domain.RatePoint{
		ID:            snowflake.ID(999),
		CorporationID: 2001,
		StartDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		TaxRate:       decimalFromInt(77),
	}).Error)
	seedNotification(t, db, 1, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "corpID: 2001\nnewTaxRate: 10.0\n")

	count, err := syncer.SyncCorporation(ctx, 2001, true)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var points []domain.RatePoint
	require.NoError(t, db.Where("corporation_id = ?", 2001).Find(&points).Error)
	require.Len(t, points, 1)
	assert.True(t, points[0].TaxRate.Equal(decimalFromInt(10)))
}

func TestSyncAllCoversKnownCorporations(t *testing.T) {
	db := openSyncerDB(t)
	syncer := newTestSyncer(t, db)
	ctx := context.Background()

	require.NoError(t, db.Create(&registrydomain.Corporation{CorporationID: 2001, Name: "Karma Holdings"}).Error)
	require.NoError(t, db.Create(&registrydomain.Corporation{CorporationID: 2002, Name: "Karma Industry"}).Error)
	at := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	seedNotification(t, db, 1, at, "corpID: 2001\nnewTaxRate: 10.0\n")
	seedNotification(t, db, 2, at, "corpID: 2002\nnewTaxRate: 20.0\n")

	require.NoError(t, syncer.SyncAll(ctx, false))

	var count int64
	require.NoError(t, db.Model(&domain.RatePoint{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

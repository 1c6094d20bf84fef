package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountingdomain "github.com/karmafleet/allianceledger/internal/accounting/domain"
	accountingrepo "github.com/karmafleet/allianceledger/internal/accounting/repository"
	accountingservice "github.com/karmafleet/allianceledger/internal/accounting/service"
	"github.com/karmafleet/allianceledger/internal/clock"
	"github.com/karmafleet/allianceledger/internal/config"
	"github.com/karmafleet/allianceledger/internal/eveapi"
	registrydomain "github.com/karmafleet/allianceledger/internal/registry/domain"
	registryrepo "github.com/karmafleet/allianceledger/internal/registry/repository"
	"github.com/karmafleet/allianceledger/internal/taxes/domain"
	taxesrepo "github.com/karmafleet/allianceledger/internal/taxes/repository"
	walletdomain "github.com/karmafleet/allianceledger/internal/wallet/domain"
	walletrepo "github.com/karmafleet/allianceledger/internal/wallet/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeESI serves corporation sheets from a map; fraction rates as the
// game API reports them.
type fakeESI struct {
	corpRates map[int64]float64
	failCorps map[int64]bool
}

func (f *fakeESI) CorporationInfo(_ context.Context, id int64) (*eveapi.CorporationInfo, error) {
	if f.failCorps[id] {
		return nil, errors.New("esi unavailable")
	}
	return &eveapi.CorporationInfo{
		Name:    fmt.Sprintf("Corp %d", id),
		TaxRate: f.corpRates[id],
	}, nil
}

func (f *fakeESI) CharacterInfo(_ context.Context, id int64) (*eveapi.CharacterInfo, error) {
	return &eveapi.CharacterInfo{Name: fmt.Sprintf("Pilot %d", id), CorporationID: 2001}, nil
}

func (f *fakeESI) AllianceInfo(_ context.Context, id int64) (*eveapi.AllianceInfo, error) {
	return &eveapi.AllianceInfo{Name: fmt.Sprintf("Alliance %d", id)}, nil
}

func (f *fakeESI) ResolveNames(_ context.Context, _ []string) (*eveapi.ResolvedNames, error) {
	return &eveapi.ResolvedNames{}, nil
}

// fakeRegistryService resolves corporations from the local table only.
type fakeRegistryService struct {
	db *gorm.DB
}

func (s *fakeRegistryService) GetOrCreateCorporation(ctx context.Context, id int64) (*registrydomain.Corporation, error) {
	var corporation registrydomain.Corporation
	err := s.db.WithContext(ctx).First(&corporation, "corporation_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		corporation = registrydomain.Corporation{CorporationID: id, Name: fmt.Sprintf("Corp %d", id)}
		if err := s.db.WithContext(ctx).Create(&corporation).Error; err != nil {
			return nil, err
		}
		return &corporation, nil
	}
	if err != nil {
		return nil, err
	}
	return &corporation, nil
}

func (s *fakeRegistryService) GetOrCreateCharacter(_ context.Context, id int64) (*registrydomain.Character, error) {
	return &registrydomain.Character{CharacterID: id, Name: fmt.Sprintf("Pilot %d", id)}, nil
}

func (s *fakeRegistryService) GetOrCreateCharacterByName(_ context.Context, _ string) (*registrydomain.Character, error) {
	return nil, nil
}

type fixture struct {
	db         *gorm.DB
	node       *snowflake.Node
	clk        *clock.FakeClock
	esi        *fakeESI
	taxes      domain.Repository
	wallet     walletdomain.Repository
	registry   registrydomain.Repository
	accounting accountingdomain.Repository
	aggregator *Aggregator
	composer   *Composer
	issuer     *Issuer
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
		&walletdomain.Region{},
		&walletdomain.SolarSystem{},
		&walletdomain.Structure{},
		&walletdomain.StructureService{},
		&walletdomain.CharacterJournalEntry{},
		&walletdomain.CorporationJournalEntry{},
		&walletdomain.Notification{},
		&domain.RattingRule{},
		&domain.CharacterPayoutRule{},
		&domain.CorporationPayoutRule{},
		&domain.MemberTaxRule{},
		&domain.StructureServiceRule{},
		&domain.TaxPlan{},
		&domain.TaxRecord{},
		&domain.CharacterTaxMarker{},
		&domain.CorporationTaxMarker{},
		&domain.RatePoint{},
		&accountingdomain.UserAccount{},
		&accountingdomain.CorporationAccount{},
		&accountingdomain.UserLedgerEntry{},
		&accountingdomain.CorporationLedgerEntry{},
		&accountingdomain.UnclaimedTax{},
		&accountingdomain.PaymentCursor{},
	))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	esi := &fakeESI{corpRates: map[int64]float64{}, failCorps: map[int64]bool{}}

	f := &fixture{
		db:         db,
		node:       node,
		clk:        clk,
		esi:        esi,
		taxes:      taxesrepo.Provide(db),
		wallet:     walletrepo.Provide(db),
		registry:   registryrepo.Provide(db),
		accounting: accountingrepo.Provide(db, node),
	}
	f.aggregator = NewAggregator(f.taxes, f.wallet, f.registry, esi, clk, log)
	f.composer = NewComposer(f.aggregator, log)

	poster := accountingservice.NewPoster(f.accounting, f.registry, clk, node, log)
	settings := config.StaticBankSettings(config.BankSettings{OverlapDays: 2})
	f.issuer = NewIssuer(f.taxes, f.composer, &fakeRegistryService{db: db}, poster, settings, clk, node, log)
	return f
}

// seedCharacter creates a standalone character with no ownership link;
// main resolution falls back to the character itself.
func (f *fixture) seedCharacter(t *testing.T, characterID, corporationID int64, allianceID *int64, name string) {
	t.Helper()
	require.NoError(t, f.db.Create(&registrydomain.Character{
		CharacterID:   characterID,
		Name:          name,
		CorporationID: corporationID,
		AllianceID:    allianceID,
	}).Error)
}

func (f *fixture) seedCharacterEntry(t *testing.T, entryID, characterID int64, refType string, amount, tax *decimal.Decimal, date time.Time) {
	t.Helper()
	require.NoError(t, f.db.Create(&walletdomain.CharacterJournalEntry{
		ID:          f.node.Generate(),
		EntryID:     entryID,
		CharacterID: characterID,
		Amount:      amount,
		Tax:         tax,
		RefType:     refType,
		Date:        date,
	}).Error)
}

func (f *fixture) seedCorporationEntry(t *testing.T, entryID, corporationID int64, refType string, amount *decimal.Decimal, date time.Time) {
	t.Helper()
	require.NoError(t, f.db.Create(&walletdomain.CorporationJournalEntry{
		ID:            f.node.Generate(),
		EntryID:       entryID,
		CorporationID: corporationID,
		Amount:        amount,
		RefType:       refType,
		Date:          date,
	}).Error)
}

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

package migration

import (
	"errors"
	"fmt"

	accountingdomain "github.com/karmafleet/allianceledger/internal/accounting/domain"
	registrydomain "github.com/karmafleet/allianceledger/internal/registry/domain"
	taxesdomain "github.com/karmafleet/allianceledger/internal/taxes/domain"
	walletdomain "github.com/karmafleet/allianceledger/internal/wallet/domain"
	"gorm.io/gorm"
)

// RunMigrations creates the full schema on startup so local and
// self-hosted deployments work out of the box. AutoMigrate keeps the
// table definitions valid across postgres, mysql and sqlite.
func RunMigrations(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	err := db.AutoMigrate(
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

		&taxesdomain.RattingRule{},
		&taxesdomain.CharacterPayoutRule{},
		&taxesdomain.CorporationPayoutRule{},
		&taxesdomain.MemberTaxRule{},
		&taxesdomain.StructureServiceRule{},
		&taxesdomain.TaxPlan{},
		&taxesdomain.TaxRecord{},
		&taxesdomain.CharacterTaxMarker{},
		&taxesdomain.CorporationTaxMarker{},
		&taxesdomain.RatePoint{},

		&accountingdomain.UserAccount{},
		&accountingdomain.CorporationAccount{},
		&accountingdomain.UserLedgerEntry{},
		&accountingdomain.CorporationLedgerEntry{},
		&accountingdomain.UnclaimedTax{},
		&accountingdomain.PaymentCursor{},
	)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	registrydomain "github.com/karmafleet/allianceledger/internal/registry/domain"
	walletdomain "github.com/karmafleet/allianceledger/internal/wallet/domain"
	"github.com/shopspring/decimal"
)

// Window sentinels for aggregates that have seen no rows yet: Start
// begins at MaxDate and End at MinDate so the first observation snaps
// both to its timestamp.
var (
	MinDate = time.Time{}.UTC()
	MaxDate = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)
)

// RattingRule taxes bounty income. Tax is a percentage of the taxable
// value reconstructed from the post-deduction payout.
type RattingRule struct {
	ID   snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name string          `gorm:"not null" json:"name"`
	Tax  decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tax"`
	// IncludeESSSection keeps the ESS share in the taxable value; when
	// false the 35% ESS cut is subtracted before taxing.
	IncludeESSSection bool                  `json:"include_ess_section"`
	Regions           []walletdomain.Region `gorm:"many2many:ratting_rule_regions" json:"regions,omitempty"`
	CreatedAt         time.Time             `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// CharacterPayoutRule taxes payouts landing in character wallets, e.g.
// incursion or mission income. RefTypes is a comma-separated journal
// ref_type list.
type CharacterPayoutRule struct {
	ID       snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name     string          `gorm:"not null" json:"name"`
	Tax      decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tax"`
	RefTypes string          `gorm:"not null" json:"ref_types"`
	// SourceCorporationID restricts to payouts made by one corporation.
	SourceCorporationID *int64    `json:"source_corporation_id,omitempty"`
	CreatedAt           time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// CorporationPayoutRule taxes payouts landing in corporation wallets.
type CorporationPayoutRule struct {
	ID                  snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name                string          `gorm:"not null" json:"name"`
	Tax                 decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tax"`
	RefTypes            string          `gorm:"not null" json:"ref_types"`
	SourceCorporationID *int64          `json:"source_corporation_id,omitempty"`
	CreatedAt           time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// MemberTaxRule charges a flat amount per main character parked in a
// corporation, counting users in one membership state.
type MemberTaxRule struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name       string          `gorm:"not null" json:"name"`
	State      string          `gorm:"not null" json:"state"`
	ISKPerMain decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"isk_per_main"`
	CreatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// StructureServiceRule charges a flat amount per matching fitted service.
// ServiceFilters is a comma-separated service name list; TypeIDs an
// optional comma-separated structure type restriction.
type StructureServiceRule struct {
	ID             snowflake.ID          `gorm:"primaryKey" json:"id"`
	Name           string                `gorm:"not null" json:"name"`
	ServiceFilters string                `gorm:"not null" json:"service_filters"`
	TypeIDs        string                `json:"type_ids,omitempty"`
	Regions        []walletdomain.Region `gorm:"many2many:structure_rule_regions" json:"regions,omitempty"`
	ISKPerService  decimal.Decimal       `gorm:"type:decimal(20,2);not null" json:"isk_per_service"`
	CreatedAt      time.Time             `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TaxPlan bundles rules into one recurring invoice run against the
// member corporations of the included alliances.
type TaxPlan struct {
	ID                     snowflake.ID                 `gorm:"primaryKey" json:"id"`
	Name                   string                       `gorm:"uniqueIndex;not null" json:"name"`
	Enabled                bool                         `gorm:"not null;default:true" json:"enabled"`
	RattingRules           []RattingRule                `gorm:"many2many:tax_plan_ratting_rules" json:"ratting_rules,omitempty"`
	CharacterPayoutRules   []CharacterPayoutRule        `gorm:"many2many:tax_plan_character_payout_rules" json:"character_payout_rules,omitempty"`
	CorporationPayoutRules []CorporationPayoutRule      `gorm:"many2many:tax_plan_corporation_payout_rules" json:"corporation_payout_rules,omitempty"`
	MemberTaxRules         []MemberTaxRule              `gorm:"many2many:tax_plan_member_tax_rules" json:"member_tax_rules,omitempty"`
	StructureServiceRules  []StructureServiceRule       `gorm:"many2many:tax_plan_structure_service_rules" json:"structure_service_rules,omitempty"`
	ExemptCorporations     []registrydomain.Corporation `gorm:"many2many:tax_plan_exempt_corporations" json:"exempt_corporations,omitempty"`
	IncludedAlliances      []registrydomain.Alliance    `gorm:"many2many:tax_plan_included_alliances" json:"included_alliances,omitempty"`
	CreatedAt              time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt              time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TaxRecord is one issued invoice run: the charged window, the grand
// total and a serialized per-corporation breakdown.
type TaxRecord struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	PlanID    snowflake.ID    `gorm:"index;not null" json:"plan_id"`
	Name      string          `gorm:"not null" json:"name"`
	StartDate time.Time       `gorm:"not null" json:"start_date"`
	EndDate   time.Time       `gorm:"index;not null" json:"end_date"`
	TotalTax  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"total_tax"`
	Breakdown string          `gorm:"type:text" json:"breakdown"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// CharacterTaxMarker flags a character journal entry as already counted
// by an issued invoice. The unique entry ID makes re-marking a no-op.
type CharacterTaxMarker struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	EntryID   int64        `gorm:"uniqueIndex;not null" json:"entry_id"`
	RecordID  snowflake.ID `gorm:"index;not null" json:"record_id"`
	Processed bool         `gorm:"not null;default:true" json:"processed"`
}

type CorporationTaxMarker struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	EntryID   int64        `gorm:"uniqueIndex;not null" json:"entry_id"`
	RecordID  snowflake.ID `gorm:"index;not null" json:"record_id"`
	Processed bool         `gorm:"not null;default:true" json:"processed"`
}

// RatePoint records a corporation tax rate change effective from
// StartDate. TaxRate is a percentage.
type RatePoint struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	CorporationID int64           `gorm:"uniqueIndex:idx_rate_corp_start;not null" json:"corporation_id"`
	StartDate     time.Time       `gorm:"uniqueIndex:idx_rate_corp_start;not null" json:"start_date"`
	TaxRate       decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tax_rate"`
}

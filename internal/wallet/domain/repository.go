package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CharacterEntryQuery selects untaxed character journal rows in a closed
// window. Empty slices mean no filter.
type CharacterEntryQuery struct {
	RefTypes      []string
	Start         time.Time
	End           time.Time
	RegionIDs     []int64
	FirstPartyIDs []int64
	AllianceIDs   []int64
}

// CharacterEntryRow is a journal row joined with owner resolution: the
// main character of the owning user, falling back to the character itself
// when no ownership link exists.
type CharacterEntryRow struct {
	EntryID           int64
	CharacterID       int64
	CharacterName     string
	CorporationID     int64
	Amount            *decimal.Decimal
	Tax               *decimal.Decimal
	Date              time.Time
	MainName          string
	MainCorporationID int64
	MainAllianceID    *int64
}

type CorporationEntryQuery struct {
	RefTypes      []string
	Start         time.Time
	End           time.Time
	FirstPartyIDs []int64
}

type CorporationEntryRow struct {
	EntryID         int64
	CorporationID   int64
	Amount          *decimal.Decimal
	Tax             *decimal.Decimal
	Date            time.Time
	SecondPartyName string
}

// PaymentRow is one candidate payment from the bank corporation's journal.
type PaymentRow struct {
	EntryID       int64
	RefType       string
	Amount        decimal.Decimal
	Date          time.Time
	ContextID     *int64
	FirstPartyID  *int64
	SecondPartyID *int64
	Reason        string
}

// ServiceCountQuery counts matching fitted services per corporation.
type ServiceCountQuery struct {
	ServiceNames []string
	TypeIDs      []int64
	RegionIDs    []int64
	// UpdatedSince excludes corporations whose structure data is stale.
	UpdatedSince time.Time
}

type ServiceCount struct {
	CorporationID int64
	Count         int
}

type Repository interface {
	ListCharacterEntries(ctx context.Context, q CharacterEntryQuery) ([]CharacterEntryRow, error)
	ListCorporationEntries(ctx context.Context, q CorporationEntryQuery) ([]CorporationEntryRow, error)
	ListBankPayments(ctx context.Context, bankCorporationID int64, refTypes []string, after time.Time, minAmount decimal.Decimal) ([]PaymentRow, error)
	CountServicesByCorporation(ctx context.Context, q ServiceCountQuery) ([]ServiceCount, error)
	ListNotificationsByType(ctx context.Context, characterIDs []int64, notificationType string) ([]Notification, error)
}

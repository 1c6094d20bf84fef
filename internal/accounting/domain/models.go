package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryTypeDeposit    EntryType = "deposit"
	EntryTypeTax        EntryType = "tax"
	EntryTypeFine       EntryType = "fine"
	EntryTypeAdjustment EntryType = "adjustment"
	EntryTypeCharge     EntryType = "charge"
)

func (t EntryType) Valid() bool {
	switch t {
	case EntryTypeDeposit, EntryTypeTax, EntryTypeFine, EntryTypeAdjustment, EntryTypeCharge:
		return true
	}
	return false
}

type UserAccount struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID    `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

type CorporationAccount struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	CorporationID int64           `gorm:"uniqueIndex;not null" json:"corporation_id"`
	Balance       decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// UserLedgerEntry is one signed movement on a user account. Balance is
// the account balance immediately after this entry posted.
type UserLedgerEntry struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	AccountID   snowflake.ID    `gorm:"index;not null" json:"account_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Balance     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`
	Description string          `gorm:"type:text" json:"description"`
	EntryType   EntryType       `gorm:"not null;default:deposit" json:"entry_type"`
	CharacterID *int64          `json:"character_id,omitempty"`
	CreatedAt   time.Time       `gorm:"index;not null" json:"created_at"`
}

type CorporationLedgerEntry struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	AccountID   snowflake.ID    `gorm:"index;not null" json:"account_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Balance     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`
	Description string          `gorm:"type:text" json:"description"`
	EntryType   EntryType       `gorm:"not null;default:deposit" json:"entry_type"`
	CharacterID *int64          `json:"character_id,omitempty"`
	CreatedAt   time.Time       `gorm:"index;not null" json:"created_at"`
}

// UnclaimedTax parks a signed posting aimed at a character that has no
// resolvable owner. Never dropped; reconciled once ownership appears.
type UnclaimedTax struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	CharacterID int64           `gorm:"index;not null" json:"character_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Description string          `gorm:"type:text" json:"description"`
	EntryType   EntryType       `gorm:"not null;default:charge" json:"entry_type"`
	CreatedAt   time.Time       `gorm:"index;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// PaymentCursor is the high-water mark of the payment sweep; a single
// row with ID 1.
type PaymentCursor struct {
	ID            int       `gorm:"primaryKey" json:"id"`
	LastPaymentAt time.Time `gorm:"not null" json:"last_payment_at"`
}

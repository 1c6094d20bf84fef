package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Repository interface {
	GetOrCreateUserAccount(ctx context.Context, userID snowflake.ID) (*UserAccount, error)
	GetOrCreateCorporationAccount(ctx context.Context, corporationID int64) (*CorporationAccount, error)

	// AddUserEntry inserts the entry, applies its signed amount to the
	// account balance atomically and stores the resulting balance on the
	// entry. The entry's ID, AccountID, Amount and CreatedAt must be set.
	AddUserEntry(ctx context.Context, entry *UserLedgerEntry) error
	AddCorporationEntry(ctx context.Context, entry *CorporationLedgerEntry) error

	CreateUnclaimed(ctx context.Context, row *UnclaimedTax) error
	ListUnclaimed(ctx context.Context) ([]UnclaimedTax, error)
	DeleteUnclaimed(ctx context.Context, id snowflake.ID) error

	OutstandingUserAccounts(ctx context.Context) ([]UserAccount, error)
	OutstandingCorporationAccounts(ctx context.Context) ([]CorporationAccount, error)
	OverdueCorporationAccounts(ctx context.Context, cutoff time.Time) ([]CorporationAccount, error)
	TotalUserBalance(ctx context.Context) (decimal.Decimal, error)
	TotalCorporationBalance(ctx context.Context) (decimal.Decimal, error)

	GetPaymentCursor(ctx context.Context) (*PaymentCursor, error)
	AdvancePaymentCursor(ctx context.Context, to time.Time) error
}

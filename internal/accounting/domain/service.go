package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Poster writes validated ledger postings. Amount is always given as a
// positive number; the entry type decides the sign on the ledger.
type Poster interface {
	Post(ctx context.Context, target Target, amount decimal.Decimal, description string, entryType EntryType, at *time.Time) error
}

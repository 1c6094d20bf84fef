package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	// FindPlan loads a plan with every rule association attached.
	FindPlan(ctx context.Context, id snowflake.ID) (*TaxPlan, error)
	ListEnabledPlans(ctx context.Context) ([]*TaxPlan, error)

	// LastRecordEnd returns the end date of the newest record for the
	// plan, or nil when the plan has never been invoiced.
	LastRecordEnd(ctx context.Context, planID snowflake.ID) (*time.Time, error)
	InsertRecord(ctx context.Context, record *TaxRecord) error
	ListRecords(ctx context.Context, planID snowflake.ID, limit int) ([]*TaxRecord, error)

	// Marker writes are idempotent: duplicates on entry ID are dropped.
	MarkCharacterEntries(ctx context.Context, markers []CharacterTaxMarker) error
	MarkCorporationEntries(ctx context.Context, markers []CorporationTaxMarker) error

	ListRatePoints(ctx context.Context, corporationID int64) ([]RatePoint, error)
	InsertRatePoints(ctx context.Context, points []RatePoint) error
	DeleteRatePoints(ctx context.Context, corporationID int64) error
}

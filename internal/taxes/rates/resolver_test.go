package rates

import (
	"testing"
	"time"

	"github.com/karmafleet/allianceledger/internal/taxes/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ratePoint(start time.Time, rate int64) domain.RatePoint {
	return domain.RatePoint{StartDate: start, TaxRate: decimal.NewFromInt(rate)}
}

func TestResolveNoHistoryUsesFallback(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	got := Resolve(nil, at, decimal.NewFromInt(10))
	assert.True(t, got.Equal(decimal.NewFromInt(10)))
}

func TestResolvePicksNewestPointBeforeMoment(t *testing.T) {
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// Deliberately unsorted input.
	points := []domain.RatePoint{
		ratePoint(mar, 30),
		ratePoint(jan, 5),
		ratePoint(feb, 15),
	}

	at := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	got := Resolve(points, at, decimal.NewFromInt(99))
	assert.True(t, got.Equal(decimal.NewFromInt(15)), "got %s", got)
}

func TestResolvePointAtExactMomentDoesNotApply(t *testing.T) {
	feb := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	points := []domain.RatePoint{ratePoint(feb, 15)}

	got := Resolve(points, feb, decimal.NewFromInt(99))
	assert.True(t, got.Equal(decimal.NewFromInt(99)), "got %s", got)
}

func TestResolveAllPointsInFutureUsesFallback(t *testing.T) {
	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	points := []domain.RatePoint{ratePoint(future, 50)}

	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	got := Resolve(points, at, decimal.NewFromInt(8))
	assert.True(t, got.Equal(decimal.NewFromInt(8)))
}

package rates

import (
	"sort"
	"time"

	"github.com/karmafleet/allianceledger/internal/taxes/domain"
	"github.com/shopspring/decimal"
)

// Resolve returns the corporation tax rate in force at the given moment.
// The newest rate point starting strictly before the moment wins; with no
// such point the fallback (the live rate) applies. A point starting
// exactly at the moment does not apply yet.
func Resolve(points []domain.RatePoint, at time.Time, fallback decimal.Decimal) decimal.Decimal {
	ordered := make([]domain.RatePoint, len(points))
	copy(ordered, points)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].StartDate.Before(ordered[j].StartDate)
	})

	rate := fallback
	for _, point := range ordered {
		if point.StartDate.Before(at) {
			rate = point.TaxRate
		} else {
			break
		}
	}
	return rate
}

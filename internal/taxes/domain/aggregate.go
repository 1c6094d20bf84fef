package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Aggregate accumulates taxable activity for one grouping key, usually a
// main character, rolled up per corporation before invoicing.
type Aggregate struct {
	CorporationID  int64
	Characters     []string
	TransactionIDs []int64
	RatesUsed      []decimal.Decimal
	// GrossEarned is the reconstructed pre-deduction income; PreTaxTotal
	// the portion the rule considers taxable.
	GrossEarned decimal.Decimal
	PreTaxTotal decimal.Decimal
	TaxToPay    decimal.Decimal
	Count       int
	Start       time.Time
	End         time.Time
}

func NewAggregate(corporationID int64) *Aggregate {
	return &Aggregate{
		CorporationID: corporationID,
		GrossEarned:   decimal.Zero,
		PreTaxTotal:   decimal.Zero,
		TaxToPay:      decimal.Zero,
		Start:         MaxDate,
		End:           MinDate,
	}
}

// Observe widens the aggregate's seen window to include t.
func (a *Aggregate) Observe(t time.Time) {
	if t.Before(a.Start) {
		a.Start = t
	}
	if t.After(a.End) {
		a.End = t
	}
}

func (a *Aggregate) AddCharacter(name string) {
	for _, existing := range a.Characters {
		if existing == name {
			return
		}
	}
	a.Characters = append(a.Characters, name)
}

func (a *Aggregate) AddRate(rate decimal.Decimal) {
	for _, existing := range a.RatesUsed {
		if existing.Equal(rate) {
			return
		}
	}
	a.RatesUsed = append(a.RatesUsed, rate)
}

// Merge folds other into a, deduping characters and rates and widening
// the window.
func (a *Aggregate) Merge(other *Aggregate) {
	for _, name := range other.Characters {
		a.AddCharacter(name)
	}
	for _, rate := range other.RatesUsed {
		a.AddRate(rate)
	}
	a.TransactionIDs = append(a.TransactionIDs, other.TransactionIDs...)
	a.GrossEarned = a.GrossEarned.Add(other.GrossEarned)
	a.PreTaxTotal = a.PreTaxTotal.Add(other.PreTaxTotal)
	a.TaxToPay = a.TaxToPay.Add(other.TaxToPay)
	a.Count += other.Count
	if other.Start.Before(a.Start) {
		a.Start = other.Start
	}
	if other.End.After(a.End) {
		a.End = other.End
	}
}

// RollUpByCorporation merges per-key aggregates into one per corporation.
func RollUpByCorporation(aggregates map[string]*Aggregate) map[int64]*Aggregate {
	out := make(map[int64]*Aggregate, len(aggregates))
	for _, agg := range aggregates {
		existing, ok := out[agg.CorporationID]
		if !ok {
			existing = NewAggregate(agg.CorporationID)
			out[agg.CorporationID] = existing
		}
		existing.Merge(agg)
	}
	return out
}

package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestObserveWidensWindow(t *testing.T) {
	agg := NewAggregate(2001)
	assert.Equal(t, MaxDate, agg.Start)
	assert.Equal(t, MinDate, agg.End)

	mid := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	agg.Observe(mid)
	assert.Equal(t, mid, agg.Start)
	assert.Equal(t, mid, agg.End)

	earlier := mid.AddDate(0, 0, -10)
	later := mid.AddDate(0, 0, 10)
	agg.Observe(later)
	agg.Observe(earlier)
	assert.Equal(t, earlier, agg.Start)
	assert.Equal(t, later, agg.End)
}

func TestAddCharacterAndRateDedupe(t *testing.T) {
	agg := NewAggregate(2001)
	agg.AddCharacter("pilot one")
	agg.AddCharacter("pilot one")
	agg.AddCharacter("pilot two")
	assert.Equal(t, []string{"pilot one", "pilot two"}, agg.Characters)

	agg.AddRate(decimal.NewFromInt(10))
	agg.AddRate(decimal.New(100, -1)) // 10.0, same value
	assert.Len(t, agg.RatesUsed, 1)
}

func TestRollUpByCorporationMergesMains(t *testing.T) {
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	first := NewAggregate(2001)
	first.AddCharacter("main one")
	first.TransactionIDs = []int64{1, 2}
	first.GrossEarned = decimal.NewFromInt(100)
	first.TaxToPay = decimal.NewFromInt(10)
	first.Count = 2
	first.Observe(jan)

	second := NewAggregate(2001)
	second.AddCharacter("main two")
	second.TransactionIDs = []int64{3}
	second.GrossEarned = decimal.NewFromInt(50)
	second.TaxToPay = decimal.NewFromInt(5)
	second.Count = 1
	second.Observe(feb)

	other := NewAggregate(2002)
	other.TransactionIDs = []int64{4}
	other.TaxToPay = decimal.NewFromInt(7)
	other.Count = 1
	other.Observe(feb)

	rolled := RollUpByCorporation(map[string]*Aggregate{
		"main one": first,
		"main two": second,
		"stranger": other,
	})
	assert.Len(t, rolled, 2)

	merged := rolled[2001]
	assert.ElementsMatch(t, []string{"main one", "main two"}, merged.Characters)
	assert.ElementsMatch(t, []int64{1, 2, 3}, merged.TransactionIDs)
	assert.True(t, merged.GrossEarned.Equal(decimal.NewFromInt(150)))
	assert.True(t, merged.TaxToPay.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, 3, merged.Count)
	assert.Equal(t, jan, merged.Start)
	assert.Equal(t, feb, merged.End)
}

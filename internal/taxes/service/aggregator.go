package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/karmafleet/allianceledger/internal/clock"
	"github.com/karmafleet/allianceledger/internal/eveapi"
	"github.com/karmafleet/allianceledger/internal/metrics"
	registrydomain "github.com/karmafleet/allianceledger/internal/registry/domain"
	"github.com/karmafleet/allianceledger/internal/taxes/domain"
	"github.com/karmafleet/allianceledger/internal/taxes/rates"
	walletdomain "github.com/karmafleet/allianceledger/internal/wallet/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const bountyRefType = "bounty_prizes"

// structureDataMaxAge excludes corporations whose structure data has not
// refreshed recently enough to bill against.
const structureDataMaxAge = 7 * 24 * time.Hour

// Bounty payouts arrive post-deduction: the wallet amount plus the
// corporation tax is 60% of the earned value, 35% goes to the ESS and 5%
// to the reserve bank.
var (
	bountyRetainedShare = decimal.NewFromFloat(0.6)
	bountyTaxableShare  = decimal.NewFromFloat(0.95)
	essCutShare         = decimal.NewFromFloat(0.35)
	hundred             = decimal.NewFromInt(100)
)

// rateCache memoizes per-run rate lookups so each corporation costs at
// most one history query and one live API call per run.
type rateCache struct {
	history map[int64][]domain.RatePoint
	live    map[int64]decimal.Decimal
}

func newRateCache() *rateCache {
	return &rateCache{
		history: make(map[int64][]domain.RatePoint),
		live:    make(map[int64]decimal.Decimal),
	}
}

// Aggregator scans untaxed wallet journal rows and folds them into
// per-main aggregates ready for corporate roll-up.
type Aggregator struct {
	taxes    domain.Repository
	wallet   walletdomain.Repository
	registry registrydomain.Repository
	esi      eveapi.Client
	clk      clock.Clock
	log      *zap.Logger
}

func NewAggregator(taxes domain.Repository, wallet walletdomain.Repository, registry registrydomain.Repository, esi eveapi.Client, clk clock.Clock, log *zap.Logger) *Aggregator {
	return &Aggregator{
		taxes:    taxes,
		wallet:   wallet,
		registry: registry,
		esi:      esi,
		clk:      clk,
		log:      log.Named("taxes.aggregator"),
	}
}

// effectiveRate resolves the corporation tax rate (percent) in force for
// the corporation at the given moment, defaulting to the live rate. A
// failed live lookup propagates: charging on a guessed rate is worse
// than retrying the window next run.
func (a *Aggregator) effectiveRate(ctx context.Context, cache *rateCache, corporationID int64, at time.Time) (decimal.Decimal, error) {
	points, ok := cache.history[corporationID]
	if !ok {
		var err error
		points, err = a.taxes.ListRatePoints(ctx, corporationID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("rate history for corporation %d: %w", corporationID, err)
		}
		cache.history[corporationID] = points
	}

	live, ok := cache.live[corporationID]
	if !ok {
		info, err := a.esi.CorporationInfo(ctx, corporationID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("live rate for corporation %d: %w: %v", corporationID, domain.ErrRateUnavailable, err)
		}
		live = decimal.NewFromFloat(info.TaxRate).Mul(hundred)
		cache.live[corporationID] = live
	}

	return rates.Resolve(points, at, live), nil
}

// RattingAggregates taxes bounty income per main character. The taxable
// value is reconstructed from the post-deduction payout; rows without an
// amount are unusable and skipped.
func (a *Aggregator) RattingAggregates(ctx context.Context, rule domain.RattingRule, start, end time.Time, allianceIDs []int64) (map[string]*domain.Aggregate, error) {
	rows, err := a.wallet.ListCharacterEntries(ctx, walletdomain.CharacterEntryQuery{
		RefTypes:    []string{bountyRefType},
		Start:       start,
		End:         end,
		RegionIDs:   regionIDs(rule.Regions),
		AllianceIDs: allianceIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("list bounty entries: %w", err)
	}

	output := make(map[string]*domain.Aggregate)
	seen := make(map[int64]bool, len(rows))
	var bad []int64
	for _, row := range rows {
		if seen[row.EntryID] {
			continue
		}
		seen[row.EntryID] = true

		if row.Amount == nil {
			bad = append(bad, row.EntryID)
			metrics.Runs().IncBadTransaction("ratting")
			continue
		}
		amount := *row.Amount
		tax := decimal.Zero
		if row.Tax != nil {
			tax = *row.Tax
		}

		agg, ok := output[row.MainName]
		if !ok {
			agg = domain.NewAggregate(row.MainCorporationID)
			output[row.MainName] = agg
		}

		totalRatted := amount.Add(tax).Div(bountyRetainedShare)
		value := totalRatted.Mul(bountyTaxableShare)
		if !rule.IncludeESSSection {
			value = value.Sub(totalRatted.Mul(essCutShare))
		}

		agg.GrossEarned = agg.GrossEarned.Add(amount)
		agg.PreTaxTotal = agg.PreTaxTotal.Add(value)
		agg.TaxToPay = agg.TaxToPay.Add(value.Mul(rule.Tax).Div(hundred))
		agg.Count++
		agg.TransactionIDs = append(agg.TransactionIDs, row.EntryID)
		agg.AddCharacter(row.CharacterName)
		agg.Observe(row.Date)
	}

	if len(bad) > 0 {
		a.log.Warn("bounty rows with unusable data skipped",
			zap.String("rule", rule.Name),
			zap.Int64s("entry_ids", bad),
		)
	}
	return output, nil
}

// CharacterPayoutAggregates taxes payouts in character wallets. The
// pre-tax value is reconstructed from the paying corporation's tax rate
// at the transaction date; a 100% rate falls back to the entry's own tax
// field.
func (a *Aggregator) CharacterPayoutAggregates(ctx context.Context, cache *rateCache, rule domain.CharacterPayoutRule, start, end time.Time, allianceIDs []int64) (map[string]*domain.Aggregate, error) {
	query := walletdomain.CharacterEntryQuery{
		RefTypes:    splitCSV(rule.RefTypes),
		Start:       start,
		End:         end,
		AllianceIDs: allianceIDs,
	}
	if rule.SourceCorporationID != nil {
		query.FirstPartyIDs = []int64{*rule.SourceCorporationID}
	}
	rows, err := a.wallet.ListCharacterEntries(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list payout entries: %w", err)
	}

	output := make(map[string]*domain.Aggregate)
	seen := make(map[int64]bool, len(rows))
	var bad []int64
	for _, row := range rows {
		if seen[row.EntryID] {
			continue
		}
		seen[row.EntryID] = true

		rate, err := a.effectiveRate(ctx, cache, row.CorporationID, row.Date)
		if err != nil {
			return nil, err
		}

		if row.Amount == nil {
			bad = append(bad, row.EntryID)
			metrics.Runs().IncBadTransaction("character_payout")
			continue
		}
		amount := *row.Amount

		var totalValue decimal.Decimal
		denominator := hundred.Sub(rate)
		if denominator.IsZero() {
			// 100% corp tax: the payout amount is zero, the entry's tax
			// field is the only usable signal.
			if row.Tax == nil {
				bad = append(bad, row.EntryID)
				metrics.Runs().IncBadTransaction("character_payout")
				continue
			}
			totalValue = *row.Tax
		} else {
			totalValue = amount.Div(denominator).Mul(hundred)
		}

		agg, ok := output[row.MainName]
		if !ok {
			agg = domain.NewAggregate(row.MainCorporationID)
			output[row.MainName] = agg
		}

		agg.GrossEarned = agg.GrossEarned.Add(amount)
		agg.PreTaxTotal = agg.PreTaxTotal.Add(totalValue)
		agg.TaxToPay = agg.TaxToPay.Add(totalValue.Mul(rule.Tax).Div(hundred))
		agg.Count++
		agg.TransactionIDs = append(agg.TransactionIDs, row.EntryID)
		agg.AddRate(rate)
		agg.AddCharacter(row.CharacterName)
		agg.Observe(row.Date)
	}

	if len(bad) > 0 {
		a.log.Warn("payout rows with unusable data skipped",
			zap.String("rule", rule.Name),
			zap.Int64s("entry_ids", bad),
		)
	}
	return output, nil
}

// CorporationPayoutAggregates taxes payouts in corporation wallets,
// grouped by the owning corporation directly.
func (a *Aggregator) CorporationPayoutAggregates(ctx context.Context, cache *rateCache, rule domain.CorporationPayoutRule, start, end time.Time) (map[int64]*domain.Aggregate, error) {
	query := walletdomain.CorporationEntryQuery{
		RefTypes: []string{rule.RefTypes},
		Start:    start,
		End:      end,
	}
	if rule.SourceCorporationID != nil {
		query.FirstPartyIDs = []int64{*rule.SourceCorporationID}
	}
	rows, err := a.wallet.ListCorporationEntries(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list corporation payout entries: %w", err)
	}

	output := make(map[int64]*domain.Aggregate)
	seen := make(map[int64]bool, len(rows))
	var bad []int64
	for _, row := range rows {
		if seen[row.EntryID] {
			continue
		}
		seen[row.EntryID] = true

		rate, err := a.effectiveRate(ctx, cache, row.CorporationID, row.Date)
		if err != nil {
			return nil, err
		}

		if row.Amount == nil {
			bad = append(bad, row.EntryID)
			metrics.Runs().IncBadTransaction("corporation_payout")
			continue
		}
		amount := *row.Amount

		totalValue := amount
		if rate.IsPositive() {
			totalValue = amount.Div(rate.Div(hundred))
		}

		agg, ok := output[row.CorporationID]
		if !ok {
			agg = domain.NewAggregate(row.CorporationID)
			output[row.CorporationID] = agg
		}

		agg.GrossEarned = agg.GrossEarned.Add(amount)
		agg.PreTaxTotal = agg.PreTaxTotal.Add(totalValue)
		agg.TaxToPay = agg.TaxToPay.Add(totalValue.Mul(rule.Tax).Div(hundred))
		agg.Count++
		agg.TransactionIDs = append(agg.TransactionIDs, row.EntryID)
		agg.AddRate(rate)
		if row.SecondPartyName != "" {
			agg.AddCharacter(row.SecondPartyName)
		}
		agg.Observe(row.Date)
	}

	if len(bad) > 0 {
		a.log.Warn("corporation payout rows with unusable data skipped",
			zap.String("rule", rule.Name),
			zap.Int64s("entry_ids", bad),
		)
	}
	return output, nil
}

// FlatCharge is a per-unit flat bill against one corporation.
type FlatCharge struct {
	CorporationID int64
	Units         int
	TaxToPay      decimal.Decimal
}

// MemberTaxCharges bills a flat amount per main character in the rule's
// membership state.
func (a *Aggregator) MemberTaxCharges(ctx context.Context, rule domain.MemberTaxRule) ([]FlatCharge, error) {
	counts, err := a.registry.MainCountsByState(ctx, rule.State)
	if err != nil {
		return nil, fmt.Errorf("main counts for state %q: %w", rule.State, err)
	}
	charges := make([]FlatCharge, 0, len(counts))
	for _, count := range counts {
		charges = append(charges, FlatCharge{
			CorporationID: count.CorporationID,
			Units:         count.Mains,
			TaxToPay:      rule.ISKPerMain.Mul(decimal.NewFromInt(int64(count.Mains))),
		})
	}
	return charges, nil
}

// StructureServiceCharges bills a flat amount per matching fitted
// service, skipping corporations with stale structure data.
func (a *Aggregator) StructureServiceCharges(ctx context.Context, rule domain.StructureServiceRule) ([]FlatCharge, error) {
	counts, err := a.wallet.CountServicesByCorporation(ctx, walletdomain.ServiceCountQuery{
		ServiceNames: splitCSV(rule.ServiceFilters),
		TypeIDs:      parseIDsCSV(rule.TypeIDs),
		RegionIDs:    regionIDs(rule.Regions),
		UpdatedSince: a.clk.Now().Add(-structureDataMaxAge),
	})
	if err != nil {
		return nil, fmt.Errorf("service counts: %w", err)
	}
	charges := make([]FlatCharge, 0, len(counts))
	for _, count := range counts {
		charges = append(charges, FlatCharge{
			CorporationID: count.CorporationID,
			Units:         count.Count,
			TaxToPay:      rule.ISKPerService.Mul(decimal.NewFromInt(int64(count.Count))),
		})
	}
	return charges, nil
}

func regionIDs(regions []walletdomain.Region) []int64 {
	if len(regions) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(regions))
	for _, region := range regions {
		ids = append(ids, region.RegionID)
	}
	return ids
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseIDsCSV(value string) []int64 {
	var out []int64
	for _, part := range splitCSV(value) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}

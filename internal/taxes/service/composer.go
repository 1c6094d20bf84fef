package service

import (
	"context"
	"fmt"
	"time"

	"github.com/karmafleet/allianceledger/internal/taxes/domain"
	"github.com/karmafleet/allianceledger/pkg/isk"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CorpInvoice is one corporation's share of a composed run: the total
// and one human-readable line per contributing rule.
type CorpInvoice struct {
	TotalTax decimal.Decimal `json:"total_tax"`
	Messages []string        `json:"messages"`
}

// Composition is the result of running every rule in a plan over a
// window. The entry ID lists cover every scanned transaction of
// non-exempt corporations, including ones that produced no charge, so
// markers stop them from being re-scanned forever.
type Composition struct {
	Invoices            map[int64]*CorpInvoice `json:"taxes"`
	CharacterEntryIDs   []int64                `json:"char_trans_ids"`
	CorporationEntryIDs []int64                `json:"corp_trans_ids"`
}

type Composer struct {
	aggregator *Aggregator
	log        *zap.Logger
}

func NewComposer(aggregator *Aggregator, log *zap.Logger) *Composer {
	return &Composer{
		aggregator: aggregator,
		log:        log.Named("taxes.composer"),
	}
}

func (c *Composer) Compose(ctx context.Context, plan *domain.TaxPlan, start, end time.Time) (*Composition, error) {
	exempt := make(map[int64]bool, len(plan.ExemptCorporations))
	for _, corporation := range plan.ExemptCorporations {
		exempt[corporation.CorporationID] = true
	}
	var allianceIDs []int64
	for _, alliance := range plan.IncludedAlliances {
		allianceIDs = append(allianceIDs, alliance.AllianceID)
	}

	composition := &Composition{Invoices: make(map[int64]*CorpInvoice)}
	cache := newRateCache()

	invoice := func(corporationID int64) *CorpInvoice {
		inv, ok := composition.Invoices[corporationID]
		if !ok {
			inv = &CorpInvoice{TotalTax: decimal.Zero}
			composition.Invoices[corporationID] = inv
		}
		return inv
	}

	for _, rule := range plan.RattingRules {
		perMain, err := c.aggregator.RattingAggregates(ctx, rule, start, end, allianceIDs)
		if err != nil {
			return nil, fmt.Errorf("ratting rule %q: %w", rule.Name, err)
		}
		for corporationID, data := range domain.RollUpByCorporation(perMain) {
			if exempt[corporationID] {
				continue
			}
			if data.TaxToPay.IsPositive() {
				inv := invoice(corporationID)
				inv.TotalTax = inv.TotalTax.Add(data.TaxToPay)
				inv.Messages = append(inv.Messages, fmt.Sprintf(
					"%s: %s (%s%% of Total Earnings)",
					rule.Name, isk.Human(data.TaxToPay), rule.Tax.StringFixed(1),
				))
			}
			composition.CharacterEntryIDs = append(composition.CharacterEntryIDs, data.TransactionIDs...)
		}
	}

	for _, rule := range plan.CharacterPayoutRules {
		perMain, err := c.aggregator.CharacterPayoutAggregates(ctx, cache, rule, start, end, allianceIDs)
		if err != nil {
			return nil, fmt.Errorf("character payout rule %q: %w", rule.Name, err)
		}
		for corporationID, data := range domain.RollUpByCorporation(perMain) {
			if exempt[corporationID] {
				continue
			}
			if data.TaxToPay.IsPositive() {
				inv := invoice(corporationID)
				inv.TotalTax = inv.TotalTax.Add(data.TaxToPay)
				inv.Messages = append(inv.Messages, fmt.Sprintf(
					"%s: %s (%s%% of Total Earnings)",
					rule.Name, isk.Human(data.TaxToPay), rule.Tax.StringFixed(1),
				))
			}
			composition.CharacterEntryIDs = append(composition.CharacterEntryIDs, data.TransactionIDs...)
		}
	}

	for _, rule := range plan.CorporationPayoutRules {
		perCorp, err := c.aggregator.CorporationPayoutAggregates(ctx, cache, rule, start, end)
		if err != nil {
			return nil, fmt.Errorf("corporation payout rule %q: %w", rule.Name, err)
		}
		for corporationID, data := range perCorp {
			if exempt[corporationID] {
				continue
			}
			if data.TaxToPay.IsPositive() {
				inv := invoice(corporationID)
				inv.TotalTax = inv.TotalTax.Add(data.TaxToPay)
				inv.Messages = append(inv.Messages, fmt.Sprintf(
					"%s: %s (%s%% of Total Earnings)",
					rule.Name, isk.Human(data.TaxToPay), rule.Tax.StringFixed(1),
				))
			}
			composition.CorporationEntryIDs = append(composition.CorporationEntryIDs, data.TransactionIDs...)
		}
	}

	for _, rule := range plan.MemberTaxRules {
		charges, err := c.aggregator.MemberTaxCharges(ctx, rule)
		if err != nil {
			return nil, fmt.Errorf("member tax rule %q: %w", rule.Name, err)
		}
		for _, charge := range charges {
			if exempt[charge.CorporationID] || !charge.TaxToPay.IsPositive() {
				continue
			}
			inv := invoice(charge.CorporationID)
			inv.TotalTax = inv.TotalTax.Add(charge.TaxToPay)
			inv.Messages = append(inv.Messages, fmt.Sprintf(
				"Main Character Tax: $%s (%s: %d Mains @ %s Per)",
				isk.Human(charge.TaxToPay), rule.State, charge.Units, isk.Human(rule.ISKPerMain),
			))
		}
	}

	for _, rule := range plan.StructureServiceRules {
		charges, err := c.aggregator.StructureServiceCharges(ctx, rule)
		if err != nil {
			return nil, fmt.Errorf("structure service rule %q: %w", rule.Name, err)
		}
		for _, charge := range charges {
			if exempt[charge.CorporationID] || !charge.TaxToPay.IsPositive() {
				continue
			}
			inv := invoice(charge.CorporationID)
			inv.TotalTax = inv.TotalTax.Add(charge.TaxToPay)
			inv.Messages = append(inv.Messages, fmt.Sprintf(
				"Industry Structures Tax: $%s (%d Structure @ %s Per)",
				isk.Human(charge.TaxToPay), charge.Units, isk.Human(rule.ISKPerService),
			))
		}
	}

	c.log.Debug("composition complete",
		zap.String("plan", plan.Name),
		zap.Int("corporations", len(composition.Invoices)),
		zap.Int("character_entries", len(composition.CharacterEntryIDs)),
		zap.Int("corporation_entries", len(composition.CorporationEntryIDs)),
	)
	return composition, nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountingdomain "github.com/karmafleet/allianceledger/internal/accounting/domain"
	"github.com/karmafleet/allianceledger/internal/clock"
	"github.com/karmafleet/allianceledger/internal/config"
	"github.com/karmafleet/allianceledger/internal/metrics"
	registrydomain "github.com/karmafleet/allianceledger/internal/registry/domain"
	"github.com/karmafleet/allianceledger/internal/taxes/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// firstRunGrace keeps a plan's very first window off the epoch sentinel.
const firstRunGrace = 5 * 24 * time.Hour

// Issuer runs a plan end to end: compose the window, post one tax entry
// per corporation, persist the record and mark every scanned journal
// entry as processed.
type Issuer struct {
	taxes    domain.Repository
	composer *Composer
	registry registrydomain.Service
	poster   accountingdomain.Poster
	settings *config.BankSettingsHolder
	clk      clock.Clock
	node     *snowflake.Node
	log      *zap.Logger
}

func NewIssuer(
	taxes domain.Repository,
	composer *Composer,
	registry registrydomain.Service,
	poster accountingdomain.Poster,
	settings *config.BankSettingsHolder,
	clk clock.Clock,
	node *snowflake.Node,
	log *zap.Logger,
) *Issuer {
	return &Issuer{
		taxes:    taxes,
		composer: composer,
		registry: registry,
		poster:   poster,
		settings: settings,
		clk:      clk,
		node:     node,
		log:      log.Named("taxes.issuer"),
	}
}

// sanitizeDate truncates to the start of the day, keeping the location.
func sanitizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// windowFor computes the next charge window. The start reaches back past
// the previous record's end to absorb delayed wallet data; markers keep
// the overlap from double-charging.
func (i *Issuer) windowFor(ctx context.Context, planID snowflake.ID) (time.Time, time.Time, error) {
	lastEnd, err := i.taxes.LastRecordEnd(ctx, planID)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("last record end: %w", err)
	}
	previous := domain.MinDate.Add(firstRunGrace)
	if lastEnd != nil {
		previous = *lastEnd
	}
	overlap := i.settings.Get().OverlapDays
	start := sanitizeDate(previous.AddDate(0, 0, -overlap))
	end := sanitizeDate(i.clk.Now())
	// A record end ahead of the clock (clock skew, manual backfill)
	// would invert the window.
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("window %s to %s: %w",
			start.Format("2006-01-02"), end.Format("2006-01-02"), domain.ErrEmptyWindow)
	}
	return start, end, nil
}

func (i *Issuer) Issue(ctx context.Context, planID snowflake.ID) error {
	plan, err := i.taxes.FindPlan(ctx, planID)
	if err != nil {
		return err
	}
	if !plan.Enabled {
		return fmt.Errorf("plan %q: %w", plan.Name, domain.ErrPlanDisabled)
	}

	start, end, err := i.windowFor(ctx, plan.ID)
	if err != nil {
		return err
	}

	composition, err := i.composer.Compose(ctx, plan, start, end)
	if err != nil {
		return fmt.Errorf("compose plan %q: %w", plan.Name, err)
	}

	// Post the charges before any marker is written: a posting failure
	// aborts the run and the untouched markers let the next run re-cover
	// the same window safely.
	totalTax := decimal.Zero
	for corporationID, invoice := range composition.Invoices {
		corporation, err := i.registry.GetOrCreateCorporation(ctx, corporationID)
		if err != nil {
			return fmt.Errorf("corporation %d: %w", corporationID, err)
		}
		message := strings.Join(invoice.Messages, "\n")
		err = i.poster.Post(ctx, accountingdomain.CorporationTarget{CorporationID: corporation.CorporationID}, invoice.TotalTax, message, accountingdomain.EntryTypeTax, nil)
		if err != nil {
			return fmt.Errorf("charge corporation %d: %w", corporationID, err)
		}
		totalTax = totalTax.Add(invoice.TotalTax)
	}

	breakdown, err := json.Marshal(composition)
	if err != nil {
		return fmt.Errorf("serialize breakdown: %w", err)
	}
	record := &domain.TaxRecord{
		ID:        i.node.Generate(),
		PlanID:    plan.ID,
		Name:      fmt.Sprintf("Alliance Taxes %s", end.Format("2006-01-02")),
		StartDate: start,
		EndDate:   end,
		TotalTax:  totalTax,
		Breakdown: string(breakdown),
	}
	if err := i.taxes.InsertRecord(ctx, record); err != nil {
		return fmt.Errorf("persist record: %w", err)
	}

	characterMarkers := make([]domain.CharacterTaxMarker, 0, len(composition.CharacterEntryIDs))
	for _, entryID := range composition.CharacterEntryIDs {
		characterMarkers = append(characterMarkers, domain.CharacterTaxMarker{
			ID:        i.node.Generate(),
			EntryID:   entryID,
			RecordID:  record.ID,
			Processed: true,
		})
	}
	if err := i.taxes.MarkCharacterEntries(ctx, characterMarkers); err != nil {
		return fmt.Errorf("mark character entries: %w", err)
	}

	corporationMarkers := make([]domain.CorporationTaxMarker, 0, len(composition.CorporationEntryIDs))
	for _, entryID := range composition.CorporationEntryIDs {
		corporationMarkers = append(corporationMarkers, domain.CorporationTaxMarker{
			ID:        i.node.Generate(),
			EntryID:   entryID,
			RecordID:  record.ID,
			Processed: true,
		})
	}
	if err := i.taxes.MarkCorporationEntries(ctx, corporationMarkers); err != nil {
		return fmt.Errorf("mark corporation entries: %w", err)
	}

	metrics.Runs().IncInvoiceIssued()
	i.log.Info("invoices issued",
		zap.String("plan", plan.Name),
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("corporations", len(composition.Invoices)),
		zap.String("total_tax", totalTax.String()),
	)
	return nil
}

// IssueAll runs every enabled plan, joining per-plan failures.
func (i *Issuer) IssueAll(ctx context.Context) error {
	plans, err := i.taxes.ListEnabledPlans(ctx)
	if err != nil {
		return fmt.Errorf("list plans: %w", err)
	}
	var errs []error
	for _, plan := range plans {
		if err := i.Issue(ctx, plan.ID); err != nil {
			errs = append(errs, fmt.Errorf("plan %q: %w", plan.Name, err))
		}
	}
	return errors.Join(errs...)
}

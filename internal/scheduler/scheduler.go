package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	accountingservice "github.com/karmafleet/allianceledger/internal/accounting/service"
	"github.com/karmafleet/allianceledger/internal/clock"
	"github.com/karmafleet/allianceledger/internal/metrics"
	"github.com/karmafleet/allianceledger/internal/runlock"
	"github.com/karmafleet/allianceledger/internal/taxes/rates"
	taxesservice "github.com/karmafleet/allianceledger/internal/taxes/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

const (
	JobPaymentSweep       = "payment_sweep"
	JobRateSync           = "rate_sync"
	JobIssueInvoices      = "issue_invoices"
	JobReconcileUnclaimed = "reconcile_unclaimed"
	JobAccountReport      = "account_report"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Sweeper    *accountingservice.Sweeper
	Reconciler *accountingservice.Reconciler
	Reporter   *accountingservice.Reporter
	Syncer     *rates.Syncer
	Issuer     *taxesservice.Issuer
	Locker     *runlock.Locker `optional:"true"`
	Clock      clock.Clock
	Config     Config `optional:"true"`
}

// Scheduler drives the recurring accounting work: sweep bank payments,
// sync corporation rate history, issue invoices for enabled plans,
// reconcile unclaimed taxes and log the debt statement.
type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	clock      clock.Clock
	sweeper    *accountingservice.Sweeper
	reconciler *accountingservice.Reconciler
	reporter   *accountingservice.Reporter
	syncer     *rates.Syncer
	issuer     *taxesservice.Issuer
	locker     *runlock.Locker
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Sweeper == nil || p.Reconciler == nil || p.Reporter == nil || p.Syncer == nil || p.Issuer == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        p.Config.withDefaults(),
		clock:      p.Clock,
		sweeper:    p.Sweeper,
		reconciler: p.Reconciler,
		reporter:   p.Reporter,
		syncer:     p.Syncer,
		issuer:     p.Issuer,
		locker:     p.Locker,
	}, nil
}

// runJob wraps a job with a deadline, a cross-replica lock and metrics.
// Deadline hits are soft failures: logged and counted, not propagated.
func (s *Scheduler) runJob(parent context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	log := s.log.With(zap.String("job", name))

	if s.locker != nil {
		key := "allianceledger:job:" + name
		token, ok, err := s.locker.TryLock(ctx, key, s.cfg.LockTTL)
		if err != nil {
			return fmt.Errorf("%s: acquire lock: %w", name, err)
		}
		if !ok {
			log.Debug("job held by another replica")
			return nil
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
				log.Warn("release job lock failed", zap.Error(err))
			}
		}()
	}

	runMetrics := metrics.Runs()
	runMetrics.IncJobRun(name)

	err := fn(ctx)
	runMetrics.ObserveJobDuration(name, time.Since(start))
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		runMetrics.IncJobTimeout(name)
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	runMetrics.IncJobError(name)
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{JobPaymentSweep, func(ctx context.Context) error {
			return s.runJob(ctx, JobPaymentSweep, s.cfg.SweepTimeout, s.sweeper.CheckForPayments)
		}},
		{JobRateSync, func(ctx context.Context) error {
			return s.runJob(ctx, JobRateSync, s.cfg.RateSyncTimeout, func(ctx context.Context) error {
				return s.syncer.SyncAll(ctx, false)
			})
		}},
		{JobIssueInvoices, func(ctx context.Context) error {
			return s.runJob(ctx, JobIssueInvoices, s.cfg.InvoiceTimeout, s.issuer.IssueAll)
		}},
		{JobReconcileUnclaimed, func(ctx context.Context) error {
			return s.runJob(ctx, JobReconcileUnclaimed, s.cfg.ReconcileTimeout, func(ctx context.Context) error {
				_, err := s.reconciler.ReconcileAll(ctx)
				return err
			})
		}},
		{JobAccountReport, func(ctx context.Context) error {
			return s.runJob(ctx, JobAccountReport, s.cfg.ReportTimeout, func(ctx context.Context) error {
				statement, err := s.reporter.Statement(ctx, s.cfg.OverdueAfter)
				if err != nil {
					return err
				}
				s.log.Info("account statement",
					zap.Int("outstanding_users", len(statement.OutstandingUsers)),
					zap.Int("outstanding_corporations", len(statement.OutstandingCorporations)),
					zap.Int("overdue_corporations", len(statement.OverdueCorporations)),
					zap.String("user_total", statement.UserTotal.String()),
					zap.String("corporation_total", statement.CorporationTotal.String()),
				)
				return nil
			})
		}},
	}

	for _, job := range jobs {
		if s.isJobEnabled(job.Name) {
			err = errors.Join(err, job.Run(parent))
		}
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// An empty EnabledJobs list enables everything.
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

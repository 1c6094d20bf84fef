package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries constant labels applied to every metric.
type Config struct {
	ServiceName string
	Environment string
}

// RunMetrics captures accounting scheduler health signals.
type RunMetrics struct {
	jobRuns             *prometheus.CounterVec
	jobDuration         *prometheus.HistogramVec
	jobTimeouts         *prometheus.CounterVec
	jobErrors           *prometheus.CounterVec
	invoicesIssued      prometheus.Counter
	iskCharged          *prometheus.CounterVec
	badTransactions     *prometheus.CounterVec
	unclaimedCreated    prometheus.Counter
	unclaimedReconciled prometheus.Counter
	paymentsRecorded    *prometheus.CounterVec
}

var (
	runMetricsOnce sync.Once
	runMetrics     *RunMetrics
)

// Runs returns the singleton run metrics registry.
func Runs() *RunMetrics {
	return RunsWithConfig(Config{})
}

// RunsWithConfig returns the singleton run metrics registry using config labels.
func RunsWithConfig(cfg Config) *RunMetrics {
	runMetricsOnce.Do(func() {
		runMetrics = newRunMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return runMetrics
}

// ResetRunMetricsForTest resets the run metrics singleton for tests.
func ResetRunMetricsForTest() {
	runMetricsOnce = sync.Once{}
	runMetrics = nil
}

func newRunMetrics(registerer prometheus.Registerer, cfg Config) *RunMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "allianceledger"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "allianceledger_job_runs_total",
		Help:        "Scheduler job runs by name.",
		ConstLabels: constLabels,
	}, []string{"job"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "allianceledger_job_duration_seconds",
		Help:        "Scheduler job latency.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		ConstLabels: constLabels,
	}, []string{"job"})
	jobTimeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "allianceledger_job_timeouts_total",
		Help:        "Scheduler jobs that hit their deadline.",
		ConstLabels: constLabels,
	}, []string{"job"})
	jobErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "allianceledger_job_errors_total",
		Help:        "Scheduler job errors by name.",
		ConstLabels: constLabels,
	}, []string{"job"})
	invoicesIssued := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "allianceledger_invoices_issued_total",
		Help:        "Tax invoice records persisted.",
		ConstLabels: constLabels,
	})
	iskCharged := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "allianceledger_isk_charged_total",
		Help:        "ISK posted to ledgers by entry type.",
		ConstLabels: constLabels,
	}, []string{"entry_type"})
	badTransactions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "allianceledger_bad_transactions_total",
		Help:        "Wallet journal rows skipped for unusable fields, by rule kind.",
		ConstLabels: constLabels,
	}, []string{"rule"})
	unclaimedCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "allianceledger_unclaimed_taxes_created_total",
		Help:        "Ledger postings parked as unclaimed for ownerless characters.",
		ConstLabels: constLabels,
	})
	unclaimedReconciled := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "allianceledger_unclaimed_taxes_reconciled_total",
		Help:        "Unclaimed postings converted into real ledger entries.",
		ConstLabels: constLabels,
	})
	paymentsRecorded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "allianceledger_payments_recorded_total",
		Help:        "Bank wallet payments recorded by kind.",
		ConstLabels: constLabels,
	}, []string{"kind"})

	registerer.MustRegister(
		jobRuns,
		jobDuration,
		jobTimeouts,
		jobErrors,
		invoicesIssued,
		iskCharged,
		badTransactions,
		unclaimedCreated,
		unclaimedReconciled,
		paymentsRecorded,
	)

	return &RunMetrics{
		jobRuns:             jobRuns,
		jobDuration:         jobDuration,
		jobTimeouts:         jobTimeouts,
		jobErrors:           jobErrors,
		invoicesIssued:      invoicesIssued,
		iskCharged:          iskCharged,
		badTransactions:     badTransactions,
		unclaimedCreated:    unclaimedCreated,
		unclaimedReconciled: unclaimedReconciled,
		paymentsRecorded:    paymentsRecorded,
	}
}

// IncJobRun increments the run counter for a scheduler job.
func (m *RunMetrics) IncJobRun(job string) {
	if m == nil || m.jobRuns == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

// ObserveJobDuration records scheduler job latency in seconds.
func (m *RunMetrics) ObserveJobDuration(job string, duration time.Duration) {
	if m == nil || m.jobDuration == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// IncJobTimeout increments the timeout counter for the scheduler job.
func (m *RunMetrics) IncJobTimeout(job string) {
	if m == nil || m.jobTimeouts == nil {
		return
	}
	m.jobTimeouts.WithLabelValues(job).Inc()
}

// IncJobError increments the scheduler job error counter.
func (m *RunMetrics) IncJobError(job string) {
	if m == nil || m.jobErrors == nil {
		return
	}
	m.jobErrors.WithLabelValues(job).Inc()
}

// IncInvoiceIssued counts a persisted tax invoice record.
func (m *RunMetrics) IncInvoiceIssued() {
	if m == nil || m.invoicesIssued == nil {
		return
	}
	m.invoicesIssued.Inc()
}

// AddISKCharged accumulates posted ISK by ledger entry type.
func (m *RunMetrics) AddISKCharged(entryType string, amount float64) {
	if m == nil || m.iskCharged == nil || amount <= 0 {
		return
	}
	m.iskCharged.WithLabelValues(entryType).Add(amount)
}

// IncBadTransaction counts a skipped wallet journal row for a rule kind.
func (m *RunMetrics) IncBadTransaction(rule string) {
	if m == nil || m.badTransactions == nil {
		return
	}
	m.badTransactions.WithLabelValues(rule).Inc()
}

// IncUnclaimedCreated counts a posting parked as unclaimed tax.
func (m *RunMetrics) IncUnclaimedCreated() {
	if m == nil || m.unclaimedCreated == nil {
		return
	}
	m.unclaimedCreated.Inc()
}

// IncUnclaimedReconciled counts an unclaimed posting moved to a real ledger.
func (m *RunMetrics) IncUnclaimedReconciled() {
	if m == nil || m.unclaimedReconciled == nil {
		return
	}
	m.unclaimedReconciled.Inc()
}

// IncPaymentRecorded counts a recorded bank payment by kind.
func (m *RunMetrics) IncPaymentRecorded(kind string) {
	if m == nil || m.paymentsRecorded == nil {
		return
	}
	m.paymentsRecorded.WithLabelValues(kind).Inc()
}

package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithDefaultsFillsZeroValues(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, time.Minute, cfg.RunInterval)
	assert.Equal(t, 10*time.Minute, cfg.LockTTL)
	assert.Equal(t, 10*time.Minute, cfg.InvoiceTimeout)
	assert.Equal(t, time.Minute, cfg.ReportTimeout)
	assert.Equal(t, 30*24*time.Hour, cfg.OverdueAfter)
}

func TestWithDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{RunInterval: 5 * time.Minute, SweepTimeout: time.Second}.withDefaults()
	assert.Equal(t, 5*time.Minute, cfg.RunInterval)
	assert.Equal(t, time.Second, cfg.SweepTimeout)
}

func TestIsJobEnabled(t *testing.T) {
	all := &Scheduler{cfg: Config{}}
	assert.True(t, all.isJobEnabled(JobPaymentSweep))
	assert.True(t, all.isJobEnabled(JobIssueInvoices))

	some := &Scheduler{cfg: Config{EnabledJobs: []string{"Payment_Sweep"}}}
	assert.True(t, some.isJobEnabled(JobPaymentSweep))
	assert.False(t, some.isJobEnabled(JobRateSync))
}

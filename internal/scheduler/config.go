package scheduler

import (
	"time"
)

// Config controls scheduler intervals and per-job deadlines.
type Config struct {
	RunInterval      time.Duration
	LockTTL          time.Duration
	SweepTimeout     time.Duration
	RateSyncTimeout  time.Duration
	InvoiceTimeout   time.Duration
	ReconcileTimeout time.Duration
	ReportTimeout    time.Duration
	// OverdueAfter is how long a charge may sit unpaid before its
	// corporation shows up as overdue in the statement job.
	OverdueAfter time.Duration
	EnabledJobs  []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:      time.Minute,
		LockTTL:          10 * time.Minute,
		SweepTimeout:     2 * time.Minute,
		RateSyncTimeout:  5 * time.Minute,
		InvoiceTimeout:   10 * time.Minute,
		ReconcileTimeout: 2 * time.Minute,
		ReportTimeout:    time.Minute,
		OverdueAfter:     30 * 24 * time.Hour,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	if c.SweepTimeout <= 0 {
		c.SweepTimeout = defaults.SweepTimeout
	}
	if c.RateSyncTimeout <= 0 {
		c.RateSyncTimeout = defaults.RateSyncTimeout
	}
	if c.InvoiceTimeout <= 0 {
		c.InvoiceTimeout = defaults.InvoiceTimeout
	}
	if c.ReconcileTimeout <= 0 {
		c.ReconcileTimeout = defaults.ReconcileTimeout
	}
	if c.ReportTimeout <= 0 {
		c.ReportTimeout = defaults.ReportTimeout
	}
	if c.OverdueAfter <= 0 {
		c.OverdueAfter = defaults.OverdueAfter
	}
	return c
}

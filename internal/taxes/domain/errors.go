package domain

import "errors"

var (
	ErrPlanNotFound    = errors.New("tax_plan_not_found")
	ErrPlanDisabled    = errors.New("tax_plan_disabled")
	ErrRateUnavailable = errors.New("tax_rate_unavailable")
	ErrEmptyWindow     = errors.New("invoice_window_empty")
)

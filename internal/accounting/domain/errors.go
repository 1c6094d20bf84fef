package domain

import "errors"

var (
	ErrInvalidEntryType  = errors.New("invalid_entry_type")
	ErrNonPositiveAmount = errors.New("non_positive_amount")
	ErrUnknownTarget     = errors.New("unknown_ledger_target")
)

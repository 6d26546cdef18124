package payroll

import "errors"

var (
	ErrPeriodNotFound    = errors.New("payroll period not found")
	ErrPeriodImmutable   = errors.New("payroll period is approved or paid and cannot be modified")
	ErrPeriodOpenExists  = errors.New("another payroll period is still open")
	ErrInvalidTransition = errors.New("invalid payroll period transition")
	ErrReasonRequired    = errors.New("a correction reason is required to reopen a period")
	ErrNoEntries         = errors.New("payroll period has no computed entries")
	ErrEntriesStale      = errors.New("deductions changed since the last calculation, recalculate first")
)

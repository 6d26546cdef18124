package payroll

const (
	PeriodStatusDraft      = "draft"
	PeriodStatusCalculated = "calculated"
	PeriodStatusApproved   = "approved"
	PeriodStatusPaid       = "paid"

	WarningOvertimeCapExceeded = "overtime_monthly_cap_exceeded"
	WarningNegativeNet         = "negative_net"
)

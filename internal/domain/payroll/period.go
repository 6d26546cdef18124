package payroll

// The period lifecycle is draft → calculated → approved → paid, with a
// single sanctioned backward edge: reopen, from approved or paid back to
// calculated. Reopen is an audited correction workflow, never a silent
// edit; the service refuses it without a reason.

var transitions = map[string][]string{
	PeriodStatusDraft:      {PeriodStatusCalculated},
	PeriodStatusCalculated: {PeriodStatusApproved, PeriodStatusCalculated},
	PeriodStatusApproved:   {PeriodStatusPaid, PeriodStatusCalculated},
	PeriodStatusPaid:       {PeriodStatusCalculated},
}

// CanTransition reports whether moving a period from one status to
// another is a sanctioned lifecycle edge. Recalculating an already
// calculated period is allowed (idempotent re-run).
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsOpen reports whether entries under the period may still be mutated.
func IsOpen(status string) bool {
	return status == PeriodStatusDraft || status == PeriodStatusCalculated
}

// IsCommitted reports whether the period participates in historical
// aggregation.
func IsCommitted(status string) bool {
	return status == PeriodStatusApproved || status == PeriodStatusPaid
}

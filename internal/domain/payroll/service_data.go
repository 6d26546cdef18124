package payroll

import (
	"context"
	"fmt"
)

const (
	tablePeriods = "payroll_periods"
	tableEntries = "payroll_entries"
)

// CreatePeriod opens a new draft period. Only one period may be open at
// a time.
func (s *Service) CreatePeriod(ctx context.Context, year, month int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("invalid month %d", month)
	}
	open, err := s.store.OpenPeriodExists(ctx)
	if err != nil {
		return Period{}, err
	}
	if open {
		return Period{}, ErrPeriodOpenExists
	}

	period, err := s.store.CreatePeriod(ctx, year, month)
	if err != nil {
		return Period{}, err
	}
	s.notify(tablePeriods, "insert", period.ID)
	return period, nil
}

func (s *Service) GetPeriod(ctx context.Context, periodID string) (Period, error) {
	return s.store.GetPeriod(ctx, periodID)
}

func (s *Service) ListPeriods(ctx context.Context, limit, offset int) ([]Period, error) {
	return s.store.ListPeriods(ctx, limit, offset)
}

func (s *Service) ListEntries(ctx context.Context, periodID string) ([]Entry, error) {
	return s.store.ListEntries(ctx, periodID)
}

// Calculate runs the engine for every active employee and replaces the
// period's entries. Re-running with unchanged inputs yields identical
// entries; the period moves (or stays) at calculated.
func (s *Service) Calculate(ctx context.Context, periodID string) ([]Entry, error) {
	period, err := s.store.GetPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if !IsOpen(period.Status) {
		return nil, ErrPeriodImmutable
	}

	runs, err := s.store.ListEmployeeRuns(ctx, period.Year, period.Month)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(runs))
	snapshot := PeriodSnapshot{Status: PeriodStatusCalculated}
	for _, run := range runs {
		comp := run.Compensation
		comp.ThirteenthMonth, comp.HolidaySubsidy = s.subsidyProration(run.HiredAt, comp.BaseSalary, period.Year, period.Month)

		in := run.Attendance
		due, err := s.deductions.DueTotal(ctx, run.EmployeeID)
		if err != nil {
			return nil, err
		}
		in.InstallmentsDue = due

		entry := Compute(comp, in, s.rules)
		entry.PeriodID = periodID
		if entry.NetSalary.IsNegative() {
			entry.Warnings = append(entry.Warnings, WarningNegativeNet)
		}
		entries = append(entries, entry)

		snapshot.TotalGross = snapshot.TotalGross.Add(entry.GrossSalary)
		snapshot.TotalNet = snapshot.TotalNet.Add(entry.NetSalary)
		snapshot.TotalDeductions = snapshot.TotalDeductions.Add(entry.TotalDeductions())
		snapshot.TotalEmployerCost = snapshot.TotalEmployerCost.Add(entry.TotalEmployerCost)
	}
	snapshot.EmployeeCount = len(entries)

	if err := s.store.ReplaceEntries(ctx, periodID, entries); err != nil {
		return nil, err
	}
	if err := s.store.SetPeriodAggregates(ctx, periodID, snapshot); err != nil {
		return nil, err
	}
	if period.Status != PeriodStatusCalculated {
		if err := s.transition(ctx, period, PeriodStatusCalculated); err != nil {
			return nil, err
		}
	}

	if err := s.audit.Record(ctx, "payroll_calculated", "payroll_period", periodID,
		fmt.Sprintf("calculated %d entries for %d-%02d", len(entries), period.Year, period.Month),
		nil, snapshot); err != nil {
		return nil, err
	}

	s.notify(tablePeriods, "update", periodID)
	s.notify(tableEntries, "sync", periodID)
	return entries, nil
}

// Approve freezes the period after an administrator confirms with their
// password, and applies the due deduction installments exactly once.
func (s *Service) Approve(ctx context.Context, periodID, actorID, password string) error {
	if err := s.creds.VerifyPassword(ctx, actorID, password); err != nil {
		return err
	}

	period, err := s.store.GetPeriod(ctx, periodID)
	if err != nil {
		return err
	}
	if period.Status != PeriodStatusCalculated {
		return ErrInvalidTransition
	}

	entries, err := s.store.ListEntries(ctx, periodID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return ErrNoEntries
	}

	// The entries must still reflect the current deduction schedules:
	// amortizing an amount that was never withheld from an entry would
	// desync balances from the frozen payroll.
	for _, entry := range entries {
		due, err := s.deductions.DueTotal(ctx, entry.EmployeeID)
		if err != nil {
			return err
		}
		if !due.Equal(entry.InstallmentDeductions) {
			return ErrEntriesStale
		}
	}

	if err := s.transition(ctx, period, PeriodStatusApproved); err != nil {
		return err
	}
	if err := s.audit.Record(ctx, "payroll_approved", "payroll_period", periodID,
		fmt.Sprintf("period %d-%02d approved", period.Year, period.Month),
		snapshotOf(period), nil); err != nil {
		return err
	}

	// Amortize only once the period is committed, so a failed transition
	// never leaves balances decremented against an open period.
	for _, entry := range entries {
		if entry.InstallmentDeductions.IsPositive() {
			if err := s.deductions.ApplyDueInstallments(ctx, entry.EmployeeID, periodID); err != nil {
				return err
			}
		}
	}

	s.notify(tablePeriods, "update", periodID)
	s.notify("deductions", "sync", "")
	return nil
}

// MarkPaid records disbursement. Entries stay immutable.
func (s *Service) MarkPaid(ctx context.Context, periodID string) error {
	period, err := s.store.GetPeriod(ctx, periodID)
	if err != nil {
		return err
	}
	if period.Status != PeriodStatusApproved {
		return ErrInvalidTransition
	}
	if err := s.transition(ctx, period, PeriodStatusPaid); err != nil {
		return err
	}
	if err := s.audit.Record(ctx, "payroll_paid", "payroll_period", periodID,
		fmt.Sprintf("period %d-%02d marked paid", period.Year, period.Month), nil, nil); err != nil {
		return err
	}
	s.notify(tablePeriods, "update", periodID)
	return nil
}

// Reopen is the only sanctioned path back from approved/paid. It writes
// the previous aggregate snapshot and the correction reason to the audit
// log before entries become mutable again.
func (s *Service) Reopen(ctx context.Context, periodID, reason string) error {
	if reason == "" {
		return ErrReasonRequired
	}
	period, err := s.store.GetPeriod(ctx, periodID)
	if err != nil {
		return err
	}
	if !IsCommitted(period.Status) {
		return ErrInvalidTransition
	}

	if err := s.audit.Record(ctx, "payroll_reopened", "payroll_period", periodID,
		reason, snapshotOf(period), nil); err != nil {
		return err
	}
	if err := s.transition(ctx, period, PeriodStatusCalculated); err != nil {
		return err
	}
	s.notify(tablePeriods, "update", periodID)
	return nil
}

func (s *Service) transition(ctx context.Context, period Period, to string) error {
	if !CanTransition(period.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, period.Status, to)
	}
	return s.store.UpdatePeriodStatus(ctx, period.ID, to)
}

func snapshotOf(period Period) PeriodSnapshot {
	return PeriodSnapshot{
		Status:            period.Status,
		TotalGross:        period.TotalGross,
		TotalNet:          period.TotalNet,
		TotalDeductions:   period.TotalDeductions,
		TotalEmployerCost: period.TotalEmployerCost,
		EmployeeCount:     period.EmployeeCount,
	}
}

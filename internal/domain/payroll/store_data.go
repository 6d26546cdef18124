package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CreatePeriod(ctx context.Context, year, month int) (Period, error) {
	var period Period
	var totalGross, totalNet, totalDeductions, totalEmployerCost string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_periods (year, month, status)
    VALUES ($1,$2,$3)
    RETURNING id, year, month, status,
              total_gross::text, total_net::text, total_deductions::text, total_employer_cost::text,
              employee_count, created_at
  `, year, month, PeriodStatusDraft).Scan(
		&period.ID, &period.Year, &period.Month, &period.Status,
		&totalGross, &totalNet, &totalDeductions, &totalEmployerCost,
		&period.EmployeeCount, &period.CreatedAt,
	)
	if err != nil {
		return Period{}, err
	}
	if err := scanPeriodTotals(&period, totalGross, totalNet, totalDeductions, totalEmployerCost); err != nil {
		return Period{}, err
	}
	return period, nil
}

func (s *Store) GetPeriod(ctx context.Context, periodID string) (Period, error) {
	var period Period
	var totalGross, totalNet, totalDeductions, totalEmployerCost string
	err := s.DB.QueryRow(ctx, `
    SELECT id, year, month, status,
           total_gross::text, total_net::text, total_deductions::text, total_employer_cost::text,
           employee_count, created_at, calculated_at, approved_at, paid_at
    FROM payroll_periods
    WHERE id = $1
  `, periodID).Scan(
		&period.ID, &period.Year, &period.Month, &period.Status,
		&totalGross, &totalNet, &totalDeductions, &totalEmployerCost,
		&period.EmployeeCount, &period.CreatedAt,
		&period.CalculatedAt, &period.ApprovedAt, &period.PaidAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, ErrPeriodNotFound
	}
	if err != nil {
		return Period{}, err
	}
	if err := scanPeriodTotals(&period, totalGross, totalNet, totalDeductions, totalEmployerCost); err != nil {
		return Period{}, err
	}
	return period, nil
}

func (s *Store) ListPeriods(ctx context.Context, limit, offset int) ([]Period, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, year, month, status,
           total_gross::text, total_net::text, total_deductions::text, total_employer_cost::text,
           employee_count, created_at, calculated_at, approved_at, paid_at
    FROM payroll_periods
    ORDER BY year DESC, month DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		var period Period
		var totalGross, totalNet, totalDeductions, totalEmployerCost string
		if err := rows.Scan(
			&period.ID, &period.Year, &period.Month, &period.Status,
			&totalGross, &totalNet, &totalDeductions, &totalEmployerCost,
			&period.EmployeeCount, &period.CreatedAt,
			&period.CalculatedAt, &period.ApprovedAt, &period.PaidAt,
		); err != nil {
			return nil, err
		}
		if err := scanPeriodTotals(&period, totalGross, totalNet, totalDeductions, totalEmployerCost); err != nil {
			return nil, err
		}
		periods = append(periods, period)
	}
	return periods, rows.Err()
}

func (s *Store) OpenPeriodExists(ctx context.Context) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM payroll_periods WHERE status IN ($1,$2)
  `, PeriodStatusDraft, PeriodStatusCalculated).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) UpdatePeriodStatus(ctx context.Context, periodID, status string) error {
	var stampColumn string
	switch status {
	case PeriodStatusCalculated:
		stampColumn = "calculated_at"
	case PeriodStatusApproved:
		stampColumn = "approved_at"
	case PeriodStatusPaid:
		stampColumn = "paid_at"
	}

	query := "UPDATE payroll_periods SET status = $1 WHERE id = $2"
	if stampColumn != "" {
		query = fmt.Sprintf("UPDATE payroll_periods SET status = $1, %s = now() WHERE id = $2", stampColumn)
	}
	tag, err := s.DB.Exec(ctx, query, status, periodID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

func (s *Store) SetPeriodAggregates(ctx context.Context, periodID string, snapshot PeriodSnapshot) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE payroll_periods
    SET total_gross = $1, total_net = $2, total_deductions = $3,
        total_employer_cost = $4, employee_count = $5
    WHERE id = $6
  `, snapshot.TotalGross, snapshot.TotalNet, snapshot.TotalDeductions,
		snapshot.TotalEmployerCost, snapshot.EmployeeCount, periodID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPeriodNotFound
	}
	return nil
}

// ListEmployeeRuns loads every active employee's compensation profile
// joined with the attendance record for the given month, the shape the
// calculation loop consumes.
func (s *Store) ListEmployeeRuns(ctx context.Context, year, month int) ([]EmployeeRun, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.id, e.hired_at,
           e.base_salary::text, e.meal_allowance::text, e.transport_allowance::text,
           e.family_allowance::text, e.monthly_bonus::text, e.other_allowances::text,
           COALESCE(a.overtime_normal_hours, 0)::text,
           COALESCE(a.overtime_night_hours, 0)::text,
           COALESCE(a.overtime_holiday_hours, 0)::text,
           COALESCE(a.absence_days, 0)::text
    FROM employees e
    LEFT JOIN attendance a
      ON a.employee_id = e.id AND a.year = $1 AND a.month = $2
    WHERE e.status = 'active'
    ORDER BY e.id
  `, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []EmployeeRun
	for rows.Next() {
		var run EmployeeRun
		var base, meal, transport, family, bonus, other string
		var otNormal, otNight, otHoliday, absentDays string
		if err := rows.Scan(
			&run.EmployeeID, &run.HiredAt,
			&base, &meal, &transport, &family, &bonus, &other,
			&otNormal, &otNight, &otHoliday, &absentDays,
		); err != nil {
			return nil, err
		}
		comp := &run.Compensation
		comp.EmployeeID = run.EmployeeID
		fields := []struct {
			dst *decimal.Decimal
			src string
		}{
			{&comp.BaseSalary, base},
			{&comp.MealAllowance, meal},
			{&comp.TransportAllowance, transport},
			{&comp.FamilyAllowance, family},
			{&comp.MonthlyBonus, bonus},
			{&comp.OtherAllowances, other},
			{&run.Attendance.OvertimeNormalHours, otNormal},
			{&run.Attendance.OvertimeNightHours, otNight},
			{&run.Attendance.OvertimeHolidayHours, otHoliday},
			{&run.Attendance.DaysAbsent, absentDays},
		}
		for _, f := range fields {
			v, err := decimal.NewFromString(f.src)
			if err != nil {
				return nil, fmt.Errorf("employee %s: %w", run.EmployeeID, err)
			}
			*f.dst = v
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ReplaceEntries swaps the period's entry set atomically. Entries only
// change while a period is open; the transaction locks the period row
// and re-checks its status, so a committed period stays immutable even
// if a caller skipped the service check.
func (s *Store) ReplaceEntries(ctx context.Context, periodID string, entries []Entry) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	err = tx.QueryRow(ctx, "SELECT status FROM payroll_periods WHERE id = $1 FOR UPDATE", periodID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPeriodNotFound
	}
	if err != nil {
		return err
	}
	if !IsOpen(status) {
		return ErrPeriodImmutable
	}

	if _, err := tx.Exec(ctx, "DELETE FROM payroll_entries WHERE period_id = $1", periodID); err != nil {
		return err
	}

	for _, entry := range entries {
		warningsJSON, err := json.Marshal(entry.Warnings)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
      INSERT INTO payroll_entries (
        period_id, employee_id,
        base_salary, meal_allowance, transport_allowance, family_allowance,
        monthly_bonus, other_allowances, thirteenth_month, holiday_subsidy,
        overtime_normal, overtime_extended, overtime_holiday, overtime_total,
        gross_salary, irt, inss_employee, absence_deduction,
        installment_deductions, other_deductions, net_salary,
        inss_employer, total_employer_cost, warnings
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
    `, periodID, entry.EmployeeID,
			entry.BaseSalary, entry.MealAllowance, entry.TransportAllowance, entry.FamilyAllowance,
			entry.MonthlyBonus, entry.OtherAllowances, entry.ThirteenthMonth, entry.HolidaySubsidy,
			entry.OvertimeNormal, entry.OvertimeExtended, entry.OvertimeHoliday, entry.OvertimeTotal,
			entry.GrossSalary, entry.IRT, entry.INSSEmployee, entry.AbsenceDeduction,
			entry.InstallmentDeductions, entry.OtherDeductions, entry.NetSalary,
			entry.INSSEmployer, entry.TotalEmployerCost, warningsJSON,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) ListEntries(ctx context.Context, periodID string) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, period_id, employee_id,
           base_salary::text, meal_allowance::text, transport_allowance::text,
           family_allowance::text, monthly_bonus::text, other_allowances::text,
           thirteenth_month::text, holiday_subsidy::text,
           overtime_normal::text, overtime_extended::text, overtime_holiday::text, overtime_total::text,
           gross_salary::text, irt::text, inss_employee::text, absence_deduction::text,
           installment_deductions::text, other_deductions::text, net_salary::text,
           inss_employer::text, total_employer_cost::text, warnings
    FROM payroll_entries
    WHERE period_id = $1
    ORDER BY employee_id
  `, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(rows pgx.Rows) (Entry, error) {
	var entry Entry
	var warningsJSON []byte
	cols := make([]string, 21)
	if err := rows.Scan(
		&entry.ID, &entry.PeriodID, &entry.EmployeeID,
		&cols[0], &cols[1], &cols[2], &cols[3], &cols[4], &cols[5], &cols[6], &cols[7],
		&cols[8], &cols[9], &cols[10], &cols[11],
		&cols[12], &cols[13], &cols[14], &cols[15],
		&cols[16], &cols[17], &cols[18], &cols[19], &cols[20],
		&warningsJSON,
	); err != nil {
		return Entry{}, err
	}

	dsts := []*decimal.Decimal{
		&entry.BaseSalary, &entry.MealAllowance, &entry.TransportAllowance,
		&entry.FamilyAllowance, &entry.MonthlyBonus, &entry.OtherAllowances,
		&entry.ThirteenthMonth, &entry.HolidaySubsidy,
		&entry.OvertimeNormal, &entry.OvertimeExtended, &entry.OvertimeHoliday, &entry.OvertimeTotal,
		&entry.GrossSalary, &entry.IRT, &entry.INSSEmployee, &entry.AbsenceDeduction,
		&entry.InstallmentDeductions, &entry.OtherDeductions, &entry.NetSalary,
		&entry.INSSEmployer, &entry.TotalEmployerCost,
	}
	for i, dst := range dsts {
		v, err := decimal.NewFromString(cols[i])
		if err != nil {
			return Entry{}, err
		}
		*dst = v
	}

	if len(warningsJSON) > 0 {
		if err := json.Unmarshal(warningsJSON, &entry.Warnings); err != nil {
			return Entry{}, err
		}
	}
	return entry, nil
}

func scanPeriodTotals(period *Period, gross, net, deductions, employerCost string) error {
	pairs := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&period.TotalGross, gross},
		{&period.TotalNet, net},
		{&period.TotalDeductions, deductions},
		{&period.TotalEmployerCost, employerCost},
	}
	for _, p := range pairs {
		v, err := decimal.NewFromString(p.src)
		if err != nil {
			return err
		}
		*p.dst = v
	}
	return nil
}

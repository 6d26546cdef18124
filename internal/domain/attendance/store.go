package attendance

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type StoreAPI interface {
	Upsert(ctx context.Context, rec Record) (Record, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]Record, error)
	ListForMonth(ctx context.Context, year, month int) ([]Record, error)
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const recordColumns = `
  id, employee_id, year, month,
  absence_days::text, delay_hours::text,
  overtime_normal_hours::text, overtime_night_hours::text, overtime_holiday_hours::text,
  daily_rate::text, hourly_rate::text, absence_deduction::text, delay_deduction::text,
  updated_at`

func (s *Store) Upsert(ctx context.Context, rec Record) (Record, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO attendance (
      employee_id, year, month, absence_days, delay_hours,
      overtime_normal_hours, overtime_night_hours, overtime_holiday_hours,
      daily_rate, hourly_rate, absence_deduction, delay_deduction, updated_at
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now())
    ON CONFLICT (employee_id, year, month) DO UPDATE SET
      absence_days = EXCLUDED.absence_days,
      delay_hours = EXCLUDED.delay_hours,
      overtime_normal_hours = EXCLUDED.overtime_normal_hours,
      overtime_night_hours = EXCLUDED.overtime_night_hours,
      overtime_holiday_hours = EXCLUDED.overtime_holiday_hours,
      daily_rate = EXCLUDED.daily_rate,
      hourly_rate = EXCLUDED.hourly_rate,
      absence_deduction = EXCLUDED.absence_deduction,
      delay_deduction = EXCLUDED.delay_deduction,
      updated_at = now()
    RETURNING`+recordColumns,
		rec.EmployeeID, rec.Year, rec.Month, rec.AbsenceDays, rec.DelayHours,
		rec.OvertimeNormalHours, rec.OvertimeNightHours, rec.OvertimeHolidayHours,
		rec.DailyRate, rec.HourlyRate, rec.AbsenceDeduction, rec.DelayDeduction)
	return scanRecord(row)
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID string) ([]Record, error) {
	return s.list(ctx, `
    SELECT`+recordColumns+`
    FROM attendance
    WHERE employee_id = $1
    ORDER BY year, month
  `, employeeID)
}

func (s *Store) ListForMonth(ctx context.Context, year, month int) ([]Record, error) {
	return s.list(ctx, `
    SELECT`+recordColumns+`
    FROM attendance
    WHERE year = $1 AND month = $2
    ORDER BY employee_id
  `, year, month)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	cols := make([]string, 9)
	if err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.Year, &rec.Month,
		&cols[0], &cols[1], &cols[2], &cols[3], &cols[4],
		&cols[5], &cols[6], &cols[7], &cols[8],
		&rec.UpdatedAt,
	); err != nil {
		return Record{}, err
	}
	dsts := []*decimal.Decimal{
		&rec.AbsenceDays, &rec.DelayHours,
		&rec.OvertimeNormalHours, &rec.OvertimeNightHours, &rec.OvertimeHolidayHours,
		&rec.DailyRate, &rec.HourlyRate, &rec.AbsenceDeduction, &rec.DelayDeduction,
	}
	for i, dst := range dsts {
		v, err := decimal.NewFromString(cols[i])
		if err != nil {
			return Record{}, err
		}
		*dst = v
	}
	return rec, nil
}

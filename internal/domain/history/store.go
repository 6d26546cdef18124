package history

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type StoreAPI interface {
	CommittedResults(ctx context.Context, employeeID string) ([]PeriodResult, error)
	YearTotals(ctx context.Context) ([]YearSummary, error)
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// CommittedResults replays one employee's entries under approved or
// paid periods, oldest first.
func (s *Store) CommittedResults(ctx context.Context, employeeID string) ([]PeriodResult, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT p.id, p.year, p.month, p.status,
           e.gross_salary::text, e.net_salary::text,
           (e.irt + e.inss_employee + e.absence_deduction + e.installment_deductions + e.other_deductions)::text
    FROM payroll_entries e
    JOIN payroll_periods p ON p.id = e.period_id
    WHERE e.employee_id = $1 AND p.status IN ('approved','paid')
    ORDER BY p.year, p.month
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []PeriodResult
	for rows.Next() {
		var r PeriodResult
		var gross, net, deductions string
		if err := rows.Scan(&r.PeriodID, &r.Year, &r.Month, &r.Status, &gross, &net, &deductions); err != nil {
			return nil, err
		}
		if r.Gross, err = decimal.NewFromString(gross); err != nil {
			return nil, err
		}
		if r.Net, err = decimal.NewFromString(net); err != nil {
			return nil, err
		}
		if r.Deductions, err = decimal.NewFromString(deductions); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// YearTotals aggregates every committed period by year.
func (s *Store) YearTotals(ctx context.Context) ([]YearSummary, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT year, COUNT(1),
           COALESCE(SUM(total_gross), 0)::text,
           COALESCE(SUM(total_net), 0)::text,
           COALESCE(AVG(total_net), 0)::text
    FROM payroll_periods
    WHERE status IN ('approved','paid')
    GROUP BY year
    ORDER BY year
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []YearSummary
	for rows.Next() {
		var summary YearSummary
		var gross, net, avg string
		if err := rows.Scan(&summary.Year, &summary.Periods, &gross, &net, &avg); err != nil {
			return nil, err
		}
		if summary.TotalGross, err = decimal.NewFromString(gross); err != nil {
			return nil, err
		}
		if summary.TotalNet, err = decimal.NewFromString(net); err != nil {
			return nil, err
		}
		if summary.AverageNet, err = decimal.NewFromString(avg); err != nil {
			return nil, err
		}
		summary.AverageNet = summary.AverageNet.Round(2)
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

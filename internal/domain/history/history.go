// Package history derives read-only views by replaying committed
// payroll entries. Nothing here mutates the data it summarizes.
package history

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

// EmployeeHistory builds the chronological salary history for one
// employee with its aggregates.
func (s *Service) EmployeeHistory(ctx context.Context, employeeID string) (EmployeeHistory, error) {
	results, err := s.store.CommittedResults(ctx, employeeID)
	if err != nil {
		return EmployeeHistory{}, err
	}
	return buildEmployeeHistory(employeeID, results), nil
}

func buildEmployeeHistory(employeeID string, results []PeriodResult) EmployeeHistory {
	hist := EmployeeHistory{EmployeeID: employeeID, Results: results}
	for _, r := range results {
		hist.TotalEarnings = hist.TotalEarnings.Add(r.Gross)
		hist.TotalDeductions = hist.TotalDeductions.Add(r.Deductions)
		hist.AverageNet = hist.AverageNet.Add(r.Net)
	}
	if n := len(results); n > 0 {
		hist.AverageNet = hist.AverageNet.Div(decimal.NewFromInt(int64(n))).Round(2)
	}
	return hist
}

// YearOverYear groups an employee's committed results by calendar year
// and computes the growth between the first and last year's average net.
func (s *Service) YearOverYear(ctx context.Context, employeeID string) (YearOverYear, error) {
	results, err := s.store.CommittedResults(ctx, employeeID)
	if err != nil {
		return YearOverYear{}, err
	}
	return buildYearOverYear(results), nil
}

func buildYearOverYear(results []PeriodResult) YearOverYear {
	byYear := map[int]*YearSummary{}
	for _, r := range results {
		summary, ok := byYear[r.Year]
		if !ok {
			summary = &YearSummary{Year: r.Year}
			byYear[r.Year] = summary
		}
		summary.Periods++
		summary.TotalGross = summary.TotalGross.Add(r.Gross)
		summary.TotalNet = summary.TotalNet.Add(r.Net)
	}

	out := YearOverYear{}
	for _, summary := range byYear {
		summary.AverageNet = summary.TotalNet.Div(decimal.NewFromInt(int64(summary.Periods))).Round(2)
		out.Years = append(out.Years, *summary)
	}
	sort.Slice(out.Years, func(i, j int) bool { return out.Years[i].Year < out.Years[j].Year })

	if len(out.Years) >= 2 {
		first := out.Years[0].AverageNet
		last := out.Years[len(out.Years)-1].AverageNet
		if first.IsPositive() {
			out.GrowthPercent = last.Sub(first).Div(first).Mul(decimal.NewFromInt(100)).Round(2)
		}
	}
	return out
}

// GlobalSummary totals every committed period by year, across all
// employees.
func (s *Service) GlobalSummary(ctx context.Context) ([]YearSummary, error) {
	return s.store.YearTotals(ctx)
}

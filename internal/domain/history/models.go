package history

import "github.com/shopspring/decimal"

// PeriodResult is one employee's committed result in one period, the
// unit every aggregation replays. Only approved/paid periods feed it.
type PeriodResult struct {
	PeriodID   string          `json:"periodId"`
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	Status     string          `json:"status"`
	Gross      decimal.Decimal `json:"gross"`
	Net        decimal.Decimal `json:"net"`
	Deductions decimal.Decimal `json:"deductions"`
}

type EmployeeHistory struct {
	EmployeeID      string          `json:"employeeId"`
	Results         []PeriodResult  `json:"results"`
	TotalEarnings   decimal.Decimal `json:"totalEarnings"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	AverageNet      decimal.Decimal `json:"averageMonthlyNet"`
}

type YearSummary struct {
	Year       int             `json:"year"`
	Periods    int             `json:"periods"`
	TotalGross decimal.Decimal `json:"totalGross"`
	TotalNet   decimal.Decimal `json:"totalNet"`
	AverageNet decimal.Decimal `json:"averageNet"`
}

// YearOverYear compares the first and last year on record. Growth is a
// percentage of the first year's average net.
type YearOverYear struct {
	Years         []YearSummary   `json:"years"`
	GrowthPercent decimal.Decimal `json:"growthPercent"`
}

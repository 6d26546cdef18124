package payroll

import "context"

type StoreAPI interface {
	CreatePeriod(ctx context.Context, year, month int) (Period, error)
	GetPeriod(ctx context.Context, periodID string) (Period, error)
	ListPeriods(ctx context.Context, limit, offset int) ([]Period, error)
	OpenPeriodExists(ctx context.Context) (bool, error)
	UpdatePeriodStatus(ctx context.Context, periodID, status string) error
	SetPeriodAggregates(ctx context.Context, periodID string, snapshot PeriodSnapshot) error
	ListEmployeeRuns(ctx context.Context, year, month int) ([]EmployeeRun, error)
	ReplaceEntries(ctx context.Context, periodID string, entries []Entry) error
	ListEntries(ctx context.Context, periodID string) ([]Entry, error)
}

package attendance

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

const tableName = "attendance"

// EmployeeSource resolves the full monthly compensation the 30-day rate
// derivation divides.
type EmployeeSource interface {
	FullMonthlyCompensation(ctx context.Context, employeeID string) (decimal.Decimal, error)
}

type Notifier interface {
	TableChanged(table, action, id string)
}

type Service struct {
	store     StoreAPI
	employees EmployeeSource
	notifier  Notifier
}

func NewService(store StoreAPI, employees EmployeeSource, notifier Notifier) *Service {
	return &Service{store: store, employees: employees, notifier: notifier}
}

// Upsert records the month's attendance inputs for an employee,
// rederiving the rate and deduction columns from the current salary.
func (s *Service) Upsert(ctx context.Context, rec Record) (Record, error) {
	if rec.Month < 1 || rec.Month > 12 {
		return Record{}, fmt.Errorf("invalid month %d", rec.Month)
	}
	full, err := s.employees.FullMonthlyCompensation(ctx, rec.EmployeeID)
	if err != nil {
		return Record{}, err
	}

	derived := Derive(rec, full)
	saved, err := s.store.Upsert(ctx, derived)
	if err != nil {
		return Record{}, err
	}
	if s.notifier != nil {
		s.notifier.TableChanged(tableName, "update", saved.ID)
	}
	return saved, nil
}

// RefreshForEmployee rederives every stored record of an employee after
// a salary change.
func (s *Service) RefreshForEmployee(ctx context.Context, employeeID string) error {
	full, err := s.employees.FullMonthlyCompensation(ctx, employeeID)
	if err != nil {
		return err
	}
	records, err := s.store.ListByEmployee(ctx, employeeID)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if _, err := s.store.Upsert(ctx, Derive(rec, full)); err != nil {
			return err
		}
	}
	if len(records) > 0 && s.notifier != nil {
		s.notifier.TableChanged(tableName, "sync", "")
	}
	return nil
}

func (s *Service) ForMonth(ctx context.Context, year, month int) ([]Record, error) {
	return s.store.ListForMonth(ctx, year, month)
}

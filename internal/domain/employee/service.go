package employee

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const tableName = "employees"

var ErrNotFound = errors.New("employee not found")

type AuditLog interface {
	Record(ctx context.Context, action, entityType, entityID, description string, before, after any) error
}

type Notifier interface {
	TableChanged(table, action, id string)
}

// AttendanceRefresher rederives stored attendance rates and deductions
// from the employee's current compensation.
type AttendanceRefresher interface {
	RefreshForEmployee(ctx context.Context, employeeID string) error
}

type Service struct {
	store      StoreAPI
	audit      AuditLog
	notifier   Notifier
	attendance AttendanceRefresher
}

func NewService(store StoreAPI, auditLog AuditLog, notifier Notifier) *Service {
	return &Service{store: store, audit: auditLog, notifier: notifier}
}

// SetAttendanceRefresher is wired after construction because the
// attendance service itself reads compensation through this service.
func (s *Service) SetAttendanceRefresher(r AttendanceRefresher) {
	s.attendance = r
}

func (s *Service) notify(action, id string) {
	if s.notifier != nil {
		s.notifier.TableChanged(tableName, action, id)
	}
}

func (s *Service) Create(ctx context.Context, e Employee) (Employee, error) {
	if e.Status == "" {
		e.Status = StatusActive
	}
	created, err := s.store.Create(ctx, e)
	if err != nil {
		return Employee{}, err
	}
	if err := s.audit.Record(ctx, "employee_hired", "employee", created.ID,
		fmt.Sprintf("%s %s hired", created.FirstName, created.LastName), nil, created); err != nil {
		return Employee{}, err
	}
	s.notify("insert", created.ID)
	return created, nil
}

// Update persists profile changes. A change to any compensation
// component is a salary change and is audited with before/after
// snapshots.
func (s *Service) Update(ctx context.Context, e Employee) (Employee, error) {
	before, err := s.store.Get(ctx, e.ID)
	if err != nil {
		return Employee{}, err
	}

	updated, err := s.store.Update(ctx, e)
	if err != nil {
		return Employee{}, err
	}

	salaryChanged := !before.FullCompensation().Equal(updated.FullCompensation())
	action := "employee_updated"
	if salaryChanged {
		action = "salary_changed"
	}
	if err := s.audit.Record(ctx, action, "employee", updated.ID, "", before, updated); err != nil {
		return Employee{}, err
	}
	if salaryChanged && s.attendance != nil {
		if err := s.attendance.RefreshForEmployee(ctx, updated.ID); err != nil {
			return Employee{}, err
		}
	}
	s.notify("update", updated.ID)
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id string) (Employee, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, status string) ([]Employee, error) {
	return s.store.List(ctx, status)
}

// FullMonthlyCompensation satisfies attendance.EmployeeSource.
func (s *Service) FullMonthlyCompensation(ctx context.Context, employeeID string) (decimal.Decimal, error) {
	e, err := s.store.Get(ctx, employeeID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return e.FullCompensation(), nil
}

// Terminate flips the status; the termination package itself is a
// history derivation, not a profile mutation.
func (s *Service) Terminate(ctx context.Context, id, reason string) error {
	before, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if before.Status == StatusTerminated {
		return nil
	}
	if err := s.store.UpdateStatus(ctx, id, StatusTerminated); err != nil {
		return err
	}
	after := before
	after.Status = StatusTerminated
	if err := s.audit.Record(ctx, "employee_terminated", "employee", id, reason, before, after); err != nil {
		return err
	}
	s.notify("update", id)
	return nil
}

package deduction

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

const tableName = "deductions"

type AuditLog interface {
	Record(ctx context.Context, action, entityType, entityID, description string, before, after any) error
}

type Notifier interface {
	TableChanged(table, action, id string)
}

type Service struct {
	store    StoreAPI
	audit    AuditLog
	notifier Notifier
}

func NewService(store StoreAPI, auditLog AuditLog, notifier Notifier) *Service {
	return &Service{store: store, audit: auditLog, notifier: notifier}
}

func (s *Service) notify(action, id string) {
	if s.notifier != nil {
		s.notifier.TableChanged(tableName, action, id)
	}
}

// Create registers a new deduction with its installment schedule.
func (s *Service) Create(ctx context.Context, employeeID, kind, description string, total decimal.Decimal, installments int) (Deduction, error) {
	per, err := NewSchedule(total, installments)
	if err != nil {
		return Deduction{}, err
	}

	d := Deduction{
		EmployeeID:      employeeID,
		Kind:            kind,
		Description:     description,
		TotalAmount:     total,
		Installments:    installments,
		PerInstallment:  per,
		RemainingAmount: total,
		Status:          StatusActive,
	}
	created, err := s.store.Create(ctx, d)
	if err != nil {
		return Deduction{}, err
	}

	if err := s.audit.Record(ctx, "deduction_created", "deduction", created.ID,
		fmt.Sprintf("%s of %s over %d installments", kind, total, installments), nil, created); err != nil {
		return Deduction{}, err
	}
	s.notify("insert", created.ID)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (Deduction, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) ListByEmployee(ctx context.Context, employeeID string) ([]Deduction, error) {
	return s.store.ListByEmployee(ctx, employeeID)
}

// DueThisPeriod returns every active, unsettled deduction for the
// employee with the amount its next installment collects.
func (s *Service) DueThisPeriod(ctx context.Context, employeeID string) ([]Due, error) {
	deductions, err := s.store.ListOutstanding(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	dues := make([]Due, 0, len(deductions))
	for _, d := range deductions {
		amount := DueAmount(d)
		if amount.IsPositive() {
			dues = append(dues, Due{DeductionID: d.ID, Amount: amount})
		}
	}
	return dues, nil
}

// DueTotal sums the installments due for the employee. This is the
// figure the payroll engine folds into its deduction step.
func (s *Service) DueTotal(ctx context.Context, employeeID string) (decimal.Decimal, error) {
	dues, err := s.DueThisPeriod(ctx, employeeID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	total := decimal.Zero
	for _, due := range dues {
		total = total.Add(due.Amount)
	}
	return total, nil
}

// ApplyDueInstallments advances every outstanding deduction of the
// employee by one installment. Called once per employee when a period is
// approved.
func (s *Service) ApplyDueInstallments(ctx context.Context, employeeID, periodID string) error {
	deductions, err := s.store.ListOutstanding(ctx, employeeID)
	if err != nil {
		return err
	}
	for _, d := range deductions {
		before := d
		updated, collected, err := ApplyInstallment(d)
		if err != nil {
			return fmt.Errorf("deduction %s: %w", d.ID, err)
		}
		if err := s.store.SaveAmortization(ctx, updated); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, "installment_applied", "deduction", d.ID,
			fmt.Sprintf("collected %s in period %s", collected, periodID), before, updated); err != nil {
			return err
		}
	}
	if len(deductions) > 0 {
		s.notify("sync", "")
	}
	return nil
}

// Cancel stops amortization administratively. Applied history stays.
func (s *Service) Cancel(ctx context.Context, id, reason string) error {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if d.Status == StatusCancelled {
		return ErrCancelled
	}
	updated := d
	updated.Status = StatusCancelled
	if err := s.store.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		return err
	}
	if err := s.audit.Record(ctx, "deduction_cancelled", "deduction", id, reason, d, updated); err != nil {
		return err
	}
	s.notify("update", id)
	return nil
}

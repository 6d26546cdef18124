package deduction

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type StoreAPI interface {
	Create(ctx context.Context, d Deduction) (Deduction, error)
	Get(ctx context.Context, id string) (Deduction, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]Deduction, error)
	ListOutstanding(ctx context.Context, employeeID string) ([]Deduction, error)
	SaveAmortization(ctx context.Context, d Deduction) error
	UpdateStatus(ctx context.Context, id, status string) error
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const deductionColumns = `
  id, employee_id, kind, description,
  total_amount::text, installments, per_installment::text,
  installments_paid, remaining_amount::text, fully_paid, status, created_at`

func (s *Store) Create(ctx context.Context, d Deduction) (Deduction, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO deductions (
      employee_id, kind, description, total_amount, installments,
      per_installment, installments_paid, remaining_amount, fully_paid, status
    ) VALUES ($1,$2,$3,$4,$5,$6,0,$7,false,$8)
    RETURNING`+deductionColumns, d.EmployeeID, d.Kind, d.Description, d.TotalAmount,
		d.Installments, d.PerInstallment, d.RemainingAmount, d.Status)
	return scanDeduction(row)
}

func (s *Store) Get(ctx context.Context, id string) (Deduction, error) {
	row := s.DB.QueryRow(ctx, `SELECT`+deductionColumns+` FROM deductions WHERE id = $1`, id)
	d, err := scanDeduction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Deduction{}, ErrNotFound
	}
	return d, err
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID string) ([]Deduction, error) {
	return s.list(ctx, `
    SELECT`+deductionColumns+`
    FROM deductions
    WHERE employee_id = $1
    ORDER BY created_at DESC
  `, employeeID)
}

func (s *Store) ListOutstanding(ctx context.Context, employeeID string) ([]Deduction, error) {
	return s.list(ctx, `
    SELECT`+deductionColumns+`
    FROM deductions
    WHERE employee_id = $1 AND status = 'active' AND NOT fully_paid
    ORDER BY created_at
  `, employeeID)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Deduction, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deductions []Deduction
	for rows.Next() {
		d, err := scanDeduction(rows)
		if err != nil {
			return nil, err
		}
		deductions = append(deductions, d)
	}
	return deductions, rows.Err()
}

// SaveAmortization persists the post-installment state. The guard
// clauses keep the amortization one-way even if two callers race.
func (s *Store) SaveAmortization(ctx context.Context, d Deduction) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE deductions
    SET installments_paid = $1, remaining_amount = $2, fully_paid = $3
    WHERE id = $4 AND installments_paid < $1 AND NOT fully_paid
  `, d.InstallmentsPaid, d.RemainingAmount, d.FullyPaid, d.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadySettled
	}
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := s.DB.Exec(ctx, `UPDATE deductions SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDeduction(row pgx.Row) (Deduction, error) {
	var d Deduction
	var total, per, remaining string
	if err := row.Scan(
		&d.ID, &d.EmployeeID, &d.Kind, &d.Description,
		&total, &d.Installments, &per,
		&d.InstallmentsPaid, &remaining, &d.FullyPaid, &d.Status, &d.CreatedAt,
	); err != nil {
		return Deduction{}, err
	}
	for _, p := range []struct {
		dst *decimal.Decimal
		src string
	}{{&d.TotalAmount, total}, {&d.PerInstallment, per}, {&d.RemainingAmount, remaining}} {
		v, err := decimal.NewFromString(p.src)
		if err != nil {
			return Deduction{}, err
		}
		*p.dst = v
	}
	return d, nil
}

package employee

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type StoreAPI interface {
	Create(ctx context.Context, e Employee) (Employee, error)
	Update(ctx context.Context, e Employee) (Employee, error)
	Get(ctx context.Context, id string) (Employee, error)
	List(ctx context.Context, status string) ([]Employee, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const employeeColumns = `
  id, COALESCE(branch_id::text, ''), first_name, last_name, contract_type, status,
  base_salary::text, meal_allowance::text, transport_allowance::text,
  family_allowance::text, monthly_bonus::text, other_allowances::text,
  hired_at, created_at, updated_at`

func (s *Store) Create(ctx context.Context, e Employee) (Employee, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO employees (
      branch_id, first_name, last_name, contract_type, status,
      base_salary, meal_allowance, transport_allowance,
      family_allowance, monthly_bonus, other_allowances, hired_at
    ) VALUES (NULLIF($1,'')::uuid,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    RETURNING`+employeeColumns,
		e.BranchID, e.FirstName, e.LastName, e.ContractType, e.Status,
		e.BaseSalary, e.MealAllowance, e.TransportAllowance,
		e.FamilyAllowance, e.MonthlyBonus, e.OtherAllowances, e.HiredAt)
	return scanEmployee(row)
}

func (s *Store) Update(ctx context.Context, e Employee) (Employee, error) {
	row := s.DB.QueryRow(ctx, `
    UPDATE employees SET
      branch_id = NULLIF($1,'')::uuid, first_name = $2, last_name = $3,
      contract_type = $4, status = $5,
      base_salary = $6, meal_allowance = $7, transport_allowance = $8,
      family_allowance = $9, monthly_bonus = $10, other_allowances = $11,
      updated_at = now()
    WHERE id = $12
    RETURNING`+employeeColumns,
		e.BranchID, e.FirstName, e.LastName, e.ContractType, e.Status,
		e.BaseSalary, e.MealAllowance, e.TransportAllowance,
		e.FamilyAllowance, e.MonthlyBonus, e.OtherAllowances, e.ID)
	employee, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return employee, err
}

func (s *Store) Get(ctx context.Context, id string) (Employee, error) {
	row := s.DB.QueryRow(ctx, `SELECT`+employeeColumns+` FROM employees WHERE id = $1`, id)
	employee, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return employee, err
}

func (s *Store) List(ctx context.Context, status string) ([]Employee, error) {
	query := `SELECT` + employeeColumns + ` FROM employees ORDER BY last_name, first_name`
	args := []any{}
	if status != "" {
		query = `SELECT` + employeeColumns + ` FROM employees WHERE status = $1 ORDER BY last_name, first_name`
		args = append(args, status)
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := s.DB.Exec(ctx, `UPDATE employees SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	cols := make([]string, 6)
	if err := row.Scan(
		&e.ID, &e.BranchID, &e.FirstName, &e.LastName, &e.ContractType, &e.Status,
		&cols[0], &cols[1], &cols[2], &cols[3], &cols[4], &cols[5],
		&e.HiredAt, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return Employee{}, err
	}
	dsts := []*decimal.Decimal{
		&e.BaseSalary, &e.MealAllowance, &e.TransportAllowance,
		&e.FamilyAllowance, &e.MonthlyBonus, &e.OtherAllowances,
	}
	for i, dst := range dsts {
		v, err := decimal.NewFromString(cols[i])
		if err != nil {
			return Employee{}, err
		}
		*dst = v
	}
	return e, nil
}

package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusActive     = "active"
	StatusInactive   = "inactive"
	StatusOnLeave    = "on_leave"
	StatusTerminated = "terminated"

	ContractPermanent = "permanent"
	ContractFixedTerm = "fixed_term"
)

// Employee is the compensation profile payroll entries reference by ID.
type Employee struct {
	ID           string `json:"id"`
	BranchID     string `json:"branchId,omitempty"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	ContractType string `json:"contractType"`
	Status       string `json:"status"`

	BaseSalary         decimal.Decimal `json:"baseSalary"`
	MealAllowance      decimal.Decimal `json:"mealAllowance"`
	TransportAllowance decimal.Decimal `json:"transportAllowance"`
	FamilyAllowance    decimal.Decimal `json:"familyAllowance"`
	MonthlyBonus       decimal.Decimal `json:"monthlyBonus"`
	OtherAllowances    decimal.Decimal `json:"otherAllowances"`

	HiredAt   time.Time `json:"hiredAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FullCompensation is the monthly total the attendance rate derivation
// divides by 30: base plus every allowance and bonus.
func (e Employee) FullCompensation() decimal.Decimal {
	return e.BaseSalary.
		Add(e.MealAllowance).
		Add(e.TransportAllowance).
		Add(e.FamilyAllowance).
		Add(e.MonthlyBonus).
		Add(e.OtherAllowances)
}

package deduction

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"

	KindAdvance = "advance"
	KindLoan    = "loan"
	KindOther   = "other"
)

// Deduction is a debt obligation amortized against payroll, one
// installment per period. Applied deductions are never deleted; a wrong
// entry is cancelled, which stops amortization without rewriting
// history.
type Deduction struct {
	ID               string          `json:"id"`
	EmployeeID       string          `json:"employeeId"`
	Kind             string          `json:"kind"`
	Description      string          `json:"description"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	Installments     int             `json:"installments"`
	PerInstallment   decimal.Decimal `json:"perInstallment"`
	InstallmentsPaid int             `json:"installmentsPaid"`
	RemainingAmount  decimal.Decimal `json:"remainingAmount"`
	FullyPaid        bool            `json:"isFullyPaid"`
	Status           string          `json:"status"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// Due is one deduction's contribution to the current period.
type Due struct {
	DeductionID string          `json:"deductionId"`
	Amount      decimal.Decimal `json:"amount"`
}

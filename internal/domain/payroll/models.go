package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period is one monthly payroll accounting window. At most one period is
// open (draft or calculated) at a time; approved and paid periods are
// immutable except through Reopen.
type Period struct {
	ID                string          `json:"id"`
	Year              int             `json:"year"`
	Month             int             `json:"month"`
	Status            string          `json:"status"`
	TotalGross        decimal.Decimal `json:"totalGross"`
	TotalNet          decimal.Decimal `json:"totalNet"`
	TotalDeductions   decimal.Decimal `json:"totalDeductions"`
	TotalEmployerCost decimal.Decimal `json:"totalEmployerCost"`
	EmployeeCount     int             `json:"employeeCount"`
	CreatedAt         time.Time       `json:"createdAt"`
	CalculatedAt      *time.Time      `json:"calculatedAt,omitempty"`
	ApprovedAt        *time.Time      `json:"approvedAt,omitempty"`
	PaidAt            *time.Time      `json:"paidAt,omitempty"`
}

// Entry is one employee's computed result within a period. Every earning
// and deduction component is kept separately so the payslip and the audit
// trail never have to re-derive them.
type Entry struct {
	ID         string `json:"id"`
	PeriodID   string `json:"periodId"`
	EmployeeID string `json:"employeeId"`

	BaseSalary         decimal.Decimal `json:"baseSalary"`
	MealAllowance      decimal.Decimal `json:"mealAllowance"`
	TransportAllowance decimal.Decimal `json:"transportAllowance"`
	FamilyAllowance    decimal.Decimal `json:"familyAllowance"`
	MonthlyBonus       decimal.Decimal `json:"monthlyBonus"`
	OtherAllowances    decimal.Decimal `json:"otherAllowances"`
	ThirteenthMonth    decimal.Decimal `json:"thirteenthMonth"`
	HolidaySubsidy     decimal.Decimal `json:"holidaySubsidy"`

	OvertimeNormal   decimal.Decimal `json:"overtimeNormal"`
	OvertimeExtended decimal.Decimal `json:"overtimeExtended"`
	OvertimeHoliday  decimal.Decimal `json:"overtimeHoliday"`
	OvertimeTotal    decimal.Decimal `json:"overtimeTotal"`

	GrossSalary decimal.Decimal `json:"grossSalary"`

	IRT                   decimal.Decimal `json:"irt"`
	INSSEmployee          decimal.Decimal `json:"inssEmployee"`
	AbsenceDeduction      decimal.Decimal `json:"absenceDeduction"`
	InstallmentDeductions decimal.Decimal `json:"installmentDeductions"`
	OtherDeductions       decimal.Decimal `json:"otherDeductions"`

	NetSalary         decimal.Decimal `json:"netSalary"`
	INSSEmployer      decimal.Decimal `json:"inssEmployer"`
	TotalEmployerCost decimal.Decimal `json:"totalEmployerCost"`

	Warnings []string `json:"warnings,omitempty"`
}

// TotalDeductions is the sum the period aggregate tracks: everything
// withheld from gross except the employer-side contribution.
func (e Entry) TotalDeductions() decimal.Decimal {
	return e.IRT.
		Add(e.INSSEmployee).
		Add(e.AbsenceDeduction).
		Add(e.InstallmentDeductions).
		Add(e.OtherDeductions)
}

// EmployeeRun is the per-employee data the service loads before handing
// off to Compute: the profile components plus the attendance inputs for
// the period.
type EmployeeRun struct {
	EmployeeID   string
	HiredAt      time.Time
	Compensation CompensationInput
	Attendance   PeriodInput
}

// PeriodSnapshot is what Reopen records in the audit log before any
// entry becomes mutable again.
type PeriodSnapshot struct {
	Status            string          `json:"status"`
	TotalGross        decimal.Decimal `json:"totalGross"`
	TotalNet          decimal.Decimal `json:"totalNet"`
	TotalDeductions   decimal.Decimal `json:"totalDeductions"`
	TotalEmployerCost decimal.Decimal `json:"totalEmployerCost"`
	EmployeeCount     int             `json:"employeeCount"`
}

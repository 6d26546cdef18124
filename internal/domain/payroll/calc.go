package payroll

import (
	"github.com/shopspring/decimal"

	"folha/internal/domain/rules"
)

// CompensationInput is the employee side of a payroll computation: the
// contracted salary components, with the 13th-month proration and the
// holiday subsidy already resolved to the amount payable this period
// (zero in months where they do not apply).
type CompensationInput struct {
	EmployeeID         string
	BaseSalary         decimal.Decimal
	MealAllowance      decimal.Decimal
	TransportAllowance decimal.Decimal
	FamilyAllowance    decimal.Decimal
	MonthlyBonus       decimal.Decimal
	OtherAllowances    decimal.Decimal
	ThirteenthMonth    decimal.Decimal
	HolidaySubsidy     decimal.Decimal
}

// PeriodInput is the month-specific side: hours, absences and the
// deductions currently due.
type PeriodInput struct {
	OvertimeNormalHours  decimal.Decimal
	OvertimeNightHours   decimal.Decimal
	OvertimeHolidayHours decimal.Decimal
	DaysAbsent           decimal.Decimal
	InstallmentsDue      decimal.Decimal
	OtherDeductions      decimal.Decimal
}

// Compute produces a complete payroll entry for one employee. It is pure:
// no I/O, no failure modes beyond clamping negative inputs to zero. Cap
// violations surface as warnings on the result, never as errors.
func Compute(comp CompensationInput, in PeriodInput, tbl rules.Table) Entry {
	normalHours := clampNonNegative(in.OvertimeNormalHours)
	nightHours := clampNonNegative(in.OvertimeNightHours)
	holidayHours := clampNonNegative(in.OvertimeHolidayHours)
	daysAbsent := clampNonNegative(in.DaysAbsent)
	installments := clampNonNegative(in.InstallmentsDue)
	otherDeductions := clampNonNegative(in.OtherDeductions)

	hourlyRate := tbl.HourlyRate(comp.BaseSalary)
	dailyRate := tbl.DailyRate(comp.BaseSalary)

	absenceDeduction := dailyRate.Mul(daysAbsent).Round(2)

	// Normal overtime splits at the tier boundary per hour, not
	// retroactively over the whole block.
	tierHours := decimal.Min(normalHours, tbl.Overtime.NormalTierHours)
	extraHours := normalHours.Sub(tierHours)
	overtimeNormal := tierHours.Mul(hourlyRate).Mul(tbl.Overtime.NormalRate).Round(2)
	overtimeExtended := extraHours.Add(nightHours).Mul(hourlyRate).Mul(tbl.Overtime.ExtendedRate).Round(2)
	overtimeHoliday := holidayHours.Mul(hourlyRate).Mul(tbl.Overtime.HolidayRate).Round(2)
	overtimeTotal := overtimeNormal.Add(overtimeExtended).Add(overtimeHoliday)

	var warnings []string
	totalHours := normalHours.Add(nightHours).Add(holidayHours)
	if totalHours.GreaterThan(tbl.Overtime.MonthlyCapHours) {
		warnings = append(warnings, WarningOvertimeCapExceeded)
	}

	gross := comp.BaseSalary.
		Add(comp.MealAllowance).
		Add(comp.TransportAllowance).
		Add(comp.FamilyAllowance).
		Add(comp.MonthlyBonus).
		Add(comp.OtherAllowances).
		Add(comp.ThirteenthMonth).
		Add(comp.HolidaySubsidy).
		Add(overtimeTotal)

	// The two statutory bases diverge: INSS takes the full meal and
	// transport allowances but not the family allowance or the bonus;
	// IRT takes only the allowance excess above the tax-free ceiling,
	// net of the INSS employee share.
	inssBase := comp.BaseSalary.
		Add(comp.MealAllowance).
		Add(comp.TransportAllowance).
		Add(comp.ThirteenthMonth).
		Add(overtimeTotal)
	inssEmployee := tbl.INSSEmployee(inssBase)
	inssEmployer := tbl.INSSEmployer(inssBase)

	irtBase := comp.BaseSalary.
		Add(tbl.AllowanceExcess(comp.MealAllowance)).
		Add(tbl.AllowanceExcess(comp.TransportAllowance)).
		Add(comp.ThirteenthMonth).
		Add(comp.HolidaySubsidy).
		Add(overtimeTotal).
		Sub(inssEmployee)
	irt := tbl.IRT(irtBase)

	totalDeductions := installments.Add(absenceDeduction).Add(otherDeductions)
	net := gross.Sub(irt).Sub(inssEmployee).Sub(totalDeductions)
	employerCost := gross.Add(inssEmployer)

	return Entry{
		EmployeeID:            comp.EmployeeID,
		BaseSalary:            comp.BaseSalary,
		MealAllowance:         comp.MealAllowance,
		TransportAllowance:    comp.TransportAllowance,
		FamilyAllowance:       comp.FamilyAllowance,
		MonthlyBonus:          comp.MonthlyBonus,
		OtherAllowances:       comp.OtherAllowances,
		ThirteenthMonth:       comp.ThirteenthMonth,
		HolidaySubsidy:        comp.HolidaySubsidy,
		OvertimeNormal:        overtimeNormal,
		OvertimeExtended:      overtimeExtended,
		OvertimeHoliday:       overtimeHoliday,
		OvertimeTotal:         overtimeTotal,
		GrossSalary:           gross,
		IRT:                   irt,
		INSSEmployee:          inssEmployee,
		AbsenceDeduction:      absenceDeduction,
		InstallmentDeductions: installments,
		OtherDeductions:       otherDeductions,
		NetSalary:             net,
		INSSEmployer:          inssEmployer,
		TotalEmployerCost:     employerCost,
		Warnings:              warnings,
	}
}

func clampNonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

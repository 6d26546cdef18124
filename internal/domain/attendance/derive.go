package attendance

import "github.com/shopspring/decimal"

var (
	calendarDays = decimal.NewFromInt(30)
	hoursPerDay  = decimal.NewFromInt(8)
)

// Derive fills the rate and deduction columns from the attendance inputs
// and the employee's full monthly compensation (base plus every
// allowance and bonus). The attendance trail uses the calendar 30-day
// convention, unlike the engine's working-day rate.
func Derive(rec Record, fullMonthlyCompensation decimal.Decimal) Record {
	if rec.AbsenceDays.IsNegative() {
		rec.AbsenceDays = decimal.Zero
	}
	if rec.DelayHours.IsNegative() {
		rec.DelayHours = decimal.Zero
	}

	rec.DailyRate = fullMonthlyCompensation.Div(calendarDays).Round(2)
	rec.HourlyRate = rec.DailyRate.Div(hoursPerDay).Round(2)
	rec.AbsenceDeduction = rec.DailyRate.Mul(rec.AbsenceDays).Round(2)
	rec.DelayDeduction = rec.HourlyRate.Mul(rec.DelayHours).Round(2)
	return rec
}

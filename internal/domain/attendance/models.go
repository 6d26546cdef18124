package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is one employee's attendance input for one month, together
// with the rates and deduction amounts derived from it. The derived
// columns are persisted for the audit trail and recomputed whenever the
// inputs or the underlying salary change.
type Record struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employeeId"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`

	AbsenceDays decimal.Decimal `json:"absenceDays"`
	DelayHours  decimal.Decimal `json:"delayHours"`

	OvertimeNormalHours  decimal.Decimal `json:"overtimeNormalHours"`
	OvertimeNightHours   decimal.Decimal `json:"overtimeNightHours"`
	OvertimeHolidayHours decimal.Decimal `json:"overtimeHolidayHours"`

	DailyRate        decimal.Decimal `json:"dailyRate"`
	HourlyRate       decimal.Decimal `json:"hourlyRate"`
	AbsenceDeduction decimal.Decimal `json:"absenceDeduction"`
	DelayDeduction   decimal.Decimal `json:"delayDeduction"`

	UpdatedAt time.Time `json:"updatedAt"`
}

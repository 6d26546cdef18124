package sync

// Table identifies one replicated table. The sync surface is generic at
// the transport boundary but only ever operates on this closed set;
// anything else is rejected before touching SQL.
type Table string

const (
	TableEmployees      Table = "employees"
	TableBranches       Table = "branches"
	TableDeductions     Table = "deductions"
	TablePayrollPeriods Table = "payroll_periods"
	TablePayrollEntries Table = "payroll_entries"
	TableAttendance     Table = "attendance"
	TableHolidays       Table = "holidays"
	TableUsers          Table = "users"
	TableSettings       Table = "settings"
)

// writableColumns is the per-table allowlist for the generic insert and
// update paths. The id and timestamp columns are store-managed.
var writableColumns = map[Table][]string{
	TableEmployees: {
		"branch_id", "first_name", "last_name", "contract_type", "status",
		"base_salary", "meal_allowance", "transport_allowance",
		"family_allowance", "monthly_bonus", "other_allowances", "hired_at",
	},
	TableBranches:   {"name", "city", "address"},
	TableDeductions: {
		"employee_id", "kind", "description", "total_amount", "installments",
		"per_installment", "installments_paid", "remaining_amount", "fully_paid", "status",
	},
	// Period lifecycle, aggregates and entries belong to the state
	// machine; a generic write would bypass its transition and audit
	// rules, so both tables replicate read-only.
	TablePayrollPeriods: nil,
	TablePayrollEntries: nil,
	TableAttendance: {
		"employee_id", "year", "month", "absence_days", "delay_hours",
		"overtime_normal_hours", "overtime_night_hours", "overtime_holiday_hours",
		"daily_rate", "hourly_rate", "absence_deduction", "delay_deduction",
	},
	TableHolidays: {"name", "holiday_date", "recurring"},
	TableUsers:    {"username", "display_name", "password_hash", "role"},
	TableSettings: {"key", "value"},
}

// AllTables lists every replicated table, in backup export order.
func AllTables() []Table {
	return []Table{
		TableEmployees, TableBranches, TableDeductions,
		TablePayrollPeriods, TablePayrollEntries, TableAttendance,
		TableHolidays, TableUsers, TableSettings,
	}
}

// Valid reports whether the string names a replicated table.
func (t Table) Valid() bool {
	_, ok := writableColumns[t]
	return ok
}

// Writable reports whether the generic write path may touch the table.
func (t Table) Writable() bool {
	cols, ok := writableColumns[t]
	return ok && len(cols) > 0
}

func (t Table) columnAllowed(name string) bool {
	for _, col := range writableColumns[t] {
		if col == name {
			return true
		}
	}
	return false
}

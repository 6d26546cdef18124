// Package rules holds the labor-law configuration the payroll engine
// consults: IRT brackets, INSS rates, overtime multipliers and caps.
// The table is static per payroll run; changes to the law arrive as a
// reviewed YAML update, never as code changes in the consumers.
package rules

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Bracket is one IRT band. Rate applies marginally to income above Floor,
// up to Ceiling. The top bracket carries a nil Ceiling.
type Bracket struct {
	Floor   decimal.Decimal  `yaml:"floor"`
	Ceiling *decimal.Decimal `yaml:"ceiling"`
	Rate    decimal.Decimal  `yaml:"rate"`
}

type Overtime struct {
	NormalRate      decimal.Decimal `yaml:"normalRate"`      // first NormalTierHours per month
	ExtendedRate    decimal.Decimal `yaml:"extendedRate"`    // beyond NormalTierHours, and night hours
	HolidayRate     decimal.Decimal `yaml:"holidayRate"`     // holiday / weekly rest day
	NormalTierHours decimal.Decimal `yaml:"normalTierHours"` // tier boundary, hours per month
	MonthlyCapHours decimal.Decimal `yaml:"monthlyCapHours"` // legal ceiling, warning only
	AnnualCapHours  decimal.Decimal `yaml:"annualCapHours"`  // legal ceiling, warning only
}

type Termination struct {
	SeverancePerYearFirstBand decimal.Decimal `yaml:"severancePerYearFirstBand"` // monthly salaries per year of tenure
	SeverancePerYearBeyond    decimal.Decimal `yaml:"severancePerYearBeyond"`
	FirstBandYears            int             `yaml:"firstBandYears"`
	NoticeMonths              decimal.Decimal `yaml:"noticeMonths"`
}

// Table is the complete rules set for one legal regime version.
type Table struct {
	Version string `yaml:"version"`

	IRTBrackets []Bracket `yaml:"irtBrackets"`

	INSSEmployeeRate decimal.Decimal `yaml:"inssEmployeeRate"`
	INSSEmployerRate decimal.Decimal `yaml:"inssEmployerRate"`

	Overtime Overtime `yaml:"overtime"`

	WorkingDaysPerMonth decimal.Decimal `yaml:"workingDaysPerMonth"`
	HoursPerDay         decimal.Decimal `yaml:"hoursPerDay"`

	// Tax-free ceiling for meal and transport allowances; only the excess
	// above it enters the IRT base.
	AllowanceTaxFreeCeiling decimal.Decimal `yaml:"allowanceTaxFreeCeiling"`

	Termination Termination `yaml:"termination"`
}

// kz is shorthand for whole-Kwanza amounts in the default table.
func kz(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// DefaultTable returns the compiled-in table for the current Angolan
// regime (Lei 28/22 IRT grid, 3%/8% INSS split).
func DefaultTable() Table {
	ceil := func(v int64) *decimal.Decimal {
		d := decimal.NewFromInt(v)
		return &d
	}
	rate := decimal.NewFromFloat
	return Table{
		Version: "ao-2024",
		IRTBrackets: []Bracket{
			{Floor: decimal.Zero, Ceiling: ceil(100_000), Rate: decimal.Zero},
			{Floor: kz(100_000), Ceiling: ceil(150_000), Rate: rate(0.13)},
			{Floor: kz(150_000), Ceiling: ceil(200_000), Rate: rate(0.16)},
			{Floor: kz(200_000), Ceiling: ceil(300_000), Rate: rate(0.18)},
			{Floor: kz(300_000), Ceiling: ceil(500_000), Rate: rate(0.19)},
			{Floor: kz(500_000), Ceiling: ceil(1_000_000), Rate: rate(0.20)},
			{Floor: kz(1_000_000), Ceiling: ceil(1_500_000), Rate: rate(0.21)},
			{Floor: kz(1_500_000), Ceiling: ceil(2_000_000), Rate: rate(0.22)},
			{Floor: kz(2_000_000), Ceiling: ceil(2_500_000), Rate: rate(0.23)},
			{Floor: kz(2_500_000), Ceiling: ceil(5_000_000), Rate: rate(0.24)},
			{Floor: kz(5_000_000), Ceiling: ceil(10_000_000), Rate: rate(0.245)},
			{Floor: kz(10_000_000), Ceiling: nil, Rate: rate(0.25)},
		},
		INSSEmployeeRate: rate(0.03),
		INSSEmployerRate: rate(0.08),
		Overtime: Overtime{
			NormalRate:      rate(1.5),
			ExtendedRate:    rate(1.75),
			HolidayRate:     rate(2.0),
			NormalTierHours: kz(30),
			MonthlyCapHours: kz(40),
			AnnualCapHours:  kz(200),
		},
		WorkingDaysPerMonth:     kz(22),
		HoursPerDay:             kz(8),
		AllowanceTaxFreeCeiling: kz(30_000),
		Termination: Termination{
			SeverancePerYearFirstBand: decimal.NewFromInt(1),
			SeverancePerYearBeyond:    rate(0.5),
			FirstBandYears:            5,
			NoticeMonths:              decimal.NewFromInt(1),
		},
	}
}

// Load reads a rules table from a YAML file and validates it.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read rules file %s: %w", path, err)
	}
	var tbl Table
	if err := yaml.Unmarshal(data, &tbl); err != nil {
		return Table{}, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if err := tbl.Validate(); err != nil {
		return Table{}, fmt.Errorf("rules file %s: %w", path, err)
	}
	return tbl, nil
}

// Validate checks bracket contiguity and rate sanity.
func (t Table) Validate() error {
	if len(t.IRTBrackets) == 0 {
		return fmt.Errorf("no IRT brackets defined")
	}
	one := decimal.NewFromInt(1)
	prevCeiling := decimal.Zero
	for i, b := range t.IRTBrackets {
		if b.Rate.IsNegative() || b.Rate.GreaterThan(one) {
			return fmt.Errorf("bracket %d: rate %s out of range", i, b.Rate)
		}
		if i == 0 {
			if !b.Floor.IsZero() {
				return fmt.Errorf("first bracket must start at zero")
			}
		} else if !b.Floor.Equal(prevCeiling) {
			return fmt.Errorf("bracket %d: floor %s does not meet previous ceiling %s", i, b.Floor, prevCeiling)
		}
		if b.Ceiling == nil {
			if i != len(t.IRTBrackets)-1 {
				return fmt.Errorf("bracket %d: only the last bracket may be unbounded", i)
			}
			continue
		}
		if !b.Ceiling.GreaterThan(b.Floor) {
			return fmt.Errorf("bracket %d: ceiling %s not above floor %s", i, b.Ceiling, b.Floor)
		}
		prevCeiling = *b.Ceiling
	}
	if t.IRTBrackets[len(t.IRTBrackets)-1].Ceiling != nil {
		return fmt.Errorf("last bracket must be unbounded")
	}
	for _, r := range []decimal.Decimal{t.INSSEmployeeRate, t.INSSEmployerRate} {
		if r.IsNegative() || r.GreaterThan(one) {
			return fmt.Errorf("INSS rate %s out of range", r)
		}
	}
	if !t.WorkingDaysPerMonth.IsPositive() || !t.HoursPerDay.IsPositive() {
		return fmt.Errorf("working days and hours per day must be positive")
	}
	return nil
}

// IRT computes the progressive tax over a taxable base: each bracket's
// rate applies only to the slice of income inside that bracket.
func (t Table) IRT(taxable decimal.Decimal) decimal.Decimal {
	if taxable.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, b := range t.IRTBrackets {
		if taxable.LessThanOrEqual(b.Floor) {
			break
		}
		top := taxable
		if b.Ceiling != nil && top.GreaterThan(*b.Ceiling) {
			top = *b.Ceiling
		}
		slice := top.Sub(b.Floor)
		if slice.IsPositive() {
			total = total.Add(slice.Mul(b.Rate))
		}
	}
	return total.Round(2)
}

// INSSEmployee returns the employee share of the social-security
// contribution over the INSS base.
func (t Table) INSSEmployee(base decimal.Decimal) decimal.Decimal {
	if base.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return base.Mul(t.INSSEmployeeRate).Round(2)
}

// INSSEmployer returns the employer share over the same base.
func (t Table) INSSEmployer(base decimal.Decimal) decimal.Decimal {
	if base.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return base.Mul(t.INSSEmployerRate).Round(2)
}

// AllowanceExcess returns the taxable portion of a meal or transport
// allowance: the part above the tax-free ceiling, never negative.
func (t Table) AllowanceExcess(allowance decimal.Decimal) decimal.Decimal {
	excess := allowance.Sub(t.AllowanceTaxFreeCeiling)
	if excess.IsNegative() {
		return decimal.Zero
	}
	return excess
}

// HourlyRate derives the legal hourly rate from a base salary.
func (t Table) HourlyRate(baseSalary decimal.Decimal) decimal.Decimal {
	return baseSalary.Div(t.WorkingDaysPerMonth.Mul(t.HoursPerDay))
}

// DailyRate derives the legal daily rate from a base salary.
func (t Table) DailyRate(baseSalary decimal.Decimal) decimal.Decimal {
	return baseSalary.Div(t.WorkingDaysPerMonth)
}

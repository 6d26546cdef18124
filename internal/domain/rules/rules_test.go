package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRTExemptBand(t *testing.T) {
	tbl := DefaultTable()

	assert.True(t, tbl.IRT(decimal.NewFromInt(0)).IsZero())
	assert.True(t, tbl.IRT(decimal.NewFromInt(99_999)).IsZero())
	assert.True(t, tbl.IRT(decimal.NewFromInt(100_000)).IsZero())
}

func TestIRTIsMarginalAcrossBoundary(t *testing.T) {
	tbl := DefaultTable()

	below := tbl.IRT(decimal.NewFromInt(99_999))
	above := tbl.IRT(decimal.NewFromInt(100_001))

	// Only the single Kwanza above the threshold is taxed, at 13%.
	diff := above.Sub(below)
	assert.True(t, diff.Equal(decimal.NewFromFloat(0.13)), "got diff %s", diff)
}

func TestIRTProgressiveAccumulation(t *testing.T) {
	tbl := DefaultTable()

	// 250,000: 0% on first 100k, 13% on 50k, 16% on 50k, 18% on 50k.
	got := tbl.IRT(decimal.NewFromInt(250_000))
	want := decimal.NewFromInt(6_500 + 8_000 + 9_000)
	assert.True(t, got.Equal(want), "got %s want %s", got, want)
}

func TestIRTNegativeBase(t *testing.T) {
	tbl := DefaultTable()
	assert.True(t, tbl.IRT(decimal.NewFromInt(-5_000)).IsZero())
}

func TestINSSShares(t *testing.T) {
	tbl := DefaultTable()
	base := decimal.NewFromInt(300_000)

	assert.True(t, tbl.INSSEmployee(base).Equal(decimal.NewFromInt(9_000)))
	assert.True(t, tbl.INSSEmployer(base).Equal(decimal.NewFromInt(24_000)))
}

func TestAllowanceExcess(t *testing.T) {
	tbl := DefaultTable()

	assert.True(t, tbl.AllowanceExcess(decimal.NewFromInt(25_000)).IsZero())
	assert.True(t, tbl.AllowanceExcess(decimal.NewFromInt(30_000)).IsZero())
	assert.True(t, tbl.AllowanceExcess(decimal.NewFromInt(45_000)).Equal(decimal.NewFromInt(15_000)))
}

func TestRateDerivation(t *testing.T) {
	tbl := DefaultTable()
	base := decimal.NewFromInt(220_000)

	assert.True(t, tbl.DailyRate(base).Equal(decimal.NewFromInt(10_000)))
	assert.True(t, tbl.HourlyRate(base).Equal(decimal.NewFromInt(1_250)))
}

func TestValidateRejectsGappedBrackets(t *testing.T) {
	tbl := DefaultTable()
	broken := decimal.NewFromInt(120_000)
	tbl.IRTBrackets[1].Floor = broken

	err := tbl.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not meet previous ceiling")
}

func TestValidateRejectsBoundedLastBracket(t *testing.T) {
	tbl := DefaultTable()
	last := decimal.NewFromInt(99_000_000)
	tbl.IRTBrackets[len(tbl.IRTBrackets)-1].Ceiling = &last

	require.Error(t, tbl.Validate())
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
version: test
irtBrackets:
  - {floor: 0, ceiling: 100000, rate: 0}
  - {floor: 100000, rate: 0.13}
inssEmployeeRate: 0.03
inssEmployerRate: 0.08
overtime:
  normalRate: 1.5
  extendedRate: 1.75
  holidayRate: 2
  normalTierHours: 30
  monthlyCapHours: 40
  annualCapHours: 200
workingDaysPerMonth: 22
hoursPerDay: 8
allowanceTaxFreeCeiling: 30000
termination:
  severancePerYearFirstBand: 1
  severancePerYearBeyond: 0.5
  firstBandYears: 5
  noticeMonths: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test", tbl.Version)
	assert.True(t, tbl.IRT(decimal.NewFromInt(200_000)).Equal(decimal.NewFromInt(13_000)))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

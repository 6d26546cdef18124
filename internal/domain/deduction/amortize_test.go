package deduction

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeduction(total int64, installments int) Deduction {
	t := decimal.NewFromInt(total)
	per, err := NewSchedule(t, installments)
	if err != nil {
		panic(err)
	}
	return Deduction{
		ID:              "ded-1",
		EmployeeID:      "emp-1",
		Kind:            KindLoan,
		TotalAmount:     t,
		Installments:    installments,
		PerInstallment:  per,
		RemainingAmount: t,
		Status:          StatusActive,
	}
}

func TestScheduleRounding(t *testing.T) {
	per, err := NewSchedule(decimal.NewFromInt(100_000), 3)
	require.NoError(t, err)
	assert.True(t, per.Equal(decimal.NewFromFloat(33_333.33)), "got %s", per)
}

func TestScheduleRejectsBadInput(t *testing.T) {
	_, err := NewSchedule(decimal.Zero, 3)
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	_, err = NewSchedule(decimal.NewFromInt(1_000), 0)
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestFinalInstallmentAbsorbsRemainder(t *testing.T) {
	d := newDeduction(100_000, 3)

	var collected decimal.Decimal
	var err error

	d, collected, err = ApplyInstallment(d)
	require.NoError(t, err)
	assert.True(t, collected.Equal(decimal.NewFromFloat(33_333.33)))

	d, _, err = ApplyInstallment(d)
	require.NoError(t, err)
	assert.True(t, d.RemainingAmount.Equal(decimal.NewFromFloat(33_333.34)), "got %s", d.RemainingAmount)

	d, collected, err = ApplyInstallment(d)
	require.NoError(t, err)
	assert.True(t, collected.Equal(decimal.NewFromFloat(33_333.34)), "final installment must absorb the remainder, got %s", collected)
	assert.True(t, d.RemainingAmount.IsZero())
	assert.True(t, d.FullyPaid)
	assert.Equal(t, 3, d.InstallmentsPaid)
}

func TestSingleInstallmentIsFullPayment(t *testing.T) {
	d := newDeduction(50_000, 1)

	d, collected, err := ApplyInstallment(d)
	require.NoError(t, err)
	assert.True(t, collected.Equal(decimal.NewFromInt(50_000)))
	assert.True(t, d.FullyPaid)
}

func TestApplyAfterSettlementFails(t *testing.T) {
	d := newDeduction(10_000, 1)
	d, _, err := ApplyInstallment(d)
	require.NoError(t, err)

	_, _, err = ApplyInstallment(d)
	assert.ErrorIs(t, err, ErrAlreadySettled)
}

func TestCancelledDeductionCollectsNothing(t *testing.T) {
	d := newDeduction(10_000, 2)
	d.Status = StatusCancelled

	assert.True(t, DueAmount(d).IsZero())

	_, _, err := ApplyInstallment(d)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestInstallmentsPaidMonotonic(t *testing.T) {
	d := newDeduction(90_000, 4)

	prev := d.InstallmentsPaid
	for !d.FullyPaid {
		var err error
		d, _, err = ApplyInstallment(d)
		require.NoError(t, err)
		assert.Greater(t, d.InstallmentsPaid, prev)
		assert.False(t, d.RemainingAmount.IsNegative())
		prev = d.InstallmentsPaid
	}
	assert.Equal(t, 4, d.InstallmentsPaid)
}

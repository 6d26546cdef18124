package deduction

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = errors.New("deduction not found")
	ErrAlreadySettled   = errors.New("deduction is already fully paid")
	ErrCancelled        = errors.New("deduction is cancelled")
	ErrInvalidSchedule  = errors.New("deduction needs a positive amount and at least one installment")
	ErrAppliedImmutable = errors.New("a deduction with applied installments cannot be deleted")
)

// NewSchedule derives the installment plan for a new deduction. The
// per-installment amount is rounded to the centavo; the final
// installment absorbs the rounding remainder (DueAmount clamps).
func NewSchedule(total decimal.Decimal, installments int) (perInstallment decimal.Decimal, err error) {
	if !total.IsPositive() || installments < 1 {
		return decimal.Zero, ErrInvalidSchedule
	}
	return total.Div(decimal.NewFromInt(int64(installments))).Round(2), nil
}

// DueAmount is what the next installment collects: the scheduled amount,
// clamped to the true remainder so the balance never goes negative and
// never leaves a residual after the last installment.
func DueAmount(d Deduction) decimal.Decimal {
	if d.Status == StatusCancelled || d.FullyPaid {
		return decimal.Zero
	}
	return decimal.Min(d.PerInstallment, d.RemainingAmount)
}

// ApplyInstallment advances the amortization by one installment and
// returns the updated deduction plus the amount collected.
// InstallmentsPaid only ever increases; RemainingAmount only ever
// decreases.
func ApplyInstallment(d Deduction) (Deduction, decimal.Decimal, error) {
	if d.Status == StatusCancelled {
		return d, decimal.Zero, ErrCancelled
	}
	if d.FullyPaid || !d.RemainingAmount.IsPositive() {
		return d, decimal.Zero, ErrAlreadySettled
	}

	collected := DueAmount(d)
	d.RemainingAmount = d.RemainingAmount.Sub(collected)
	d.InstallmentsPaid++
	if !d.RemainingAmount.IsPositive() {
		d.RemainingAmount = decimal.Zero
		d.FullyPaid = true
	}
	return d, collected, nil
}

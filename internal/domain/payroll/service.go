package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"folha/internal/domain/rules"
)

// AuditLog records lifecycle actions. Satisfied by audit.Service.
type AuditLog interface {
	Record(ctx context.Context, action, entityType, entityID, description string, before, after any) error
}

// DeductionSource supplies the installments due for an employee and
// applies them once the period freezes.
type DeductionSource interface {
	DueTotal(ctx context.Context, employeeID string) (decimal.Decimal, error)
	ApplyDueInstallments(ctx context.Context, employeeID, periodID string) error
}

// CredentialChecker backs the approval password gate.
type CredentialChecker interface {
	VerifyPassword(ctx context.Context, userID, password string) error
}

// Notifier pushes a change notification to connected clients after a
// successful write. Satisfied by the sync layer; nil-safe.
type Notifier interface {
	TableChanged(table, action, id string)
}

type Service struct {
	store      StoreAPI
	rules      rules.Table
	deductions DeductionSource
	audit      AuditLog
	creds      CredentialChecker
	notifier   Notifier

	// Months in which the statutory subsidies are paid out.
	ThirteenthPayoutMonth int
	HolidayPayoutMonth    int
}

func NewService(store StoreAPI, tbl rules.Table, deductions DeductionSource, auditLog AuditLog, creds CredentialChecker, notifier Notifier) *Service {
	return &Service{
		store:                 store,
		rules:                 tbl,
		deductions:            deductions,
		audit:                 auditLog,
		creds:                 creds,
		notifier:              notifier,
		ThirteenthPayoutMonth: 12,
		HolidayPayoutMonth:    6,
	}
}

func (s *Service) notify(table, action, id string) {
	if s.notifier != nil {
		s.notifier.TableChanged(table, action, id)
	}
}

// subsidyProration resolves the 13th-month and holiday-subsidy amounts
// payable in the given period: one month's base salary prorated by the
// months worked in the calendar year, paid only in the payout month.
func (s *Service) subsidyProration(hiredAt time.Time, base decimal.Decimal, year, month int) (thirteenth, holiday decimal.Decimal) {
	months := monthsWorkedInYear(hiredAt, year, month)
	if months.IsZero() {
		return decimal.Zero, decimal.Zero
	}
	twelve := decimal.NewFromInt(12)
	prorated := base.Mul(months).Div(twelve).Round(2)
	if month == s.ThirteenthPayoutMonth {
		thirteenth = prorated
	}
	if month == s.HolidayPayoutMonth {
		holiday = prorated
	}
	return thirteenth, holiday
}

func monthsWorkedInYear(hiredAt time.Time, year, month int) decimal.Decimal {
	if hiredAt.Year() > year || (hiredAt.Year() == year && int(hiredAt.Month()) > month) {
		return decimal.Zero
	}
	start := 1
	if hiredAt.Year() == year {
		start = int(hiredAt.Month())
	}
	return decimal.NewFromInt(int64(month - start + 1))
}

package history

import (
	"time"

	"github.com/shopspring/decimal"

	"folha/internal/domain/rules"
)

type TerminationReason string

const (
	ReasonDismissal       TerminationReason = "dismissal"
	ReasonRedundancy      TerminationReason = "redundancy"
	ReasonResignation     TerminationReason = "resignation"
	ReasonContractEnd     TerminationReason = "contract_end"
	ReasonMutualAgreement TerminationReason = "mutual_agreement"
)

type TerminationPackage struct {
	Reason                 TerminationReason `json:"reason"`
	TenureYears            int               `json:"tenureYears"`
	Severance              decimal.Decimal   `json:"severance"`
	ProportionalThirteenth decimal.Decimal   `json:"proportionalThirteenth"`
	ProportionalHoliday    decimal.Decimal   `json:"proportionalHoliday"`
	NoticeCompensation     decimal.Decimal   `json:"noticeCompensation"`
	Total                  decimal.Decimal   `json:"total"`
}

// ComputeTermination quotes the legal termination package: severance per
// year of tenure (full months for the first band, half beyond),
// proportional 13th and holiday subsidies for the exit year, and notice
// compensation where the employer ends the contract. Pure function of
// its inputs.
func ComputeTermination(hiredAt, terminatedAt time.Time, avgMonthlySalary decimal.Decimal, reason TerminationReason, tbl rules.Table) TerminationPackage {
	pkg := TerminationPackage{Reason: reason}
	if terminatedAt.Before(hiredAt) || !avgMonthlySalary.IsPositive() {
		return pkg
	}

	years := tenureYears(hiredAt, terminatedAt)
	pkg.TenureYears = years

	if severanceApplies(reason) {
		firstBand := years
		if firstBand > tbl.Termination.FirstBandYears {
			firstBand = tbl.Termination.FirstBandYears
		}
		beyond := years - firstBand
		months := tbl.Termination.SeverancePerYearFirstBand.Mul(decimal.NewFromInt(int64(firstBand))).
			Add(tbl.Termination.SeverancePerYearBeyond.Mul(decimal.NewFromInt(int64(beyond))))
		pkg.Severance = avgMonthlySalary.Mul(months).Round(2)
	}

	if noticeApplies(reason) {
		pkg.NoticeCompensation = avgMonthlySalary.Mul(tbl.Termination.NoticeMonths).Round(2)
	}

	// Proportional subsidies accrue for every exit path.
	monthsWorked := decimal.NewFromInt(int64(terminatedAt.Month()))
	twelve := decimal.NewFromInt(12)
	proportional := avgMonthlySalary.Mul(monthsWorked).Div(twelve).Round(2)
	pkg.ProportionalThirteenth = proportional
	pkg.ProportionalHoliday = proportional

	pkg.Total = pkg.Severance.
		Add(pkg.ProportionalThirteenth).
		Add(pkg.ProportionalHoliday).
		Add(pkg.NoticeCompensation)
	return pkg
}

func severanceApplies(reason TerminationReason) bool {
	switch reason {
	case ReasonDismissal, ReasonRedundancy, ReasonMutualAgreement:
		return true
	}
	return false
}

func noticeApplies(reason TerminationReason) bool {
	return reason == ReasonDismissal || reason == ReasonRedundancy
}

func tenureYears(hiredAt, terminatedAt time.Time) int {
	years := terminatedAt.Year() - hiredAt.Year()
	anniversary := hiredAt.AddDate(years, 0, 0)
	if anniversary.After(terminatedAt) {
		years--
	}
	if years < 0 {
		years = 0
	}
	return years
}

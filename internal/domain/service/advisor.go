package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/loanbook/internal/domain/model"
)

// HealthStatus classifies repayment progress against the schedule.
type HealthStatus string

const (
	HealthAhead   HealthStatus = "ahead"
	HealthOnTrack HealthStatus = "on_track"
	HealthBehind  HealthStatus = "behind"
	HealthSettled HealthStatus = "settled"
)

// RepaymentHealth compares principal actually retired with what the
// schedule expects to be retired by a given date.
type RepaymentHealth struct {
	NextDueDate               time.Time
	ScheduledPrincipalRetired decimal.Decimal
	ActualPrincipalRetired    decimal.Decimal
	Variance                  decimal.Decimal
	LoanID                    string
	Status                    HealthStatus
	ElapsedPeriods            int
	ShortfallPayments         int
}

// RepaymentAdvisor derives repayment health from a reconciliation.
type RepaymentAdvisor struct{}

// NewRepaymentAdvisor returns a new advisor.
func NewRepaymentAdvisor() *RepaymentAdvisor {
	return &RepaymentAdvisor{}
}

// Assess classifies the loan as of asOf. A period counts as elapsed once its
// due date is on or before asOf. The tolerance band is one monthly payment.
func (a *RepaymentAdvisor) Assess(loan model.Loan, result model.ReconciliationResult, asOf time.Time) (RepaymentHealth, error) {
	if result.LoanID != loan.ID() {
		return RepaymentHealth{}, fmt.Errorf("%w: result for %s assessed against %s", model.ErrUnknownLoan, result.LoanID, loan.ID())
	}

	schedule, err := loan.Schedule()
	if err != nil {
		return RepaymentHealth{}, fmt.Errorf("build schedule: %w", err)
	}

	elapsed := 0
	for _, e := range schedule {
		if e.DueDate.After(asOf) {
			break
		}
		elapsed++
	}

	principal := loan.Principal()
	scheduled := decimal.Zero
	if elapsed > 0 {
		scheduled = principal.Sub(schedule[elapsed-1].RemainingBalance)
	}
	actual := principal.Sub(result.OutstandingBalance)
	variance := actual.Sub(scheduled)

	health := RepaymentHealth{
		LoanID:                    loan.ID(),
		ElapsedPeriods:            elapsed,
		ScheduledPrincipalRetired: scheduled,
		ActualPrincipalRetired:    actual,
		Variance:                  variance,
		ShortfallPayments:         result.ShortfallPayments,
	}
	if elapsed < len(schedule) {
		health.NextDueDate = schedule[elapsed].DueDate
	}

	band := loan.MonthlyPayment()
	switch {
	case result.IsSettled():
		health.Status = HealthSettled
	case variance.GreaterThanOrEqual(band):
		health.Status = HealthAhead
	case variance.Neg().GreaterThan(band):
		health.Status = HealthBehind
	default:
		health.Status = HealthOnTrack
	}
	return health, nil
}

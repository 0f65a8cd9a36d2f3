package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fintrack/loanbook/internal/domain/model"
)

// ---------------------------------------------------------------------------
// PortfolioAggregator – folds per-loan reconciliations into owner totals
// ---------------------------------------------------------------------------

// Holding is one loan together with its complete payment ledger.
type Holding struct {
	Loan     model.Loan
	Payments []model.Payment
}

// PortfolioSummary sums the reconciliation results of every loan that could
// be reconciled. Loans that failed contribute nothing to any total.
type PortfolioSummary struct {
	TotalLoans         decimal.Decimal
	TotalPaid          decimal.Decimal
	TotalInterestPaid  decimal.Decimal
	TotalPrincipalPaid decimal.Decimal
	TotalRemaining     decimal.Decimal
	Results            []model.ReconciliationResult
	LoanCount          int
}

// LoanFailure names a loan the aggregator could not reconcile.
type LoanFailure struct {
	Err    error
	LoanID string
}

// PartialAggregationError is returned alongside a usable summary when one or
// more loans could not be reconciled.
type PartialAggregationError struct {
	Failures []LoanFailure
}

func (e *PartialAggregationError) Error() string {
	ids := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		ids = append(ids, f.LoanID)
	}
	return fmt.Sprintf("portfolio partially aggregated: %d loan(s) failed: %s",
		len(e.Failures), strings.Join(ids, ", "))
}

// Unwrap exposes every per-loan error to errors.Is and errors.As.
func (e *PartialAggregationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// AsPartial extracts a PartialAggregationError from err.
func AsPartial(err error) (*PartialAggregationError, bool) {
	var partial *PartialAggregationError
	if errors.As(err, &partial) {
		return partial, true
	}
	return nil, false
}

// PortfolioAggregator is stateless; one instance may serve concurrent callers.
type PortfolioAggregator struct{}

// NewPortfolioAggregator returns a new aggregator.
func NewPortfolioAggregator() *PortfolioAggregator {
	return &PortfolioAggregator{}
}

// Summarize reconciles each holding independently and sums the results. An
// empty portfolio yields an all-zero summary. When some holdings fail, the
// summary over the rest is still returned together with a
// *PartialAggregationError.
func (a *PortfolioAggregator) Summarize(holdings []Holding) (PortfolioSummary, error) {
	summary := PortfolioSummary{
		TotalLoans:         decimal.Zero,
		TotalPaid:          decimal.Zero,
		TotalInterestPaid:  decimal.Zero,
		TotalPrincipalPaid: decimal.Zero,
		TotalRemaining:     decimal.Zero,
		Results:            make([]model.ReconciliationResult, 0, len(holdings)),
	}
	var failures []LoanFailure

	for _, h := range holdings {
		res, err := model.Reconcile(h.Loan, h.Payments)
		if err != nil {
			failures = append(failures, LoanFailure{LoanID: h.Loan.ID(), Err: err})
			continue
		}
		summary.add(res)
	}

	if len(failures) > 0 {
		return summary, &PartialAggregationError{Failures: failures}
	}
	return summary, nil
}

func (s *PortfolioSummary) add(res model.ReconciliationResult) {
	s.TotalLoans = s.TotalLoans.Add(res.Principal)
	s.TotalPaid = s.TotalPaid.Add(res.TotalPaid)
	s.TotalInterestPaid = s.TotalInterestPaid.Add(res.TotalInterestPaid)
	s.TotalPrincipalPaid = s.TotalPrincipalPaid.Add(res.TotalPrincipalPaid)
	s.TotalRemaining = s.TotalRemaining.Add(res.OutstandingBalance)
	s.Results = append(s.Results, res)
	s.LoanCount++
}

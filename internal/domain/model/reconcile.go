package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ReconciliationResult is a loan's state derived by replaying its ledger.
// Nothing here is persisted; every query recomputes it.
type ReconciliationResult struct {
	LoanID             string
	Principal          decimal.Decimal
	TotalPaid          decimal.Decimal
	TotalInterestPaid  decimal.Decimal
	TotalPrincipalPaid decimal.Decimal
	OutstandingBalance decimal.Decimal

	// Unapplied is the part of principal payments that exceeded the balance
	// and was dropped by the zero clamp. It is informational, not a credit.
	Unapplied decimal.Decimal

	PaymentsApplied   int
	ShortfallPayments int
}

// IsSettled reports whether the balance has reached zero.
func (r ReconciliationResult) IsSettled() bool { return r.OutstandingBalance.IsZero() }

// Reconcile replays payments against the loan's terms using interest-first
// allocation. Each payment accrues one month of interest on the balance
// current at that payment, regardless of the calendar gap since the previous
// one. A payment that does not cover the accrued interest counts entirely as
// interest and leaves the balance unchanged.
//
// Payments are replayed in (paid_at, sequence) order whatever order they are
// passed in. Reconcile holds no state; identical inputs give identical results.
func Reconcile(loan Loan, payments []Payment) (ReconciliationResult, error) {
	if loan.ID() == "" {
		return ReconciliationResult{}, fmt.Errorf("%w: loan has no id", ErrUnknownLoan)
	}
	for _, p := range payments {
		if p.LoanID() != loan.ID() {
			return ReconciliationResult{}, fmt.Errorf("%w: payment %s belongs to loan %s, not %s",
				ErrUnknownLoan, p.ID(), p.LoanID(), loan.ID())
		}
	}

	terms := loan.Terms()
	rate := terms.MonthlyRate()

	res := ReconciliationResult{
		LoanID:             loan.ID(),
		Principal:          terms.Principal,
		TotalPaid:          decimal.Zero,
		TotalInterestPaid:  decimal.Zero,
		TotalPrincipalPaid: decimal.Zero,
		Unapplied:          decimal.Zero,
	}
	balance := terms.Principal

	for _, p := range SortLedger(payments) {
		amount := p.Amount()
		res.TotalPaid = res.TotalPaid.Add(amount)
		res.PaymentsApplied++

		interestDue := balance.Mul(rate).Round(precision)
		if amount.LessThan(interestDue) {
			res.TotalInterestPaid = res.TotalInterestPaid.Add(amount)
			res.ShortfallPayments++
			continue
		}

		res.TotalInterestPaid = res.TotalInterestPaid.Add(interestDue)
		principalPortion := amount.Sub(interestDue)
		res.TotalPrincipalPaid = res.TotalPrincipalPaid.Add(principalPortion)

		if principalPortion.GreaterThan(balance) {
			res.Unapplied = res.Unapplied.Add(principalPortion.Sub(balance))
			balance = decimal.Zero
			continue
		}
		balance = balance.Sub(principalPortion)
	}

	res.OutstandingBalance = balance
	return res, nil
}

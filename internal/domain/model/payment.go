package model

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is one repayment recorded against a loan. Payments are never
// mutated once recorded.
type Payment struct {
	id       string
	loanID   string
	amount   decimal.Decimal
	paidAt   time.Time
	sequence int64
}

// NewPayment validates a repayment. The sequence is assigned by the ledger
// when the payment is appended.
func NewPayment(loanID string, amount decimal.Decimal, paidAt time.Time) (Payment, error) {
	if loanID == "" {
		return Payment{}, fmt.Errorf("%w: loan id is required", ErrUnknownLoan)
	}
	if !amount.IsPositive() {
		return Payment{}, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidAmount, amount)
	}
	return Payment{
		id:     uuid.New().String(),
		loanID: loanID,
		amount: amount,
		paidAt: paidAt.UTC(),
	}, nil
}

// ReconstructPayment rebuilds a Payment from persistence.
func ReconstructPayment(id, loanID string, amount decimal.Decimal, paidAt time.Time, sequence int64) Payment {
	return Payment{id: id, loanID: loanID, amount: amount, paidAt: paidAt.UTC(), sequence: sequence}
}

// WithSequence returns a copy carrying the ledger-assigned insertion order.
func (p Payment) WithSequence(seq int64) Payment {
	p.sequence = seq
	return p
}

func (p Payment) ID() string { return p.id }
func (p Payment) LoanID() string { return p.loanID }
func (p Payment) Amount() decimal.Decimal { return p.amount }
func (p Payment) PaidAt() time.Time { return p.paidAt }
func (p Payment) Sequence() int64 { return p.sequence }

// ComparePayments orders payments by date, then by insertion sequence.
func ComparePayments(a, b Payment) int {
	if c := a.paidAt.Compare(b.paidAt); c != 0 {
		return c
	}
	return cmp.Compare(a.sequence, b.sequence)
}

// SortLedger returns a copy of payments in replay order. The input is not
// modified.
func SortLedger(payments []Payment) []Payment {
	out := slices.Clone(payments)
	slices.SortStableFunc(out, ComparePayments)
	return out
}

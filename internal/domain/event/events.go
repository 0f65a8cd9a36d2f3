// Package event defines the domain events raised by the loan aggregate and
// the payment use cases.
package event

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/loanbook/pkg/events"
)

const aggregateLoan = "Loan"

// Event types, carried in the event_type Kafka header.
const (
	TypeLoanRegistered  = "loanbook.loan.registered"
	TypePaymentRecorded = "loanbook.loan.payment_recorded"
	TypeLoanPaidOff     = "loanbook.loan.paid_off"
	TypeLoanDefaulted   = "loanbook.loan.defaulted"
	TypeLoanDeleted     = "loanbook.loan.deleted"
)

// ---------------------------------------------------------------------------
// Loan Events
// ---------------------------------------------------------------------------

// LoanRegistered is raised when a user registers a new loan.
type LoanRegistered struct {
	StartDate time.Time `json:"start_date"`
	events.BaseEvent
	Principal         decimal.Decimal `json:"principal"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	MonthlyPayment    decimal.Decimal `json:"monthly_payment"`
	Lender            string          `json:"lender"`
	Category          string          `json:"category"`
	TermMonths        int             `json:"term_months"`
}

func NewLoanRegistered(
	loanID, ownerID string,
	principal, ratePercent, monthlyPayment decimal.Decimal,
	termMonths int, lender, category string,
	startDate, at time.Time,
) LoanRegistered {
	return LoanRegistered{
		BaseEvent:         events.NewBaseEvent(TypeLoanRegistered, loanID, aggregateLoan, ownerID, at),
		Principal:         principal,
		AnnualRatePercent: ratePercent,
		MonthlyPayment:    monthlyPayment,
		TermMonths:        termMonths,
		Lender:            lender,
		Category:          category,
		StartDate:         startDate,
	}
}

// PaymentRecorded is raised after a payment is appended to a loan's ledger.
// OutstandingBalance is the reconciled balance including that payment.
type PaymentRecorded struct {
	PaidAt time.Time `json:"paid_at"`
	events.BaseEvent
	PaymentID          string          `json:"payment_id"`
	Amount             decimal.Decimal `json:"amount"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
}

func NewPaymentRecorded(
	loanID, ownerID, paymentID string,
	amount, outstanding decimal.Decimal,
	paidAt, at time.Time,
) PaymentRecorded {
	return PaymentRecorded{
		BaseEvent:          events.NewBaseEvent(TypePaymentRecorded, loanID, aggregateLoan, ownerID, at),
		PaymentID:          paymentID,
		Amount:             amount,
		OutstandingBalance: outstanding,
		PaidAt:             paidAt,
	}
}

// LoanPaidOff is raised when reconciliation first finds a zero balance.
type LoanPaidOff struct {
	events.BaseEvent
	TotalPaid         decimal.Decimal `json:"total_paid"`
	TotalInterestPaid decimal.Decimal `json:"total_interest_paid"`
}

func NewLoanPaidOff(loanID, ownerID string, totalPaid, totalInterest decimal.Decimal, at time.Time) LoanPaidOff {
	return LoanPaidOff{
		BaseEvent:         events.NewBaseEvent(TypeLoanPaidOff, loanID, aggregateLoan, ownerID, at),
		TotalPaid:         totalPaid,
		TotalInterestPaid: totalInterest,
	}
}

// LoanDefaulted is raised when a servicer marks a loan as defaulted.
type LoanDefaulted struct {
	events.BaseEvent
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	Reason             string          `json:"reason,omitempty"`
}

func NewLoanDefaulted(loanID, ownerID string, outstanding decimal.Decimal, reason string, at time.Time) LoanDefaulted {
	return LoanDefaulted{
		BaseEvent:          events.NewBaseEvent(TypeLoanDefaulted, loanID, aggregateLoan, ownerID, at),
		OutstandingBalance: outstanding,
		Reason:             reason,
	}
}

// LoanDeleted is raised when a loan and its ledger are removed.
type LoanDeleted struct {
	events.BaseEvent
	PaymentsRemoved int `json:"payments_removed"`
}

func NewLoanDeleted(loanID, ownerID string, paymentsRemoved int, at time.Time) LoanDeleted {
	return LoanDeleted{
		BaseEvent:       events.NewBaseEvent(TypeLoanDeleted, loanID, aggregateLoan, ownerID, at),
		PaymentsRemoved: paymentsRemoved,
	}
}

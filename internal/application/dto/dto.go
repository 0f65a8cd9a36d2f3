package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// RegisterLoanRequest carries the terms of a new loan. Exactly one of
// TermMonths and TermYears must be set.
type RegisterLoanRequest struct {
	StartDate         Date            `json:"start_date"`
	OwnerID           string          `json:"-"`
	Lender            string          `json:"lender"`
	Category          string          `json:"category"`
	Principal         decimal.Decimal `json:"principal"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent"`
	TermMonths        int             `json:"term_months,omitempty"`
	TermYears         int             `json:"term_years,omitempty"`
}

// GetLoanRequest identifies a loan to retrieve. AsOf defaults to now and
// drives the repayment health assessment.
type GetLoanRequest struct {
	AsOf            time.Time `json:"as_of,omitempty"`
	OwnerID         string    `json:"-"`
	LoanID          string    `json:"loan_id"`
	IncludeSchedule bool      `json:"include_schedule,omitempty"`
}

// ListLoansRequest lists every loan owned by the caller.
type ListLoansRequest struct {
	OwnerID string `json:"-"`
}

// RecordPaymentRequest appends a repayment to a loan's ledger. PaidAt
// defaults to now. A non-empty IdempotencyKey makes retries safe.
type RecordPaymentRequest struct {
	PaidAt         time.Time       `json:"paid_at,omitempty"`
	OwnerID        string          `json:"-"`
	LoanID         string          `json:"loan_id"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
}

// ListPaymentsRequest identifies a loan whose ledger to list.
type ListPaymentsRequest struct {
	OwnerID string `json:"-"`
	LoanID  string `json:"loan_id"`
}

// GetScheduleRequest identifies a loan whose schedule to compute.
type GetScheduleRequest struct {
	OwnerID string `json:"-"`
	LoanID  string `json:"loan_id"`
}

// GetPortfolioSummaryRequest asks for the caller's portfolio totals.
type GetPortfolioSummaryRequest struct {
	OwnerID string `json:"-"`
}

// MarkLoanDefaultedRequest records an external default decision. OwnerID is
// the borrower, supplied by a servicer.
type MarkLoanDefaultedRequest struct {
	OwnerID string `json:"owner_id"`
	LoanID  string `json:"loan_id"`
	Reason  string `json:"reason,omitempty"`
}

// DeleteLoanRequest identifies a loan to remove along with its ledger.
type DeleteLoanRequest struct {
	OwnerID string `json:"-"`
	LoanID  string `json:"loan_id"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// LoanResponse is the external representation of a loan.
type LoanResponse struct {
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
	StartDate         Date                        `json:"start_date"`
	Reconciliation    *ReconciliationResponse     `json:"reconciliation,omitempty"`
	Health            *RepaymentHealthResponse    `json:"health,omitempty"`
	ID                string                      `json:"id"`
	OwnerID           string                      `json:"owner_id"`
	Lender            string                      `json:"lender"`
	Category          string                      `json:"category"`
	Status            string                      `json:"status"`
	Principal         decimal.Decimal             `json:"principal"`
	AnnualRatePercent decimal.Decimal             `json:"annual_rate_percent"`
	MonthlyPayment    decimal.Decimal             `json:"monthly_payment"`
	Schedule          []AmortizationEntryResponse `json:"schedule,omitempty"`
	TermMonths        int                         `json:"term_months"`
}

// ReconciliationResponse is a loan's replayed state, rounded to the
// currency's minor unit.
type ReconciliationResponse struct {
	TotalPaid          decimal.Decimal `json:"total_paid"`
	TotalInterestPaid  decimal.Decimal `json:"total_interest_paid"`
	TotalPrincipalPaid decimal.Decimal `json:"total_principal_paid"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	Unapplied          decimal.Decimal `json:"unapplied"`
	PaymentsApplied    int             `json:"payments_applied"`
	ShortfallPayments  int             `json:"shortfall_payments"`
}

// RepaymentHealthResponse compares actual and scheduled progress.
type RepaymentHealthResponse struct {
	NextDueDate               *Date           `json:"next_due_date,omitempty"`
	Status                    string          `json:"status"`
	ScheduledPrincipalRetired decimal.Decimal `json:"scheduled_principal_retired"`
	ActualPrincipalRetired    decimal.Decimal `json:"actual_principal_retired"`
	Variance                  decimal.Decimal `json:"variance"`
	ElapsedPeriods            int             `json:"elapsed_periods"`
}

// AmortizationEntryResponse represents a single amortization schedule entry.
type AmortizationEntryResponse struct {
	DueDate          Date            `json:"due_date"`
	Payment          decimal.Decimal `json:"payment"`
	Interest         decimal.Decimal `json:"interest"`
	Principal        decimal.Decimal `json:"principal"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	Period           int             `json:"period"`
}

// ScheduleResponse is a loan's full amortization schedule.
type ScheduleResponse struct {
	LoanID         string                      `json:"loan_id"`
	MonthlyPayment decimal.Decimal             `json:"monthly_payment"`
	TotalInterest  decimal.Decimal             `json:"total_interest"`
	TotalPayable   decimal.Decimal             `json:"total_payable"`
	Entries        []AmortizationEntryResponse `json:"entries"`
}

// PaymentResponse is the external representation of a ledger entry.
type PaymentResponse struct {
	PaidAt   time.Time       `json:"paid_at"`
	ID       string          `json:"id"`
	LoanID   string          `json:"loan_id"`
	Amount   decimal.Decimal `json:"amount"`
	Sequence int64           `json:"sequence"`
}

// RecordPaymentResponse reports the recorded payment and the loan's state
// after it. Replayed is true when an idempotency key matched an earlier
// request; the payment returned is the original one.
type RecordPaymentResponse struct {
	Payment            PaymentResponse `json:"payment"`
	LoanStatus         string          `json:"loan_status"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	Replayed           bool            `json:"replayed"`
}

// ListLoansResponse lists the caller's loans with their reconciliations.
type ListLoansResponse struct {
	Loans []LoanResponse `json:"loans"`
}

// ListPaymentsResponse is a loan's ledger in replay order.
type ListPaymentsResponse struct {
	LoanID   string            `json:"loan_id"`
	Payments []PaymentResponse `json:"payments"`
}

// AggregationFailureResponse names a loan left out of a portfolio summary.
type AggregationFailureResponse struct {
	LoanID string `json:"loan_id"`
	Error  string `json:"error"`
}

// PortfolioSummaryResponse is the dashboard view of all of an owner's loans.
// A non-empty Failures list means the totals cover only the other loans.
type PortfolioSummaryResponse struct {
	Currency           string                       `json:"currency"`
	TotalLoans         decimal.Decimal              `json:"total_loans"`
	TotalPaid          decimal.Decimal              `json:"total_paid"`
	TotalInterestPaid  decimal.Decimal              `json:"total_interest_paid"`
	TotalPrincipalPaid decimal.Decimal              `json:"total_principal_paid"`
	TotalRemaining     decimal.Decimal              `json:"total_remaining"`
	Failures           []AggregationFailureResponse `json:"failures,omitempty"`
	LoanCount          int                          `json:"loan_count"`
}

// DeleteLoanResponse confirms a deletion.
type DeleteLoanResponse struct {
	LoanID          string `json:"loan_id"`
	PaymentsRemoved int    `json:"payments_removed"`
}

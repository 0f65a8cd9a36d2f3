package usecase

import (
	"log/slog"
	"time"

	"github.com/fintrack/loanbook/internal/domain/port"
	"github.com/fintrack/loanbook/pkg/money"
)

// Dependencies are the adapters every use case is built from. Idempotency
// and Metrics may be nil.
type Dependencies struct {
	Loans          port.LoanRepository
	Ledger         port.PaymentLedger
	Publisher      port.EventPublisher
	Idempotency    port.IdempotencyStore
	Metrics        *Metrics
	Logger         *slog.Logger
	Currency       money.Currency
	IdempotencyTTL time.Duration
}

// Set groups the use cases the transport layers expose.
type Set struct {
	RegisterLoan        *RegisterLoanUseCase
	GetLoan             *GetLoanUseCase
	ListLoans           *ListLoansUseCase
	RecordPayment       *RecordPaymentUseCase
	ListPayments        *ListPaymentsUseCase
	GetSchedule         *GetScheduleUseCase
	GetPortfolioSummary *GetPortfolioSummaryUseCase
	MarkLoanDefaulted   *MarkLoanDefaultedUseCase
	DeleteLoan          *DeleteLoanUseCase
}

func NewSet(d Dependencies) Set {
	return Set{
		RegisterLoan: NewRegisterLoanUseCase(d.Loans, d.Publisher, d.Currency),
		GetLoan:      NewGetLoanUseCase(d.Loans, d.Ledger, d.Metrics, d.Currency),
		ListLoans:    NewListLoansUseCase(d.Loans, d.Ledger, d.Metrics, d.Currency),
		RecordPayment: NewRecordPaymentUseCase(
			d.Loans, d.Ledger, d.Publisher, d.Idempotency, d.IdempotencyTTL, d.Metrics, d.Logger, d.Currency,
		),
		ListPayments:        NewListPaymentsUseCase(d.Loans, d.Ledger),
		GetSchedule:         NewGetScheduleUseCase(d.Loans, d.Currency),
		GetPortfolioSummary: NewGetPortfolioSummaryUseCase(d.Loans, d.Ledger, d.Metrics, d.Logger, d.Currency),
		MarkLoanDefaulted:   NewMarkLoanDefaultedUseCase(d.Loans, d.Ledger, d.Publisher, d.Currency),
		DeleteLoan:          NewDeleteLoanUseCase(d.Loans, d.Publisher),
	}
}

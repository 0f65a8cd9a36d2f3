package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrack/loanbook/internal/application/dto"
	"github.com/fintrack/loanbook/internal/domain/model"
	"github.com/fintrack/loanbook/internal/domain/port"
	"github.com/fintrack/loanbook/pkg/money"
)

// MarkLoanDefaultedUseCase records an external default decision.
type MarkLoanDefaultedUseCase struct {
	loanRepo  port.LoanRepository
	ledger    port.PaymentLedger
	publisher port.EventPublisher
	currency  money.Currency
}

// NewMarkLoanDefaultedUseCase wires dependencies.
func NewMarkLoanDefaultedUseCase(
	loanRepo port.LoanRepository,
	ledger port.PaymentLedger,
	publisher port.EventPublisher,
	currency money.Currency,
) *MarkLoanDefaultedUseCase {
	return &MarkLoanDefaultedUseCase{loanRepo: loanRepo, ledger: ledger, publisher: publisher, currency: currency}
}

// Execute moves an active loan to defaulted. The event carries the balance
// reconciled at the moment of default.
func (uc *MarkLoanDefaultedUseCase) Execute(
	ctx context.Context,
	req dto.MarkLoanDefaultedRequest,
) (dto.LoanResponse, error) {
	now := time.Now().UTC()

	loan, err := findLoan(ctx, uc.loanRepo, req.OwnerID, req.LoanID)
	if err != nil {
		return dto.LoanResponse{}, err
	}

	payments, err := uc.ledger.ListFor(ctx, loan.ID())
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("list payments: %w", err)
	}
	res, err := model.Reconcile(loan, payments)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("reconcile loan: %w", err)
	}

	defaulted, err := loan.MarkDefaulted(res.OutstandingBalance, req.Reason, now)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("mark loan defaulted: %w", err)
	}

	if err := uc.loanRepo.Transition(ctx, defaulted, loan.Status()); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("save loan: %w", err)
	}

	if err := uc.publisher.Publish(ctx, defaulted.DomainEvents()...); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("publish events: %w", err)
	}

	resp := toLoanResponse(defaulted, uc.currency)
	resp.Reconciliation = toReconciliationResponse(res, uc.currency)
	return resp, nil
}

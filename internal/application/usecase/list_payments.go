package usecase

import (
	"context"
	"fmt"

	"github.com/fintrack/loanbook/internal/application/dto"
	"github.com/fintrack/loanbook/internal/domain/port"
)

// ListPaymentsUseCase returns a loan's ledger in replay order.
type ListPaymentsUseCase struct {
	loanRepo port.LoanRepository
	ledger   port.PaymentLedger
}

// NewListPaymentsUseCase wires dependencies.
func NewListPaymentsUseCase(loanRepo port.LoanRepository, ledger port.PaymentLedger) *ListPaymentsUseCase {
	return &ListPaymentsUseCase{loanRepo: loanRepo, ledger: ledger}
}

// Execute checks ownership, then lists the ledger.
func (uc *ListPaymentsUseCase) Execute(ctx context.Context, req dto.ListPaymentsRequest) (dto.ListPaymentsResponse, error) {
	loan, err := findLoan(ctx, uc.loanRepo, req.OwnerID, req.LoanID)
	if err != nil {
		return dto.ListPaymentsResponse{}, err
	}

	payments, err := uc.ledger.ListFor(ctx, loan.ID())
	if err != nil {
		return dto.ListPaymentsResponse{}, fmt.Errorf("list payments: %w", err)
	}

	out := dto.ListPaymentsResponse{LoanID: loan.ID(), Payments: make([]dto.PaymentResponse, 0, len(payments))}
	for _, p := range payments {
		out.Payments = append(out.Payments, toPaymentResponse(p))
	}
	return out, nil
}

package usecase

import (
	"context"
	"fmt"

	"github.com/fintrack/loanbook/internal/application/dto"
	"github.com/fintrack/loanbook/internal/domain/model"
	"github.com/fintrack/loanbook/internal/domain/port"
	"github.com/fintrack/loanbook/pkg/money"
)

// ListLoansUseCase lists an owner's loans, each with its reconciliation.
type ListLoansUseCase struct {
	loanRepo port.LoanRepository
	ledger   port.PaymentLedger
	metrics  *Metrics
	currency money.Currency
}

// NewListLoansUseCase wires dependencies.
func NewListLoansUseCase(
	loanRepo port.LoanRepository,
	ledger port.PaymentLedger,
	metrics *Metrics,
	currency money.Currency,
) *ListLoansUseCase {
	return &ListLoansUseCase{loanRepo: loanRepo, ledger: ledger, metrics: metrics, currency: currency}
}

// Execute returns every loan owned by the caller, oldest first.
func (uc *ListLoansUseCase) Execute(ctx context.Context, req dto.ListLoansRequest) (dto.ListLoansResponse, error) {
	loans, err := uc.loanRepo.ListByOwner(ctx, req.OwnerID)
	if err != nil {
		return dto.ListLoansResponse{}, fmt.Errorf("list loans: %w", err)
	}

	ledgers, err := uc.ledger.ListForLoans(ctx, loanIDs(loans))
	if err != nil {
		return dto.ListLoansResponse{}, fmt.Errorf("list payments: %w", err)
	}

	out := dto.ListLoansResponse{Loans: make([]dto.LoanResponse, 0, len(loans))}
	for _, loan := range loans {
		payments := ledgers[loan.ID()]
		res, err := model.Reconcile(loan, payments)
		if err != nil {
			return dto.ListLoansResponse{}, fmt.Errorf("reconcile loan %s: %w", loan.ID(), err)
		}
		uc.metrics.reconciled(ctx, "list_loans", len(payments))

		resp := toLoanResponse(loan, uc.currency)
		resp.Reconciliation = toReconciliationResponse(res, uc.currency)
		out.Loans = append(out.Loans, resp)
	}
	return out, nil
}

func loanIDs(loans []model.Loan) []string {
	ids := make([]string, 0, len(loans))
	for _, l := range loans {
		ids = append(ids, l.ID())
	}
	return ids
}

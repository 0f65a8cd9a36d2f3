package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrack/loanbook/internal/application/dto"
	"github.com/fintrack/loanbook/internal/domain/model"
	"github.com/fintrack/loanbook/internal/domain/port"
	"github.com/fintrack/loanbook/internal/domain/service"
	"github.com/fintrack/loanbook/pkg/money"
)

// GetLoanUseCase returns a loan with its freshly reconciled state.
type GetLoanUseCase struct {
	loanRepo port.LoanRepository
	ledger   port.PaymentLedger
	advisor  *service.RepaymentAdvisor
	metrics  *Metrics
	currency money.Currency
}

// NewGetLoanUseCase wires dependencies.
func NewGetLoanUseCase(
	loanRepo port.LoanRepository,
	ledger port.PaymentLedger,
	metrics *Metrics,
	currency money.Currency,
) *GetLoanUseCase {
	return &GetLoanUseCase{
		loanRepo: loanRepo,
		ledger:   ledger,
		advisor:  service.NewRepaymentAdvisor(),
		metrics:  metrics,
		currency: currency,
	}
}

// Execute loads the loan and its ledger and replays the ledger.
func (uc *GetLoanUseCase) Execute(ctx context.Context, req dto.GetLoanRequest) (dto.LoanResponse, error) {
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
	uc.metrics.reconciled(ctx, "get_loan", len(payments))

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	health, err := uc.advisor.Assess(loan, res, asOf)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("assess loan: %w", err)
	}

	resp := toLoanResponse(loan, uc.currency)
	resp.Reconciliation = toReconciliationResponse(res, uc.currency)
	resp.Health = toHealthResponse(health, uc.currency)

	if req.IncludeSchedule {
		schedule, err := loan.Schedule()
		if err != nil {
			return dto.LoanResponse{}, fmt.Errorf("build schedule: %w", err)
		}
		resp.Schedule = toScheduleEntries(schedule, uc.currency)
	}
	return resp, nil
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrack/loanbook/internal/application/dto"
	"github.com/fintrack/loanbook/internal/domain/model"
	"github.com/fintrack/loanbook/internal/domain/port"
	"github.com/fintrack/loanbook/internal/domain/valueobject"
	"github.com/fintrack/loanbook/pkg/money"
)

// RegisterLoanUseCase validates terms and stores a new loan.
type RegisterLoanUseCase struct {
	loanRepo  port.LoanRepository
	publisher port.EventPublisher
	currency  money.Currency
}

// NewRegisterLoanUseCase wires dependencies.
func NewRegisterLoanUseCase(
	loanRepo port.LoanRepository,
	publisher port.EventPublisher,
	currency money.Currency,
) *RegisterLoanUseCase {
	return &RegisterLoanUseCase{
		loanRepo:  loanRepo,
		publisher: publisher,
		currency:  currency,
	}
}

// Execute registers the loan and returns it with its untouched reconciliation.
func (uc *RegisterLoanUseCase) Execute(
	ctx context.Context,
	req dto.RegisterLoanRequest,
) (dto.LoanResponse, error) {
	now := time.Now().UTC()

	termMonths, err := resolveTerm(req.TermMonths, req.TermYears)
	if err != nil {
		return dto.LoanResponse{}, err
	}

	category, err := valueobject.NewLoanCategory(req.Category)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("%w: %v", model.ErrInvalidTerms, err)
	}

	terms, err := model.NewTerms(req.Principal, req.AnnualRatePercent, termMonths)
	if err != nil {
		return dto.LoanResponse{}, err
	}

	loan, err := model.NewLoan(req.OwnerID, terms, req.Lender, category, req.StartDate.Time, now)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("create loan: %w", err)
	}

	if err := uc.loanRepo.Save(ctx, loan); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("save loan: %w", err)
	}

	if err := uc.publisher.Publish(ctx, loan.DomainEvents()...); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("publish events: %w", err)
	}

	res, err := model.Reconcile(loan, nil)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("reconcile loan: %w", err)
	}

	resp := toLoanResponse(loan, uc.currency)
	resp.Reconciliation = toReconciliationResponse(res, uc.currency)
	return resp, nil
}

func resolveTerm(months, years int) (int, error) {
	switch {
	case months != 0 && years != 0:
		return 0, fmt.Errorf("%w: give term_months or term_years, not both", model.ErrInvalidTerms)
	case years != 0:
		return model.TermMonthsFromYears(years), nil
	default:
		return months, nil
	}
}

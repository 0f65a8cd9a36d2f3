package usecase

import (
	"context"
	"fmt"

	"github.com/fintrack/loanbook/internal/application/dto"
	"github.com/fintrack/loanbook/internal/domain/port"
	"github.com/fintrack/loanbook/pkg/money"
)

// GetScheduleUseCase computes a loan's amortization schedule.
type GetScheduleUseCase struct {
	loanRepo port.LoanRepository
	currency money.Currency
}

// NewGetScheduleUseCase wires dependencies.
func NewGetScheduleUseCase(loanRepo port.LoanRepository, currency money.Currency) *GetScheduleUseCase {
	return &GetScheduleUseCase{loanRepo: loanRepo, currency: currency}
}

// Execute derives the schedule from the loan's stored terms.
func (uc *GetScheduleUseCase) Execute(ctx context.Context, req dto.GetScheduleRequest) (dto.ScheduleResponse, error) {
	loan, err := findLoan(ctx, uc.loanRepo, req.OwnerID, req.LoanID)
	if err != nil {
		return dto.ScheduleResponse{}, err
	}

	schedule, err := loan.Schedule()
	if err != nil {
		return dto.ScheduleResponse{}, fmt.Errorf("build schedule: %w", err)
	}

	return dto.ScheduleResponse{
		LoanID:         loan.ID(),
		MonthlyPayment: money.Round(loan.MonthlyPayment(), uc.currency),
		TotalInterest:  money.Round(schedule.TotalInterest(), uc.currency),
		TotalPayable:   money.Round(schedule.TotalPayable(), uc.currency),
		Entries:        toScheduleEntries(schedule, uc.currency),
	}, nil
}

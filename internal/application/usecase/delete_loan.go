package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrack/loanbook/internal/application/dto"
	"github.com/fintrack/loanbook/internal/domain/event"
	"github.com/fintrack/loanbook/internal/domain/port"
)

// DeleteLoanUseCase removes a loan together with its payment ledger.
type DeleteLoanUseCase struct {
	loanRepo  port.LoanRepository
	publisher port.EventPublisher
}

// NewDeleteLoanUseCase wires dependencies.
func NewDeleteLoanUseCase(loanRepo port.LoanRepository, publisher port.EventPublisher) *DeleteLoanUseCase {
	return &DeleteLoanUseCase{loanRepo: loanRepo, publisher: publisher}
}

// Execute deletes the loan and its ledger in one step.
func (uc *DeleteLoanUseCase) Execute(ctx context.Context, req dto.DeleteLoanRequest) (dto.DeleteLoanResponse, error) {
	loan, err := findLoan(ctx, uc.loanRepo, req.OwnerID, req.LoanID)
	if err != nil {
		return dto.DeleteLoanResponse{}, err
	}

	removed, err := uc.loanRepo.Delete(ctx, loan.OwnerID(), loan.ID())
	if err != nil {
		return dto.DeleteLoanResponse{}, fmt.Errorf("delete loan: %w", err)
	}

	deleted := event.NewLoanDeleted(loan.ID(), loan.OwnerID(), removed, time.Now().UTC())
	if err := uc.publisher.Publish(ctx, deleted); err != nil {
		return dto.DeleteLoanResponse{}, fmt.Errorf("publish events: %w", err)
	}

	return dto.DeleteLoanResponse{LoanID: loan.ID(), PaymentsRemoved: removed}, nil
}

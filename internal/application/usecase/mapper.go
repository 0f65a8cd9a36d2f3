package usecase

import (
	"context"
	"fmt"

	"github.com/fintrack/loanbook/internal/application/dto"
	"github.com/fintrack/loanbook/internal/domain/model"
	"github.com/fintrack/loanbook/internal/domain/port"
	"github.com/fintrack/loanbook/internal/domain/service"
	"github.com/fintrack/loanbook/pkg/money"
)

// findLoan loads a loan owned by ownerID.
func findLoan(ctx context.Context, repo port.LoanRepository, ownerID, loanID string) (model.Loan, error) {
	if loanID == "" {
		return model.Loan{}, fmt.Errorf("find loan: %w: loan id is required", model.ErrUnknownLoan)
	}
	loan, err := repo.FindByID(ctx, ownerID, loanID)
	if err != nil {
		return model.Loan{}, fmt.Errorf("find loan: %w", err)
	}
	return loan, nil
}

// Amounts leave the engine at full precision and are rounded here, at the
// application boundary, to the configured currency.

func toLoanResponse(loan model.Loan, cur money.Currency) dto.LoanResponse {
	return dto.LoanResponse{
		ID:                loan.ID(),
		OwnerID:           loan.OwnerID(),
		Principal:         loan.Principal(),
		AnnualRatePercent: loan.AnnualRatePercent(),
		TermMonths:        loan.TermMonths(),
		Lender:            loan.Lender(),
		Category:          loan.Category().String(),
		StartDate:         dto.NewDate(loan.StartDate()),
		Status:            loan.Status().String(),
		MonthlyPayment:    money.Round(loan.MonthlyPayment(), cur),
		CreatedAt:         loan.CreatedAt(),
		UpdatedAt:         loan.UpdatedAt(),
	}
}

func toReconciliationResponse(res model.ReconciliationResult, cur money.Currency) *dto.ReconciliationResponse {
	return &dto.ReconciliationResponse{
		TotalPaid:          money.Round(res.TotalPaid, cur),
		TotalInterestPaid:  money.Round(res.TotalInterestPaid, cur),
		TotalPrincipalPaid: money.Round(res.TotalPrincipalPaid, cur),
		OutstandingBalance: money.Round(res.OutstandingBalance, cur),
		Unapplied:          money.Round(res.Unapplied, cur),
		PaymentsApplied:    res.PaymentsApplied,
		ShortfallPayments:  res.ShortfallPayments,
	}
}

func toHealthResponse(h service.RepaymentHealth, cur money.Currency) *dto.RepaymentHealthResponse {
	resp := &dto.RepaymentHealthResponse{
		Status:                    string(h.Status),
		ElapsedPeriods:            h.ElapsedPeriods,
		ScheduledPrincipalRetired: money.Round(h.ScheduledPrincipalRetired, cur),
		ActualPrincipalRetired:    money.Round(h.ActualPrincipalRetired, cur),
		Variance:                  money.Round(h.Variance, cur),
	}
	if !h.NextDueDate.IsZero() {
		next := dto.NewDate(h.NextDueDate)
		resp.NextDueDate = &next
	}
	return resp
}

func toScheduleEntries(schedule model.Schedule, cur money.Currency) []dto.AmortizationEntryResponse {
	out := make([]dto.AmortizationEntryResponse, 0, len(schedule))
	for _, e := range schedule {
		out = append(out, dto.AmortizationEntryResponse{
			Period:           e.Period,
			DueDate:          dto.NewDate(e.DueDate),
			Payment:          money.Round(e.Payment, cur),
			Interest:         money.Round(e.Interest, cur),
			Principal:        money.Round(e.Principal, cur),
			RemainingBalance: money.Round(e.RemainingBalance, cur),
		})
	}
	return out
}

func toPaymentResponse(p model.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:       p.ID(),
		LoanID:   p.LoanID(),
		Amount:   p.Amount(),
		PaidAt:   p.PaidAt(),
		Sequence: p.Sequence(),
	}
}

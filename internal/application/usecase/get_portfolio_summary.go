package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fintrack/loanbook/internal/application/dto"
	"github.com/fintrack/loanbook/internal/domain/port"
	"github.com/fintrack/loanbook/internal/domain/service"
	"github.com/fintrack/loanbook/pkg/money"
)

// GetPortfolioSummaryUseCase totals every loan an owner holds.
type GetPortfolioSummaryUseCase struct {
	loanRepo   port.LoanRepository
	ledger     port.PaymentLedger
	aggregator *service.PortfolioAggregator
	metrics    *Metrics
	logger     *slog.Logger
	currency   money.Currency
}

// NewGetPortfolioSummaryUseCase wires dependencies.
func NewGetPortfolioSummaryUseCase(
	loanRepo port.LoanRepository,
	ledger port.PaymentLedger,
	metrics *Metrics,
	logger *slog.Logger,
	currency money.Currency,
) *GetPortfolioSummaryUseCase {
	return &GetPortfolioSummaryUseCase{
		loanRepo:   loanRepo,
		ledger:     ledger,
		aggregator: service.NewPortfolioAggregator(),
		metrics:    metrics,
		logger:     logger,
		currency:   currency,
	}
}

// Execute loads all loans and ledgers for the owner and aggregates them.
// Loans that cannot be reconciled are listed in Failures; the request itself
// still succeeds.
func (uc *GetPortfolioSummaryUseCase) Execute(
	ctx context.Context,
	req dto.GetPortfolioSummaryRequest,
) (dto.PortfolioSummaryResponse, error) {
	loans, err := uc.loanRepo.ListByOwner(ctx, req.OwnerID)
	if err != nil {
		return dto.PortfolioSummaryResponse{}, fmt.Errorf("list loans: %w", err)
	}

	ledgers, err := uc.ledger.ListForLoans(ctx, loanIDs(loans))
	if err != nil {
		return dto.PortfolioSummaryResponse{}, fmt.Errorf("list payments: %w", err)
	}

	holdings := make([]service.Holding, 0, len(loans))
	for _, loan := range loans {
		holdings = append(holdings, service.Holding{Loan: loan, Payments: ledgers[loan.ID()]})
	}

	summary, err := uc.aggregator.Summarize(holdings)
	for _, res := range summary.Results {
		uc.metrics.reconciled(ctx, "portfolio_summary", res.PaymentsApplied)
	}

	resp := dto.PortfolioSummaryResponse{
		Currency:           uc.currency.Code(),
		LoanCount:          summary.LoanCount,
		TotalLoans:         money.Round(summary.TotalLoans, uc.currency),
		TotalPaid:          money.Round(summary.TotalPaid, uc.currency),
		TotalInterestPaid:  money.Round(summary.TotalInterestPaid, uc.currency),
		TotalPrincipalPaid: money.Round(summary.TotalPrincipalPaid, uc.currency),
		TotalRemaining:     money.Round(summary.TotalRemaining, uc.currency),
	}

	if err != nil {
		partial, ok := service.AsPartial(err)
		if !ok {
			return dto.PortfolioSummaryResponse{}, fmt.Errorf("summarize portfolio: %w", err)
		}
		uc.metrics.aggregationFailed(ctx, len(partial.Failures))
		for _, f := range partial.Failures {
			resp.Failures = append(resp.Failures, dto.AggregationFailureResponse{LoanID: f.LoanID, Error: f.Err.Error()})
		}
		uc.logger.Warn("portfolio partially aggregated",
			"owner_id", req.OwnerID,
			"failed_loans", len(partial.Failures),
			"summarized_loans", summary.LoanCount,
		)
	}

	uc.logger.Debug("portfolio summarized",
		"owner_id", req.OwnerID,
		"loans", summary.LoanCount,
		"total_remaining", money.Format(summary.TotalRemaining, uc.currency),
	)
	return resp, nil
}

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/fintrack/loanbook/internal/application/dto"
	"github.com/fintrack/loanbook/internal/application/usecase"
	"github.com/fintrack/loanbook/internal/domain/model"
)

func ownerLoans(loans ...model.Loan) *mockLoanRepository {
	return &mockLoanRepository{listByOwnerFunc: func(context.Context, string) ([]model.Loan, error) {
		return loans, nil
	}}
}

func newTestMetrics(t *testing.T) (*usecase.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := usecase.NewMetrics(provider.Meter("loanbook-test"))
	require.NoError(t, err)
	return m, reader
}

func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestGetPortfolioSummary_Execute(t *testing.T) {
	t.Run("empty portfolio is all zero", func(t *testing.T) {
		uc := usecase.NewGetPortfolioSummaryUseCase(ownerLoans(), &mockPaymentLedger{}, nil, discardLogger(), usd)

		resp, err := uc.Execute(context.Background(), dto.GetPortfolioSummaryRequest{OwnerID: "owner-1"})
		require.NoError(t, err)
		assert.Equal(t, "USD", resp.Currency)
		assert.Equal(t, 0, resp.LoanCount)
		assert.True(t, resp.TotalLoans.IsZero())
		assert.True(t, resp.TotalRemaining.IsZero())
		assert.Empty(t, resp.Failures)
	})

	t.Run("two untouched loans", func(t *testing.T) {
		a := activeLoan(t, "owner-1", "1000", "5", 12)
		b := activeLoan(t, "owner-1", "2000", "5", 12)
		uc := usecase.NewGetPortfolioSummaryUseCase(ownerLoans(a, b), &mockPaymentLedger{}, nil, discardLogger(), usd)

		resp, err := uc.Execute(context.Background(), dto.GetPortfolioSummaryRequest{OwnerID: "owner-1"})
		require.NoError(t, err)
		assert.Equal(t, "3000", resp.TotalLoans.String())
		assert.True(t, resp.TotalPaid.IsZero())
		assert.Equal(t, "3000", resp.TotalRemaining.String())
		assert.Equal(t, 2, resp.LoanCount)
	})

	t.Run("sums reconciled loans", func(t *testing.T) {
		a := activeLoan(t, "owner-1", "12000", "12", 12)
		b := activeLoan(t, "owner-1", "1000", "12", 12)
		ledger := &mockPaymentLedger{payments: map[string][]model.Payment{
			a.ID(): {payment(t, a, 1, "1066.19")},
			b.ID(): {payment(t, b, 1, "50")},
		}}
		metrics, reader := newTestMetrics(t)
		uc := usecase.NewGetPortfolioSummaryUseCase(ownerLoans(a, b), ledger, metrics, discardLogger(), usd)

		resp, err := uc.Execute(context.Background(), dto.GetPortfolioSummaryRequest{OwnerID: "owner-1"})
		require.NoError(t, err)
		assert.Equal(t, "13000", resp.TotalLoans.String())
		assert.Equal(t, "1116.19", resp.TotalPaid.String())
		assert.Equal(t, "130", resp.TotalInterestPaid.String())
		assert.Equal(t, "986.19", resp.TotalPrincipalPaid.String())
		assert.Equal(t, "12013.81", resp.TotalRemaining.String())
		assert.Equal(t, int64(2), counterValue(t, reader, "loanbook.reconciliations"))
	})

	t.Run("partial failure still returns totals", func(t *testing.T) {
		good := activeLoan(t, "owner-1", "1000", "12", 12)
		broken := activeLoan(t, "owner-1", "2000", "12", 12)
		ledger := &mockPaymentLedger{listForLoansFunc: func(context.Context, []string) (map[string][]model.Payment, error) {
			// A payment filed under the wrong loan cannot be replayed.
			return map[string][]model.Payment{broken.ID(): {payment(t, good, 1, "10")}}, nil
		}}
		metrics, reader := newTestMetrics(t)
		uc := usecase.NewGetPortfolioSummaryUseCase(ownerLoans(good, broken), ledger, metrics, discardLogger(), usd)

		resp, err := uc.Execute(context.Background(), dto.GetPortfolioSummaryRequest{OwnerID: "owner-1"})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.LoanCount)
		assert.Equal(t, "1000", resp.TotalLoans.String())
		require.Len(t, resp.Failures, 1)
		assert.Equal(t, broken.ID(), resp.Failures[0].LoanID)
		assert.Contains(t, resp.Failures[0].Error, "unknown loan")
		assert.Equal(t, int64(1), counterValue(t, reader, "loanbook.aggregation.failures"))
	})

	t.Run("storage failure is an error", func(t *testing.T) {
		repo := &mockLoanRepository{listByOwnerFunc: func(context.Context, string) ([]model.Loan, error) {
			return nil, errors.New("connection refused")
		}}
		uc := usecase.NewGetPortfolioSummaryUseCase(repo, &mockPaymentLedger{}, nil, discardLogger(), usd)

		_, err := uc.Execute(context.Background(), dto.GetPortfolioSummaryRequest{OwnerID: "owner-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "list loans")
	})
}

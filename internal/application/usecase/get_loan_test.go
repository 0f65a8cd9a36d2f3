package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/loanbook/internal/application/dto"
	"github.com/fintrack/loanbook/internal/application/usecase"
	"github.com/fintrack/loanbook/internal/domain/model"
)

func TestGetLoan_Execute(t *testing.T) {
	t.Run("returns reconciled loan with schedule and health", func(t *testing.T) {
		loan := activeLoan(t, "owner-1", "12000", "12", 12)
		repo := &mockLoanRepository{findByIDFunc: findReturning(loan)}
		ledger := &mockPaymentLedger{payments: map[string][]model.Payment{
			loan.ID(): {payment(t, loan, 1, "1066.19")},
		}}
		uc := usecase.NewGetLoanUseCase(repo, ledger, nil, usd)

		resp, err := uc.Execute(context.Background(), dto.GetLoanRequest{
			OwnerID:         "owner-1",
			LoanID:          loan.ID(),
			IncludeSchedule: true,
			AsOf:            testStart.AddDate(0, 1, 0),
		})
		require.NoError(t, err)

		require.NotNil(t, resp.Reconciliation)
		assert.Equal(t, "11053.81", resp.Reconciliation.OutstandingBalance.String())
		assert.Equal(t, "120", resp.Reconciliation.TotalInterestPaid.String())
		assert.Equal(t, "946.19", resp.Reconciliation.TotalPrincipalPaid.String())
		assert.Equal(t, 1, resp.Reconciliation.PaymentsApplied)

		require.NotNil(t, resp.Health)
		assert.Equal(t, "on_track", resp.Health.Status)
		assert.Equal(t, 1, resp.Health.ElapsedPeriods)

		require.Len(t, resp.Schedule, 12)
		assert.Equal(t, "0", resp.Schedule[11].RemainingBalance.String())
	})

	t.Run("omits schedule unless asked", func(t *testing.T) {
		loan := activeLoan(t, "owner-1", "1000", "5", 12)
		uc := usecase.NewGetLoanUseCase(&mockLoanRepository{findByIDFunc: findReturning(loan)}, &mockPaymentLedger{}, nil, usd)

		resp, err := uc.Execute(context.Background(), dto.GetLoanRequest{OwnerID: "owner-1", LoanID: loan.ID()})
		require.NoError(t, err)
		assert.Empty(t, resp.Schedule)
		assert.Equal(t, "1000", resp.Reconciliation.OutstandingBalance.String())
	})

	t.Run("other owner's loan is unknown", func(t *testing.T) {
		loan := activeLoan(t, "owner-1", "1000", "5", 12)
		uc := usecase.NewGetLoanUseCase(&mockLoanRepository{findByIDFunc: findReturning(loan)}, &mockPaymentLedger{}, nil, usd)

		_, err := uc.Execute(context.Background(), dto.GetLoanRequest{OwnerID: "owner-2", LoanID: loan.ID()})
		assert.ErrorIs(t, err, model.ErrUnknownLoan)
		assert.Contains(t, err.Error(), "find loan")
	})

	t.Run("missing loan id", func(t *testing.T) {
		uc := usecase.NewGetLoanUseCase(&mockLoanRepository{}, &mockPaymentLedger{}, nil, usd)
		_, err := uc.Execute(context.Background(), dto.GetLoanRequest{OwnerID: "owner-1"})
		assert.ErrorIs(t, err, model.ErrUnknownLoan)
	})

	t.Run("fails when ledger fails", func(t *testing.T) {
		loan := activeLoan(t, "owner-1", "1000", "5", 12)
		ledger := &mockPaymentLedger{listForFunc: func(context.Context, string) ([]model.Payment, error) {
			return nil, errors.New("timeout")
		}}
		uc := usecase.NewGetLoanUseCase(&mockLoanRepository{findByIDFunc: findReturning(loan)}, ledger, nil, usd)

		_, err := uc.Execute(context.Background(), dto.GetLoanRequest{OwnerID: "owner-1", LoanID: loan.ID()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "list payments")
	})
}

func TestListLoans_Execute(t *testing.T) {
	a := activeLoan(t, "owner-1", "1000", "12", 12)
	b := activeLoan(t, "owner-1", "2000", "0", 10)
	repo := &mockLoanRepository{listByOwnerFunc: func(_ context.Context, owner string) ([]model.Loan, error) {
		return []model.Loan{a, b}, nil
	}}
	ledger := &mockPaymentLedger{payments: map[string][]model.Payment{
		b.ID(): {payment(t, b, 1, "200"), payment(t, b, 2, "200")},
	}}

	resp, err := usecase.NewListLoansUseCase(repo, ledger, nil, usd).Execute(context.Background(), dto.ListLoansRequest{OwnerID: "owner-1"})
	require.NoError(t, err)
	require.Len(t, resp.Loans, 2)
	assert.Equal(t, "1000", resp.Loans[0].Reconciliation.OutstandingBalance.String())
	assert.Equal(t, "1600", resp.Loans[1].Reconciliation.OutstandingBalance.String())
	assert.Equal(t, "200", resp.Loans[1].MonthlyPayment.String())
}

func TestGetSchedule_Execute(t *testing.T) {
	loan := activeLoan(t, "owner-1", "12000", "12", 12)
	uc := usecase.NewGetScheduleUseCase(&mockLoanRepository{findByIDFunc: findReturning(loan)}, usd)

	resp, err := uc.Execute(context.Background(), dto.GetScheduleRequest{OwnerID: "owner-1", LoanID: loan.ID()})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 12)
	assert.Equal(t, "1066.19", resp.MonthlyPayment.String())
	assert.Equal(t, "120", resp.Entries[0].Interest.String())
	assert.Equal(t, "946.19", resp.Entries[0].Principal.String())
	assert.Equal(t, "11053.81", resp.Entries[0].RemainingBalance.String())
	assert.Equal(t, "2024-02-01", resp.Entries[0].DueDate.String())
	assert.True(t, resp.TotalPayable.Sub(resp.TotalInterest).Equal(dec("12000")))
}

func TestListPayments_Execute(t *testing.T) {
	loan := activeLoan(t, "owner-1", "1000", "12", 12)
	ledger := &mockPaymentLedger{payments: map[string][]model.Payment{
		loan.ID(): {payment(t, loan, 2, "20"), payment(t, loan, 1, "10")},
	}}
	uc := usecase.NewListPaymentsUseCase(&mockLoanRepository{findByIDFunc: findReturning(loan)}, ledger)

	resp, err := uc.Execute(context.Background(), dto.ListPaymentsRequest{OwnerID: "owner-1", LoanID: loan.ID()})
	require.NoError(t, err)
	require.Len(t, resp.Payments, 2)
	assert.Equal(t, int64(1), resp.Payments[0].Sequence)
	assert.Equal(t, "10", resp.Payments[0].Amount.String())

	_, err = uc.Execute(context.Background(), dto.ListPaymentsRequest{OwnerID: "owner-2", LoanID: loan.ID()})
	assert.ErrorIs(t, err, model.ErrUnknownLoan)
}

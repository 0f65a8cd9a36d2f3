package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/loanbook/internal/domain/event"
	"github.com/fintrack/loanbook/internal/domain/valueobject"
)

func TestNewLoan(t *testing.T) {
	terms := mustTerms(t, "12000", "12", 12)
	start := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	now := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

	loan, err := NewLoan("owner-1", terms, "  Acme Bank ", valueobject.LoanCategoryAuto, start, now)
	require.NoError(t, err)

	assert.NotEmpty(t, loan.ID())
	assert.Equal(t, "owner-1", loan.OwnerID())
	assert.Equal(t, "Acme Bank", loan.Lender())
	assert.True(t, loan.Category().Equal(valueobject.LoanCategoryAuto))
	assert.True(t, loan.Status().Equal(valueobject.LoanStatusActive))
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), loan.StartDate())
	assert.Equal(t, 12, loan.TermMonths())
	assertDecimal(t, "1066.19", loan.MonthlyPayment().Round(2))

	require.Len(t, loan.DomainEvents(), 1)
	registered, ok := loan.DomainEvents()[0].(event.LoanRegistered)
	require.True(t, ok)
	assert.Equal(t, event.TypeLoanRegistered, registered.EventType())
	assert.Equal(t, loan.ID(), registered.AggregateID())
	assert.Equal(t, "owner-1", registered.OwnerID())
	assert.Equal(t, 12, registered.TermMonths)

	assert.Empty(t, loan.ClearEvents().DomainEvents())
}

func TestNewLoan_Validation(t *testing.T) {
	terms := mustTerms(t, "1000", "5", 12)
	now := time.Now()

	tests := []struct {
		name     string
		owner    string
		terms    Terms
		lender   string
		category valueobject.LoanCategory
		start    time.Time
		wantErr  error
	}{
		{"missing owner", "", terms, "Bank", valueobject.LoanCategoryHome, now, nil},
		{"missing lender", "o", terms, " ", valueobject.LoanCategoryHome, now, ErrInvalidTerms},
		{"missing category", "o", terms, "Bank", valueobject.LoanCategory{}, now, ErrInvalidTerms},
		{"missing start", "o", terms, "Bank", valueobject.LoanCategoryHome, time.Time{}, ErrInvalidTerms},
		{"bad terms", "o", Terms{Principal: decimal.Zero, TermMonths: 12}, "Bank", valueobject.LoanCategoryHome, now, ErrInvalidTerms},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoan(tt.owner, tt.terms, tt.lender, tt.category, tt.start, now)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoan_MarkPaid(t *testing.T) {
	loan := newTestLoan(t, "1000", "12", 12).ClearEvents()
	now := testStart.AddDate(1, 0, 0)

	unsettled, err := Reconcile(loan, ledger(t, loan, "100"))
	require.NoError(t, err)
	_, err = loan.MarkPaid(unsettled, now)
	assert.ErrorIs(t, err, valueobject.ErrInvalidStatusTransition)

	settled, err := Reconcile(loan, ledger(t, loan, "1010"))
	require.NoError(t, err)
	paid, err := loan.MarkPaid(settled, now)
	require.NoError(t, err)
	assert.True(t, paid.Status().Equal(valueobject.LoanStatusPaid))
	assert.True(t, loan.Status().Equal(valueobject.LoanStatusActive), "original is unchanged")

	require.Len(t, paid.DomainEvents(), 1)
	paidOff, ok := paid.DomainEvents()[0].(event.LoanPaidOff)
	require.True(t, ok)
	assertDecimal(t, "1010", paidOff.TotalPaid)
	assertDecimal(t, "10", paidOff.TotalInterestPaid)

	_, err = paid.MarkPaid(settled, now)
	assert.ErrorIs(t, err, valueobject.ErrInvalidStatusTransition)
	_, err = paid.MarkDefaulted(decimal.Zero, "", now)
	assert.ErrorIs(t, err, valueobject.ErrInvalidStatusTransition)
}

func TestLoan_MarkDefaulted(t *testing.T) {
	loan := newTestLoan(t, "1000", "12", 12).ClearEvents()

	defaulted, err := loan.MarkDefaulted(dec("1000"), "borrower unreachable", testStart)
	require.NoError(t, err)
	assert.True(t, defaulted.Status().Equal(valueobject.LoanStatusDefaulted))

	require.Len(t, defaulted.DomainEvents(), 1)
	ev, ok := defaulted.DomainEvents()[0].(event.LoanDefaulted)
	require.True(t, ok)
	assert.Equal(t, "borrower unreachable", ev.Reason)

	_, err = defaulted.MarkDefaulted(dec("1000"), "", testStart)
	assert.ErrorIs(t, err, valueobject.ErrInvalidStatusTransition)
}

func TestReconstructLoan(t *testing.T) {
	created := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	loan, err := ReconstructLoan("loan-1", "owner-1", mustTerms(t, "12000", "12", 12), "Acme",
		valueobject.LoanCategoryEducation, valueobject.LoanStatusPaid, created, created, created)
	require.NoError(t, err)

	assert.Equal(t, "loan-1", loan.ID())
	assert.True(t, loan.Status().Equal(valueobject.LoanStatusPaid))
	assertDecimal(t, "1066.19", loan.MonthlyPayment().Round(2))
	assert.Empty(t, loan.DomainEvents())

	_, err = ReconstructLoan("loan-2", "owner-1", Terms{}, "Acme",
		valueobject.LoanCategoryEducation, valueobject.LoanStatusActive, created, created, created)
	assert.ErrorIs(t, err, ErrInvalidTerms)
}

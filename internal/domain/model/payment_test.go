package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayment(t *testing.T) {
	paidAt := time.Date(2024, 2, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))

	p, err := NewPayment("loan-1", dec("250.50"), paidAt)
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID())
	assert.Equal(t, "loan-1", p.LoanID())
	assertDecimal(t, "250.50", p.Amount())
	assert.Equal(t, time.UTC, p.PaidAt().Location())
	assert.True(t, p.PaidAt().Equal(paidAt))
	assert.Equal(t, int64(0), p.Sequence())
	assert.Equal(t, int64(7), p.WithSequence(7).Sequence())
}

func TestNewPayment_KeepsFullPrecision(t *testing.T) {
	p, err := NewPayment("loan-1", dec("0.0000001"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "0.0000001", p.Amount().String())
}

func TestNewPayment_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		loanID  string
		amount  string
		wantErr error
	}{
		{"zero amount", "loan-1", "0", ErrInvalidAmount},
		{"negative amount", "loan-1", "-10", ErrInvalidAmount},
		{"missing loan", "", "10", ErrUnknownLoan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPayment(tt.loanID, dec(tt.amount), time.Now())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSortLedger(t *testing.T) {
	day1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	a := ReconstructPayment("a", "l", dec("1"), day2, 1)
	b := ReconstructPayment("b", "l", dec("1"), day1, 3)
	c := ReconstructPayment("c", "l", dec("1"), day1, 2)
	input := []Payment{a, b, c}

	sorted := SortLedger(input)
	ids := make([]string, 0, len(sorted))
	for _, p := range sorted {
		ids = append(ids, p.ID())
	}
	assert.Equal(t, []string{"c", "b", "a"}, ids)
	assert.Equal(t, "a", input[0].ID(), "input order preserved")
	assert.Empty(t, SortLedger(nil))
}

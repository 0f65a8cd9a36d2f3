package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// precision is the number of decimal places kept for intermediate rate
	// and balance arithmetic. Rounding to the currency minor unit happens
	// only at the presentation boundary.
	precision = 28

	// MaxTermMonths caps the term at 100 years.
	MaxTermMonths = 1200
)

var (
	hundred       = decimal.NewFromInt(100)
	monthsPerYear = decimal.NewFromInt(12)
)

// Terms are the fixed parameters of a monthly-compounding, fixed-rate loan.
type Terms struct {
	Principal         decimal.Decimal
	AnnualRatePercent decimal.Decimal
	TermMonths        int
}

// NewTerms validates and returns loan terms.
func NewTerms(principal, annualRatePercent decimal.Decimal, termMonths int) (Terms, error) {
	t := Terms{Principal: principal, AnnualRatePercent: annualRatePercent, TermMonths: termMonths}
	if err := t.Validate(); err != nil {
		return Terms{}, err
	}
	return t, nil
}

// TermMonthsFromYears converts a whole-year term to months.
func TermMonthsFromYears(years int) int { return years * 12 }

// Validate reports ErrInvalidTerms for out-of-range parameters.
func (t Terms) Validate() error {
	switch {
	case !t.Principal.IsPositive():
		return fmt.Errorf("%w: principal must be positive, got %s", ErrInvalidTerms, t.Principal)
	case t.AnnualRatePercent.IsNegative():
		return fmt.Errorf("%w: annual rate must not be negative, got %s", ErrInvalidTerms, t.AnnualRatePercent)
	case t.TermMonths <= 0:
		return fmt.Errorf("%w: term must be at least one month, got %d", ErrInvalidTerms, t.TermMonths)
	case t.TermMonths > MaxTermMonths:
		return fmt.Errorf("%w: term of %d months exceeds %d", ErrInvalidTerms, t.TermMonths, MaxTermMonths)
	}
	return nil
}

// MonthlyRate returns R / 100 / 12 as a fraction.
func (t Terms) MonthlyRate() decimal.Decimal {
	return t.AnnualRatePercent.DivRound(hundred.Mul(monthsPerYear), precision)
}

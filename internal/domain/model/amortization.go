package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AmortizationEntry is one period of a schedule that assumes every scheduled
// payment is made on time.
type AmortizationEntry struct {
	DueDate          time.Time
	Payment          decimal.Decimal
	Interest         decimal.Decimal
	Principal        decimal.Decimal
	RemainingBalance decimal.Decimal
	Period           int
}

// Schedule is a full amortization schedule, ordered by period.
type Schedule []AmortizationEntry

// TotalInterest sums the interest portion of every period.
func (s Schedule) TotalInterest() decimal.Decimal {
	total := decimal.Zero
	for _, e := range s {
		total = total.Add(e.Interest)
	}
	return total
}

// TotalPayable sums every scheduled payment.
func (s Schedule) TotalPayable() decimal.Decimal {
	total := decimal.Zero
	for _, e := range s {
		total = total.Add(e.Payment)
	}
	return total
}

// MonthlyPayment computes the fixed periodic payment
//
//	M = P * r * (1+r)^N / ((1+r)^N - 1)
//
// or P / N when the rate is zero. It returns ErrInvalidTerms for invalid
// terms and also when the computed payment does not exceed the first
// period's interest at the engine's working precision, which happens only
// for extreme rate and term combinations near MaxTermMonths.
func MonthlyPayment(t Terms) (decimal.Decimal, error) {
	if err := t.Validate(); err != nil {
		return decimal.Zero, err
	}

	n := decimal.NewFromInt(int64(t.TermMonths))
	r := t.MonthlyRate()
	if r.IsZero() {
		return t.Principal.DivRound(n, precision), nil
	}

	factor := compound(r, t.TermMonths)
	payment := t.Principal.Mul(r).Mul(factor).DivRound(factor.Sub(decimal.NewFromInt(1)), precision)

	// Mathematically M > P*r for any finite N. With a high rate and a long
	// term factor/(factor-1) rounds to 1 at our precision and the two collapse;
	// such terms are rejected because the schedule would not amortize, not
	// because the terms themselves are invalid.
	if payment.LessThanOrEqual(t.Principal.Mul(r)) {
		return decimal.Zero, fmt.Errorf("%w: payment %s does not cover first-period interest", ErrInvalidTerms, payment)
	}
	return payment, nil
}

// Amortize builds the N-row schedule for t with due dates counted in whole
// months from start (see AddMonths). The final row absorbs residual rounding so the last
// remaining balance is exactly zero.
func Amortize(t Terms, start time.Time) (Schedule, error) {
	payment, err := MonthlyPayment(t)
	if err != nil {
		return nil, err
	}

	r := t.MonthlyRate()
	balance := t.Principal
	schedule := make(Schedule, 0, t.TermMonths)

	for period := 1; period <= t.TermMonths; period++ {
		interest := balance.Mul(r).Round(precision)
		principal := payment.Sub(interest)
		rowPayment := payment

		if period == t.TermMonths {
			principal = balance
			rowPayment = principal.Add(interest)
		}

		balance = balance.Sub(principal)

		schedule = append(schedule, AmortizationEntry{
			Period:           period,
			DueDate:          AddMonths(start, period),
			Payment:          rowPayment,
			Interest:         interest,
			Principal:        principal,
			RemainingBalance: balance,
		})
	}

	return schedule, nil
}

// AddMonths returns the date n calendar months after start. When start falls
// on a day the target month does not have, the last day of that month is
// used, so a loan started on Jan 31 falls due on Feb 29, Mar 31, Apr 30.
func AddMonths(start time.Time, n int) time.Time {
	y, m, d := start.Date()
	firstOfTarget := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, start.Location())
	last := firstOfTarget.AddDate(0, 1, -1).Day()
	h, mi, sec := start.Clock()
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), min(d, last), h, mi, sec, start.Nanosecond(), start.Location())
}

// compound returns (1+r)^n by repeated squaring, keeping precision+4 places
// at each step so the result is stable across long terms.
func compound(r decimal.Decimal, n int) decimal.Decimal {
	const working = precision + 4
	base := decimal.NewFromInt(1).Add(r)
	result := decimal.NewFromInt(1)
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Round(working)
		}
		base = base.Mul(base).Round(working)
		n >>= 1
	}
	return result
}

package model

import "errors"

var (
	// ErrInvalidTerms is returned for loan parameters the calculator cannot
	// amortize: non-positive principal or term, negative rate, or a term so
	// long that the payment no longer covers first-period interest.
	ErrInvalidTerms = errors.New("invalid loan terms")

	// ErrInvalidAmount is returned for a non-positive payment amount.
	ErrInvalidAmount = errors.New("invalid payment amount")

	// ErrUnknownLoan is returned when a loan id does not resolve, or when a
	// payment is replayed against a loan it does not belong to.
	ErrUnknownLoan = errors.New("unknown loan")
)

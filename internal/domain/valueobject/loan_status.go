package valueobject

import (
	"errors"
	"fmt"
)

// ErrInvalidStatusTransition is returned when a loan is asked to move to a
// status its current status cannot reach.
var ErrInvalidStatusTransition = errors.New("invalid status transition")

// ---------------------------------------------------------------------------
// LoanStatus – immutable value object
// ---------------------------------------------------------------------------

// LoanStatus is the lifecycle stage of a registered loan.
type LoanStatus struct {
	value string
}

const (
	loanStatusActive    = "active"
	loanStatusPaid      = "paid"
	loanStatusDefaulted = "defaulted"
)

var (
	LoanStatusActive    = LoanStatus{value: loanStatusActive}
	LoanStatusPaid      = LoanStatus{value: loanStatusPaid}
	LoanStatusDefaulted = LoanStatus{value: loanStatusDefaulted}
)

var validLoanStatuses = map[string]LoanStatus{
	loanStatusActive:    LoanStatusActive,
	loanStatusPaid:      LoanStatusPaid,
	loanStatusDefaulted: LoanStatusDefaulted,
}

// NewLoanStatus creates a LoanStatus from a raw string.
func NewLoanStatus(s string) (LoanStatus, error) {
	v, ok := validLoanStatuses[s]
	if !ok {
		return LoanStatus{}, fmt.Errorf("invalid loan status: %q", s)
	}
	return v, nil
}

// String returns the string representation of the status.
func (s LoanStatus) String() string { return s.value }

// IsZero returns true if the status has not been initialised.
func (s LoanStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s LoanStatus) Equal(other LoanStatus) bool { return s.value == other.value }

// IsTerminal reports whether no further transition is possible.
func (s LoanStatus) IsTerminal() bool {
	return s.value == loanStatusPaid || s.value == loanStatusDefaulted
}

// CanTransitionTo reports whether s may move to next. Only active loans move,
// and only to paid or defaulted.
func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	return s.value == loanStatusActive && next.IsTerminal()
}

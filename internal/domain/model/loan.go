package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fintrack/loanbook/internal/domain/event"
	"github.com/fintrack/loanbook/internal/domain/valueobject"
	"github.com/fintrack/loanbook/pkg/events"
)

// ---------------------------------------------------------------------------
// Loan aggregate root
// ---------------------------------------------------------------------------

// Loan is an immutable aggregate. Its terms never change after registration;
// a correction is a new loan. State transitions return a new copy.
type Loan struct {
	startDate      time.Time
	createdAt      time.Time
	updatedAt      time.Time
	id             string
	ownerID        string
	lender         string
	terms          Terms
	monthlyPayment decimal.Decimal
	category       valueobject.LoanCategory
	status         valueobject.LoanStatus
	domainEvents   []events.DomainEvent
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NewLoan registers a loan owned by ownerID. The loan starts active and
// raises LoanRegistered.
func NewLoan(
	ownerID string,
	terms Terms,
	lender string,
	category valueobject.LoanCategory,
	startDate, now time.Time,
) (Loan, error) {
	if ownerID == "" {
		return Loan{}, errors.New("owner ID is required")
	}
	lender = strings.TrimSpace(lender)
	if lender == "" {
		return Loan{}, fmt.Errorf("%w: lender is required", ErrInvalidTerms)
	}
	if category.IsZero() {
		return Loan{}, fmt.Errorf("%w: category is required", ErrInvalidTerms)
	}
	if startDate.IsZero() {
		return Loan{}, fmt.Errorf("%w: start date is required", ErrInvalidTerms)
	}

	payment, err := MonthlyPayment(terms)
	if err != nil {
		return Loan{}, err
	}

	loan := Loan{
		id:             uuid.New().String(),
		ownerID:        ownerID,
		terms:          terms,
		lender:         lender,
		category:       category,
		startDate:      truncateToDate(startDate),
		status:         valueobject.LoanStatusActive,
		monthlyPayment: payment,
		createdAt:      now.UTC(),
		updatedAt:      now.UTC(),
	}
	loan.domainEvents = append(loan.domainEvents, event.NewLoanRegistered(
		loan.id, ownerID,
		terms.Principal, terms.AnnualRatePercent, payment,
		terms.TermMonths, lender, category.String(),
		loan.startDate, now,
	))
	return loan, nil
}

// ReconstructLoan rebuilds a Loan aggregate from persistence. The monthly
// payment is derived, never stored, so it is recomputed here.
func ReconstructLoan(
	id, ownerID string,
	terms Terms,
	lender string,
	category valueobject.LoanCategory,
	status valueobject.LoanStatus,
	startDate, createdAt, updatedAt time.Time,
) (Loan, error) {
	payment, err := MonthlyPayment(terms)
	if err != nil {
		return Loan{}, fmt.Errorf("reconstruct loan %s: %w", id, err)
	}
	return Loan{
		id:             id,
		ownerID:        ownerID,
		terms:          terms,
		lender:         lender,
		category:       category,
		status:         status,
		monthlyPayment: payment,
		startDate:      truncateToDate(startDate),
		createdAt:      createdAt.UTC(),
		updatedAt:      updatedAt.UTC(),
	}, nil
}

// ---------------------------------------------------------------------------
// State transitions
// ---------------------------------------------------------------------------

// MarkPaid moves an active loan to paid once reconciliation shows a zero
// balance.
func (l Loan) MarkPaid(result ReconciliationResult, now time.Time) (Loan, error) {
	if !l.status.CanTransitionTo(valueobject.LoanStatusPaid) {
		return l, valueobject.ErrInvalidStatusTransition
	}
	if !result.IsSettled() {
		return l, fmt.Errorf("%w: balance %s still outstanding", valueobject.ErrInvalidStatusTransition, result.OutstandingBalance)
	}
	next := l
	next.status = valueobject.LoanStatusPaid
	next.updatedAt = now.UTC()
	next.domainEvents = copyEvents(l.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewLoanPaidOff(
		l.id, l.ownerID, result.TotalPaid, result.TotalInterestPaid, now,
	))
	return next, nil
}

// MarkDefaulted records an external default decision. Only active loans can
// default.
func (l Loan) MarkDefaulted(outstanding decimal.Decimal, reason string, now time.Time) (Loan, error) {
	if !l.status.CanTransitionTo(valueobject.LoanStatusDefaulted) {
		return l, valueobject.ErrInvalidStatusTransition
	}
	next := l
	next.status = valueobject.LoanStatusDefaulted
	next.updatedAt = now.UTC()
	next.domainEvents = copyEvents(l.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewLoanDefaulted(l.id, l.ownerID, outstanding, reason, now))
	return next, nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (l Loan) ID() string { return l.id }
func (l Loan) OwnerID() string { return l.ownerID }
func (l Loan) Terms() Terms { return l.terms }
func (l Loan) Principal() decimal.Decimal { return l.terms.Principal }
func (l Loan) AnnualRatePercent() decimal.Decimal { return l.terms.AnnualRatePercent }
func (l Loan) TermMonths() int { return l.terms.TermMonths }
func (l Loan) Lender() string { return l.lender }
func (l Loan) Category() valueobject.LoanCategory { return l.category }
func (l Loan) Status() valueobject.LoanStatus { return l.status }
func (l Loan) StartDate() time.Time { return l.startDate }
func (l Loan) CreatedAt() time.Time { return l.createdAt }
func (l Loan) UpdatedAt() time.Time { return l.updatedAt }
func (l Loan) DomainEvents() []events.DomainEvent { return l.domainEvents }

// MonthlyPayment returns the derived periodic payment at full precision.
func (l Loan) MonthlyPayment() decimal.Decimal { return l.monthlyPayment }

// Schedule returns the loan's amortization schedule.
func (l Loan) Schedule() (Schedule, error) { return Amortize(l.terms, l.startDate) }

// ClearEvents returns a copy with an empty event list.
func (l Loan) ClearEvents() Loan {
	next := l
	next.domainEvents = nil
	return next
}

func copyEvents(src []events.DomainEvent) []events.DomainEvent {
	return slices.Clone(src)
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

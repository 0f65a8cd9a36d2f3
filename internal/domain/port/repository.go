package port

import (
	"context"
	"time"

	"github.com/fintrack/loanbook/internal/domain/model"
	"github.com/fintrack/loanbook/internal/domain/valueobject"
	"github.com/fintrack/loanbook/pkg/events"
)

// ---------------------------------------------------------------------------
// Repository ports (driven/secondary adapters)
// ---------------------------------------------------------------------------

// LoanRepository persists and retrieves loans. Lookups are scoped to the
// owning user; a loan owned by someone else is reported as model.ErrUnknownLoan.
type LoanRepository interface {
	// Save inserts a new loan or updates the status of an existing one.
	// Terms are never rewritten.
	Save(ctx context.Context, loan model.Loan) error
	// Transition stores loan's status only if the stored status is still
	// from. A loan that has already moved on yields
	// valueobject.ErrInvalidStatusTransition, so of two concurrent
	// transitions exactly one wins.
	Transition(ctx context.Context, loan model.Loan, from valueobject.LoanStatus) error
	FindByID(ctx context.Context, ownerID, id string) (model.Loan, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Loan, error)
	// Delete removes the loan and its whole payment ledger atomically and
	// returns the number of payments removed.
	Delete(ctx context.Context, ownerID, id string) (int, error)
}

// PaymentLedger is the append-only, per-loan payment log. It applies no
// schedule logic.
type PaymentLedger interface {
	// Record appends p and returns it with its ledger sequence assigned.
	// It fails with model.ErrUnknownLoan if the loan does not exist.
	Record(ctx context.Context, p model.Payment) (model.Payment, error)
	// ListFor returns the loan's payments ordered by (paid_at, sequence).
	ListFor(ctx context.Context, loanID string) ([]model.Payment, error)
	// ListForLoans is ListFor for several loans in one round trip. Loans
	// without payments are absent from the map.
	ListForLoans(ctx context.Context, loanIDs []string) (map[string][]model.Payment, error)
}

// ---------------------------------------------------------------------------
// Event publisher port
// ---------------------------------------------------------------------------

// EventPublisher publishes domain events to external consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...events.DomainEvent) error
}

// ---------------------------------------------------------------------------
// Idempotency port
// ---------------------------------------------------------------------------

// IdempotencyStore remembers which payment a client-supplied idempotency key
// produced, so a retried request does not append a second payment.
type IdempotencyStore interface {
	// Reserve claims key for ttl. It returns false if the key is already
	// claimed or completed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Lookup returns the payment id stored for key, or "" while the
	// original request is still in flight.
	Lookup(ctx context.Context, key string) (string, error)
	// Complete binds key to paymentID for ttl.
	Complete(ctx context.Context, key, paymentID string, ttl time.Duration) error
	// Release drops a reservation whose request failed.
	Release(ctx context.Context, key string) error
}

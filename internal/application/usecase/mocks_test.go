package usecase_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/loanbook/internal/domain/model"
	"github.com/fintrack/loanbook/internal/domain/valueobject"
	"github.com/fintrack/loanbook/pkg/events"
	"github.com/fintrack/loanbook/pkg/money"
)

var (
	usd       = money.USD
	testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func activeLoan(t *testing.T, owner, principal, rate string, months int) model.Loan {
	t.Helper()
	terms, err := model.NewTerms(dec(principal), dec(rate), months)
	require.NoError(t, err)
	loan, err := model.NewLoan(owner, terms, "Acme Bank", valueobject.LoanCategoryPersonal, testStart, testStart)
	require.NoError(t, err)
	return loan.ClearEvents()
}

func payment(t *testing.T, loan model.Loan, seq int64, amount string) model.Payment {
	t.Helper()
	p, err := model.NewPayment(loan.ID(), dec(amount), testStart.AddDate(0, int(seq), 0))
	require.NoError(t, err)
	return p.WithSequence(seq)
}

// ---------------------------------------------------------------------------
// LoanRepository
// ---------------------------------------------------------------------------

type mockLoanRepository struct {
	saveFunc        func(ctx context.Context, loan model.Loan) error
	transitionFunc  func(ctx context.Context, loan model.Loan, from valueobject.LoanStatus) error
	findByIDFunc    func(ctx context.Context, ownerID, id string) (model.Loan, error)
	listByOwnerFunc func(ctx context.Context, ownerID string) ([]model.Loan, error)
	deleteFunc      func(ctx context.Context, ownerID, id string) (int, error)
	savedLoans      []model.Loan
	deletedIDs      []string
}

func (m *mockLoanRepository) Save(ctx context.Context, loan model.Loan) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, loan)
	}
	m.savedLoans = append(m.savedLoans, loan)
	return nil
}

func (m *mockLoanRepository) Transition(ctx context.Context, loan model.Loan, from valueobject.LoanStatus) error {
	if m.transitionFunc != nil {
		return m.transitionFunc(ctx, loan, from)
	}
	m.savedLoans = append(m.savedLoans, loan)
	return nil
}

func (m *mockLoanRepository) FindByID(ctx context.Context, ownerID, id string) (model.Loan, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, ownerID, id)
	}
	return model.Loan{}, fmt.Errorf("loan %s: %w", id, model.ErrUnknownLoan)
}

func (m *mockLoanRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Loan, error) {
	if m.listByOwnerFunc != nil {
		return m.listByOwnerFunc(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockLoanRepository) Delete(ctx context.Context, ownerID, id string) (int, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, ownerID, id)
	}
	m.deletedIDs = append(m.deletedIDs, id)
	return 0, nil
}

func findReturning(loan model.Loan) func(context.Context, string, string) (model.Loan, error) {
	return func(_ context.Context, ownerID, id string) (model.Loan, error) {
		if id != loan.ID() || ownerID != loan.OwnerID() {
			return model.Loan{}, model.ErrUnknownLoan
		}
		return loan, nil
	}
}

// ---------------------------------------------------------------------------
// PaymentLedger
// ---------------------------------------------------------------------------

// mockPaymentLedger appends in memory unless a func override is set.
type mockPaymentLedger struct {
	recordFunc       func(ctx context.Context, p model.Payment) (model.Payment, error)
	listForFunc      func(ctx context.Context, loanID string) ([]model.Payment, error)
	listForLoansFunc func(ctx context.Context, loanIDs []string) (map[string][]model.Payment, error)
	payments         map[string][]model.Payment
	seq              int64
}

func (m *mockPaymentLedger) Record(ctx context.Context, p model.Payment) (model.Payment, error) {
	if m.recordFunc != nil {
		return m.recordFunc(ctx, p)
	}
	if m.payments == nil {
		m.payments = make(map[string][]model.Payment)
	}
	m.seq++
	p = p.WithSequence(m.seq)
	m.payments[p.LoanID()] = append(m.payments[p.LoanID()], p)
	return p, nil
}

func (m *mockPaymentLedger) ListFor(ctx context.Context, loanID string) ([]model.Payment, error) {
	if m.listForFunc != nil {
		return m.listForFunc(ctx, loanID)
	}
	return model.SortLedger(m.payments[loanID]), nil
}

func (m *mockPaymentLedger) ListForLoans(ctx context.Context, loanIDs []string) (map[string][]model.Payment, error) {
	if m.listForLoansFunc != nil {
		return m.listForLoansFunc(ctx, loanIDs)
	}
	out := make(map[string][]model.Payment)
	for _, id := range loanIDs {
		if ps := m.payments[id]; len(ps) > 0 {
			out[id] = model.SortLedger(ps)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// EventPublisher
// ---------------------------------------------------------------------------

type mockEventPublisher struct {
	publishFunc     func(ctx context.Context, events ...events.DomainEvent) error
	publishedEvents []events.DomainEvent
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.publishedEvents = append(m.publishedEvents, evts...)
	return nil
}

func (m *mockEventPublisher) types() []string {
	out := make([]string, 0, len(m.publishedEvents))
	for _, e := range m.publishedEvents {
		out = append(out, e.EventType())
	}
	return out
}

// ---------------------------------------------------------------------------
// IdempotencyStore
// ---------------------------------------------------------------------------

type mockIdempotencyStore struct {
	reserveErr error
	keys       map[string]string
	released   []string
}

func (m *mockIdempotencyStore) Reserve(_ context.Context, key string, _ time.Duration) (bool, error) {
	if m.reserveErr != nil {
		return false, m.reserveErr
	}
	if m.keys == nil {
		m.keys = make(map[string]string)
	}
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = ""
	return true, nil
}

func (m *mockIdempotencyStore) Lookup(_ context.Context, key string) (string, error) {
	return m.keys[key], nil
}

func (m *mockIdempotencyStore) Complete(_ context.Context, key, paymentID string, _ time.Duration) error {
	m.keys[key] = paymentID
	return nil
}

func (m *mockIdempotencyStore) Release(_ context.Context, key string) error {
	delete(m.keys, key)
	m.released = append(m.released, key)
	return nil
}

// Package memory holds in-process adapters for the domain ports. They back
// STORAGE=memory deployments and the presentation-layer tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/fintrack/loanbook/internal/domain/model"
	"github.com/fintrack/loanbook/internal/domain/valueobject"
)

// Store implements both port.LoanRepository and port.PaymentLedger behind one
// lock, so deleting a loan and its ledger is atomic.
type Store struct {
	mu       sync.RWMutex
	loans    map[string]model.Loan
	payments map[string][]model.Payment
	order    []string
	seq      int64
}

func NewStore() *Store {
	return &Store{
		loans:    make(map[string]model.Loan),
		payments: make(map[string][]model.Payment),
	}
}

// Save inserts the loan or replaces its status. A loan id already held by a
// different owner is rejected.
func (s *Store) Save(_ context.Context, loan model.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.loans[loan.ID()]
	if ok && existing.OwnerID() != loan.OwnerID() {
		return fmt.Errorf("save loan %s: %w", loan.ID(), model.ErrUnknownLoan)
	}
	if !ok {
		s.order = append(s.order, loan.ID())
	}
	s.loans[loan.ID()] = loan.ClearEvents()
	return nil
}

func (s *Store) Transition(_ context.Context, loan model.Loan, from valueobject.LoanStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.loans[loan.ID()]
	if !ok || existing.OwnerID() != loan.OwnerID() {
		return fmt.Errorf("loan %s: %w", loan.ID(), model.ErrUnknownLoan)
	}
	if !existing.Status().Equal(from) {
		return fmt.Errorf("%w: loan %s is %s, not %s",
			valueobject.ErrInvalidStatusTransition, loan.ID(), existing.Status(), from)
	}
	s.loans[loan.ID()] = loan.ClearEvents()
	return nil
}

func (s *Store) FindByID(_ context.Context, ownerID, id string) (model.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loan, ok := s.loans[id]
	if !ok || loan.OwnerID() != ownerID {
		return model.Loan{}, fmt.Errorf("loan %s: %w", id, model.ErrUnknownLoan)
	}
	return loan, nil
}

// ListByOwner returns loans in registration order.
func (s *Store) ListByOwner(_ context.Context, ownerID string) ([]model.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Loan
	for _, id := range s.order {
		if loan := s.loans[id]; loan.OwnerID() == ownerID {
			out = append(out, loan)
		}
	}
	return out, nil
}

func (s *Store) Delete(_ context.Context, ownerID, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, ok := s.loans[id]
	if !ok || loan.OwnerID() != ownerID {
		return 0, fmt.Errorf("loan %s: %w", id, model.ErrUnknownLoan)
	}
	removed := len(s.payments[id])
	delete(s.loans, id)
	delete(s.payments, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return removed, nil
}

// ---------------------------------------------------------------------------
// PaymentLedger
// ---------------------------------------------------------------------------

func (s *Store) Record(_ context.Context, p model.Payment) (model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.loans[p.LoanID()]; !ok {
		return model.Payment{}, fmt.Errorf("loan %s: %w", p.LoanID(), model.ErrUnknownLoan)
	}
	s.seq++
	p = p.WithSequence(s.seq)
	s.payments[p.LoanID()] = append(s.payments[p.LoanID()], p)
	return p, nil
}

func (s *Store) ListFor(_ context.Context, loanID string) ([]model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.SortLedger(s.payments[loanID]), nil
}

func (s *Store) ListForLoans(_ context.Context, loanIDs []string) (map[string][]model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]model.Payment, len(loanIDs))
	for _, id := range loanIDs {
		if ps := s.payments[id]; len(ps) > 0 {
			out[id] = model.SortLedger(ps)
		}
	}
	return out, nil
}

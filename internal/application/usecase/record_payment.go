package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fintrack/loanbook/internal/application/dto"
	"github.com/fintrack/loanbook/internal/domain/event"
	"github.com/fintrack/loanbook/internal/domain/model"
	"github.com/fintrack/loanbook/internal/domain/port"
	"github.com/fintrack/loanbook/internal/domain/valueobject"
	"github.com/fintrack/loanbook/pkg/events"
	"github.com/fintrack/loanbook/pkg/money"
)

// ErrPaymentInProgress is returned when a request reuses an idempotency key
// whose original request has not finished.
var ErrPaymentInProgress = errors.New("payment with this idempotency key is still in progress")

// RecordPaymentUseCase appends a repayment to a loan's ledger and reports the
// loan's reconciled state afterwards.
type RecordPaymentUseCase struct {
	loanRepo       port.LoanRepository
	ledger         port.PaymentLedger
	publisher      port.EventPublisher
	idempotency    port.IdempotencyStore
	metrics        *Metrics
	logger         *slog.Logger
	currency       money.Currency
	idempotencyTTL time.Duration
}

// NewRecordPaymentUseCase wires dependencies. idempotency may be nil, in
// which case idempotency keys are ignored.
func NewRecordPaymentUseCase(
	loanRepo port.LoanRepository,
	ledger port.PaymentLedger,
	publisher port.EventPublisher,
	idempotency port.IdempotencyStore,
	idempotencyTTL time.Duration,
	metrics *Metrics,
	logger *slog.Logger,
	currency money.Currency,
) *RecordPaymentUseCase {
	return &RecordPaymentUseCase{
		loanRepo:       loanRepo,
		ledger:         ledger,
		publisher:      publisher,
		idempotency:    idempotency,
		idempotencyTTL: idempotencyTTL,
		metrics:        metrics,
		logger:         logger,
		currency:       currency,
	}
}

// Execute records the payment. Payments are accepted whatever the loan's
// status; an active loan whose balance reaches zero becomes paid.
func (uc *RecordPaymentUseCase) Execute(
	ctx context.Context,
	req dto.RecordPaymentRequest,
) (dto.RecordPaymentResponse, error) {
	now := time.Now().UTC()

	// 1. Retrieve the loan.
	loan, err := findLoan(ctx, uc.loanRepo, req.OwnerID, req.LoanID)
	if err != nil {
		return dto.RecordPaymentResponse{}, err
	}

	// 2. Validate the payment before claiming any idempotency key.
	paidAt := req.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}
	payment, err := model.NewPayment(loan.ID(), req.Amount, paidAt)
	if err != nil {
		return dto.RecordPaymentResponse{}, fmt.Errorf("record payment: %w", err)
	}

	// 3. Claim the idempotency key, or replay the earlier outcome.
	key := uc.idempotencyKey(req)
	if key != "" {
		reserved, err := uc.idempotency.Reserve(ctx, key, uc.idempotencyTTL)
		if err != nil {
			return dto.RecordPaymentResponse{}, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if !reserved {
			return uc.replay(ctx, loan, key)
		}
	}

	resp, err := uc.record(ctx, loan, payment, now)
	if key == "" {
		if err != nil {
			return dto.RecordPaymentResponse{}, err
		}
		return resp, nil
	}
	// Once the ledger holds the payment the key must point at it, even if a
	// later step failed, so a retry cannot append a duplicate.
	if resp.Payment.ID == "" {
		if relErr := uc.idempotency.Release(ctx, key); relErr != nil {
			uc.logger.Warn("failed to release idempotency key", "loan_id", loan.ID(), "error", relErr)
		}
		return dto.RecordPaymentResponse{}, err
	}
	if cErr := uc.idempotency.Complete(ctx, key, resp.Payment.ID, uc.idempotencyTTL); cErr != nil {
		uc.logger.Warn("failed to complete idempotency key", "loan_id", loan.ID(), "payment_id", resp.Payment.ID, "error", cErr)
	}
	if err != nil {
		return dto.RecordPaymentResponse{}, err
	}
	return resp, nil
}

func (uc *RecordPaymentUseCase) record(
	ctx context.Context,
	loan model.Loan,
	payment model.Payment,
	now time.Time,
) (dto.RecordPaymentResponse, error) {
	// 4. Append to the ledger.
	recorded, err := uc.ledger.Record(ctx, payment)
	if err != nil {
		return dto.RecordPaymentResponse{}, fmt.Errorf("record payment: %w", err)
	}
	// Returned with any later error so the caller knows the ledger changed.
	partial := dto.RecordPaymentResponse{Payment: toPaymentResponse(recorded)}

	// 5. Replay the full ledger.
	payments, err := uc.ledger.ListFor(ctx, loan.ID())
	if err != nil {
		return partial, fmt.Errorf("list payments: %w", err)
	}
	res, err := model.Reconcile(loan, payments)
	if err != nil {
		return partial, fmt.Errorf("reconcile loan: %w", err)
	}
	uc.metrics.reconciled(ctx, "record_payment", len(payments))

	pending := []events.DomainEvent{event.NewPaymentRecorded(
		loan.ID(), loan.OwnerID(), recorded.ID(),
		recorded.Amount(), res.OutstandingBalance,
		recorded.PaidAt(), now,
	)}

	// 6. Settle the loan once the balance reaches zero.
	if res.IsSettled() && loan.Status().Equal(valueobject.LoanStatusActive) {
		paid, err := loan.MarkPaid(res, now)
		if err != nil {
			return partial, fmt.Errorf("mark loan paid: %w", err)
		}
		switch err := uc.loanRepo.Transition(ctx, paid, valueobject.LoanStatusActive); {
		case err == nil:
			pending = append(pending, paid.DomainEvents()...)
			loan = paid
			uc.logger.Info("loan paid off", "loan_id", loan.ID(), "owner_id", loan.OwnerID())
		case errors.Is(err, valueobject.ErrInvalidStatusTransition):
			// A concurrent request settled or defaulted the loan first.
			current, err := uc.loanRepo.FindByID(ctx, loan.OwnerID(), loan.ID())
			if err != nil {
				return partial, fmt.Errorf("reload loan: %w", err)
			}
			loan = current
		default:
			return partial, fmt.Errorf("save loan: %w", err)
		}
	}

	// 7. Publish events.
	if err := uc.publisher.Publish(ctx, pending...); err != nil {
		return partial, fmt.Errorf("publish events: %w", err)
	}

	uc.logger.Debug("payment recorded",
		"loan_id", loan.ID(),
		"payment_id", recorded.ID(),
		"sequence", recorded.Sequence(),
		"ledger_size", len(payments),
	)

	return dto.RecordPaymentResponse{
		Payment:            toPaymentResponse(recorded),
		LoanStatus:         loan.Status().String(),
		OutstandingBalance: money.Round(res.OutstandingBalance, uc.currency),
	}, nil
}

// replay answers a retried request with the payment the key already produced.
func (uc *RecordPaymentUseCase) replay(ctx context.Context, loan model.Loan, key string) (dto.RecordPaymentResponse, error) {
	paymentID, err := uc.idempotency.Lookup(ctx, key)
	if err != nil {
		return dto.RecordPaymentResponse{}, fmt.Errorf("lookup idempotency key: %w", err)
	}
	if paymentID == "" {
		return dto.RecordPaymentResponse{}, ErrPaymentInProgress
	}

	payments, err := uc.ledger.ListFor(ctx, loan.ID())
	if err != nil {
		return dto.RecordPaymentResponse{}, fmt.Errorf("list payments: %w", err)
	}
	var original *model.Payment
	for i := range payments {
		if payments[i].ID() == paymentID {
			original = &payments[i]
			break
		}
	}
	if original == nil {
		return dto.RecordPaymentResponse{}, fmt.Errorf("idempotency key refers to payment %s not in ledger of loan %s", paymentID, loan.ID())
	}

	res, err := model.Reconcile(loan, payments)
	if err != nil {
		return dto.RecordPaymentResponse{}, fmt.Errorf("reconcile loan: %w", err)
	}
	uc.metrics.reconciled(ctx, "record_payment_replay", len(payments))

	uc.logger.Debug("payment replayed from idempotency key", "loan_id", loan.ID(), "payment_id", paymentID)
	return dto.RecordPaymentResponse{
		Payment:            toPaymentResponse(*original),
		LoanStatus:         loan.Status().String(),
		OutstandingBalance: money.Round(res.OutstandingBalance, uc.currency),
		Replayed:           true,
	}, nil
}

// idempotencyKey scopes the client key to owner and loan so two callers can
// never collide.
func (uc *RecordPaymentUseCase) idempotencyKey(req dto.RecordPaymentRequest) string {
	if uc.idempotency == nil || req.IdempotencyKey == "" {
		return ""
	}
	return "payment:" + req.OwnerID + ":" + req.LoanID + ":" + req.IdempotencyKey
}

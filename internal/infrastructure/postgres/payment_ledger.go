package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fintrack/loanbook/internal/domain/model"
	pgutil "github.com/fintrack/loanbook/pkg/postgres"
)

// PaymentLedger implements port.PaymentLedger on the payments table. Rows are
// only ever inserted; the BIGSERIAL sequence column breaks ties between
// payments sharing a timestamp.
type PaymentLedger struct {
	pool *pgxpool.Pool
}

func NewPaymentLedger(pool *pgxpool.Pool) *PaymentLedger {
	return &PaymentLedger{pool: pool}
}

// Record appends p. A missing loan surfaces as model.ErrUnknownLoan through
// the foreign key.
func (l *PaymentLedger) Record(ctx context.Context, p model.Payment) (model.Payment, error) {
	query := `
		INSERT INTO payments (id, loan_id, amount, paid_at)
		VALUES ($1, $2, $3, $4)
		RETURNING sequence
	`
	var seq int64
	err := l.pool.QueryRow(ctx, query, p.ID(), p.LoanID(), p.Amount(), p.PaidAt()).Scan(&seq)
	if pgutil.IsForeignKeyViolation(err) {
		return model.Payment{}, fmt.Errorf("loan %s: %w", p.LoanID(), model.ErrUnknownLoan)
	}
	if err != nil {
		return model.Payment{}, fmt.Errorf("insert payment: %w", err)
	}
	return p.WithSequence(seq), nil
}

func (l *PaymentLedger) ListFor(ctx context.Context, loanID string) ([]model.Payment, error) {
	query := `
		SELECT id, loan_id, amount, paid_at, sequence
		FROM payments
		WHERE loan_id = $1
		ORDER BY paid_at, sequence
	`
	rows, err := l.pool.Query(ctx, query, loanID)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var out []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (l *PaymentLedger) ListForLoans(ctx context.Context, loanIDs []string) (map[string][]model.Payment, error) {
	out := make(map[string][]model.Payment)
	if len(loanIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT id, loan_id, amount, paid_at, sequence
		FROM payments
		WHERE loan_id = ANY($1)
		ORDER BY loan_id, paid_at, sequence
	`
	rows, err := l.pool.Query(ctx, query, loanIDs)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out[p.LoanID()] = append(out[p.LoanID()], p)
	}
	return out, rows.Err()
}

func scanPayment(row pgx.Row) (model.Payment, error) {
	var (
		id, loanID string
		amount     decimal.Decimal
		paidAt     time.Time
		seq        int64
	)
	if err := row.Scan(&id, &loanID, &amount, &paidAt, &seq); err != nil {
		return model.Payment{}, fmt.Errorf("scan payment: %w", err)
	}
	return model.ReconstructPayment(id, loanID, amount, paidAt, seq), nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fintrack/loanbook/internal/domain/model"
	"github.com/fintrack/loanbook/internal/domain/valueobject"
	pgutil "github.com/fintrack/loanbook/pkg/postgres"
)

const loanColumns = `
	id, owner_id, principal, annual_rate_percent, term_months,
	lender, category, status, start_date, created_at, updated_at
`

// LoanRepo implements port.LoanRepository.
type LoanRepo struct {
	pool *pgxpool.Pool
}

// NewLoanRepo creates a new PostgreSQL-backed loan repository.
func NewLoanRepo(pool *pgxpool.Pool) *LoanRepo {
	return &LoanRepo{pool: pool}
}

// Save inserts a loan, or updates the status of one that already exists.
// Terms are written once and never touched again.
func (r *LoanRepo) Save(ctx context.Context, loan model.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			status     = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
		WHERE loans.owner_id = EXCLUDED.owner_id
	`
	tag, err := r.pool.Exec(ctx, query,
		loan.ID(), loan.OwnerID(), loan.Principal(), loan.AnnualRatePercent(), loan.TermMonths(),
		loan.Lender(), loan.Category().String(), loan.Status().String(),
		loan.StartDate(), loan.CreatedAt(), loan.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save loan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save loan %s: %w", loan.ID(), model.ErrUnknownLoan)
	}
	return nil
}

// Transition is a compare-and-set on the status column.
func (r *LoanRepo) Transition(ctx context.Context, loan model.Loan, from valueobject.LoanStatus) error {
	query := `
		UPDATE loans SET status = $1, updated_at = $2
		WHERE id = $3 AND owner_id = $4 AND status = $5
	`
	tag, err := r.pool.Exec(ctx, query,
		loan.Status().String(), loan.UpdatedAt(), loan.ID(), loan.OwnerID(), from.String(),
	)
	if err != nil {
		return fmt.Errorf("update loan status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	current, err := r.FindByID(ctx, loan.OwnerID(), loan.ID())
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: loan %s is %s, not %s",
		valueobject.ErrInvalidStatusTransition, loan.ID(), current.Status(), from)
}

// FindByID retrieves a loan owned by ownerID.
func (r *LoanRepo) FindByID(ctx context.Context, ownerID, id string) (model.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE owner_id = $1 AND id = $2`
	loan, err := scanLoanRow(r.pool.QueryRow(ctx, query, ownerID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Loan{}, fmt.Errorf("loan %s: %w", id, model.ErrUnknownLoan)
	}
	return loan, err
}

// ListByOwner returns the owner's loans, oldest first.
func (r *LoanRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE owner_id = $1 ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	defer rows.Close()

	var loans []model.Loan
	for rows.Next() {
		loan, err := scanLoanRow(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

// Delete removes the loan together with its ledger in one transaction.
func (r *LoanRepo) Delete(ctx context.Context, ownerID, id string) (int, error) {
	var removed int
	err := pgutil.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		var locked string
		err := tx.QueryRow(ctx,
			`SELECT id FROM loans WHERE owner_id = $1 AND id = $2 FOR UPDATE`, ownerID, id,
		).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("loan %s: %w", id, model.ErrUnknownLoan)
		}
		if err != nil {
			return fmt.Errorf("lock loan: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM payments WHERE loan_id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete payments: %w", err)
		}
		removed = int(tag.RowsAffected())

		if _, err := tx.Exec(ctx, `DELETE FROM loans WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete loan: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// ---------------------------------------------------------------------------
// internal helpers
// ---------------------------------------------------------------------------

type scannable interface {
	Scan(dest ...any) error
}

func scanLoanRow(s scannable) (model.Loan, error) {
	var (
		id, ownerID, lender           string
		categoryStr, statusStr        string
		principal, ratePercent        decimal.Decimal
		termMonths                    int
		startDate, createdAt, updated time.Time
	)

	err := s.Scan(
		&id, &ownerID, &principal, &ratePercent, &termMonths,
		&lender, &categoryStr, &statusStr, &startDate, &createdAt, &updated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Loan{}, err
	}
	if err != nil {
		return model.Loan{}, fmt.Errorf("scan loan: %w", err)
	}

	status, err := valueobject.NewLoanStatus(statusStr)
	if err != nil {
		return model.Loan{}, fmt.Errorf("parse loan status: %w", err)
	}
	category, err := valueobject.NewLoanCategory(categoryStr)
	if err != nil {
		return model.Loan{}, fmt.Errorf("parse loan category: %w", err)
	}
	terms := model.Terms{Principal: principal, AnnualRatePercent: ratePercent, TermMonths: termMonths}

	return model.ReconstructLoan(id, ownerID, terms, lender, category, status, startDate, createdAt, updated)
}

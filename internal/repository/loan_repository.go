package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/segyhp/credit-ledger/internal/domain"
)

const loanColumns = `id, user_id, customer_id, amount, description, due_date, status, remaining_amount, created_at, updated_at`

type loanRepository struct {
	db sqlx.ExtContext
}

// NewLoanRepository works against either *sqlx.DB or *sqlx.Tx.
func NewLoanRepository(db sqlx.ExtContext) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES (:id, :user_id, :customer_id, :amount, :description, :due_date, :status, :remaining_amount, :created_at, :updated_at)
	`
	_, err := sqlx.NamedExecContext(ctx, r.db, query, loan)
	return err
}

func (r *loanRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 AND user_id = $2`
	return r.get(ctx, query, id, userID)
}

func (r *loanRepository) GetForUpdate(ctx context.Context, id, userID uuid.UUID) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 AND user_id = $2 FOR UPDATE`
	return r.get(ctx, query, id, userID)
}

func (r *loanRepository) get(ctx context.Context, query string, args ...interface{}) (*domain.Loan, error) {
	var loan domain.Loan
	if err := sqlx.GetContext(ctx, r.db, &loan, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := r.attachRepayments(ctx, []*domain.Loan{&loan}); err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{filter.UserID}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if filter.OutstandingOnly {
		conditions = append(conditions, "remaining_amount > 0")
	}

	query := `SELECT ` + loanColumns + ` FROM loans WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY created_at DESC`
	return r.selectWithRepayments(ctx, query, args...)
}

func (r *loanRepository) ListOutstanding(ctx context.Context) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE remaining_amount > 0 ORDER BY due_date`
	return r.selectWithRepayments(ctx, query)
}

func (r *loanRepository) selectWithRepayments(ctx context.Context, query string, args ...interface{}) ([]*domain.Loan, error) {
	loans := []*domain.Loan{}
	if err := sqlx.SelectContext(ctx, r.db, &loans, query, args...); err != nil {
		return nil, err
	}
	if err := r.attachRepayments(ctx, loans); err != nil {
		return nil, err
	}
	return loans, nil
}

// attachRepayments loads the repayments of all loans in one round trip.
func (r *loanRepository) attachRepayments(ctx context.Context, loans []*domain.Loan) error {
	if len(loans) == 0 {
		return nil
	}

	ids := make([]string, 0, len(loans))
	byID := make(map[uuid.UUID]*domain.Loan, len(loans))
	for _, loan := range loans {
		ids = append(ids, loan.ID.String())
		byID[loan.ID] = loan
		loan.Repayments = []domain.Repayment{}
	}

	query := `
		SELECT loan_id, seq, amount, paid_at, notes
		FROM repayments
		WHERE loan_id = ANY($1::uuid[])
		ORDER BY loan_id, seq
	`
	var repayments []domain.Repayment
	if err := sqlx.SelectContext(ctx, r.db, &repayments, query, pq.Array(ids)); err != nil {
		return err
	}

	for _, repayment := range repayments {
		if loan, ok := byID[repayment.LoanID]; ok {
			loan.Repayments = append(loan.Repayments, repayment)
		}
	}
	return nil
}

func (r *loanRepository) AppendRepayment(ctx context.Context, repayment domain.Repayment) error {
	query := `
		INSERT INTO repayments (loan_id, seq, amount, paid_at, notes)
		VALUES (:loan_id, :seq, :amount, :paid_at, :notes)
	`
	_, err := sqlx.NamedExecContext(ctx, r.db, query, repayment)
	return err
}

func (r *loanRepository) UpdateBalance(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET remaining_amount = $3, status = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.UserID,
		loan.RemainingAmount,
		loan.Status,
		loan.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *loanRepository) UpdateStatus(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET status = $3, updated_at = $4
		WHERE id = $1 AND remaining_amount = $2
	`
	res, err := r.db.ExecContext(ctx, query, loan.ID, loan.RemainingAmount, loan.Status, loan.UpdatedAt)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrStaleBalance
		}
		return err
	}
	return nil
}

func (r *loanRepository) CountByCustomer(ctx context.Context, customerID, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM loans WHERE customer_id = $1 AND user_id = $2`
	if err := sqlx.GetContext(ctx, r.db, &count, query, customerID, userID); err != nil {
		return 0, err
	}
	return count, nil
}

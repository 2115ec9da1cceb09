package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/credit-ledger/internal/domain"
)

const customerColumns = `id, user_id, name, phone, address, trust_score, total_credit, total_repaid, created_at, updated_at`

type customerRepository struct {
	db sqlx.ExtContext
}

// NewCustomerRepository works against either *sqlx.DB or *sqlx.Tx.
func NewCustomerRepository(db sqlx.ExtContext) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES (:id, :user_id, :name, :phone, :address, :trust_score, :total_credit, :total_repaid, :created_at, :updated_at)
	`
	_, err := sqlx.NamedExecContext(ctx, r.db, query, customer)
	return err
}

func (r *customerRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 AND user_id = $2`
	return r.get(ctx, query, id, userID)
}

func (r *customerRepository) GetForUpdate(ctx context.Context, id, userID uuid.UUID) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 AND user_id = $2 FOR UPDATE`
	return r.get(ctx, query, id, userID)
}

func (r *customerRepository) get(ctx context.Context, query string, args ...interface{}) (*domain.Customer, error) {
	var customer domain.Customer
	if err := sqlx.GetContext(ctx, r.db, &customer, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) List(ctx context.Context, userID uuid.UUID) ([]*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE user_id = $1 ORDER BY created_at DESC`

	customers := []*domain.Customer{}
	if err := sqlx.SelectContext(ctx, r.db, &customers, query, userID); err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *customerRepository) UpdateProfile(ctx context.Context, customer *domain.Customer) error {
	query := `
		UPDATE customers
		SET name = :name, phone = :phone, address = :address, trust_score = :trust_score, updated_at = :updated_at
		WHERE id = :id AND user_id = :user_id
	`
	res, err := sqlx.NamedExecContext(ctx, r.db, query, customer)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *customerRepository) UpdateTotals(ctx context.Context, customer *domain.Customer) error {
	query := `
		UPDATE customers
		SET total_credit = $3, total_repaid = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		customer.ID,
		customer.UserID,
		customer.TotalCredit,
		customer.TotalRepaid,
		customer.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *customerRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

package repository

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var schema string

type sqlTx struct {
	customers CustomerRepository
	loans     LoanRepository
}

func (t *sqlTx) Customers() CustomerRepository { return t.customers }
func (t *sqlTx) Loans() LoanRepository         { return t.loans }

type sqlStore struct {
	sqlTx
	db *sqlx.DB
}

// NewStore returns the postgres-backed store.
func NewStore(db *sqlx.DB) Store {
	return &sqlStore{
		sqlTx: sqlTx{
			customers: NewCustomerRepository(db),
			loans:     NewLoanRepository(db),
		},
		db: db,
	}
}

func (s *sqlStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(&sqlTx{
		customers: NewCustomerRepository(tx),
		loans:     NewLoanRepository(tx),
	}); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/segyhp/credit-ledger/internal/domain"
)

var (
	// ErrNotFound is returned when no row matches both the id and the owning user.
	ErrNotFound = errors.New("record not found")

	// ErrStaleBalance is returned by UpdateStatus when the stored remaining
	// amount no longer matches the one the status was derived from.
	ErrStaleBalance = errors.New("remaining amount changed since read")
)

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	// Create creates a new customer
	Create(ctx context.Context, customer *domain.Customer) error

	// GetByID retrieves a customer owned by userID
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Customer, error)

	// GetForUpdate retrieves a customer and locks it until the transaction ends
	GetForUpdate(ctx context.Context, id, userID uuid.UUID) (*domain.Customer, error)

	// List retrieves all customers owned by userID, newest first
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Customer, error)

	// UpdateProfile updates name, phone, address and trust score
	UpdateProfile(ctx context.Context, customer *domain.Customer) error

	// UpdateTotals writes the ledger totals of a locked customer
	UpdateTotals(ctx context.Context, customer *domain.Customer) error

	// Delete removes a customer owned by userID
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create creates a new loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan owned by userID with its repayments
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Loan, error)

	// GetForUpdate retrieves a loan with its repayments and locks it until the transaction ends
	GetForUpdate(ctx context.Context, id, userID uuid.UUID) (*domain.Loan, error)

	// List retrieves loans matching the filter with their repayments
	List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error)

	// ListOutstanding retrieves every loan with a positive balance, across users
	ListOutstanding(ctx context.Context) ([]*domain.Loan, error)

	// AppendRepayment records a repayment entry
	AppendRepayment(ctx context.Context, repayment domain.Repayment) error

	// UpdateBalance writes remaining amount and status of a locked loan
	UpdateBalance(ctx context.Context, loan *domain.Loan) error

	// UpdateStatus writes the reconciled status of loan, only while the stored
	// remaining amount still equals loan.RemainingAmount
	UpdateStatus(ctx context.Context, loan *domain.Loan) error

	// CountByCustomer counts the loans of a customer
	CountByCustomer(ctx context.Context, customerID, userID uuid.UUID) (int, error)
}

// Tx exposes the repositories bound to one transaction.
type Tx interface {
	Customers() CustomerRepository
	Loans() LoanRepository
}

// Store is the durable store. Repositories returned directly run outside any
// transaction; WithinTx commits everything fn does, or nothing if fn fails.
type Store interface {
	Tx
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}

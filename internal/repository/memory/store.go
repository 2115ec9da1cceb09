// Package memory is a process-local Store. Transactions run one at a time
// against a staged copy of the data that replaces the committed copy only
// when the transaction function succeeds.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/segyhp/credit-ledger/internal/domain"
	"github.com/segyhp/credit-ledger/internal/repository"
)

type state struct {
	customers map[uuid.UUID]*domain.Customer
	loans     map[uuid.UUID]*domain.Loan
}

func newState() *state {
	return &state{
		customers: make(map[uuid.UUID]*domain.Customer),
		loans:     make(map[uuid.UUID]*domain.Loan),
	}
}

func (s *state) clone() *state {
	cp := newState()
	for id, c := range s.customers {
		cp.customers[id] = c.Clone()
	}
	for id, l := range s.loans {
		cp.loans[id] = l.Clone()
	}
	return cp
}

// access hides whether a repository reads committed data under the store lock
// or staged data owned by a running transaction.
type access interface {
	read(fn func(st *state))
	write(fn func(st *state) error) error
}

type Store struct {
	mu sync.RWMutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.st)
}

func (s *Store) write(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) Customers() repository.CustomerRepository { return &customerRepository{db: s} }
func (s *Store) Loans() repository.LoanRepository         { return &loanRepository{db: s} }

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := &stagedTx{st: s.st.clone()}
	if err := fn(staged); err != nil {
		return err
	}
	s.st = staged.st
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close() error                   { return nil }

type stagedTx struct {
	st *state
}

func (t *stagedTx) read(fn func(st *state))              { fn(t.st) }
func (t *stagedTx) write(fn func(st *state) error) error { return fn(t.st) }

func (t *stagedTx) Customers() repository.CustomerRepository { return &customerRepository{db: t} }
func (t *stagedTx) Loans() repository.LoanRepository         { return &loanRepository{db: t} }

type customerRepository struct {
	db access
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	return r.db.write(func(st *state) error {
		st.customers[customer.ID] = customer.Clone()
		return nil
	})
}

func (r *customerRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Customer, error) {
	var found *domain.Customer
	r.db.read(func(st *state) {
		if c, ok := st.customers[id]; ok && c.UserID == userID {
			found = c.Clone()
		}
	})
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (r *customerRepository) GetForUpdate(ctx context.Context, id, userID uuid.UUID) (*domain.Customer, error) {
	return r.GetByID(ctx, id, userID)
}

func (r *customerRepository) List(ctx context.Context, userID uuid.UUID) ([]*domain.Customer, error) {
	customers := []*domain.Customer{}
	r.db.read(func(st *state) {
		for _, c := range st.customers {
			if c.UserID == userID {
				customers = append(customers, c.Clone())
			}
		}
	})
	sort.Slice(customers, func(i, j int) bool {
		return customers[i].CreatedAt.After(customers[j].CreatedAt)
	})
	return customers, nil
}

func (r *customerRepository) UpdateProfile(ctx context.Context, customer *domain.Customer) error {
	return r.db.write(func(st *state) error {
		existing, ok := st.customers[customer.ID]
		if !ok || existing.UserID != customer.UserID {
			return repository.ErrNotFound
		}
		existing.Name = customer.Name
		existing.Phone = customer.Phone
		existing.Address = customer.Address
		existing.TrustScore = customer.TrustScore
		existing.UpdatedAt = customer.UpdatedAt
		return nil
	})
}

func (r *customerRepository) UpdateTotals(ctx context.Context, customer *domain.Customer) error {
	return r.db.write(func(st *state) error {
		existing, ok := st.customers[customer.ID]
		if !ok || existing.UserID != customer.UserID {
			return repository.ErrNotFound
		}
		existing.TotalCredit = customer.TotalCredit
		existing.TotalRepaid = customer.TotalRepaid
		existing.UpdatedAt = customer.UpdatedAt
		return nil
	})
}

func (r *customerRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return r.db.write(func(st *state) error {
		existing, ok := st.customers[id]
		if !ok || existing.UserID != userID {
			return repository.ErrNotFound
		}
		delete(st.customers, id)
		return nil
	})
}

type loanRepository struct {
	db access
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	return r.db.write(func(st *state) error {
		if _, ok := st.customers[loan.CustomerID]; !ok {
			return repository.ErrNotFound
		}
		stored := loan.Clone()
		if stored.Repayments == nil {
			stored.Repayments = []domain.Repayment{}
		}
		st.loans[loan.ID] = stored
		return nil
	})
}

func (r *loanRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Loan, error) {
	var found *domain.Loan
	r.db.read(func(st *state) {
		if l, ok := st.loans[id]; ok && l.UserID == userID {
			found = l.Clone()
		}
	})
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (r *loanRepository) GetForUpdate(ctx context.Context, id, userID uuid.UUID) (*domain.Loan, error) {
	return r.GetByID(ctx, id, userID)
}

func (r *loanRepository) List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	loans := []*domain.Loan{}
	r.db.read(func(st *state) {
		for _, l := range st.loans {
			if l.UserID != filter.UserID {
				continue
			}
			if filter.CustomerID != nil && l.CustomerID != *filter.CustomerID {
				continue
			}
			if filter.OutstandingOnly && !l.RemainingAmount.IsPositive() {
				continue
			}
			loans = append(loans, l.Clone())
		}
	})
	sort.Slice(loans, func(i, j int) bool {
		return loans[i].CreatedAt.After(loans[j].CreatedAt)
	})
	return loans, nil
}

func (r *loanRepository) ListOutstanding(ctx context.Context) ([]*domain.Loan, error) {
	loans := []*domain.Loan{}
	r.db.read(func(st *state) {
		for _, l := range st.loans {
			if l.RemainingAmount.IsPositive() {
				loans = append(loans, l.Clone())
			}
		}
	})
	sort.Slice(loans, func(i, j int) bool {
		return loans[i].DueDate.Before(loans[j].DueDate)
	})
	return loans, nil
}

func (r *loanRepository) AppendRepayment(ctx context.Context, repayment domain.Repayment) error {
	return r.db.write(func(st *state) error {
		loan, ok := st.loans[repayment.LoanID]
		if !ok {
			return repository.ErrNotFound
		}
		loan.Repayments = append(loan.Repayments, repayment)
		return nil
	})
}

func (r *loanRepository) UpdateBalance(ctx context.Context, loan *domain.Loan) error {
	return r.db.write(func(st *state) error {
		existing, ok := st.loans[loan.ID]
		if !ok || existing.UserID != loan.UserID {
			return repository.ErrNotFound
		}
		existing.RemainingAmount = loan.RemainingAmount
		existing.Status = loan.Status
		existing.UpdatedAt = loan.UpdatedAt
		return nil
	})
}

func (r *loanRepository) UpdateStatus(ctx context.Context, loan *domain.Loan) error {
	return r.db.write(func(st *state) error {
		existing, ok := st.loans[loan.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if !existing.RemainingAmount.Equal(loan.RemainingAmount) {
			return repository.ErrStaleBalance
		}
		existing.Status = loan.Status
		existing.UpdatedAt = loan.UpdatedAt
		return nil
	})
}

func (r *loanRepository) CountByCustomer(ctx context.Context, customerID, userID uuid.UUID) (int, error) {
	count := 0
	r.db.read(func(st *state) {
		for _, l := range st.loans {
			if l.CustomerID == customerID && l.UserID == userID {
				count++
			}
		}
	})
	return count, nil
}

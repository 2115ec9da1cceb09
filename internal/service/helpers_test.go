package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/segyhp/credit-ledger/internal/cache"
	"github.com/segyhp/credit-ledger/internal/domain"
	"github.com/segyhp/credit-ledger/internal/mocks"
	"github.com/segyhp/credit-ledger/internal/repository"
	"github.com/segyhp/credit-ledger/internal/repository/memory"
	"github.com/segyhp/credit-ledger/internal/service"
	"github.com/segyhp/credit-ledger/pkg/clock"
)

var today = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

var errDisk = errors.New("disk full")

type fixture struct {
	store     repository.Store
	clock     *clock.Fixed
	customers *service.CustomerService
	loans     *service.LoanService
	notifier  *mocks.MockNotifier
	receipts  *mocks.MockRenderer
	userID    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithStore(t, memory.NewStore(), cache.NopSummaryCache{})
}

func newFixtureWithStore(t *testing.T, store repository.Store, summaries cache.SummaryCache) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	clk := clock.NewFixed(today)
	v := service.NewValidator()
	n := &mocks.MockNotifier{}
	r := &mocks.MockRenderer{}

	return &fixture{
		store:     store,
		clock:     clk,
		customers: service.NewCustomerService(store, v, clk, logger),
		loans: service.NewLoanService(store, summaries, n, r, v, clk, logger, service.LoanOptions{
			ShopName:         "Kirana Corner",
			CurrencySymbol:   "Rs.",
			ReminderLeadDays: 2,
		}),
		notifier: n,
		receipts: r,
		userID:   uuid.New(),
	}
}

func (f *fixture) customer(t *testing.T) *domain.Customer {
	t.Helper()
	c, err := f.customers.CreateCustomer(context.Background(), f.userID, &domain.CreateCustomerRequest{
		Name:  "Asha",
		Phone: "+919876543210",
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) loan(t *testing.T, customerID uuid.UUID, amount int64, dueInDays int) *domain.Loan {
	t.Helper()
	l, err := f.loans.CreateLoan(context.Background(), f.userID, &domain.CreateLoanRequest{
		CustomerID: customerID,
		Amount:     decimal.NewFromInt(amount),
		DueDate:    domain.Date{Time: today.AddDate(0, 0, dueInDays)},
	})
	require.NoError(t, err)
	return l
}

func (f *fixture) repay(t *testing.T, loanID uuid.UUID, amount int64) *domain.Loan {
	t.Helper()
	resp, err := f.loans.RecordRepayment(context.Background(), f.userID, loanID, &domain.RecordRepaymentRequest{
		Amount: decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	return resp.Loan
}

// faultyStore fails the customer totals write inside transactions.
type faultyStore struct {
	*memory.Store
}

func (s faultyStore) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.Store.WithinTx(ctx, func(tx repository.Tx) error {
		return fn(faultyTx{Tx: tx})
	})
}

type faultyTx struct {
	repository.Tx
}

func (t faultyTx) Customers() repository.CustomerRepository {
	return faultyCustomers{CustomerRepository: t.Tx.Customers()}
}

type faultyCustomers struct {
	repository.CustomerRepository
}

func (faultyCustomers) UpdateTotals(context.Context, *domain.Customer) error {
	return errDisk
}

// countingCache records invalidations and always computes.
type countingCache struct {
	cache.NopSummaryCache
	invalidated []uuid.UUID
}

func (c *countingCache) Invalidate(_ context.Context, userID uuid.UUID) error {
	c.invalidated = append(c.invalidated, userID)
	return nil
}

// racingStore runs afterList once, right after ListOutstanding has read
// its snapshot.
type racingStore struct {
	*memory.Store
	afterList func()
}

func (s *racingStore) Loans() repository.LoanRepository {
	return racingLoans{LoanRepository: s.Store.Loans(), store: s}
}

type racingLoans struct {
	repository.LoanRepository
	store *racingStore
}

func (l racingLoans) ListOutstanding(ctx context.Context) ([]*domain.Loan, error) {
	loans, err := l.LoanRepository.ListOutstanding(ctx)
	if fn := l.store.afterList; fn != nil {
		l.store.afterList = nil
		fn()
	}
	return loans, err
}

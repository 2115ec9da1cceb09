package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/credit-ledger/internal/domain"
	"github.com/segyhp/credit-ledger/internal/ledger"
	"github.com/segyhp/credit-ledger/internal/notifier"
	"github.com/segyhp/credit-ledger/internal/receipt"
	"github.com/segyhp/credit-ledger/internal/repository/memory"
	"github.com/segyhp/credit-ledger/internal/service"
	customError "github.com/segyhp/credit-ledger/pkg/errors"
)

func TestCreateLoan_Success(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t)

	loan, err := f.loans.CreateLoan(context.Background(), f.userID, &domain.CreateLoanRequest{
		CustomerID:      c.ID,
		Amount:          decimal.NewFromInt(500),
		DueDate:         domain.Date{Time: today.AddDate(0, 0, 30)},
		Description:     "groceries",
		RemainingAmount: ptr(decimal.NewFromInt(1)),
	})
	require.NoError(t, err)

	assert.True(t, loan.RemainingAmount.Equal(decimal.NewFromInt(500)), "remaining is forced to amount")
	assert.Equal(t, domain.LoanStatusPending, loan.Status)

	stored, err := f.customers.GetCustomer(context.Background(), f.userID, c.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalCredit.Equal(decimal.NewFromInt(500)))
	assert.True(t, stored.TotalRepaid.IsZero())
}

func TestCreateLoan_Failures(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t)
	other := newFixture(t)
	foreign := other.customer(t)

	tests := []struct {
		name          string
		req           *domain.CreateLoanRequest
		expectedError error
	}{
		{
			name:          "zero amount",
			req:           &domain.CreateLoanRequest{CustomerID: c.ID, Amount: decimal.Zero, DueDate: domain.Date{Time: today}},
			expectedError: customError.ErrInvalidAmount,
		},
		{
			name:          "missing due date",
			req:           &domain.CreateLoanRequest{CustomerID: c.ID, Amount: decimal.NewFromInt(10)},
			expectedError: customError.ErrValidationFailed,
		},
		{
			name:          "missing customer id",
			req:           &domain.CreateLoanRequest{Amount: decimal.NewFromInt(10), DueDate: domain.Date{Time: today}},
			expectedError: customError.ErrValidationFailed,
		},
		{
			name:          "unknown customer",
			req:           &domain.CreateLoanRequest{CustomerID: uuid.New(), Amount: decimal.NewFromInt(10), DueDate: domain.Date{Time: today}},
			expectedError: customError.ErrNotFound,
		},
		{
			name:          "customer of another user",
			req:           &domain.CreateLoanRequest{CustomerID: foreign.ID, Amount: decimal.NewFromInt(10), DueDate: domain.Date{Time: today}},
			expectedError: customError.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan, err := f.loans.CreateLoan(context.Background(), f.userID, tt.req)
			assert.ErrorIs(t, err, tt.expectedError)
			assert.Nil(t, loan)
		})
	}

	loans, err := f.loans.ListLoans(context.Background(), f.userID, service.ListLoansQuery{})
	require.NoError(t, err)
	assert.Empty(t, loans)
}

func TestCreateLoan_NoPartialCommit(t *testing.T) {
	store := faultyStore{Store: memory.NewStore()}
	f := newFixtureWithStore(t, store, &countingCache{})
	c := f.customer(t)

	_, err := f.loans.CreateLoan(context.Background(), f.userID, &domain.CreateLoanRequest{
		CustomerID: c.ID,
		Amount:     decimal.NewFromInt(100),
		DueDate:    domain.Date{Time: today.AddDate(0, 0, 7)},
	})
	assert.ErrorIs(t, err, customError.ErrPersistenceFailure)
	assert.Equal(t, customError.ErrCodePersistenceFailure, customError.Code(err))

	loans, err := f.loans.ListLoans(context.Background(), f.userID, service.ListLoansQuery{})
	require.NoError(t, err)
	assert.Empty(t, loans, "loan must not be visible after a failed transaction")
}

func TestRecordRepayment_UpdatesLoanAndCustomer(t *testing.T) {
	summaries := &countingCache{}
	f := newFixtureWithStore(t, memory.NewStore(), summaries)
	c := f.customer(t)
	loan := f.loan(t, c.ID, 100, 10)

	f.clock.Advance(48 * time.Hour)
	resp, err := f.loans.RecordRepayment(context.Background(), f.userID, loan.ID, &domain.RecordRepaymentRequest{
		Amount: decimal.NewFromInt(40),
		Notes:  "cash",
	})
	require.NoError(t, err)

	assert.True(t, resp.Loan.RemainingAmount.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, domain.LoanStatusPending, resp.Loan.Status)
	require.Len(t, resp.Loan.Repayments, 1)
	assert.Equal(t, "cash", resp.Loan.Repayments[0].Notes)
	assert.Equal(t, today.Add(48*time.Hour), resp.Loan.Repayments[0].Date)
	assert.Empty(t, resp.ReceiptPath)

	stored, err := f.loans.GetLoan(context.Background(), f.userID, loan.ID)
	require.NoError(t, err)
	assert.True(t, stored.RemainingAmount.Equal(decimal.NewFromInt(60)))
	require.Len(t, stored.Repayments, 1)

	customer, err := f.customers.GetCustomer(context.Background(), f.userID, c.ID)
	require.NoError(t, err)
	assert.True(t, customer.TotalCredit.Equal(decimal.NewFromInt(100)))
	assert.True(t, customer.TotalRepaid.Equal(decimal.NewFromInt(40)))

	assert.Contains(t, summaries.invalidated, f.userID)
}

func TestRecordRepayment_OverpaymentFloorsAtZero(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t)
	loan := f.loan(t, c.ID, 100, -5)
	assert.Equal(t, domain.LoanStatusOverdue, loan.Status)

	paid := f.repay(t, loan.ID, 150)

	assert.True(t, paid.RemainingAmount.IsZero())
	assert.Equal(t, domain.LoanStatusPaid, paid.Status)

	customer, err := f.customers.GetCustomer(context.Background(), f.userID, c.ID)
	require.NoError(t, err)
	assert.True(t, customer.TotalRepaid.Equal(decimal.NewFromInt(150)), "the full repayment amount is counted")
}

func TestRecordRepayment_Failures(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t)
	loan := f.loan(t, c.ID, 100, 10)
	other := uuid.New()

	tests := []struct {
		name          string
		userID        uuid.UUID
		loanID        uuid.UUID
		amount        decimal.Decimal
		expectedError error
	}{
		{"zero amount", f.userID, loan.ID, decimal.Zero, customError.ErrInvalidAmount},
		{"negative amount", f.userID, loan.ID, decimal.NewFromInt(-5), customError.ErrInvalidAmount},
		{"unknown loan", f.userID, uuid.New(), decimal.NewFromInt(5), customError.ErrNotFound},
		{"loan of another user", other, loan.ID, decimal.NewFromInt(5), customError.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.loans.RecordRepayment(context.Background(), tt.userID, tt.loanID, &domain.RecordRepaymentRequest{Amount: tt.amount})
			assert.ErrorIs(t, err, tt.expectedError)
			assert.Nil(t, resp)
		})
	}

	stored, err := f.loans.GetLoan(context.Background(), f.userID, loan.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Repayments)
	assert.True(t, stored.RemainingAmount.Equal(decimal.NewFromInt(100)))
}

func TestRecordRepayment_NoPartialCommit(t *testing.T) {
	base := memory.NewStore()
	good := newFixtureWithStore(t, base, &countingCache{})
	c := good.customer(t)
	loan := good.loan(t, c.ID, 100, 10)

	bad := newFixtureWithStore(t, faultyStore{Store: base}, &countingCache{})
	_, err := bad.loans.RecordRepayment(context.Background(), good.userID, loan.ID, &domain.RecordRepaymentRequest{
		Amount: decimal.NewFromInt(30),
	})
	assert.ErrorIs(t, err, customError.ErrPersistenceFailure)

	stored, err := good.loans.GetLoan(context.Background(), good.userID, loan.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Repayments)
	assert.True(t, stored.RemainingAmount.Equal(decimal.NewFromInt(100)))

	customer, err := good.customers.GetCustomer(context.Background(), good.userID, c.ID)
	require.NoError(t, err)
	assert.True(t, customer.TotalRepaid.IsZero())
}

func TestRecordRepayment_WithReceipt(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t)
	loan := f.loan(t, c.ID, 100, 10)

	f.receipts.On("Render", mock.Anything, mock.MatchedBy(func(in receipt.Input) bool {
		return in.LoanID == loan.ID &&
			in.Index == 0 &&
			in.ShopName == "Kirana Corner" &&
			in.CustomerName == "Asha" &&
			in.AmountPaid.Equal(decimal.NewFromInt(25)) &&
			in.Remaining.Equal(decimal.NewFromInt(75))
	})).Return("/tmp/receipt.pdf", nil).Once()

	resp, err := f.loans.RecordRepayment(context.Background(), f.userID, loan.ID, &domain.RecordRepaymentRequest{
		Amount:       decimal.NewFromInt(25),
		IssueReceipt: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/receipt.pdf", resp.ReceiptPath)
	f.receipts.AssertExpectations(t)
}

func TestRecordRepayment_ReceiptFailureKeepsRepayment(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t)
	loan := f.loan(t, c.ID, 100, 10)

	f.receipts.On("Render", mock.Anything, mock.Anything).Return("", errors.New("font missing")).Once()

	resp, err := f.loans.RecordRepayment(context.Background(), f.userID, loan.ID, &domain.RecordRepaymentRequest{
		Amount:       decimal.NewFromInt(25),
		IssueReceipt: true,
	})
	assert.ErrorIs(t, err, customError.ErrReceiptFailed)
	require.NotNil(t, resp)
	assert.True(t, resp.Loan.RemainingAmount.Equal(decimal.NewFromInt(75)))

	stored, err := f.loans.GetLoan(context.Background(), f.userID, loan.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Repayments, 1, "repayment stays committed")
}

func TestGetLoan_ReconcilesAndPersists(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t)
	loan := f.loan(t, c.ID, 100, 1)
	assert.Equal(t, domain.LoanStatusPending, loan.Status)

	f.clock.Advance(72 * time.Hour)

	got, err := f.loans.GetLoan(context.Background(), f.userID, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusOverdue, got.Status)

	raw, err := f.store.Loans().GetByID(context.Background(), loan.ID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusOverdue, raw.Status, "changed status is persisted")
}

func TestGetLoan_NotFound(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t)
	loan := f.loan(t, c.ID, 100, 1)

	_, err := f.loans.GetLoan(context.Background(), uuid.New(), loan.ID)
	assert.ErrorIs(t, err, customError.ErrNotFound)
}

func TestListLoans_Filters(t *testing.T) {
	f := newFixture(t)
	c1 := f.customer(t)
	c2 := f.customer(t)

	pending := f.loan(t, c1.ID, 100, 10)
	overdueSoon := f.loan(t, c1.ID, 50, 1)
	paid := f.loan(t, c2.ID, 30, 10)
	f.repay(t, paid.ID, 30)

	f.clock.Advance(48 * time.Hour)

	status := func(s domain.LoanStatus) *domain.LoanStatus { return &s }
	ids := func(loans []*domain.Loan) []uuid.UUID {
		out := make([]uuid.UUID, 0, len(loans))
		for _, l := range loans {
			out = append(out, l.ID)
		}
		return out
	}

	all, err := f.loans.ListLoans(context.Background(), f.userID, service.ListLoansQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	overdue, err := f.loans.ListLoans(context.Background(), f.userID, service.ListLoansQuery{Status: status(domain.LoanStatusOverdue)})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{overdueSoon.ID}, ids(overdue), "filter applies to the derived status")

	byCustomer, err := f.loans.ListLoans(context.Background(), f.userID, service.ListLoansQuery{CustomerID: &c1.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{pending.ID, overdueSoon.ID}, ids(byCustomer))

	paidOnly, err := f.loans.ListLoans(context.Background(), f.userID, service.ListLoansQuery{Status: status(domain.LoanStatusPaid)})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{paid.ID}, ids(paidOnly))

	_, err = f.loans.ListLoans(context.Background(), f.userID, service.ListLoansQuery{Status: status("lost")})
	assert.ErrorIs(t, err, customError.ErrValidationFailed)
}

func TestGetSummary(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t)

	l1 := f.loan(t, c.ID, 100, 30)
	l2 := f.loan(t, c.ID, 200, 30)

	f.clock.Advance(5 * 24 * time.Hour)
	f.repay(t, l1.ID, 50)
	f.repay(t, l2.ID, 200)

	summary, err := f.loans.GetSummary(context.Background(), f.userID)
	require.NoError(t, err)

	assert.True(t, summary.TotalLoaned.Equal(decimal.NewFromInt(300)))
	assert.True(t, summary.TotalCollected.Equal(decimal.NewFromInt(250)))
	assert.True(t, summary.TotalPending.Equal(decimal.NewFromInt(50)))
	assert.True(t, summary.OverdueAmount.IsZero())
	assert.Equal(t, 5, summary.AvgRepaymentDays)
}

func TestGetSummary_Empty(t *testing.T) {
	f := newFixture(t)

	summary, err := f.loans.GetSummary(context.Background(), f.userID)
	require.NoError(t, err)
	assert.True(t, summary.TotalLoaned.IsZero())
	assert.True(t, summary.TotalCollected.IsZero())
	assert.True(t, summary.OverdueAmount.IsZero())
	assert.True(t, summary.TotalPending.IsZero())
	assert.Equal(t, 0, summary.AvgRepaymentDays)
}

func TestListOverdue(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t)

	late := f.loan(t, c.ID, 100, 1)
	f.loan(t, c.ID, 100, 30)
	settled := f.loan(t, c.ID, 40, 1)
	f.repay(t, settled.ID, 40)

	f.clock.Advance(48 * time.Hour)

	resp, err := f.loans.ListOverdue(context.Background(), f.userID)
	require.NoError(t, err)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, late.ID, resp.Loans[0].ID)
	assert.Equal(t, domain.LoanStatusOverdue, resp.Loans[0].Status)

	raw, err := f.store.Loans().GetByID(context.Background(), late.ID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusOverdue, raw.Status)
}

func TestIssueReceipt(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t)
	loan := f.loan(t, c.ID, 100, 10)
	f.repay(t, loan.ID, 10)
	f.repay(t, loan.ID, 20)

	f.receipts.On("Render", mock.Anything, mock.MatchedBy(func(in receipt.Input) bool {
		return in.Index == 0 &&
			in.AmountPaid.Equal(decimal.NewFromInt(10)) &&
			in.Remaining.Equal(decimal.NewFromInt(90))
	})).Return("/tmp/r0.pdf", nil).Once()
	f.receipts.On("Render", mock.Anything, mock.MatchedBy(func(in receipt.Input) bool {
		return in.Index == 1 &&
			in.AmountPaid.Equal(decimal.NewFromInt(20)) &&
			in.Remaining.Equal(decimal.NewFromInt(70))
	})).Return("/tmp/r.pdf", nil).Once()

	first, err := f.loans.IssueReceipt(context.Background(), f.userID, loan.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/r0.pdf", first.ReceiptPath)

	resp, err := f.loans.IssueReceipt(context.Background(), f.userID, loan.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/r.pdf", resp.ReceiptPath)
	assert.Equal(t, 1, resp.Index)

	_, err = f.loans.IssueReceipt(context.Background(), f.userID, loan.ID, 2)
	assert.ErrorIs(t, err, customError.ErrNotFound)

	_, err = f.loans.IssueReceipt(context.Background(), f.userID, loan.ID, -1)
	assert.ErrorIs(t, err, customError.ErrNotFound)

	f.receipts.AssertExpectations(t)
}

func TestSendReminder(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t)
	loan := f.loan(t, c.ID, 100, 3)
	f.repay(t, loan.ID, 40)

	f.notifier.On("SendReminder", mock.Anything, mock.MatchedBy(func(r notifier.Reminder) bool {
		return r.Phone == "+919876543210" &&
			r.CustomerName == "Asha" &&
			r.Amount.Equal(decimal.NewFromInt(60)) &&
			r.CurrencySymbol == "Rs."
	})).Return(nil).Once()

	delivered, err := f.loans.SendReminder(context.Background(), f.userID, loan.ID)
	require.NoError(t, err)
	assert.True(t, delivered)
	f.notifier.AssertExpectations(t)
}

func TestSendReminder_FailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t)
	loan := f.loan(t, c.ID, 100, 3)

	f.notifier.On("SendReminder", mock.Anything, mock.Anything).Return(errors.New("gateway down")).Once()

	delivered, err := f.loans.SendReminder(context.Background(), f.userID, loan.ID)
	assert.NoError(t, err)
	assert.False(t, delivered)
}

func TestSendReminder_PaidLoan(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t)
	loan := f.loan(t, c.ID, 100, 3)
	f.repay(t, loan.ID, 100)

	_, err := f.loans.SendReminder(context.Background(), f.userID, loan.ID)
	assert.ErrorIs(t, err, customError.ErrValidationFailed)
	f.notifier.AssertNotCalled(t, "SendReminder", mock.Anything, mock.Anything)
}

func TestRefreshStatuses(t *testing.T) {
	summaries := &countingCache{}
	f := newFixtureWithStore(t, memory.NewStore(), summaries)
	c := f.customer(t)

	soon := f.loan(t, c.ID, 100, 1)
	f.loan(t, c.ID, 100, 30)

	f.clock.Advance(48 * time.Hour)
	summaries.invalidated = nil

	changed, err := f.loans.RefreshStatuses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, []uuid.UUID{f.userID}, summaries.invalidated)

	raw, err := f.store.Loans().GetByID(context.Background(), soon.ID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusOverdue, raw.Status)

	again, err := f.loans.RefreshStatuses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again)
}

func TestRefreshStatuses_SkipsLoanPaidMeanwhile(t *testing.T) {
	base := memory.NewStore()
	store := &racingStore{Store: base}
	f := newFixtureWithStore(t, store, nil)
	c := f.customer(t)
	loan := f.loan(t, c.ID, 100, 1)
	f.clock.Advance(48 * time.Hour)

	// pay the loan off after the refresh has read it as overdue
	store.afterList = func() { f.repay(t, loan.ID, 100) }

	changed, err := f.loans.RefreshStatuses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, changed)

	raw, err := base.Loans().GetByID(context.Background(), loan.ID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusPaid, raw.Status)
	assert.True(t, raw.RemainingAmount.IsZero())
	assert.True(t, ledger.Consistent(raw, f.clock.Now()))
}

func TestRecordRepayment_ConcurrentRepaymentsSerialize(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t)
	loan := f.loan(t, c.ID, 500, 10)

	const workers = 50
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.loans.RecordRepayment(context.Background(), f.userID, loan.ID, &domain.RecordRepaymentRequest{
				Amount: decimal.NewFromInt(3),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := f.loans.GetLoan(context.Background(), f.userID, loan.ID)
	require.NoError(t, err)
	assert.True(t, got.RemainingAmount.Equal(decimal.NewFromInt(500-workers*3)), got.RemainingAmount.String())
	assert.Len(t, got.Repayments, workers)
	assert.True(t, ledger.Consistent(got, f.clock.Now()))

	customer, err := f.customers.GetCustomer(context.Background(), f.userID, c.ID)
	require.NoError(t, err)
	assert.True(t, customer.TotalRepaid.Equal(decimal.NewFromInt(workers*3)), customer.TotalRepaid.String())
	assert.True(t, customer.TotalCredit.Equal(decimal.NewFromInt(500)))
}

func TestSendDueReminders(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t)

	overdue := f.loan(t, c.ID, 100, -3)
	dueSoon := f.loan(t, c.ID, 80, 2)
	f.loan(t, c.ID, 60, 10)
	settled := f.loan(t, c.ID, 20, -1)
	f.repay(t, settled.ID, 20)

	var reminded []decimal.Decimal
	f.notifier.On("SendReminder", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		reminded = append(reminded, args.Get(1).(notifier.Reminder).Amount)
	}).Return(nil)

	sent, err := f.loans.SendDueReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	require.Len(t, reminded, 2)
	amounts := []string{reminded[0].String(), reminded[1].String()}
	assert.ElementsMatch(t, []string{overdue.Amount.String(), dueSoon.Amount.String()}, amounts)
}

func ptr[T any](v T) *T { return &v }

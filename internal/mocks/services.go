package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/credit-ledger/internal/domain"
	"github.com/segyhp/credit-ledger/internal/service"
)

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) CreateCustomer(ctx context.Context, userID uuid.UUID, req *domain.CreateCustomerRequest) (*domain.Customer, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerService) ListCustomers(ctx context.Context, userID uuid.UUID) ([]*domain.Customer, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Customer), args.Error(1)
}

func (m *MockCustomerService) GetCustomer(ctx context.Context, userID, customerID uuid.UUID) (*domain.Customer, error) {
	args := m.Called(ctx, userID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerService) UpdateCustomer(ctx context.Context, userID, customerID uuid.UUID, req *domain.UpdateCustomerRequest) (*domain.Customer, error) {
	args := m.Called(ctx, userID, customerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *MockCustomerService) DeleteCustomer(ctx context.Context, userID, customerID uuid.UUID) error {
	args := m.Called(ctx, userID, customerID)
	return args.Error(0)
}

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) CreateLoan(ctx context.Context, userID uuid.UUID, req *domain.CreateLoanRequest) (*domain.Loan, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanService) RecordRepayment(ctx context.Context, userID, loanID uuid.UUID, req *domain.RecordRepaymentRequest) (*domain.RepaymentResponse, error) {
	args := m.Called(ctx, userID, loanID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RepaymentResponse), args.Error(1)
}

func (m *MockLoanService) GetLoan(ctx context.Context, userID, loanID uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, userID, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanService) ListLoans(ctx context.Context, userID uuid.UUID, q service.ListLoansQuery) ([]*domain.Loan, error) {
	args := m.Called(ctx, userID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanService) GetSummary(ctx context.Context, userID uuid.UUID) (*domain.Summary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Summary), args.Error(1)
}

func (m *MockLoanService) ListOverdue(ctx context.Context, userID uuid.UUID) (*domain.OverdueResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OverdueResponse), args.Error(1)
}

func (m *MockLoanService) IssueReceipt(ctx context.Context, userID, loanID uuid.UUID, index int) (*domain.ReceiptResponse, error) {
	args := m.Called(ctx, userID, loanID, index)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReceiptResponse), args.Error(1)
}

func (m *MockLoanService) SendReminder(ctx context.Context, userID, loanID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, loanID)
	return args.Bool(0), args.Error(1)
}

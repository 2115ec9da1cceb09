package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/segyhp/credit-ledger/internal/domain"
	"github.com/segyhp/credit-ledger/internal/middleware"
	"github.com/segyhp/credit-ledger/internal/service"
	"github.com/segyhp/credit-ledger/pkg/response"
)

type CustomerService interface {
	CreateCustomer(ctx context.Context, userID uuid.UUID, req *domain.CreateCustomerRequest) (*domain.Customer, error)
	ListCustomers(ctx context.Context, userID uuid.UUID) ([]*domain.Customer, error)
	GetCustomer(ctx context.Context, userID, customerID uuid.UUID) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, userID, customerID uuid.UUID, req *domain.UpdateCustomerRequest) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, userID, customerID uuid.UUID) error
}

type LoanService interface {
	CreateLoan(ctx context.Context, userID uuid.UUID, req *domain.CreateLoanRequest) (*domain.Loan, error)
	RecordRepayment(ctx context.Context, userID, loanID uuid.UUID, req *domain.RecordRepaymentRequest) (*domain.RepaymentResponse, error)
	GetLoan(ctx context.Context, userID, loanID uuid.UUID) (*domain.Loan, error)
	ListLoans(ctx context.Context, userID uuid.UUID, q service.ListLoansQuery) ([]*domain.Loan, error)
	GetSummary(ctx context.Context, userID uuid.UUID) (*domain.Summary, error)
	ListOverdue(ctx context.Context, userID uuid.UUID) (*domain.OverdueResponse, error)
	IssueReceipt(ctx context.Context, userID, loanID uuid.UUID, index int) (*domain.ReceiptResponse, error)
	SendReminder(ctx context.Context, userID, loanID uuid.UUID) (bool, error)
}

func decodeJSON(r *http.Request, dest interface{}) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	return json.NewDecoder(r.Body).Decode(dest)
}

func userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "missing user")
	}
	return id, ok
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || index < 0 {
		response.BadRequest(w, "Invalid repayment index")
		return 0, false
	}
	return index, true
}

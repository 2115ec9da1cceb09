package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/segyhp/credit-ledger/internal/domain"
	"github.com/segyhp/credit-ledger/internal/service"
	customError "github.com/segyhp/credit-ledger/pkg/errors"
	"github.com/segyhp/credit-ledger/pkg/response"
)

type LoanHandler struct {
	service LoanService
}

func NewLoanHandler(service LoanService) *LoanHandler {
	return &LoanHandler{service: service}
}

// CreateLoan handles POST /api/v1/loans
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var req domain.CreateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	loan, err := h.service.CreateLoan(r.Context(), user, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, loan)
}

// ListLoans handles GET /api/v1/loans?status=&customer=
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var q service.ListLoansQuery
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.LoanStatus(v)
		q.Status = &status
	}
	if v := r.URL.Query().Get("customer"); v != "" {
		customerID, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(w, "Invalid customer")
			return
		}
		q.CustomerID = &customerID
	}

	loans, err := h.service.ListLoans(r.Context(), user, q)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, loans)
}

// GetSummary handles GET /api/v1/loans/summary
func (h *LoanHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	summary, err := h.service.GetSummary(r.Context(), user)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, summary)
}

// ListOverdue handles GET /api/v1/loans/overdue
func (h *LoanHandler) ListOverdue(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	overdue, err := h.service.ListOverdue(r.Context(), user)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, overdue)
}

// GetLoan handles GET /api/v1/loans/{id}
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	loan, err := h.service.GetLoan(r.Context(), user, id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, loan)
}

// RecordRepayment handles POST /api/v1/loans/{id}/repayments
func (h *LoanHandler) RecordRepayment(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req domain.RecordRepaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	resp, err := h.service.RecordRepayment(r.Context(), user, id, &req)
	if err != nil {
		if resp != nil && customError.Code(err) == customError.ErrCodeReceiptFailed {
			// The repayment is committed; only the receipt is missing.
			response.ErrorWithData(w, customError.HTTPStatus(err), customError.PublicMessage(err), customError.ErrCodeReceiptFailed, resp)
			return
		}
		response.FromError(w, err)
		return
	}

	response.Created(w, resp)
}

// IssueReceipt handles POST /api/v1/loans/{id}/repayments/{index}/receipt
func (h *LoanHandler) IssueReceipt(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}

	receipt, err := h.service.IssueReceipt(r.Context(), user, id, index)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, receipt)
}

type reminderResponse struct {
	LoanID    uuid.UUID `json:"loan_id"`
	Delivered bool      `json:"delivered"`
}

// SendReminder handles POST /api/v1/loans/{id}/reminder
func (h *LoanHandler) SendReminder(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	delivered, err := h.service.SendReminder(r.Context(), user, id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusAccepted, reminderResponse{LoanID: id, Delivered: delivered})
}

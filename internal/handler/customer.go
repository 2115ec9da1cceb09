package handler

import (
	"net/http"

	"github.com/segyhp/credit-ledger/internal/domain"
	"github.com/segyhp/credit-ledger/pkg/response"
)

type CustomerHandler struct {
	service CustomerService
}

func NewCustomerHandler(service CustomerService) *CustomerHandler {
	return &CustomerHandler{service: service}
}

// CreateCustomer handles POST /api/v1/customers
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	var req domain.CreateCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	customer, err := h.service.CreateCustomer(r.Context(), user, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, customer)
}

// ListCustomers handles GET /api/v1/customers
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	customers, err := h.service.ListCustomers(r.Context(), user)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, customers)
}

// GetCustomer handles GET /api/v1/customers/{id}
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	customer, err := h.service.GetCustomer(r.Context(), user, id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, customer)
}

// UpdateCustomer handles PUT /api/v1/customers/{id}
func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req domain.UpdateCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	customer, err := h.service.UpdateCustomer(r.Context(), user, id, &req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, customer)
}

// DeleteCustomer handles DELETE /api/v1/customers/{id}
func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteCustomer(r.Context(), user, id); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

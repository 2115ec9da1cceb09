package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/segyhp/credit-ledger/internal/middleware"
)

// NewRouter wires health probes and the authenticated /api/v1 routes.
func NewRouter(
	customers *CustomerHandler,
	loans *LoanHandler,
	health *HealthHandler,
	tokens middleware.TokenParser,
	logger *zap.Logger,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Recoverer(logger), middleware.Logging(logger), middleware.CORS)

	// Health check
	router.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", health.Ready).Methods(http.MethodGet)

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Auth(tokens))

	api.HandleFunc("/customers", customers.CreateCustomer).Methods(http.MethodPost)
	api.HandleFunc("/customers", customers.ListCustomers).Methods(http.MethodGet)
	api.HandleFunc("/customers/{id}", customers.GetCustomer).Methods(http.MethodGet)
	api.HandleFunc("/customers/{id}", customers.UpdateCustomer).Methods(http.MethodPut)
	api.HandleFunc("/customers/{id}", customers.DeleteCustomer).Methods(http.MethodDelete)

	api.HandleFunc("/loans", loans.CreateLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans", loans.ListLoans).Methods(http.MethodGet)
	api.HandleFunc("/loans/summary", loans.GetSummary).Methods(http.MethodGet)
	api.HandleFunc("/loans/overdue", loans.ListOverdue).Methods(http.MethodGet)
	api.HandleFunc("/loans/{id}", loans.GetLoan).Methods(http.MethodGet)
	api.HandleFunc("/loans/{id}/repayments", loans.RecordRepayment).Methods(http.MethodPost)
	api.HandleFunc("/loans/{id}/repayments/{index}/receipt", loans.IssueReceipt).Methods(http.MethodPost)
	api.HandleFunc("/loans/{id}/reminder", loans.SendReminder).Methods(http.MethodPost)

	return router
}

package response

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/segyhp/credit-ledger/pkg/errors"
)

type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	response := Response{
		Success:   statusCode >= 200 && statusCode < 300,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	write(w, statusCode, response)
}

// Success sends a successful JSON response
func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

// Created sends a created JSON response
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

// NoContent sends an empty 204 response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error sends an error JSON response. code is the machine readable error code.
func Error(w http.ResponseWriter, statusCode int, message, code string) {
	response := ErrorResponse{
		Success:   false,
		Error:     code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}

	write(w, statusCode, response)
}

// FromError maps a service error to its status code and public message.
func FromError(w http.ResponseWriter, err error) {
	Error(w, apperrors.HTTPStatus(err), apperrors.PublicMessage(err), apperrors.Code(err))
}

// BadRequest sends a 400 bad request response
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message, "BAD_REQUEST")
}

// NotFound sends a 404 not found response
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message, apperrors.ErrCodeNotFound)
}

// InternalServerError sends a 500 internal server error response
func InternalServerError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message, apperrors.ErrCodeInternal)
}

// Unauthorized sends a 401 unauthorized response
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message, "UNAUTHORIZED")
}

// ServiceUnavailable sends a 503 response carrying data, e.g. failed health checks
func ServiceUnavailable(w http.ResponseWriter, message string, data interface{}) {
	ErrorWithData(w, http.StatusServiceUnavailable, message, "SERVICE_UNAVAILABLE", data)
}

// ErrorWithData sends an error response that still carries a payload.
func ErrorWithData(w http.ResponseWriter, statusCode int, message, code string, data interface{}) {
	write(w, statusCode, Response{
		Success:   false,
		Message:   message,
		Data:      data,
		Error:     code,
		Timestamp: time.Now().UTC(),
	})
}

func write(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("error encoding JSON response", zap.Error(err))
	}
}

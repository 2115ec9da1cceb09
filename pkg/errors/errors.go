package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors
var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNotFound           = errors.New("not found")
	ErrValidationFailed   = errors.New("validation failed")
	ErrPersistenceFailure = errors.New("persistence failure")
	ErrReceiptFailed      = errors.New("receipt generation failed")
	ErrCustomerHasLoans   = errors.New("customer has loans")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeInvalidAmount      = "INVALID_AMOUNT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodePersistenceFailure = "PERSISTENCE_FAILURE"
	ErrCodeReceiptFailed      = "RECEIPT_FAILED"
	ErrCodeCustomerHasLoans   = "CUSTOMER_HAS_LOANS"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// Wrap common errors with business context

func WrapInvalidAmount(message string) *BusinessError {
	return NewBusinessError(ErrCodeInvalidAmount, message, ErrInvalidAmount)
}

// WrapNotFound is used both for missing records and for records owned by
// another user; callers cannot tell the two apart.
func WrapNotFound(entity, id string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("No %s found with ID %s", entity, id),
		ErrNotFound,
	)
}

func WrapValidationFailed(message string, err error) *BusinessError {
	if err == nil {
		err = ErrValidationFailed
	} else {
		err = fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	return NewBusinessError(ErrCodeValidationFailed, message, err)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodePersistenceFailure,
		"database operation failed",
		fmt.Errorf("%w: %w", ErrPersistenceFailure, err),
	)
}

func WrapReceiptFailed(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeReceiptFailed,
		"repayment recorded but receipt could not be generated",
		fmt.Errorf("%w: %w", ErrReceiptFailed, err),
	)
}

func WrapCustomerHasLoans(customerID string) *BusinessError {
	return NewBusinessError(
		ErrCodeCustomerHasLoans,
		fmt.Sprintf("Customer with ID %s has loans and cannot be deleted", customerID),
		ErrCustomerHasLoans,
	)
}

// Code returns the business code carried by err, or INTERNAL_ERROR.
func Code(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ErrCodeInternal
}

// HTTPStatus maps an error to the status code the HTTP adapter responds with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrCustomerHasLoans):
		return http.StatusConflict
	case errors.Is(err, ErrReceiptFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to show to API clients.
func PublicMessage(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		if be.Code == ErrCodePersistenceFailure {
			return "internal storage error"
		}
		return be.Message
	}
	return "internal server error"
}

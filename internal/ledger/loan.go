package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/credit-ledger/internal/domain"
	customError "github.com/segyhp/credit-ledger/pkg/errors"
)

var minLoanAmount = decimal.NewFromInt(1)

// OpenLoan builds a new loan for customer and returns the customer with its
// credit total raised by amount. Neither input is modified; both results must
// be committed together.
func OpenLoan(customer *domain.Customer, amount decimal.Decimal, dueDate time.Time, description string, now time.Time) (*domain.Loan, *domain.Customer, error) {
	if err := ValidateLoanTerms(amount, dueDate); err != nil {
		return nil, nil, err
	}

	loan := &domain.Loan{
		ID:              uuid.New(),
		UserID:          customer.UserID,
		CustomerID:      customer.ID,
		Amount:          amount,
		Description:     strings.TrimSpace(description),
		DueDate:         dueDate,
		RemainingAmount: amount,
		Repayments:      []domain.Repayment{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	loan.Status = DeriveStatus(loan.RemainingAmount, loan.DueDate, now)

	updated := customer.Clone()
	updated.TotalCredit = updated.TotalCredit.Add(amount)
	updated.UpdatedAt = now

	return loan, updated, nil
}

// ValidateLoanTerms checks the caller supplied terms of a new loan.
func ValidateLoanTerms(amount decimal.Decimal, dueDate time.Time) error {
	if amount.LessThan(minLoanAmount) {
		return customError.WrapInvalidAmount("loan amount must be at least 1")
	}
	if dueDate.IsZero() {
		return customError.WrapValidationFailed("a loan must have a due date", nil)
	}
	return nil
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultTrustScore is assigned when a customer is created without one.
// Scores range from 1 to 10.
const DefaultTrustScore = 5

// Customer is a shopkeeper's borrower. TotalCredit and TotalRepaid are ledger
// totals; they only move through loan creation and repayments.
type Customer struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	UserID      uuid.UUID       `json:"user_id" db:"user_id"`
	Name        string          `json:"name" db:"name"`
	Phone       string          `json:"phone" db:"phone"`
	Address     string          `json:"address" db:"address"`
	TrustScore  int             `json:"trust_score" db:"trust_score"`
	TotalCredit decimal.Decimal `json:"total_credit" db:"total_credit"`
	TotalRepaid decimal.Decimal `json:"total_repaid" db:"total_repaid"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Clone returns a copy that can be mutated without touching c.
func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// DTOs for requests

type CreateCustomerRequest struct {
	Name       string `json:"name" validate:"required,notblank,max=255"`
	Phone      string `json:"phone" validate:"required,mobile"`
	Address    string `json:"address" validate:"max=512"`
	TrustScore int    `json:"trust_score" validate:"omitempty,min=1,max=10"`
}

// UpdateCustomerRequest only carries profile fields; totals are not client editable.
type UpdateCustomerRequest struct {
	Name       *string `json:"name" validate:"omitempty,notblank,max=255"`
	Phone      *string `json:"phone" validate:"omitempty,mobile"`
	Address    *string `json:"address" validate:"omitempty,max=512"`
	TrustScore *int    `json:"trust_score" validate:"omitempty,min=1,max=10"`
}

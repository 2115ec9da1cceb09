package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanStatus is cached on the loan row for filtering. The source of truth is
// RemainingAmount together with DueDate.
type LoanStatus string

const (
	LoanStatusPending LoanStatus = "pending"
	LoanStatusPaid    LoanStatus = "paid"
	LoanStatusOverdue LoanStatus = "overdue"
)

// Valid reports whether s is one of the known statuses.
func (s LoanStatus) Valid() bool {
	switch s {
	case LoanStatusPending, LoanStatusPaid, LoanStatusOverdue:
		return true
	}
	return false
}

// Loan represents a loan entity
type Loan struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"user_id" db:"user_id"`
	CustomerID      uuid.UUID       `json:"customer_id" db:"customer_id"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	Description     string          `json:"description,omitempty" db:"description"`
	DueDate         time.Time       `json:"due_date" db:"due_date"`
	Status          LoanStatus      `json:"status" db:"status"`
	RemainingAmount decimal.Decimal `json:"remaining_amount" db:"remaining_amount"`
	Repayments      []Repayment     `json:"repayments" db:"-"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// Clone returns a deep copy; the repayment slice is not shared.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	cp := *l
	if l.Repayments != nil {
		cp.Repayments = make([]Repayment, len(l.Repayments))
		copy(cp.Repayments, l.Repayments)
	}
	return &cp
}

// TotalRepaid sums every recorded repayment.
func (l *Loan) TotalRepaid() decimal.Decimal {
	total := decimal.Zero
	for _, r := range l.Repayments {
		total = total.Add(r.Amount)
	}
	return total
}

// LastRepayment returns the most recent repayment, if any.
func (l *Loan) LastRepayment() (Repayment, bool) {
	if len(l.Repayments) == 0 {
		return Repayment{}, false
	}
	return l.Repayments[len(l.Repayments)-1], true
}

// LoanFilter narrows loan queries. UserID is always required.
type LoanFilter struct {
	UserID          uuid.UUID
	CustomerID      *uuid.UUID
	OutstandingOnly bool
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	CustomerID  uuid.UUID       `json:"customer_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     Date            `json:"due_date"`
	Description string          `json:"description" validate:"max=1024"`
	// RemainingAmount is accepted for compatibility and always ignored.
	RemainingAmount *decimal.Decimal `json:"remaining_amount,omitempty"`
}

type RecordRepaymentRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	Notes        string          `json:"notes" validate:"max=1024"`
	IssueReceipt bool            `json:"issue_receipt"`
}

type RepaymentResponse struct {
	Loan        *Loan  `json:"loan"`
	ReceiptPath string `json:"receipt_path,omitempty"`
}

type ReceiptResponse struct {
	LoanID      uuid.UUID `json:"loan_id"`
	Index       int       `json:"index"`
	ReceiptPath string    `json:"receipt_path"`
}

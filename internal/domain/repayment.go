package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repayment is an append-only entry on a loan. Seq is its position in the
// loan's repayment sequence and is its only identity.
type Repayment struct {
	LoanID uuid.UUID       `json:"-" db:"loan_id"`
	Seq    int             `json:"-" db:"seq"`
	Amount decimal.Decimal `json:"amount" db:"amount"`
	Date   time.Time       `json:"date" db:"paid_at"`
	Notes  string          `json:"notes,omitempty" db:"notes"`
}

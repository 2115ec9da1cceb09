package domain

import "github.com/shopspring/decimal"

// Summary is the portfolio fold over all loans of one user.
type Summary struct {
	TotalLoaned      decimal.Decimal `json:"total_loaned"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	OverdueAmount    decimal.Decimal `json:"overdue_amount"`
	AvgRepaymentDays int             `json:"avg_repayment_days"`
	TotalPending     decimal.Decimal `json:"total_pending"`
}

type OverdueResponse struct {
	Count int     `json:"count"`
	Loans []*Loan `json:"loans"`
}

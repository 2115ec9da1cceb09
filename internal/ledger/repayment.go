package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/credit-ledger/internal/domain"
	customError "github.com/segyhp/credit-ledger/pkg/errors"
	"github.com/segyhp/credit-ledger/pkg/utils"
)

// ApplyRepayment stages a repayment against loan and its owning customer.
// The returned copies carry the new balance, status, repayment entry and
// repaid total; the inputs are left untouched so a failed commit leaves no trace.
//
// Overpayment is accepted: the balance floors at zero and the surplus is not tracked.
func ApplyRepayment(loan *domain.Loan, customer *domain.Customer, amount decimal.Decimal, notes string, now time.Time) (*domain.Loan, *domain.Customer, error) {
	if !amount.IsPositive() {
		return nil, nil, customError.WrapInvalidAmount("Please provide a valid repayment amount")
	}
	if customer.ID != loan.CustomerID || customer.UserID != loan.UserID {
		return nil, nil, customError.WrapNotFound("customer", loan.CustomerID.String())
	}

	updatedLoan := loan.Clone()
	updatedLoan.Repayments = append(updatedLoan.Repayments, domain.Repayment{
		LoanID: loan.ID,
		Seq:    len(loan.Repayments),
		Amount: amount,
		Date:   now,
		Notes:  strings.TrimSpace(notes),
	})
	updatedLoan.RemainingAmount = utils.FloorAtZero(updatedLoan.RemainingAmount.Sub(amount))
	updatedLoan.Status = DeriveStatus(updatedLoan.RemainingAmount, updatedLoan.DueDate, now)
	updatedLoan.UpdatedAt = now

	updatedCustomer := customer.Clone()
	updatedCustomer.TotalRepaid = updatedCustomer.TotalRepaid.Add(amount)
	updatedCustomer.UpdatedAt = now

	return updatedLoan, updatedCustomer, nil
}

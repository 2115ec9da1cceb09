package ledger

import (
	"time"

	"github.com/segyhp/credit-ledger/internal/domain"
	"github.com/segyhp/credit-ledger/pkg/utils"

	"github.com/shopspring/decimal"
)

// DeriveStatus computes a loan's status from its outstanding balance and due
// date as seen at now.
func DeriveStatus(remaining decimal.Decimal, dueDate, now time.Time) domain.LoanStatus {
	switch {
	case !remaining.IsPositive():
		return domain.LoanStatusPaid
	case utils.IsDateOverdue(dueDate, now):
		return domain.LoanStatusOverdue
	default:
		return domain.LoanStatusPending
	}
}

// Reconcile re-derives loan.Status and reports whether it changed. A changed
// loan must be persisted by the caller.
func Reconcile(loan *domain.Loan, now time.Time) bool {
	status := DeriveStatus(loan.RemainingAmount, loan.DueDate, now)
	if status == loan.Status {
		return false
	}
	loan.Status = status
	loan.UpdatedAt = now
	return true
}

// ReconcileAll reconciles every loan and returns the ones whose status changed.
func ReconcileAll(loans []*domain.Loan, now time.Time) []*domain.Loan {
	var changed []*domain.Loan
	for _, loan := range loans {
		if Reconcile(loan, now) {
			changed = append(changed, loan)
		}
	}
	return changed
}

// Consistent reports whether the stored fields of a loan agree with each other:
// the balance matches amount minus repayments and the status matches the balance.
func Consistent(loan *domain.Loan, now time.Time) bool {
	expected := utils.FloorAtZero(loan.Amount.Sub(loan.TotalRepaid()))
	if !expected.Equal(loan.RemainingAmount) {
		return false
	}
	return loan.Status == DeriveStatus(loan.RemainingAmount, loan.DueDate, now)
}

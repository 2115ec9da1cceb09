package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/credit-ledger/internal/domain"
	"github.com/segyhp/credit-ledger/pkg/utils"
)

// Summarize folds a user's loans into portfolio totals. Statuses are derived
// at now; loans are not modified.
func Summarize(loans []*domain.Loan, now time.Time) domain.Summary {
	summary := domain.Summary{
		TotalLoaned:    decimal.Zero,
		TotalCollected: decimal.Zero,
		OverdueAmount:  decimal.Zero,
		TotalPending:   decimal.Zero,
	}
	var latencies []int

	for _, loan := range loans {
		summary.TotalLoaned = summary.TotalLoaned.Add(loan.Amount)
		summary.TotalCollected = summary.TotalCollected.Add(loan.TotalRepaid())

		switch DeriveStatus(loan.RemainingAmount, loan.DueDate, now) {
		case domain.LoanStatusOverdue:
			summary.OverdueAmount = summary.OverdueAmount.Add(loan.RemainingAmount)
		case domain.LoanStatusPaid:
			if last, ok := loan.LastRepayment(); ok {
				latencies = append(latencies, utils.WholeDaysBetween(loan.CreatedAt, last.Date))
			}
		}
	}

	summary.AvgRepaymentDays = utils.MeanRounded(latencies)
	summary.TotalPending = summary.TotalLoaned.Sub(summary.TotalCollected)
	return summary
}

// ListOverdue returns the loans with an outstanding balance whose derived
// status is overdue. Statuses are reconciled in place; the second result holds
// every loan whose stored status changed and needs persisting.
func ListOverdue(loans []*domain.Loan, now time.Time) (overdue []*domain.Loan, changed []*domain.Loan) {
	overdue = []*domain.Loan{}
	for _, loan := range loans {
		if !loan.RemainingAmount.IsPositive() {
			continue
		}
		if Reconcile(loan, now) {
			changed = append(changed, loan)
		}
		if loan.Status == domain.LoanStatusOverdue {
			overdue = append(overdue, loan)
		}
	}
	return overdue, changed
}

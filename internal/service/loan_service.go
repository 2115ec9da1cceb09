package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/segyhp/credit-ledger/internal/cache"
	"github.com/segyhp/credit-ledger/internal/domain"
	"github.com/segyhp/credit-ledger/internal/ledger"
	"github.com/segyhp/credit-ledger/internal/notifier"
	"github.com/segyhp/credit-ledger/internal/receipt"
	"github.com/segyhp/credit-ledger/internal/repository"
	"github.com/segyhp/credit-ledger/pkg/clock"
	customError "github.com/segyhp/credit-ledger/pkg/errors"
	"github.com/segyhp/credit-ledger/pkg/utils"
)

// LoanOptions carries the presentation settings used for receipts and reminders.
type LoanOptions struct {
	ShopName         string
	CurrencySymbol   string
	ReminderLeadDays int
}

type LoanService struct {
	store     repository.Store
	summaries cache.SummaryCache
	notifier  notifier.Notifier
	receipts  receipt.Renderer
	validate  *validator.Validate
	clock     clock.Clock
	logger    *zap.Logger
	opts      LoanOptions
}

func NewLoanService(
	store repository.Store,
	summaries cache.SummaryCache,
	notif notifier.Notifier,
	receipts receipt.Renderer,
	validate *validator.Validate,
	clk clock.Clock,
	logger *zap.Logger,
	opts LoanOptions,
) *LoanService {
	if summaries == nil {
		summaries = cache.NopSummaryCache{}
	}
	return &LoanService{
		store:     store,
		summaries: summaries,
		notifier:  notif,
		receipts:  receipts,
		validate:  validate,
		clock:     clk,
		logger:    logger,
		opts:      opts,
	}
}

// CreateLoan issues a loan to one of userID's customers and raises the
// customer's credit total in the same transaction.
func (s *LoanService) CreateLoan(ctx context.Context, userID uuid.UUID, req *domain.CreateLoanRequest) (*domain.Loan, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}
	if err := ledger.ValidateLoanTerms(req.Amount, req.DueDate.Time); err != nil {
		return nil, err
	}

	var created *domain.Loan
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		customer, err := tx.Customers().GetForUpdate(ctx, req.CustomerID, userID)
		if err != nil {
			return storeError(err, "customer", req.CustomerID.String())
		}

		loan, updatedCustomer, err := ledger.OpenLoan(customer, req.Amount, req.DueDate.Time, req.Description, s.clock.Now())
		if err != nil {
			return err
		}

		if err := tx.Loans().Create(ctx, loan); err != nil {
			return err
		}
		if err := tx.Customers().UpdateTotals(ctx, updatedCustomer); err != nil {
			return err
		}

		created = loan
		return nil
	})
	if err != nil {
		return nil, s.fail("failed to create loan", err, "customer", req.CustomerID)
	}

	s.invalidateSummary(ctx, userID)
	return created, nil
}

// RecordRepayment applies a repayment to a loan and its customer atomically.
// When a receipt is requested and rendering fails, the repayment stays
// committed and the response is returned together with a RECEIPT_FAILED error.
func (s *LoanService) RecordRepayment(ctx context.Context, userID, loanID uuid.UUID, req *domain.RecordRepaymentRequest) (*domain.RepaymentResponse, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, customError.WrapInvalidAmount("Please provide a valid repayment amount")
	}

	var (
		updatedLoan     *domain.Loan
		updatedCustomer *domain.Customer
	)
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		loan, err := tx.Loans().GetForUpdate(ctx, loanID, userID)
		if err != nil {
			return storeError(err, "loan", loanID.String())
		}
		customer, err := tx.Customers().GetForUpdate(ctx, loan.CustomerID, userID)
		if err != nil {
			return storeError(err, "customer", loan.CustomerID.String())
		}

		nextLoan, nextCustomer, err := ledger.ApplyRepayment(loan, customer, req.Amount, req.Notes, s.clock.Now())
		if err != nil {
			return err
		}

		repayment, _ := nextLoan.LastRepayment()
		if err := tx.Loans().AppendRepayment(ctx, repayment); err != nil {
			return err
		}
		if err := tx.Loans().UpdateBalance(ctx, nextLoan); err != nil {
			return err
		}
		if err := tx.Customers().UpdateTotals(ctx, nextCustomer); err != nil {
			return err
		}

		updatedLoan, updatedCustomer = nextLoan, nextCustomer
		return nil
	})
	if err != nil {
		return nil, s.fail("failed to record repayment", err, "loan", loanID)
	}

	s.invalidateSummary(ctx, userID)

	resp := &domain.RepaymentResponse{Loan: updatedLoan}
	if req.IssueReceipt {
		path, err := s.renderReceipt(ctx, updatedLoan, updatedCustomer, len(updatedLoan.Repayments)-1)
		if err != nil {
			return resp, err
		}
		resp.ReceiptPath = path
	}

	return resp, nil
}

// GetLoan returns a loan with its repayments and a freshly derived status.
func (s *LoanService) GetLoan(ctx context.Context, userID, loanID uuid.UUID) (*domain.Loan, error) {
	loan, err := s.store.Loans().GetByID(ctx, loanID, userID)
	if err != nil {
		return nil, s.fail("failed to load loan", err, "loan", loanID)
	}

	if ledger.Reconcile(loan, s.clock.Now()) {
		s.persistStatuses(ctx, []*domain.Loan{loan})
	}
	return loan, nil
}

// ListLoansQuery filters ListLoans. Status is matched against the derived status.
type ListLoansQuery struct {
	Status     *domain.LoanStatus
	CustomerID *uuid.UUID
}

func (s *LoanService) ListLoans(ctx context.Context, userID uuid.UUID, q ListLoansQuery) ([]*domain.Loan, error) {
	if q.Status != nil && !q.Status.Valid() {
		return nil, customError.WrapValidationFailed(fmt.Sprintf("unknown loan status %q", *q.Status), nil)
	}

	loans, err := s.store.Loans().List(ctx, domain.LoanFilter{UserID: userID, CustomerID: q.CustomerID})
	if err != nil {
		s.logger.Error("failed to list loans", zap.Stringer("user_id", userID), zap.Error(err))
		return nil, customError.WrapDatabaseError(err)
	}

	s.persistStatuses(ctx, ledger.ReconcileAll(loans, s.clock.Now()))

	if q.Status == nil {
		return loans, nil
	}
	filtered := make([]*domain.Loan, 0, len(loans))
	for _, loan := range loans {
		if loan.Status == *q.Status {
			filtered = append(filtered, loan)
		}
	}
	return filtered, nil
}

// GetSummary folds all of userID's loans. Results may be served from cache
// for up to the configured TTL.
func (s *LoanService) GetSummary(ctx context.Context, userID uuid.UUID) (*domain.Summary, error) {
	summary, err := s.summaries.Fetch(ctx, userID, func() (domain.Summary, error) {
		loans, err := s.store.Loans().List(ctx, domain.LoanFilter{UserID: userID})
		if err != nil {
			return domain.Summary{}, err
		}
		return ledger.Summarize(loans, s.clock.Now()), nil
	})
	if err != nil {
		s.logger.Error("failed to build summary", zap.Stringer("user_id", userID), zap.Error(err))
		return nil, customError.WrapDatabaseError(err)
	}
	return &summary, nil
}

// ListOverdue returns userID's outstanding loans that are past due and
// persists any status that changed on the way.
func (s *LoanService) ListOverdue(ctx context.Context, userID uuid.UUID) (*domain.OverdueResponse, error) {
	loans, err := s.store.Loans().List(ctx, domain.LoanFilter{UserID: userID, OutstandingOnly: true})
	if err != nil {
		s.logger.Error("failed to list overdue loans", zap.Stringer("user_id", userID), zap.Error(err))
		return nil, customError.WrapDatabaseError(err)
	}

	overdue, changed := ledger.ListOverdue(loans, s.clock.Now())
	s.persistStatuses(ctx, changed)

	return &domain.OverdueResponse{Count: len(overdue), Loans: overdue}, nil
}

// IssueReceipt renders a receipt for the repayment at index (0 based) of a loan.
func (s *LoanService) IssueReceipt(ctx context.Context, userID, loanID uuid.UUID, index int) (*domain.ReceiptResponse, error) {
	loan, err := s.store.Loans().GetByID(ctx, loanID, userID)
	if err != nil {
		return nil, s.fail("failed to load loan", err, "loan", loanID)
	}
	if index < 0 || index >= len(loan.Repayments) {
		return nil, customError.WrapNotFound("repayment", fmt.Sprintf("%s/%d", loanID, index))
	}

	customer, err := s.store.Customers().GetByID(ctx, loan.CustomerID, userID)
	if err != nil {
		return nil, s.fail("failed to load customer", err, "customer", loan.CustomerID)
	}

	path, err := s.renderReceipt(ctx, loan, customer, index)
	if err != nil {
		return nil, err
	}
	return &domain.ReceiptResponse{LoanID: loanID, Index: index, ReceiptPath: path}, nil
}

// SendReminder notifies the customer of an outstanding loan. Delivery
// failures are logged and reported as delivered=false, never as an error.
func (s *LoanService) SendReminder(ctx context.Context, userID, loanID uuid.UUID) (bool, error) {
	loan, err := s.GetLoan(ctx, userID, loanID)
	if err != nil {
		return false, err
	}
	if loan.Status == domain.LoanStatusPaid {
		return false, customError.WrapValidationFailed("loan is already paid", nil)
	}

	customer, err := s.store.Customers().GetByID(ctx, loan.CustomerID, userID)
	if err != nil {
		return false, s.fail("failed to load customer", err, "customer", loan.CustomerID)
	}

	return s.remind(ctx, loan, customer), nil
}

// RefreshStatuses re-derives the status of every outstanding loan and
// persists the ones that changed. It returns how many changed.
func (s *LoanService) RefreshStatuses(ctx context.Context) (int, error) {
	loans, err := s.store.Loans().ListOutstanding(ctx)
	if err != nil {
		s.logger.Error("failed to list outstanding loans", zap.Error(err))
		return 0, customError.WrapDatabaseError(err)
	}

	changed := ledger.ReconcileAll(loans, s.clock.Now())
	persisted := s.persistStatuses(ctx, changed)

	users := make(map[uuid.UUID]struct{})
	for _, loan := range changed {
		users[loan.UserID] = struct{}{}
	}
	for userID := range users {
		s.invalidateSummary(ctx, userID)
	}

	s.logger.Info("loan statuses refreshed",
		zap.Int("outstanding", len(loans)),
		zap.Int("changed", len(changed)),
		zap.Int("persisted", persisted),
	)
	return persisted, nil
}

// SendDueReminders reminds customers of every outstanding loan that is
// overdue or due within the configured lead days. It returns how many
// reminders were delivered.
func (s *LoanService) SendDueReminders(ctx context.Context) (int, error) {
	loans, err := s.store.Loans().ListOutstanding(ctx)
	if err != nil {
		s.logger.Error("failed to list outstanding loans", zap.Error(err))
		return 0, customError.WrapDatabaseError(err)
	}

	now := s.clock.Now()
	s.persistStatuses(ctx, ledger.ReconcileAll(loans, now))
	horizon := now.AddDate(0, 0, s.opts.ReminderLeadDays)

	sent := 0
	for _, loan := range loans {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if loan.Status != domain.LoanStatusOverdue && loan.DueDate.After(horizon) {
			continue
		}

		customer, err := s.store.Customers().GetByID(ctx, loan.CustomerID, loan.UserID)
		if err != nil {
			s.logger.Warn("skipping reminder, customer not loaded",
				zap.Stringer("loan_id", loan.ID), zap.Error(err))
			continue
		}
		if s.remind(ctx, loan, customer) {
			sent++
		}
	}

	s.logger.Info("due reminders sent", zap.Int("candidates", len(loans)), zap.Int("sent", sent))
	return sent, nil
}

func (s *LoanService) remind(ctx context.Context, loan *domain.Loan, customer *domain.Customer) bool {
	if s.notifier == nil {
		return false
	}
	err := s.notifier.SendReminder(ctx, notifier.Reminder{
		Phone:          customer.Phone,
		CustomerName:   customer.Name,
		Amount:         loan.RemainingAmount,
		DueDate:        loan.DueDate,
		CurrencySymbol: s.opts.CurrencySymbol,
	})
	if err != nil {
		s.logger.Warn("payment reminder failed",
			zap.Stringer("loan_id", loan.ID),
			zap.Stringer("customer_id", customer.ID),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (s *LoanService) renderReceipt(ctx context.Context, loan *domain.Loan, customer *domain.Customer, index int) (string, error) {
	if s.receipts == nil {
		return "", customError.WrapReceiptFailed(fmt.Errorf("no receipt renderer configured"))
	}

	repayment := loan.Repayments[index]
	paid := decimal.Zero
	for _, r := range loan.Repayments[:index+1] {
		paid = paid.Add(r.Amount)
	}
	path, err := s.receipts.Render(ctx, receipt.Input{
		LoanID:         loan.ID,
		Index:          index,
		ShopName:       s.opts.ShopName,
		CustomerName:   customer.Name,
		AmountPaid:     repayment.Amount,
		PaidAt:         repayment.Date,
		Remaining:      utils.FloorAtZero(loan.Amount.Sub(paid)),
		Notes:          repayment.Notes,
		CurrencySymbol: s.opts.CurrencySymbol,
	})
	if err != nil {
		s.logger.Error("receipt generation failed",
			zap.Stringer("loan_id", loan.ID), zap.Int("index", index), zap.Error(err))
		return "", customError.WrapReceiptFailed(err)
	}
	return path, nil
}

// persistStatuses writes reconciled statuses. Failures are logged; the
// derived status is still what callers see, and the next read retries.
// A loan whose balance moved since it was read is skipped, the writer that
// moved it already stored a status derived from the new balance.
func (s *LoanService) persistStatuses(ctx context.Context, changed []*domain.Loan) int {
	persisted := 0
	for _, loan := range changed {
		err := s.store.Loans().UpdateStatus(ctx, loan)
		if errors.Is(err, repository.ErrStaleBalance) {
			s.logger.Debug("skipping stale loan status",
				zap.Stringer("loan_id", loan.ID),
				zap.String("status", string(loan.Status)),
			)
			continue
		}
		if err != nil {
			s.logger.Warn("failed to persist loan status",
				zap.Stringer("loan_id", loan.ID),
				zap.String("status", string(loan.Status)),
				zap.Error(err),
			)
			continue
		}
		persisted++
	}
	return persisted
}

func (s *LoanService) invalidateSummary(ctx context.Context, userID uuid.UUID) {
	if err := s.summaries.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("summary cache invalidation failed", zap.Stringer("user_id", userID), zap.Error(err))
	}
}

func (s *LoanService) fail(msg string, err error, entity string, id uuid.UUID) error {
	mapped := storeError(err, entity, id.String())
	if customError.Code(mapped) == customError.ErrCodePersistenceFailure {
		s.logger.Error(msg, zap.String(entity+"_id", id.String()), zap.Error(err))
	}
	return mapped
}

package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/segyhp/credit-ledger/internal/domain"
	"github.com/segyhp/credit-ledger/internal/repository"
	"github.com/segyhp/credit-ledger/pkg/clock"
	customError "github.com/segyhp/credit-ledger/pkg/errors"
)

type CustomerService struct {
	store    repository.Store
	validate *validator.Validate
	clock    clock.Clock
	logger   *zap.Logger
}

func NewCustomerService(store repository.Store, validate *validator.Validate, clk clock.Clock, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		store:    store,
		validate: validate,
		clock:    clk,
		logger:   logger,
	}
}

// CreateCustomer registers a customer for userID. Ledger totals always start at zero.
func (s *CustomerService) CreateCustomer(ctx context.Context, userID uuid.UUID, req *domain.CreateCustomerRequest) (*domain.Customer, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	trustScore := req.TrustScore
	if trustScore == 0 {
		trustScore = domain.DefaultTrustScore
	}

	now := s.clock.Now()
	customer := &domain.Customer{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Phone:       normalizePhone(req.Phone),
		Address:     strings.TrimSpace(req.Address),
		TrustScore:  trustScore,
		TotalCredit: decimal.Zero,
		TotalRepaid: decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Customers().Create(ctx, customer); err != nil {
		s.logger.Error("failed to create customer", zap.Stringer("user_id", userID), zap.Error(err))
		return nil, customError.WrapDatabaseError(err)
	}

	return customer, nil
}

func (s *CustomerService) ListCustomers(ctx context.Context, userID uuid.UUID) ([]*domain.Customer, error) {
	customers, err := s.store.Customers().List(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list customers", zap.Stringer("user_id", userID), zap.Error(err))
		return nil, customError.WrapDatabaseError(err)
	}
	return customers, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, userID, customerID uuid.UUID) (*domain.Customer, error) {
	customer, err := s.store.Customers().GetByID(ctx, customerID, userID)
	if err != nil {
		return nil, storeError(err, "customer", customerID.String())
	}
	return customer, nil
}

// UpdateCustomer changes profile fields only; ledger totals cannot be edited.
func (s *CustomerService) UpdateCustomer(ctx context.Context, userID, customerID uuid.UUID, req *domain.UpdateCustomerRequest) (*domain.Customer, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	var updated *domain.Customer
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		customer, err := tx.Customers().GetForUpdate(ctx, customerID, userID)
		if err != nil {
			return err
		}

		if req.Name != nil {
			customer.Name = strings.TrimSpace(*req.Name)
		}
		if req.Phone != nil {
			customer.Phone = normalizePhone(*req.Phone)
		}
		if req.Address != nil {
			customer.Address = strings.TrimSpace(*req.Address)
		}
		if req.TrustScore != nil {
			customer.TrustScore = *req.TrustScore
		}
		customer.UpdatedAt = s.clock.Now()

		if err := tx.Customers().UpdateProfile(ctx, customer); err != nil {
			return err
		}
		updated = customer
		return nil
	})
	if err != nil {
		return nil, s.fail("failed to update customer", err, customerID)
	}

	return updated, nil
}

// DeleteCustomer removes a customer that has never borrowed. Loans are never
// deleted, so a customer with loans cannot be removed either.
func (s *CustomerService) DeleteCustomer(ctx context.Context, userID, customerID uuid.UUID) error {
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.Customers().GetForUpdate(ctx, customerID, userID); err != nil {
			return err
		}

		count, err := tx.Loans().CountByCustomer(ctx, customerID, userID)
		if err != nil {
			return err
		}
		if count > 0 {
			return customError.WrapCustomerHasLoans(customerID.String())
		}

		return tx.Customers().Delete(ctx, customerID, userID)
	})
	if err != nil {
		return s.fail("failed to delete customer", err, customerID)
	}
	return nil
}

func (s *CustomerService) fail(msg string, err error, customerID uuid.UUID) error {
	mapped := storeError(err, "customer", customerID.String())
	if customError.Code(mapped) == customError.ErrCodePersistenceFailure {
		s.logger.Error(msg, zap.Stringer("customer_id", customerID), zap.Error(err))
	}
	return mapped
}

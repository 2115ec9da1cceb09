package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/segyhp/credit-ledger/internal/notifier"
	"github.com/segyhp/credit-ledger/internal/receipt"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendReminder(ctx context.Context, r notifier.Reminder) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, in receipt.Input) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

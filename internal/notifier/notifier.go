package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Reminder is a payment reminder for one outstanding loan.
type Reminder struct {
	Phone          string
	CustomerName   string
	Amount         decimal.Decimal
	DueDate        time.Time
	CurrencySymbol string
}

// Notifier delivers payment reminders.
type Notifier interface {
	SendReminder(ctx context.Context, r Reminder) error
}

// Message renders the reminder text sent to the customer.
func (r Reminder) Message() string {
	amount := r.Amount.StringFixed(2)
	if r.CurrencySymbol != "" {
		amount = r.CurrencySymbol + " " + amount
	}
	return fmt.Sprintf(
		"Hello %s, this is a reminder that you have a pending payment of %s due on %s. Please arrange for payment.",
		r.CustomerName, amount, r.DueDate.Format("02 Jan 2006"),
	)
}

// LogNotifier writes reminders to the log instead of sending them.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendReminder(_ context.Context, r Reminder) error {
	n.logger.Info("payment reminder",
		zap.String("phone", r.Phone),
		zap.String("customer", r.CustomerName),
		zap.String("message", r.Message()),
	)
	return nil
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/segyhp/credit-ledger/internal/app"
	"github.com/segyhp/credit-ledger/internal/config"
	"github.com/segyhp/credit-ledger/pkg/logger"
)

// jobTimeout bounds a single run of either job.
const jobTimeout = 10 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	zl.Info("starting ledger scheduler")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to initialize application", zap.Error(err))
	}
	defer a.Close()

	// Initialize cron scheduler
	cl := newCronLogger(zl)
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.Location()),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	// Schedule tasks
	if err := setupCronJobs(ctx, c, cfg, a, zl); err != nil {
		zl.Fatal("failed to schedule jobs", zap.Error(err))
	}

	// Start the scheduler
	c.Start()
	zl.Info("scheduler started")

	// Wait for interrupt signal to gracefully shutdown
	<-ctx.Done()

	zl.Info("shutting down scheduler")
	<-c.Stop().Done()
	zl.Info("scheduler stopped")
}

func setupCronJobs(ctx context.Context, c *cron.Cron, cfg *config.Config, a *app.App, zl *zap.Logger) error {
	// Daily job to re-derive statuses of outstanding loans
	if _, err := c.AddFunc(cfg.Scheduler.StatusRefreshSpec, func() {
		jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()

		zl.Info("running loan status refresh job")
		if _, err := a.Loans.RefreshStatuses(jobCtx); err != nil {
			zl.Error("loan status refresh failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	// Daily job to remind customers of overdue and soon due loans
	if _, err := c.AddFunc(cfg.Scheduler.ReminderSpec, func() {
		jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()

		zl.Info("running payment reminder job", zap.Int("lead_days", cfg.Scheduler.ReminderLeadDays))
		if _, err := a.Loans.SendDueReminders(jobCtx); err != nil {
			zl.Error("payment reminder job failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	zl.Info("cron jobs scheduled",
		zap.String("status_refresh", cfg.Scheduler.StatusRefreshSpec),
		zap.String("reminders", cfg.Scheduler.ReminderSpec),
	)
	return nil
}

// cronLogger routes cron's own messages (skipped runs, recovered panics)
// through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func newCronLogger(zl *zap.Logger) cron.Logger {
	return cronLogger{s: zl.Named("cron").Sugar()}
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/segyhp/credit-ledger/internal/cache"
	"github.com/segyhp/credit-ledger/internal/config"
	"github.com/segyhp/credit-ledger/internal/handler"
	"github.com/segyhp/credit-ledger/internal/notifier"
	"github.com/segyhp/credit-ledger/internal/receipt"
	"github.com/segyhp/credit-ledger/internal/repository"
	"github.com/segyhp/credit-ledger/internal/repository/memory"
	"github.com/segyhp/credit-ledger/internal/service"
	"github.com/segyhp/credit-ledger/pkg/clock"
)

// App holds the wired dependencies shared by the server and the scheduler.
type App struct {
	Store     repository.Store
	Redis     *cache.RedisCache
	Customers *service.CustomerService
	Loans     *service.LoanService

	logger *zap.Logger
}

// New connects the store and cache selected by cfg and builds the services.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	store, err := initStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &App{Store: store, logger: logger}

	var summaries cache.SummaryCache = cache.NopSummaryCache{}
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(ctx, cache.Options{
			URL:      cfg.Redis.URL,
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.Redis = rc
		summaries = cache.NewSummaryCache(rc, cfg.Cache.SummaryTTL)
	}

	validate := service.NewValidator()
	clk := clock.Real{}

	a.Customers = service.NewCustomerService(store, validate, clk, logger.Named("customers"))
	a.Loans = service.NewLoanService(
		store,
		summaries,
		initNotifier(cfg, logger),
		receipt.NewPDFRenderer(cfg.Receipt.Dir),
		validate,
		clk,
		logger.Named("loans"),
		service.LoanOptions{
			ShopName:         cfg.Receipt.ShopName,
			CurrencySymbol:   cfg.Receipt.CurrencySymbol,
			ReminderLeadDays: cfg.Scheduler.ReminderLeadDays,
		},
	)

	return a, nil
}

// HealthChecks lists the dependencies probed by /health/ready.
func (a *App) HealthChecks() map[string]handler.Pinger {
	checks := map[string]handler.Pinger{"database": a.Store}
	if a.Redis != nil {
		checks["redis"] = a.Redis
	}
	return checks
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if err := a.Store.Close(); err != nil {
		a.logger.Warn("failed to close store", zap.Error(err))
	}
}

func initStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if cfg.Store.AutoMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	logger.Info("database connection established", zap.Int("max_open_conns", cfg.Database.MaxOpenConns))
	return repository.NewStore(db), nil
}

func initNotifier(cfg *config.Config, logger *zap.Logger) notifier.Notifier {
	if cfg.Notifier.Provider == config.NotifierWaha {
		return notifier.NewWahaNotifier(notifier.WahaConfig{
			BaseURL:     cfg.Notifier.WahaBaseURL,
			APIKey:      cfg.Notifier.WahaAPIKey,
			Session:     cfg.Notifier.WahaSession,
			CountryCode: cfg.Notifier.CountryCode,
			Timeout:     cfg.Notifier.Timeout,
		}, logger.Named("waha"))
	}
	return notifier.NewLogNotifier(logger.Named("reminders"))
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	NotifierLog  = "log"
	NotifierWaha = "waha"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Store     StoreConfig     `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Cache     CacheConfig     `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Auth      AuthConfig      `mapstructure:",squash"`
	Notifier  NotifierConfig  `mapstructure:",squash"`
	Receipt   ReceiptConfig   `mapstructure:",squash"`
	Health    HealthConfig    `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"DATABASE_URL"`
	Host            string        `mapstructure:"DATABASE_HOST"`
	Port            string        `mapstructure:"DATABASE_PORT"`
	Name            string        `mapstructure:"DATABASE_NAME"`
	User            string        `mapstructure:"DATABASE_USER"`
	Password        string        `mapstructure:"DATABASE_PASSWORD"`
	SSLMode         string        `mapstructure:"DATABASE_SSLMODE"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
}

type StoreConfig struct {
	Driver      string `mapstructure:"STORE_DRIVER"`
	AutoMigrate bool   `mapstructure:"STORE_AUTO_MIGRATE"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"REDIS_ENABLED"`
	URL      string `mapstructure:"REDIS_URL"`
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type CacheConfig struct {
	SummaryTTL time.Duration `mapstructure:"SUMMARY_CACHE_TTL"`
}

type SchedulerConfig struct {
	StatusRefreshSpec string `mapstructure:"SCHEDULER_STATUS_REFRESH_SPEC"`
	ReminderSpec      string `mapstructure:"SCHEDULER_REMINDER_SPEC"`
	Timezone          string `mapstructure:"SCHEDULER_TIMEZONE"`
	ReminderLeadDays  int    `mapstructure:"REMINDER_LEAD_DAYS"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"JWT_TOKEN_TTL"`
}

type NotifierConfig struct {
	Provider    string        `mapstructure:"NOTIFIER_PROVIDER"`
	WahaBaseURL string        `mapstructure:"WAHA_BASE_URL"`
	WahaAPIKey  string        `mapstructure:"WAHA_API_KEY"`
	WahaSession string        `mapstructure:"WAHA_SESSION"`
	CountryCode string        `mapstructure:"NOTIFIER_COUNTRY_CODE"`
	Timeout     time.Duration `mapstructure:"NOTIFIER_TIMEOUT"`
}

type ReceiptConfig struct {
	Dir            string `mapstructure:"RECEIPT_DIR"`
	ShopName       string `mapstructure:"SHOP_NAME"`
	CurrencySymbol string `mapstructure:"CURRENCY_SYMBOL"`
}

type HealthConfig struct {
	Timeout time.Duration `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

var defaults = map[string]interface{}{
	"SERVER_PORT":                   "8080",
	"SERVER_HOST":                   "0.0.0.0",
	"ENV":                           "development",
	"SERVER_READ_TIMEOUT":           "15s",
	"SERVER_WRITE_TIMEOUT":          "15s",
	"DATABASE_URL":                  "",
	"DATABASE_HOST":                 "localhost",
	"DATABASE_PORT":                 "5432",
	"DATABASE_NAME":                 "credit_ledger",
	"DATABASE_USER":                 "postgres",
	"DATABASE_PASSWORD":             "",
	"DATABASE_SSLMODE":              "disable",
	"DATABASE_MAX_OPEN_CONNS":       25,
	"DATABASE_MAX_IDLE_CONNS":       5,
	"DATABASE_CONN_MAX_LIFETIME":    "5m",
	"STORE_DRIVER":                  StoreDriverPostgres,
	"STORE_AUTO_MIGRATE":            true,
	"REDIS_ENABLED":                 false,
	"REDIS_URL":                     "",
	"REDIS_HOST":                    "localhost",
	"REDIS_PORT":                    "6379",
	"REDIS_PASSWORD":                "",
	"REDIS_DB":                      0,
	"SUMMARY_CACHE_TTL":             "1m",
	"SCHEDULER_STATUS_REFRESH_SPEC": "0 0 0 * * *",
	"SCHEDULER_REMINDER_SPEC":       "0 0 9 * * *",
	"SCHEDULER_TIMEZONE":            "Asia/Kolkata",
	"REMINDER_LEAD_DAYS":            2,
	"LOG_LEVEL":                     "info",
	"LOG_FORMAT":                    "json",
	"JWT_SECRET":                    "",
	"JWT_TOKEN_TTL":                 "24h",
	"NOTIFIER_PROVIDER":             NotifierLog,
	"WAHA_BASE_URL":                 "http://waha:3000",
	"WAHA_API_KEY":                  "",
	"WAHA_SESSION":                  "default",
	"NOTIFIER_COUNTRY_CODE":         "91",
	"NOTIFIER_TIMEOUT":              "10s",
	"RECEIPT_DIR":                   "./receipts",
	"SHOP_NAME":                     "My Shop",
	"CURRENCY_SYMBOL":               "Rs.",
	"HEALTH_CHECK_TIMEOUT":          "5s",
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// A local .env only fills variables that are not already set.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Read from environment variables
	v.AutomaticEnv()

	// Optional config file, e.g. deployments/config.yaml
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./deployments")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Database.URL == "" && c.Database.Host == "" {
			return fmt.Errorf("DATABASE_URL or DATABASE_HOST is required for the postgres store")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q", StoreDriverPostgres, StoreDriverMemory)
	}

	if c.Auth.JWTSecret == "" && !c.IsDevelopment() {
		return fmt.Errorf("JWT_SECRET is required outside development")
	}

	switch c.Notifier.Provider {
	case NotifierLog:
	case NotifierWaha:
		if _, err := url.ParseRequestURI(c.Notifier.WahaBaseURL); err != nil {
			return fmt.Errorf("WAHA_BASE_URL must be a valid URL: %w", err)
		}
	default:
		return fmt.Errorf("NOTIFIER_PROVIDER must be %q or %q", NotifierLog, NotifierWaha)
	}

	if c.Scheduler.StatusRefreshSpec == "" || c.Scheduler.ReminderSpec == "" {
		return fmt.Errorf("scheduler specs must not be empty")
	}

	if c.Scheduler.ReminderLeadDays < 0 {
		return fmt.Errorf("REMINDER_LEAD_DAYS must not be negative")
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid location: %w", err)
	}

	if c.Cache.SummaryTTL < 0 {
		return fmt.Errorf("SUMMARY_CACHE_TTL must not be negative")
	}

	if c.Health.Timeout <= 0 {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be positive")
	}

	return nil
}

// DSN returns DATABASE_URL, or a connection string built from the parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

// Addr returns the redis host:port pair.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// Location returns the scheduler timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

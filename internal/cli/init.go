// Package cli provides common CLI initialization utilities shared by
// cmd/ledger-import and cmd/ledger-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bookkeeper/internal/amqp"
	"bookkeeper/internal/cache"
	"bookkeeper/internal/config"
	"bookkeeper/internal/core"
	applog "bookkeeper/internal/log"
	"bookkeeper/internal/services"
	"bookkeeper/internal/storage"
)

// SetupLogger initializes structured logging at the given level and makes
// it the default logger.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	c := applog.DefaultConfig()
	c.Component = component
	if cfg != nil {
		c.Level = cfg.SlogLevel()
	}
	logger := applog.New(c)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		applog.Default(applog.ComponentApp).Error("Configuration validation failed",
			applog.NewFields().WithOperation(applog.OpStartup).WithError(err).ToSlice()...)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite opens the ledger database in the configured location.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *applog.Logger, cfg *config.Config) *storage.SQLiteRepository {
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid ledger timezone", "timezone", cfg.Timezone, applog.FieldError, err)
		os.Exit(1)
	}
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath,
		storage.WithLocation(loc),
		storage.WithIDRetries(cfg.CategoryIDRetries))
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	logger.Info("SQLite repository ready", "path", cfg.SQLiteDBPath, "timezone", loc.String())
	return repo
}

// InitAMQP connects to the broker when AMQP_URL is set. A nil client means
// notifications are disabled.
func InitAMQP(logger *applog.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP_URL not set, notifications disabled")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("AMQP client ready", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// NewLedgerService wires the repository, an overview cache registered with
// manager, and the publisher when one is configured.
func NewLedgerService(logger *applog.Logger, cfg *config.Config, repo *storage.SQLiteRepository, publisher *amqp.Client, manager *cache.Manager) *services.LedgerService {
	overviews := cache.NewLRUCache[services.OverviewKey, core.Overview](cfg.CacheSize, cfg.CacheTTL)
	if manager != nil {
		manager.Register(overviews)
	}

	opts := []services.Option{
		services.WithOverviewCache(overviews),
		services.WithLogger(logger.WithComponent(applog.ComponentLedger)),
	}
	if publisher != nil {
		opts = append(opts, services.WithPublisher(publisher))
	}
	return services.NewLedgerService(repo, opts...)
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. The
// returned stop function releases the signal handler.
func GracefulShutdown() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// CloseWithTimeout runs closer and gives up waiting after timeout.
func CloseWithTimeout(logger *applog.Logger, timeout time.Duration, closer func() error) {
	done := make(chan error, 1)
	go func() { done <- closer() }()
	select {
	case err := <-done:
		if err != nil {
			logger.Error("Shutdown cleanup failed", applog.FieldError, err)
			return
		}
		logger.Info("Shutdown complete")
	case <-time.After(timeout):
		logger.Warn("Shutdown timeout reached")
	}
}

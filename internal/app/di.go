// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/allisson/gatekeeper/internal/config"
	contentHTTP "github.com/allisson/gatekeeper/internal/content/http"
	contentUseCase "github.com/allisson/gatekeeper/internal/content/usecase"
	credentialService "github.com/allisson/gatekeeper/internal/credential/service"
	"github.com/allisson/gatekeeper/internal/database"
	"github.com/allisson/gatekeeper/internal/http"
	identityHTTP "github.com/allisson/gatekeeper/internal/identity/http"
	identityUseCase "github.com/allisson/gatekeeper/internal/identity/usecase"
	"github.com/allisson/gatekeeper/internal/metrics"
	"github.com/allisson/gatekeeper/internal/policy"
	"github.com/allisson/gatekeeper/internal/session"
)

// lazy holds one component built on first access. The build result, including its
// error, is cached.
type lazy[T any] struct {
	once  sync.Once
	value T
	err   error
}

func (l *lazy[T]) get(build func() (T, error)) (T, error) {
	l.once.Do(func() {
		l.value, l.err = build()
	})
	return l.value, l.err
}

// Container holds all application dependencies and provides methods to access them.
// Components are created on first access.
type Container struct {
	config *config.Config

	loggerInit sync.Once
	logger     *slog.Logger

	db              lazy[*sql.DB]
	identityStore   lazy[IdentityStore]
	txManager       lazy[database.TxManager]
	hasher          lazy[*credentialService.Argon2Hasher]
	userUseCase     lazy[identityUseCase.UseCase]
	accountHandler  lazy[*identityHTTP.AccountHandler]

	contentStore     lazy[ContentStore]
	contentTxManager lazy[database.TxManager]
	authorUseCase    lazy[contentUseCase.AuthorUseCase]
	postUseCase      lazy[contentUseCase.PostUseCase]
	contentHandler   lazy[*contentHTTP.ContentHandler]

	redisClient     lazy[redis.UniversalClient]
	sessionStore    lazy[session.Store]
	sessionManager  lazy[*session.Manager]
	registry        lazy[*policy.Registry]
	metricsProvider lazy[*metrics.Provider]
	businessMetrics lazy[metrics.BusinessMetrics]
	gateMetrics     lazy[*metrics.GateMetrics]
	httpServer      lazy[*http.Server]
	metricsServer   lazy[*http.MetricsServer]

	mu sync.Mutex
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{config: cfg}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the JSON logger at the configured level.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLogLevel(c.config.LogLevel),
		}))
	})
	return c.logger
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DB returns the SQL connection pool. Only the postgres and mysql store drivers use it.
func (c *Container) DB() (*sql.DB, error) {
	return c.db.get(func() (*sql.DB, error) {
		switch c.config.StoreDriver {
		case config.StoreDriverPostgres, config.StoreDriverMySQL:
		default:
			return nil, fmt.Errorf("store driver %q has no database", c.config.StoreDriver)
		}

		db, err := database.Connect(context.Background(), database.Config{
			Driver:             c.config.StoreDriver,
			ConnectionString:   c.config.DBConnectionString,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return db, nil
	})
}

// MetricsProvider returns the OpenTelemetry provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	return c.metricsProvider.get(func() (*metrics.Provider, error) {
		if !c.config.MetricsEnabled {
			return nil, nil
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics provider: %w", err)
		}
		return provider, nil
	})
}

// BusinessMetrics returns the use-case instruments, or a no-op when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	return c.businessMetrics.get(func() (metrics.BusinessMetrics, error) {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, err
		}
		if provider == nil {
			return metrics.NewNoOpBusinessMetrics(), nil
		}
		return provider.BusinessMetrics()
	})
}

// GateMetrics returns the gate observer, or nil when metrics are disabled.
func (c *Container) GateMetrics() (*metrics.GateMetrics, error) {
	return c.gateMetrics.get(func() (*metrics.GateMetrics, error) {
		provider, err := c.MetricsProvider()
		if err != nil || provider == nil {
			return nil, err
		}
		return provider.GateMetrics()
	})
}

// HTTPServer returns the API server with its router installed.
func (c *Container) HTTPServer() (*http.Server, error) {
	return c.httpServer.get(func() (*http.Server, error) {
		handler, err := c.AccountHandler()
		if err != nil {
			return nil, fmt.Errorf("failed to get account handler for http server: %w", err)
		}
		contentHandler, err := c.ContentHandler()
		if err != nil {
			return nil, fmt.Errorf("failed to get content handler for http server: %w", err)
		}
		registry, err := c.PolicyRegistry()
		if err != nil {
			return nil, fmt.Errorf("failed to get policy registry for http server: %w", err)
		}
		checks, err := c.readinessChecks()
		if err != nil {
			return nil, err
		}

		routerConfig := http.RouterConfig{
			AccountHandler:   handler,
			ContentHandler:   contentHandler,
			Registry:         registry,
			MetricsNamespace: c.config.MetricsNamespace,
			CORSEnabled:      c.config.CORSEnabled,
			CORSAllowOrigins: c.config.CORSAllowOrigins,
		}

		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, err
		}
		if provider != nil {
			gateMetrics, err := c.GateMetrics()
			if err != nil {
				return nil, fmt.Errorf("failed to get gate metrics for http server: %w", err)
			}
			routerConfig.GateObserver = gateMetrics
			routerConfig.MeterProvider = provider.MeterProvider()
		}

		server := http.NewServer(c.config.ServerHost, c.config.ServerPort, c.Logger(), checks...)
		if err := server.SetupRouter(routerConfig); err != nil {
			return nil, fmt.Errorf("failed to set up router: %w", err)
		}
		return server, nil
	})
}

// MetricsServer returns the Prometheus scrape server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	return c.metricsServer.get(func() (*http.MetricsServer, error) {
		provider, err := c.MetricsProvider()
		if err != nil || provider == nil {
			return nil, err
		}
		return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
	})
}

// readinessChecks probes the identity and content stores and, when shared, the session store.
func (c *Container) readinessChecks() ([]http.ReadinessCheck, error) {
	store, err := c.IdentityStore()
	if err != nil {
		return nil, err
	}
	content, err := c.ContentStore()
	if err != nil {
		return nil, err
	}
	checks := []http.ReadinessCheck{
		{Name: "identity_store", Check: store.Ping},
		{Name: "content_store", Check: content.Ping},
	}

	if c.config.SessionDriver == config.SessionDriverRedis {
		client, err := c.RedisClient()
		if err != nil {
			return nil, err
		}
		checks = append(checks, http.ReadinessCheck{
			Name: "session_store",
			Check: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
		})
	}
	return checks, nil
}

// Shutdown releases every initialized resource. Servers are stopped by their callers.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error

	if provider := c.metricsProvider.value; provider != nil {
		if err := provider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if client := c.redisClient.value; client != nil {
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}

	if db := c.db.value; db != nil {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}

	return errors.Join(errs...)
}

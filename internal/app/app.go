// Package app assembles the authentication server: configuration, storage
// backends, domain services, the HTTP surface, and the background workers.
// Everything that can fail at startup fails inside New, before the listener
// ever opens; main stays a thin shell around New and Run.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"signet/internal/auth/cookie"
	"signet/internal/auth/handler"
	"signet/internal/auth/lockout"
	authmetrics "signet/internal/auth/metrics"
	"signet/internal/auth/password"
	"signet/internal/auth/service"
	"signet/internal/auth/store/attempt"
	"signet/internal/auth/store/user"
	"signet/internal/auth/token"
	"signet/internal/auth/tracer"
	"signet/internal/auth/workers/cleanup"
	"signet/internal/platform/config"
	"signet/internal/platform/database"
	"signet/internal/platform/health"
	"signet/internal/platform/logger"
	"signet/internal/platform/metrics"
	"signet/internal/platform/redis"
	"signet/internal/seeder"
	httptransport "signet/internal/transport/http"
)

// attemptStore is the full surface of an attempt-record backend: the lockout
// tracker reads and writes records, the cleanup worker purges stale ones.
type attemptStore interface {
	lockout.Store
	cleanup.AttemptStore
}

// Application owns every long-lived component of the server and the order
// they start and stop in.
type Application struct {
	cfg    config.Server
	logger *slog.Logger

	pool  *database.Pool // nil when DATABASE_URL is unset
	cache *redis.Client  // nil when REDIS_ADDR is unset

	users           service.UserStore
	attempts        attemptStore
	attemptsBackend string

	auth    *service.Service
	tokens  *token.Service
	cleaner *cleanup.Service

	metrics *metrics.Metrics
	health  *health.Handler
	server  *http.Server
}

// New builds a fully wired Application from cfg. The config is validated
// first, so an invalid value is always a startup failure and never a
// request-time one.
func New(cfg config.Server) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg:    cfg,
		logger: logger.New(cfg.LogLevel),
	}

	ctx := context.Background()

	if err := app.initStorage(ctx); err != nil {
		return nil, err
	}

	if err := app.initServices(ctx); err != nil {
		app.closeStorage()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// initStorage connects the configured backends and picks the strongest
// available store for each concern. Both backends are optional: without
// postgres the server keeps accounts in memory, without redis the attempt
// records live next to the accounts.
func (app *Application) initStorage(ctx context.Context) error {
	dbCfg := database.DefaultConfig()
	dbCfg.URL = app.cfg.DatabaseURL

	pool, err := database.New(dbCfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	app.pool = pool

	if pool != nil {
		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := pool.Migrate(migrateCtx); err != nil {
			app.closeStorage()
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	cache, err := redis.New(app.cfg.RedisAddr, app.cfg.RedisDB)
	if err != nil {
		app.closeStorage()
		return fmt.Errorf("connect redis: %w", err)
	}
	app.cache = cache

	usersBackend := "memory"
	if pool != nil {
		app.users = user.NewPostgres(pool.DB())
		usersBackend = "postgres"
	} else {
		app.users = user.NewInMemory()
	}

	// Attempt records prefer redis: they are small, hot, and expire there
	// on their own. The TTL covers the window plus the retention grace so
	// a record outlives its relevance by the same margin the purge worker
	// would grant it.
	switch {
	case cache != nil:
		app.attempts = attempt.NewRedis(cache.Client, app.cfg.Lockout.Window+app.cfg.Cleanup.Grace)
		app.attemptsBackend = "redis"
	case pool != nil:
		app.attempts = attempt.NewPostgres(pool.DB())
		app.attemptsBackend = "postgres"
	default:
		app.attempts = attempt.NewInMemory()
		app.attemptsBackend = "memory"
	}

	app.logger.Info("storage configured",
		"user_store", usersBackend,
		"attempt_store", app.attemptsBackend,
	)
	if pool == nil {
		app.logger.Warn("DATABASE_URL not set, accounts will not survive a restart")
	}

	return nil
}

// initServices builds the domain layer bottom-up: hasher, lockout tracker,
// token issuer, cookie policy, then the authentication service and the
// workers around it. Prometheus collectors register here exactly once per
// process.
func (app *Application) initServices(ctx context.Context) error {
	app.metrics = metrics.New()
	authMetrics := authmetrics.New()

	hasher, err := password.New(app.cfg.Password.Pepper, password.Params{
		MemoryKiB:   app.cfg.Password.MemoryKiB,
		Iterations:  app.cfg.Password.Iterations,
		Parallelism: app.cfg.Password.Parallelism,
	})
	if err != nil {
		return fmt.Errorf("password hasher: %w", err)
	}

	locks, err := lockout.New(app.attempts, app.cfg.Lockout,
		lockout.WithLogger(app.logger),
		lockout.WithMetrics(authMetrics),
	)
	if err != nil {
		return fmt.Errorf("lockout tracker: %w", err)
	}

	tokens, err := token.NewService(app.cfg.Token.Secret, app.cfg.Token.AccessTTL, app.cfg.Token.RefreshTTL)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}
	app.tokens = tokens

	cookies, err := cookie.NewPolicy(app.cfg.Cookie.SameSite, app.cfg.Cookie.Secure)
	if err != nil {
		return fmt.Errorf("cookie policy: %w", err)
	}

	auth, err := service.New(app.users, locks, hasher, tokens, cookies,
		service.WithLogger(app.logger),
		service.WithMetrics(authMetrics),
		service.WithTracer(tracer.NewOTel()),
	)
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}
	app.auth = auth

	cleaner, err := cleanup.New(app.attempts, app.cfg.Lockout.Window,
		cleanup.WithLogger(app.logger),
		cleanup.WithInterval(app.cfg.Cleanup.Interval),
		cleanup.WithRetentionGrace(app.cfg.Cleanup.Grace),
		cleanup.WithMetrics(authMetrics),
	)
	if err != nil {
		return fmt.Errorf("cleanup worker: %w", err)
	}
	app.cleaner = cleaner

	seed := seeder.New(app.users, hasher, app.logger)
	seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := seed.EnsureAdmin(seedCtx, app.cfg.Seed.AdminEmail, app.cfg.Seed.AdminPassword); err != nil {
		return fmt.Errorf("seed administrator: %w", err)
	}

	return nil
}

// initHTTP assembles the router and the http.Server around it. Liveness is
// unconditional; readiness gains a probe per configured backend.
func (app *Application) initHTTP() {
	app.health = health.New(app.cfg.Environment)
	if app.pool != nil {
		app.health.RegisterCheck("database", probeWithTimeout(app.pool.Health))
	}
	if app.cache != nil {
		app.health.RegisterCheck("redis", probeWithTimeout(app.cache.Health))
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:   app.logger,
		Metrics:  app.metrics,
		Health:   app.health,
		Accounts: handler.New(app.auth, app.logger),
		Verifier: app.tokens,
		Timeout:  app.cfg.RequestTimeout,
	})

	app.server = &http.Server{
		Addr:              app.cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Run starts the listener and the background workers, then blocks until a
// shutdown signal arrives or a component fails. Storage connections are
// released before it returns.
func (app *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	app.logger.Info("server listening",
		"addr", app.cfg.Addr,
		"environment", app.cfg.Environment,
	)
	g.Go(func() error {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Redis records expire through their key TTL, so the purge worker only
	// runs for the backends that keep records until told otherwise.
	if app.attemptsBackend != "redis" {
		g.Go(func() error {
			if err := app.cleaner.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("cleanup worker: %w", err)
			}
			return nil
		})
	}

	if app.pool != nil || app.cache != nil {
		g.Go(func() error {
			app.recordStorageStats(ctx)
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		app.logger.Info("shutting down", "timeout", app.cfg.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownTimeout)
		defer cancel()

		if err := app.server.Shutdown(shutdownCtx); err != nil {
			app.logger.Error("graceful shutdown failed, forcing close", "error", err)
			return app.server.Close()
		}
		return nil
	})

	err := g.Wait()
	app.closeStorage()
	if err != nil {
		return err
	}

	app.logger.Info("server stopped")
	return nil
}

// recordStorageStats feeds the database and redis pool gauges on a fixed
// cadence.
func (app *Application) recordStorageStats(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if app.pool != nil {
				app.pool.RecordPoolStats()
			}
			if app.cache != nil {
				app.cache.RecordPoolStats()
			}
		}
	}
}

// closeStorage releases the backend connections. Safe to call with either
// or both unconfigured.
func (app *Application) closeStorage() {
	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error("closing redis", "error", err)
		}
	}
	if app.pool != nil {
		if err := app.pool.Close(); err != nil {
			app.logger.Error("closing database", "error", err)
		}
	}
}

// probeWithTimeout adapts a context-based health probe to the handler's
// CheckFunc shape with a bounded wait.
func probeWithTimeout(probe func(context.Context) error) health.CheckFunc {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return probe(ctx)
	}
}

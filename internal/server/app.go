// Package server wires configuration, storage and services together and
// runs the REST and gRPC servers until the process is signalled to stop.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/carmarket/internal/logging"
	"github.com/dmitrijs2005/carmarket/internal/server/auth"
	"github.com/dmitrijs2005/carmarket/internal/server/config"
	"github.com/dmitrijs2005/carmarket/internal/server/httpapi"
	"github.com/dmitrijs2005/carmarket/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/carmarket/internal/server/services"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/dmitrijs2005/carmarket/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	tokens         *auth.TokenIssuer
	accounts       *services.AccountService
	listings       *services.ListingService
	limiterStorage *httpapi.RedisStorage
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	if c.SecretKey == "" {
		logger.Warn(ctx, "SECRET_KEY is not set, logins will fail until it is configured")
	}

	db, err := sqlOpen("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	tokens := auth.NewTokenIssuer([]byte(c.SecretKey), c.AccessTokenValidityDuration)

	as, err := services.NewAccountService(db, rm, tokens, c, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("account service init error: %w", err)
	}
	ls := services.NewListingService(db, rm, services.NewS3Images(c), logger)

	app := &App{config: c, logger: logger, db: db, tokens: tokens, accounts: as, listings: ls}

	if c.RedisAddr != "" {
		rs, err := httpapi.NewRedisStorage(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("rate limiter storage init error: %w", err)
		}
		app.limiterStorage = rs
	}

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := httpapi.Options{
		CORSOrigins:   app.config.CORSOrigins,
		AuthRateLimit: app.config.AuthRateLimit,
		Registry:      reg,
	}
	// a nil *RedisStorage inside the interface would not read as "no storage"
	if app.limiterStorage != nil {
		opts.LimiterStorage = fiber.Storage(app.limiterStorage)
	}

	s := httpapi.NewServer(app.accounts, app.listings, app.tokens, app.logger, opts)

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "HTTP shutdown failed", logging.ErrorAttrs(err)...)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)

	if err := s.Listen(app.config.HTTPAddr); err != nil {
		app.logger.Error(ctx, "HTTP server failed", logging.ErrorAttrs(err)...)
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.accounts, app.tokens)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", logging.ErrorAttrs(err)...)
		cancelFunc()
	}
}

// Run blocks until a signal arrives, ctx is cancelled or a server fails,
// then stops both servers and releases the database and Redis clients.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.GRPCAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "shutdown cleanup failed", logging.ErrorAttrs(err)...)
	}
	app.logger.Info(ctx, "App stopped")
}

func (app *App) Close() error {
	var errs []error
	if app.limiterStorage != nil {
		errs = append(errs, app.limiterStorage.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	return errors.Join(errs...)
}

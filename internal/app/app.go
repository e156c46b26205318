// Package app wires configuration, storage, services, and transport into a
// runnable server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/comment"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/inviteduser"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/issue"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/machine"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/organization"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/user"
	"github.com/pinpointhq/pinpoint-backend/internal/adapter/postgres/watcher"
	internalauth "github.com/pinpointhq/pinpoint-backend/internal/auth"
	"github.com/pinpointhq/pinpoint-backend/internal/config"
	authsvc "github.com/pinpointhq/pinpoint-backend/internal/service/auth"
	"github.com/pinpointhq/pinpoint-backend/internal/service/issues"
	"github.com/pinpointhq/pinpoint-backend/internal/service/machines"
	"github.com/pinpointhq/pinpoint-backend/internal/transport/rest"
	"github.com/pinpointhq/pinpoint-backend/migrations"
)

// Run is the application entry point. It blocks until ctx is cancelled,
// then shuts the HTTP server down gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	if cfg.Database.MigrateOnStart {
		if err := migrate(ctx, cfg.Database.DSN); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied")
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	issueRepo := issue.New(pool)
	machineRepo := machine.New(pool)
	commentRepo := comment.New(pool)
	watcherRepo := watcher.New(pool)
	userRepo := user.New(pool)
	orgRepo := organization.New(pool)
	invitedRepo := inviteduser.New(pool)
	txManager := postgres.NewTxManager(pool)

	jwtManager := internalauth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	hasher := internalauth.NewHasher(cfg.Auth.BcryptCost)

	issuesSvc := issues.NewService(logger, issueRepo, machineRepo, commentRepo, watcherRepo, invitedRepo, txManager, cfg.Issues)
	machinesSvc := machines.NewService(logger, machineRepo)
	authSvc := authsvc.NewService(logger, userRepo, jwtManager, hasher)

	handler, cleanup := rest.NewRouter(rest.RouterDeps{
		Issues:          rest.NewIssuesHandler(issuesSvc, logger),
		Machines:        rest.NewMachinesHandler(machinesSvc, logger),
		Auth:            rest.NewAuthHandler(authSvc, logger),
		Health:          rest.NewHealthHandler(pool, BuildVersion()),
		Orgs:            orgRepo,
		Validator:       jwtValidator{jwt: jwtManager},
		Logger:          logger,
		CORS:            cfg.CORS,
		RateLimitPerMin: cfg.Server.RateLimitPerMin,
	})
	defer cleanup()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// jwtValidator adapts JWTManager to the transport token validator.
type jwtValidator struct {
	jwt *internalauth.JWTManager
}

func (v jwtValidator) ValidateToken(_ context.Context, token string) (uuid.UUID, string, error) {
	return v.jwt.ValidateAccessToken(token)
}

// migrate applies pending schema migrations from the embedded FS. Goose
// needs database/sql, so it gets its own short-lived connection.
func migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

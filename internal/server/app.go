// Package server initializes and runs the authentication server: it builds
// the config, logger, database pool, and services, applies migrations, and
// starts the HTTP endpoint with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/techroad/techroad/internal/logging"
	"github.com/techroad/techroad/internal/server/auth"
	"github.com/techroad/techroad/internal/server/config"
	"github.com/techroad/techroad/internal/server/httpapi"
	"github.com/techroad/techroad/internal/server/migrations"
	"github.com/techroad/techroad/internal/server/repositories/users"
	"github.com/techroad/techroad/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
}

func NewApp(cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	return &App{config: cfg, logger: logger, db: db}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app...")

	app.initSignalHandler(cancelFunc)

	if err := migrations.Run(ctx, app.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	repo := users.NewPostgresRepository(app.db)
	hasher := auth.NewPasswordHasher(0)
	tokens := auth.NewTokenService(
		[]byte(app.config.SecretKey),
		app.config.AccessTokenTTL,
		app.config.RefreshTokenTTL,
		auth.NewMemoryRevocationStore(),
	)
	authService := services.NewAuthService(repo, hasher, tokens, app.logger)

	srv := httpapi.NewServer(app.config.Address, authService, app.logger)

	err := srv.Run(ctx)

	if closeErr := app.db.Close(); closeErr != nil {
		app.logger.Error(ctx, "db close error", "error", closeErr)
	}
	return err
}

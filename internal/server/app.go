// Package server wires configuration, logging, the user directory and the
// authentication service together into a runnable application.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mrememisaac/communityauth/internal/logging"
	"github.com/mrememisaac/communityauth/internal/server/auth"
	"github.com/mrememisaac/communityauth/internal/server/config"
	"github.com/mrememisaac/communityauth/internal/server/directory"
	"github.com/mrememisaac/communityauth/internal/server/migrations"
	"github.com/mrememisaac/communityauth/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	authService *services.AuthService
}

// NewApp builds the full dependency graph: structured logger, user
// directory, token issuer and the auth service. The directory is Postgres
// (with migrations applied) unless DemoMode selects the in-memory one.
// A signing key that fails issuer validation aborts startup here.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	// Diagnostics go to stderr so interactive stdout stays clean.
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	issuer, err := auth.NewIssuer([]byte(cfg.SecretKey), cfg.TokenIssuer, cfg.TokenAudience, cfg.TokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("issuer init error: %w", err)
	}

	var repo directory.Repository
	var db *sql.DB

	if cfg.DemoMode {
		logger.Info(ctx, "demo mode: using in-memory user directory")
		repo = directory.NewMemoryRepository()
	} else {
		db, err = sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if err := runMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration error: %w", err)
		}
		repo = directory.NewPostgresRepository(db)
	}

	svc := services.NewAuthService(repo, auth.NewHasher(), issuer, logger)

	return &App{config: cfg, logger: logger, db: db, authService: svc}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	return goose.UpContext(ctx, db, ".")
}

func (a *App) AuthService() *services.AuthService {
	return a.authService
}

func (a *App) Logger() logging.Logger {
	return a.logger
}

// Close releases the database handle. In demo mode there is nothing to
// release.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

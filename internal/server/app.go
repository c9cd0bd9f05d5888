// Package server initializes and runs the authgate server. It loads the
// signing keys, opens the database, runs migrations, wires the services,
// and starts the HTTP API with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/auth"
	"github.com/dmitrijs2005/authgate/internal/server/config"
	"github.com/dmitrijs2005/authgate/internal/server/httpapi"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authgate/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	privateKey, err := auth.LoadPrivateKey(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("loading signing key: %w", err)
	}
	issuer := auth.NewTokenIssuer(privateKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTokenValidityDuration)

	verifiers, err := buildVerifiers(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	enrollment := services.NewEnrollmentService(db, repos, issuer, verifiers, cfg.RefreshTokenValidityDuration, logger)
	authentication := services.NewAuthenticationService(db, repos, issuer, verifiers, cfg.RefreshTokenValidityDuration, logger)
	refresh := services.NewRefreshService(db, repos, issuer, cfg.RefreshTokenValidityDuration, logger)

	handler := httpapi.NewHandler(enrollment, authentication, refresh, issuer, logger)
	srv := httpapi.NewServer(cfg.EndpointAddr, cfg.CORSOrigins, handler, logger)

	return &App{config: cfg, logger: logger, db: db, server: srv}, nil
}

// buildVerifiers constructs an assertion verifier per provider that has a
// public key configured. A provider without a key is simply not offered.
func buildVerifiers(cfg *config.Config) (map[models.AuthMethod]*auth.AssertionVerifier, error) {
	providers := map[models.AuthMethod]config.ProviderConfig{
		models.MethodGoogle: cfg.Google,
		models.MethodApple:  cfg.Apple,
	}

	verifiers := map[models.AuthMethod]*auth.AssertionVerifier{}
	for method, provider := range providers {
		if provider.PublicKeyPath == "" {
			continue
		}
		key, err := auth.LoadPublicKey(provider.PublicKeyPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("loading %s public key: %w", method, err)
		}
		verifiers[method] = auth.NewAssertionVerifier(key, provider.Issuer, provider.Audience)
	}
	return verifiers, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err.Error())
	}
}

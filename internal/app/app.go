// Package app wires configuration, stores, services and the HTTP router
// together and runs the server until it is told to stop.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/vaultkeeper/credvault/internal/api"
	"github.com/vaultkeeper/credvault/internal/api/handler"
	"github.com/vaultkeeper/credvault/internal/core/ports"
	"github.com/vaultkeeper/credvault/internal/core/service"
	"github.com/vaultkeeper/credvault/internal/infrastructure/config"
	"github.com/vaultkeeper/credvault/internal/infrastructure/db/memory"
	"github.com/vaultkeeper/credvault/internal/infrastructure/db/redis"
	"github.com/vaultkeeper/credvault/internal/infrastructure/security"
	"github.com/vaultkeeper/credvault/pkg/logger"
)

// App is a fully wired server.
type App struct {
	cfg     *config.Config
	log     zerolog.Logger
	echo    *echo.Echo
	closers []func(context.Context) error
}

// New connects the configured stores, builds the services and registers the
// routes. On error every connection opened so far is closed.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.close(context.Background())
		}
	}()

	cipher, hasher, tokens, err := buildSecurity(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Security.LegacyCompat {
		log.Warn().Msg("legacy plaintext compatibility enabled: unsealed stored passwords and account passwords are accepted as-is")
	}

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, st.closers...)

	if err := st.migrate(ctx); err != nil {
		return nil, fmt.Errorf("prepare %s store: %w", cfg.StorageDriver, err)
	}

	idem, err := a.idempotencyStore(ctx, st.health)
	if err != nil {
		return nil, err
	}

	authSvc := service.NewAuthService(st.accounts, hasher, tokens, logger.Component(log, "auth"))
	vaultSvc := service.NewVaultService(st.credentials, cipher, idem, cfg.Redis.IdempotencyTTL,
		logger.Component(log, "vault"))

	// Request metrics live in a per-app registry; /metrics also serves the
	// default one, which holds the vault counters and runtime collectors.
	reg := prometheus.NewRegistry()
	a.echo = api.NewRouter(api.Deps{
		Auth:       authSvc,
		Vault:      vaultSvc,
		Health:     st.health,
		Log:        log,
		Registerer: reg,
		Gatherer:   prometheus.Gatherers{prometheus.DefaultGatherer, reg},
	})

	log.Info().
		Str("storage", cfg.StorageDriver).
		Str("cipher_mode", string(cipher.Mode())).
		Bool("redis", cfg.Redis.Addr != "").
		Msg("application wired")
	return a, nil
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler { return a.echo }

// Run serves HTTP until ctx is cancelled or SIGINT/SIGTERM arrives, then
// shuts down within the configured timeout and closes the stores.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + a.cfg.Port
		a.log.Info().Str("addr", addr).Msg("http server listening")
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutdown signal received")
	case err, ok := <-errCh:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("http shutdown failed")
	}
	a.close(shutdownCtx)

	a.log.Info().Msg("server stopped")
	return runErr
}

func (a *App) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

// idempotencyStore returns the Redis store when REDIS_ADDR is set and the
// in-process one otherwise.
func (a *App) idempotencyStore(ctx context.Context, health map[string]handler.HealthCheck) (ports.IdempotencyStore, error) {
	if a.cfg.Redis.Addr == "" {
		return memory.NewIdempotencyStore(), nil
	}

	client, err := redis.Connect(ctx, redis.Config{Addr: a.cfg.Redis.Addr, DB: a.cfg.Redis.DB})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	health["redis"] = func(ctx context.Context) error { return redis.Ping(ctx, client) }

	return redis.NewIdempotencyStore(client), nil
}

func buildSecurity(cfg *config.Config) (*security.Cipher, *security.PasswordHasher, *security.TokenService, error) {
	key, err := security.ParseKey(cfg.Security.EncryptionKey)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ENCRYPTION_KEY: %w", err)
	}
	cipher, err := security.NewCipher(key, security.CipherOptions{
		Mode:            security.Mode(strings.ToLower(cfg.Security.CipherMode)),
		LegacyPlaintext: cfg.Security.LegacyCompat,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	hasher := security.NewPasswordHasher(cfg.Security.BcryptCost, cfg.Security.LegacyCompat)
	tokens := security.NewTokenService(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	return cipher, hasher, tokens, nil
}

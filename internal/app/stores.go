package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vaultkeeper/credvault/internal/api/handler"
	"github.com/vaultkeeper/credvault/internal/core/ports"
	"github.com/vaultkeeper/credvault/internal/infrastructure/config"
	"github.com/vaultkeeper/credvault/internal/infrastructure/db/memory"
	"github.com/vaultkeeper/credvault/internal/infrastructure/db/mongo"
	"github.com/vaultkeeper/credvault/internal/infrastructure/db/postgres"
)

// stores is the persistence selected by STORAGE_DRIVER.
type stores struct {
	accounts    ports.AccountRepository
	credentials ports.CredentialRepository
	health      map[string]handler.HealthCheck
	closers     []func(context.Context) error
	migrate     func(ctx context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.StorageDriver {
	case config.DriverMongo:
		return openMongo(ctx, cfg)
	case config.DriverPostgres:
		return openPostgres(ctx, cfg)
	case config.DriverMemory:
		log.Warn().Msg("memory storage selected: data is lost on restart")
		return &stores{
			accounts:    memory.NewAccountRepository(),
			credentials: memory.NewCredentialRepository(),
			health:      map[string]handler.HealthCheck{},
			migrate:     func(context.Context) error { return nil },
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func openMongo(ctx context.Context, cfg *config.Config) (*stores, error) {
	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}

	accounts := mongo.NewAccountRepository(db, cfg.Mongo.AccountsCollection)
	credentials := mongo.NewCredentialRepository(db, cfg.Mongo.CredentialsCollection)

	return &stores{
		accounts:    accounts,
		credentials: credentials,
		health: map[string]handler.HealthCheck{
			"mongodb": func(ctx context.Context) error { return mongo.Ping(ctx, db) },
		},
		closers: []func(context.Context) error{client.Disconnect},
		migrate: func(ctx context.Context) error {
			if err := accounts.EnsureIndexes(ctx); err != nil {
				return fmt.Errorf("account indexes: %w", err)
			}
			if err := credentials.EnsureIndexes(ctx); err != nil {
				return fmt.Errorf("credential indexes: %w", err)
			}
			return nil
		},
	}, nil
}

func openPostgres(ctx context.Context, cfg *config.Config) (*stores, error) {
	pool, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
	if err != nil {
		return nil, err
	}

	return &stores{
		accounts:    postgres.NewAccountRepository(pool),
		credentials: postgres.NewCredentialRepository(pool),
		health: map[string]handler.HealthCheck{
			"postgres": pool.Ping,
		},
		closers: []func(context.Context) error{func(context.Context) error {
			pool.Close()
			return nil
		}},
		migrate: func(ctx context.Context) error { return postgres.Migrate(ctx, pool) },
	}, nil
}

// Migrate prepares the configured store (indexes or schema) and exits.
func Migrate(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range st.closers {
			_ = c(context.Background())
		}
	}()

	if err := st.migrate(ctx); err != nil {
		return err
	}
	log.Info().Str("storage", cfg.StorageDriver).Msg("store prepared")
	return nil
}

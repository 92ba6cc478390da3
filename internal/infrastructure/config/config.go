package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Storage drivers accepted in STORAGE_DRIVER.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	LogPretty       bool          `env:"LOG_PRETTY,       default=false"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`
	StorageDriver   string        `env:"STORAGE_DRIVER,   default=mongo"`

	Security SecurityConfig
	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
}

type SecurityConfig struct {
	JWTSecret     string        `env:"JWT_SECRET"`
	TokenTTL      time.Duration `env:"TOKEN_TTL,               default=24h"`
	EncryptionKey string        `env:"ENCRYPTION_KEY"`
	CipherMode    string        `env:"CIPHER_MODE,             default=cbc"`
	BcryptCost    int           `env:"BCRYPT_COST,             default=10"`
	LegacyCompat  bool          `env:"LEGACY_PLAINTEXT_COMPAT, default=true"`
}

type MongoConfig struct {
	URI                   string `env:"MONGO_URI,                    default=mongodb://localhost:27017"`
	Database              string `env:"MONGO_DB,                     default=password_manager"`
	AccountsCollection    string `env:"MONGO_ACCOUNTS_COLLECTION,    default=Auth"`
	CredentialsCollection string `env:"MONGO_CREDENTIALS_COLLECTION, default=Datastore"`
}

type PostgresConfig struct {
	DSN string `env:"POSTGRES_DSN"`
}

// RedisConfig holds the idempotency cache settings. An empty Addr disables
// Redis and the in-process store is used instead.
type RedisConfig struct {
	Addr           string        `env:"REDIS_ADDR"`
	DB             int           `env:"REDIS_DB,        default=0"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL, default=24h"`
}

// Load reads configuration from environment variables using go-envconfig and
// validates it.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that secrets are present and values are in range. All
// problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Security.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if len(c.Security.EncryptionKey) != 64 {
		errs = append(errs, errors.New("ENCRYPTION_KEY must be 64 hex characters"))
	}
	switch strings.ToLower(c.Security.CipherMode) {
	case "cbc", "gcm":
	default:
		errs = append(errs, fmt.Errorf("CIPHER_MODE %q must be cbc or gcm", c.Security.CipherMode))
	}
	if c.Security.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}

	switch c.StorageDriver {
	case DriverMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo driver"))
		}
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER %q must be mongo, postgres or memory", c.StorageDriver))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

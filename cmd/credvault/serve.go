package main

import (
	"github.com/spf13/cobra"

	"github.com/vaultkeeper/credvault/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve prepares the configured store and runs the HTTP API until SIGINT or SIGTERM.

Environment:
  PORT, ENV, LOG_LEVEL, LOG_PRETTY, SHUTDOWN_TIMEOUT
  JWT_SECRET, TOKEN_TTL, ENCRYPTION_KEY, CIPHER_MODE, BCRYPT_COST, LEGACY_PLAINTEXT_COMPAT
  STORAGE_DRIVER (mongo|postgres|memory), MONGO_URI, MONGO_DB,
  MONGO_ACCOUNTS_COLLECTION, MONGO_CREDENTIALS_COLLECTION, POSTGRES_DSN
  REDIS_ADDR, REDIS_DB, IDEMPOTENCY_TTL`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, log, err := loadRuntime(ctx)
	if err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		return err
	}
	return a.Run(ctx)
}

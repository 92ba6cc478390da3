package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vaultkeeper/credvault/internal/infrastructure/config"
	"github.com/vaultkeeper/credvault/pkg/logger"
)

const serviceName = "credvault"

var rootCmd = &cobra.Command{
	Use:   "credvault",
	Short: "Personal credential vault server",
	Long: `credvault stores third-party login secrets per account, sealed with a
master key. Configuration is read from the environment (see "serve --help").`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// loadRuntime reads the environment and initialises the logger.
func loadRuntime(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load configuration: %w", err)
	}
	return cfg, logger.Init(loggerOptions(cfg)), nil
}

// loggerOptions maps the config onto logger options. Production always logs
// JSON, whatever LOG_PRETTY says.
func loggerOptions(cfg *config.Config) logger.Options {
	return logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty && !cfg.IsProduction(),
		Service: serviceName,
	}
}

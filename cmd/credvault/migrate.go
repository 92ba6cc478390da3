package main

import (
	"github.com/spf13/cobra"

	"github.com/vaultkeeper/credvault/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create indexes (mongo) or apply schema migrations (postgres)",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, log, err := loadRuntime(ctx)
	if err != nil {
		return err
	}
	return app.Migrate(ctx, cfg, log)
}

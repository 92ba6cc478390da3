package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaultkeeper/credvault/internal/infrastructure/security"
)

var keygenCmd = &cobra.Command{
	Use:     "keygen",
	Short:   "Print a random master key suitable for ENCRYPTION_KEY",
	Example: `  export ENCRYPTION_KEY=$(credvault keygen)`,
	Args:    cobra.NoArgs,
	RunE:    runKeygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}

func runKeygen(cmd *cobra.Command, _ []string) error {
	key := make([]byte, security.KeySize)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(key))
	return err
}

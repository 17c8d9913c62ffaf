package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/keygate-io/keygate/internal/interfaces/cli/keygen"
	"github.com/keygate-io/keygate/internal/interfaces/cli/migrate"
	"github.com/keygate-io/keygate/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "keygate",
		Short: "Keygate - license key verification service",
		Long:  `Keygate verifies license keys for client software and exposes an operator API for managing licenses, products and the blacklist.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		keygen.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

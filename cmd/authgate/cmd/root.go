package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "authgate",
	Short: "Authgate is a multi-factor token authentication service",
	Long: `A multi-factor token authentication service: password, email-code,
and TOTP factors accumulate in a per-session ledger until an account's
required authentication methods are all satisfied.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

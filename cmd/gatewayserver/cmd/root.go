// Package cmd implements the gatewayserver CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is set at build time
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "gatewayserver",
	Short: "Authorizing reverse proxy",
	Long: `gatewayserver fronts backend services, resolving each request's bearer
token against the identity service and enforcing per-route permissions
before forwarding it upstream.`,
	Version:      Version,
	SilenceUsage: true,
	// running without a subcommand serves
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, envFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "dotenv file loaded before reading the environment")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

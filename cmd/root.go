package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "opspilot",
	Short: "Opspilot - conversational front door for business operations",
	Long: `Opspilot classifies chat messages into operational intents and routes
them to live-data handlers, retrieval-augmented knowledge answers, or
navigation shortcuts.

Running opspilot without a subcommand starts the HTTP API server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

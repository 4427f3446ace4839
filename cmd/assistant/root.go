package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assistant",
		Short: "VIEW Avocats chat assistant",
		Long: `Chat assistant for the VIEW Avocats website.

Serves the embeddable widget and its JSON API, answers questions with a
language model and optionally grounds answers in the firm's knowledge file.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "path to a config file (default: config/<env>.yaml)")

	cmd.AddCommand(
		NewServeCmd(),
		NewAskCmd(),
		NewChatCmd(),
		NewChunksCmd(),
		NewTranscriptCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// configPath reads the persistent --config flag.
func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/view-avocats/assistant/internal/repository/transcript"
)

// NewTranscriptCmd creates the transcript command.
func NewTranscriptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transcript [session-id]",
		Short: "Print a stored conversation transcript",
		Long: `Print the turns persisted for a session. Transcripts are only kept when
session.transcript is enabled with the redis driver.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscript(cmd.Context(), cmd.OutOrStdout(), configPath(cmd), args[0])
		},
	}
}

func runTranscript(ctx context.Context, out io.Writer, cfgPath, sessionID string) error {
	a, err := newApp(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer a.close()

	turns, err := transcript.New(a.store, 0).Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}
	if len(turns) == 0 {
		fmt.Fprintf(out, "No transcript for session %s\n", sessionID)
		return nil
	}
	for _, t := range turns {
		printTurn(out, t)
	}
	return nil
}

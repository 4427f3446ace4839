package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// NewAskCmd creates the ask command.
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a single question",
		Long: `Answer one question with the configured model and print the reply.

When the knowledge base is enabled the index is built first, so the
answer uses the same retrieved context the widget would get.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			showSources, _ := cmd.Flags().GetBool("sources")
			return runAsk(cmd.Context(), cmd.OutOrStdout(), configPath(cmd), strings.Join(args, " "), showSources)
		},
	}

	cmd.Flags().Bool("sources", false, "print the indexes of the knowledge chunks used for the answer")

	return cmd
}

func runAsk(ctx context.Context, out io.Writer, cfgPath, question string, showSources bool) error {
	a, err := newApp(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.prepareIndex(ctx); err != nil {
		return err
	}

	res := a.responder.Answer(ctx, question)
	if !res.OK() {
		fmt.Fprintln(out, res.Message)
		return nil
	}
	fmt.Fprintln(out, res.Text)

	if showSources && len(res.Sources) > 0 {
		fmt.Fprintf(out, "\nsources: chunks %s\n", joinInts(res.Sources))
	}
	return nil
}

// prepareIndex builds the index synchronously for one-shot commands.
func (a *app) prepareIndex(ctx context.Context) error {
	chunks, err := a.loadKnowledgeIfEnabled()
	if err != nil {
		return err
	}
	if a.retriever == nil {
		return nil
	}
	return a.buildIndex(ctx, chunks)
}

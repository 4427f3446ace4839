package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/view-avocats/assistant/internal/domain/chunk"
	"github.com/view-avocats/assistant/internal/repository/knowledge"
)

// NewChunksCmd creates the chunks command.
func NewChunksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunks [file]",
		Short: "Show how a knowledge file is chunked",
		Long: `Split a knowledge file the way the index build does and print every
chunk with its offset and length. Needs no configuration or API key.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, _ := cmd.Flags().GetInt("size")
			overlap, _ := cmd.Flags().GetInt("overlap")
			width, _ := cmd.Flags().GetInt("width")
			return runChunks(cmd.OutOrStdout(), args[0], size, overlap, width)
		},
	}

	cmd.Flags().Int("size", 1000, "chunk size in characters")
	cmd.Flags().Int("overlap", 200, "characters shared by consecutive chunks")
	cmd.Flags().Int("width", 80, "preview width per chunk")

	return cmd
}

func runChunks(out io.Writer, path string, size, overlap, width int) error {
	if width <= 0 {
		return fmt.Errorf("--width must be positive, got %d", width)
	}
	src, err := knowledge.Load(path)
	if err != nil {
		return err
	}
	chunks, err := chunk.Split(src.Text, size, overlap)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s (%s): %d chunks\n", src.Path, src.Format, len(chunks))
	for _, c := range chunks {
		fmt.Fprintf(out, "%4d  start=%-7d len=%-5d %s\n", c.Index(), c.Start(), c.Len(), truncate(oneLine(c.Text()), width))
	}
	return nil
}

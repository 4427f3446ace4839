package retrieval

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/view-avocats/assistant/internal/domain"
	"github.com/view-avocats/assistant/internal/domain/chunk"
)

// BuildOptions controls how chunks are sent to the embedder.
type BuildOptions struct {
	// BatchSize is the number of chunks per embedding call (default 64).
	BatchSize int
	// Concurrency is the number of embedding calls in flight (default 4).
	Concurrency int
}

func (o BuildOptions) withDefaults() BuildOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = 64
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	return o
}

// Build embeds every chunk and returns a complete index. Any failure aborts the build.
// Vectors land in the slot of their chunk, so the result does not depend on call timing.
func Build(ctx context.Context, emb Embedder, chunks []chunk.Chunk, opts BuildOptions) (*Index, error) {
	opts = opts.withDefaults()
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for start := 0; start < len(chunks); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(chunks))
		g.Go(func() error {
			texts := make([]string, end-start)
			for i, c := range chunks[start:end] {
				texts[i] = c.Text()
			}
			res, err := domain.EmbedAll(gctx, emb, texts)
			if err != nil {
				return fmt.Errorf("embed chunks [%d:%d]: %w", start, end, err)
			}
			copy(vectors[start:end], res.Embeddings)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // already wrapped per batch
	}

	return NewIndex(chunks, vectors)
}

package retrieval

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/view-avocats/assistant/internal/domain"
	"github.com/view-avocats/assistant/internal/metrics"
)

// Stats describes the published index.
type Stats struct {
	Built      bool
	Chunks     int
	Dimensions int
	BuiltAt    time.Time
}

// Retriever answers top-k queries against the published index.
// Publish may run concurrently with Query; readers never see a partial index.
type Retriever struct {
	embedder Embedder
	index    atomic.Pointer[Index]
	logger   *zap.Logger
}

// NewRetriever creates a retriever with no index published.
func NewRetriever(embedder Embedder, logger *zap.Logger) *Retriever {
	return &Retriever{embedder: embedder, logger: logger}
}

// Publish makes idx the index served to queries.
func (r *Retriever) Publish(idx *Index) {
	r.index.Store(idx)
	metrics.IndexChunks.Set(float64(idx.Len()))
	r.logger.Info("Knowledge index published",
		zap.Int("chunks", idx.Len()),
		zap.Int("dimensions", idx.Dimensions()),
	)
}

// Ready reports whether an index has been published.
func (r *Retriever) Ready() bool { return r.index.Load() != nil }

// Query embeds the question and returns the k nearest chunks.
func (r *Retriever) Query(ctx context.Context, question string, k int) ([]Hit, error) {
	idx := r.index.Load()
	if idx == nil {
		return nil, domain.ErrIndexNotBuilt
	}
	if k <= 0 || idx.Len() == 0 {
		return []Hit{}, nil
	}

	start := time.Now()
	defer func() { metrics.RetrievalDuration.Observe(time.Since(start).Seconds()) }()

	res, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("vectorize question: %w", err)
	}
	domain.UsageFrom(ctx).Add(res.TotalTokens)

	hits, err := idx.Search(res.Embedding, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	return hits, nil
}

// Stats reports the published index, zero value when none.
func (r *Retriever) Stats() Stats {
	idx := r.index.Load()
	if idx == nil {
		return Stats{}
	}
	return Stats{
		Built:      true,
		Chunks:     idx.Len(),
		Dimensions: idx.Dimensions(),
		BuiltAt:    idx.BuiltAt(),
	}
}

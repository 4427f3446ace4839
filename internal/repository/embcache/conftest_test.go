package embcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/view-avocats/assistant/internal/db/memory"
	"github.com/view-avocats/assistant/internal/domain"
)

// countingEmbedder derives a one-dimensional vector from the text length.
type countingEmbedder struct {
	mu        sync.Mutex
	batchSeen [][]string
	single    int
	err       error
}

func (c *countingEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.single++
	if c.err != nil {
		return domain.EmbeddingResult{}, c.err
	}
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text))}, TotalTokens: 4}, nil
}

func (c *countingEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batchSeen = append(c.batchSeen, texts)
	if c.err != nil {
		return domain.BatchEmbeddingResult{}, c.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: 4 * len(texts)}, nil
}

// ttlRecorder wraps the memory store and remembers the TTLs it was given.
type ttlRecorder struct {
	*memory.Store
	ttls []time.Duration
	fail error
}

func (r *ttlRecorder) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	r.ttls = append(r.ttls, ttl)
	if r.fail != nil {
		return r.fail
	}
	return r.Store.SetWithTTL(ctx, key, value, ttl)
}

type fixture struct {
	inner   *countingEmbedder
	kv      *ttlRecorder
	lookups *prometheus.CounterVec
	cache   *Embedder
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		inner: &countingEmbedder{},
		kv:    &ttlRecorder{Store: memory.NewStore()},
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "test_embedding_cache_total",
		}, []string{"result"}),
	}
	f.cache = New(f.inner, f.kv, opts, f.lookups, zap.NewNop())
	return f
}

var errUpstream = errors.New("provider down")

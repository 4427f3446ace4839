package retrieval

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/view-avocats/assistant/internal/domain"
	"github.com/view-avocats/assistant/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

// keywordEmbedder maps text to a bag-of-keywords vector, deterministic and offline.
type keywordEmbedder struct {
	vocab []string

	mu         sync.Mutex
	batchCalls int
	failOn     string
	dimsFor    map[string]int
}

func newKeywordEmbedder(vocab ...string) *keywordEmbedder {
	return &keywordEmbedder{vocab: vocab}
}

func (e *keywordEmbedder) vector(text string) []float32 {
	lower := strings.ToLower(text)
	dims := len(e.vocab)
	if n, ok := e.dimsFor[text]; ok {
		dims = n
	}
	v := make([]float32, dims)
	for i := 0; i < dims && i < len(e.vocab); i++ {
		v[i] = float32(strings.Count(lower, e.vocab[i]))
	}
	return v
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if e.failOn != "" && strings.Contains(text, e.failOn) {
		return domain.EmbeddingResult{}, domain.NewServiceError(domain.ServiceEmbedding, 500, "upstream down")
	}
	return domain.EmbeddingResult{Embedding: e.vector(text), TotalTokens: 1}, nil
}

func (e *keywordEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	e.mu.Lock()
	e.batchCalls++
	e.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, t := range texts {
		r, err := e.Embed(ctx, t)
		if err != nil {
			return domain.BatchEmbeddingResult{}, err
		}
		out[i] = r.Embedding
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: len(texts)}, nil
}

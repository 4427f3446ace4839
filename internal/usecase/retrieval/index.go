package retrieval

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/view-avocats/assistant/internal/domain"
	"github.com/view-avocats/assistant/internal/domain/chunk"
)

// Hit is a chunk returned by a search with its cosine distance to the query.
type Hit struct {
	Chunk    chunk.Chunk
	Distance float64
}

type entry struct {
	chunk  chunk.Chunk
	vector []float32
	norm   float64
}

// Index is an immutable set of chunk vectors searched by exhaustive cosine distance.
type Index struct {
	entries []entry
	dim     int
	builtAt time.Time
}

// NewIndex pairs chunks with their vectors. All vectors must share one dimension.
func NewIndex(chunks []chunk.Chunk, vectors [][]float32) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("%d chunks but %d vectors", len(chunks), len(vectors))
	}

	idx := &Index{entries: make([]entry, len(chunks)), builtAt: time.Now().UTC()}
	for i, c := range chunks {
		v := vectors[i]
		if len(v) == 0 {
			return nil, fmt.Errorf("chunk %d: empty vector: %w", c.Index(), domain.ErrEmbeddingProviderError)
		}
		if idx.dim == 0 {
			idx.dim = len(v)
		} else if len(v) != idx.dim {
			return nil, fmt.Errorf("chunk %d has %d dimensions, index has %d: %w",
				c.Index(), len(v), idx.dim, domain.ErrVectorDimMismatch)
		}
		idx.entries[i] = entry{chunk: c, vector: v, norm: norm(v)}
	}
	return idx, nil
}

// Len returns the number of chunks.
func (x *Index) Len() int { return len(x.entries) }

// Dimensions returns the vector dimension, 0 for an empty index.
func (x *Index) Dimensions() int { return x.dim }

// BuiltAt returns the build time (UTC).
func (x *Index) BuiltAt() time.Time { return x.builtAt }

// Search returns at most k hits ordered by increasing distance, ties by chunk index.
func (x *Index) Search(vector []float32, k int) ([]Hit, error) {
	if k <= 0 || len(x.entries) == 0 {
		return []Hit{}, nil
	}
	if len(vector) != x.dim {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w",
			len(vector), x.dim, domain.ErrVectorDimMismatch)
	}

	qn := norm(vector)
	hits := make([]Hit, len(x.entries))
	for i, e := range x.entries {
		hits[i] = Hit{Chunk: e.chunk, Distance: cosineDistance(vector, qn, e.vector, e.norm)}
	}

	slices.SortFunc(hits, func(a, b Hit) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Chunk.Index(), b.Chunk.Index())
	})

	return hits[:min(k, len(hits))], nil
}

func norm(v []float32) float64 {
	var s float64
	for _, f := range v {
		s += float64(f) * float64(f)
	}
	return math.Sqrt(s)
}

// cosineDistance is 1 - cos(a, b). A zero vector is at distance 1 from everything.
func cosineDistance(a []float32, an float64, b []float32, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 1
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return 1 - dot/(an*bn)
}

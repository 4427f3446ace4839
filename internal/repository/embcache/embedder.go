// Package embcache caches embedding vectors in the key-value store so repeated
// questions and unchanged knowledge chunks are not sent to the provider again.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/view-avocats/assistant/internal/db"
	"github.com/view-avocats/assistant/internal/domain"
)

var keyPrefix = domain.KeyPrefix + "emb_cache:"

const defaultTTL = 30 * 24 * time.Hour

// kv is the consumer interface for the cache (ISP).
type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configures the cache.
type Options struct {
	// Model, Dimensions and Endpoint scope the keys: changing any of them
	// starts from an empty cache instead of serving vectors of another shape.
	Model      string
	Dimensions int
	// Endpoint identifies the provider (base URL or provider name).
	Endpoint string
	// TTL of a cached vector; zero keeps it for 30 days.
	TTL time.Duration
}

// Embedder is a caching decorator. Hits report zero tokens.
type Embedder struct {
	inner   domain.Embedder
	kv      kv
	scope   string
	ttl     time.Duration
	lookups *prometheus.CounterVec
	logger  *zap.Logger
}

// New wraps inner. lookups is a counter vec with label "result" (hit/miss) and may be nil.
func New(inner domain.Embedder, s kv, opts Options, lookups *prometheus.CounterVec, logger *zap.Logger) *Embedder {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	return &Embedder{
		inner:   inner,
		kv:      s,
		scope:   scope(opts),
		ttl:     opts.TTL,
		lookups: lookups,
		logger:  logger,
	}
}

// Embed returns the cached vector for text or asks the inner embedder and stores the result.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := e.key(text)
	if vec, ok := e.lookup(ctx, key); ok {
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	res, err := e.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	e.save(ctx, key, res.Embedding)
	return res, nil
}

// BatchEmbed sends only the misses to the inner embedder, in one call. Output order matches texts.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	vectors := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var pending []int
	for i, text := range texts {
		keys[i] = e.key(text)
		if vec, ok := e.lookup(ctx, keys[i]); ok {
			vectors[i] = vec
		} else {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return domain.BatchEmbeddingResult{Embeddings: vectors}, nil
	}

	misses := make([]string, len(pending))
	for j, i := range pending {
		misses[j] = texts[i]
	}
	res, err := domain.EmbedAll(ctx, e.inner, misses)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed %d uncached texts: %w", len(misses), err)
	}

	for j, i := range pending {
		vectors[i] = res.Embeddings[j]
		e.save(ctx, keys[i], vectors[i])
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   vectors,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// HealthCheck passes through to the inner embedder.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // passthrough
	}
	return nil
}

// scope renders model[:d<dims>][:<endpoint hash>] followed by a colon, or "" when unset.
func scope(o Options) string {
	var b strings.Builder
	if o.Model != "" {
		b.WriteString(o.Model)
	}
	if o.Dimensions > 0 {
		b.WriteString(":d" + strconv.Itoa(o.Dimensions))
	}
	if o.Endpoint != "" {
		sum := sha256.Sum256([]byte(o.Endpoint))
		b.WriteString(":" + hex.EncodeToString(sum[:4]))
	}
	if b.Len() == 0 {
		return ""
	}
	return b.String() + ":"
}

func (e *Embedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return keyPrefix + e.scope + hex.EncodeToString(sum[:])
}

// lookup treats store errors and corrupt entries as misses.
func (e *Embedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	vec, err := e.read(ctx, key)
	switch {
	case err == nil:
		e.count("hit")
		return vec, true
	case !errors.Is(err, db.ErrKeyNotFound):
		e.logger.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
	}
	e.count("miss")
	return nil, false
}

func (e *Embedder) read(ctx context.Context, key string) ([]float32, error) {
	data, err := e.kv.Get(ctx, key)
	if err != nil {
		return nil, err //nolint:wrapcheck // classified by lookup
	}
	if len(data) == 0 {
		return nil, db.ErrKeyNotFound
	}
	return decode(data)
}

func (e *Embedder) save(ctx context.Context, key string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	if err := e.kv.SetWithTTL(ctx, key, encode(vec), e.ttl); err != nil {
		e.logger.Warn("Embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (e *Embedder) count(result string) {
	if e.lookups != nil {
		e.lookups.WithLabelValues(result).Inc()
	}
}

// encode packs float32 values little-endian.
func encode(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decode(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("corrupt cached embedding: %d bytes", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return v, nil
}

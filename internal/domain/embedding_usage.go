package domain

import (
	"context"
	"sync/atomic"
)

type embeddingUsageKey struct{}

// EmbeddingUsage tallies the embedding tokens spent answering one chat request.
// The HTTP handler seeds the context, retrieval adds the query tokens and the
// handler reports the total in a response header. A nil *EmbeddingUsage is a no-op.
type EmbeddingUsage struct {
	tokens atomic.Int64
	calls  atomic.Int32
}

// ContextWithUsage attaches a fresh tally to ctx.
func ContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFrom returns the tally attached to ctx, or nil.
func UsageFrom(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// Add records one embedding call. Cache hits count as calls with zero tokens.
func (u *EmbeddingUsage) Add(tokens int) {
	if u == nil {
		return
	}
	u.tokens.Add(int64(tokens))
	u.calls.Add(1)
}

// Tokens returns the total recorded so far.
func (u *EmbeddingUsage) Tokens() int {
	if u == nil {
		return 0
	}
	return int(u.tokens.Load())
}

// Used reports whether any embedding call was recorded.
func (u *EmbeddingUsage) Used() bool {
	return u != nil && u.calls.Load() > 0
}

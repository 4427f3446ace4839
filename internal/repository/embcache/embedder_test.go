package embcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func TestEmbed_MissThenHit(t *testing.T) {
	f := newFixture(t, Options{Model: "text-embedding-3-small"})
	ctx := context.Background()

	first, err := f.cache.Embed(ctx, "horaires")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.TotalTokens != 4 || first.Embedding[0] != 8 {
		t.Fatalf("unexpected miss result: %+v", first)
	}

	second, err := f.cache.Embed(ctx, "horaires")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.TotalTokens != 0 || second.Embedding[0] != 8 {
		t.Errorf("hit should return the cached vector with zero tokens: %+v", second)
	}
	if f.inner.single != 1 {
		t.Errorf("inner called %d times, want 1", f.inner.single)
	}
	if hits := testutil.ToFloat64(f.lookups.WithLabelValues("hit")); hits != 1 {
		t.Errorf("hit counter = %v", hits)
	}
	if misses := testutil.ToFloat64(f.lookups.WithLabelValues("miss")); misses != 1 {
		t.Errorf("miss counter = %v", misses)
	}
}

func TestEmbed_InnerErrorNotCached(t *testing.T) {
	f := newFixture(t, Options{})
	f.inner.err = errUpstream

	if _, err := f.cache.Embed(context.Background(), "q"); !errors.Is(err, errUpstream) {
		t.Fatalf("expected wrapped upstream error, got %v", err)
	}
	if len(f.kv.ttls) != 0 {
		t.Error("failed embeddings must not be written")
	}
}

func TestEmbed_WriteFailureStillAnswers(t *testing.T) {
	f := newFixture(t, Options{})
	f.kv.fail = errors.New("READONLY")

	res, err := f.cache.Embed(context.Background(), "q")
	if err != nil || len(res.Embedding) != 1 {
		t.Fatalf("cache write failure must not fail the call: %+v, %v", res, err)
	}
}

func TestEmbed_CorruptEntryIsMiss(t *testing.T) {
	f := newFixture(t, Options{Model: "m"})
	ctx := context.Background()
	if err := f.kv.Store.Set(ctx, f.cache.key("q"), []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}

	if _, err := f.cache.Embed(ctx, "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.inner.single != 1 {
		t.Error("corrupt entry should fall through to the provider")
	}
}

func TestBatchEmbed_OnlyMissesReachInner(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	if _, err := f.cache.Embed(ctx, "bb"); err != nil {
		t.Fatal(err)
	}

	res, err := f.cache.BatchEmbed(ctx, []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.inner.batchSeen) != 1 || strings.Join(f.inner.batchSeen[0], ",") != "a,ccc" {
		t.Fatalf("inner batch = %v, want [a ccc]", f.inner.batchSeen)
	}
	for i, want := range []float32{1, 2, 3} {
		if res.Embeddings[i][0] != want {
			t.Errorf("vector %d = %v, want %v", i, res.Embeddings[i], want)
		}
	}
	if res.TotalTokens != 8 {
		t.Errorf("TotalTokens = %d, want 8 (two misses)", res.TotalTokens)
	}

	again, err := f.cache.BatchEmbed(ctx, []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatal(err)
	}
	if len(f.inner.batchSeen) != 1 || again.TotalTokens != 0 {
		t.Error("second batch should be served entirely from the cache")
	}
}

func TestBatchEmbed_EmptyAndError(t *testing.T) {
	f := newFixture(t, Options{})

	res, err := f.cache.BatchEmbed(context.Background(), nil)
	if err != nil || len(res.Embeddings) != 0 {
		t.Fatalf("empty input: %+v, %v", res, err)
	}

	f.inner.err = errUpstream
	if _, err := f.cache.BatchEmbed(context.Background(), []string{"x"}); !errors.Is(err, errUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestKey_ScopedByModel(t *testing.T) {
	a := newFixture(t, Options{Model: "text-embedding-3-small"}).cache
	b := newFixture(t, Options{Model: "text-embedding-3-large"}).cache

	if a.key("q") == b.key("q") {
		t.Error("keys must differ across models")
	}
	if !strings.HasPrefix(a.key("q"), keyPrefix+"text-embedding-3-small:") {
		t.Errorf("unexpected key %q", a.key("q"))
	}
}

func TestDimensionChange_DoesNotReuseVectors(t *testing.T) {
	ctx := context.Background()
	shared := newFixture(t, Options{Model: "m", Dimensions: 3})
	if _, err := shared.cache.Embed(ctx, "Horaires du cabinet"); err != nil {
		t.Fatal(err)
	}

	inner := &countingEmbedder{}
	resized := New(inner, shared.kv, Options{Model: "m", Dimensions: 5}, nil, zap.NewNop())
	if _, err := resized.Embed(ctx, "Horaires du cabinet"); err != nil {
		t.Fatal(err)
	}

	if inner.single != 1 {
		t.Errorf("resized cache served a vector cached at another dimension (inner calls = %d)", inner.single)
	}
	if shared.cache.key("q") == resized.key("q") {
		t.Error("keys must differ across dimensions")
	}
}

func TestKey_ScopedByEndpoint(t *testing.T) {
	a := newFixture(t, Options{Model: "m", Endpoint: "openai"}).cache
	b := newFixture(t, Options{Model: "m", Endpoint: "openai@http://localhost:8080/v1"}).cache
	plain := newFixture(t, Options{}).cache

	if a.key("q") == b.key("q") {
		t.Error("keys must differ across endpoints")
	}
	if strings.Count(strings.TrimPrefix(plain.key("q"), keyPrefix), ":") != 0 {
		t.Errorf("unscoped key %q should carry no scope", plain.key("q"))
	}
}

func TestSave_TTL(t *testing.T) {
	f := newFixture(t, Options{})
	if _, err := f.cache.Embed(context.Background(), "q"); err != nil {
		t.Fatal(err)
	}
	if len(f.kv.ttls) != 1 || f.kv.ttls[0] != defaultTTL {
		t.Errorf("ttls = %v, want [%v]", f.kv.ttls, defaultTTL)
	}

	g := newFixture(t, Options{TTL: time.Hour})
	if _, err := g.cache.Embed(context.Background(), "q"); err != nil {
		t.Fatal(err)
	}
	if g.kv.ttls[0] != time.Hour {
		t.Errorf("ttl = %v, want 1h", g.kv.ttls[0])
	}
}

func TestEncodeDecode(t *testing.T) {
	v := []float32{0.25, -1.5, 3}
	got, err := decode(encode(v))
	if err != nil {
		t.Fatal(err)
	}
	for i := range v {
		if got[i] != v[i] {
			t.Fatalf("decode(encode(%v)) = %v", v, got)
		}
	}
	if _, err := decode([]byte{1}); err == nil {
		t.Error("expected error for truncated data")
	}
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderCalls groups the collectors describing calls to one kind of model API.
// All series are labelled by provider and model.
type ProviderCalls struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	tokens   *prometheus.CounterVec
	failures *prometheus.CounterVec
}

func newProviderCalls(subsystem, api string, buckets []float64) *ProviderCalls {
	return &ProviderCalls{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      api + " API calls by outcome.",
		}, []string{"provider", "model", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Latency of successful " + api + " API calls.",
			Buckets:   buckets,
		}, []string{"provider", "model"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tokens_total",
			Help:      "Tokens billed by the " + api + " API.",
		}, []string{"provider", "model", "type"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Failed " + api + " API calls by reason.",
		}, []string{"provider", "model", "reason"}),
	}
}

// Succeeded records a completed call and its latency.
func (p *ProviderCalls) Succeeded(provider, model string, took time.Duration) {
	p.requests.WithLabelValues(provider, model, "success").Inc()
	p.latency.WithLabelValues(provider, model).Observe(took.Seconds())
}

// Failed records a call that returned no usable result.
func (p *ProviderCalls) Failed(provider, model, reason string) {
	p.requests.WithLabelValues(provider, model, "error").Inc()
	p.failures.WithLabelValues(provider, model, reason).Inc()
}

// Tokens adds n billed tokens of the given kind (prompt, completion, total).
func (p *ProviderCalls) Tokens(provider, model, kind string, n int) {
	if n <= 0 {
		return
	}
	p.tokens.WithLabelValues(provider, model, kind).Add(float64(n))
}

func (p *ProviderCalls) collectors() []prometheus.Collector {
	return []prometheus.Collector{p.requests, p.latency, p.tokens, p.failures}
}

var (
	// Embedding covers the embeddings endpoint used for the knowledge index and questions.
	Embedding = newProviderCalls("embedding", "Embedding",
		[]float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10})
	// Chat covers chat completions producing the assistant replies.
	Chat = newProviderCalls("chat", "Chat completion",
		[]float64{0.25, 0.5, 1, 2, 4, 8, 15, 30})
)

package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "assistant"

var (
	// EmbeddingBudgetRemaining is refreshed after every billed embedding call.
	EmbeddingBudgetRemaining = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "budget_tokens_remaining",
		Help:      "Embedding tokens left in the current budget period.",
	}, []string{"provider", "period"})

	// EmbeddingCacheLookups is labelled result=hit|miss.
	EmbeddingCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "cache_lookups_total",
		Help:      "Embedding cache lookups by result.",
	}, []string{"result"})
)

func embeddingCollectors() []prometheus.Collector {
	all := Embedding.collectors()
	return append(all, EmbeddingBudgetRemaining, EmbeddingCacheLookups)
}

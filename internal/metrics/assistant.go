package metrics

import "github.com/prometheus/client_golang/prometheus"

// Knowledge index and conversation metrics.
var (
	IndexChunks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "index_chunks",
		Help:      "Number of chunks in the published knowledge index",
	})

	IndexBuildDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "index_build_duration_seconds",
		Help:      "Duration of the last knowledge index build",
	})

	RetrievalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "retrieval_duration_seconds",
		Help:      "Question embedding plus index search duration",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})

	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Number of open conversation sessions",
	})

	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Conversation submissions by outcome",
		},
		[]string{"result"}, // "success" / "failed" / "busy" / "discarded"
	)
)

func assistantCollectors() []prometheus.Collector {
	return []prometheus.Collector{IndexChunks, IndexBuildDuration, RetrievalDuration, ActiveSessions, SubmissionsTotal}
}

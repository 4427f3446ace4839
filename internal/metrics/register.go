package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var registerOnce sync.Once

// Register registers every collector with the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		var all []prometheus.Collector
		all = append(all, embeddingCollectors()...)
		all = append(all, Chat.collectors()...)
		all = append(all, assistantCollectors()...)
		all = append(all, httpCollectors()...)
		prometheus.MustRegister(all...)
	})
}

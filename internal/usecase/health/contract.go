package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks an upstream model API (embedding or chat).
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexReporter reports whether the knowledge index has been published.
type IndexReporter interface {
	Ready() bool
}

package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a failing dependency; chat may still answer with the fallback.
	Degraded Status = "degraded"
	// Unhealthy indicates the service cannot answer with retrieval at all.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckPending indicates the component is still starting (index build).
	CheckPending CheckResult = "pending"
)

const defaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Option configures optional components.
type Option func(*Service)

// WithEmbedding adds the embedding provider check.
func WithEmbedding(c ProviderChecker) Option {
	return func(s *Service) { s.embedding = c }
}

// WithChat adds the chat provider check.
func WithChat(c ProviderChecker) Option {
	return func(s *Service) { s.chat = c }
}

// WithIndex adds the knowledge index check. A missing index makes the report Unhealthy.
func WithIndex(r IndexReporter) Option {
	return func(s *Service) { s.index = r }
}

// WithTimeout bounds each individual check.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding ProviderChecker
	chat      ProviderChecker
	index     IndexReporter
	timeout   time.Duration
}

// New creates a Service. db can be nil when the in-memory store is used.
func New(db DBPinger, opts ...Option) *Service {
	s := &Service{db: db, timeout: defaultCheckTimeout}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Check runs health checks against all components concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		checks = make(map[string]CheckResult)
	)
	set := func(name string, r CheckResult) {
		mu.Lock()
		checks[name] = r
		mu.Unlock()
	}
	run := func(g *errgroup.Group, name string, fn func(context.Context) error) {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			if err := fn(cctx); err != nil {
				set(name, CheckError)
			} else {
				set(name, CheckOK)
			}
			return nil
		})
	}

	var g errgroup.Group
	if s.db != nil {
		run(&g, "database", s.db.Ping)
	}
	if s.embedding != nil {
		run(&g, "embedding", s.embedding.HealthCheck)
	}
	if s.chat != nil {
		run(&g, "chat", s.chat.HealthCheck)
	}
	_ = g.Wait()

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	if s.index != nil {
		if s.index.Ready() {
			checks["index"] = CheckOK
		} else {
			checks["index"] = CheckPending
			status = Unhealthy
		}
	}

	return Report{Status: status, Checks: checks}
}

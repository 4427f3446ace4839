package chi

import (
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/view-avocats/assistant/internal/metrics"
	"github.com/view-avocats/assistant/internal/usecase/embedding"
	healthuc "github.com/view-avocats/assistant/internal/usecase/health"
)

const maxBodyBytes = 64 << 10

// Options configures the HTTP surface.
type Options struct {
	APIKeys          []string
	AllowedOrigins   []string
	AllowCredentials bool
	MaxMessageChars  int
	Widget           WidgetConfig
}

// Server holds the HTTP handlers of the assistant API.
type Server struct {
	answerer      Answerer
	sessions      Sessions
	health        HealthChecker
	index         IndexStats
	usage         UsageReporter
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. index may be nil when the knowledge base is disabled.
func NewServer(
	answerer Answerer,
	sessions Sessions,
	health HealthChecker,
	index IndexStats,
	opts Options,
	logger *zap.Logger,
) *Server {
	opts.Widget = opts.Widget.withDefaults()
	if opts.Widget.MaxMessageChars == 0 {
		opts.Widget.MaxMessageChars = opts.MaxMessageChars
	}
	return &Server{
		answerer:      answerer,
		sessions:      sessions,
		health:        health,
		index:         index,
		opts:          opts,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// WithUsage enables GET /usage.
func (s *Server) WithUsage(u UsageReporter) *Server {
	s.usage = u
	return s
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() http.Handler {
	r := chirouter.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(corsMiddleware(s.opts.AllowedOrigins, s.opts.AllowCredentials))
	r.Use(BearerAuthMiddleware(s.opts.APIKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/", s.Widget)
	r.Post("/chat", s.Chat)
	r.Get("/chat", s.ChatQuery)
	r.Route("/sessions", func(r chirouter.Router) {
		r.Post("/", s.CreateSession)
		r.Get("/{sessionID}", s.GetSession)
		r.Delete("/{sessionID}", s.DeleteSession)
		r.Post("/{sessionID}/messages", s.SubmitMessage)
	})
	r.Get("/knowledge", s.Knowledge)
	r.Get("/usage", s.GetUsage)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	return r
}

// Knowledge handles GET /knowledge.
func (s *Server) Knowledge(w http.ResponseWriter, _ *http.Request) {
	if s.index == nil {
		writeJSON(w, http.StatusOK, KnowledgeResponse{})
		return
	}
	st := s.index.Stats()
	resp := KnowledgeResponse{
		Enabled:    true,
		Built:      st.Built,
		Chunks:     st.Chunks,
		Dimensions: st.Dimensions,
	}
	if st.Built {
		t := st.BuiltAt.UTC()
		resp.BuiltAt = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetUsage handles GET /usage?period=daily|monthly.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	if s.usage == nil {
		writeError(w, http.StatusNotFound, CodeBadRequest, "usage reporting is disabled")
		return
	}

	period := embedding.PeriodMonthly
	switch p := r.URL.Query().Get("period"); p {
	case "", string(embedding.PeriodMonthly):
	case string(embedding.PeriodDaily):
		period = embedding.PeriodDaily
	default:
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "period must be \"daily\" or \"monthly\"")
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	writeJSON(w, http.StatusOK, UsageResponse{
		Period:          string(report.Period),
		Provider:        report.Provider,
		PeriodStartAt:   report.PeriodStart,
		PeriodEndAt:     report.PeriodEnd,
		TokensUsed:      report.Used,
		TokensLimit:     report.Limit,
		TokensRemaining: report.Remaining,
		IsExhausted:     report.Exhausted,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	// degraded still answers (with the fallback if need be); only a missing index is fatal
	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

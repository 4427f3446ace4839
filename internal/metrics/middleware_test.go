package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMain(m *testing.M) {
	Register()
	os.Exit(m.Run())
}

func served(method, route, code string) float64 {
	return testutil.ToFloat64(requestCount.With(prometheus.Labels{"method": method, "route": route, "code": code}))
}

func TestMiddleware_CountsAndTimes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/chat", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	before := served("POST", "/chat", "200")
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/chat", http.NoBody))

	if got := served("POST", "/chat", "200") - before; got != 1 {
		t.Errorf("requests_total delta = %v, want 1", got)
	}
	if testutil.CollectAndCount(requestLatency) == 0 {
		t.Error("request_duration_seconds has no series")
	}
	if got := testutil.ToFloat64(requestsInFlight); got != 0 {
		t.Errorf("requests_in_flight = %v after the request finished", got)
	}
}

func TestMiddleware_InFlightDuringHandler(t *testing.T) {
	var during float64
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/slow", func(w http.ResponseWriter, _ *http.Request) {
		during = testutil.ToFloat64(requestsInFlight)
		w.WriteHeader(http.StatusNoContent)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", http.NoBody))

	if during != 1 {
		t.Errorf("requests_in_flight inside handler = %v, want 1", during)
	}
}

func TestMiddleware_SessionRouteUsesPattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/sessions/{sessionID}/messages", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	route := "/sessions/{sessionID}/messages"
	before := served("POST", route, "409")
	for _, id := range []string{"a1", "b2", "c3"} {
		req := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/messages", http.NoBody)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := served("POST", route, "409") - before; got != 3 {
		t.Errorf("expected 3 requests under the route pattern, got %v", got)
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/silent", func(http.ResponseWriter, *http.Request) {})
	r.Get("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	for path, code := range map[string]string{"/silent": "200", "/missing": "404", "/boom": "500"} {
		t.Run(path, func(t *testing.T) {
			before := served("GET", path, code)
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, http.NoBody))
			if got := served("GET", path, code) - before; got != 1 {
				t.Errorf("requests_total{route=%q,code=%q} delta = %v, want 1", path, code, got)
			}
		})
	}
}

func TestRouteLabel_NoRouter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", http.NoBody)
	if got := routeLabel(req); got != unmatchedRoute {
		t.Errorf("routeLabel() = %q, want %q", got, unmatchedRoute)
	}
}

func TestStatusLabel(t *testing.T) {
	if got := statusLabel(0); got != "200" {
		t.Errorf("statusLabel(0) = %q", got)
	}
	if got := statusLabel(http.StatusTooManyRequests); got != "429" {
		t.Errorf("statusLabel(429) = %q", got)
	}
}

func TestRegister_Idempotent(t *testing.T) {
	Register()
	Register()
	ActiveSessions.Set(2)
	if got := testutil.ToFloat64(ActiveSessions); got != 2 {
		t.Errorf("ActiveSessions = %f, want 2", got)
	}
}

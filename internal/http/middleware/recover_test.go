package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/wolfman30/leadbox/internal/observability/metrics"
)

func TestRecoverWritesEnvelope(t *testing.T) {
	h := Recover(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Success || env.Message != "Internal server error" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := chi.NewRouter()
	r.Use(Metrics(metrics.New(reg)))
	r.Use(RequestLogger(nil))
	r.Get("/api/leads/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leads/"+id, nil))
	}

	expected := `
# HELP leadbox_http_requests_total Total HTTP requests by route pattern and status
# TYPE leadbox_http_requests_total counter
leadbox_http_requests_total{method="GET",route="/api/leads/{id}",status="204"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "leadbox_http_requests_total"); err != nil {
		t.Fatal(err)
	}
}

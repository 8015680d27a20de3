package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("GET", "/api/leads", 200, 0.01)
	m.ObserveRequest("GET", "/api/leads", 200, 0.02)
	m.ObserveRequest("GET", "", 404, 0.01)
	m.ObserveLogin("client", false)
	m.ObserveLeadWrite("create", "api_key")
	m.ObserveAPIKey("generated")
	m.ObserveEmail("verification", true)

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/leads", "200")); got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Fatalf("expected unmatched route label, got %v", got)
	}
	if got := testutil.ToFloat64(m.loginsTotal.WithLabelValues("client", "failure")); got != 1 {
		t.Fatalf("expected 1 failed login, got %v", got)
	}
	if got := testutil.ToFloat64(m.leadsTotal.WithLabelValues("create", "api_key")); got != 1 {
		t.Fatalf("expected 1 lead write, got %v", got)
	}
}

func TestMetricsDefaultRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	prev := prometheus.DefaultRegisterer
	prometheus.DefaultRegisterer = reg
	defer func() { prometheus.DefaultRegisterer = prev }()

	m := New(nil)
	m.ObserveAPIKey("toggled")
	if n, err := testutil.GatherAndCount(reg, "leadbox_apikeys_events_total"); err != nil || n != 1 {
		t.Fatalf("expected one series on default registry, got %d (%v)", n, err)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("GET", "/", 200, 0.1)
	m.ObserveLogin("admin", true)
	m.ObserveLeadWrite("delete", "dashboard")
	m.ObserveAPIKey("regenerated")
	m.ObserveEmail("password_reset", false)
}

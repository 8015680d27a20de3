package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes counters/histograms for the HTTP surface and the
// account, lead and API-key flows.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	loginsTotal     *prometheus.CounterVec
	leadsTotal      *prometheus.CounterVec
	apiKeysTotal    *prometheus.CounterVec
	emailsTotal     *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbox",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route pattern and status",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadbox",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests by route pattern",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		loginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbox",
			Subsystem: "users",
			Name:      "logins_total",
			Help:      "Login attempts by role and outcome",
		}, []string{"role", "result"}),
		leadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbox",
			Subsystem: "leads",
			Name:      "writes_total",
			Help:      "Lead writes by operation and channel",
		}, []string{"operation", "channel"}),
		apiKeysTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbox",
			Subsystem: "apikeys",
			Name:      "events_total",
			Help:      "API key lifecycle events",
		}, []string{"event"}),
		emailsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadbox",
			Subsystem: "notify",
			Name:      "emails_total",
			Help:      "Account emails by kind and outcome",
		}, []string{"kind", "result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration, m.loginsTotal, m.leadsTotal, m.apiKeysTotal, m.emailsTotal)
	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) ObserveLogin(role string, ok bool) {
	if m == nil {
		return
	}
	m.loginsTotal.WithLabelValues(role, outcome(ok)).Inc()
}

// ObserveLeadWrite counts create/update/delete. channel is "dashboard" for
// bearer-token calls and "api_key" for external ingestion.
func (m *Metrics) ObserveLeadWrite(operation, channel string) {
	if m == nil {
		return
	}
	m.leadsTotal.WithLabelValues(operation, channel).Inc()
}

func (m *Metrics) ObserveAPIKey(event string) {
	if m == nil {
		return
	}
	m.apiKeysTotal.WithLabelValues(event).Inc()
}

func (m *Metrics) ObserveEmail(kind string, ok bool) {
	if m == nil {
		return
	}
	m.emailsTotal.WithLabelValues(kind, outcome(ok)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

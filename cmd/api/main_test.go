package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wolfman30/leadbox/internal/api/router"
	appconfig "github.com/wolfman30/leadbox/internal/config"
	httpmiddleware "github.com/wolfman30/leadbox/internal/http/middleware"
	"github.com/wolfman30/leadbox/internal/users"
	"github.com/wolfman30/leadbox/pkg/logging"
)

func TestSetupMetricsExposesMetrics(t *testing.T) {
	handler, obs := setupMetrics()
	if handler == nil || obs == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	obs.ObserveLeadWrite("create", "dashboard")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "leadbox_leads_writes_total") {
		t.Fatalf("expected lead write counter to be exported")
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected runtime collectors to be registered")
	}
}

func TestSetupStorageWithoutPoolUsesMemory(t *testing.T) {
	store := setupStorage(nil)
	if _, ok := store.users.(*users.InMemoryRepository); !ok {
		t.Fatalf("expected in-memory users repository, got %T", store.users)
	}
	if store.leads == nil || store.apiKeys == nil {
		t.Fatalf("expected all repositories to be set")
	}
}

func TestSetupMailerProviders(t *testing.T) {
	logger := logging.New("error")
	for _, provider := range []string{"stub", "sendgrid"} {
		cfg := &appconfig.Config{EmailProvider: provider, SendGridAPIKey: "sg-key", EmailFrom: "no-reply@example.com"}
		mailer, err := setupMailer(context.Background(), cfg, logger)
		if err != nil || mailer == nil {
			t.Fatalf("%s: expected mailer, got %v", provider, err)
		}
	}

	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	cfg := &appconfig.Config{
		EmailProvider:      "ses",
		EmailFrom:          "no-reply@example.com",
		AWSRegion:          "us-east-1",
		AWSAccessKeyID:     "test",
		AWSSecretAccessKey: "test",
	}
	if mailer, err := setupMailer(context.Background(), cfg, logger); err != nil || mailer == nil {
		t.Fatalf("ses: expected mailer, got %v", err)
	}
}

func TestBuildRouterConfigServesHealth(t *testing.T) {
	logger := logging.New("error")
	cfg := &appconfig.Config{JWTSecret: "secret", JWTExpiry: time.Hour, EmailProvider: "stub"}
	mailer, err := setupMailer(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("mailer: %v", err)
	}
	metricsHandler, obs := setupMetrics()
	limiter := httpmiddleware.NewRateLimiter(10, 10)

	h := router.New(buildRouterConfig(cfg, setupStorage(nil), nil, mailer, limiter, obs, metricsHandler, logger))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/leads", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

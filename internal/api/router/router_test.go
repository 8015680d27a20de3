package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/leadbox/internal/apikeys"
	"github.com/wolfman30/leadbox/internal/auth"
	httpmiddleware "github.com/wolfman30/leadbox/internal/http/middleware"
	"github.com/wolfman30/leadbox/internal/leads"
	"github.com/wolfman30/leadbox/internal/observability/metrics"
	"github.com/wolfman30/leadbox/internal/tokens"
	"github.com/wolfman30/leadbox/internal/users"
	"github.com/wolfman30/leadbox/internal/validation"
	"github.com/wolfman30/leadbox/pkg/logging"
)

// linkMailer keeps the last link sent to each address.
type linkMailer struct {
	mu    sync.Mutex
	links map[string]string
}

func (m *linkMailer) record(to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links == nil {
		m.links = map[string]string{}
	}
	m.links[to] = link
	return nil
}

func (m *linkMailer) SendVerification(_ context.Context, to, _, link string, _ int) error {
	return m.record(to, link)
}

func (m *linkMailer) SendPasswordReset(_ context.Context, to, _, link string, _ int) error {
	return m.record(to, link)
}

func (m *linkMailer) token(t *testing.T, to string) string {
	t.Helper()
	m.mu.Lock()
	link, ok := m.links[to]
	m.mu.Unlock()
	require.True(t, ok, "no email sent to %s", to)
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

type testServer struct {
	handler  http.Handler
	users    *users.InMemoryRepository
	mailer   *linkMailer
	issuer   *auth.Issuer
	registry *prometheus.Registry
}

func newTestServer(t *testing.T, limiter *httpmiddleware.RateLimiter) *testServer {
	t.Helper()
	logger := logging.Default()
	registry := prometheus.NewRegistry()
	obs := metrics.New(registry)
	v := validation.New()

	userRepo := users.NewInMemoryRepository()
	mailer := &linkMailer{}
	issuer := auth.NewIssuer("router-secret", time.Hour)
	userSvc := users.NewService(userRepo, issuer,
		tokens.NewVerificationSigner("verify"), tokens.NewResetSigner("reset"),
		mailer, users.ServiceConfig{BackendURL: "http://api", FrontendURL: "http://app"}, obs, logger)

	keyRepo := apikeys.NewInMemoryRepository()
	keySvc := apikeys.NewService(keyRepo, nil, obs, logger)

	h := New(&Config{
		Logger:         logger,
		Users:          users.NewHandler(userSvc, userRepo, v, logger),
		Leads:          leads.NewHandler(leads.NewInMemoryRepository(), v, obs, logger),
		APIKeys:        apikeys.NewHandler(keySvc, keyRepo, userRepo, logger),
		Verifier:       issuer,
		KeyAuth:        keySvc,
		AuthLimiter:    limiter,
		Metrics:        obs,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})
	return &testServer{handler: h, users: userRepo, mailer: mailer, issuer: issuer, registry: registry}
}

func (s *testServer) do(t *testing.T, method, target string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func (s *testServer) login(t *testing.T, path, email, password string) string {
	t.Helper()
	rec, body := s.do(t, http.MethodPost, path, map[string]string{"email": email, "password": password}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return body["data"].(map[string]any)["token"].(string)
}

func TestRouterHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	rec, body := srv.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestRouterMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.do(t, http.MethodGet, "/health", nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `leadbox_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestRouterUnknownRoute(t *testing.T) {
	srv := newTestServer(t, nil)
	rec, body := srv.do(t, http.MethodGet, "/api/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestRouterGuards(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, body := srv.do(t, http.MethodGet, "/api/leads", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No token provided", body["message"])

	rec, _ = srv.do(t, http.MethodPost, "/api/leads/ingest", map[string]string{"email": "a@b.com"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = srv.do(t, http.MethodPost, "/api/users/client/register", map[string]string{
		"name": "Jane Doe", "email": "jane@example.com", "password": "Password123", "confirmPassword": "Password123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	clientToken := srv.login(t, "/api/users/client/login", "jane@example.com", "Password123")

	rec, body = srv.do(t, http.MethodGet, "/api/users/admin/clients", nil, bearer(clientToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "you don't have permission", body["message"])

	rec, _ = srv.do(t, http.MethodGet, "/api/users/profile", nil, bearer(clientToken))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterEndToEnd(t *testing.T) {
	srv := newTestServer(t, nil)
	ctx := context.Background()

	hash, err := auth.HashPassword("AdminPass123")
	require.NoError(t, err)
	require.NoError(t, srv.users.Create(ctx, &users.User{Name: "Root", Email: "admin@example.com", PasswordHash: hash, Role: auth.RoleAdmin}))

	rec, body := srv.do(t, http.MethodPost, "/api/users/client/register", map[string]string{
		"name": "Jane Doe", "email": "jane@example.com", "password": "Password123", "confirmPassword": "Password123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	clientID := body["data"].(map[string]any)["id"].(string)

	expires := time.Now().Add(30 * 24 * time.Hour).UTC().Format(time.RFC3339)
	adminToken := srv.login(t, "/api/users/admin/login", "admin@example.com", "AdminPass123")

	// Keys are only issued to verified clients.
	rec, body = srv.do(t, http.MethodPost, "/api/apikey/"+clientID, map[string]string{"expiresAt": expires}, bearer(adminToken))
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Client not found or not verified")

	verifyToken := srv.mailer.token(t, "jane@example.com")
	rec, body = srv.do(t, http.MethodGet, "/api/users/client/verify-email?token="+url.QueryEscape(verifyToken), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Email verified successfully", body["message"])

	clientToken := srv.login(t, "/api/users/client/login", "jane@example.com", "Password123")

	rec, body = srv.do(t, http.MethodPost, "/api/leads", map[string]any{"email": "a@b.com", "campaign": "fall24"}, bearer(clientToken))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	lead := body["data"].(map[string]any)
	assert.Equal(t, map[string]any{"campaign": "fall24"}, lead["extraFields"])

	rec, _ = srv.do(t, http.MethodPost, "/api/leads", map[string]any{"email": "a@b.com"}, bearer(adminToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = srv.do(t, http.MethodPost, "/api/apikey/"+clientID, map[string]string{"expiresAt": expires}, bearer(adminToken))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	key := body["data"].(map[string]any)["key"].(string)

	rec, body = srv.do(t, http.MethodPost, "/api/leads/ingest", map[string]any{"email": "c@d.com", "score": 7}, map[string]string{"X-API-Key": key})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, clientID, body["data"].(map[string]any)["ownerId"])

	rec, body = srv.do(t, http.MethodGet, "/api/leads", nil, bearer(clientToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])
}

func TestRouterRateLimitsAuthRoutes(t *testing.T) {
	srv := newTestServer(t, httpmiddleware.NewRateLimiter(0.001, 1))
	creds := map[string]string{"email": "nobody@example.com", "password": "x"}

	rec, _ := srv.do(t, http.MethodPost, "/api/users/client/login", creds, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := srv.do(t, http.MethodPost, "/api/users/client/login", creds, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests, please try again later", body["message"])

	// Unlimited routes stay reachable.
	rec, _ = srv.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutesTableCoversEndpoints(t *testing.T) {
	routes := Routes(&Config{})
	seen := map[string]bool{}
	for _, rt := range routes {
		key := rt.Method + " " + rt.Pattern
		assert.False(t, seen[key], "duplicate route %s", key)
		seen[key] = true
	}
	assert.Len(t, routes, 19)
}

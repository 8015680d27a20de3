package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/leadbox/internal/apikeys"
	"github.com/wolfman30/leadbox/internal/auth"
	httpmiddleware "github.com/wolfman30/leadbox/internal/http/middleware"
	"github.com/wolfman30/leadbox/internal/http/response"
	"github.com/wolfman30/leadbox/internal/leads"
	"github.com/wolfman30/leadbox/internal/observability/metrics"
	"github.com/wolfman30/leadbox/internal/users"
	"github.com/wolfman30/leadbox/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Users          *users.Handler
	Leads          *leads.Handler
	APIKeys        *apikeys.Handler
	Verifier       auth.Verifier
	KeyAuth        httpmiddleware.APIKeyAuthenticator
	AuthLimiter    *httpmiddleware.RateLimiter
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler

	CORSAllowedOrigins []string
}

// Guard is a middleware applied to a single route.
type Guard func(http.Handler) http.Handler

// Route is one entry of the route table.
type Route struct {
	Method  string
	Pattern string
	Guards  []Guard
	Handler http.HandlerFunc
}

// Routes returns the full route table. Every exposed endpoint is listed here
// with the guards that protect it.
func Routes(cfg *Config) []Route {
	bearer := Guard(httpmiddleware.Authenticate(cfg.Verifier))
	client := Guard(httpmiddleware.RequireRole(auth.RoleClient))
	admin := Guard(httpmiddleware.RequireRole(auth.RoleAdmin))
	apiKey := Guard(httpmiddleware.APIKey(cfg.KeyAuth, cfg.Logger))
	limited := Guard(passthrough)
	if cfg.AuthLimiter != nil {
		limited = cfg.AuthLimiter.Handler
	}

	u, l, k := cfg.Users, cfg.Leads, cfg.APIKeys
	return []Route{
		{http.MethodPost, "/api/users/client/register", []Guard{limited}, u.Register},
		{http.MethodGet, "/api/users/client/verify-email", nil, u.VerifyEmail},
		{http.MethodPost, "/api/users/client/resend-verification", []Guard{limited}, u.ResendVerification},
		{http.MethodPost, "/api/users/client/login", []Guard{limited}, u.ClientLogin},
		{http.MethodGet, "/api/users/profile", []Guard{bearer}, u.Profile},
		{http.MethodPost, "/api/users/admin/login", []Guard{limited}, u.AdminLogin},
		{http.MethodGet, "/api/users/admin/clients", []Guard{bearer, admin}, u.ListClients},

		{http.MethodPost, "/api/leads/ingest", []Guard{apiKey}, l.Ingest},
		{http.MethodPost, "/api/leads", []Guard{bearer, client}, l.Create},
		{http.MethodGet, "/api/leads", []Guard{bearer, client}, l.List},
		{http.MethodGet, "/api/leads/{id}", []Guard{bearer, client}, l.Get},
		{http.MethodPut, "/api/leads/{id}", []Guard{bearer, client}, l.Update},
		{http.MethodDelete, "/api/leads/{id}", []Guard{bearer, client}, l.Delete},

		{http.MethodPost, "/api/apikey/{clientId}", []Guard{bearer, admin}, k.Generate},
		{http.MethodGet, "/api/apikey/client/{clientId}", []Guard{bearer, admin}, k.ListForClient},
		{http.MethodPatch, "/api/apikey/{apiKeyId}", []Guard{bearer, admin}, k.Toggle},
		{http.MethodPatch, "/api/apikey/{apiKeyId}/regenerate", []Guard{bearer, admin}, k.Regenerate},

		{http.MethodPost, "/api/password/forgot-password", []Guard{limited}, u.ForgotPassword},
		{http.MethodPost, "/api/password/reset-password/{token}", []Guard{limited}, u.ResetPassword},
	}
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.Recover(cfg.Logger))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	r.Use(httpmiddleware.Metrics(cfg.Metrics))

	r.Get("/health", health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	for _, rt := range Routes(cfg) {
		var h http.Handler = rt.Handler
		for i := len(rt.Guards) - 1; i >= 0; i-- {
			h = rt.Guards[i](h)
		}
		r.Method(rt.Method, rt.Pattern, h)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Fail(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Fail(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func passthrough(next http.Handler) http.Handler { return next }

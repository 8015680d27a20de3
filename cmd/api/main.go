package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/leadbox/cmd/mainconfig"
	"github.com/wolfman30/leadbox/internal/api/router"
	"github.com/wolfman30/leadbox/internal/apikeys"
	"github.com/wolfman30/leadbox/internal/auth"
	appconfig "github.com/wolfman30/leadbox/internal/config"
	httpmiddleware "github.com/wolfman30/leadbox/internal/http/middleware"
	"github.com/wolfman30/leadbox/internal/leads"
	"github.com/wolfman30/leadbox/internal/notify"
	"github.com/wolfman30/leadbox/internal/observability/metrics"
	"github.com/wolfman30/leadbox/internal/tokens"
	"github.com/wolfman30/leadbox/internal/users"
	"github.com/wolfman30/leadbox/internal/validation"
	"github.com/wolfman30/leadbox/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.Info("starting leadbox API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := mainconfig.ConnectPostgres(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory storage")
	}
	store := setupStorage(pool)

	redisClient, err := mainconfig.ConnectRedis(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	var keyCache apikeys.Cache
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		keyCache = apikeys.NewRedisCache(redisClient, cfg.APIKeyCacheTTL)
	}

	if cfg.SeedAdminEmail != "" && cfg.SeedAdminPassword != "" {
		if _, created, err := users.SeedAdmin(ctx, store.users, cfg.SeedAdminName, cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			logger.Error("failed to seed admin", "error", err)
		} else if created {
			logger.Info("seeded admin account", "email", cfg.SeedAdminEmail)
		}
	}

	mailer, err := setupMailer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to configure email", "error", err)
		os.Exit(1)
	}

	metricsHandler, obs := setupMetrics()
	limiter := httpmiddleware.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst)
	go limiter.Run(ctx, time.Minute)

	r := router.New(buildRouterConfig(cfg, store, keyCache, mailer, limiter, obs, metricsHandler, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

type storage struct {
	users   users.Repository
	leads   leads.Repository
	apiKeys apikeys.Repository
}

// setupStorage picks Postgres when a pool is available and in-memory
// repositories otherwise.
func setupStorage(pool *pgxpool.Pool) storage {
	if pool == nil {
		return storage{
			users:   users.NewInMemoryRepository(),
			leads:   leads.NewInMemoryRepository(),
			apiKeys: apikeys.NewInMemoryRepository(),
		}
	}
	return storage{
		users:   users.NewPostgresRepository(pool),
		leads:   leads.NewPostgresRepository(pool),
		apiKeys: apikeys.NewPostgresRepository(pool),
	}
}

func setupMailer(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*notify.AccountMailer, error) {
	var sender notify.EmailSender
	switch cfg.EmailProvider {
	case "sendgrid":
		sg, err := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger)
		if err != nil {
			return nil, err
		}
		sender = sg
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		sender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger)
	default:
		sender = notify.NewStubEmailSender(logger)
	}
	logger.Info("email provider configured", "provider", cfg.EmailProvider)
	return notify.NewAccountMailer(sender, cfg.EmailFromName, logger), nil
}

func setupMetrics() (http.Handler, *metrics.Metrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), metrics.New(registry)
}

func buildRouterConfig(
	cfg *appconfig.Config,
	store storage,
	keyCache apikeys.Cache,
	mailer users.Mailer,
	limiter *httpmiddleware.RateLimiter,
	obs *metrics.Metrics,
	metricsHandler http.Handler,
	logger *logging.Logger,
) *router.Config {
	v := validation.New()
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiry)

	userSvc := users.NewService(store.users, issuer,
		tokens.NewVerificationSigner(cfg.VerificationSecret),
		tokens.NewResetSigner(cfg.ResetSecret),
		mailer,
		users.ServiceConfig{
			FrontendURL:          cfg.FrontendURL,
			BackendURL:           cfg.BackendURL,
			RequireVerifiedLogin: cfg.RequireVerifiedEmailLogin,
			TokenTTLSeconds:      int64(issuer.TTL().Seconds()),
		}, obs, logger)
	keySvc := apikeys.NewService(store.apiKeys, keyCache, obs, logger)

	return &router.Config{
		Logger:             logger,
		Users:              users.NewHandler(userSvc, store.users, v, logger),
		Leads:              leads.NewHandler(store.leads, v, obs, logger),
		APIKeys:            apikeys.NewHandler(keySvc, store.apiKeys, store.users, logger),
		Verifier:           issuer,
		KeyAuth:            keySvc,
		AuthLimiter:        limiter,
		Metrics:            obs,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Token secrets. Each token family has its own so one can never be
	// replayed as another.
	JWTSecret          string
	JWTExpiry          time.Duration
	ResetSecret        string
	VerificationSecret string

	FrontendURL string
	BackendURL  string

	// Email delivery: sendgrid, ses or stub.
	EmailProvider  string
	SendGridAPIKey string
	EmailFrom      string
	EmailFromName  string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	CORSAllowedOrigins []string
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
	APIKeyCacheTTL     time.Duration

	RequireVerifiedEmailLogin bool

	SeedAdminName     string
	SeedAdminEmail    string
	SeedAdminPassword string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTExpiry:          getEnvAsDuration("JWT_EXPIRY", 24*time.Hour),
		ResetSecret:        getEnv("RESET_SECRET", ""),
		VerificationSecret: getEnv("VERIFICATION_SECRET", ""),

		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		BackendURL:  getEnv("BACKEND_URL", "http://localhost:8080"),

		EmailProvider:  strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailFrom:      getEnv("EMAIL_FROM", ""),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "Leadbox"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		AuthRateLimitRPS:   getEnvAsFloat("AUTH_RATE_LIMIT_RPS", 1),
		AuthRateLimitBurst: getEnvAsInt("AUTH_RATE_LIMIT_BURST", 10),
		APIKeyCacheTTL:     getEnvAsDuration("API_KEY_CACHE_TTL", 5*time.Minute),

		RequireVerifiedEmailLogin: getEnvAsBool("REQUIRE_VERIFIED_EMAIL_LOGIN", false),

		SeedAdminName:     getEnv("SEED_ADMIN_NAME", "Admin"),
		SeedAdminEmail:    getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
	}
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development" || c.Env == "test"
}

// Validate rejects configurations that cannot serve traffic safely. Outside
// development every token secret and the email provider credentials must be
// set.
func (c *Config) Validate() error {
	var errs []error
	switch c.EmailProvider {
	case "sendgrid":
		if c.SendGridAPIKey == "" {
			errs = append(errs, errors.New("SENDGRID_API_KEY is required when EMAIL_PROVIDER=sendgrid"))
		}
	case "ses", "stub":
	default:
		errs = append(errs, fmt.Errorf("EMAIL_PROVIDER %q is not one of sendgrid, ses, stub", c.EmailProvider))
	}
	if c.AuthRateLimitRPS <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT_RPS must be positive"))
	}

	if !c.IsDevelopment() {
		required := map[string]string{
			"JWT_SECRET":          c.JWTSecret,
			"RESET_SECRET":        c.ResetSecret,
			"VERIFICATION_SECRET": c.VerificationSecret,
			"DATABASE_URL":        c.DatabaseURL,
		}
		for _, key := range []string{"JWT_SECRET", "RESET_SECRET", "VERIFICATION_SECRET", "DATABASE_URL"} {
			if strings.TrimSpace(required[key]) == "" {
				errs = append(errs, fmt.Errorf("%s is required when ENV=%s", key, c.Env))
			}
		}
		if c.EmailProvider != "stub" && c.EmailFrom == "" {
			errs = append(errs, fmt.Errorf("EMAIL_FROM is required when EMAIL_PROVIDER=%s", c.EmailProvider))
		}
	}
	return errors.Join(errs...)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

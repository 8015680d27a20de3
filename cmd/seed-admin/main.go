package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/leadbox/cmd/mainconfig"
	appconfig "github.com/wolfman30/leadbox/internal/config"
	"github.com/wolfman30/leadbox/internal/users"
	"github.com/wolfman30/leadbox/pkg/logging"
)

// seed-admin creates the first admin account. Flags override the
// SEED_ADMIN_* environment variables.
func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	name := flag.String("name", cfg.SeedAdminName, "admin display name")
	email := flag.String("email", cfg.SeedAdminEmail, "admin email")
	password := flag.String("password", cfg.SeedAdminPassword, "admin password")
	flag.Parse()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := mainconfig.ConnectPostgres(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	admin, created, err := users.SeedAdmin(ctx, users.NewPostgresRepository(pool), *name, *email, *password)
	if err != nil {
		logger.Error("failed to seed admin", "error", err)
		os.Exit(1)
	}
	if !created {
		logger.Info("admin already exists", "id", admin.ID, "email", admin.Email)
		return
	}
	logger.Info("admin created", "id", admin.ID, "email", admin.Email)
}

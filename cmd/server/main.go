// Package main is the entry point for the marketplace server.
//
// main only reads configuration, builds the stores and upstream clients and
// starts the server. Everything else lives under internal/.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sakif/madison-marketplace/internal/auth"
	"github.com/sakif/madison-marketplace/internal/cdn"
	"github.com/sakif/madison-marketplace/internal/config"
	"github.com/sakif/madison-marketplace/internal/repository"
	"github.com/sakif/madison-marketplace/internal/repository/cache"
	"github.com/sakif/madison-marketplace/internal/repository/postgres"
	sqliteRepo "github.com/sakif/madison-marketplace/internal/repository/sqlite"
	"github.com/sakif/madison-marketplace/internal/server"
	"github.com/sakif/madison-marketplace/internal/tagger"
)

const startupTimeout = 30 * time.Second

func main() {
	// === 1. CONFIGURATION ===
	// .env first so its values are visible to Load; real env vars win.
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.Load(os.LookupEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// === 2. LOGGING ===
	level, _ := cfg.SlogLevel() // validated by Load
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	// === 3. STORES AND CLIENTS ===
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	deps, err := buildDeps(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("startup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 4. SERVE ===
	srv, err := server.New(*cfg, logger, deps)
	if err != nil {
		closeAll(deps.Closers, logger)
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until SIGINT/SIGTERM and closes the stores on the way out.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// buildDeps opens the configured store and creates whichever optional
// clients have credentials. On error, anything already opened is closed.
func buildDeps(ctx context.Context, cfg *config.Config, logger *slog.Logger) (deps server.Deps, err error) {
	defer func() {
		if err != nil {
			closeAll(deps.Closers, logger)
			deps.Closers = nil
		}
	}()

	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return deps, err
		}
		deps.Closers = append(deps.Closers, db)
		deps.Users = db.Users()
		deps.Listings = db.Listings()

	default:
		// The data directory is created on first run, like `mkdir -p`.
		if cfg.DBPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return deps, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return deps, fmt.Errorf("opening database: %w", err)
		}
		deps.Closers = append(deps.Closers, db)
		deps.Users = db.Users()
		deps.Listings = db.Listings()
	}

	if cfg.RedisAddr != "" {
		users, closer := withUserCache(ctx, cfg, deps.Users, logger)
		if closer != nil {
			deps.Closers = append(deps.Closers, closer)
		}
		deps.Users = users
	}

	if cfg.TaggingEnabled() {
		g, err := tagger.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return deps, err
		}
		deps.Tagger = g
	} else {
		logger.Warn("GEMINI_API_KEY not set, image tagging is disabled")
	}

	if cfg.UploadEnabled() {
		switch cfg.CDNBackend {
		case config.BackendS3:
			u, err := cdn.NewS3(ctx, cdn.S3Config{
				Bucket:    cfg.S3Bucket,
				Region:    cfg.S3Region,
				Endpoint:  cfg.S3Endpoint,
				AccessKey: cfg.S3AccessKey,
				SecretKey: cfg.S3SecretKey,
				PublicURL: cfg.S3PublicURL,
				Folder:    cfg.CDNFolder,
			})
			if err != nil {
				return deps, err
			}
			deps.Uploader = u
		default:
			deps.Uploader = cdn.NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryUploadPreset, cfg.CDNFolder)
		}
	} else {
		logger.Warn("image host not configured, uploads are disabled", slog.String("backend", cfg.CDNBackend))
	}

	// JWT_SECRET must be a long random string, e.g. `openssl rand -hex 32`.
	if cfg.JWTSecret != "" {
		tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
		if err != nil {
			return deps, err
		}
		deps.Tokens = tokens
	} else {
		logger.Warn("JWT_SECRET not set, login works but no session cookie is issued")
	}

	deps.Policy, err = auth.NewPolicy(cfg.EmailDomain, cfg.PasswordPolicy)
	if err != nil {
		return deps, err
	}
	deps.Passwords = auth.NewPasswordService(cfg.BcryptCost)

	return deps, nil
}

// withUserCache puts the Redis cache in front of users. The cache is
// advisory: when Redis is unreachable the server runs on the store alone.
func withUserCache(ctx context.Context, cfg *config.Config, users repository.UserRepository, logger *slog.Logger) (repository.UserRepository, io.Closer) {
	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("redis unreachable, user cache disabled",
			slog.String("addr", cfg.RedisAddr),
			slog.String("error", err.Error()),
		)
		return users, nil
	}
	logger.Info("user cache enabled", slog.String("addr", cfg.RedisAddr))
	return cache.NewUsers(users, rdb, cfg.UserCacheTTL, logger), rdb
}

func closeAll(closers []io.Closer, logger *slog.Logger) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("closing resource", slog.String("error", err.Error()))
		}
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/geocoder89/userhub/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	pool, err := pgxpool.New(ctx, dbURL())
	if err != nil {
		slog.Error("failed to connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		slog.Error("failed to create migrations table", "err", err)
		os.Exit(1)
	}

	migrationsDir := envOr("MIGRATIONS_DIR", "migrations")
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.sql"))
	if err != nil {
		slog.Error("failed to read migrations", "err", err)
		os.Exit(1)
	}
	sort.Strings(files)

	for _, f := range files {
		version := strings.TrimSuffix(filepath.Base(f), ".sql")

		var exists bool
		_ = pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`,
			version,
		).Scan(&exists)
		if exists {
			continue
		}

		sql, err := os.ReadFile(f)
		if err != nil {
			slog.Error("failed to read migration", "file", f, "err", err)
			os.Exit(1)
		}

		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			slog.Error("migration failed", "version", version, "err", err)
			os.Exit(1)
		}

		if _, err := pool.Exec(ctx,
			`INSERT INTO schema_migrations (version) VALUES ($1)`, version,
		); err != nil {
			slog.Error("failed to record migration", "version", version, "err", err)
			os.Exit(1)
		}

		fmt.Printf("applied: %s\n", version)
	}

	fmt.Println("migrations complete")
}

func dbURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	// JWT_SECRET is irrelevant here but config.Load requires it; fall back
	// to the same piecewise env vars the server uses.
	if cfg, err := config.Load(); err == nil {
		return cfg.DBURL
	}

	host := envOr("DB_HOST", "127.0.0.1")
	port := envOr("DB_PORT", "5432")
	user := envOr("DB_USER", "userhub")
	pass := envOr("DB_PASSWORD", "userhub")
	name := envOr("DB_NAME", "userhub")
	ssl := envOr("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

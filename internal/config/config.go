package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	// Token signing. Secret is mandatory: Load fails without it.
	JWTSecret string
	TokenTTL  time.Duration

	// Optional bootstrap superadmin, seeded at startup when both are set.
	SuperadminEmail    string
	SuperadminPassword string

	// Optional redis backend for the login rate limiter.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AllowedOrigins []string

	LoginRateLimit  int
	LoginRateWindow time.Duration

	OTLPEndpoint string
}

func Load() (Config, error) {
	// .env is a dev convenience; absence is fine.
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")

	if secret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	ttlMinutes := getEnvInt("TOKEN_TTL_MINUTES", 60)

	if ttlMinutes <= 0 {
		return Config{}, fmt.Errorf("TOKEN_TTL_MINUTES must be positive, got %d", ttlMinutes)
	}

	cfg := Config{
		Env:                getEnv("APP_ENV", "dev"),
		Port:               getEnvInt("PORT", 8080),
		DBURL:              buildDBURL(),
		JWTSecret:          secret,
		TokenTTL:           time.Duration(ttlMinutes) * time.Minute,
		SuperadminEmail:    os.Getenv("SUPERADMIN_EMAIL"),
		SuperadminPassword: os.Getenv("SUPERADMIN_PASSWORD"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		LoginRateLimit:     getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow:    time.Duration(getEnvInt("LOGIN_RATE_WINDOW_SECONDS", 60)) * time.Second,
		OTLPEndpoint:       os.Getenv("OTLP_ENDPOINT"),
	}

	return cfg, nil
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "userhub")
	pass := getEnv("DB_PASSWORD", "userhub")
	name := getEnv("DB_NAME", "userhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

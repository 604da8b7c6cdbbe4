// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// StoreBackend selects the trip store: "postgres" (default) or "memory".
	StoreBackend string

	// DatabaseURL is the Postgres connection string. Required for the
	// postgres backend.
	DatabaseURL string

	// MemorySeed is an optional JSON file of trips and rooms loaded into the
	// memory backend at startup.
	MemorySeed string

	// PlanCache selects where split-stay plans live: "memory" (default) or "redis".
	PlanCache     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// PlanCacheTTL is how long an untouched plan survives in Redis. Defaults to 720h.
	PlanCacheTTL time.Duration

	// RefetchDelay is the wait before the single re-fetch after a failed
	// submission. Defaults to 750ms.
	RefetchDelay time.Duration

	// StoreRPS and StoreBurst throttle trip store calls per trip.
	StoreRPS   float64
	StoreBurst int

	// StrictMatching refuses to submit a batch when a segment matched fewer
	// days than its duration.
	StrictMatching bool

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// LoadDotEnv seeds the process environment from a .env file. Variables that
// are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config.LoadDotEnv: %w", err)
	}
	return nil
}

// Load reads configuration from environment variables and returns a Config.
// Every missing or malformed variable is reported in one error.
func Load() (Config, error) {
	p := &parser{}
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MemorySeed:     os.Getenv("MEMORY_SEED"),
		PlanCache:      strings.ToLower(getEnv("PLAN_CACHE", BackendMemory)),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        p.intVar("REDIS_DB", 0),
		PlanCacheTTL:   p.durationVar("PLAN_CACHE_TTL", 720*time.Hour),
		RefetchDelay:   p.durationVar("REFETCH_DELAY", 750*time.Millisecond),
		StoreRPS:       p.floatVar("STORE_RPS", 5),
		StoreBurst:     p.intVar("STORE_BURST", 10),
		StrictMatching: p.boolVar("STRICT_MATCHING", false),
		MaxBodyBytes:   int64(p.intVar("MAX_BODY_BYTES", 1<<20)),
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		p.invalid("LOG_LEVEL", cfg.LogLevel)
	}
	switch cfg.StoreBackend {
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			p.missing = append(p.missing, "DATABASE_URL")
		}
	case BackendMemory:
	default:
		p.invalid("STORE_BACKEND", cfg.StoreBackend)
	}
	switch cfg.PlanCache {
	case BackendMemory, BackendRedis:
	default:
		p.invalid("PLAN_CACHE", cfg.PlanCache)
	}
	if cfg.StoreRPS <= 0 {
		p.invalid("STORE_RPS", os.Getenv("STORE_RPS"))
	}
	if cfg.StoreBurst < 1 {
		p.invalid("STORE_BURST", os.Getenv("STORE_BURST"))
	}
	if cfg.MaxBodyBytes < 1 {
		p.invalid("MAX_BODY_BYTES", os.Getenv("MAX_BODY_BYTES"))
	}

	if err := p.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parser reads typed variables and collects every problem so the operator
// sees them all at once.
type parser struct {
	missing []string
	bad     []string
}

func (p *parser) invalid(key, value string) {
	p.bad = append(p.bad, fmt.Sprintf("%s=%q", key, value))
}

func (p *parser) intVar(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.invalid(key, v)
		return fallback
	}
	return n
}

func (p *parser) floatVar(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.invalid(key, v)
		return fallback
	}
	return f
}

func (p *parser) boolVar(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.invalid(key, v)
		return fallback
	}
	return b
}

func (p *parser) durationVar(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		p.invalid(key, v)
		return fallback
	}
	return d
}

func (p *parser) err() error {
	var errs []error
	if len(p.missing) > 0 {
		errs = append(errs, fmt.Errorf("required environment variables not set: %s", strings.Join(p.missing, ", ")))
	}
	if len(p.bad) > 0 {
		errs = append(errs, fmt.Errorf("invalid environment variables: %s", strings.Join(p.bad, ", ")))
	}
	return errors.Join(errs...)
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

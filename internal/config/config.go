// Package config loads the movies service settings from environment
// variables, applies defaults and validates the result. It covers the HTTP
// server, logging, the SQLite store, the two remote backends used to build a
// composite movie, live streams and observability.
package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-movies-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// RemoteConfig points the composite movie lookup at its two backends.
type RemoteConfig struct {
	MovieInfoURL string        // MOVIE_INFO_URL, collection URL of movie infos
	ReviewsURL   string        // REVIEWS_URL, collection URL of reviews
	Timeout      time.Duration // REMOTE_TIMEOUT, per attempt
	MaxRetries   int           // REMOTE_MAX_RETRIES, attempts after the first
	RetryDelay   time.Duration // REMOTE_RETRY_DELAY
}

// StreamConfig sizes the live streams and optionally shares them over Redis.
type StreamConfig struct {
	Buffer        int    // STREAM_BUFFER, per-subscriber queue length
	RedisAddr     string // REDIS_ADDR, empty keeps streams process-local
	ChannelPrefix string // REDIS_CHANNEL_PREFIX
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogRedact      bool   // scrub PII from access logs
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DBPath      string // SQLite path
	MaxBodySize int64  // MAX_BODY_BYTES, request body cap

	// Composite movie backends
	Remote RemoteConfig

	// Live streams
	Stream StreamConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL   time.Duration // how long a given Idempotency-Key is valid
	IdempotencyPurge time.Duration // IDEMPOTENCY_PURGE_INTERVAL, 0 disables

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		LogRedact:      getbool("LOG_REDACT", true),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/v1")),

		// Storage
		DBPath:      getenv("DB_PATH", "movies.db"),
		MaxBodySize: int64(getint("MAX_BODY_BYTES", 1<<20)),

		// Composite movie backends
		Remote: RemoteConfig{
			MovieInfoURL: getenv("MOVIE_INFO_URL", "http://localhost:8080/v1/movieinfos"),
			ReviewsURL:   getenv("REVIEWS_URL", "http://localhost:8080/v1/reviews"),
			Timeout:      getdur("REMOTE_TIMEOUT", 5*time.Second),
			MaxRetries:   getint("REMOTE_MAX_RETRIES", 3),
			RetryDelay:   getdur("REMOTE_RETRY_DELAY", time.Second),
		},

		// Live streams
		Stream: StreamConfig{
			Buffer:        getint("STREAM_BUFFER", 16),
			RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			ChannelPrefix: getenv("REDIS_CHANNEL_PREFIX", "movies"),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL:   getdur("IDEMPOTENCY_TTL", 24*time.Hour),
		IdempotencyPurge: getdur("IDEMPOTENCY_PURGE_INTERVAL", time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-movies-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	return cfg, cfg.Validate()
}

// Validate reports the first setting that is out of range.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}

	checks := []struct {
		bad bool
		msg string
	}{
		{strings.TrimSpace(c.Port) == "", "PORT must not be empty"},
		{c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0, "timeouts must be positive durations"},
		{c.MaxHeaderBytes <= 0, "MAX_HEADER_BYTES must be > 0"},
		{strings.TrimSpace(c.DBPath) == "", "DB_PATH must not be empty"},
		{c.MaxBodySize <= 0, "MAX_BODY_BYTES must be > 0"},

		{!isHTTPURL(c.Remote.MovieInfoURL), "MOVIE_INFO_URL must be an absolute http(s) URL"},
		{!isHTTPURL(c.Remote.ReviewsURL), "REVIEWS_URL must be an absolute http(s) URL"},
		{c.Remote.Timeout <= 0, "REMOTE_TIMEOUT must be > 0"},
		{c.Remote.MaxRetries < 0, "REMOTE_MAX_RETRIES must be >= 0"},
		{c.Remote.RetryDelay < 0, "REMOTE_RETRY_DELAY must be >= 0"},

		{c.Stream.Buffer < 1, "STREAM_BUFFER must be >= 1"},
		{c.Stream.RedisAddr != "" && strings.TrimSpace(c.Stream.ChannelPrefix) == "", "REDIS_CHANNEL_PREFIX must not be empty when REDIS_ADDR is set"},

		{c.RateRPS < 0, "RATE_RPS must be >= 0"},
		{c.RateBurst < 1, "RATE_BURST must be >= 1"},
		{c.Security.HSTSMaxAge < 0, "HSTS_MAX_AGE must be >= 0"},
		{c.IdempotencyTTL <= 0, "IDEMPOTENCY_TTL must be > 0"},
		{c.IdempotencyPurge < 0, "IDEMPOTENCY_PURGE_INTERVAL must be >= 0"},
		{c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]"},
	}
	for _, ck := range checks {
		if ck.bad {
			return errors.New(ck.msg)
		}
	}
	return nil
}

// ---- helpers ----

func isHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}

package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Reserved keys in parse results. A top-level parse rule named RequestKey
// drives sub-crawls; their results are stored under ResultKey. Failed parts
// surface as {ErrorKey: message} markers. Package variables so embedders can
// rename the protocol keys before building any rules.
var (
	RequestKey = "__request__"
	ResultKey  = "__result__"
	ErrorKey   = "__error__"
)

// Config holds all library configuration.
type Config struct {
	Engine EngineConfig
	Fetch  FetchConfig
	Crawl  CrawlConfig
	Log    LogConfig
}

// EngineConfig controls rule evaluation.
type EngineConfig struct {
	// Strict aborts a whole crawler-rule evaluation on the first failed
	// parse rule instead of recording an error marker and continuing.
	Strict bool // default: false
}

// FetchConfig controls the bundled HTTP downloader.
type FetchConfig struct {
	// Timeout is the per-request deadline when the request arguments
	// carry none of their own.
	Timeout time.Duration // default: 60s

	// UserAgent is sent when the request arguments set no User-Agent.
	UserAgent string

	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64 // default: 10 MB

	// MaxRedirects bounds redirect chains.
	MaxRedirects int // default: 10
}

// CrawlConfig controls sub-crawl fan-out.
type CrawlConfig struct {
	// Concurrency is the maximum number of parallel sub-crawls spawned
	// by one __request__ list.
	Concurrency int // default: 10

	// MaxDepth bounds recursive sub-crawls (list page -> detail page ->
	// another list ...). Depth 0 is the top-level crawl.
	MaxDepth int // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Engine: EngineConfig{
			Strict: envBoolOr("SIFT_STRICT", false),
		},
		Fetch: FetchConfig{
			Timeout:      envDurationOr("SIFT_TIMEOUT", 60*time.Second),
			UserAgent:    envOr("SIFT_USER_AGENT", defaultUserAgent),
			MaxBodyBytes: int64(envIntOr("SIFT_MAX_BODY_BYTES", 10<<20)),
			MaxRedirects: envIntOr("SIFT_MAX_REDIRECTS", 10),
		},
		Crawl: CrawlConfig{
			Concurrency: envIntOr("SIFT_CRAWL_CONCURRENCY", 10),
			MaxDepth:    envIntOr("SIFT_CRAWL_MAX_DEPTH", 5),
		},
		Log: LogConfig{
			Level:  envOr("SIFT_LOG_LEVEL", "info"),
			Format: envOr("SIFT_LOG_FORMAT", "text"),
		},
	}
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// Logger builds a slog.Logger from LogConfig.
func (lc LogConfig) Logger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(lc.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

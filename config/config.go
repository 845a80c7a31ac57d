package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Capture   CaptureConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Narrative NarrativeConfig
	Traffic   TrafficConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance used by the browser
// capture strategy.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// DefaultProxy is the default proxy URL for all requests.
	DefaultProxy string
}

// CaptureConfig controls capture acquisition and persistence.
type CaptureConfig struct {
	// CacheDir is where capture documents are persisted between runs.
	CacheDir string // default: ".siteintel/captures"

	// ResultsDir is where analysis results are persisted, one record per run.
	ResultsDir string // default: ".siteintel/results"

	// RequestTimeout is the deadline for one capture strategy attempt.
	RequestTimeout time.Duration // default: 30s

	// NavigationTimeout is the max time for browser navigation alone.
	NavigationTimeout time.Duration // default: 15s

	// SideFetchTimeout bounds the robots.txt / sitemap.xml fetches.
	SideFetchTimeout time.Duration // default: 10s
}

// NarrativeConfig controls the external narrative generator. An empty
// APIKey disables the narrative stage entirely.
type NarrativeConfig struct {
	APIKey  string // from GROQ_API_KEY
	Model   string // default: "llama-3.3-70b-versatile"
	BaseURL string // default: "https://api.groq.com/openai/v1"
}

// TrafficConfig controls the traffic-estimation enrichment. An empty
// APIKey disables the enrichment (a valid, non-error state).
type TrafficConfig struct {
	APIKey  string // from SIMILARWEB_API_KEY
	BaseURL string // default: "https://api.similarweb.com"
}

// WebhookConfig controls completion notifications. An empty URL disables
// delivery.
type WebhookConfig struct {
	URL    string
	Secret string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("SITEINTEL_HOST", "0.0.0.0"),
			Port: envIntOr("SITEINTEL_PORT", 8080),
			Mode: envOr("SITEINTEL_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("SITEINTEL_HEADLESS", true),
			NoSandbox:    envBoolOr("SITEINTEL_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("SITEINTEL_BROWSER_BIN"),
			DefaultProxy: os.Getenv("SITEINTEL_PROXY"),
		},
		Capture: CaptureConfig{
			CacheDir:          envOr("SITEINTEL_CACHE_DIR", ".siteintel/captures"),
			ResultsDir:        envOr("SITEINTEL_RESULTS_DIR", ".siteintel/results"),
			RequestTimeout:    envDurationOr("SITEINTEL_REQUEST_TIMEOUT", 30*time.Second),
			NavigationTimeout: envDurationOr("SITEINTEL_NAV_TIMEOUT", 15*time.Second),
			SideFetchTimeout:  envDurationOr("SITEINTEL_SIDE_FETCH_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("SITEINTEL_AUTH_ENABLED", false),
			APIKeys: envSliceOr("SITEINTEL_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("SITEINTEL_RATE_RPS", 2.0),
			Burst:             envIntOr("SITEINTEL_RATE_BURST", 5),
		},
		Narrative: NarrativeConfig{
			APIKey:  os.Getenv("GROQ_API_KEY"),
			Model:   envOr("SITEINTEL_NARRATIVE_MODEL", "llama-3.3-70b-versatile"),
			BaseURL: envOr("SITEINTEL_NARRATIVE_BASE_URL", "https://api.groq.com/openai/v1"),
		},
		Traffic: TrafficConfig{
			APIKey:  os.Getenv("SIMILARWEB_API_KEY"),
			BaseURL: envOr("SITEINTEL_TRAFFIC_BASE_URL", "https://api.similarweb.com"),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("SITEINTEL_WEBHOOK_URL"),
			Secret: os.Getenv("SITEINTEL_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("SITEINTEL_LOG_LEVEL", "info"),
			Format: envOr("SITEINTEL_LOG_FORMAT", "json"),
		},
	}
}

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

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

package config

import (
	"os"
	"strconv"
	"time"
)

// LLMProvider specifies which LLM backend to use
type LLMProvider string

const (
	LLMProviderGemini LLMProvider = "gemini"
	LLMProviderLocal  LLMProvider = "local"
)

const (
	defaultCacheTTL      = 10 * time.Minute
	defaultHistogramBins = 10
	defaultRowLimit      = 100
)

// Config holds the application configuration.
type Config struct {
	// DatabaseURL is the PostgreSQL connection string
	DatabaseURL string
	// LLMProvider specifies which LLM to use: "gemini" or "local"
	LLMProvider LLMProvider
	// GoogleAPIKey is the API key for Gemini (required if LLMProvider is "gemini")
	GoogleAPIKey string
	// Model is the model name to use
	Model string
	// LocalLLMURL is the URL for local LLM server (e.g., "http://localhost:1234")
	LocalLLMURL string
	// MCPServerAddr is the address for the MCP server
	MCPServerAddr string

	// RedisURL enables the response cache when set (e.g., "redis://localhost:6379/0")
	RedisURL string
	// CacheTTL is how long cached responses live
	CacheTTL time.Duration
	// SemanticLayerPath points at a YAML or JSON semantic layer file
	SemanticLayerPath string
	// HistogramBins is the bucket count used by histogram renderers
	HistogramBins int
	// QueryRowLimit is appended as LIMIT to SELECTs that carry none
	QueryRowLimit int

	// LogLevel is one of trace, debug, info, warn, error
	LogLevel string
	// LogFormat is "console" or "json"
	LogFormat string
}

// New creates a new Config from environment variables.
func New() *Config {
	provider := LLMProvider(getEnvOrDefault("LLM_PROVIDER", "gemini"))

	model := os.Getenv("LLM_MODEL")
	if model == "" {
		if provider == LLMProviderGemini {
			model = "gemini-2.0-flash"
		} else {
			model = "local-model"
		}
	}

	return &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		LLMProvider:       provider,
		GoogleAPIKey:      os.Getenv("GOOGLE_API_KEY"),
		Model:             model,
		LocalLLMURL:       getEnvOrDefault("LOCAL_LLM_URL", "http://localhost:1234"),
		MCPServerAddr:     getEnvOrDefault("MCP_SERVER_ADDR", "localhost:9000"),
		RedisURL:          os.Getenv("REDIS_URL"),
		CacheTTL:          getDurationOrDefault("CACHE_TTL", defaultCacheTTL),
		SemanticLayerPath: os.Getenv("SEMANTIC_LAYER_PATH"),
		HistogramBins:     getIntOrDefault("HISTOGRAM_BINS", defaultHistogramBins),
		QueryRowLimit:     getIntOrDefault("QUERY_ROW_LIMIT", defaultRowLimit),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         getEnvOrDefault("LOG_FORMAT", "console"),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	switch c.LLMProvider {
	case LLMProviderGemini:
		if c.GoogleAPIKey == "" {
			return ErrMissingAPIKey
		}
	case LLMProviderLocal:
		if c.LocalLLMURL == "" {
			return ErrMissingLocalLLMURL
		}
	default:
		return ErrUnknownProvider
	}
	if c.HistogramBins < 1 {
		return ErrInvalidHistogramBins
	}
	if c.QueryRowLimit < 1 {
		return ErrInvalidRowLimit
	}
	return nil
}

// IsLocalLLM returns true if using a local LLM
func (c *Config) IsLocalLLM() bool {
	return c.LLMProvider == LLMProviderLocal
}

// CacheEnabled reports whether a Redis URL was configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != ""
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getIntOrDefault returns -1 for values that do not parse so Validate rejects them.
func getIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return -1
	}
	return n
}

func getDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// Error definitions
type ConfigError string

func (e ConfigError) Error() string { return string(e) }

const (
	ErrMissingDatabaseURL   ConfigError = "DATABASE_URL environment variable is required"
	ErrMissingAPIKey        ConfigError = "GOOGLE_API_KEY environment variable is required when using Gemini"
	ErrMissingLocalLLMURL   ConfigError = "LOCAL_LLM_URL environment variable is required when using local LLM"
	ErrUnknownProvider      ConfigError = "LLM_PROVIDER must be \"gemini\" or \"local\""
	ErrInvalidHistogramBins ConfigError = "HISTOGRAM_BINS must be a positive integer"
	ErrInvalidRowLimit      ConfigError = "QUERY_ROW_LIMIT must be a positive integer"
)

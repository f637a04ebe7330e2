// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for links and redirects.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// DataDir is the root directory of the image store. Every gallery
	// folder lives directly under it.
	DataDir string

	// CredentialsFile is the colon-delimited credentials file consulted
	// on login (username:password:comma-separated-allowed-list).
	CredentialsFile string

	// UploadNetworks is the CIDR whitelist of peers allowed to upload
	// without a session (camera devices on the local network).
	UploadNetworks []string

	// TrustedProxies lists reverse-proxy CIDRs whose forwarding headers
	// may be trusted when resolving the real client IP.
	TrustedProxies []string

	// Identity holds settings for the external identity lookup service.
	Identity IdentityConfig

	// Redis holds Redis connection settings for the session store.
	Redis RedisConfig

	// Session holds session lifetime settings.
	Session SessionConfig

	// Upload holds file upload and thumbnailing settings.
	Upload UploadConfig
}

// IdentityConfig holds settings for the external identity service. An empty
// BaseURL disables enrichment: lookups report absent without a network call.
type IdentityConfig struct {
	// BaseURL is the service root (e.g., "http://directory.lan:9000").
	BaseURL string

	// Timeout bounds every outbound lookup so a stalled service cannot
	// wedge a request.
	Timeout time.Duration
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// SessionConfig holds session lifetime settings.
type SessionConfig struct {
	// TTL is how long sessions last before expiring.
	TTL time.Duration
}

// UploadConfig holds file upload settings.
type UploadConfig struct {
	// MaxSize is the maximum upload file size in bytes.
	MaxSize int64

	// ThumbSize is the bounding box edge for generated thumbnails.
	ThumbSize int

	// Workers bounds concurrent filesystem/decode work in the store.
	Workers int
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing or malformed.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		DataDir:         getEnv("DATA_DIR", "./data"),
		CredentialsFile: getEnv("CREDENTIALS_FILE", "./credentials"),
		UploadNetworks:  splitList(getEnv("UPLOAD_NETWORKS", "127.0.0.1/32")),
		TrustedProxies:  splitList(getEnv("TRUSTED_PROXIES", "")),

		Identity: IdentityConfig{
			BaseURL: getEnv("IDENTITY_URL", ""),
			Timeout: getEnvDuration("IDENTITY_TIMEOUT", 5*time.Second),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Session: SessionConfig{
			TTL: getEnvDuration("SESSION_TTL", 168*time.Hour),
		},

		Upload: UploadConfig{
			MaxSize:   getEnvInt64("MAX_UPLOAD_SIZE", 20*1024*1024), // 20MB
			ThumbSize: getEnvInt("THUMB_SIZE", 200),
			Workers:   getEnvInt("WORKERS", 4),
		},
	}

	// Reject malformed whitelist entries at startup instead of silently
	// admitting nobody (or everybody) at request time.
	for _, cidr := range cfg.UploadNetworks {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return nil, fmt.Errorf("UPLOAD_NETWORKS entry %q: %w", cidr, err)
		}
	}

	if cfg.Upload.Workers < 1 {
		cfg.Upload.Workers = 1
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// splitList parses a comma-separated env value into trimmed, non-empty items.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvInt64 reads an int64 env var or returns the default.
func getEnvInt64(key string, defaultVal int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "168h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// Package config provides centralized configuration management for the service.
// It loads configuration from environment variables with defaults and
// validates every setting on startup so misconfiguration fails fast.
package config

import (
	"strconv"
	"time"

	"github.com/JonMunkholm/csvkit/internal/tabular"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Convert  ConvertConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	History  HistoryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing the response (default: 0, unlimited for downloads)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including draining conversions (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests; it must cover
	// CONVERT_MAX_WAIT_TIME plus CONVERT_TIMEOUT (default: 5m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"5m"`
}

// DatabaseConfig holds the optional history database settings.
// With no URL the service keeps history in memory.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a history database is configured.
func (c *DatabaseConfig) Enabled() bool { return c.URL != "" }

// ConvertConfig holds conversion and cleaning settings.
type ConvertConfig struct {
	// MaxFileSize is the largest accepted upload, e.g. 50MB or 1048576 (default: 50MB)
	MaxFileSize ByteSize `env:"CONVERT_MAX_FILE_SIZE" default:"50MB"`

	// MaxConcurrent is the maximum number of parallel conversions (default: 4)
	MaxConcurrent int `env:"CONVERT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a conversion slot (default: 10s)
	MaxWaitTime time.Duration `env:"CONVERT_MAX_WAIT_TIME" default:"10s"`

	// Timeout bounds a single conversion (default: 2m)
	Timeout time.Duration `env:"CONVERT_TIMEOUT" default:"2m"`

	// PreviewRows caps rows rendered in conversion previews (default: 100)
	PreviewRows int `env:"CONVERT_PREVIEW_ROWS" default:"100"`

	// ViewerRows caps rows rendered by the viewer (default: 500)
	ViewerRows int `env:"CONVERT_VIEWER_ROWS" default:"500"`

	// OutputDelimiter is the default cleaning output delimiter: a character or
	// comma, semicolon, tab, pipe (default: ,)
	OutputDelimiter string `env:"CONVERT_OUTPUT_DELIMITER" default:","`

	// DefaultEncoding is the charset assumed for uploads without one (default: utf-8)
	DefaultEncoding string `env:"CONVERT_DEFAULT_ENCODING" default:"utf-8"`
}

// Delimiter returns the parsed OutputDelimiter, Comma when it is invalid
// or unset. Validate reports invalid values.
func (c *ConvertConfig) Delimiter() tabular.Delimiter {
	d, err := tabular.ParseDelimiter(c.OutputDelimiter)
	if err != nil || d == 0 {
		return tabular.Comma
	}
	return d
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for clean and convert endpoints (default: 20)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey enforces an X-API-Key header on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// HistoryConfig holds conversion history settings.
type HistoryConfig struct {
	// Capacity is how many entries the in-memory history keeps (default: 500)
	Capacity int `env:"HISTORY_CAPACITY" default:"500"`

	// MaxAge is how long entries are retained (default: 720h)
	MaxAge time.Duration `env:"HISTORY_MAX_AGE" default:"720h"`

	// CheckInterval is how often expired entries are purged (default: 1h)
	CheckInterval time.Duration `env:"HISTORY_CHECK_INTERVAL" default:"1h"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Package config loads the process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the binaries read from the environment.
type Config struct {
	Odoo     OdooConfig
	LiveKit  LiveKitConfig
	Realtime RealtimeConfig

	// ReadOnly hides tools that mutate ERP state. Enabled unless ODOO_ALLOW_WRITES=true.
	ReadOnly           bool
	MaxConcurrentCalls int
	AllowlistFile      string
	ServerLogFile      string

	CORSOrigins []string
	Port        int

	LogLevel  string
	LogFormat string

	OTLPEndpoint string
	ServiceName  string

	// Analytics turns usage metrics on. ODOO_SUPPORT_ANALYTICS=false switches them off.
	Analytics bool
}

// OdooConfig parameterizes the ERP session.
type OdooConfig struct {
	Host     string
	Port     int
	Protocol string
	Database string
	Username string
	Password string
	Timeout  time.Duration
}

// LiveKitConfig holds the real-time transport credentials.
type LiveKitConfig struct {
	URL       string
	APIKey    string
	APISecret string
}

// Configured reports whether all three credentials are present.
func (c LiveKitConfig) Configured() bool {
	return c.URL != "" && c.APIKey != "" && c.APISecret != ""
}

// RealtimeConfig holds the speech-to-speech model settings.
type RealtimeConfig struct {
	APIKey      string
	Model       string
	Voice       string
	Temperature float64
}

// LoadEnvFile seeds the environment from a dotenv file. Variables already set win.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Debug("env file not found, skipping", "path", path)
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Odoo: OdooConfig{
			Host:     EnvOr("ODOO_HOST", "localhost"),
			Port:     EnvOrInt("ODOO_PORT", 8069),
			Protocol: EnvOr("ODOO_PROTOCOL", "jsonrpc"),
			Database: EnvOr("ODOO_DB", "odoo"),
			Username: EnvOr("ODOO_USERNAME", "admin"),
			Password: EnvOr("ODOO_PASSWORD", "admin"),
			Timeout:  EnvOrDuration("ODOO_TIMEOUT", 30*time.Second),
		},
		LiveKit: LiveKitConfig{
			URL:       os.Getenv("LIVEKIT_URL"),
			APIKey:    os.Getenv("LIVEKIT_API_KEY"),
			APISecret: os.Getenv("LIVEKIT_API_SECRET"),
		},
		Realtime: RealtimeConfig{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			Model:       EnvOr("OPENAI_REALTIME_MODEL", "gpt-4o-realtime-preview"),
			Voice:       EnvOr("OPENAI_VOICE", "alloy"),
			Temperature: EnvOrFloat("OPENAI_TEMPERATURE", 0.7),
		},
		ReadOnly:           !EnvOrBool("ODOO_ALLOW_WRITES", false),
		MaxConcurrentCalls: EnvOrInt("ODOO_MAX_CONCURRENT_CALLS", 8),
		AllowlistFile:      os.Getenv("ODOO_ALLOWLIST_FILE"),
		ServerLogFile:      EnvOr("ODOO_LOG_FILE", "/var/log/odoo/odoo-server.log"),
		CORSOrigins:        splitList(EnvOr("CORS_ORIGINS", "http://localhost:3000")),
		Port:               EnvOrInt("PORT", 8000),
		LogLevel:           EnvOr("LOG_LEVEL", "info"),
		LogFormat:          EnvOr("LOG_FORMAT", "text"),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:        os.Getenv("OTEL_SERVICE_NAME"),
		Analytics:          EnvOrBool("ODOO_SUPPORT_ANALYTICS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail late, at the first RPC.
func (c *Config) Validate() error {
	if c.Odoo.Host == "" {
		return fmt.Errorf("ODOO_HOST must not be empty")
	}
	if c.Odoo.Port <= 0 || c.Odoo.Port > 65535 {
		return fmt.Errorf("ODOO_PORT must be between 1 and 65535, got %d", c.Odoo.Port)
	}
	switch c.Odoo.Protocol {
	case "jsonrpc", "jsonrpc+ssl":
	default:
		return fmt.Errorf("ODOO_PROTOCOL must be jsonrpc or jsonrpc+ssl, got %q", c.Odoo.Protocol)
	}
	if c.Odoo.Database == "" {
		return fmt.Errorf("ODOO_DB must not be empty")
	}
	if c.MaxConcurrentCalls <= 0 {
		return fmt.Errorf("ODOO_MAX_CONCURRENT_CALLS must be positive, got %d", c.MaxConcurrentCalls)
	}
	return nil
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// EnvOr returns the environment variable value or a fallback default.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EnvOrInt returns an integer environment variable or a fallback default.
// Logs a warning if the value is set but not parseable.
func EnvOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer env var, using fallback", "key", key, "value", v, "fallback", fallback)
		return fallback
	}
	return n
}

// EnvOrFloat returns a float environment variable or a fallback default.
func EnvOrFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid float env var, using fallback", "key", key, "value", v, "fallback", fallback)
		return fallback
	}
	return f
}

// EnvOrBool returns a boolean environment variable or a fallback default.
func EnvOrBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean env var, using fallback", "key", key, "value", v, "fallback", fallback)
		return fallback
	}
	return b
}

// EnvOrDuration returns a duration environment variable or a fallback default.
func EnvOrDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration env var, using fallback", "key", key, "value", v, "fallback", fallback)
		return fallback
	}
	return d
}

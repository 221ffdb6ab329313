// Package config loads gateway configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPort           = "8080"
	DefaultMaxSessions    = 10
	DefaultSessionTimeout = 10 * time.Minute
)

// Config holds all gateway configuration read from environment variables.
type Config struct {
	Port           string        // PORT: HTTP listen port
	JWTSecret      string        // JWT_SECRET: HMAC key for bearer token verification
	MaxSessions    int           // MAX_SESSIONS: hard session capacity ceiling
	SessionTimeout time.Duration // SESSION_TIMEOUT: idle timeout in milliseconds
	AllowedOrigins []string      // ALLOWED_ORIGINS: comma-separated WebSocket origins
	WorkspaceRoot  string        // WORKSPACE_ROOT: base for per-session scratch dirs, empty disables
}

// Load reads configuration with defaults. JWT_SECRET has no default: an
// empty secret makes the gateway fail closed, rejecting every credential.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           envOrDefault("PORT", DefaultPort),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		MaxSessions:    DefaultMaxSessions,
		SessionTimeout: DefaultSessionTimeout,
	}

	if v := os.Getenv("MAX_SESSIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid MAX_SESSIONS %q", v)
		}
		cfg.MaxSessions = n
	}

	if v := os.Getenv("SESSION_TIMEOUT"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 1 {
			return nil, fmt.Errorf("invalid SESSION_TIMEOUT %q", v)
		}
		cfg.SessionTimeout = time.Duration(ms) * time.Millisecond
	}

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = strings.Split(v, ",")
	}
	cfg.WorkspaceRoot = os.Getenv("WORKSPACE_ROOT")

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

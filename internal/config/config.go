package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/bondilirithika/dynamic-saml/pkg/debug"
)

// Config holds the process configuration, sourced from environment
// variables with an optional .env file
type Config struct {
	// APIBase is the backend's base URL (SAML_API_BASE)
	APIBase string
	// AppOrigin is this application's own address, used as the return
	// target for login/logout redirects (SAML_APP_ORIGIN)
	AppOrigin string
	// TokenFile is where the bearer token is persisted (SAML_TOKEN_FILE)
	TokenFile string
	// HTTPTimeout bounds every backend call (SAML_HTTP_TIMEOUT, seconds)
	HTTPTimeout time.Duration
}

const (
	defaultAPIBase     = "http://localhost:8080"
	defaultAppOrigin   = "http://localhost:3000"
	defaultHTTPTimeout = 30 * time.Second
)

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present; missing is fine.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		debug.Debug("Loaded environment from .env file")
	}

	cfg := &Config{
		APIBase:     getEnvOrDefault("SAML_API_BASE", defaultAPIBase),
		AppOrigin:   getEnvOrDefault("SAML_APP_ORIGIN", defaultAppOrigin),
		HTTPTimeout: defaultHTTPTimeout,
	}

	if raw := os.Getenv("SAML_HTTP_TIMEOUT"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid SAML_HTTP_TIMEOUT %q: expected positive seconds", raw)
		}
		cfg.HTTPTimeout = time.Duration(secs) * time.Second
	}

	cfg.TokenFile = os.Getenv("SAML_TOKEN_FILE")
	if cfg.TokenFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory for token file: %w", err)
		}
		cfg.TokenFile = filepath.Join(home, ".config", "dynamic-saml", "token")
	}

	debug.Debug("Config loaded: apiBase=%s origin=%s tokenFile=%s timeout=%s",
		cfg.APIBase, cfg.AppOrigin, cfg.TokenFile, cfg.HTTPTimeout)
	return cfg, nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

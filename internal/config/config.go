package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port              int           `envconfig:"PORT" default:"3000"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`
	Environment       string        `envconfig:"APP_ENV" default:"development"`
	APIBaseURL        string        `envconfig:"API_BASE_URL" default:"http://localhost:8080/api"`
	APITimeout        time.Duration `envconfig:"API_TIMEOUT" default:"10s"`
	SessionCookieName string        `envconfig:"SESSION_COOKIE_NAME" default:"session_token"`
	CSRFKey           string        `envconfig:"CSRF_KEY" default:""`
	AuditDatabaseURL  string        `envconfig:"AUDIT_DATABASE_URL" default:""`
	AuditLogFile      string        `envconfig:"AUDIT_LOG_FILE" default:""`
	Version           string        `envconfig:"VERSION" default:"dev"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether cookies must be restricted to secure transport.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

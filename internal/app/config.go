package app

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	// APIBaseURL points at the backend the console administers.
	APIBaseURL string        `envconfig:"API_BASE_URL" default:"http://localhost:8000/api/v1"`
	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"10s"`

	// AuthExcludedPaths lists backend path prefixes that never receive
	// the bearer token.
	AuthExcludedPaths string `envconfig:"AUTH_EXCLUDED_PATHS" default:"/login,/register,/auth"`

	// APIServiceToken authenticates the worker's backend calls; it has
	// no browser scope to read a token from.
	APIServiceToken string `envconfig:"API_SERVICE_TOKEN"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	GoogleClientID    string `envconfig:"GOOGLE_CLIENT_ID"`
	IdentityBrokerURL string `envconfig:"IDENTITY_BROKER_URL" default:"http://127.0.0.1:9099"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	return &cfg, nil
}

// ExcludedPathPrefixes splits AuthExcludedPaths into cleaned prefixes,
// resolved against the API base path. The transport matches against the
// full request path, so "/login" under a base of /api/v1 must become
// "/api/v1/login" or it would never match anything.
func (c *Config) ExcludedPathPrefixes() []string {
	base := ""
	if u, err := url.Parse(c.APIBaseURL); err == nil {
		base = strings.TrimRight(u.Path, "/")
	}
	var out []string
	for _, p := range strings.Split(c.AuthExcludedPaths, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		out = append(out, base+p)
	}
	return out
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

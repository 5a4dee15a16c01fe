// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.synorb-mcp/config.yaml or ./config.yaml)
//  3. Default values
//
// Credentials are intentionally NOT validated at load time: a missing key or
// secret is fatal to an individual request, never to the process, so both
// transports must be able to start without them.
//
// Security: the API secret is masked in MarshalJSON/String; never log the
// config struct through any other path.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/synorb/synorb-mcp/internal/synorb"
)

var (
	// ErrInvalidMode indicates the startup mode is not stdio or http.
	ErrInvalidMode = errors.New("invalid mode")

	// ErrInvalidPort indicates the HTTP listen port is out of range.
	ErrInvalidPort = errors.New("invalid port")

	// ErrInvalidBaseURL indicates the upstream base URL is not a valid
	// absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL")

	// ErrInvalidTimeout indicates the upstream HTTP timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout")
)

// Startup modes selected via Config.Mode.
const (
	ModeStdio = "stdio"
	ModeHTTP  = "http"
)

// DefaultBaseURL is the production Synorb content API base path.
const DefaultBaseURL = "https://api.synorb.com/v1"

// DefaultPort is the HTTP transport listen port.
const DefaultPort = 3000

// TracingConfig configures optional OTLP trace export for the HTTP transport.
// Tracing is disabled when OTLPEndpoint is empty.
type TracingConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint" json:"otlp_endpoint"`
	Environment  string `mapstructure:"environment" json:"environment"`
	ServiceName  string `mapstructure:"service_name" json:"service_name"`
}

// Config stores application configuration.
// SECURITY: APISecret is masked in MarshalJSON; when adding new sensitive
// fields, update MarshalJSON as well.
type Config struct {
	// Process-wide default credentials for the upstream API. Per-request
	// credentials (HTTP headers, body fields, query params) take precedence.
	APIKey    string `mapstructure:"api_key" json:"api_key"`
	APISecret string `mapstructure:"api_secret" json:"api_secret"` // SENSITIVE: masked in MarshalJSON

	// BaseURL is the upstream content API base path.
	BaseURL string `mapstructure:"base_url" json:"base_url"`

	// Mode selects the transport started by the bare command: "stdio" or "http".
	Mode string `mapstructure:"mode" json:"mode"`

	// Port is the HTTP transport listen port.
	Port int `mapstructure:"port" json:"port"`

	// HTTPTimeoutSeconds bounds each upstream call.
	HTTPTimeoutSeconds int `mapstructure:"http_timeout_seconds" json:"http_timeout_seconds"`

	Tracing TracingConfig `mapstructure:"tracing" json:"tracing"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".synorb-mcp")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults cover everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("base_url", DefaultBaseURL)
	viper.SetDefault("mode", ModeStdio)
	viper.SetDefault("port", DefaultPort)
	viper.SetDefault("http_timeout_seconds", 30)

	viper.SetDefault("tracing.otlp_endpoint", "")
	viper.SetDefault("tracing.environment", "dev")
	viper.SetDefault("tracing.service_name", "synorb-mcp")
}

// bindEnvVariables binds environment variables explicitly. Hardcoded keys
// cannot fail to bind; a panic here is a bug, not a runtime error.
func bindEnvVariables() {
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("api_key", "SYNORB_API_KEY")
	mustBind("api_secret", "SYNORB_API_SECRET")
	mustBind("base_url", "SYNORB_BASE_URL")
	mustBind("mode", "SYNORB_MODE")
	mustBind("port", "PORT")
	mustBind("http_timeout_seconds", "SYNORB_HTTP_TIMEOUT")

	mustBind("tracing.otlp_endpoint", "SYNORB_OTLP_ENDPOINT")
	mustBind("tracing.environment", "SYNORB_ENV")
	mustBind("tracing.service_name", "SYNORB_SERVICE_NAME")
}

// Validate checks structural configuration. Credentials are deliberately not
// checked here; see the package comment.
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeHTTP {
		return fmt.Errorf("%w: %q (want %q or %q)", ErrInvalidMode, c.Mode, ModeStdio, ModeHTTP)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}
	if c.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: %d seconds", ErrInvalidTimeout, c.HTTPTimeoutSeconds)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
	}
	return nil
}

// Credentials returns the process-wide default credentials. Either field may
// be empty; callers decide whether that is an error.
func (c *Config) Credentials() synorb.Credentials {
	return synorb.Credentials{APIKey: c.APIKey, APISecret: c.APISecret}
}

// maskedValue is the placeholder for masked sensitive data. Full-width blocks
// avoid accidental substring matches against real secret content.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Short secrets are fully
// masked; longer ones keep the first and last two characters for debugging.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.APISecret = maskSecret(a.APISecret)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}

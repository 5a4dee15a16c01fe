package config

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// resetEnv clears viper's global state and every bound variable so each test
// observes only what it sets itself.
func resetEnv(t *testing.T) {
	t.Helper()
	viper.Reset()
	for _, v := range []string{
		"SYNORB_API_KEY", "SYNORB_API_SECRET", "SYNORB_BASE_URL",
		"SYNORB_MODE", "PORT", "SYNORB_HTTP_TIMEOUT",
		"SYNORB_OTLP_ENDPOINT", "SYNORB_ENV", "SYNORB_SERVICE_NAME",
	} {
		t.Setenv(v, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	resetEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Mode != ModeStdio {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeStdio)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.HTTPTimeoutSeconds != 30 {
		t.Errorf("HTTPTimeoutSeconds = %d, want 30", cfg.HTTPTimeoutSeconds)
	}
	if cfg.APIKey != "" || cfg.APISecret != "" {
		t.Errorf("credentials = %q/%q, want empty defaults", cfg.APIKey, cfg.APISecret)
	}
	if cfg.Tracing.OTLPEndpoint != "" {
		t.Errorf("Tracing.OTLPEndpoint = %q, want disabled by default", cfg.Tracing.OTLPEndpoint)
	}
	if cfg.Tracing.ServiceName != "synorb-mcp" {
		t.Errorf("Tracing.ServiceName = %q, want synorb-mcp", cfg.Tracing.ServiceName)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	resetEnv(t)
	t.Setenv("SYNORB_API_KEY", "env-key")
	t.Setenv("SYNORB_API_SECRET", "env-secret")
	t.Setenv("SYNORB_BASE_URL", "https://staging.synorb.com/v1")
	t.Setenv("SYNORB_MODE", "http")
	t.Setenv("PORT", "8080")
	t.Setenv("SYNORB_HTTP_TIMEOUT", "10")
	t.Setenv("SYNORB_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("SYNORB_ENV", "staging")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.APIKey != "env-key" || cfg.APISecret != "env-secret" {
		t.Errorf("credentials = %q/%q, want env values", cfg.APIKey, cfg.APISecret)
	}
	if cfg.BaseURL != "https://staging.synorb.com/v1" {
		t.Errorf("BaseURL = %q, want env value", cfg.BaseURL)
	}
	if cfg.Mode != ModeHTTP {
		t.Errorf("Mode = %q, want http", cfg.Mode)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.HTTPTimeoutSeconds != 10 {
		t.Errorf("HTTPTimeoutSeconds = %d, want 10", cfg.HTTPTimeoutSeconds)
	}
	if cfg.Tracing.OTLPEndpoint != "collector:4318" || cfg.Tracing.Environment != "staging" {
		t.Errorf("Tracing = %+v, want env values", cfg.Tracing)
	}
}

func TestLoad_MissingCredentialsNotFatal(t *testing.T) {
	resetEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Credentials().Valid() {
		t.Error("Credentials().Valid() = true with no credentials configured")
	}
}

func TestLoad_InvalidMode(t *testing.T) {
	resetEnv(t)
	t.Setenv("SYNORB_MODE", "websocket")

	_, err := Load()
	if !errors.Is(err, ErrInvalidMode) {
		t.Errorf("Load() error = %v, want ErrInvalidMode", err)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Mode:               ModeHTTP,
		Port:               3000,
		HTTPTimeoutSeconds: 30,
		BaseURL:            DefaultBaseURL,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad mode", mutate: func(c *Config) { c.Mode = "tcp" }, wantErr: ErrInvalidMode},
		{name: "port zero", mutate: func(c *Config) { c.Port = 0 }, wantErr: ErrInvalidPort},
		{name: "port too large", mutate: func(c *Config) { c.Port = 70000 }, wantErr: ErrInvalidPort},
		{name: "zero timeout", mutate: func(c *Config) { c.HTTPTimeoutSeconds = 0 }, wantErr: ErrInvalidTimeout},
		{name: "relative base URL", mutate: func(c *Config) { c.BaseURL = "/v1" }, wantErr: ErrInvalidBaseURL},
		{name: "bad scheme", mutate: func(c *Config) { c.BaseURL = "ftp://api.synorb.com" }, wantErr: ErrInvalidBaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMaskSecret(t *testing.T) {
	if got := maskSecret(""); got != "" {
		t.Errorf("maskSecret(empty) = %q, want empty", got)
	}
	if got := maskSecret("abc12345"); got != maskedValue {
		t.Errorf("maskSecret(short) = %q, want fully masked", got)
	}

	const long = "sk-1234567890abcdef"
	got := maskSecret(long)
	if !strings.HasPrefix(got, long[:2]) || !strings.HasSuffix(got, long[len(long)-2:]) {
		t.Errorf("maskSecret(long) = %q, want first/last two kept", got)
	}
	if strings.Contains(got, long[2:len(long)-2]) {
		t.Errorf("maskSecret(long) = %q leaks secret body", got)
	}
}

func TestConfig_MarshalJSONMasksSecret(t *testing.T) {
	cfg := Config{
		APIKey:    "key-visible",
		APISecret: "super-secret-value-123",
		BaseURL:   DefaultBaseURL,
		Mode:      ModeStdio,
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal() unexpected error: %v", err)
	}
	if strings.Contains(string(data), "super-secret-value-123") {
		t.Errorf("marshaled config leaks secret: %s", data)
	}
	if !strings.Contains(string(data), "key-visible") {
		t.Errorf("marshaled config hides non-sensitive key: %s", data)
	}

	if s := cfg.String(); strings.Contains(s, "super-secret-value-123") {
		t.Errorf("String() leaks secret: %s", s)
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// DatabaseConfig.GetDSN
// ---------------------------------------------------------------------------

func TestGetDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "standard config",
			cfg: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "worknest",
				Password: "secret",
				Name:     "worknest",
				SSLMode:  "require",
			},
			want: "host=localhost port=5432 user=worknest password=secret dbname=worknest sslmode=require",
		},
		{
			name: "empty password",
			cfg: DatabaseConfig{
				Host:    "db.internal",
				Port:    5433,
				User:    "app",
				Name:    "wn",
				SSLMode: "disable",
			},
			want: "host=db.internal port=5433 user=app password= dbname=wn sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.GetDSN(); got != tt.want {
				t.Errorf("GetDSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// ServerConfig helpers
// ---------------------------------------------------------------------------

func TestGetAddress(t *testing.T) {
	tests := []struct {
		name string
		cfg  ServerConfig
		want string
	}{
		{"default", ServerConfig{Host: "0.0.0.0", Port: 8080}, "0.0.0.0:8080"},
		{"empty host", ServerConfig{Host: "", Port: 8080}, ":8080"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.GetAddress(); got != tt.want {
				t.Errorf("GetAddress() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetPublicURL(t *testing.T) {
	s := ServerConfig{BaseURL: "http://internal:8080/", PublicURL: "https://api.worknest.io/"}
	if got := s.GetPublicURL(); got != "https://api.worknest.io" {
		t.Errorf("GetPublicURL() = %q", got)
	}
	s.PublicURL = ""
	if got := s.GetPublicURL(); got != "http://internal:8080" {
		t.Errorf("GetPublicURL() fallback = %q", got)
	}
}

func TestSecureCookies(t *testing.T) {
	cfg := minimalValidConfig()
	if cfg.SecureCookies() {
		t.Error("SecureCookies() = true for http base URL")
	}
	cfg.Server.PublicURL = "https://api.worknest.io"
	if !cfg.SecureCookies() {
		t.Error("SecureCookies() = false for https public URL")
	}
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func minimalValidConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080, BaseURL: "http://localhost:8080"},
		Database: DatabaseConfig{Host: "localhost", Name: "worknest", User: "worknest"},
		Auth: AuthConfig{
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
			BcryptCost:      10,
		},
		Storage:  StorageConfig{DefaultBackend: "local", Local: LocalStorageConfig{BasePath: "./storage"}},
		Security: SecurityConfig{RateLimiting: RateLimitingConfig{Enabled: true, Backend: "memory"}},
		Logging:  LoggingConfig{Level: "info"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"missing base url", func(c *Config) { c.Server.BaseURL = "" }, "server.base_url is required"},
		{"missing db host", func(c *Config) { c.Database.Host = "" }, "database.host is required"},
		{"zero access ttl", func(c *Config) { c.Auth.AccessTokenTTL = 0 }, "access_token_ttl"},
		{"zero refresh ttl", func(c *Config) { c.Auth.RefreshTokenTTL = 0 }, "refresh_token_ttl"},
		{"bcrypt cost too low", func(c *Config) { c.Auth.BcryptCost = 2 }, "bcrypt_cost"},
		{"unknown backend", func(c *Config) { c.Storage.DefaultBackend = "ftp" }, "invalid storage backend"},
		{"s3 without bucket", func(c *Config) {
			c.Storage.DefaultBackend = "s3"
			c.Storage.S3.Region = "eu-west-1"
		}, "storage.s3.bucket"},
		{"gcs without bucket", func(c *Config) { c.Storage.DefaultBackend = "gcs" }, "storage.gcs.bucket"},
		{"azure without account", func(c *Config) { c.Storage.DefaultBackend = "azure" }, "storage.azure.account_name"},
		{"redis limiter without addr", func(c *Config) { c.Security.RateLimiting.Backend = "redis" }, "redis.addr"},
		{"unknown limiter backend", func(c *Config) { c.Security.RateLimiting.Backend = "memcached" }, "invalid rate limiting backend"},
		{"limiter disabled ignores backend", func(c *Config) {
			c.Security.RateLimiting.Enabled = false
			c.Security.RateLimiting.Backend = ""
		}, ""},
		{"tls without cert", func(c *Config) { c.Security.TLS.Enabled = true }, "cert_file"},
		{"notifications without host", func(c *Config) {
			c.Notifications.Enabled = true
			c.Notifications.SMTP.From = "a@b.c"
		}, "smtp.host"},
		{"sentry without dsn", func(c *Config) { c.Telemetry.Sentry.Enabled = true }, "sentry.dsn"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "invalid logging level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := minimalValidConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Load() expected error for explicit missing file")
	}
	if !strings.Contains(err.Error(), "error reading config file") {
		t.Errorf("Load() error = %v", err)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeTempConfig(t, `
database:
  host: "localhost"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("default Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Auth.AccessTokenTTL != time.Hour {
		t.Errorf("default AccessTokenTTL = %v, want 1h", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Auth.RefreshTokenTTL != 720*time.Hour {
		t.Errorf("default RefreshTokenTTL = %v, want 720h", cfg.Auth.RefreshTokenTTL)
	}
	if cfg.Storage.MaxUploadBytes != 10<<20 {
		t.Errorf("default MaxUploadBytes = %d", cfg.Storage.MaxUploadBytes)
	}
	if cfg.Security.RateLimiting.Backend != "memory" {
		t.Errorf("default rate limiting backend = %q, want memory", cfg.Security.RateLimiting.Backend)
	}
	if cfg.Notifications.Enabled {
		t.Error("notifications should be disabled by default")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("WN_SERVER_PORT", "9999")
	t.Setenv("WN_CLIENT_URL", "https://app.worknest.io")
	path := writeTempConfig(t, `
server:
  port: 8081
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Client.URL != "https://app.worknest.io" {
		t.Errorf("Client.URL = %q", cfg.Client.URL)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_ACCESS_SECRET", "from-env")
	path := writeTempConfig(t, `
auth:
  access_token_secret: "${TEST_ACCESS_SECRET}"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Auth.AccessTokenSecret != "from-env" {
		t.Errorf("AccessTokenSecret = %q, want from-env", cfg.Auth.AccessTokenSecret)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempConfig(t, "server: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

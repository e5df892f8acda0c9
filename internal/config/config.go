// Package config loads and validates the Worknest configuration using Viper.
//
// Configuration is layered: built-in defaults < YAML config file < environment
// variables. Environment variables use the WN_ prefix (e.g., WN_DATABASE_HOST
// overrides database.host in the YAML).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Client        ClientConfig        `mapstructure:"client"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Security      SecurityConfig      `mapstructure:"security"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Telemetry     TelemetryConfig     `mapstructure:"telemetry"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	BaseURL      string        `mapstructure:"base_url"`
	PublicURL    string        `mapstructure:"public_url"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ExposeTraces adds the error text to error envelopes. Development only.
	ExposeTraces bool `mapstructure:"expose_traces"`
}

// GetPublicURL returns the public-facing URL used in emailed links.
// When server.public_url is set it is returned as-is; otherwise it falls back to server.base_url.
func (s *ServerConfig) GetPublicURL() string {
	if s.PublicURL != "" {
		return strings.TrimRight(s.PublicURL, "/")
	}
	return strings.TrimRight(s.BaseURL, "/")
}

// ClientConfig describes the browser frontend.
type ClientConfig struct {
	URL string `mapstructure:"url"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode"`
	MaxConnections     int    `mapstructure:"max_connections"`
	MinIdleConnections int    `mapstructure:"min_idle_connections"`
}

// AuthConfig holds token and password settings
type AuthConfig struct {
	AccessTokenSecret  string        `mapstructure:"access_token_secret"`
	AccessTokenTTL     time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenSecret string        `mapstructure:"refresh_token_secret"`
	RefreshTokenTTL    time.Duration `mapstructure:"refresh_token_ttl"`
	CookieDomain       string        `mapstructure:"cookie_domain"`
	BcryptCost         int           `mapstructure:"bcrypt_cost"`
}

// StorageConfig holds file storage backend configuration
type StorageConfig struct {
	DefaultBackend string             `mapstructure:"default_backend"`
	MaxUploadBytes int64              `mapstructure:"max_upload_bytes"`
	Azure          AzureStorageConfig `mapstructure:"azure"`
	S3             S3StorageConfig    `mapstructure:"s3"`
	GCS            GCSStorageConfig   `mapstructure:"gcs"`
	Local          LocalStorageConfig `mapstructure:"local"`
}

// AzureStorageConfig holds Azure Blob Storage configuration
type AzureStorageConfig struct {
	AccountName   string `mapstructure:"account_name"`
	AccountKey    string `mapstructure:"account_key"`
	ContainerName string `mapstructure:"container_name"`
	CDNURL        string `mapstructure:"cdn_url"`
}

// S3StorageConfig holds S3-compatible storage configuration
type S3StorageConfig struct {
	// Endpoint is optional, for MinIO and other S3-compatible services
	Endpoint string `mapstructure:"endpoint"`
	Region   string `mapstructure:"region"`
	Bucket   string `mapstructure:"bucket"`

	// AuthMethod is one of "default", "static" or "assume_role"
	AuthMethod      string `mapstructure:"auth_method"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	RoleARN         string `mapstructure:"role_arn"`
	RoleSessionName string `mapstructure:"role_session_name"`
	ExternalID      string `mapstructure:"external_id"`
}

// GCSStorageConfig holds Google Cloud Storage configuration
type GCSStorageConfig struct {
	Bucket          string `mapstructure:"bucket"`
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	CredentialsJSON string `mapstructure:"credentials_json"`
	// Endpoint is optional, for emulators
	Endpoint string `mapstructure:"endpoint"`
}

// LocalStorageConfig holds local filesystem storage configuration
type LocalStorageConfig struct {
	BasePath      string `mapstructure:"base_path"`
	ServeDirectly bool   `mapstructure:"serve_directly"`
}

type SecurityConfig struct {
	CORS         CORSConfig         `mapstructure:"cors"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting"`
	TLS          TLSConfig          `mapstructure:"tls"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
}

type RateLimitingConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
	// Backend is "memory" (per process) or "redis" (shared across replicas)
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TelemetryConfig struct {
	ServiceName string          `mapstructure:"service_name"`
	Metrics     MetricsConfig   `mapstructure:"metrics"`
	Profiling   ProfilingConfig `mapstructure:"profiling"`
	Sentry      SentryConfig    `mapstructure:"sentry"`
}

type MetricsConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	PrometheusPort int  `mapstructure:"prometheus_port"`
}

type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// SentryConfig enables error capture for 500 responses and recovered panics
type SentryConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	DSN              string  `mapstructure:"dsn"`
	Environment      string  `mapstructure:"environment"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate"`
}

// NotificationsConfig holds outbound email settings.
// When disabled, emails are written to the log instead of being delivered.
type NotificationsConfig struct {
	Enabled bool       `mapstructure:"enabled"`
	SMTP    SMTPConfig `mapstructure:"smtp"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	UseTLS   bool   `mapstructure:"use_tls"`
}

// bindEnvVars explicitly binds every config key to its WN_ environment variable.
// AutomaticEnv only resolves keys Viper already knows about, so keys without a
// default would otherwise be invisible to Unmarshal.
func bindEnvVars(v *viper.Viper) error {
	keys := []string{
		"server.host",
		"server.port",
		"server.base_url",
		"server.public_url",
		"server.read_timeout",
		"server.write_timeout",
		"server.expose_traces",

		"client.url",

		"database.host",
		"database.port",
		"database.name",
		"database.user",
		"database.password",
		"database.ssl_mode",
		"database.max_connections",
		"database.min_idle_connections",

		"auth.access_token_secret",
		"auth.access_token_ttl",
		"auth.refresh_token_secret",
		"auth.refresh_token_ttl",
		"auth.cookie_domain",
		"auth.bcrypt_cost",

		"storage.default_backend",
		"storage.max_upload_bytes",
		"storage.azure.account_name",
		"storage.azure.account_key",
		"storage.azure.container_name",
		"storage.azure.cdn_url",
		"storage.s3.endpoint",
		"storage.s3.region",
		"storage.s3.bucket",
		"storage.s3.auth_method",
		"storage.s3.access_key_id",
		"storage.s3.secret_access_key",
		"storage.s3.role_arn",
		"storage.s3.role_session_name",
		"storage.s3.external_id",
		"storage.gcs.bucket",
		"storage.gcs.project_id",
		"storage.gcs.credentials_file",
		"storage.gcs.credentials_json",
		"storage.gcs.endpoint",
		"storage.local.base_path",
		"storage.local.serve_directly",

		"security.cors.allowed_origins",
		"security.cors.allowed_methods",
		"security.rate_limiting.enabled",
		"security.rate_limiting.requests_per_minute",
		"security.rate_limiting.burst",
		"security.rate_limiting.backend",
		"security.rate_limiting.redis.addr",
		"security.rate_limiting.redis.password",
		"security.rate_limiting.redis.db",
		"security.tls.enabled",
		"security.tls.cert_file",
		"security.tls.key_file",

		"logging.level",
		"logging.format",

		"telemetry.service_name",
		"telemetry.metrics.enabled",
		"telemetry.metrics.prometheus_port",
		"telemetry.profiling.enabled",
		"telemetry.profiling.port",
		"telemetry.sentry.enabled",
		"telemetry.sentry.dsn",
		"telemetry.sentry.environment",
		"telemetry.sentry.traces_sample_rate",

		"notifications.enabled",
		"notifications.smtp.host",
		"notifications.smtp.port",
		"notifications.smtp.username",
		"notifications.smtp.password",
		"notifications.smtp.from",
		"notifications.smtp.use_tls",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind env var %q: %w", key, err)
		}
	}
	return nil
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/worknest")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("WN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Database.Password = expandEnv(cfg.Database.Password)
	cfg.Auth.AccessTokenSecret = expandEnv(cfg.Auth.AccessTokenSecret)
	cfg.Auth.RefreshTokenSecret = expandEnv(cfg.Auth.RefreshTokenSecret)
	cfg.Storage.Azure.AccountKey = expandEnv(cfg.Storage.Azure.AccountKey)
	cfg.Storage.S3.AccessKeyID = expandEnv(cfg.Storage.S3.AccessKeyID)
	cfg.Storage.S3.SecretAccessKey = expandEnv(cfg.Storage.S3.SecretAccessKey)
	cfg.Security.RateLimiting.Redis.Password = expandEnv(cfg.Security.RateLimiting.Redis.Password)
	cfg.Notifications.SMTP.Password = expandEnv(cfg.Notifications.SMTP.Password)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.public_url", "")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.expose_traces", false)

	v.SetDefault("client.url", "http://localhost:3000")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "worknest")
	v.SetDefault("database.user", "worknest")
	v.SetDefault("database.ssl_mode", "require")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_idle_connections", 5)

	v.SetDefault("auth.access_token_ttl", "1h")
	v.SetDefault("auth.refresh_token_ttl", "720h")
	v.SetDefault("auth.cookie_domain", "")
	v.SetDefault("auth.bcrypt_cost", 12)

	v.SetDefault("storage.default_backend", "local")
	v.SetDefault("storage.max_upload_bytes", 10<<20)
	v.SetDefault("storage.local.base_path", "./storage")
	v.SetDefault("storage.local.serve_directly", true)
	v.SetDefault("storage.s3.auth_method", "default")

	v.SetDefault("security.cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS", "HEAD"})
	v.SetDefault("security.rate_limiting.enabled", true)
	v.SetDefault("security.rate_limiting.requests_per_minute", 60)
	v.SetDefault("security.rate_limiting.burst", 10)
	v.SetDefault("security.rate_limiting.backend", "memory")
	v.SetDefault("security.tls.enabled", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("telemetry.service_name", "worknest")
	v.SetDefault("telemetry.metrics.enabled", true)
	v.SetDefault("telemetry.metrics.prometheus_port", 9090)
	v.SetDefault("telemetry.profiling.enabled", false)
	v.SetDefault("telemetry.profiling.port", 6060)
	v.SetDefault("telemetry.sentry.enabled", false)
	v.SetDefault("telemetry.sentry.traces_sample_rate", 0.1)

	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.smtp.port", 587)
	v.SetDefault("notifications.smtp.use_tls", false)
	v.SetDefault("notifications.smtp.from", "Worknest <no-reply@worknest.local>")
}

// expandEnv expands ${VAR} and $VAR references so YAML files can point secrets
// at environment variables without storing them inline.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Validate checks the configuration for internally inconsistent values
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}

	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("auth.access_token_ttl must be positive")
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("auth.refresh_token_ttl must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("invalid auth.bcrypt_cost: %d (must be between 4 and 31)", c.Auth.BcryptCost)
	}

	validBackends := map[string]bool{"azure": true, "s3": true, "gcs": true, "local": true}
	if !validBackends[c.Storage.DefaultBackend] {
		return fmt.Errorf("invalid storage backend: %s (must be azure, s3, gcs, or local)", c.Storage.DefaultBackend)
	}

	switch c.Storage.DefaultBackend {
	case "azure":
		if c.Storage.Azure.AccountName == "" {
			return fmt.Errorf("storage.azure.account_name is required when using Azure backend")
		}
		if c.Storage.Azure.AccountKey == "" {
			return fmt.Errorf("storage.azure.account_key is required when using Azure backend")
		}
		if c.Storage.Azure.ContainerName == "" {
			return fmt.Errorf("storage.azure.container_name is required when using Azure backend")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when using S3 backend")
		}
		if c.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when using S3 backend")
		}
	case "gcs":
		if c.Storage.GCS.Bucket == "" {
			return fmt.Errorf("storage.gcs.bucket is required when using GCS backend")
		}
	case "local":
		if c.Storage.Local.BasePath == "" {
			return fmt.Errorf("storage.local.base_path is required when using local backend")
		}
	}

	if c.Security.RateLimiting.Enabled {
		switch c.Security.RateLimiting.Backend {
		case "memory":
		case "redis":
			if c.Security.RateLimiting.Redis.Addr == "" {
				return fmt.Errorf("security.rate_limiting.redis.addr is required when using the redis backend")
			}
		default:
			return fmt.Errorf("invalid rate limiting backend: %s (must be memory or redis)", c.Security.RateLimiting.Backend)
		}
	}

	if c.Security.TLS.Enabled {
		if c.Security.TLS.CertFile == "" {
			return fmt.Errorf("security.tls.cert_file is required when TLS is enabled")
		}
		if c.Security.TLS.KeyFile == "" {
			return fmt.Errorf("security.tls.key_file is required when TLS is enabled")
		}
	}

	if c.Notifications.Enabled {
		if c.Notifications.SMTP.Host == "" {
			return fmt.Errorf("notifications.smtp.host is required when notifications are enabled")
		}
		if c.Notifications.SMTP.From == "" {
			return fmt.Errorf("notifications.smtp.from is required when notifications are enabled")
		}
	}

	if c.Telemetry.Sentry.Enabled && c.Telemetry.Sentry.DSN == "" {
		return fmt.Errorf("telemetry.sentry.dsn is required when Sentry is enabled")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// GetAddress returns the server address in host:port format
func (c *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SecureCookies reports whether auth cookies should carry the Secure flag.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.Server.GetPublicURL(), "https://")
}

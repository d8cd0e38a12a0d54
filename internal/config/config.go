package config

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Auth     AuthConfig     `koanf:"auth"`
	Client   ClientConfig   `koanf:"client"`
	Session  SessionConfig  `koanf:"session"`
	Uploads  UploadsConfig  `koanf:"uploads"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string     `koanf:"host"`
	Port    int        `koanf:"port"`
	Mode    string     `koanf:"mode"`
	Timeout string     `koanf:"timeout"`
	CORS    CORSConfig `koanf:"cors"`
	// TrustRequestID reuses a well-formed incoming X-Request-ID, as sent by
	// the console client or a reverse proxy.
	TrustRequestID bool `koanf:"trust_request_id"`
}

// CORSConfig holds CORS middleware settings.
type CORSConfig struct {
	AllowOrigins     []string `koanf:"allow_origins"`
	AllowMethods     []string `koanf:"allow_methods"`
	AllowHeaders     []string `koanf:"allow_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           string   `koanf:"max_age"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `koanf:"driver"`
	SQLite   SQLiteConfig   `koanf:"sqlite"`
	Postgres PostgresConfig `koanf:"postgres"`
	Pool     PoolConfig     `koanf:"pool"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	SSLMode  string `koanf:"sslmode"`
}

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	ConnMaxLifetime string `koanf:"conn_max_lifetime"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	Color           *bool  `koanf:"color"`
	FilePath        string `koanf:"file_path"`
	MaxSizeMB       int    `koanf:"max_size_mb"`
	RetentionDays   int    `koanf:"retention_days"`
	MaxBackups      int    `koanf:"max_backups"`
	CompressRotated *bool  `koanf:"compress_rotated"`
}

// AuthConfig holds token signing settings and the seeded admin account.
type AuthConfig struct {
	JWTSecret   string      `koanf:"jwt_secret"`
	TokenExpiry string      `koanf:"token_expiry"`
	Admin       AdminConfig `koanf:"admin"`
}

// AdminConfig describes the account created at startup when no user with
// Email exists. An empty Email disables seeding.
type AdminConfig struct {
	Email    string `koanf:"email"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
}

// ClientConfig configures the API client used by the console.
type ClientConfig struct {
	APIBaseURL            string `koanf:"api_base_url"`
	Timeout               string `koanf:"timeout"`
	NotificationRecipient string `koanf:"notification_recipient"`
}

// SessionConfig configures where the console keeps its auth session.
type SessionConfig struct {
	Storage       string `koanf:"storage"`
	FilePath      string `koanf:"file_path"`
	RedisURL      string `koanf:"redis_url"`
	CookieMaxAge  string `koanf:"cookie_max_age"`
	CheckInterval string `koanf:"check_interval"`
}

// UploadsConfig configures CV storage on the backend.
type UploadsConfig struct {
	Dir       string `koanf:"dir"`
	MaxSizeMB int    `koanf:"max_size_mb"`
}

// Session storage drivers.
const (
	SessionStorageMemory = "memory"
	SessionStorageFile   = "file"
	SessionStorageRedis  = "redis"
)

// Load reads configuration from a YAML file and overlays environment variables.
// Environment variables use the prefix "APP__" and double-underscore as the
// hierarchy separator. Single underscores are preserved as part of the key name.
// For example, APP__SERVER__PORT=9090 overrides server.port and
// APP__CLIENT__API_BASE_URL overrides client.api_base_url.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	// APP__SESSION__REDIS_URL -> session.redis_url
	if err := k.Load(env.Provider("APP__", ".", func(s string) string {
		key := strings.TrimPrefix(s, "APP__")
		key = strings.ToLower(key)
		key = strings.ReplaceAll(key, "__", ".")
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints and supported values.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.validateClient(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateUploads(); err != nil {
		return err
	}
	return c.validateLog()
}

func (c *Config) validateServer() error {
	mode := strings.TrimSpace(c.Server.Mode)
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		c.Server.Mode = mode
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", c.Server.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", c.Server.Port)
	}

	host := strings.TrimSpace(c.Server.Host)
	if host == "" {
		return fmt.Errorf("server.host is required")
	}
	c.Server.Host = host

	// Whitespace-only means unset.
	c.Server.Timeout = strings.TrimSpace(c.Server.Timeout)
	c.Server.CORS.MaxAge = strings.TrimSpace(c.Server.CORS.MaxAge)

	if err := optionalDuration("server.timeout", c.Server.Timeout); err != nil {
		return err
	}
	return optionalDuration("server.cors.max_age", c.Server.CORS.MaxAge)
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid database.driver %q: must be one of %q, %q", c.Database.Driver, "sqlite", "postgres")
	}

	if c.Database.Driver == "sqlite" {
		sqlitePath := strings.TrimSpace(c.Database.SQLite.Path)
		if sqlitePath == "" {
			return fmt.Errorf("database.sqlite.path is required when driver is sqlite")
		}
		c.Database.SQLite.Path = sqlitePath
	}

	if c.Database.Driver == "postgres" {
		pg := &c.Database.Postgres
		host := strings.TrimSpace(pg.Host)
		if host == "" {
			return fmt.Errorf("database.postgres.host is required when driver is postgres")
		}
		if pg.Port < 1 || pg.Port > 65535 {
			return fmt.Errorf("invalid database.postgres.port %d: must be between 1 and 65535", pg.Port)
		}
		user := strings.TrimSpace(pg.User)
		if user == "" {
			return fmt.Errorf("database.postgres.user is required when driver is postgres")
		}
		dbName := strings.TrimSpace(pg.DBName)
		if dbName == "" {
			return fmt.Errorf("database.postgres.dbname is required when driver is postgres")
		}
		sslMode := strings.TrimSpace(pg.SSLMode)
		switch sslMode {
		case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
		default:
			return fmt.Errorf("invalid database.postgres.sslmode %q: must be one of %q, %q, %q, %q, %q, %q", pg.SSLMode, "disable", "allow", "prefer", "require", "verify-ca", "verify-full")
		}
		if c.Server.Mode == gin.ReleaseMode {
			switch sslMode {
			case "require", "verify-ca", "verify-full":
			default:
				return fmt.Errorf("invalid database.postgres.sslmode %q for server.mode %q: must be one of %q, %q, %q", pg.SSLMode, gin.ReleaseMode, "require", "verify-ca", "verify-full")
			}
		}
		pg.Host = host
		pg.User = user
		pg.DBName = dbName
		pg.SSLMode = sslMode
	}

	c.Database.Pool.ConnMaxLifetime = strings.TrimSpace(c.Database.Pool.ConnMaxLifetime)
	return optionalDuration("database.pool.conn_max_lifetime", c.Database.Pool.ConnMaxLifetime)
}

func (c *Config) validateAuth() error {
	jwtSecret := strings.TrimSpace(c.Auth.JWTSecret)
	if jwtSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if len(jwtSecret) < 32 {
		return fmt.Errorf("invalid auth.jwt_secret: must be at least 32 characters")
	}
	if c.Server.Mode == gin.ReleaseMode && CountSecretClasses(jwtSecret) < 3 {
		return fmt.Errorf("auth.jwt_secret must include at least 3 character classes (lowercase, uppercase, digit, symbol) in release mode")
	}
	c.Auth.JWTSecret = jwtSecret

	tokenExpiry := strings.TrimSpace(c.Auth.TokenExpiry)
	if tokenExpiry == "" {
		return fmt.Errorf("auth.token_expiry is required")
	}
	if err := optionalDuration("auth.token_expiry", tokenExpiry); err != nil {
		return err
	}
	c.Auth.TokenExpiry = tokenExpiry

	admin := &c.Auth.Admin
	admin.Email = strings.TrimSpace(admin.Email)
	admin.Name = strings.TrimSpace(admin.Name)
	if admin.Email == "" {
		return nil
	}
	if _, err := mail.ParseAddress(admin.Email); err != nil {
		return fmt.Errorf("invalid auth.admin.email %q: %w", admin.Email, err)
	}
	if len(admin.Password) < 8 || len(admin.Password) > 72 {
		return fmt.Errorf("invalid auth.admin.password: must be between 8 and 72 characters")
	}
	if admin.Name == "" {
		admin.Name = "Administrator"
	}
	return nil
}

func (c *Config) validateClient() error {
	base := strings.TrimRight(strings.TrimSpace(c.Client.APIBaseURL), "/")
	if base != "" {
		u, err := url.Parse(base)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid client.api_base_url %q: must be an absolute URL", c.Client.APIBaseURL)
		}
	}
	c.Client.APIBaseURL = base

	c.Client.Timeout = strings.TrimSpace(c.Client.Timeout)
	if err := optionalDuration("client.timeout", c.Client.Timeout); err != nil {
		return err
	}

	recipient := strings.TrimSpace(c.Client.NotificationRecipient)
	if recipient != "" {
		if _, err := mail.ParseAddress(recipient); err != nil {
			return fmt.Errorf("invalid client.notification_recipient %q: %w", recipient, err)
		}
	}
	c.Client.NotificationRecipient = recipient
	return nil
}

func (c *Config) validateSession() error {
	s := &c.Session
	storage := strings.ToLower(strings.TrimSpace(s.Storage))
	if storage == "" {
		storage = SessionStorageMemory
	}
	switch storage {
	case SessionStorageMemory:
	case SessionStorageFile:
		s.FilePath = strings.TrimSpace(s.FilePath)
		if s.FilePath == "" {
			return fmt.Errorf("session.file_path is required when storage is %q", SessionStorageFile)
		}
	case SessionStorageRedis:
		s.RedisURL = strings.TrimSpace(s.RedisURL)
		if s.RedisURL == "" {
			return fmt.Errorf("session.redis_url is required when storage is %q", SessionStorageRedis)
		}
	default:
		return fmt.Errorf("invalid session.storage %q: must be one of %q, %q, %q", s.Storage, SessionStorageMemory, SessionStorageFile, SessionStorageRedis)
	}
	s.Storage = storage

	s.CookieMaxAge = strings.TrimSpace(s.CookieMaxAge)
	s.CheckInterval = strings.TrimSpace(s.CheckInterval)
	if err := optionalDuration("session.cookie_max_age", s.CookieMaxAge); err != nil {
		return err
	}
	return optionalDuration("session.check_interval", s.CheckInterval)
}

func (c *Config) validateUploads() error {
	c.Uploads.Dir = strings.TrimSpace(c.Uploads.Dir)
	if c.Uploads.Dir == "" {
		return fmt.Errorf("uploads.dir is required")
	}
	if c.Uploads.MaxSizeMB < 0 {
		return fmt.Errorf("invalid uploads.max_size_mb %d: must not be negative", c.Uploads.MaxSizeMB)
	}
	return nil
}

func (c *Config) validateLog() error {
	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch level {
	case "debug", "info", "warn", "error":
		c.Log.Level = level
	default:
		return fmt.Errorf("invalid log.level %q: must be one of %q, %q, %q, %q", c.Log.Level, "debug", "info", "warn", "error")
	}

	format := strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch format {
	case "text", "json":
		c.Log.Format = format
	default:
		return fmt.Errorf("invalid log.format %q: must be one of %q, %q", c.Log.Format, "text", "json")
	}
	return nil
}

// optionalDuration accepts "" or a positive Go duration.
func optionalDuration(name, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if d <= 0 {
		return fmt.Errorf("invalid %s %q: must be greater than 0", name, value)
	}
	return nil
}

// durationOr parses an already validated duration, falling back to def when unset.
func durationOr(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// RequestTimeout is the per-request deadline applied by the server, or 0.
func (s ServerConfig) RequestTimeout() time.Duration {
	return durationOr(s.Timeout, 0)
}

// MaxAgeDuration is how long browsers may cache preflight answers, or 0.
func (c CORSConfig) MaxAgeDuration() time.Duration {
	return durationOr(c.MaxAge, 0)
}

// TokenTTL is the lifetime of issued access tokens.
func (a AuthConfig) TokenTTL() time.Duration {
	return durationOr(a.TokenExpiry, 24*time.Hour)
}

// RequestTimeout is the API client's fixed timeout, or 0 for its default.
func (c ClientConfig) RequestTimeout() time.Duration {
	return durationOr(c.Timeout, 0)
}

// CookieTTL is the auth cookie lifetime, or 0 for the session default.
func (s SessionConfig) CookieTTL() time.Duration {
	return durationOr(s.CookieMaxAge, 0)
}

// ExpiryCheckInterval is the session self-check period, or 0 for the default.
func (s SessionConfig) ExpiryCheckInterval() time.Duration {
	return durationOr(s.CheckInterval, 0)
}

// MaxBytes is the largest accepted CV in bytes, defaulting to 5 MiB.
func (u UploadsConfig) MaxBytes() int64 {
	if u.MaxSizeMB <= 0 {
		return 5 << 20
	}
	return int64(u.MaxSizeMB) << 20
}

// CountSecretClasses counts how many character classes (lowercase, uppercase,
// digit, symbol) are present in the given secret string.
func CountSecretClasses(secret string) int {
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range secret {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	classes := 0
	for _, has := range []bool{hasLower, hasUpper, hasDigit, hasSymbol} {
		if has {
			classes++
		}
	}
	return classes
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the runtime configuration of the profile service
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"db"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Email    EmailConfig    `mapstructure:"email"`
	Validity ValidityConfig `mapstructure:"validity"`
	Session  SessionConfig  `mapstructure:"session"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logging  LoggingConfig  `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type AppConfig struct {
	Port            int           `mapstructure:"port"`
	Environment     string        `mapstructure:"env"`
	Name            string        `mapstructure:"name"`
	BaseURL         string        `mapstructure:"base_url"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// ConnectionString returns the database connection string
func (d DatabaseConfig) ConnectionString() string {
	return d.DSN
}

type JWTConfig struct {
	Secret         string        `mapstructure:"secret"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	PublicKeyPath  string        `mapstructure:"public_key_path"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	Issuer         string        `mapstructure:"issuer"`
	Algorithm      string        `mapstructure:"algorithm"` // HS256 or RS256
}

type SMTPConfig struct {
	Host       string        `mapstructure:"host"`
	Port       int           `mapstructure:"port"`
	User       string        `mapstructure:"user"`
	Password   string        `mapstructure:"pass"`
	TLSEnabled bool          `mapstructure:"tls_enabled"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// EmailConfig controls the outgoing mail queue
type EmailConfig struct {
	Transport   string        `mapstructure:"transport"` // smtp or log
	FromAddress string        `mapstructure:"from_address"`
	FromName    string        `mapstructure:"from_name"`
	WorkerCount int           `mapstructure:"worker_count"`
	QueueSize   int           `mapstructure:"queue_size"`
	MaxRetries  int           `mapstructure:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

// ValidityConfig configures the email verification flow
type ValidityConfig struct {
	ProfilePath       string   `mapstructure:"profile_path"`
	SuppressedDomains []string `mapstructure:"suppressed_domains"`
	ConfirmRedirect   string   `mapstructure:"confirm_redirect"`
	SiteURL           string   `mapstructure:"site_url"`
	Subject           string   `mapstructure:"subject"`
	Body              []string `mapstructure:"body"`
	SuccessMessage    string   `mapstructure:"success_message"`
	FailMessage       string   `mapstructure:"fail_message"`

	// Issue requests allowed per user and window
	IssueRate   int           `mapstructure:"issue_rate"`
	IssueBurst  int           `mapstructure:"issue_burst"`
	IssueWindow time.Duration `mapstructure:"issue_window"`
}

// SessionConfig selects where session notices are kept
type SessionConfig struct {
	Backend    string        `mapstructure:"backend"` // memory or redis
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
	Secure     bool          `mapstructure:"secure_cookie"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from defaults, an optional config.yaml and the
// environment, in increasing order of precedence. Nested keys map to
// environment variables with dots replaced by underscores (db.dsn is DB_DSN).
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// An empty VALIDITY_CONFIRM_REDIRECT turns the confirm redirect off
	v.AllowEmptyEnv(true)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.env", "development")
	v.SetDefault("app.name", "Profile Service")
	v.SetDefault("app.base_url", "")
	v.SetDefault("app.read_timeout", "15s")
	v.SetDefault("app.write_timeout", "15s")
	v.SetDefault("app.idle_timeout", "60s")
	v.SetDefault("app.shutdown_timeout", "30s")

	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "5m")
	v.SetDefault("db.conn_max_idle_time", "1m")
	v.SetDefault("db.auto_migrate", false)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.private_key_path", "")
	v.SetDefault("jwt.public_key_path", "")
	v.SetDefault("jwt.access_token_ttl", "15m")
	v.SetDefault("jwt.issuer", "go-profile-validity")
	v.SetDefault("jwt.algorithm", "HS256")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.pass", "")
	v.SetDefault("smtp.tls_enabled", true)
	v.SetDefault("smtp.timeout", "30s")

	v.SetDefault("email.transport", "smtp")
	v.SetDefault("email.from_address", "no-reply@example.com")
	v.SetDefault("email.from_name", "")
	v.SetDefault("email.worker_count", 5)
	v.SetDefault("email.queue_size", 100)
	v.SetDefault("email.max_retries", 3)
	v.SetDefault("email.retry_delay", "5s")
	v.SetDefault("email.send_timeout", "30s")

	v.SetDefault("validity.profile_path", "/api/profile")
	v.SetDefault("validity.suppressed_domains", []string{"example.com"})
	v.SetDefault("validity.confirm_redirect", "/")
	v.SetDefault("validity.site_url", "")
	v.SetDefault("validity.subject", "")
	v.SetDefault("validity.body", []string{})
	v.SetDefault("validity.success_message", "Your email address has been verified successfully.")
	v.SetDefault("validity.fail_message", "Your email address validation failed. Please request validation again.")
	v.SetDefault("validity.issue_rate", 5)
	v.SetDefault("validity.issue_burst", 3)
	v.SetDefault("validity.issue_window", "1h")

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.cookie_name", "sid")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.max_entries", 10000)
	v.SetDefault("session.secure_cookie", false)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "profile:session:")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func (c *Config) Validate() error {
	switch c.JWT.Algorithm {
	case "HS256":
		if c.JWT.Secret == "" {
			return fmt.Errorf("JWT_SECRET is required for HS256 algorithm")
		}
	case "RS256":
		if c.JWT.PrivateKeyPath == "" || c.JWT.PublicKeyPath == "" {
			return fmt.Errorf("JWT_PRIVATE_KEY_PATH and JWT_PUBLIC_KEY_PATH are required for RS256 algorithm")
		}
	default:
		return fmt.Errorf("unsupported JWT algorithm: %s", c.JWT.Algorithm)
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}

	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid APP_PORT: %d", c.App.Port)
	}

	switch c.Email.Transport {
	case "smtp":
		if c.SMTP.Host == "" {
			return fmt.Errorf("SMTP_HOST is required for the smtp transport")
		}
	case "log":
	default:
		return fmt.Errorf("unsupported EMAIL_TRANSPORT: %s", c.Email.Transport)
	}

	if c.Email.FromAddress == "" {
		return fmt.Errorf("EMAIL_FROM_ADDRESS is required")
	}

	if !strings.HasPrefix(c.Validity.ProfilePath, "/") {
		return fmt.Errorf("VALIDITY_PROFILE_PATH must start with /: %q", c.Validity.ProfilePath)
	}

	if c.Validity.IssueRate <= 0 {
		return fmt.Errorf("VALIDITY_ISSUE_RATE must be positive: %d", c.Validity.IssueRate)
	}

	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis session backend")
		}
	default:
		return fmt.Errorf("unsupported SESSION_BACKEND: %s", c.Session.Backend)
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

package internal

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultTokenTTL      = 3600 * time.Second
	DefaultBCryptCost    = 10
	DefaultHashTimeout   = 5 * time.Second
	DefaultLocale        = "en"
	DefaultPlatformName  = "MERN Boilerplate"
	DefaultMaxConcurrent = 4
)

type Config struct {
	App           AppConfig           `mapstructure:"app" envPrefix:"APP_"`
	Server        ServerConfig        `mapstructure:"http_server" envPrefix:"HTTP_SERVER_"`
	Database      DatabaseConfig      `mapstructure:"database" envPrefix:"DATABASE_"`
	Security      SecurityConfig      `mapstructure:"security" envPrefix:"SECURITY_"`
	Bootstrap     BootstrapConfig     `mapstructure:"bootstrap" envPrefix:"BOOTSTRAP_"`
	Mail          MailConfig          `mapstructure:"mail" envPrefix:"MAIL_"`
	Observability ObservabilityConfig `mapstructure:"observability" envPrefix:"OBSERVABILITY_"`
}

type AppConfig struct {
	Environment  string `mapstructure:"environment" env:"ENVIRONMENT" envDefault:"development"`
	Locale       string `mapstructure:"locale" env:"LOCALE" envDefault:"en"`
	PlatformName string `mapstructure:"platform_name" env:"PLATFORM_NAME" envDefault:"MERN Boilerplate"`
	URL          string `mapstructure:"url" env:"URL"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" env:"PORT" envDefault:"3000"`
	BaseURL           string        `mapstructure:"base_url" env:"BASE_URL"`
	AllowedOrigins    string        `mapstructure:"allowed_origins" env:"ALLOWED_ORIGINS"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" env:"READ_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" env:"IDLE_TIMEOUT" envDefault:"60s"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" env:"WRITE_TIMEOUT" envDefault:"15s"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" env:"CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" env:"CONN_MAX_IDLE_TIME" envDefault:"5m"`
	Source          string        `mapstructure:"source" env:"SOURCE"`
}

type SecurityConfig struct {
	JWTSecret           string        `mapstructure:"jwt_secret" env:"JWT_SECRET"`
	AccessTokenTTL      time.Duration `mapstructure:"access_token_ttl" env:"ACCESS_TOKEN_TTL" envDefault:"1h"`
	BCryptCost          int           `mapstructure:"bcrypt_cost" env:"BCRYPT_COST" envDefault:"10"`
	HashTimeout         time.Duration `mapstructure:"hash_timeout" env:"HASH_TIMEOUT" envDefault:"5s"`
	MaxConcurrentHashes int64         `mapstructure:"max_concurrent_hashes" env:"MAX_CONCURRENT_HASHES" envDefault:"4"`
	LoginRatePerMinute  int           `mapstructure:"login_rate_per_minute" env:"LOGIN_RATE_PER_MINUTE" envDefault:"30"`
	TrustProxyHeaders   bool          `mapstructure:"trust_proxy_headers" env:"TRUST_PROXY_HEADERS"`
}

// BootstrapConfig holds the credentials of the root identity created at startup.
type BootstrapConfig struct {
	SuperAdminEmail    string `mapstructure:"super_admin_email" env:"SUPER_ADMIN_EMAIL"`
	SuperAdminPassword string `mapstructure:"super_admin_password" env:"SUPER_ADMIN_PASSWORD"`
	SuperAdminFullName string `mapstructure:"super_admin_full_name" env:"SUPER_ADMIN_FULL_NAME" envDefault:"Super Admin"`
}

type MailConfig struct {
	Driver    string `mapstructure:"driver" env:"DRIVER" envDefault:"log"`
	Host      string `mapstructure:"host" env:"HOST"`
	Port      int    `mapstructure:"port" env:"PORT" envDefault:"587"`
	Username  string `mapstructure:"username" env:"USERNAME"`
	Password  string `mapstructure:"password" env:"PASSWORD"`
	From      string `mapstructure:"from" env:"FROM"`
	VerifyURL string `mapstructure:"verify_url" env:"VERIFY_URL"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics" envPrefix:"METRICS_"`
	Logging LoggingConfig `mapstructure:"logging" envPrefix:"LOGGING_"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" env:"ENABLED"`
	Path    string `mapstructure:"path" env:"PATH" envDefault:"/metrics"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" env:"LEVEL" envDefault:"info"`
	Format string `mapstructure:"format" env:"FORMAT" envDefault:"text"`
}

// LoadConfigFromEnv builds the configuration purely from process environment
// variables, e.g. SECURITY_JWT_SECRET or DATABASE_SOURCE.
func LoadConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero values left by a partial config file.
func (c *Config) ApplyDefaults() {
	if c.App.Locale == "" {
		c.App.Locale = DefaultLocale
	}
	if c.App.PlatformName == "" {
		c.App.PlatformName = DefaultPlatformName
	}
	if c.Security.AccessTokenTTL <= 0 {
		c.Security.AccessTokenTTL = DefaultTokenTTL
	}
	if c.Security.BCryptCost == 0 {
		c.Security.BCryptCost = DefaultBCryptCost
	}
	if c.Security.HashTimeout <= 0 {
		c.Security.HashTimeout = DefaultHashTimeout
	}
	if c.Security.MaxConcurrentHashes <= 0 {
		c.Security.MaxConcurrentHashes = DefaultMaxConcurrent
	}
	if c.Mail.Driver == "" {
		c.Mail.Driver = "log"
	}
	if c.Observability.Metrics.Path == "" {
		c.Observability.Metrics.Path = "/metrics"
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Bootstrap.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("bootstrap config: %v", err))
	}

	if err := c.Mail.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("mail config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *ServerConfig) Origins() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 characters")
	}
	if c.BCryptCost < 10 || c.BCryptCost > 15 {
		return errors.New("bcrypt_cost must be between 10 and 15")
	}
	if c.AccessTokenTTL < time.Minute {
		return errors.New("access_token_ttl must be at least 1m")
	}
	return nil
}

func (c *BootstrapConfig) Validate() error {
	if _, err := mail.ParseAddress(c.SuperAdminEmail); err != nil {
		return fmt.Errorf("invalid super_admin_email: %w", err)
	}
	if c.SuperAdminPassword == "" {
		return errors.New("super_admin_password is required")
	}
	return nil
}

func (c *MailConfig) Validate() error {
	switch c.Driver {
	case "log":
		return nil
	case "smtp":
		if c.Host == "" {
			return errors.New("host is required for the smtp driver")
		}
		if _, err := mail.ParseAddress(c.From); err != nil {
			return fmt.Errorf("invalid from address: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown mail driver %q", c.Driver)
	}
}

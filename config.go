package cleanblog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultDatabasePath is the sqlite file used when DB_URI is unset.
const DefaultDatabasePath = "data/posts.db"

// Config holds all configuration for a cleanblog site.
type Config struct {
	Env         string `mapstructure:"APP_ENV"`
	Addr        string `mapstructure:"ADDR"`
	SecretKey   string `mapstructure:"SECRET_KEY"`
	DatabaseURI string `mapstructure:"DB_URI"`

	SiteName        string `mapstructure:"SITE_NAME"`
	SiteURL         string `mapstructure:"SITE_URL"`
	SiteDescription string `mapstructure:"SITE_DESCRIPTION"`

	StaticDir    string `mapstructure:"STATIC_DIR"`
	CookieSecure bool   `mapstructure:"COOKIE_SECURE"`

	RedisURL     string        `mapstructure:"REDIS_URL"`
	PostCacheTTL time.Duration `mapstructure:"POST_CACHE_TTL"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("ADDR", ":5003")
	v.SetDefault("DB_URI", "sqlite:///"+DefaultDatabasePath)
	v.SetDefault("SITE_NAME", "Blog")
	v.SetDefault("SITE_URL", "http://localhost:5003")
	v.SetDefault("SITE_DESCRIPTION", "")
	v.SetDefault("STATIC_DIR", "public")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("POST_CACHE_TTL", "5m")
	v.SetDefault("LOG_LEVEL", "info")

	// FLASK_KEY is accepted so an existing deployment's environment keeps working.
	if err := v.BindEnv("SECRET_KEY", "SECRET_KEY", "FLASK_KEY"); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate ensures required values are present.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	if c.IsProduction() && len(c.SecretKey) < 32 {
		return errors.New("SECRET_KEY must be at least 32 characters in production")
	}
	if c.PostCacheTTL < 0 {
		return errors.New("POST_CACHE_TTL must not be negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error", "off":
	default:
		return fmt.Errorf("unknown LOG_LEVEL %q", c.LogLevel)
	}
	return nil
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Site returns the branding values passed to templates.
func (c *Config) Site() SiteInfo {
	return SiteInfo{
		Name:        c.SiteName,
		URL:         strings.TrimRight(c.SiteURL, "/"),
		Description: c.SiteDescription,
	}
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":5003"
	}
	if c.SiteName == "" {
		c.SiteName = "Blog"
	}
	if c.SiteURL == "" {
		c.SiteURL = "http://localhost:5003"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithStore uses an already opened Store instead of opening Config.DatabaseURI.
func WithStore(s *Store) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithCache replaces the post list cache selected from Config.
func WithCache(c PostCache) Option {
	return func(a *App) {
		a.Cache = c
	}
}

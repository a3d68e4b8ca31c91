// Package config loads the storefront settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultSessionSecret is only suitable for local development.
const DefaultSessionSecret = "dev-only-session-secret-change-me"

type Config struct {
	Port     int    `env:"PORT" envDefault:"5000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	AdminUsername     string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword     string `env:"ADMIN_PASSWORD" envDefault:"admin123"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	SessionSecret string        `env:"SESSION_SECRET" envDefault:"dev-only-session-secret-change-me"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	SecureCookie  bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	ProductsFile string `env:"PRODUCTS_FILE" envDefault:"products.json"`
	DatabaseURL  string `env:"DATABASE_URL"`

	StaticDir      string `env:"STATIC_DIR" envDefault:"static"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	PresetCategories []string `env:"PRESET_CATEGORIES" envSeparator:"|" envDefault:"Buy Parts|Wheels & Tires|Engine & Drivetrain|Brakes & Suspension|Body & Lighting|Accessories"`

	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"false"`
	MetricsToken   string `env:"METRICS_TOKEN"`

	LoginRateLimit int  `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	TrustProxy     bool `env:"TRUST_PROXY" envDefault:"false"`
}

// Load reads an optional .env file from the working directory and then parses
// the process environment. Variables already set win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return Parse()
}

func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.AdminPassword == "" && c.AdminPasswordHash == "" {
		return errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required")
	}
	if c.MetricsEnabled && c.MetricsToken == "" {
		return errors.New("METRICS_TOKEN is required when METRICS_ENABLED is set")
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c Config) UploadDir() string {
	return filepath.Join(c.StaticDir, "uploads")
}

func (c Config) UsesDefaultSecret() bool {
	return c.SessionSecret == DefaultSessionSecret
}

func (c Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// Package config loads service settings from the environment (and an optional
// .env file).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full service configuration.
type Config struct {
	Port     string `env:"PORT" envDefault:"5200"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// DBDriver is "postgres" or "sqlite".
	DBDriver    string `env:"DB_DRIVER" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"./backgammon.db"`

	GameServiceToken string   `env:"GAME_SERVICE_TOKEN"`
	AuthServiceURL   string   `env:"AUTH_SERVICE_URL"`
	SyncServiceURL   string   `env:"SYNC_SERVICE_URL"`
	AllowedOrigins   []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	ProfileSyncInterval time.Duration `env:"PROFILE_SYNC_INTERVAL" envDefault:"1m"`
	ArchiveInterval     time.Duration `env:"ARCHIVE_INTERVAL" envDefault:"5m"`

	R2 R2Config `envPrefix:"R2_"`
}

// R2Config holds Cloudflare R2 credentials for session archives. Archiving is
// disabled when Bucket is empty.
type R2Config struct {
	AccountID       string `env:"ACCOUNT_ID"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	AccessKeySecret string `env:"ACCESS_KEY_SECRET"`
	Bucket          string `env:"BUCKET_NAME"`
	CDNBaseURL      string `env:"CDN_BASE_URL"`
}

// Enabled reports whether archive uploads are configured.
func (r R2Config) Enabled() bool {
	return r.Bucket != "" && r.AccountID != ""
}

// Load reads .env (if present) and parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that have no usable default.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.GameServiceToken == "" {
		return fmt.Errorf("GAME_SERVICE_TOKEN is required")
	}
	return nil
}

// CORSOrigins returns the allowed origins joined the way fiber's cors
// middleware expects them.
func (c Config) CORSOrigins() string {
	origins := make([]string, 0, len(c.AllowedOrigins))
	for _, o := range c.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return strings.Join(origins, ",")
}

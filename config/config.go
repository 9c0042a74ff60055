package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"
)

// Config is the full runtime configuration, read from the environment (and an optional .env file).
type Config struct {
	Port             string `envconfig:"PORT" default:"5200"`
	DatabaseDriver   string `envconfig:"DATABASE_DRIVER" default:"postgres"`
	DatabaseURL      string `envconfig:"DATABASE_URL" required:"true"`
	GameServiceToken string `envconfig:"GAME_SERVICE_TOKEN" required:"true"`
	AllowedOrigins   string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`

	// Collaborators
	CharacterServiceURL string        `envconfig:"CHARACTER_SERVICE_URL"`
	BenefitServiceURL   string        `envconfig:"BENEFIT_SERVICE_URL"`
	ServiceToken        string        `envconfig:"SERVICE_TOKEN"`
	HTTPTimeout         time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`

	// Catalog cache and claim events; both are disabled when empty
	RedisURL string        `envconfig:"REDIS_URL"`
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	GrantReplayInterval time.Duration `envconfig:"GRANT_REPLAY_INTERVAL" default:"1m"`
	GrantMaxAttempts    int           `envconfig:"GRANT_MAX_ATTEMPTS" default:"10"`
	GrantReplayBatch    int           `envconfig:"GRANT_REPLAY_BATCH" default:"100"`

	// Reward images: R2 when a bucket is configured, local disk otherwise
	UploadDir           string `envconfig:"UPLOAD_DIR" default:"uploads"`
	PublicBaseURL       string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:5200"`
	CloudflareAccountID string `envconfig:"CLOUDFLARE_ACCOUNT_ID"`
	R2AccessKeyID       string `envconfig:"R2_ACCESS_KEY_ID"`
	R2AccessKeySecret   string `envconfig:"R2_ACCESS_KEY_SECRET"`
	R2BucketName        string `envconfig:"R2_BUCKET_NAME"`
	CDNBaseURL          string `envconfig:"CDN_BASE_URL"`
}

// Load reads .env (if present) and then the process environment.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, dotenv, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, dotenv, err
	}
	return &cfg, dotenv, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if c.GameServiceToken == "" {
		return fmt.Errorf("GAME_SERVICE_TOKEN must not be empty")
	}
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSqlite:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q (want %s or %s)", c.DatabaseDriver, DriverPostgres, DriverSqlite)
	}
	if c.GrantMaxAttempts < 1 {
		return fmt.Errorf("GRANT_MAX_ATTEMPTS must be at least 1, got %d", c.GrantMaxAttempts)
	}
	if c.GrantReplayInterval <= 0 {
		return fmt.Errorf("GRANT_REPLAY_INTERVAL must be positive")
	}
	return nil
}

// Origins splits ALLOWED_ORIGINS and trims each entry.
func (c *Config) Origins() []string {
	var out []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

// R2Enabled reports whether reward images should go to the R2 bucket.
func (c *Config) R2Enabled() bool {
	return c.R2BucketName != "" && c.CloudflareAccountID != ""
}

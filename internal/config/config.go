package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string   `mapstructure:"PORT"`
	Env           string   `mapstructure:"ENV"`
	DatabaseURL   string   `mapstructure:"DATABASE_URL"`
	DBMaxConns    int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns    int32    `mapstructure:"DB_MIN_CONNS"`
	RedisURL      string   `mapstructure:"REDIS_URL"`
	SessionKey    string   `mapstructure:"SESSION_KEY"`
	SessionTTL    int      `mapstructure:"SESSION_TTL_HOURS"`
	AuthMode      string   `mapstructure:"AUTH_MODE"`
	AuthIssuer    string   `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL   string   `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience  string   `mapstructure:"AUTH_AUDIENCE"`
	AuthSignKey   string   `mapstructure:"AUTH_SIGNING_KEY"`
	DefaultTenant string   `mapstructure:"DEFAULT_TENANT"`
	CORSOrigins   []string `mapstructure:"CORS_ORIGINS"`
	MigrationsDir string   `mapstructure:"MIGRATIONS_DIR"`

	RateLimitRPS    float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int     `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit       string  `mapstructure:"BODY_LIMIT"`
	ImportBodyLimit string  `mapstructure:"IMPORT_BODY_LIMIT"`
	RequestTimeout  int     `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
	PollInterval    int     `mapstructure:"POLL_INTERVAL_SECONDS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("AUTH_MODE", "") // "" -> inferred from ENV
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("SESSION_KEY", "callcare:session")
	v.SetDefault("SESSION_TTL_HOURS", 24)
	v.SetDefault("DEFAULT_TENANT", "default")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("IMPORT_BODY_LIMIT", "20M")
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 30)
	v.SetDefault("POLL_INTERVAL_SECONDS", 5)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"REDIS_URL", "SESSION_KEY", "SESSION_TTL_HOURS",
		"AUTH_MODE", "AUTH_ISSUER", "AUTH_JWKS_URL", "AUTH_AUDIENCE", "AUTH_SIGNING_KEY",
		"DEFAULT_TENANT", "CORS_ORIGINS", "MIGRATIONS_DIR",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"BODY_LIMIT", "IMPORT_BODY_LIMIT",
		"REQUEST_TIMEOUT_SECONDS", "POLL_INTERVAL_SECONDS",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active, all requests get admin access.")
		log.Println("WARNING: set ENV=production and configure AUTH_ISSUER for production.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SessionTTLDuration returns the snapshot TTL as a duration.
func (c *Config) SessionTTLDuration() time.Duration {
	return time.Duration(c.SessionTTL) * time.Hour
}

// ResolvedAuthMode returns the effective auth mode. If AUTH_MODE is set it
// wins; otherwise the mode is inferred:
//   - ENV=development       → "development" (no auth, admin defaults)
//   - AUTH_SIGNING_KEY set  → "hmac"
//   - Otherwise             → "jwks" (external identity provider)
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.IsDev() {
		return "development"
	}
	if c.AuthSignKey != "" {
		return "hmac"
	}
	return "jwks"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	switch mode := c.ResolvedAuthMode(); mode {
	case "development":
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE=development is not allowed when ENV=production")
		}
	case "hmac":
		if c.AuthSignKey == "" {
			return fmt.Errorf("AUTH_SIGNING_KEY must be set when AUTH_MODE is \"hmac\"")
		}
	case "jwks":
		if c.AuthIssuer == "" && c.AuthJWKSURL == "" {
			return fmt.Errorf("AUTH_ISSUER or AUTH_JWKS_URL must be set when AUTH_MODE is \"jwks\"")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be \"development\", \"hmac\", or \"jwks\", got %q", mode)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive, got %d", c.RequestTimeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be positive, got %d", c.PollInterval)
	}
	return nil
}

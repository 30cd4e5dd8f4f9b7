package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	ChangeFeedRedis = "redis"
	ChangeFeedMongo = "mongo"
)

type Config struct {
	Port     string `env:"PORT,         default=8080"`
	Env      string `env:"ENV,          default=development"`
	LogLevel string `env:"LOG_LEVEL,    default=info"`
	Timezone string `env:"APP_TIMEZONE, default=UTC"`

	Auth       AuthConfig
	Mongo      MongoConfig
	Redis      RedisConfig
	ChangeFeed ChangeFeedConfig
	AWS        AWSConfig
	Storage    StorageConfig
	Notify     NotifyConfig
	HTTP       HTTPConfig
}

type AuthConfig struct {
	JWTSecret      string        `env:"JWT_SECRET, required"`
	TokenTTL       time.Duration `env:"TOKEN_TTL,          default=24h"`
	ResetTTL       time.Duration `env:"RESET_TTL,          default=1h"`
	ResetURL       string        `env:"PASSWORD_RESET_URL, default=http://localhost:5173/reset-password"`
	GoogleClientID string        `env:"GOOGLE_CLIENT_ID"`
	SweepInterval  time.Duration `env:"SESSION_SWEEP_INTERVAL, default=30s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=todo_service"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
	PoolSize int    `env:"REDIS_POOL_SIZE, default=20"`
}

type ChangeFeedConfig struct {
	Driver  string `env:"CHANGEFEED_DRIVER,  default=redis"`
	Workers int    `env:"CHANGEFEED_WORKERS, default=4"`
}

type AWSConfig struct {
	Region      string `env:"AWS_REGION, default=us-east-1"`
	AccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	SecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	EndpointURL string `env:"AWS_ENDPOINT_URL"`
}

type StorageConfig struct {
	Bucket         string `env:"AVATAR_BUCKET,          default=profile-avatars"`
	PublicBaseURL  string `env:"AVATAR_PUBLIC_BASE_URL"`
	MaxAvatarBytes int64  `env:"AVATAR_MAX_BYTES,       default=2097152"`
}

type NotifyConfig struct {
	ResetTopicARN string `env:"SNS_RESET_TOPIC_ARN"`
}

type HTTPConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=*"`
	AuthRateLimit  float64  `env:"AUTH_RATE_LIMIT, default=5"`
	AuthRateBurst  int      `env:"AUTH_RATE_BURST, default=10"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated and cross-field settings.
func (c *Config) Validate() error {
	var errs []error
	switch c.ChangeFeed.Driver {
	case ChangeFeedRedis, ChangeFeedMongo:
	default:
		errs = append(errs, fmt.Errorf("CHANGEFEED_DRIVER must be %q or %q, got %q", ChangeFeedRedis, ChangeFeedMongo, c.ChangeFeed.Driver))
	}
	if c.ChangeFeed.Workers <= 0 {
		errs = append(errs, errors.New("CHANGEFEED_WORKERS must be positive"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("APP_TIMEZONE: %w", err))
	}
	if c.Auth.TokenTTL <= 0 || c.Auth.ResetTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL and RESET_TTL must be positive"))
	}
	if c.Auth.SweepInterval <= 0 {
		errs = append(errs, errors.New("SESSION_SWEEP_INTERVAL must be positive"))
	}
	if c.Storage.MaxAvatarBytes <= 0 {
		errs = append(errs, errors.New("AVATAR_MAX_BYTES must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Location is the time zone used for calendar-day filters.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Storage StorageConfig `yaml:"storage"`
	Library LibraryConfig `yaml:"library"`
	Catalog CatalogConfig `yaml:"catalog"`
	Auth    AuthConfig    `yaml:"auth"`
	Player  PlayerConfig  `yaml:"player"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr" default:":8080"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Output string `yaml:"output" default:"stdout"`
	Level  string `yaml:"level" default:"info"`
	File   string `yaml:"file"`
}

// StorageConfig selects and configures the queue store backend.
type StorageConfig struct {
	Backend string      `yaml:"backend" default:"memory" validate:"oneof=memory redis"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig represents Redis connection configuration.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db" validate:"gte=0"`
	KeyPrefix string `yaml:"key_prefix" default:"airwave"`
}

// LibraryConfig represents the playlist library database configuration.
type LibraryConfig struct {
	Path string `yaml:"path" default:"airwave.db"`
}

// CatalogConfig represents the music catalog provider configuration.
type CatalogConfig struct {
	Provider string         `yaml:"provider" default:"deezer" validate:"required"`
	Settings map[string]any `yaml:"settings"`
}

// AuthConfig represents authentication configuration.
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret" validate:"required"`
	TokenTTLHours int    `yaml:"token_ttl_hours" default:"720" validate:"gt=0"`
}

// PlayerConfig represents queue engine tuning.
type PlayerConfig struct {
	EventBuffer      int `yaml:"event_buffer" default:"16" validate:"gt=0"`
	PersistTimeoutMs int `yaml:"persist_timeout_ms" default:"3000" validate:"gt=0,lte=30000"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Storage.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Storage.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Storage.Redis.DB = db
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("LIBRARY_PATH"); v != "" {
		c.Library.Path = v
	}
}

// TokenTTL returns the configured token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

// PersistTimeout returns the configured persistence write deadline.
func (c *Config) PersistTimeout() time.Duration {
	return time.Duration(c.Player.PersistTimeoutMs) * time.Millisecond
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.Storage.Backend == "redis" && c.Storage.Redis.Addr == "" {
		return errors.New("storage.redis.addr is required when storage.backend is redis")
	}

	return nil
}

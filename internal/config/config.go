package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Auth    AuthConfig    `toml:"auth"`
	Cache   CacheConfig   `toml:"cache"`
	Storage StorageConfig `toml:"storage"`
	Session SessionConfig `toml:"session"`
}

// ServerConfig contains HTTP listener and database settings
type ServerConfig struct {
	Port        string `toml:"port"`
	DatabaseURL string `toml:"database_url"`
}

// AuthConfig contains JWT settings
type AuthConfig struct {
	JWTSecret          string `toml:"jwt_secret"`
	AccessTokenMinutes int    `toml:"access_token_minutes"`
	RefreshTokenDays   int    `toml:"refresh_token_days"`
}

// CacheConfig contains Redis and query-cache settings
type CacheConfig struct {
	RedisAddr        string `toml:"redis_addr"`
	RedisPassword    string `toml:"redis_password"`
	RedisDB          int    `toml:"redis_db"`
	StaleAfterSecs   int    `toml:"stale_after_seconds"`
	MaxAgeSecs       int    `toml:"max_age_seconds"`
	RetryAttempts    int    `toml:"retry_attempts"`
	RetryDelayMillis int    `toml:"retry_delay_millis"`
	GCIntervalSecs   int    `toml:"gc_interval_seconds"`
}

// StorageConfig contains MinIO settings for rental agreement documents
type StorageConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	UseSSL    bool   `toml:"use_ssl"`
}

// SessionConfig controls how long a persisted login survives a restart
type SessionConfig struct {
	MaxAgeHours int `toml:"max_age_hours"`
}

// Load loads configuration from a TOML file, then applies environment
// overrides for values that are usually injected at deploy time.
func Load(filename string) (*Config, error) {
	cfg := &Config{}
	if filename != "" {
		if _, err := toml.DecodeFile(filename, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Server.DatabaseURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.Storage.Endpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.Storage.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.Storage.SecretKey = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Auth.AccessTokenMinutes <= 0 {
		c.Auth.AccessTokenMinutes = 15
	}
	if c.Auth.RefreshTokenDays <= 0 {
		c.Auth.RefreshTokenDays = 7
	}
	if c.Cache.RedisAddr == "" {
		c.Cache.RedisAddr = "localhost:6379"
	}
	if c.Cache.StaleAfterSecs <= 0 {
		c.Cache.StaleAfterSecs = 30
	}
	if c.Cache.MaxAgeSecs <= 0 {
		c.Cache.MaxAgeSecs = 600
	}
	if c.Cache.RetryAttempts < 0 {
		c.Cache.RetryAttempts = 0
	}
	if c.Cache.RetryDelayMillis <= 0 {
		c.Cache.RetryDelayMillis = 200
	}
	if c.Cache.GCIntervalSecs <= 0 {
		c.Cache.GCIntervalSecs = 300
	}
	if c.Session.MaxAgeHours <= 0 {
		c.Session.MaxAgeHours = 24
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = "rental-agreements"
	}
}

// StaleAfter returns the query-cache freshness window as a duration.
func (c CacheConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterSecs) * time.Second
}

// MaxAge returns the query-cache GC window as a duration.
func (c CacheConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeSecs) * time.Second
}

// RetryDelay returns the query-cache retry pause as a duration.
func (c CacheConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMillis) * time.Millisecond
}

// GCInterval returns how often the query-cache sweep job runs.
func (c CacheConfig) GCInterval() time.Duration {
	return time.Duration(c.GCIntervalSecs) * time.Second
}

// MaxAge returns how long a persisted login stays valid.
func (c SessionConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeHours) * time.Hour
}

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"notigate/internal/common"
	"notigate/internal/domain/notification"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Store     StoreConfig     `mapstructure:"store"`
	Gate      GateConfig      `mapstructure:"gate"`
	Log       LogConfig       `mapstructure:"log"`

	// gate holds the current GateConfig. It is refreshed when the config
	// file changes so gate settings apply without a restart.
	gate atomic.Value
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// AuthConfig holds API key authentication settings.
type AuthConfig struct {
	APIKeys []string `mapstructure:"api_keys"`
}

// CORSConfig holds CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAgeSec        int      `mapstructure:"max_age_sec"`
}

// RateLimitConfig holds HTTP request rate limiting settings.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// StoreConfig holds claim store settings.
type StoreConfig struct {
	// Backend selects the claim store: "memory" or "redis".
	Backend string `mapstructure:"backend"`

	// SweepIntervalSec is how often the memory store evicts expired
	// claims. Ignored by the redis backend.
	SweepIntervalSec int `mapstructure:"sweep_interval_sec"`

	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GateConfig holds notification rate limit settings.
type GateConfig struct {
	KeyPrefix string `mapstructure:"key_prefix"`

	// RateLimitSeconds is the cooldown window in seconds. Fractional
	// values express sub-second windows.
	RateLimitSeconds float64 `mapstructure:"rate_limit_seconds"`

	MaxAttempts    int  `mapstructure:"max_attempts"`
	UniquePayloads bool `mapstructure:"unique_payloads"`
	LogSkipped     bool `mapstructure:"log_skipped"`
	FailOpen       bool `mapstructure:"fail_open"`
}

// Policy converts the section into the domain policy.
func (g GateConfig) Policy() notification.Policy {
	return notification.Policy{
		KeyPrefix:      g.KeyPrefix,
		MaxAttempts:    g.MaxAttempts,
		Cooldown:       time.Duration(g.RateLimitSeconds * float64(time.Second)),
		UniquePayloads: g.UniquePayloads,
		LogSkipped:     g.LogSkipped,
		FailOpen:       g.FailOpen,
	}
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// Load reads configuration from config.yaml and environment variables.
// Environment variables use the NOTIGATE_ prefix and underscore
// separators. Example: NOTIGATE_GATE_MAX_ATTEMPTS overrides
// gate.max_attempts in config.yaml.
func Load() (*Config, error) {
	v := viper.New()

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Load .env file if it exists
	_ = godotenv.Load()

	// Environment variable settings
	v.SetEnvPrefix("NOTIGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional, env vars can provide everything)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Handle comma-separated API keys from env var
	if apiKeysStr := v.GetString("auth.api_keys"); apiKeysStr != "" && len(cfg.Auth.APIKeys) == 0 {
		keys := strings.Split(apiKeysStr, ",")
		for i := range keys {
			keys[i] = strings.TrimSpace(keys[i])
		}
		cfg.Auth.APIKeys = keys
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.gate.Store(cfg.Gate)
	if v.ConfigFileUsed() != "" {
		cfg.watch(v)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Length", "Content-Type", "X-API-Key", "X-Request-ID"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age_sec", 43200)
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.sweep_interval_sec", 60)
	v.SetDefault("store.redis.address", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("gate.key_prefix", "notigate")
	v.SetDefault("gate.rate_limit_seconds", 60)
	v.SetDefault("gate.max_attempts", 1)
	v.SetDefault("gate.unique_payloads", false)
	v.SetDefault("gate.log_skipped", true)
	v.SetDefault("gate.fail_open", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)
}

// Validate rejects malformed configuration before any component starts.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return common.NewConfigError(fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return common.NewConfigError(fmt.Sprintf("server.mode must be debug, release or test, got %q", c.Server.Mode))
	}

	switch c.Store.Backend {
	case "memory", "redis":
	default:
		return common.NewConfigError(fmt.Sprintf("store.backend must be memory or redis, got %q", c.Store.Backend))
	}
	if c.Store.Backend == "redis" && c.Store.Redis.Address == "" {
		return common.NewConfigError("store.redis.address must not be empty")
	}

	if err := c.Gate.Policy().Validate(); err != nil {
		return err
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "notice", "warn", "error":
	default:
		return common.NewConfigError(fmt.Sprintf("log.level %q is not a known level", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return common.NewConfigError(fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}

	return nil
}

// PolicySource returns the gate's live policy view. Each call observes
// the settings from the most recent successful load.
func (c *Config) PolicySource() notification.PolicySource {
	return func() notification.Policy {
		return c.gate.Load().(GateConfig).Policy()
	}
}

// watch refreshes the gate section whenever the config file changes.
// The reload runs the same full decode as Load, so defaults keep filling
// keys a partial gate section omits and environment overrides keep their
// precedence over file values. Reloads that fail to parse or validate
// are rejected and the previous settings stay in effect.
func (c *Config) watch(v *viper.Viper) {
	v.OnConfigChange(func(fsnotify.Event) {
		var next Config
		if err := v.Unmarshal(&next); err != nil {
			slog.Error("config reload failed", "error", err)
			return
		}
		if err := next.Gate.Policy().Validate(); err != nil {
			slog.Error("config reload rejected", "error", err)
			return
		}

		c.gate.Store(next.Gate)
		slog.Info("gate settings reloaded",
			"key_prefix", next.Gate.KeyPrefix,
			"rate_limit_seconds", next.Gate.RateLimitSeconds,
			"max_attempts", next.Gate.MaxAttempts,
		)
	})
	v.WatchConfig()
}

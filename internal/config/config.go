package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName       = "CoinVault"
	defaultAppEnv        = "development"
	defaultPort          = "8080"
	defaultLogLevel      = "info"
	defaultShutdownDelay = 10 * time.Second
	defaultLocalTTL      = 10 * time.Minute
	defaultRedisTTL      = 30 * time.Minute
	defaultIdemTTL       = 24 * time.Hour

	localTTLEnvVar         = "LOCAL_CACHE_TTL"
	redisTTLEnvVar         = "REDIS_CACHE_TTL"
	idemTTLEnvVar          = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment
// variables.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string

	// DatabaseURL is required outside development. RedisURL is optional:
	// when empty the distributed cache tier is skipped entirely.
	DatabaseURL string
	RedisURL    string

	// Currencies is a comma-separated list of id[:prefix[:suffix]] specs.
	Currencies string

	LocalCacheTTL  time.Duration
	RedisCacheTTL  time.Duration
	IdempotencyTTL time.Duration
	ShutdownPeriod time.Duration
}

// Load reads configuration values from the environment and populates a
// Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		Currencies:     os.Getenv("CURRENCIES"),
		LocalCacheTTL:  defaultLocalTTL,
		RedisCacheTTL:  defaultRedisTTL,
		IdempotencyTTL: defaultIdemTTL,
		ShutdownPeriod: defaultShutdownDelay,
	}

	for _, ttl := range []struct {
		envVar string
		dst    *time.Duration
	}{
		{localTTLEnvVar, &cfg.LocalCacheTTL},
		{redisTTLEnvVar, &cfg.RedisCacheTTL},
		{idemTTLEnvVar, &cfg.IdempotencyTTL},
	} {
		if v := os.Getenv(ttl.envVar); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", ttl.envVar, err)
			}
			*ttl.dst = d
		}
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if cfg.DatabaseURL == "" && !cfg.IsDev() {
		return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
	}

	return cfg, nil
}

// IsDev reports whether the app runs in a development environment, where an
// in-memory store may substitute for Postgres.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

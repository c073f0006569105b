package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration, loaded from the environment.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	DocStore DocStoreConfig
	Redis    RedisConfig
	Auth     AuthConfig
	LogMode  string
}

// DatabaseConfig holds connection settings for the obligation store.
type DatabaseConfig struct {
	URL           string
	MaxConns      int
	HealthTimeout time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// DocStoreConfig holds settings for the external document repository.
type DocStoreConfig struct {
	BaseURL      string
	APIKey       string
	FetchTimeout time.Duration
	RunTimeout   time.Duration
	TokenTTL     time.Duration
}

// RedisConfig holds the optional Redis token-cache settings. An empty Addr
// selects the in-memory cache.
type RedisConfig struct {
	Addr string
}

// AuthConfig holds operator session settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// Load reads configuration from environment variables, applying defaults.
func Load() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL:           getEnv("DATABASE_URL", ""),
			MaxConns:      getEnvAsInt("DB_MAX_CONNS", 0),
			HealthTimeout: getEnvAsDuration("DB_HEALTH_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		DocStore: DocStoreConfig{
			BaseURL:      getEnv("DOCSTORE_BASE_URL", ""),
			APIKey:       getEnv("DOCSTORE_API_KEY", ""),
			FetchTimeout: getEnvAsDuration("DOCSTORE_FETCH_TIMEOUT", 30*time.Second),
			RunTimeout:   getEnvAsDuration("RECONCILE_RUN_TIMEOUT", 15*time.Minute),
			TokenTTL:     getEnvAsDuration("DOCSTORE_TOKEN_TTL", 20*time.Minute),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvAsDuration("JWT_TTL", 12*time.Hour),
		},
		LogMode: getEnv("LOG_MODE", "dev"),
	}
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	if c.DocStore.BaseURL == "" {
		return fmt.Errorf("config: DOCSTORE_BASE_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

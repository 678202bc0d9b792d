// Package config reads settings for the server and the terminal front-end
// from the environment, with defaults for local development.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the REST backend settings.
type ServerConfig struct {
	AppEnv          string
	AppPort         string
	DBDriver        string // sqlite, postgres or memory
	DatabaseDSN     string
	DBSlowThreshold time.Duration // queries slower than this are logged as warnings
	RabbitMQURL     string        // empty disables event publishing
	RabbitQueue     string
	RedisAddr       string // empty disables the list cache
	RedisDB         int
	CacheTTL        time.Duration
	LogLevel        string
	LogFormat       string // json or console; empty picks by APP_ENV
	Seed            bool   // insert demo products into an empty catalog
}

// ClientConfig holds the terminal front-end settings.
type ClientConfig struct {
	AppEnv         string
	APIURL         string
	RequestTimeout time.Duration // 0 means no timeout
	LogLevel       string
	LogFormat      string
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "")
	v.AutomaticEnv() // Load environment variables
	return v
}

// LoadServer reads ServerConfig from the environment.
func LoadServer() (ServerConfig, error) {
	v := newViper()
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "productdesk.db")
	v.SetDefault("DB_SLOW_THRESHOLD", "200ms")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "product_events")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("SEED_PRODUCTS", false)

	cfg := ServerConfig{
		AppEnv:          v.GetString("APP_ENV"),
		AppPort:         v.GetString("APP_PORT"),
		DBDriver:        strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:     v.GetString("DATABASE_DSN"),
		DBSlowThreshold: v.GetDuration("DB_SLOW_THRESHOLD"),
		RabbitMQURL:     v.GetString("RABBITMQ_URL"),
		RabbitQueue:     v.GetString("RABBITMQ_QUEUE"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisDB:         v.GetInt("REDIS_DB"),
		CacheTTL:        v.GetDuration("CACHE_TTL"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       strings.ToLower(v.GetString("LOG_FORMAT")),
		Seed:            v.GetBool("SEED_PRODUCTS"),
	}

	switch cfg.DBDriver {
	case "sqlite", "postgres", "memory":
	default:
		return ServerConfig{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.DBDriver != "memory" && cfg.DatabaseDSN == "" {
		return ServerConfig{}, fmt.Errorf("DATABASE_DSN must not be empty for driver %s", cfg.DBDriver)
	}
	if cfg.DBSlowThreshold <= 0 {
		return ServerConfig{}, fmt.Errorf("DB_SLOW_THRESHOLD must be > 0")
	}
	if cfg.CacheTTL <= 0 {
		return ServerConfig{}, fmt.Errorf("CACHE_TTL must be > 0")
	}
	if cfg.RabbitMQURL != "" && cfg.RabbitQueue == "" {
		return ServerConfig{}, fmt.Errorf("RABBITMQ_QUEUE must not be empty")
	}
	return cfg, nil
}

// LoadClient reads ClientConfig from the environment.
func LoadClient() (ClientConfig, error) {
	v := newViper()
	v.SetDefault("API_URL", "http://localhost:8080/api/products")
	v.SetDefault("REQUEST_TIMEOUT", "0s")

	cfg := ClientConfig{
		AppEnv:         v.GetString("APP_ENV"),
		APIURL:         strings.TrimRight(v.GetString("API_URL"), "/"),
		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      strings.ToLower(v.GetString("LOG_FORMAT")),
	}
	if cfg.APIURL == "" {
		return ClientConfig{}, fmt.Errorf("API_URL must not be empty")
	}
	if cfg.RequestTimeout < 0 {
		return ClientConfig{}, fmt.Errorf("REQUEST_TIMEOUT must be >= 0")
	}
	return cfg, nil
}

package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port            string `validate:"required,numeric"`
	Host            string
	Environment     string `validate:"oneof=development test production"`
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// MongoDBConfig: an empty URI selects the in-memory store.
type MongoDBConfig struct {
	URI        string
	Database   string `validate:"required"`
	Collection string `validate:"required"`
	Timeout    time.Duration `validate:"gt=0"`
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int `validate:"gte=0"`
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration `validate:"gt=0"`
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64 `validate:"gt=0"`
	Burst         int     `validate:"gte=0"`
	WindowSeconds int     `validate:"gt=0"`
}

type LogConfig struct {
	Level string
	JSON  bool
	File  string
}

// Addr returns host:port for the Redis client, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5002")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", "30s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("MONGODB_DATABASE", "gogotex")
	v.SetDefault("MONGODB_COLLECTION", "users")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_USE_REDIS", false)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_JSON", false)

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("SERVER_PORT"),
			Host:            v.GetString("SERVER_HOST"),
			Environment:     v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		MongoDB: MongoDBConfig{
			URI:        v.GetString("MONGODB_URI"),
			Database:   v.GetString("MONGODB_DATABASE"),
			Collection: v.GetString("MONGODB_COLLECTION"),
			Timeout:    time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			Enabled: v.GetBool("CACHE_ENABLED"),
			TTL:     v.GetDuration("CACHE_TTL"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
			JSON:  v.GetBool("LOG_JSON"),
			File:  v.GetString("LOG_FILE"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

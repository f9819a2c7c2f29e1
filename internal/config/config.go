// Package config loads controller configuration from the environment,
// grounded on config/config.go and shared/config/config.go.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the full set of boot-time, read-only settings the
// controller needs. Matches spec.md section 6.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig

	LogLevel    string `validate:"required,oneof=debug info warn error"`
	Environment string `validate:"required,oneof=development production"`

	HTTPPort int `validate:"required,min=1,max=65535"`

	// Window: the daily legal-actuation interval (spec.md section 4.1).
	WindowStartHour     int `validate:"min=0,max=23"`
	WindowDurationHours int `validate:"required,min=1,max=24"`

	// Planner/SM tunables (spec.md section 6).
	SectorTransitionSeconds int `validate:"min=0"`
	MaxDurationSeconds      int `validate:"required,min=1"`
	MinWateringSeconds      int `validate:"required,min=1"`

	JWTSecret string `validate:"required"`

	MigrationsPath string `validate:"required"`

	SensorBaseURL string `validate:"required,url"`
	MetricsPort   int    `validate:"required,min=1,max=65535"`
	WeatherRegion string `validate:"required"`

	Version string `validate:"required"`
}

type DatabaseConfig struct {
	Driver   string // "mysql" or "sqlite"
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
}

// Load reads configuration from the environment (and an optional .env
// file), applying the defaults from spec.md section 6, then validates
// it. A validation failure is fatal at startup per spec.md section 7.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "mysql"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "irrigo"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		Environment:             getEnv("ENV", "development"),
		HTTPPort:                getEnvInt("HTTP_PORT", 8080),
		WindowStartHour:         getEnvInt("WINDOW_START_HOUR", 22),
		WindowDurationHours:     getEnvInt("WINDOW_DURATION_HOURS", 8),
		SectorTransitionSeconds: getEnvInt("SECTOR_TRANSITION_SECONDS", 20),
		MaxDurationSeconds:      getEnvInt("MAX_DURATION_SECONDS", 1800),
		MinWateringSeconds:      getEnvInt("MIN_WATERING_SECONDS", 300),
		JWTSecret:               getEnv("JWT_SECRET", "dev-secret-change-me"),
		MigrationsPath:          getEnv("MIGRATIONS_PATH", "migrations"),
		SensorBaseURL:           getEnv("SENSOR_BASE_URL", "http://localhost:9100"),
		MetricsPort:             getEnvInt("METRICS_PORT", 9090),
		WeatherRegion:           getEnv("WEATHER_REGION", "seoul"),
		Version:                 getEnv("VERSION", "dev"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.MaxDurationSeconds > cfg.WindowDurationHours*3600 {
		return nil, fmt.Errorf("max_duration_seconds (%d) exceeds window duration (%ds)",
			cfg.MaxDurationSeconds, cfg.WindowDurationHours*3600)
	}
	return cfg, nil
}

// SchedulerInterval is the dispatcher's logical tick period. Fixed at
// 1 second per spec.md section 4.8; exposed as a named constant so tests can
// reason about it explicitly without a magic literal.
const SchedulerInterval = time.Second

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

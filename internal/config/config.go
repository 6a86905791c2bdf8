// Package config loads service configuration from the environment.
// Keys use a WANDERLOG_ prefix with dots for nesting, e.g.
// WANDERLOG_SERVER.PORT -> Config.Server.Port. A .env file is picked up
// automatically when present.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "WANDERLOG_"

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Postgres PostgresConfig `koanf:"postgres" validate:"required"`
	Mongo    MongoConfig    `koanf:"mongo" validate:"required"`
	Redis    RedisConfig    `koanf:"redis"`
	Minio    MinioConfig    `koanf:"minio"`
	Geocoder GeocoderConfig `koanf:"geocoder"`
}

type ServerConfig struct {
	Port           string   `koanf:"port"`
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type PostgresConfig struct {
	DSN string `koanf:"dsn" validate:"required"`
}

type MongoConfig struct {
	URI      string `koanf:"uri" validate:"required"`
	Database string `koanf:"database"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
}

type MinioConfig struct {
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Bucket    string `koanf:"bucket"`
	UseSSL    bool   `koanf:"use_ssl"`
}

type GeocoderConfig struct {
	BaseURL   string `koanf:"base_url"`
	UserAgent string `koanf:"user_agent"`
}

// Load reads the environment into a validated Config.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           "8080",
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		},
		Mongo: MongoConfig{Database: "wanderlog"},
		Redis: RedisConfig{Addr: "redis:6379"},
		Minio: MinioConfig{Endpoint: "minio:9000", Bucket: "entry-photos"},
		Geocoder: GeocoderConfig{
			BaseURL:   "https://nominatim.openstreetmap.org",
			UserAgent: "wanderlog-backend",
		},
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

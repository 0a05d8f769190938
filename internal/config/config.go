package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the service reads from the environment.
// Defaults match the local docker-compose setup.
type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8002"`

	DBHost    string `envconfig:"DB_HOST" default:"localhost"`
	DBUser    string `envconfig:"DB_USER" default:"user"`
	DBPass    string `envconfig:"DB_PASS" default:"password"`
	DBName    string `envconfig:"DB_NAME" default:"mentorchatdb"`
	DBPort    int    `envconfig:"DB_PORT" default:"5432"`
	DBSSLMode string `envconfig:"DB_SSLMODE" default:"disable"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPass string `envconfig:"REDIS_PASS"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON  bool   `envconfig:"LOG_JSON" default:"false"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PostgresDSN builds the connection string for the gorm postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort, c.DBSSLMode)
}

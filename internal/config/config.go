package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the full runtime configuration of the API server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Weather  WeatherConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	// MaxConns is the connection pool size. Defaults to the number of
	// online CPUs; non-positive overrides clamp to 1.
	MaxConns int
}

// WeatherConfig holds weather-query settings.
type WeatherConfig struct {
	// DefaultTimezone is the zone the summary tables were aggregated in.
	DefaultTimezone string
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is loaded first if present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: intEnv("API_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     intEnv("DB_PORT", 5432),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASS"),
			Database: os.Getenv("DB_NAME"),
			SSLMode:  stringEnv("DB_SSLMODE", "disable"),
			MaxConns: intEnv("MAX_DB_CONN", runtime.NumCPU()),
		},
		Weather: WeatherConfig{
			DefaultTimezone: stringEnv("DEFAULT_TIMEZONE", "Europe/Madrid"),
		},
		Logging: LoggingConfig{
			Level: stringEnv("LOG_LEVEL", "info"),
		},
	}

	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 1
	}

	return cfg, nil
}

// Validate checks that every required variable was provided.
func (c *Config) Validate() error {
	missing := []string{}

	if c.Database.Host == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.Database.User == "" {
		missing = append(missing, "DB_USER")
	}
	if c.Database.Password == "" {
		missing = append(missing, "DB_PASS")
	}
	if c.Database.Database == "" {
		missing = append(missing, "DB_NAME")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid API_PORT: %d", c.Server.Port)
	}

	return nil
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

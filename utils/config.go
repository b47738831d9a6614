package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const defaultEnvPath = ".env"

// Config holds all configuration for the application
type Config struct {
	App       AppConfig
	Reactions ReactionsConfig
	Database  DatabaseConfig
	Server    ServerConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name    string
	Version string
}

// ReactionsConfig holds reactions API configuration
type ReactionsConfig struct {
	APIURL               string
	PollingInterval      int // seconds
	MaxRequestsPerMinute int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port                 int
	MaxRequestsPerMinute int // per client ip
}

// LoadConfig loads configuration from a .env file and the environment.
// A missing default .env file is not an error; a missing explicit path is.
func LoadConfig(envPath string, log *logrus.Logger) (*Config, error) {
	if envPath == "" {
		envPath = defaultEnvPath
	}

	if err := godotenv.Load(envPath); err != nil {
		if envPath != defaultEnvPath || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
		log.WithField("file", envPath).Warn("No .env file found, using environment only")
	}

	config := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "Reaction Tracker"),
			Version: getEnv("APP_VERSION", "1.0.0"),
		},
		Reactions: ReactionsConfig{
			APIURL:               strings.TrimRight(getEnv("REACTIONS_API_URL", "https://yt-reactions-server.fly.dev"), "/"),
			PollingInterval:      getEnvAsInt("POLLING_INTERVAL", 60),
			MaxRequestsPerMinute: getEnvAsInt("MAX_REQUESTS_PER_MINUTE", 30),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./reactions.db"),
		},
		Server: ServerConfig{
			Port:                 getEnvAsInt("SERVER_PORT", 8080),
			MaxRequestsPerMinute: getEnvAsInt("SERVER_MAX_REQUESTS_PER_MINUTE", 120),
		},
	}

	// validation
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	log.WithField("file", envPath).Info("Config loaded successfully")
	return config, nil
}

// ParseList parses a comma-separated list, dropping empty entries
func ParseList(s string) []string {
	parts := strings.Split(s, ",")

	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}

	return items
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	u, err := url.Parse(config.Reactions.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("REACTIONS_API_URL must be an absolute URL, got %q", config.Reactions.APIURL)
	}
	if config.Reactions.PollingInterval < 1 {
		return fmt.Errorf("POLLING_INTERVAL must be positive")
	}
	if config.Reactions.MaxRequestsPerMinute < 1 {
		return fmt.Errorf("MAX_REQUESTS_PER_MINUTE must be positive")
	}
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	if config.Server.MaxRequestsPerMinute < 1 {
		return fmt.Errorf("SERVER_MAX_REQUESTS_PER_MINUTE must be positive")
	}

	// if we are storing the db in a nested directory, create the directory
	dbDir := filepath.Dir(config.Database.Path)
	if dbDir != "." && dbDir != "" {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	return nil
}

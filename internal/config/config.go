package config

import (
	"errors"
	"io"
	"io/fs"
	"log"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config carries every knob the server reads. Environment variables win
// over the optional YAML config file, which wins over the defaults.
type Config struct {
	// Data plane
	ListenAddr string `yaml:"listen_addr"`

	// Admin sidecar (health + metrics)
	AdminAddr string `yaml:"admin_addr"`

	// Document store
	MongoURI            string `yaml:"mongo_uri"`
	MongoTimeoutSeconds int    `yaml:"mongo_timeout_seconds"`

	// Sessions
	SessionTTLSeconds int `yaml:"session_ttl_seconds"`

	// Server
	ShutdownTimeoutSeconds int `yaml:"shutdown_timeout_seconds"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads .env (if present), the optional config file named by
// CONFIG_FILE (default config.yaml), then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		ListenAddr:             "127.0.0.1:8087",
		AdminAddr:              "127.0.0.1:9087",
		MongoURI:               "mongodb://localhost:27017",
		MongoTimeoutSeconds:    5,
		SessionTTLSeconds:      600,
		ShutdownTimeoutSeconds: 30,
		LogLevel:               "debug",
		LogFormat:              "text",
	}

	configFilePath := getEnvOrDefault("CONFIG_FILE", "config.yaml")
	configFile, err := os.Open(configFilePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// The config file is optional; everything has an env knob.
	case err != nil:
		return nil, err
	default:
		defer configFile.Close()
		if err := LoadConfigFile(configFile, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ListenAddr = getEnvOrDefault("LISTEN_ADDR", cfg.ListenAddr)
	cfg.AdminAddr = getEnvOrDefault("ADMIN_ADDR", cfg.AdminAddr)
	cfg.MongoURI = getEnvOrDefault("MONGO_URI", cfg.MongoURI)
	cfg.MongoTimeoutSeconds = getEnvAsInt("MONGO_TIMEOUT_SECONDS", cfg.MongoTimeoutSeconds)
	cfg.SessionTTLSeconds = getEnvAsInt("SESSION_TTL_SECONDS", cfg.SessionTTLSeconds)
	cfg.ShutdownTimeoutSeconds = getEnvAsInt("SERVER_SHUTDOWN_TIMEOUT_SECONDS", cfg.ShutdownTimeoutSeconds)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		} else {
			log.Printf("Warning: Failed to parse environment variable %s='%s' as int, using default %d: %v", key, value, defaultValue, err)
		}
	}
	return defaultValue
}

// LoadConfigFile decodes a YAML config over cfg.
func LoadConfigFile(reader io.Reader, cfg *Config) error {
	decoder := yaml.NewDecoder(reader)

	if err := decoder.Decode(cfg); err != nil {
		return err
	}

	return nil
}

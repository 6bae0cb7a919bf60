package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv    string
	Port       string
	JWTSecret  string
	UploadDir  string
	CatalogTTL int // reference-catalog cache TTL in seconds
	Database   DatabaseConfig
	Directory  DirectoryConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Alter    bool
}

// DirectoryConfig holds the upstream HR directory connection settings.
// Sync is disabled when URL is empty.
type DirectoryConfig struct {
	URL          string
	Database     string
	Username     string
	Password     string
	SyncInterval int // in minutes
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		NodeEnv:    getEnv("NODE_ENV", "development"),
		Port:       getEnv("PORT", "3001"),
		JWTSecret:  jwtSecret,
		UploadDir:  getEnv("UPLOAD_DIR", "./uploads"),
		CatalogTTL: getEnvInt("CATALOG_CACHE_TTL", 300),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "chancellery"),
			Alter:    getEnv("DB_ALTER", "false") == "true",
		},
		Directory: DirectoryConfig{
			URL:          os.Getenv("DIRECTORY_URL"),
			Database:     os.Getenv("DIRECTORY_DATABASE"),
			Username:     os.Getenv("DIRECTORY_USERNAME"),
			Password:     os.Getenv("DIRECTORY_PASSWORD"),
			SyncInterval: getEnvInt("DIRECTORY_SYNC_INTERVAL", 15),
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Provider ProviderConfig
	OTEL     OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ProviderConfig holds configuration for the external practice-management
// system the sync pipeline scrapes. The remote UI is not a documented API,
// so everything here (paths, timeouts, retry bounds) is tunable.
type ProviderConfig struct {
	BaseURL         string
	LoginPath       string
	PatientListPath string
	Username        string
	Password        string
	PinCode         string
	Category        string
	Headless        bool
	NavTimeout      time.Duration
	LoginTimeout    time.Duration
	NavRetries      int
	SnapshotDir     string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "roundsync"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Provider: ProviderConfig{
			BaseURL:         getEnv("PROVIDER_BASE_URL", ""),
			LoginPath:       getEnv("PROVIDER_LOGIN_PATH", "/login"),
			PatientListPath: getEnv("PROVIDER_PATIENT_LIST_PATH", "/whiteboard"),
			Username:        getEnv("PROVIDER_USERNAME", ""),
			Password:        getEnv("PROVIDER_PASSWORD", ""),
			PinCode:         getEnv("PROVIDER_PIN_CODE", "0000"),
			Category:        getEnv("PROVIDER_CATEGORY", "Neurology"),
			Headless:        getEnvAsBool("PROVIDER_HEADLESS", true),
			NavTimeout:      getEnvAsDuration("PROVIDER_NAV_TIMEOUT_SECONDS", 20*time.Second),
			LoginTimeout:    getEnvAsDuration("PROVIDER_LOGIN_TIMEOUT_SECONDS", 45*time.Second),
			NavRetries:      getEnvAsInt("PROVIDER_NAV_RETRIES", 3),
			SnapshotDir:     getEnv("PROVIDER_SNAPSHOT_DIR", "/tmp/roundsync-snapshots"),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "roundsync"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoginURL returns the absolute URL of the provider login page
func (c *ProviderConfig) LoginURL() string {
	return c.BaseURL + c.LoginPath
}

// PatientListURL returns the absolute URL of the provider patient-list view
func (c *ProviderConfig) PatientListURL() string {
	return c.BaseURL + c.PatientListPath
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return time.Duration(intVal) * time.Second
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	environment := GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(logrus.DebugLevel)
	case "production":
		log.SetLevel(logrus.ErrorLevel)
	default:
		// Default to info level for other environments
		log.SetLevel(logrus.InfoLevel)
	}
}

// Config used for the application configuration, loading the input from environment variables
type Config struct {
	// Server Configuration
	Port int    `json:"port"`
	Host string `json:"host"`

	// Database configuration
	DBDriver   string `json:"db_driver"`
	DBHost     string `json:"db_host"`
	DBPort     string `json:"db_port"`
	DBName     string `json:"db_name"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBPath     string `json:"db_path"`
	DBSSLMode  string `json:"db_ssl_mode"`

	// Logging configuration
	LogLevel string `json:"log_level"`

	// Security Configuration
	JWTSecret string `json:"jwt_secret"`

	// Access-control integration
	AccessPollInterval   time.Duration `json:"access_poll_interval"`
	AccessPageSize       int           `json:"access_page_size"`
	AccessRelayURL       string        `json:"access_relay_url"`
	AccessCloudTimeout   time.Duration `json:"access_cloud_timeout"`
	AccessDeviceTimeout  time.Duration `json:"access_device_timeout"`
	AccessAllowSimulated bool          `json:"access_allow_simulated"`
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %d, Host: %s, DBDriver: %s, DBHost: %s, DBName: %s, DBUser: %s, DBPassword: [REDACTED], LogLevel: %s, JWTSecret: [REDACTED], AccessPollInterval: %s, AccessRelayURL: %s, AccessAllowSimulated: %t}",
		c.Port, c.Host, c.DBDriver, c.DBHost, c.DBName, c.DBUser, c.LogLevel, c.AccessPollInterval, c.AccessRelayURL, c.AccessAllowSimulated)
}

// LoadConfig reads the configuration from environment variables and returns a Config struct.
// Returns an error if any value has an invalid format.
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")
	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, err
	}

	pollInterval, err := time.ParseDuration(GetEnvWithDefault("ACCESS_POLL_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACCESS_POLL_INTERVAL: %w", err)
	}
	cloudTimeout, err := time.ParseDuration(GetEnvWithDefault("ACCESS_CLOUD_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACCESS_CLOUD_TIMEOUT: %w", err)
	}
	deviceTimeout, err := time.ParseDuration(GetEnvWithDefault("ACCESS_DEVICE_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ACCESS_DEVICE_TIMEOUT: %w", err)
	}

	config := &Config{
		Port:       port,
		Host:       GetEnvWithDefault("APP_HOST", "localhost"),
		DBDriver:   GetEnvWithDefault("DB_DRIVER", "sqlite"),
		DBHost:     GetEnvWithDefault("DB_HOST", "localhost"),
		DBPort:     GetEnvWithDefault("DB_PORT", "5432"),
		DBName:     GetEnvWithDefault("DB_NAME", "gym"),
		DBUser:     GetEnvWithDefault("DB_USER", "gym"),
		DBPassword: GetEnvWithDefault("DB_PASSWORD", "gym"),
		DBPath:     GetEnvWithDefault("DB_PATH", "gym.sqlite"),
		DBSSLMode:  GetEnvWithDefault("DB_SSLMODE", "disable"),
		LogLevel:   GetEnvWithDefault("LOG_LEVEL", "info"),
		JWTSecret:  GetEnvWithDefault("JWT_SECRET", "secret"),

		AccessPollInterval:   pollInterval,
		AccessPageSize:       GetEnvAsType("ACCESS_PAGE_SIZE", 50),
		AccessRelayURL:       GetEnvWithDefault("ACCESS_RELAY_URL", ""),
		AccessCloudTimeout:   cloudTimeout,
		AccessDeviceTimeout:  deviceTimeout,
		AccessAllowSimulated: GetEnvAsType("ACCESS_ALLOW_SIMULATED", false),
	}
	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Warnf("Environment variable %s not set, using default value: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return any(intValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return any(boolValue).(T)
	default:
		return defaultValue // Fallback for unsupported types
	}
}

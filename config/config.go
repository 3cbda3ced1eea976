package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	DatabaseDriver     string
	Port               string
	GoEnv              string
	LogLevel           string
	LogFormat          string
	Auth0Domain        string
	Auth0Audience      string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RabbitMQURL        string
	NotifyDriver       string
	TableCodeSecret    string
	PublicBaseURL      string
	CORSAllowOrigins   []string
}

var current *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			// Deployed environments set variables directly
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("REDIS_DB must be an integer: %w", err)
	}

	config := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		DatabaseDriver:     getEnv("DATABASE_DRIVER", "postgres"),
		Port:               getEnv("PORT", "8080"),
		GoEnv:              getEnv("GO_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		Auth0Domain:        getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:      getEnv("AUTH0_AUDIENCE", ""),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            redisDB,
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		NotifyDriver:       getEnv("NOTIFY_DRIVER", "log"),
		TableCodeSecret:    getEnv("TABLE_CODE_SECRET", ""),
		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		CORSAllowOrigins:   splitList(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	SetConfig(config)
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver)
	}
	switch c.NotifyDriver {
	case "log", "redis", "rabbitmq":
	default:
		return fmt.Errorf("NOTIFY_DRIVER must be log, redis or rabbitmq, got %q", c.NotifyDriver)
	}
	if c.NotifyDriver == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when NOTIFY_DRIVER=redis")
	}
	if c.NotifyDriver == "rabbitmq" && c.RabbitMQURL == "" {
		return fmt.Errorf("RABBITMQ_URL is required when NOTIFY_DRIVER=rabbitmq")
	}
	if c.TableCodeSecret == "" && !c.IsDevelopment() && !c.IsTest() {
		return fmt.Errorf("TABLE_CODE_SECRET is required in %s", c.GoEnv)
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// AuthEnabled reports whether staff routes are protected by Auth0
func (c *Config) AuthEnabled() bool {
	return c.Auth0Domain != "" && c.Auth0Audience != ""
}

// GetConfig returns the configuration stored by the last Load or SetConfig
func GetConfig() *Config {
	return current
}

// SetConfig replaces the global configuration (used by tests)
func SetConfig(c *Config) {
	current = c
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxRetries     int
	RetryBaseMs    int
	MaxConcurrency int
	HTTPTimeoutSec int

	ArtifactDir    string
	ThresholdsFile string
	MetricsFile    string
	LogLevel       string

	AWSRegion      string
	S3Endpoint     string
	S3UsePathStyle bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "pipeline"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "pipeline123"),
		PostgresDB:       getEnv("POSTGRES_DB", "nyc_airbnb"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		RetryBaseMs:    getEnvInt("RETRY_BASE_MS", 2000),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 2),
		HTTPTimeoutSec: getEnvInt("HTTP_TIMEOUT_SEC", 60),

		ArtifactDir:    getEnv("ARTIFACT_DIR", "./artifacts"),
		ThresholdsFile: getEnv("THRESHOLDS_FILE", ""),
		MetricsFile:    getEnv("METRICS_FILE", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3UsePathStyle: getEnvBool("S3_USE_PATH_STYLE", false),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

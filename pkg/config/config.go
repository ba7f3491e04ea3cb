package config

import (
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	Environment       string
	LogLevel          string
	LogFormat         string
	Port              string
	UploadDir         string
	DataDir           string
	DatabasePath      string
	MaxUploadMB       int
	RedisURL          string
	WorkerConcurrency int
	MinWorkers        int
	MaxWorkers        int
	QueueThreshold    int
	WorkerImage       string
	K8sNamespace      string
	AuthSecret        string
	RetentionDays     int
	RetentionSchedule string
	EncodeLimit       int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		Port:              getEnv("PORT", "8080"),
		UploadDir:         getEnv("UPLOAD_DIR", "./data/uploads"),
		DataDir:           getEnv("DATA_DIR", "./data"),
		DatabasePath:      getEnv("DATABASE_PATH", "./data/tableprep.db"),
		MaxUploadMB:       getEnvAsInt("MAX_UPLOAD_MB", 100),
		RedisURL:          getEnv("REDIS_URL", ""),
		WorkerConcurrency: getEnvAsInt("WORKER_CONCURRENCY", 4),
		MinWorkers:        getEnvAsInt("MIN_WORKERS", 1),
		MaxWorkers:        getEnvAsInt("MAX_WORKERS", 10),
		QueueThreshold:    getEnvAsInt("QUEUE_THRESHOLD", 5),
		WorkerImage:       getEnv("WORKER_IMAGE", "tableprep-worker:latest"),
		K8sNamespace:      getEnv("K8S_NAMESPACE", "default"),
		AuthSecret:        getEnv("AUTH_SECRET", ""),
		RetentionDays:     getEnvAsInt("RETENTION_DAYS", 30),
		RetentionSchedule: getEnv("RETENTION_SCHEDULE", "0 3 * * *"),
		EncodeLimit:       getEnvAsInt("ENCODE_DISTINCT_LIMIT", 50),
	}

	return config, nil
}

// Distributed reports whether jobs should flow through Redis instead of
// the in-process queue. An empty REDIS_URL selects inline execution.
func (c *Config) Distributed() bool {
	return c.RedisURL != ""
}

// AuthEnabled reports whether request authentication is configured.
func (c *Config) AuthEnabled() bool {
	return c.AuthSecret != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

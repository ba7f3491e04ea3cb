package config

import (
	"os"
	"testing"
)

// TestLoadConfig tests configuration loading
func TestLoadConfig(t *testing.T) {
	os.Setenv("ENVIRONMENT", "test")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("PORT", "9090")
	os.Setenv("MAX_UPLOAD_MB", "25")
	os.Setenv("WORKER_CONCURRENCY", "8")
	os.Setenv("RETENTION_DAYS", "7")

	defer func() {
		os.Unsetenv("ENVIRONMENT")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("PORT")
		os.Unsetenv("MAX_UPLOAD_MB")
		os.Unsetenv("WORKER_CONCURRENCY")
		os.Unsetenv("RETENTION_DAYS")
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Environment != "test" {
		t.Errorf("Expected environment 'test', got '%s'", cfg.Environment)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug', got '%s'", cfg.LogLevel)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port '9090', got '%s'", cfg.Port)
	}

	if cfg.MaxUploadMB != 25 {
		t.Errorf("Expected MaxUploadMB 25, got %d", cfg.MaxUploadMB)
	}

	if cfg.WorkerConcurrency != 8 {
		t.Errorf("Expected WorkerConcurrency 8, got %d", cfg.WorkerConcurrency)
	}

	if cfg.RetentionDays != 7 {
		t.Errorf("Expected RetentionDays 7, got %d", cfg.RetentionDays)
	}
}

// TestLoadConfigDefaults tests default values
func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("Expected default environment 'development', got '%s'", cfg.Environment)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port '8080', got '%s'", cfg.Port)
	}

	if cfg.DatabasePath != "./data/tableprep.db" {
		t.Errorf("Expected default database path './data/tableprep.db', got '%s'", cfg.DatabasePath)
	}

	if cfg.MaxUploadMB != 100 {
		t.Errorf("Expected default MaxUploadMB 100, got %d", cfg.MaxUploadMB)
	}

	if cfg.RetentionSchedule != "0 3 * * *" {
		t.Errorf("Expected default retention schedule '0 3 * * *', got '%s'", cfg.RetentionSchedule)
	}

	if cfg.EncodeLimit != 50 {
		t.Errorf("Expected default encode limit 50, got %d", cfg.EncodeLimit)
	}
}

// TestConfigModes tests the mode helper methods
func TestConfigModes(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Distributed() {
		t.Error("Expected inline mode when REDIS_URL is unset")
	}

	if cfg.AuthEnabled() {
		t.Error("Expected auth disabled when AUTH_SECRET is unset")
	}

	os.Setenv("REDIS_URL", "localhost:6379")
	os.Setenv("AUTH_SECRET", "secret")
	defer func() {
		os.Unsetenv("REDIS_URL")
		os.Unsetenv("AUTH_SECRET")
	}()

	cfg, err = LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if !cfg.Distributed() {
		t.Error("Expected distributed mode when REDIS_URL is set")
	}

	if !cfg.AuthEnabled() {
		t.Error("Expected auth enabled when AUTH_SECRET is set")
	}
}

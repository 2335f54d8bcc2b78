package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Advisory backends.
const (
	BackendGemini = "gemini"
	BackendHTTP   = "http"
	BackendNone   = "none"
)

type Config struct {
	// HTTP Server
	Port       string
	BuildID    string
	CORSOrigin string

	// Logging
	LogLevel string

	// Advisory
	AdvisoryBackend string
	AdvisoryURL     string
	GeminiModel     string
	AdvisoryTimeout time.Duration

	// Sessions
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration

	// Jobs
	WorkerCount int
	QueueSize   int

	// Google Cloud (optional)
	GCPProject   string
	BQDataset    string
	ReportBucket string
}

// LoadEnvFile seeds the process environment from a .env file. A missing file
// is not an error; variables already set are not overridden.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("LoadEnvFile: %w", err)
	}
	return nil
}

func Load() *Config {
	return &Config{
		Port:       getEnv("PORT", "8080"),
		BuildID:    getEnv("BUILD_ID", "dev"),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		AdvisoryBackend: strings.ToLower(getEnv("ADVISORY_BACKEND", BackendGemini)),
		AdvisoryURL:     getEnv("ADVISORY_URL", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		AdvisoryTimeout: getEnvDuration("ADVISORY_TIMEOUT", 30*time.Second),

		SessionTTL:           getEnvDuration("SESSION_TTL", 2*time.Hour),
		SessionSweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),

		WorkerCount: getEnvInt("WORKER_COUNT", 5),
		QueueSize:   getEnvInt("QUEUE_SIZE", 100),

		GCPProject:   getEnv("GCP_PROJECT", ""),
		BQDataset:    getEnv("BQ_DATASET", ""),
		ReportBucket: getEnv("REPORT_BUCKET", ""),
	}
}

// ImportEnabled reports whether the BigQuery transaction import is configured.
func (c *Config) ImportEnabled() bool {
	return c.GCPProject != "" && c.BQDataset != ""
}

// ArchiveEnabled reports whether generated reports are archived to GCS.
func (c *Config) ArchiveEnabled() bool {
	return c.ReportBucket != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendGemini, BackendHTTP, BackendNone}
	if !slices.Contains(validBackends, c.AdvisoryBackend) {
		errors = append(errors, fmt.Sprintf("invalid advisory backend '%s': must be one of %v", c.AdvisoryBackend, validBackends))
	}

	if c.AdvisoryBackend == BackendHTTP {
		if c.AdvisoryURL == "" {
			errors = append(errors, "ADVISORY_URL is required when using the http advisory backend")
		} else if u, err := url.Parse(c.AdvisoryURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid advisory URL '%s': %v", c.AdvisoryURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid advisory URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
	}

	if c.AdvisoryBackend == BackendGemini && c.GeminiModel == "" {
		errors = append(errors, "GEMINI_MODEL cannot be empty when using the gemini advisory backend")
	}

	if c.AdvisoryTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid advisory timeout %v: must be at least 1 second", c.AdvisoryTimeout))
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.SessionSweepInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid session sweep interval %v: must be at least 1 second", c.SessionSweepInterval))
	}

	if c.WorkerCount < 1 || c.WorkerCount > 64 {
		errors = append(errors, fmt.Sprintf("invalid worker count %d: must be between 1 and 64", c.WorkerCount))
	}
	if c.QueueSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid queue size %d: must be at least 1", c.QueueSize))
	}

	if (c.GCPProject == "") != (c.BQDataset == "") {
		errors = append(errors, "GCP_PROJECT and BQ_DATASET must be set together")
	}
	if c.ReportBucket != "" && c.GCPProject == "" {
		errors = append(errors, "GCP_PROJECT is required when REPORT_BUCKET is set")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

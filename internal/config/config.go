package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"gigtrack/internal/log"
)

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	ExportXLSX   = "xlsx"
	ExportSheets = "sheets"
)

type Config struct {
	// HTTP Server
	Port            string
	AllowedOrigins  []string
	ReportTimeout   time.Duration
	ShutdownTimeout time.Duration
	RateLimitPerMin int
	// TrustProxyHeaders honours X-Forwarded-For and X-Real-IP. Enable only
	// behind a reverse proxy that overwrites them.
	TrustProxyHeaders bool

	// Logging
	LogLevel  string
	LogFormat string

	// Backend selection
	DataBackend  string
	SQLiteDBPath string
	SeedDemo     bool

	// Identity cache
	IdentityCacheSize int
	IdentityCacheTTL  time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Report export
	ExportFormat        string
	ExportDir           string
	ExportSchedule      string
	ExportPeriod        string
	GoogleSpreadsheetID string

	// Worker
	WorkerMetricsAddr string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		AllowedOrigins:  getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		ReportTimeout:   getEnvDuration("REPORT_TIMEOUT", 7*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DataBackend:  getEnv("DATA_BACKEND", BackendSQLite),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/gigtrack.db"),
		SeedDemo:     getEnvBool("SEED_DEMO", false),

		IdentityCacheSize: getEnvInt("IDENTITY_CACHE_SIZE", 1024),
		IdentityCacheTTL:  getEnvDuration("IDENTITY_CACHE_TTL", time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "gigtrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "report_exports"),

		ExportFormat:        getEnv("EXPORT_FORMAT", ExportXLSX),
		ExportDir:           getEnv("EXPORT_DIR", "./data/exports"),
		ExportSchedule:      getEnv("EXPORT_SCHEDULE", "0 3 1 * *"),
		ExportPeriod:        getEnv("EXPORT_PERIOD", "monthly"),
		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),

		WorkerMetricsAddr: getEnv("WORKER_METRICS_ADDR", ""),
	}
}

// Validate validates the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	switch c.DataBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s]", c.DataBackend, BackendMemory, BackendSQLite))
	}

	if c.ReportTimeout < 100*time.Millisecond || c.ReportTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid report timeout %v: must be between 100ms and 1m", c.ReportTimeout))
	}
	if c.RateLimitPerMin < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMin))
	}
	if c.IdentityCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid identity cache size %d: must be at least 1", c.IdentityCacheSize))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch c.ExportFormat {
	case ExportXLSX:
		if c.ExportDir == "" {
			errors = append(errors, "export directory cannot be empty when exporting xlsx")
		}
	case ExportSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when exporting to sheets")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid export format '%s': must be %s or %s", c.ExportFormat, ExportXLSX, ExportSheets))
	}

	if c.ExportSchedule != "" {
		if _, err := cron.ParseStandard(c.ExportSchedule); err != nil {
			errors = append(errors, fmt.Sprintf("invalid export schedule '%s': %v", c.ExportSchedule, err))
		}
	}

	switch c.ExportPeriod {
	case "daily", "weekly", "monthly", "yearly":
	default:
		errors = append(errors, fmt.Sprintf("invalid export period '%s': must be daily, weekly, monthly or yearly", c.ExportPeriod))
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Port:              "8080",
		ReportTimeout:     7 * time.Second,
		RateLimitPerMin:   60,
		LogLevel:          "info",
		LogFormat:         "json",
		DataBackend:       BackendSQLite,
		SQLiteDBPath:      filepath.Join(t.TempDir(), "db", "gigtrack.db"),
		IdentityCacheSize: 10,
		ExportFormat:      ExportXLSX,
		ExportDir:         t.TempDir(),
		ExportSchedule:    "0 3 1 * *",
		ExportPeriod:      "monthly",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		errorString string
	}{
		{name: "valid sqlite config", mutate: func(*Config) {}},
		{name: "valid memory backend", mutate: func(c *Config) { c.DataBackend = BackendMemory; c.SQLiteDBPath = "" }},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range",
			mutate:      func(c *Config) { c.Port = "70000" },
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "unknown backend",
			mutate:      func(c *Config) { c.DataBackend = "sheets" },
			errorString: "invalid data backend 'sheets'",
		},
		{
			name:        "empty sqlite path",
			mutate:      func(c *Config) { c.SQLiteDBPath = "" },
			errorString: "SQLite database path cannot be empty",
		},
		{
			name:        "bad amqp scheme",
			mutate:      func(c *Config) { c.AMQPURL = "http://localhost"; c.AMQPExchange = "x"; c.AMQPQueue = "q" },
			errorString: "invalid AMQP URL scheme 'http'",
		},
		{
			name:        "amqp without queue",
			mutate:      func(c *Config) { c.AMQPURL = "amqp://localhost"; c.AMQPExchange = "x" },
			errorString: "AMQP queue name cannot be empty",
		},
		{
			name:        "sheets export without spreadsheet",
			mutate:      func(c *Config) { c.ExportFormat = ExportSheets },
			errorString: "Google Spreadsheet ID is required",
		},
		{
			name:        "bad cron spec",
			mutate:      func(c *Config) { c.ExportSchedule = "every tuesday" },
			errorString: "invalid export schedule 'every tuesday'",
		},
		{
			name:        "bad log level",
			mutate:      func(c *Config) { c.LogLevel = "chatty" },
			errorString: "invalid log level 'chatty'",
		},
		{
			name:        "unknown export period",
			mutate:      func(c *Config) { c.ExportPeriod = "hourly" },
			errorString: "invalid export period 'hourly'",
		},
		{name: "no schedule", mutate: func(c *Config) { c.ExportSchedule = "" }},
		{
			name:        "timeout too small",
			mutate:      func(c *Config) { c.ReportTimeout = time.Millisecond },
			errorString: "invalid report timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errorString == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorString)
		})
	}
}

func TestConfig_ValidateAggregatesErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Port = "x"
	cfg.LogFormat = "xml"
	cfg.RateLimitPerMin = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed:")
	assert.Contains(t, err.Error(), "invalid port")
	assert.Contains(t, err.Error(), "invalid log format")
	assert.Contains(t, err.Error(), "invalid rate limit")
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("REPORT_TIMEOUT", "3s")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")
	t.Setenv("SEED_DEMO", "true")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, BackendMemory, cfg.DataBackend)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.ReportTimeout)
	assert.Equal(t, 120, cfg.RateLimitPerMin, "falls back on parse failure")
	assert.True(t, cfg.SeedDemo)
	assert.True(t, cfg.TrustProxyHeaders)
	assert.Equal(t, "monthly", cfg.ExportPeriod)
	assert.Empty(t, cfg.WorkerMetricsAddr)
}

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Loader        LoaderConfig
	Report        ReportConfig
	Mail          MailConfig
	Storage       StorageConfig
	Observability ObservabilityConfig
	Log           LogConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	RateLimitPerSecond int
	RateLimitBurst     int
	AllowedOrigins     []string
	MaxUploadMB        int
	ShutdownTimeout    time.Duration
	SessionTTL         time.Duration
}

// LoaderConfig overrides the sheet names read from uploads.
type LoaderConfig struct {
	SalesSheet  string
	MatrixSheet string
	FullSheet   string
}

// ReportConfig drives the scheduled report job.
type ReportConfig struct {
	Schedule    string // cron expression; empty disables the job
	SalesPath   string
	ReturnsPath string
}

type MailConfig struct {
	ResendAPIKey string
	From         string
	To           []string
}

type StorageConfig struct {
	LocalPath string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
}

type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load reads configuration from environment variables, after loading a .env
// file when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 20),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 40),
			AllowedOrigins:     getEnvAsList("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			MaxUploadMB:        getEnvAsInt("SERVER_MAX_UPLOAD_MB", 50),
			ShutdownTimeout:    getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			SessionTTL:         getEnvAsDuration("SESSION_TTL", 2*time.Hour),
		},
		Loader: LoaderConfig{
			SalesSheet:  getEnv("SALES_SHEET", ""),
			MatrixSheet: getEnv("MATRIX_SHEET", ""),
			FullSheet:   getEnv("FULL_SHEET", ""),
		},
		Report: ReportConfig{
			Schedule:    getEnv("REPORT_SCHEDULE", ""),
			SalesPath:   getEnv("REPORT_SALES_PATH", ""),
			ReturnsPath: getEnv("REPORT_RETURNS_PATH", ""),
		},
		Mail: MailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("REPORT_MAIL_FROM", "relatorios@localhost"),
			To:           getEnvAsList("REPORT_MAIL_TO", nil),
		},
		Storage: StorageConfig{
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./reports"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT out of range: %d", c.Server.Port)
	}
	if c.Report.Schedule != "" && (c.Report.SalesPath == "" || c.Report.ReturnsPath == "") {
		return errors.New("REPORT_SALES_PATH and REPORT_RETURNS_PATH are required when REPORT_SCHEDULE is set")
	}
	if c.Mail.ResendAPIKey != "" && len(c.Mail.To) == 0 {
		return errors.New("REPORT_MAIL_TO is required when RESEND_API_KEY is set")
	}
	return nil
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MailEnabled reports whether reports should be e-mailed.
func (c *MailConfig) MailEnabled() bool {
	return c.ResendAPIKey != ""
}

// SlogLevel maps the configured level name, defaulting to info.
func (c *LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

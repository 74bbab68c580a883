package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	// HTTP Server
	Port   string
	AppEnv string

	LogLevel string

	// Database
	SQLiteDBPath string

	// Sessions
	SessionTTL          time.Duration
	SessionCookieSecure bool

	// Budget scheduler
	MonthlyBudget       decimal.Decimal
	SchedulerEnabled    bool
	SchedulerCron       string
	SchedulerTimezone   string
	SchedulerRunOnStart bool

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Digest export
	ExportBackend         string
	GoogleSpreadsheetID   string
	GoogleDigestSheetName string
	GoogleAlertSheetName  string
	TelegramBotToken      string
	TelegramChatID        int64

	RateLimitPerMinute int
	CacheTTL           time.Duration

	// set when CONFIG_FILE could not be read, reported by Validate
	fileErr error
}

// Load reads the optional TOML file named by CONFIG_FILE and then the
// environment. Environment variables win over file values.
func Load() *Config {
	file, err := loadFile(os.Getenv("CONFIG_FILE"))

	cfg := &Config{
		Port:     getEnv("PORT", file.strOr(file.Server.Port, "8080")),
		AppEnv:   getEnv("APP_ENV", file.strOr(file.Server.Env, EnvProduction)),
		LogLevel: getEnv("LOG_LEVEL", file.strOr(file.Server.LogLevel, "info")),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", file.strOr(file.Database.Path, "./data/spendwise.db")),

		SessionTTL:          getEnvDuration("SESSION_TTL", file.durationOr(file.Session.TTL, 7*24*time.Hour)),
		SessionCookieSecure: getEnvBool("SESSION_COOKIE_SECURE", file.Session.CookieSecure),

		MonthlyBudget:       getEnvDecimal("MONTHLY_BUDGET", file.decimalOr(file.Scheduler.MonthlyBudget, decimal.NewFromInt(500))),
		SchedulerEnabled:    getEnvBool("SCHEDULER_ENABLED", file.Scheduler.Enabled),
		SchedulerCron:       getEnv("SCHEDULER_CRON", file.strOr(file.Scheduler.Cron, "0 9 * * 0")),
		SchedulerTimezone:   getEnv("SCHEDULER_TIMEZONE", file.strOr(file.Scheduler.Timezone, "UTC")),
		SchedulerRunOnStart: getEnvBool("SCHEDULER_RUN_ON_START", file.Scheduler.RunOnStart),

		AMQPURL:      getEnv("AMQP_URL", file.AMQP.URL),
		AMQPExchange: getEnv("AMQP_EXCHANGE", file.strOr(file.AMQP.Exchange, "spendwise")),
		AMQPQueue:    getEnv("AMQP_QUEUE", file.strOr(file.AMQP.Queue, "budget_events")),

		ExportBackend:         getEnv("EXPORT_BACKEND", file.strOr(file.Export.Backend, "memory")),
		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", file.Export.SpreadsheetID),
		GoogleDigestSheetName: getEnv("GOOGLE_DIGEST_SHEET_NAME", file.strOr(file.Export.DigestSheet, "Digests")),
		GoogleAlertSheetName:  getEnv("GOOGLE_ALERT_SHEET_NAME", file.strOr(file.Export.AlertSheet, "Alerts")),
		TelegramBotToken:      getEnv("TELEGRAM_BOT_TOKEN", file.Export.TelegramToken),
		TelegramChatID:        getEnvInt64("TELEGRAM_CHAT_ID", file.Export.TelegramChatID),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", file.intOr(file.Server.RateLimitPerMinute, 60)),
		CacheTTL:           getEnvDuration("CACHE_TTL", file.durationOr(file.Server.CacheTTL, 5*time.Minute)),

		fileErr: err,
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.fileErr != nil {
		errors = append(errors, fmt.Sprintf("cannot load config file: %v", c.fileErr))
	}

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.AppEnv {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		errors = append(errors, fmt.Sprintf("invalid app env '%s': must be one of [%s %s %s]", c.AppEnv, EnvDevelopment, EnvProduction, EnvTest))
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	if !c.MonthlyBudget.IsPositive() {
		errors = append(errors, fmt.Sprintf("invalid monthly budget %s: must be greater than zero", c.MonthlyBudget.String()))
	}

	if _, err := cron.ParseStandard(c.SchedulerCron); err != nil {
		errors = append(errors, fmt.Sprintf("invalid scheduler cron '%s': %v", c.SchedulerCron, err))
	}
	if _, err := time.LoadLocation(c.SchedulerTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid scheduler timezone '%s': %v", c.SchedulerTimezone, err))
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

	validBackends := []string{"memory", "sheets", "telegram"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.ExportBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid export backend '%s': must be one of %v", c.ExportBackend, validBackends))
	}

	if c.ExportBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets export backend")
		}
		if c.GoogleDigestSheetName == "" {
			errors = append(errors, "Google digest sheet name is required when using sheets export backend")
		}
	}

	if c.ExportBackend == "telegram" {
		if c.TelegramBotToken == "" {
			errors = append(errors, "Telegram bot token is required when using telegram export backend")
		}
		if c.TelegramChatID == 0 {
			errors = append(errors, "Telegram chat ID is required when using telegram export backend")
		}
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// IsDevelopment reports whether development-only endpoints are enabled.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// Location returns the scheduler timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.SchedulerTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseLogLevel maps LOG_LEVEL values onto slog levels.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s': must be one of [debug info warn error]", s)
	}
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

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
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

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}

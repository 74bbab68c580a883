package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
)

// fileConfig mirrors the optional TOML config file. Every field is optional;
// empty values fall through to the built-in defaults.
type fileConfig struct {
	Server struct {
		Port               string `toml:"port"`
		Env                string `toml:"env"`
		LogLevel           string `toml:"log_level"`
		RateLimitPerMinute int    `toml:"rate_limit_per_minute"`
		CacheTTL           string `toml:"cache_ttl"`
	} `toml:"server"`

	Database struct {
		Path string `toml:"path"`
	} `toml:"database"`

	Session struct {
		TTL          string `toml:"ttl"`
		CookieSecure bool   `toml:"cookie_secure"`
	} `toml:"session"`

	Scheduler struct {
		Enabled       bool   `toml:"enabled"`
		Cron          string `toml:"cron"`
		Timezone      string `toml:"timezone"`
		MonthlyBudget string `toml:"monthly_budget"`
		RunOnStart    bool   `toml:"run_on_start"`
	} `toml:"scheduler"`

	AMQP struct {
		URL      string `toml:"url"`
		Exchange string `toml:"exchange"`
		Queue    string `toml:"queue"`
	} `toml:"amqp"`

	Export struct {
		Backend       string `toml:"backend"`
		SpreadsheetID string `toml:"spreadsheet_id"`
		DigestSheet   string `toml:"digest_sheet"`
		AlertSheet    string `toml:"alert_sheet"`
		// telegram backend; chat IDs of groups are negative
		TelegramToken  string `toml:"telegram_token"`
		TelegramChatID int64  `toml:"telegram_chat_id"`
	} `toml:"export"`
}

func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	path = strings.TrimSpace(path)
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

func (fileConfig) strOr(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func (fileConfig) intOr(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func (fileConfig) durationOr(v string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
		return d
	}
	return def
}

func (fileConfig) decimalOr(v string, def decimal.Decimal) decimal.Decimal {
	if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
		return d
	}
	return def
}

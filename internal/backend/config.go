package backend

import (
	"errors"
	"fmt"

	"spendwise/internal/config"
)

// FromAppConfig converts the application config to exporter config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	t := ExporterType(appConfig.ExportBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid export backend in config: %s", appConfig.ExportBackend)
	}

	return Config{
		Type:                t,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		DigestSheetName:     appConfig.GoogleDigestSheetName,
		AlertSheetName:      appConfig.GoogleAlertSheetName,
		TelegramBotToken:    appConfig.TelegramBotToken,
		TelegramChatID:      appConfig.TelegramChatID,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid export backend: %s", c.Type)
	}
	if c.Type == SheetsExporter && c.GoogleSpreadsheetID == "" {
		return errors.New("Google Spreadsheet ID is required for sheets export")
	}
	if c.Type == TelegramExporter && (c.TelegramBotToken == "" || c.TelegramChatID == 0) {
		return errors.New("Telegram bot token and chat ID are required for telegram export")
	}
	return nil
}

// ExporterTypes returns all valid exporter types
func ExporterTypes() []ExporterType {
	return []ExporterType{MemoryExporter, SheetsExporter, TelegramExporter}
}

package backend

import (
	"context"
	"fmt"
	"log/slog"

	gsheet "spendwise/internal/sheets/google"
	"spendwise/internal/sheets/memory"
	"spendwise/internal/sheets/telegram"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateExporter(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SheetsExporter:
		return f.createSheetsExporter(ctx, config)
	case TelegramExporter:
		return f.createTelegramExporter(config)
	case MemoryExporter:
		f.logger.Info("Initialized memory exporter")
		return &Result{Exporter: memory.New()}, nil
	default:
		return nil, fmt.Errorf("unsupported export backend: %s", config.Type)
	}
}

func (f *DefaultFactory) createSheetsExporter(ctx context.Context, config Config) (*Result, error) {
	cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.DigestSheetName, config.AlertSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets exporter",
		"digest_sheet", config.DigestSheetName,
		"alert_sheet", config.AlertSheetName)

	return &Result{Exporter: cli}, nil
}

func (f *DefaultFactory) createTelegramExporter(config Config) (*Result, error) {
	cli, err := telegram.New(config.TelegramBotToken, config.TelegramChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram client: %w", err)
	}

	f.logger.Info("Initialized Telegram exporter",
		"bot", cli.BotName(),
		"chat_id", config.TelegramChatID)

	return &Result{Exporter: cli}, nil
}

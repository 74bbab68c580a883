package backend

import (
	"context"

	"spendwise/internal/sheets"
)

type ExporterType string

const (
	MemoryExporter   ExporterType = "memory"
	SheetsExporter   ExporterType = "sheets"
	TelegramExporter ExporterType = "telegram"
)

func (t ExporterType) IsValid() bool {
	switch t {
	case MemoryExporter, SheetsExporter, TelegramExporter:
		return true
	}
	return false
}

func (t ExporterType) String() string {
	return string(t)
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the exporter instance and optional cleanup function
type Result struct {
	Exporter sheets.Exporter
	Cleanup  CleanupFunc
}

// Factory creates digest exporters based on configuration
type Factory interface {
	CreateExporter(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for exporter creation
type Config struct {
	Type ExporterType

	GoogleSpreadsheetID string
	DigestSheetName     string
	AlertSheetName      string

	TelegramBotToken string
	TelegramChatID   int64
}

package backend

import (
	"context"
	"strings"
	"testing"

	"spendwise/internal/config"
	"spendwise/internal/sheets/memory"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}

	cfg, err := FromAppConfig(&config.Config{
		ExportBackend:         "sheets",
		GoogleSpreadsheetID:   "abc",
		GoogleDigestSheetName: "Digests",
		GoogleAlertSheetName:  "Alerts",
	})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SheetsExporter || cfg.GoogleSpreadsheetID != "abc" || cfg.DigestSheetName != "Digests" {
		t.Errorf("unexpected config %+v", cfg)
	}

	cfg, err = FromAppConfig(&config.Config{
		ExportBackend:    "telegram",
		TelegramBotToken: "123:abc",
		TelegramChatID:   -42,
	})
	if err != nil {
		t.Fatalf("FromAppConfig telegram: %v", err)
	}
	if cfg.Type != TelegramExporter || cfg.TelegramChatID != -42 {
		t.Errorf("unexpected telegram config %+v", cfg)
	}

	if _, err := FromAppConfig(&config.Config{ExportBackend: "postgres"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"memory", Config{Type: MemoryExporter}, ""},
		{"sheets without id", Config{Type: SheetsExporter}, "Spreadsheet ID is required"},
		{"sheets", Config{Type: SheetsExporter, GoogleSpreadsheetID: "x"}, ""},
		{"telegram without chat", Config{Type: TelegramExporter, TelegramBotToken: "t"}, "chat ID are required"},
		{"telegram", Config{Type: TelegramExporter, TelegramBotToken: "t", TelegramChatID: -42}, ""},
		{"invalid", Config{Type: "csv"}, "invalid export backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_CreateMemoryExporter(t *testing.T) {
	res, err := NewFactory(nil).CreateExporter(context.Background(), Config{Type: MemoryExporter})
	if err != nil {
		t.Fatalf("CreateExporter: %v", err)
	}
	if _, ok := res.Exporter.(*memory.Store); !ok {
		t.Errorf("expected *memory.Store, got %T", res.Exporter)
	}
	if res.Cleanup != nil {
		t.Error("memory exporter needs no cleanup")
	}
}

func TestFactory_SheetsWithoutCredentials(t *testing.T) {
	for _, key := range []string{
		"GOOGLE_SERVICE_ACCOUNT_JSON", "GOOGLE_SERVICE_ACCOUNT_FILE", "GOOGLE_APPLICATION_CREDENTIALS",
		"GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE",
	} {
		t.Setenv(key, "")
	}
	_, err := NewFactory(nil).CreateExporter(context.Background(), Config{Type: SheetsExporter, GoogleSpreadsheetID: "x"})
	if err == nil || !strings.Contains(err.Error(), "Google Sheets client") {
		t.Fatalf("expected sheets init error, got %v", err)
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"spendwise/internal/cli"
	"spendwise/internal/config"
	applog "spendwise/internal/log"
	"spendwise/internal/storage"

	"github.com/spf13/cobra"
)

var (
	flagDBPath string
	flagJSON   bool

	cfg    *config.Config
	logger *applog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "spendctl",
	Short:         "spendwise admin CLI",
	Long:          "Administer a spendwise database: migrations, weekly runs, budget checks and users.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cli.LoadEnvFile()
		cfg = config.Load()
		if flagDBPath != "" {
			cfg.SQLiteDBPath = flagDBPath
		}
		logger = cli.SetupLogger(applog.ComponentApp, cfg.LogLevel)
		return cfg.Validate()
	},
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database path (overrides SQLITE_DB_PATH)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print results as JSON")
}

// openRepo opens the configured database, applying migrations.
func openRepo() (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.SQLiteDBPath, err)
	}
	return repo, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

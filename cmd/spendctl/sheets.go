package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	gsheet "spendwise/internal/sheets/google"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

var (
	flagRedirectPort string
	flagTokenFile    string
)

var sheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "Google Sheets digest export",
}

var sheetsAuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize Sheets access and save an OAuth token",
	Long: "Runs the OAuth consent flow for the client in GOOGLE_OAUTH_CLIENT_JSON or\n" +
		"GOOGLE_OAUTH_CLIENT_FILE and saves the token for the digest worker.",
	RunE: runSheetsAuth,
}

func init() {
	sheetsAuthCmd.Flags().StringVar(&flagRedirectPort, "port", envOr("OAUTH_REDIRECT_PORT", "8085"), "Local port for the OAuth redirect")
	sheetsAuthCmd.Flags().StringVar(&flagTokenFile, "token-file", envOr("GOOGLE_OAUTH_TOKEN_FILE", "token.json"), "Where to write the token")
	sheetsCmd.AddCommand(sheetsAuthCmd)
	rootCmd.AddCommand(sheetsCmd)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func runSheetsAuth(cmd *cobra.Command, _ []string) error {
	oauthCfg, err := gsheet.OAuthConfigFromEnv()
	if err != nil {
		return err
	}
	// The OAuth client must list this URI among its authorized redirects.
	oauthCfg.RedirectURL = "http://localhost:" + flagRedirectPort + "/callback"

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if e := r.URL.Query().Get("error"); e != "" {
			http.Error(w, "OAuth error: "+e, http.StatusBadRequest)
			errCh <- fmt.Errorf("authorization denied: %s", e)
			return
		}
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
		codeCh <- r.URL.Query().Get("code")
	})
	srv := &http.Server{Addr: ":" + flagRedirectPort, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  Open this URL to authorize:\n  %s\n", oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	select {
	case code := <-codeCh:
		tok, err := oauthCfg.Exchange(ctx, code)
		if err != nil {
			return fmt.Errorf("token exchange: %w", err)
		}
		if err := gsheet.SaveToken(flagTokenFile, tok); err != nil {
			return err
		}
		fmt.Fprintf(out, "  Saved token to %s\n", flagTokenFile)
		return nil
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Minute):
		return errors.New("authorization timed out")
	case <-ctx.Done():
		return errors.New("interrupted")
	}
}

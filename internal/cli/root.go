// Package cli implements the samlctl command tree. Commands talk to the
// auth broker through the shared session and API client, so every admin
// call carries the persisted bearer token.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/bondilirithika/dynamic-saml/internal/api"
	"github.com/bondilirithika/dynamic-saml/internal/auth"
	"github.com/bondilirithika/dynamic-saml/internal/config"
	"github.com/bondilirithika/dynamic-saml/pkg/debug"
)

var rootCmd = &cobra.Command{
	Use:   "samlctl",
	Short: "Administer SAML identity providers through the auth broker",
	Long: `samlctl manages the SAML identity provider configuration of an auth
broker: sign in, inspect the session, and create, update, or remove
provider records.

Configuration comes from the environment (optionally via a .env file):

  SAML_API_BASE     broker base URL (default http://localhost:8080)
  SAML_APP_ORIGIN   this tool's redirect target (default http://localhost:3000)
  SAML_TOKEN_FILE   bearer token location (default ~/.config/dynamic-saml/token)
  SAML_HTTP_TIMEOUT request timeout in seconds (default 30)`,
	SilenceUsage: true,
}

var (
	appConfig  *config.Config
	appSession *auth.Session
	appClient  *api.Client
)

func init() {
	rootCmd.PersistentPreRunE = initApp
}

// initApp wires config, token store, bearer transport, API client, and
// session. The transport reads the token through the session accessor, so
// a token picked up mid-command is used by the very next request.
func initApp(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	appConfig = cfg

	store := auth.NewTokenStore(cfg.TokenFile)
	hc := &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: auth.NewTransport(func() string { return appSession.Token() }, nil),
	}
	appClient = api.NewClient(cfg.APIBase, hc)
	appSession = auth.NewSession(store, appClient, cfg.AppOrigin)
	return nil
}

// requireAuth resumes the persisted session and fails the command when no
// valid token is available
func requireAuth(cmd *cobra.Command, args []string) error {
	if err := initApp(cmd, args); err != nil {
		return err
	}
	_, err := appSession.BootstrapFromURL(cmd.Context(), "")
	if err != nil {
		return fmt.Errorf("session is no longer valid, sign in again with 'samlctl login'")
	}
	if appSession.Phase() != auth.PhaseAuthenticated {
		return fmt.Errorf("not signed in, run 'samlctl login' first")
	}
	return nil
}

// requireAdmin additionally checks the ADMIN role locally before the
// broker gets a chance to 403
func requireAdmin(cmd *cobra.Command, args []string) error {
	if err := requireAuth(cmd, args); err != nil {
		return err
	}
	if !appSession.IsAdmin() {
		id := appSession.Identity()
		return fmt.Errorf("user %s does not have the ADMIN role", id.Username)
	}
	return nil
}

// printJSON writes v as indented JSON to stdout
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Execute runs the root command
func Execute() {
	debug.Reinitialize()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

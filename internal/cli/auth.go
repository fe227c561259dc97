package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bondilirithika/dynamic-saml/internal/auth"
)

var loginCmd = &cobra.Command{
	Use:   "login [provider-id]",
	Short: "Start a broker sign-in",
	Long: `Start a broker sign-in and print the URL to open in a browser.

The broker redirects back to SAML_APP_ORIGIN with a jwt query parameter;
complete the sign-in by passing that full redirect URL to 'samlctl login
complete'.

Examples:
  samlctl login
  samlctl login okta`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var loginCompleteCmd = &cobra.Command{
	Use:   "complete [redirect-url]",
	Short: "Finish a sign-in from the broker redirect URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runLoginComplete,
}

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the current session",
	PreRunE: requireAuth,
	RunE:    runStatus,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the local session and print the broker logout URL",
	RunE:  runLogout,
}

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the sign-in options the broker currently offers",
	RunE:  runOptions,
}

func init() {
	loginCmd.AddCommand(loginCompleteCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(optionsCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	providerID := ""
	if len(args) == 1 {
		providerID = args[0]
	}
	fmt.Println("Open this URL in a browser to sign in:")
	fmt.Println()
	fmt.Println("  " + appSession.LoginURL(providerID))
	fmt.Println()
	fmt.Println("Then run: samlctl login complete '<redirect-url>'")
	return nil
}

func runLoginComplete(cmd *cobra.Command, args []string) error {
	if _, err := appSession.BootstrapFromURL(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}
	id := appSession.Identity()
	fmt.Printf("Signed in as %s", id.Username)
	if id.Name != "" {
		fmt.Printf(" (%s)", id.Name)
	}
	fmt.Println()
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	id := appSession.Identity()
	fmt.Printf("Phase:    %s\n", appSession.Phase())
	fmt.Printf("Username: %s\n", id.Username)
	if id.Email != "" {
		fmt.Printf("Email:    %s\n", id.Email)
	}
	if id.Name != "" {
		fmt.Printf("Name:     %s\n", id.Name)
	}
	fmt.Printf("Roles:    %v\n", id.Roles)
	fmt.Printf("Admin:    %v\n", id.HasRole(auth.RoleAdmin))
	fmt.Printf("Broker:   %s\n", appConfig.APIBase)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	logoutURL := appSession.Logout()
	fmt.Println("Local session cleared.")
	fmt.Println("To also end the broker session, open:")
	fmt.Println()
	fmt.Println("  " + logoutURL)
	return nil
}

func runOptions(cmd *cobra.Command, args []string) error {
	options, err := appClient.AuthOptions(cmd.Context())
	if err != nil {
		return err
	}
	if len(options) == 0 {
		fmt.Println("No sign-in options are configured.")
		return nil
	}
	return printJSON(options)
}

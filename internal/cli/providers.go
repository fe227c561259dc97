package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bondilirithika/dynamic-saml/internal/models"
	"github.com/bondilirithika/dynamic-saml/internal/provider"
)

var providersCmd = &cobra.Command{
	Use:     "providers",
	Aliases: []string{"provider", "idp"},
	Short:   "Manage SAML identity provider records",
}

var (
	provName           string
	provID             string
	provLoginURL       string
	provLogoutURL      string
	provCertFile       string
	provMetadataURL    string
	provMetadataFile   string
	provNameIDFormat   string
	provIconURL        string
	provDisabled       bool
	provLimitSelfReg   bool
	provSignRequests   bool
	provRequireEncResp bool
	provSPCertFile     string
	provSPKeyFile      string
)

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all provider records",
	Long: `List all provider records.

Examples:
  samlctl providers list`,
	PreRunE: requireAdmin,
	RunE:    runProvidersList,
}

var providersGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show one provider record",
	Long: `Show one provider record.

Examples:
  samlctl providers get okta`,
	Args:    cobra.ExactArgs(1),
	PreRunE: requireAdmin,
	RunE:    runProvidersGet,
}

var providersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a provider record",
	Long: `Create a provider record.

The record ID is derived from the display name unless --id is given.
IdP settings can be entered directly, imported from a metadata URL, or
imported from a metadata XML file; imported values can still be
overridden by the direct flags.

Examples:
  samlctl providers create --name "Okta Production" \
    --idp-login-url https://example.okta.com/app/sso/saml \
    --idp-certificate-file okta.pem
  samlctl providers create --name "Google Workspace" \
    --metadata-url https://accounts.google.com/o/saml2/idp/metadata`,
	PreRunE: requireAdmin,
	RunE:    runProvidersCreate,
}

var providersUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update a provider record",
	Long: `Update a provider record. Only the given flags change; everything
else keeps its stored value.

Examples:
  samlctl providers update okta --name "Okta (Renamed)"
  samlctl providers update okta --disabled`,
	Args:    cobra.ExactArgs(1),
	PreRunE: requireAdmin,
	RunE:    runProvidersUpdate,
}

var providersDeleteCmd = &cobra.Command{
	Use:     "delete [id]",
	Aliases: []string{"rm", "remove"},
	Short:   "Delete a provider record",
	Args:    cobra.ExactArgs(1),
	PreRunE: requireAdmin,
	RunE:    runProvidersDelete,
}

var providersParseURLCmd = &cobra.Command{
	Use:     "parse-url [metadata-url]",
	Short:   "Preview what the broker extracts from an IdP metadata URL",
	Args:    cobra.ExactArgs(1),
	PreRunE: requireAdmin,
	RunE:    runProvidersParseURL,
}

var providersParseXMLCmd = &cobra.Command{
	Use:     "parse-xml [metadata-file]",
	Short:   "Preview what the broker extracts from an IdP metadata XML file",
	Args:    cobra.ExactArgs(1),
	PreRunE: requireAdmin,
	RunE:    runProvidersParseXML,
}

var providersRefreshCmd = &cobra.Command{
	Use:     "refresh",
	Short:   "Tell the broker to reload its SAML registrations",
	PreRunE: requireAdmin,
	RunE:    runProvidersRefresh,
}

func init() {
	addDraftFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&provName, "name", "", "Display name shown on the login selector")
		cmd.Flags().StringVar(&provLoginURL, "idp-login-url", "", "IdP single sign-on URL")
		cmd.Flags().StringVar(&provLogoutURL, "idp-logout-url", "", "IdP single logout URL")
		cmd.Flags().StringVar(&provCertFile, "idp-certificate-file", "", "File holding the IdP signing certificate (PEM)")
		cmd.Flags().StringVar(&provMetadataURL, "metadata-url", "", "Import IdP settings from this metadata URL")
		cmd.Flags().StringVar(&provMetadataFile, "metadata-xml-file", "", "Import IdP settings from this metadata XML file")
		cmd.Flags().StringVar(&provNameIDFormat, "name-id-format", "", "NameID format URN")
		cmd.Flags().StringVar(&provIconURL, "icon-url", "", "Custom icon for the login selector")
		cmd.Flags().BoolVar(&provDisabled, "disabled", false, "Hide the provider from the login selector")
		cmd.Flags().BoolVar(&provLimitSelfReg, "limit-self-registration", false, "Only let existing accounts sign in")
		cmd.Flags().BoolVar(&provSignRequests, "sign-requests", false, "Sign outgoing AuthnRequests")
		cmd.Flags().BoolVar(&provRequireEncResp, "require-encrypted-responses", false, "Require encrypted SAML responses")
		cmd.Flags().StringVar(&provSPCertFile, "sp-certificate-file", "", "SP certificate file, required with --sign-requests")
		cmd.Flags().StringVar(&provSPKeyFile, "sp-private-key-file", "", "SP private key file, required with --sign-requests")
	}

	addDraftFlags(providersCreateCmd)
	providersCreateCmd.Flags().StringVar(&provID, "id", "", "Record ID (default: slug of the display name)")
	addDraftFlags(providersUpdateCmd)

	providersCmd.AddCommand(providersListCmd)
	providersCmd.AddCommand(providersGetCmd)
	providersCmd.AddCommand(providersCreateCmd)
	providersCmd.AddCommand(providersUpdateCmd)
	providersCmd.AddCommand(providersDeleteCmd)
	providersCmd.AddCommand(providersParseURLCmd)
	providersCmd.AddCommand(providersParseXMLCmd)
	providersCmd.AddCommand(providersRefreshCmd)
	rootCmd.AddCommand(providersCmd)
}

func runProvidersList(cmd *cobra.Command, args []string) error {
	providers, err := appClient.ListProviders(cmd.Context())
	if err != nil {
		return err
	}
	if len(providers) == 0 {
		fmt.Println("No providers are configured.")
		return nil
	}
	return printJSON(providers)
}

func runProvidersGet(cmd *cobra.Command, args []string) error {
	p, err := appClient.GetProvider(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(p)
}

func runProvidersCreate(cmd *cobra.Command, args []string) error {
	if provName == "" {
		return fmt.Errorf("--name is required")
	}

	draft := provider.NewDraft()
	draft.SetDisplayName(provName)
	if cmd.Flags().Changed("id") {
		draft.SetID(provID)
	}

	form := provider.NewForm(appClient, draft)
	if err := importMetadata(cmd, form); err != nil {
		return err
	}
	if err := applyDraftFlags(cmd, draft); err != nil {
		return err
	}

	summary, err := form.Submit(cmd.Context())
	if err != nil {
		return err
	}
	printSummary(summary)
	return nil
}

func runProvidersUpdate(cmd *cobra.Command, args []string) error {
	existing, err := appClient.GetProvider(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	draft := provider.EditDraft(existing)
	if cmd.Flags().Changed("name") {
		draft.SetDisplayName(provName)
	}

	form := provider.NewForm(appClient, draft)
	if err := importMetadata(cmd, form); err != nil {
		return err
	}
	if err := applyDraftFlags(cmd, draft); err != nil {
		return err
	}

	summary, err := form.Submit(cmd.Context())
	if err != nil {
		return err
	}
	printSummary(summary)
	return nil
}

func runProvidersDelete(cmd *cobra.Command, args []string) error {
	if err := appClient.DeleteProvider(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted provider %s\n", args[0])
	return nil
}

func runProvidersParseURL(cmd *cobra.Command, args []string) error {
	parsed, err := appClient.ParseMetadataURL(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(parsed)
}

func runProvidersParseXML(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read metadata file: %w", err)
	}
	parsed, err := appClient.ParseMetadataXML(cmd.Context(), string(data))
	if err != nil {
		return err
	}
	return printJSON(parsed)
}

func runProvidersRefresh(cmd *cobra.Command, args []string) error {
	if err := appClient.RefreshProviders(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("Broker SAML registrations refreshed.")
	return nil
}

// importMetadata runs the requested metadata import through the form so
// parsed values merge into the draft the same way the admin UI does
func importMetadata(cmd *cobra.Command, form *provider.Form) error {
	cfg := form.Draft().Config()

	if cmd.Flags().Changed("metadata-url") {
		cfg.MetadataURL = provMetadataURL
		if err := form.ParseMetadataURL(cmd.Context()); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("metadata-xml-file") {
		data, err := os.ReadFile(provMetadataFile)
		if err != nil {
			return fmt.Errorf("failed to read metadata file: %w", err)
		}
		cfg.MetadataXML = string(data)
		if err := form.ParseMetadataXML(cmd.Context()); err != nil {
			return err
		}
	}
	return nil
}

// applyDraftFlags copies explicitly set flags onto the draft, after any
// metadata import so direct flags win
func applyDraftFlags(cmd *cobra.Command, draft *provider.Draft) error {
	cfg := draft.Config()

	if cmd.Flags().Changed("idp-login-url") {
		cfg.IDPLoginURL = provLoginURL
	}
	if cmd.Flags().Changed("idp-logout-url") {
		cfg.IDPLogoutURL = provLogoutURL
	}
	if cmd.Flags().Changed("idp-certificate-file") {
		data, err := os.ReadFile(provCertFile)
		if err != nil {
			return fmt.Errorf("failed to read IdP certificate: %w", err)
		}
		cfg.IDPCertificate = string(data)
	}
	if cmd.Flags().Changed("name-id-format") {
		if !models.ValidNameIDFormat(provNameIDFormat) {
			return fmt.Errorf("unknown NameID format %q", provNameIDFormat)
		}
		cfg.NameIDFormat = provNameIDFormat
	}
	if cmd.Flags().Changed("icon-url") {
		cfg.CustomIconURL = provIconURL
	}
	if cmd.Flags().Changed("disabled") {
		cfg.Enabled = !provDisabled
	}
	if cmd.Flags().Changed("limit-self-registration") {
		cfg.LimitSelfRegistration = provLimitSelfReg
	}
	if cmd.Flags().Changed("sign-requests") {
		cfg.SignAuthnRequests = provSignRequests
	}
	if cmd.Flags().Changed("require-encrypted-responses") {
		cfg.RequireEncryptedResponses = provRequireEncResp
	}
	if cmd.Flags().Changed("sp-certificate-file") {
		data, err := os.ReadFile(provSPCertFile)
		if err != nil {
			return fmt.Errorf("failed to read SP certificate: %w", err)
		}
		cfg.SPCertificate = string(data)
	}
	if cmd.Flags().Changed("sp-private-key-file") {
		data, err := os.ReadFile(provSPKeyFile)
		if err != nil {
			return fmt.Errorf("failed to read SP private key: %w", err)
		}
		cfg.SPPrivateKey = string(data)
	}
	return nil
}

// printSummary shows the SP side of the handshake the IdP administrator
// needs
func printSummary(s *models.SPMetadataSummary) {
	fmt.Printf("Saved provider %s\n\n", s.ID)
	fmt.Println("Configure the identity provider with:")
	fmt.Printf("  SP Entity ID: %s\n", s.SPEntityID)
	fmt.Printf("  ACS URL:      %s\n", s.ACSURL)
}

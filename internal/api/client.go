package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bondilirithika/dynamic-saml/internal/models"
	"github.com/bondilirithika/dynamic-saml/pkg/debug"
)

// Client is the typed HTTP client for the backend's auth and SAML admin
// contracts. All requests go through the configured http.Client, so the
// session's bearer transport applies to every call.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the backend at baseURL. If hc is nil a
// default client with a 30 second timeout is used.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

// BaseURL returns the backend base URL the client was created with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ValidateResult is the response shape of GET /api/auth/validate
type ValidateResult struct {
	Valid    bool     `json:"valid"`
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Name     string   `json:"name,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// Validate asks the backend whether the token is still good and returns the
// claims it carries. A false Valid field is not an error; transport and
// server failures are.
func (c *Client) Validate(ctx context.Context, token string) (*ValidateResult, error) {
	endpoint := c.baseURL + "/api/auth/validate?token=" + url.QueryEscape(token)

	var result ValidateResult
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, fmt.Errorf("token validation request failed: %w", err)
	}
	debug.Debug("Token validation result: valid=%v username=%s", result.Valid, result.Username)
	return &result, nil
}

// AuthOptions returns the enabled identity providers for the login selector
func (c *Client) AuthOptions(ctx context.Context) ([]models.AuthOption, error) {
	var options []models.AuthOption
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/api/auth/options", nil, &options); err != nil {
		return nil, fmt.Errorf("failed to fetch login options: %w", err)
	}
	return options, nil
}

// ListProviders returns every configured SAML provider
func (c *Client) ListProviders(ctx context.Context) ([]models.ProviderConfig, error) {
	var providers []models.ProviderConfig
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/api/admin/saml/providers", nil, &providers); err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	return providers, nil
}

// GetProvider returns a single provider record by ID
func (c *Client) GetProvider(ctx context.Context, id string) (*models.ProviderConfig, error) {
	var provider models.ProviderConfig
	endpoint := c.baseURL + "/api/admin/saml/providers/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &provider); err != nil {
		return nil, fmt.Errorf("failed to get provider %s: %w", id, err)
	}
	return &provider, nil
}

// CreateProvider saves a new provider record and returns it with the
// server-assigned fields filled in. The outgoing payload never carries
// spEntityId: that identity is exclusively server-assigned, so any stray
// draft value is stripped before sending.
func (c *Client) CreateProvider(ctx context.Context, p *models.ProviderConfig) (*models.ProviderConfig, error) {
	payload := p.Clone()
	payload.SPEntityID = ""

	var saved models.ProviderConfig
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/admin/saml/providers", payload, &saved); err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	debug.Info("Created provider %s (spEntityId=%s)", saved.ID, saved.SPEntityID)
	return &saved, nil
}

// UpdateProvider saves changes to an existing record. The full draft,
// including the unchanged spEntityId, is sent.
func (c *Client) UpdateProvider(ctx context.Context, p *models.ProviderConfig) (*models.ProviderConfig, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("cannot update provider without an ID")
	}

	var saved models.ProviderConfig
	endpoint := c.baseURL + "/api/admin/saml/providers/" + url.PathEscape(p.ID)
	if err := c.doJSON(ctx, http.MethodPut, endpoint, p, &saved); err != nil {
		return nil, fmt.Errorf("failed to update provider %s: %w", p.ID, err)
	}
	debug.Info("Updated provider %s", saved.ID)
	return &saved, nil
}

// DeleteProvider removes a provider record
func (c *Client) DeleteProvider(ctx context.Context, id string) error {
	endpoint := c.baseURL + "/api/admin/saml/providers/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodDelete, endpoint, nil, nil); err != nil {
		return fmt.Errorf("failed to delete provider %s: %w", id, err)
	}
	debug.Info("Deleted provider %s", id)
	return nil
}

// ParseMetadataURL asks the backend to fetch and parse IdP metadata from a
// URL. The result is partial: empty fields were not present in the metadata.
func (c *Client) ParseMetadataURL(ctx context.Context, metadataURL string) (*models.ParsedMetadata, error) {
	body := map[string]string{"url": metadataURL}
	var parsed models.ParsedMetadata
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/admin/saml/parse-metadata-url", body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse metadata URL: %w", err)
	}
	return &parsed, nil
}

// ParseMetadataXML asks the backend to parse pasted IdP metadata XML
func (c *Client) ParseMetadataXML(ctx context.Context, metadataXML string) (*models.ParsedMetadata, error) {
	body := map[string]string{"xml": metadataXML}
	var parsed models.ParsedMetadata
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/admin/saml/parse-metadata-xml", body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse metadata XML: %w", err)
	}
	return &parsed, nil
}

// RefreshProviders tells the backend to reload its SAML registrations
func (c *Client) RefreshProviders(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/admin/saml/refresh", nil, nil); err != nil {
		return fmt.Errorf("failed to refresh providers: %w", err)
	}
	return nil
}

// doJSON issues a request with an optional JSON body and decodes a JSON
// response into out (when out is non-nil). Non-2xx responses become
// *StatusError with the server's message field when one is present.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	debug.Debug("[API] %s %s", method, debug.SanitizeToken(endpoint))

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	if out == nil {
		// Drain so the connection can be reused
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// statusError extracts the server's error message, if any, from a non-2xx
// response body
func statusError(resp *http.Response) *StatusError {
	se := &StatusError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(data) == 0 {
		return se
	}

	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
		se.Message = payload.Message
	} else if msg := strings.TrimSpace(string(data)); msg != "" && !strings.HasPrefix(msg, "{") {
		se.Message = msg
	}
	return se
}

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bondilirithika/dynamic-saml/internal/brokertest"
	"github.com/bondilirithika/dynamic-saml/internal/models"
)

// bearerRoundTripper attaches a fixed admin token; the production bearer
// transport lives in the auth package and has its own tests
type bearerRoundTripper struct {
	token string
}

func (b bearerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+b.token)
	return http.DefaultTransport.RoundTrip(clone)
}

func newAdminClient(t *testing.T) (*Client, *brokertest.Server, func()) {
	t.Helper()
	broker := brokertest.NewServer([]byte("test-secret"))
	ts := httptest.NewServer(broker.Router())

	token, err := broker.MintToken(brokertest.DefaultUser, time.Hour)
	require.NoError(t, err)

	hc := &http.Client{Transport: bearerRoundTripper{token: token}}
	return NewClient(ts.URL, hc), broker, ts.Close
}

func validDraft() *models.ProviderConfig {
	cfg := models.NewProviderConfig()
	cfg.DisplayName = "Okta Production"
	cfg.IDPLoginURL = "https://idp.example.com/sso"
	cfg.IDPCertificate = "MIIC...cert"
	return cfg
}

func TestValidate(t *testing.T) {
	client, broker, closeFn := newAdminClient(t)
	defer closeFn()

	token, err := broker.MintToken(brokertest.DefaultUser, time.Hour)
	require.NoError(t, err)

	result, err := client.Validate(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "admin@example.com", result.Username)
	assert.Contains(t, result.Roles, "ADMIN")

	result, err = client.Validate(context.Background(), "garbage")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Empty(t, result.Username)
}

func TestProviderCRUD(t *testing.T) {
	client, _, closeFn := newAdminClient(t)
	defer closeFn()
	ctx := context.Background()

	saved, err := client.CreateProvider(ctx, validDraft())
	require.NoError(t, err)
	assert.Equal(t, "okta-production", saved.ID)
	assert.Contains(t, saved.SPEntityID, "/saml2/service-provider-metadata/okta-production")

	got, err := client.GetProvider(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.DisplayName, got.DisplayName)

	got.DisplayName = "Okta (Renamed)"
	updated, err := client.UpdateProvider(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Okta (Renamed)", updated.DisplayName)
	assert.Equal(t, saved.SPEntityID, updated.SPEntityID)

	list, err := client.ListProviders(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, client.DeleteProvider(ctx, saved.ID))

	_, err = client.GetProvider(ctx, saved.ID)
	assert.True(t, IsNotFound(err))
}

func TestCreateProviderStripsEntityID(t *testing.T) {
	var body map[string]interface{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(data, &body))
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}))
	defer ts.Close()

	cfg := validDraft()
	cfg.SPEntityID = "https://stale.example.com/saml2/service-provider-metadata/old"

	client := NewClient(ts.URL, nil)
	_, err := client.CreateProvider(context.Background(), cfg)
	require.NoError(t, err)

	_, present := body["spEntityId"]
	assert.False(t, present, "spEntityId must never be sent on create")
	// The caller's draft is untouched
	assert.NotEmpty(t, cfg.SPEntityID)
}

func TestUpdateProviderRequiresID(t *testing.T) {
	client := NewClient("http://localhost:0", nil)
	_, err := client.UpdateProvider(context.Background(), validDraft())
	assert.Error(t, err)
}

func TestStatusErrorCarriesServerMessage(t *testing.T) {
	client, _, closeFn := newAdminClient(t)
	defer closeFn()

	draft := validDraft()
	draft.IDPLoginURL = ""
	_, err := client.CreateProvider(context.Background(), draft)
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Contains(t, se.Message, "idpLoginUrl")
}

func TestAdminEndpointsRejectMissingToken(t *testing.T) {
	broker := brokertest.NewServer([]byte("test-secret"))
	ts := httptest.NewServer(broker.Router())
	defer ts.Close()

	client := NewClient(ts.URL, nil)
	_, err := client.ListProviders(context.Background())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
}

func TestAdminEndpointsRejectNonAdmin(t *testing.T) {
	broker := brokertest.NewServer([]byte("test-secret"))
	ts := httptest.NewServer(broker.Router())
	defer ts.Close()

	token, err := broker.MintToken(brokertest.User{
		Username: "viewer@example.com",
		Roles:    []string{"USER"},
	}, time.Hour)
	require.NoError(t, err)

	client := NewClient(ts.URL, &http.Client{Transport: bearerRoundTripper{token: token}})
	_, err = client.ListProviders(context.Background())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
}

func TestParseMetadata(t *testing.T) {
	client, broker, closeFn := newAdminClient(t)
	defer closeFn()
	ctx := context.Background()

	broker.URLResults["https://idp.example.com/metadata"] = models.ParsedMetadata{
		IDPLoginURL:  "https://idp.example.com/sso",
		NameIDFormat: models.NameIDFormatEmailAddress,
	}
	broker.XMLResults["<EntityDescriptor/>"] = models.ParsedMetadata{
		IDPCertificate: "MIIC...parsed",
	}

	parsed, err := client.ParseMetadataURL(ctx, "https://idp.example.com/metadata")
	require.NoError(t, err)
	assert.Equal(t, "https://idp.example.com/sso", parsed.IDPLoginURL)
	assert.Empty(t, parsed.IDPCertificate)

	parsed, err = client.ParseMetadataXML(ctx, "<EntityDescriptor/>")
	require.NoError(t, err)
	assert.Equal(t, "MIIC...parsed", parsed.IDPCertificate)

	_, err = client.ParseMetadataURL(ctx, "https://unknown.example.com/metadata")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
}

func TestRefreshProviders(t *testing.T) {
	client, _, closeFn := newAdminClient(t)
	defer closeFn()
	require.NoError(t, client.RefreshProviders(context.Background()))
}

func TestAuthOptions(t *testing.T) {
	client, broker, closeFn := newAdminClient(t)
	defer closeFn()

	enabled := validDraft()
	enabled.ID = "okta"
	disabled := validDraft()
	disabled.ID = "legacy"
	disabled.DisplayName = "Legacy IdP"
	disabled.Enabled = false
	broker.Seed(enabled)
	broker.Seed(disabled)

	options, err := client.AuthOptions(context.Background())
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "okta", options[0].ID)
	assert.Equal(t, "saml", options[0].Type)
}

func TestStatusErrorPlainBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, nil)
	_, err := client.ListProviders(context.Background())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.True(t, strings.Contains(se.Message, "upstream exploded"))
}

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bondilirithika/dynamic-saml/internal/api"
	"github.com/bondilirithika/dynamic-saml/internal/brokertest"
)

const testOrigin = "http://localhost:3000"

// newTestSession wires a session against a broker stub the way main does:
// the session's own Token accessor feeds the bearer transport.
func newTestSession(t *testing.T, broker *brokertest.Server) (*Session, *brokertest.Server, func()) {
	t.Helper()

	ts := httptest.NewServer(broker.Router())

	var sess *Session
	hc := &http.Client{
		Timeout:   5 * time.Second,
		Transport: NewTransport(func() string { return sess.Token() }, nil),
	}
	client := api.NewClient(ts.URL, hc)
	store := NewTokenStore(filepath.Join(t.TempDir(), "token"))
	sess = NewSession(store, client, testOrigin)

	return sess, broker, ts.Close
}

func TestBootstrapFromURLWithRedirectToken(t *testing.T) {
	broker := brokertest.NewServer([]byte("test-secret"))
	sess, _, closeFn := newTestSession(t, broker)
	defer closeFn()

	token, err := broker.MintToken(brokertest.DefaultUser, time.Hour)
	require.NoError(t, err)

	raw := testOrigin + "/admin?tab=providers&jwt=" + url.QueryEscape(token)
	clean, err := sess.BootstrapFromURL(context.Background(), raw)
	require.NoError(t, err)

	// Token parameter stripped, the rest of the URL preserved
	u, err := url.Parse(clean)
	require.NoError(t, err)
	assert.Empty(t, u.Query().Get("jwt"))
	assert.Equal(t, "providers", u.Query().Get("tab"))

	assert.Equal(t, PhaseAuthenticated, sess.Phase())
	assert.Equal(t, token, sess.Token())
	assert.True(t, sess.IsAdmin())

	id := sess.Identity()
	require.NotNil(t, id)
	assert.Equal(t, "admin@example.com", id.Username)
	assert.Equal(t, "Admin User", id.Name)
}

func TestBootstrapFromURLRejectedToken(t *testing.T) {
	broker := brokertest.NewServer([]byte("test-secret"))
	sess, _, closeFn := newTestSession(t, broker)
	defer closeFn()

	// Signed with a different key, so the broker rejects it
	other := brokertest.NewServer([]byte("wrong-secret"))
	token, err := other.MintToken(brokertest.DefaultUser, time.Hour)
	require.NoError(t, err)

	clean, err := sess.BootstrapFromURL(context.Background(), testOrigin+"/?jwt="+url.QueryEscape(token))
	assert.ErrorIs(t, err, ErrAuthValidationFailed)

	// Clean URL is still usable for history replacement
	u, parseErr := url.Parse(clean)
	require.NoError(t, parseErr)
	assert.Empty(t, u.Query().Get("jwt"))

	assert.Equal(t, PhaseUnauthenticated, sess.Phase())
	assert.Empty(t, sess.Token())
	assert.Nil(t, sess.Identity())
	assert.False(t, sess.IsAdmin())
}

func TestBootstrapFromURLResumesStoredToken(t *testing.T) {
	broker := brokertest.NewServer([]byte("test-secret"))
	sess, _, closeFn := newTestSession(t, broker)
	defer closeFn()

	token, err := broker.MintToken(brokertest.DefaultUser, time.Hour)
	require.NoError(t, err)

	// First bootstrap persists the token
	_, err = sess.BootstrapFromURL(context.Background(), testOrigin+"/?jwt="+url.QueryEscape(token))
	require.NoError(t, err)

	// A fresh session over the same store resumes without a URL token
	sess2 := NewSession(NewTokenStore(sess.store.Path()), sess.client, testOrigin)
	_, err = sess2.BootstrapFromURL(context.Background(), testOrigin+"/")
	require.NoError(t, err)
	assert.Equal(t, PhaseAuthenticated, sess2.Phase())
	assert.Equal(t, token, sess2.Token())
}

func TestBootstrapFromURLNoTokenAnywhere(t *testing.T) {
	broker := brokertest.NewServer([]byte("test-secret"))
	sess, _, closeFn := newTestSession(t, broker)
	defer closeFn()

	clean, err := sess.BootstrapFromURL(context.Background(), testOrigin+"/admin")
	require.NoError(t, err)
	assert.Equal(t, testOrigin+"/admin", clean)
	assert.Equal(t, PhaseUnauthenticated, sess.Phase())
	assert.Nil(t, sess.Identity())
}

func TestRejectedTokenClearsStore(t *testing.T) {
	broker := brokertest.NewServer([]byte("test-secret"))
	sess, _, closeFn := newTestSession(t, broker)
	defer closeFn()

	other := brokertest.NewServer([]byte("wrong-secret"))
	token, err := other.MintToken(brokertest.DefaultUser, time.Hour)
	require.NoError(t, err)

	_, err = sess.BootstrapFromURL(context.Background(), testOrigin+"/?jwt="+url.QueryEscape(token))
	assert.ErrorIs(t, err, ErrAuthValidationFailed)

	stored, err := sess.store.Load()
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestLoginURL(t *testing.T) {
	broker := brokertest.NewServer([]byte("test-secret"))
	sess, _, closeFn := newTestSession(t, broker)
	defer closeFn()

	u, err := url.Parse(sess.LoginURL("okta"))
	require.NoError(t, err)
	assert.Equal(t, "/api/auth/custom-login", u.Path)
	assert.Equal(t, testOrigin, u.Query().Get("redirectUri"))
	assert.Equal(t, "okta", u.Query().Get("provider"))

	// Without a provider the parameter is omitted and the broker defaults
	u, err = url.Parse(sess.LoginURL(""))
	require.NoError(t, err)
	assert.False(t, u.Query().Has("provider"))
}

func TestLogout(t *testing.T) {
	broker := brokertest.NewServer([]byte("test-secret"))
	sess, _, closeFn := newTestSession(t, broker)
	defer closeFn()

	token, err := broker.MintToken(brokertest.DefaultUser, time.Hour)
	require.NoError(t, err)
	_, err = sess.BootstrapFromURL(context.Background(), testOrigin+"/?jwt="+url.QueryEscape(token))
	require.NoError(t, err)

	logoutURL := sess.Logout()

	u, err := url.Parse(logoutURL)
	require.NoError(t, err)
	assert.Equal(t, "/api/auth/custom-logout", u.Path)
	// Logout uses snake_case, unlike login's redirectUri
	assert.Equal(t, testOrigin, u.Query().Get("redirect_uri"))

	assert.Equal(t, PhaseUnauthenticated, sess.Phase())
	assert.Empty(t, sess.Token())

	stored, err := sess.store.Load()
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "unauthenticated", PhaseUnauthenticated.String())
	assert.Equal(t, "validating", PhaseValidating.String())
	assert.Equal(t, "authenticated", PhaseAuthenticated.String())
}

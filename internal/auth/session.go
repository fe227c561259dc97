package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/bondilirithika/dynamic-saml/internal/api"
	"github.com/bondilirithika/dynamic-saml/pkg/debug"
)

// Phase is the session lifecycle state
type Phase int

const (
	PhaseUnauthenticated Phase = iota
	PhaseValidating
	PhaseAuthenticated
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhaseValidating:
		return "validating"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// tokenParam is the query parameter the identity broker appends to the
// redirect back into the application
const tokenParam = "jwt"

var (
	// ErrAuthValidationFailed means the backend rejected the token. The
	// session is already torn down when this is returned; callers route to
	// the login surface without echoing any detail.
	ErrAuthValidationFailed = errors.New("token validation failed")
)

// Session owns the token lifecycle. All mutation funnels through its
// transition methods; consumers read phase, identity, and token through
// accessors. The zero value is not usable, construct with NewSession.
//
// Invariants: identity is set exactly while the phase is Authenticated, and
// a token is held exactly while the phase is not Unauthenticated.
type Session struct {
	mu       sync.Mutex
	store    *TokenStore
	client   *api.Client
	origin   string
	token    string
	identity *Identity
	phase    Phase
}

// NewSession creates a session manager persisting tokens in store and
// validating them through client. origin is this application's own address,
// used as the return target for login and logout redirects.
func NewSession(store *TokenStore, client *api.Client, origin string) *Session {
	return &Session{
		store:  store,
		client: client,
		origin: origin,
	}
}

// Token returns the current bearer token, or "" when unauthenticated.
// This is the single authoritative accessor the Transport reads from, so a
// token change is visible to the very next outbound request.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Phase returns the current lifecycle phase
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Identity returns a copy of the validated claims, or nil while not
// authenticated
func (s *Session) Identity() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	id.Roles = append([]string(nil), s.identity.Roles...)
	return &id
}

// IsAdmin reports whether the authenticated identity carries the ADMIN
// role. It gates the provider configuration surface and nothing else.
func (s *Session) IsAdmin() bool {
	id := s.Identity()
	return id != nil && id.HasRole(RoleAdmin)
}

// BootstrapFromURL starts the session from the current page address. A
// jwt query parameter delivered by the broker redirect is persisted,
// stripped from the returned URL, and validated; otherwise a previously
// persisted token is picked up and validated. With no token at all the
// session stays unauthenticated.
//
// The returned string is rawURL with the token parameter removed, for the
// caller's history-replace step. It is valid even when an error is returned.
func (s *Session) BootstrapFromURL(ctx context.Context, rawURL string) (string, error) {
	clean := rawURL
	token := ""

	if rawURL != "" {
		u, err := url.Parse(rawURL)
		if err != nil {
			return rawURL, fmt.Errorf("failed to parse redirect URL: %w", err)
		}
		q := u.Query()
		if t := q.Get(tokenParam); t != "" {
			token = t
			q.Del(tokenParam)
			u.RawQuery = q.Encode()
			clean = u.String()
		}
	}

	if token != "" {
		debug.Info("[SESSION] Token delivered via redirect, persisting before validation")
		if err := s.store.Save(token); err != nil {
			debug.Warning("[SESSION] Could not persist token: %v", err)
		}
	} else {
		stored, err := s.store.Load()
		if err != nil {
			debug.Warning("[SESSION] Could not read persisted token: %v", err)
		}
		if stored == "" {
			s.setUnauthenticated()
			return clean, nil
		}
		debug.Debug("[SESSION] Resuming from persisted token")
		token = stored
	}

	s.mu.Lock()
	s.token = token
	s.identity = nil
	s.phase = PhaseValidating
	s.mu.Unlock()

	return clean, s.validate(ctx)
}

// validate performs the single idempotent read against the validation
// endpoint and settles the session into Authenticated or Unauthenticated.
// The state mutex is not held across the network call: the in-flight
// request reads the token through Token().
func (s *Session) validate(ctx context.Context) error {
	token := s.Token()

	result, err := s.client.Validate(ctx, token)
	if err != nil {
		debug.Warning("[SESSION] Validation transport failure: %v", err)
		s.teardown()
		return fmt.Errorf("%w: %v", ErrAuthValidationFailed, err)
	}
	if !result.Valid {
		debug.Info("[SESSION] Backend rejected token")
		s.teardown()
		return ErrAuthValidationFailed
	}

	identity := DeriveIdentity(result.Username, result.Email, result.Name, result.Roles)

	s.mu.Lock()
	s.identity = &identity
	s.phase = PhaseAuthenticated
	s.mu.Unlock()

	debug.Info("[SESSION] Authenticated as %s (roles: %v)", identity.Username, identity.Roles)
	return nil
}

// LoginURL returns the navigate-away effect that starts a broker login.
// providerID may be empty, in which case the broker picks its default.
func (s *Session) LoginURL(providerID string) string {
	u := s.client.BaseURL() + "/api/auth/custom-login?redirectUri=" + url.QueryEscape(s.origin)
	if providerID != "" {
		u += "&provider=" + url.QueryEscape(providerID)
	}
	return u
}

// Logout clears the persisted token and returns the navigate-away effect
// pointing at the broker's logout endpoint. From the state machine's view
// this is fire-and-forget: the page navigates away.
func (s *Session) Logout() string {
	s.teardown()
	return s.client.BaseURL() + "/api/auth/custom-logout?redirect_uri=" + url.QueryEscape(s.origin)
}

// teardown clears the persisted token and drops back to Unauthenticated.
// The token is removed from the session state before anything else observes
// the phase change, so no request can go out with the dead credential.
func (s *Session) teardown() {
	s.mu.Lock()
	s.token = ""
	s.identity = nil
	s.phase = PhaseUnauthenticated
	s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		debug.Warning("[SESSION] Failed to clear persisted token: %v", err)
	}
}

func (s *Session) setUnauthenticated() {
	s.mu.Lock()
	s.token = ""
	s.identity = nil
	s.phase = PhaseUnauthenticated
	s.mu.Unlock()
}

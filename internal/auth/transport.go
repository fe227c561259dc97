package auth

import (
	"net/http"
)

// Transport injects the current bearer token into every outbound request.
// The token is read through Source at round-trip time, not captured when the
// transport is built, so replacing the session token immediately changes
// what the next request carries and a stale value can never be sent. When
// Source returns "", no Authorization header is added.
type Transport struct {
	// Source returns the current token, or "" when unauthenticated
	Source func() string
	// Base is the underlying round tripper; http.DefaultTransport when nil
	Base http.RoundTripper
}

// NewTransport wraps base with bearer injection from source
func NewTransport(source func() string, base http.RoundTripper) *Transport {
	return &Transport{Source: source, Base: base}
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	token := ""
	if t.Source != nil {
		token = t.Source()
	}
	if token == "" {
		return base.RoundTrip(req)
	}

	// Per RoundTripper contract the request must not be mutated in place
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return base.RoundTrip(clone)
}

// Package brokertest provides an in-memory stand-in for the SAML broker
// backend. It implements the auth and provider admin contracts well enough
// for tests and local development: real JWTs, real status codes, but no
// actual SAML flows and no metadata fetching. Metadata parse results are
// canned and configured per test.
package brokertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/bondilirithika/dynamic-saml/internal/models"
	"github.com/bondilirithika/dynamic-saml/internal/utils"
	"github.com/bondilirithika/dynamic-saml/pkg/debug"
)

// spMetadataPath is the path under which the broker publishes each
// provider's SP metadata; provider entity IDs are minted from it
const spMetadataPath = "/saml2/service-provider-metadata/"

// User is an account the stub will mint tokens for
type User struct {
	Username string
	Email    string
	Name     string
	Roles    []string
}

// DefaultUser is who custom-login signs in when no other user is configured
var DefaultUser = User{
	Username: "admin@example.com",
	Email:    "admin@example.com",
	Name:     "Admin User",
	Roles:    []string{"ADMIN", "USER"},
}

// Server is the in-memory broker. Zero value is not usable; construct with
// NewServer.
type Server struct {
	mu         sync.Mutex
	signingKey []byte
	loginUser  User
	providers  map[string]*models.ProviderConfig

	// Canned parse results, keyed by the exact url / xml input. Inputs
	// with no entry fail with 400, the same way a real parse failure does.
	URLResults map[string]models.ParsedMetadata
	XMLResults map[string]models.ParsedMetadata
}

// NewServer creates a broker stub with an empty provider table and the
// default login user
func NewServer(signingKey []byte) *Server {
	return &Server{
		signingKey: signingKey,
		loginUser:  DefaultUser,
		providers:  make(map[string]*models.ProviderConfig),
		URLResults: make(map[string]models.ParsedMetadata),
		XMLResults: make(map[string]models.ParsedMetadata),
	}
}

// SetLoginUser changes who custom-login signs in
func (s *Server) SetLoginUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginUser = u
}

// Seed inserts a provider record directly, bypassing the create contract.
// The record's ID must already be set.
func (s *Server) Seed(p *models.ProviderConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[p.ID] = p.Clone()
}

// Provider returns a copy of a stored record, or nil if absent
func (s *Server) Provider(id string) *models.ProviderConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.providers[id]
	if !ok {
		return nil
	}
	return p.Clone()
}

// MintToken signs a JWT for the given user, valid for ttl
func (s *Server) MintToken(u User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   u.Username,
		"email": u.Email,
		"name":  u.Name,
		"roles": u.Roles,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Router returns the broker's HTTP handler
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/auth/validate", s.handleValidate).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/custom-login", s.handleLogin).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/custom-logout", s.handleLogout).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/options", s.handleOptions).Methods(http.MethodGet)

	admin := r.PathPrefix("/api/admin/saml").Subrouter()
	admin.Use(s.requireAdmin)
	admin.HandleFunc("/providers", s.handleListProviders).Methods(http.MethodGet)
	admin.HandleFunc("/providers", s.handleCreateProvider).Methods(http.MethodPost)
	admin.HandleFunc("/providers/{id}", s.handleGetProvider).Methods(http.MethodGet)
	admin.HandleFunc("/providers/{id}", s.handleUpdateProvider).Methods(http.MethodPut)
	admin.HandleFunc("/providers/{id}", s.handleDeleteProvider).Methods(http.MethodDelete)
	admin.HandleFunc("/parse-metadata-url", s.handleParseURL).Methods(http.MethodPost)
	admin.HandleFunc("/parse-metadata-xml", s.handleParseXML).Methods(http.MethodPost)
	admin.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)

	return r
}

func (s *Server) parseToken(raw string) (*User, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}

	u := &User{}
	u.Username, _ = claims["sub"].(string)
	u.Email, _ = claims["email"].(string)
	u.Name, _ = claims["name"].(string)
	if rawRoles, ok := claims["roles"].([]interface{}); ok {
		for _, r := range rawRoles {
			if role, ok := r.(string); ok {
				u.Roles = append(u.Roles, role)
			}
		}
	}
	return u, nil
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	user, err := s.parseToken(raw)
	if err != nil {
		debug.Debug("[BROKER] Token validation failed: %v", err)
		respondJSON(w, http.StatusOK, map[string]interface{}{"valid": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"valid":    true,
		"username": user.Username,
		"email":    user.Email,
		"name":     user.Name,
		"roles":    user.Roles,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		provider = "google"
	}
	redirect := r.URL.Query().Get("redirectUri")
	if redirect == "" {
		respondError(w, http.StatusBadRequest, "redirectUri is required")
		return
	}

	s.mu.Lock()
	user := s.loginUser
	s.mu.Unlock()

	token, err := s.MintToken(user, time.Hour)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	debug.Debug("[BROKER] Login via provider=%s for %s", provider, user.Username)

	sep := "?"
	if strings.Contains(redirect, "?") {
		sep = "&"
	}
	http.Redirect(w, r, redirect+sep+"jwt="+token, http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	redirect := r.URL.Query().Get("redirect_uri")
	if redirect == "" {
		respondError(w, http.StatusBadRequest, "redirect_uri is required")
		return
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	options := make([]models.AuthOption, 0, len(s.providers))
	for _, p := range s.providers {
		if !p.Enabled {
			continue
		}
		options = append(options, models.AuthOption{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Type:        "saml",
			IconURL:     p.CustomIconURL,
		})
	}
	s.mu.Unlock()

	sort.Slice(options, func(i, j int) bool { return options[i].ID < options[j].ID })
	respondJSON(w, http.StatusOK, options)
}

// requireAdmin rejects requests without a valid bearer token carrying the
// ADMIN role
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		user, err := s.parseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid bearer token")
			return
		}
		isAdmin := false
		for _, role := range user.Roles {
			if role == "ADMIN" {
				isAdmin = true
				break
			}
		}
		if !isAdmin {
			respondError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := make([]models.ProviderConfig, 0, len(s.providers))
	for _, p := range s.providers {
		list = append(list, *p.Clone())
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetProvider(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	p, ok := s.providers[id]
	if ok {
		p = p.Clone()
	}
	s.mu.Unlock()

	if !ok {
		respondError(w, http.StatusNotFound, "provider not found")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreateProvider(w http.ResponseWriter, r *http.Request) {
	var p models.ProviderConfig
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := p.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = utils.Slugify(p.DisplayName)
	}
	if _, exists := s.providers[p.ID]; exists {
		// Same disambiguation a fresh install would see with two
		// providers named alike
		p.ID = p.ID + "-" + uuid.NewString()[:8]
	}

	// Entity ID is broker-assigned; anything client-supplied is discarded
	p.SPEntityID = baseURL(r) + spMetadataPath + p.ID

	s.providers[p.ID] = p.Clone()
	debug.Info("[BROKER] Created provider %s", p.ID)
	respondJSON(w, http.StatusOK, &p)
}

func (s *Server) handleUpdateProvider(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var p models.ProviderConfig
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.ID != "" && p.ID != id {
		respondError(w, http.StatusBadRequest, "provider ID in body does not match URL")
		return
	}
	p.ID = id
	if err := p.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.providers[id]
	if !ok {
		respondError(w, http.StatusNotFound, "provider not found")
		return
	}

	// Entity ID survives updates untouched
	p.SPEntityID = existing.SPEntityID
	s.providers[id] = p.Clone()
	debug.Info("[BROKER] Updated provider %s", id)
	respondJSON(w, http.StatusOK, &p)
}

func (s *Server) handleDeleteProvider(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	_, ok := s.providers[id]
	delete(s.providers, id)
	s.mu.Unlock()

	if !ok {
		respondError(w, http.StatusNotFound, "provider not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleParseURL(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.URL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	s.mu.Lock()
	parsed, ok := s.URLResults[body.URL]
	s.mu.Unlock()

	if !ok {
		respondError(w, http.StatusBadRequest, "failed to fetch or parse metadata from URL")
		return
	}
	respondJSON(w, http.StatusOK, parsed)
}

func (s *Server) handleParseXML(w http.ResponseWriter, r *http.Request) {
	var body struct {
		XML string `json:"xml"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.XML == "" {
		respondError(w, http.StatusBadRequest, "xml is required")
		return
	}

	s.mu.Lock()
	parsed, ok := s.XMLResults[body.XML]
	s.mu.Unlock()

	if !ok {
		respondError(w, http.StatusBadRequest, "failed to parse metadata XML")
		return
	}
	respondJSON(w, http.StatusOK, parsed)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	debug.Info("[BROKER] Provider registrations refreshed")
	w.WriteHeader(http.StatusNoContent)
}

// baseURL reconstructs the externally visible base of the broker from the
// incoming request
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		debug.Error("[BROKER] Failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

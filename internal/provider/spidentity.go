package provider

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bondilirithika/dynamic-saml/internal/models"
)

// ErrMalformedServerIdentity means the server returned an spEntityId
// without the expected /saml2 path marker. Deriving an ACS URL from it
// would produce a broken link, so the caller surfaces this instead.
var ErrMalformedServerIdentity = errors.New("server entity ID is missing the /saml2 marker")

const (
	entityIDMarker = "/saml2"
	acsPathPrefix  = "/login/saml2/sso/"
)

// DeriveACSURL computes the Assertion Consumer Service URL the IdP must
// post responses to, from the server-assigned entity ID and the record ID:
// everything before the first /saml2 marker, plus /login/saml2/sso/<id>.
func DeriveACSURL(spEntityID, id string) (string, error) {
	idx := strings.Index(spEntityID, entityIDMarker)
	if idx < 0 {
		return "", fmt.Errorf("%w: %q", ErrMalformedServerIdentity, spEntityID)
	}
	return spEntityID[:idx] + acsPathPrefix + id, nil
}

// BuildSummary derives the post-save SP metadata summary from a saved
// record
func BuildSummary(saved *models.ProviderConfig) (*models.SPMetadataSummary, error) {
	acsURL, err := DeriveACSURL(saved.SPEntityID, saved.ID)
	if err != nil {
		return nil, err
	}
	return &models.SPMetadataSummary{
		ID:         saved.ID,
		SPEntityID: saved.SPEntityID,
		ACSURL:     acsURL,
	}, nil
}

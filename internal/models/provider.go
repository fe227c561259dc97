package models

// MetadataSource describes where a provider's IdP settings came from
type MetadataSource string

const (
	MetadataSourceManual MetadataSource = "manual"
	MetadataSourceURL    MetadataSource = "url"
	MetadataSourceXML    MetadataSource = "xml"
)

// Valid returns true if the metadata source is a known value
func (s MetadataSource) Valid() bool {
	switch s {
	case MetadataSourceManual, MetadataSourceURL, MetadataSourceXML:
		return true
	default:
		return false
	}
}

// Canonical NameID format URNs offered by the configuration surface
const (
	NameIDFormatUnspecified  = "urn:oasis:names:tc:SAML:1.1:nameid-format:unspecified"
	NameIDFormatEmailAddress = "urn:oasis:names:tc:SAML:1.1:nameid-format:emailAddress"
	NameIDFormatPersistent   = "urn:oasis:names:tc:SAML:2.0:nameid-format:persistent"
	NameIDFormatTransient    = "urn:oasis:names:tc:SAML:2.0:nameid-format:transient"
)

// NameIDFormats lists the formats in the order the form presents them
var NameIDFormats = []string{
	NameIDFormatUnspecified,
	NameIDFormatEmailAddress,
	NameIDFormatPersistent,
	NameIDFormatTransient,
}

// ValidNameIDFormat returns true if the format is one of the canonical URNs
func ValidNameIDFormat(format string) bool {
	for _, f := range NameIDFormats {
		if f == format {
			return true
		}
	}
	return false
}

// DigestAlgorithm identifies the digest used when signing AuthnRequests
type DigestAlgorithm string

const (
	DigestSHA1   DigestAlgorithm = "SHA-1"
	DigestSHA256 DigestAlgorithm = "SHA-256"
	DigestSHA512 DigestAlgorithm = "SHA-512"
)

// Valid returns true if the digest algorithm is a known value
func (d DigestAlgorithm) Valid() bool {
	switch d {
	case DigestSHA1, DigestSHA256, DigestSHA512:
		return true
	default:
		return false
	}
}

// SignatureAlgorithm identifies the signature scheme for AuthnRequests
type SignatureAlgorithm string

const (
	SignatureRSASHA1   SignatureAlgorithm = "RSA-SHA1"
	SignatureRSASHA256 SignatureAlgorithm = "RSA-SHA256"
	SignatureRSASHA512 SignatureAlgorithm = "RSA-SHA512"
)

// Valid returns true if the signature algorithm is a known value
func (s SignatureAlgorithm) Valid() bool {
	switch s {
	case SignatureRSASHA1, SignatureRSASHA256, SignatureRSASHA512:
		return true
	default:
		return false
	}
}

// Logical attribute names used by attribute mappings and requested attributes
const (
	AttrUsername  = "username"
	AttrEmail     = "email"
	AttrFirstName = "firstName"
	AttrLastName  = "lastName"
)

// AttrNameFormatBasic is the attrname-format URN requested from IdPs by default
const AttrNameFormatBasic = "urn:oasis:names:tc:SAML:2.0:attrname-format:basic"

// RequestedAttribute describes a SAML attribute to request from the IdP
type RequestedAttribute struct {
	Name   string `json:"name"`
	Format string `json:"format"`
}

// ProviderConfig is the configuration record for one SAML identity provider.
// It is created through the admin form, persisted via the provider CRUD
// contract, and consumed by the backend's SAML engine.
type ProviderConfig struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"displayName"`
	Enabled     bool   `json:"enabled"`

	// Raw metadata inputs; only meaningful while MetadataSource selects them
	MetadataSource MetadataSource `json:"metadataSource"`
	MetadataURL    string         `json:"metadataUrl,omitempty"`
	MetadataXML    string         `json:"metadataXml,omitempty"`

	// Assigned by the server on save, never client-supplied on create
	SPEntityID string `json:"spEntityId,omitempty"`

	IDPLoginURL    string `json:"idpLoginUrl"`
	IDPLogoutURL   string `json:"idpLogoutUrl,omitempty"`
	IDPCertificate string `json:"idpCertificate"`
	NameIDFormat   string `json:"nameIdFormat"`

	LimitSelfRegistration bool   `json:"limitSelfRegistration"`
	CustomIconURL         string `json:"customIconUrl,omitempty"`

	SignAuthnRequests         bool               `json:"signAuthnRequests"`
	RequireSignedResponses    bool               `json:"requireSignedResponses"`
	RequireEncryptedResponses bool               `json:"requireEncryptedResponses"`
	SPCertificate             string             `json:"spCertificate,omitempty"`
	SPPrivateKey              string             `json:"spPrivateKey,omitempty"`
	DigestAlgorithm           DigestAlgorithm    `json:"digestAlgorithm"`
	SignatureAlgorithm        SignatureAlgorithm `json:"signatureAlgorithm"`

	// Ordered candidate SAML attribute names per logical attribute;
	// first match wins (resolution happens in the backend engine)
	AttributeMappings map[string][]string `json:"attributeMappings,omitempty"`

	RequestedAttributes map[string]RequestedAttribute `json:"requestedAttributes,omitempty"`
}

// NewProviderConfig returns a ProviderConfig seeded with the same defaults
// the admin form starts from
func NewProviderConfig() *ProviderConfig {
	return &ProviderConfig{
		Enabled:                true,
		MetadataSource:         MetadataSourceManual,
		NameIDFormat:           NameIDFormatUnspecified,
		RequireSignedResponses: true,
		DigestAlgorithm:        DigestSHA1,
		SignatureAlgorithm:     SignatureRSASHA1,
		AttributeMappings: map[string][]string{
			AttrUsername:  {"mail", "email"},
			AttrEmail:     {"mail", "email"},
			AttrFirstName: {"givenName"},
			AttrLastName:  {"sn"},
		},
		RequestedAttributes: map[string]RequestedAttribute{
			AttrUsername:  {Name: "mail", Format: AttrNameFormatBasic},
			AttrEmail:     {Name: "mail", Format: AttrNameFormatBasic},
			AttrFirstName: {Name: "givenName", Format: AttrNameFormatBasic},
			AttrLastName:  {Name: "sn", Format: AttrNameFormatBasic},
		},
	}
}

// Clone returns a deep copy of the configuration
func (p *ProviderConfig) Clone() *ProviderConfig {
	out := *p
	if p.AttributeMappings != nil {
		out.AttributeMappings = make(map[string][]string, len(p.AttributeMappings))
		for k, v := range p.AttributeMappings {
			out.AttributeMappings[k] = append([]string(nil), v...)
		}
	}
	if p.RequestedAttributes != nil {
		out.RequestedAttributes = make(map[string]RequestedAttribute, len(p.RequestedAttributes))
		for k, v := range p.RequestedAttributes {
			out.RequestedAttributes[k] = v
		}
	}
	return &out
}

// ParsedMetadata is the partial result returned by the external metadata
// parser. Empty fields mean the parser could not determine a value.
type ParsedMetadata struct {
	IDPLoginURL    string `json:"idpLoginUrl,omitempty"`
	IDPLogoutURL   string `json:"idpLogoutUrl,omitempty"`
	IDPCertificate string `json:"idpCertificate,omitempty"`
	NameIDFormat   string `json:"nameIdFormat,omitempty"`
}

// AuthOption is one entry of the login selector
type AuthOption struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Type        string `json:"type,omitempty"`
	IconURL     string `json:"iconUrl,omitempty"`
}

// SPMetadataSummary is shown once after a successful save so the admin can
// configure the IdP side. Derived, never persisted.
type SPMetadataSummary struct {
	ID         string `json:"id"`
	SPEntityID string `json:"spEntityId"`
	ACSURL     string `json:"acsUrl"`
}

package models

import (
	"fmt"
	"strings"
)

// ValidationError reports a single client-side rule violation. Field names
// the offending form field so the UI can point at it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every violated rule for one submission attempt
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}

// submissionRule is one declarative requirement evaluated against the full
// draft. When is nil for unconditional rules.
type submissionRule struct {
	field   string
	message string
	when    func(p *ProviderConfig) bool
	ok      func(p *ProviderConfig) bool
}

var submissionRules = []submissionRule{
	{
		field:   "displayName",
		message: "display name is required",
		ok:      func(p *ProviderConfig) bool { return strings.TrimSpace(p.DisplayName) != "" },
	},
	{
		field:   "idpLoginUrl",
		message: "identity provider login URL is required",
		ok:      func(p *ProviderConfig) bool { return strings.TrimSpace(p.IDPLoginURL) != "" },
	},
	{
		field:   "idpCertificate",
		message: "identity provider certificate is required",
		ok:      func(p *ProviderConfig) bool { return strings.TrimSpace(p.IDPCertificate) != "" },
	},
	{
		field:   "spCertificate",
		message: "certificate is required when signing AuthnRequests",
		when:    func(p *ProviderConfig) bool { return p.SignAuthnRequests },
		ok:      func(p *ProviderConfig) bool { return strings.TrimSpace(p.SPCertificate) != "" },
	},
	{
		field:   "spPrivateKey",
		message: "private key is required when signing AuthnRequests",
		when:    func(p *ProviderConfig) bool { return p.SignAuthnRequests },
		ok:      func(p *ProviderConfig) bool { return strings.TrimSpace(p.SPPrivateKey) != "" },
	},
	{
		field:   "metadataSource",
		message: "unknown metadata source",
		when:    func(p *ProviderConfig) bool { return p.MetadataSource != "" },
		ok:      func(p *ProviderConfig) bool { return p.MetadataSource.Valid() },
	},
	{
		field:   "nameIdFormat",
		message: "unknown NameID format",
		when:    func(p *ProviderConfig) bool { return p.NameIDFormat != "" },
		ok:      func(p *ProviderConfig) bool { return ValidNameIDFormat(p.NameIDFormat) },
	},
	{
		field:   "digestAlgorithm",
		message: "unknown digest algorithm",
		when:    func(p *ProviderConfig) bool { return p.DigestAlgorithm != "" },
		ok:      func(p *ProviderConfig) bool { return p.DigestAlgorithm.Valid() },
	},
	{
		field:   "signatureAlgorithm",
		message: "unknown signature algorithm",
		when:    func(p *ProviderConfig) bool { return p.SignatureAlgorithm != "" },
		ok:      func(p *ProviderConfig) bool { return p.SignatureAlgorithm.Valid() },
	},
}

// Validate evaluates the submission rule set against the draft and returns
// every violation, or nil when the draft is submittable
func (p *ProviderConfig) Validate() error {
	var errs ValidationErrors
	for _, r := range submissionRules {
		if r.when != nil && !r.when(p) {
			continue
		}
		if !r.ok(p) {
			errs = append(errs, &ValidationError{Field: r.field, Message: r.message})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

package provider

import (
	"github.com/bondilirithika/dynamic-saml/internal/models"
	"github.com/bondilirithika/dynamic-saml/pkg/debug"
)

// MergeMetadata reconciles a parsed metadata result into the draft
// configuration. For each of the four mergeable fields the parsed value
// wins only when the parser produced one; an empty parse result never
// clears a value the admin already entered. The draft's metadata source is
// then set to the kind of request that produced the parse, whether or not
// any field changed.
//
// spEntityId is deliberately untouched: server identity is never
// client-supplied, even if a parser were to surface one.
func MergeMetadata(cfg *models.ProviderConfig, source models.MetadataSource, parsed *models.ParsedMetadata) {
	if parsed.IDPLoginURL != "" {
		cfg.IDPLoginURL = parsed.IDPLoginURL
	}
	if parsed.IDPLogoutURL != "" {
		cfg.IDPLogoutURL = parsed.IDPLogoutURL
	}
	if parsed.IDPCertificate != "" {
		cfg.IDPCertificate = parsed.IDPCertificate
	}
	if parsed.NameIDFormat != "" {
		cfg.NameIDFormat = parsed.NameIDFormat
	}
	cfg.MetadataSource = source

	debug.Debug("Merged metadata (source=%s): loginUrl=%q logoutUrl=%q nameIdFormat=%q certificate=%d bytes",
		source, cfg.IDPLoginURL, cfg.IDPLogoutURL, cfg.NameIDFormat, len(cfg.IDPCertificate))
}

package provider

import (
	"github.com/bondilirithika/dynamic-saml/internal/models"
	"github.com/bondilirithika/dynamic-saml/internal/utils"
)

// Draft is an in-progress provider configuration being built in the form.
// It owns the ID auto-derivation latch: while a new record has no ID and
// the admin has not typed into the ID field, the ID follows the display
// name as a slug. The first manual ID edit, or any existing ID, turns
// derivation off for the rest of the draft's life.
type Draft struct {
	cfg      *models.ProviderConfig
	existing bool
	idEdited bool
}

// NewDraft starts a create-mode draft with form defaults
func NewDraft() *Draft {
	return &Draft{cfg: models.NewProviderConfig()}
}

// EditDraft starts an edit-mode draft over an existing record. The record's
// ID is immutable from here on.
func EditDraft(cfg *models.ProviderConfig) *Draft {
	return &Draft{cfg: cfg.Clone(), existing: true}
}

// Config exposes the underlying configuration for field edits. DisplayName
// and ID must go through SetDisplayName and SetID so the derivation latch
// stays correct.
func (d *Draft) Config() *models.ProviderConfig {
	return d.cfg
}

// Existing reports whether the draft edits an already-persisted record
func (d *Draft) Existing() bool {
	return d.existing
}

// SetDisplayName updates the display name and, while auto-derivation is
// still active, populates the ID with its slug
func (d *Draft) SetDisplayName(name string) {
	d.cfg.DisplayName = name
	if d.existing || d.idEdited || d.cfg.ID != "" {
		return
	}
	if slug := utils.Slugify(name); slug != "" {
		d.cfg.ID = slug
	}
}

// SetID records a manual ID edit. Editing the ID by hand, even to the same
// value, permanently stops auto-derivation for this draft.
func (d *Draft) SetID(id string) {
	if d.existing {
		// The UI disables the field for existing records; ignore writes
		return
	}
	d.cfg.ID = id
	d.idEdited = true
}

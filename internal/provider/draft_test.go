package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bondilirithika/dynamic-saml/internal/models"
)

func TestDraftAutoDerivesID(t *testing.T) {
	d := NewDraft()

	d.SetDisplayName("Google Workspace")
	assert.Equal(t, "google-workspace", d.Config().ID)
}

func TestDraftDerivationStopsOnceIDExists(t *testing.T) {
	d := NewDraft()

	d.SetDisplayName("Google Workspace")
	assert.Equal(t, "google-workspace", d.Config().ID)

	// The ID is already set, so renaming does not touch it
	d.SetDisplayName("Okta Production")
	assert.Equal(t, "google-workspace", d.Config().ID)
	assert.Equal(t, "Okta Production", d.Config().DisplayName)
}

func TestDraftManualEditLatchesPermanently(t *testing.T) {
	d := NewDraft()

	d.SetID("custom-id")
	d.SetDisplayName("Google Workspace")
	assert.Equal(t, "custom-id", d.Config().ID)

	// Even clearing the manual value does not re-arm derivation
	d.SetID("")
	d.SetDisplayName("Okta")
	assert.Empty(t, d.Config().ID)
}

func TestDraftEmptySlugDoesNotLatch(t *testing.T) {
	d := NewDraft()

	// A name with no slug-able characters leaves the ID empty, so a later
	// usable name still derives
	d.SetDisplayName("!!!")
	assert.Empty(t, d.Config().ID)

	d.SetDisplayName("ACME Corp")
	assert.Equal(t, "acme-corp", d.Config().ID)
}

func TestEditDraftFreezesID(t *testing.T) {
	saved := models.NewProviderConfig()
	saved.ID = "okta"
	saved.DisplayName = "Okta"

	d := EditDraft(saved)
	assert.True(t, d.Existing())

	d.SetDisplayName("Okta (Renamed)")
	assert.Equal(t, "okta", d.Config().ID)

	d.SetID("other")
	assert.Equal(t, "okta", d.Config().ID)
}

func TestEditDraftClonesRecord(t *testing.T) {
	saved := models.NewProviderConfig()
	saved.ID = "okta"

	d := EditDraft(saved)
	d.Config().DisplayName = "changed"
	assert.Empty(t, saved.DisplayName)
}

package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bondilirithika/dynamic-saml/internal/api"
	"github.com/bondilirithika/dynamic-saml/internal/models"
	"github.com/bondilirithika/dynamic-saml/pkg/debug"
)

var (
	// ErrOperationPending rejects a second parse or save while one is in
	// flight, so two responses can never interleave their field merges
	ErrOperationPending = errors.New("another operation is already in progress")

	// errStaleResponse marks a response that resolved after the form moved
	// on (reset, navigation, summary toggle); its effects are discarded
	errStaleResponse = errors.New("response arrived for a superseded form state")
)

// Form drives the provider configuration workflow: metadata parsing, draft
// validation, and create/update submission. One operation may be in flight
// at a time, and a generation counter keyed to the visible screen discards
// late responses after the form is reset or the summary is dismissed.
type Form struct {
	client *api.Client
	draft  *Draft

	// mu guards the operation bookkeeping; the draft itself is only ever
	// touched between operations, never while one is in flight
	mu      sync.Mutex
	pending bool
	gen     uint64

	summary *models.SPMetadataSummary
}

// NewForm creates a form over the given draft
func NewForm(client *api.Client, draft *Draft) *Form {
	return &Form{client: client, draft: draft}
}

// Draft returns the draft being edited
func (f *Form) Draft() *Draft {
	return f.draft
}

// Pending reports whether a network operation is in flight; the UI disables
// re-submission while true
func (f *Form) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// Summary returns the post-save SP metadata summary, or nil while editing
func (f *Form) Summary() *models.SPMetadataSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summary
}

// begin gates a new operation and records the generation it belongs to
func (f *Form) begin() (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending {
		return 0, ErrOperationPending
	}
	f.pending = true
	return f.gen, nil
}

// finish settles an operation. It reports false when the form moved to a
// new generation while the call was in flight; the caller must then drop
// the response entirely.
func (f *Form) finish(gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		return false
	}
	f.pending = false
	return true
}

// invalidate advances the generation so in-flight responses resolve stale
func (f *Form) invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.pending = false
	f.summary = nil
}

// ParseMetadataURL submits the draft's metadata URL to the external parser
// and merges the partial result into the draft. A failed parse leaves the
// draft, including its metadata source, completely unchanged.
func (f *Form) ParseMetadataURL(ctx context.Context) error {
	cfg := f.draft.Config()
	if cfg.MetadataURL == "" {
		return &models.ValidationError{Field: "metadataUrl", Message: "metadata URL is required"}
	}

	gen, err := f.begin()
	if err != nil {
		return err
	}

	parsed, err := f.client.ParseMetadataURL(ctx, cfg.MetadataURL)
	if !f.finish(gen) {
		debug.Debug("Discarding stale metadata URL parse result")
		return errStaleResponse
	}
	if err != nil {
		return fmt.Errorf("metadata URL parse failed: %w", err)
	}

	MergeMetadata(cfg, models.MetadataSourceURL, parsed)
	return nil
}

// ParseMetadataXML submits the draft's pasted metadata XML to the external
// parser and merges the partial result into the draft
func (f *Form) ParseMetadataXML(ctx context.Context) error {
	cfg := f.draft.Config()
	if cfg.MetadataXML == "" {
		return &models.ValidationError{Field: "metadataXml", Message: "metadata XML is required"}
	}

	gen, err := f.begin()
	if err != nil {
		return err
	}

	parsed, err := f.client.ParseMetadataXML(ctx, cfg.MetadataXML)
	if !f.finish(gen) {
		debug.Debug("Discarding stale metadata XML parse result")
		return errStaleResponse
	}
	if err != nil {
		return fmt.Errorf("metadata XML parse failed: %w", err)
	}

	MergeMetadata(cfg, models.MetadataSourceXML, parsed)
	return nil
}

// Submit validates the draft and saves it: POST for a new record (with any
// stray spEntityId stripped), PUT with the full draft for an existing one.
// On success the form switches to summary mode; on failure the draft is
// retained unchanged so the admin can fix and retry.
func (f *Form) Submit(ctx context.Context) (*models.SPMetadataSummary, error) {
	cfg := f.draft.Config()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gen, err := f.begin()
	if err != nil {
		return nil, err
	}

	var saved *models.ProviderConfig
	var saveErr error
	if f.draft.Existing() {
		saved, saveErr = f.client.UpdateProvider(ctx, cfg)
	} else {
		saved, saveErr = f.client.CreateProvider(ctx, cfg)
	}

	if !f.finish(gen) {
		debug.Debug("Discarding stale save result")
		return nil, errStaleResponse
	}
	if saveErr != nil {
		return nil, fmt.Errorf("failed to save provider: %w", saveErr)
	}

	summary, err := BuildSummary(saved)
	if err != nil {
		// The record saved, but we refuse to show a broken ACS link
		return nil, err
	}

	f.mu.Lock()
	f.summary = summary
	f.mu.Unlock()
	return summary, nil
}

// ContinueEditing dismisses the summary and returns to edit mode. Any
// response still in flight from before the toggle is discarded when it
// lands.
func (f *Form) ContinueEditing() {
	f.invalidate()
}

// Discard abandons the form (navigation away). Late responses from this
// surface no longer have any effect.
func (f *Form) Discard() {
	f.invalidate()
}

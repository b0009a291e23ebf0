package wizard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cv"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/session"
)

// fieldUpdate is one {path, value} pair; update_field accepts either a
// single update or a batch.
type fieldUpdate struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

func handleSelectLanguage(_ context.Context, _ *Dispatcher, rec *session.Record, params json.RawMessage) (any, error) {
	var body struct {
		Language cv.Language `json:"language"`
	}
	if err := json.Unmarshal(params, &body); err != nil {
		return nil, fmt.Errorf("wizard: select_language params: %w", err)
	}
	supported := false
	for _, l := range cv.SupportedLanguages {
		if l == body.Language {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("wizard: unsupported language %q", body.Language)
	}
	rec.Metadata.SourceLanguage = body.Language
	rec.Metadata.TargetLanguage = body.Language

	d, err := rec.CV()
	if err != nil {
		return nil, err
	}
	d.Language = body.Language
	if err := rec.SetCV(d); err != nil {
		return nil, err
	}
	return map[string]any{"language": body.Language}, nil
}

// handleUpdateField applies one or more path/value writes directly to
// cv_data in the same turn: free-form content (contact fields, profile
// text, manually-edited bullets) is written straight through without a
// proposal/accept round trip.
func handleUpdateField(_ context.Context, _ *Dispatcher, rec *session.Record, params json.RawMessage) (any, error) {
	updates, err := parseFieldUpdates(params)
	if err != nil {
		return nil, err
	}

	d, err := rec.CV()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	for _, u := range updates {
		if err := setPath(doc, u.Path, u.Value); err != nil {
			return nil, fmt.Errorf("wizard: update_field %q: %w", u.Path, err)
		}
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var updated cv.Data
	if err := json.Unmarshal(merged, &updated); err != nil {
		return nil, fmt.Errorf("wizard: update_field produced an invalid document: %w", err)
	}
	if err := rec.SetCV(&updated); err != nil {
		return nil, err
	}
	return map[string]any{"updated_paths": pathsOf(updates)}, nil
}

func parseFieldUpdates(params json.RawMessage) ([]fieldUpdate, error) {
	var batch struct {
		Updates []fieldUpdate `json:"updates"`
	}
	if err := json.Unmarshal(params, &batch); err == nil && len(batch.Updates) > 0 {
		return batch.Updates, nil
	}
	var single fieldUpdate
	if err := json.Unmarshal(params, &single); err != nil {
		return nil, fmt.Errorf("wizard: update_field params: %w", err)
	}
	if single.Path == "" {
		return nil, fmt.Errorf("wizard: update_field requires a path")
	}
	return []fieldUpdate{single}, nil
}

func pathsOf(updates []fieldUpdate) []string {
	out := make([]string, len(updates))
	for i, u := range updates {
		out[i] = u.Path
	}
	return out
}

// handleConfirmContact confirms the contact section and copies
// any still-unconfirmed docx-extracted contact fields into cv_data at the
// same time. This is the only point at which docx_prefill_unconfirmed
// is allowed to reach cv_data. Fields the user already filled in (via
// update_field or a prior confirm) are left untouched; prefill only
// back-fills gaps.
func handleConfirmContact(_ context.Context, _ *Dispatcher, rec *session.Record, _ json.RawMessage) (any, error) {
	if err := applyContactPrefill(rec); err != nil {
		return nil, err
	}
	if rec.Metadata.ConfirmedFlags == nil {
		rec.Metadata.ConfirmedFlags = map[string]bool{}
	}
	rec.Metadata.ConfirmedFlags["contact_confirmed"] = true
	return nil, nil
}

// handleConfirmEducation is handleConfirmContact's education-section
// counterpart.
func handleConfirmEducation(_ context.Context, _ *Dispatcher, rec *session.Record, _ json.RawMessage) (any, error) {
	if err := applyEducationPrefill(rec); err != nil {
		return nil, err
	}
	if rec.Metadata.ConfirmedFlags == nil {
		rec.Metadata.ConfirmedFlags = map[string]bool{}
	}
	rec.Metadata.ConfirmedFlags["education_confirmed"] = true
	return nil, nil
}

// docxPrefillView is the subset of docxPrefill (dispatcher.go) a confirm
// handler reads back out of Metadata.DocxPrefillUnconfirmed. Declared
// independently of docxPrefill's exact field types (render.ExtractedWorkRole
// etc.) so this file doesn't need to import pkg/render for types it never
// constructs; field names and json tags must stay in sync with docxPrefill.
type docxPrefillView struct {
	FullName     string   `json:"full_name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	AddressLines []string `json:"address_lines"`
	Education    []struct {
		DateRange   string `json:"date_range"`
		Institution string `json:"institution"`
		Title       string `json:"title"`
	} `json:"education"`
}

// applyContactPrefill fills any blank contact fields in cv_data from the
// staged docx prefill snapshot. A no-op if nothing was staged at
// bootstrap, or if the corresponding cv_data fields are already set.
func applyContactPrefill(rec *session.Record) error {
	var prefill docxPrefillView
	if err := rec.DocxPrefillUnconfirmed(&prefill); err != nil {
		return fmt.Errorf("wizard: decode docx prefill: %w", err)
	}
	if prefill.FullName == "" && prefill.Email == "" && prefill.Phone == "" && len(prefill.AddressLines) == 0 {
		return nil
	}

	d, err := rec.CV()
	if err != nil {
		return err
	}
	if d.FullName == "" {
		d.FullName = prefill.FullName
	}
	if d.Email == "" {
		d.Email = prefill.Email
	}
	if d.Phone == "" {
		d.Phone = prefill.Phone
	}
	if len(d.AddressLines) == 0 {
		d.AddressLines = prefill.AddressLines
	}
	return rec.SetCV(d)
}

// applyEducationPrefill fills cv_data.education from the staged docx
// prefill snapshot when the user hasn't already entered any entries.
func applyEducationPrefill(rec *session.Record) error {
	var prefill docxPrefillView
	if err := rec.DocxPrefillUnconfirmed(&prefill); err != nil {
		return fmt.Errorf("wizard: decode docx prefill: %w", err)
	}
	if len(prefill.Education) == 0 {
		return nil
	}

	d, err := rec.CV()
	if err != nil {
		return err
	}
	if len(d.Education) > 0 {
		return nil
	}
	for _, e := range prefill.Education {
		d.Education = append(d.Education, cv.EducationEntry{
			DateRange:   e.DateRange,
			Institution: e.Institution,
			Title:       e.Title,
			Details:     []string{},
		})
	}
	return rec.SetCV(d)
}

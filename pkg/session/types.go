// Package session defines the session record
// that binds one résumé wizard workflow: the canonical document, the
// wizard's stage machinery, and everything the LLM layer and generation
// gate need to make deterministic decisions across stateless HTTP turns.
package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/blob"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cv"
)

// Stage is one node of the wizard FSM.
type Stage string

const (
	StageLanguageSelection Stage = "language-selection"
	StageBulkTranslation   Stage = "bulk-translation"
	StageContact           Stage = "contact"
	StageEducation         Stage = "education"
	StageJobPosting        Stage = "job-posting"
	StageWorkExperience    Stage = "work-experience"
	StageFurtherExperience Stage = "further-experience"
	StageSkills            Stage = "skills"
	StageReviewFinal       Stage = "review-final"
	StageCoverLetter       Stage = "cover-letter"
)

// Order is the declared wizard stage sequence used for gating adjacency
// checks.
var Order = []Stage{
	StageLanguageSelection,
	StageBulkTranslation,
	StageContact,
	StageEducation,
	StageJobPosting,
	StageWorkExperience,
	StageFurtherExperience,
	StageSkills,
	StageReviewFinal,
	StageCoverLetter,
}

// EventLogCap bounds metadata.event_log to roughly the last 50 entries.
const EventLogCap = 50

// StageHistoryCap bounds metadata.stage_history.
const StageHistoryCap = 64

// Event is one entry of the bounded event_log ring.
type Event struct {
	Timestamp   time.Time `json:"ts"`
	ActionID    string    `json:"action_id"`
	StageBefore Stage     `json:"stage_before"`
	StageAfter  Stage     `json:"stage_after"`
	Result      string    `json:"result"`
}

// Proposal is the output of a stage engine before the user accepts it.
type Proposal struct {
	Stage           Stage           `json:"stage"`
	CreatedAt       time.Time       `json:"created_at"`
	Payload         json.RawMessage `json:"payload"`
	Provenance      LLMProvenance   `json:"provenance"`
}

// ProposalCacheKey identifies a cached proposal by {stage, job_signature,
// base_cv_signature}.
type ProposalCacheKey struct {
	Stage            Stage  `json:"stage"`
	JobSignature     string `json:"job_signature"`
	BaseCVSignature  string `json:"base_cv_signature"`
}

// LLMProvenance is persisted per LLM call so stateless traffic remains
// auditable.
type LLMProvenance struct {
	EffectiveSystemPromptHash string `json:"effective_system_prompt_hash"`
	StagePromptSource         string `json:"stage_prompt_source"`
	UserPayloadHash           string `json:"user_payload_hash"`
}

// PDFRef points at a blob-stored rendered PDF.
type PDFRef struct {
	BlobKey          string    `json:"blob_key"`
	ContentSignature string    `json:"content_signature"`
	PageCount        int       `json:"page_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// PDFRefs holds the two terminal artifacts a session can produce.
type PDFRefs struct {
	CV           *PDFRef `json:"cv,omitempty"`
	CoverLetter  *PDFRef `json:"cover_letter,omitempty"`
}

// StageRuntimeState is the idle -> preview -> accepted state machine each
// stage family tracks independently.
type StageRuntimeState string

const (
	RuntimeIdle     StageRuntimeState = "idle"
	RuntimePreview  StageRuntimeState = "preview"
	RuntimeAccepted StageRuntimeState = "accepted"
)

// Metadata groups everything on the session record besides the canonical
// document itself.
type Metadata struct {
	TargetLanguage cv.Language `json:"target_language"`
	SourceLanguage cv.Language `json:"source_language"`

	// DocxPrefillUnconfirmed is an offloadable snapshot of the uploaded
	// document; it is read-only reference data until a confirm action
	// copies fields out of it into CVData.
	DocxPrefillUnconfirmed Slot `json:"docx_prefill_unconfirmed"`

	ConfirmedFlags map[string]bool `json:"confirmed_flags"`

	Stage          Stage              `json:"stage"`
	StageHistory   []Stage            `json:"stage_history"`
	StageRuntime   map[Stage]StageRuntimeState `json:"stage_runtime"`

	// ProposalCache is offloadable; logically map[ProposalCacheKey]Proposal,
	// keyed by a stable string encoding of ProposalCacheKey.
	ProposalCache Slot `json:"proposal_cache"`

	PDFRefs PDFRefs `json:"pdf_refs"`

	// EventLog is offloadable; logically []Event.
	EventLog Slot `json:"event_log"`

	// CVStateSnapshots is offloadable; logically map[string]*cv.Data keyed
	// by purpose ("original", "translated_<lang>", ...).
	CVStateSnapshots Slot `json:"cv_state_snapshots"`
	ActiveStateID    string     `json:"active_state_id"`

	DebugAllowPages bool `json:"debug_allow_pages,omitempty"`
}

// Record is the full session record.
type Record struct {
	SessionID string `json:"session_id"`

	// CVData is offloadable; logically *cv.Data.
	CVData Slot `json:"cv_data"`

	Metadata Metadata `json:"metadata"`

	Version          int64     `json:"version"`
	UpdatedAt        time.Time `json:"updated_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	ContentSignature string    `json:"content_signature"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
}

// ResolveAll expands every offloaded slot in the record (the blob-aware
// read). A slot that fails to resolve is left as a
// pointer and its error is appended to the returned slice instead of
// aborting the whole read.
func (r *Record) ResolveAll(ctx context.Context, blobs *blob.Store) []error {
	var errs []error
	slots := []*Slot{
		&r.CVData,
		&r.Metadata.DocxPrefillUnconfirmed,
		&r.Metadata.ProposalCache,
		&r.Metadata.EventLog,
		&r.Metadata.CVStateSnapshots,
	}
	for _, s := range slots {
		if err := s.Resolve(ctx, blobs); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// SetDocxPrefillUnconfirmed stages an uploaded document's extracted fields
// as read-only reference data: nothing copies it into CVData until a
// confirm action does so explicitly.
func (r *Record) SetDocxPrefillUnconfirmed(v any) error {
	slot, err := NewSlot(v)
	if err != nil {
		return err
	}
	r.Metadata.DocxPrefillUnconfirmed = slot
	return nil
}

// DocxPrefillUnconfirmed unmarshals the (already-resolved) prefill snapshot
// into out. A session with nothing staged leaves out untouched.
func (r *Record) DocxPrefillUnconfirmed(out any) error {
	return r.Metadata.DocxPrefillUnconfirmed.Unmarshal(out)
}

// CV unmarshals the (already-resolved) canonical document.
func (r *Record) CV() (*cv.Data, error) {
	var d cv.Data
	if err := r.CVData.Unmarshal(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// SetCV replaces the canonical document slot.
func (r *Record) SetCV(d *cv.Data) error {
	slot, err := NewSlot(d)
	if err != nil {
		return err
	}
	r.CVData = slot
	return nil
}

// EventLogEntries unmarshals the (already-resolved) event log.
func (r *Record) EventLogEntries() ([]Event, error) {
	var evs []Event
	if err := r.Metadata.EventLog.Unmarshal(&evs); err != nil {
		return nil, err
	}
	return evs, nil
}

// AppendEvent appends an entry to the event log, truncating to
// EventLogCap (oldest dropped first), and re-stores the slot.
func (r *Record) AppendEvent(ev Event) error {
	evs, err := r.EventLogEntries()
	if err != nil {
		return err
	}
	evs = append(evs, ev)
	if len(evs) > EventLogCap {
		evs = evs[len(evs)-EventLogCap:]
	}
	slot, err := NewSlot(evs)
	if err != nil {
		return err
	}
	r.Metadata.EventLog = slot
	return nil
}

// CVStateSnapshotMap unmarshals the (already-resolved) snapshot set.
func (r *Record) CVStateSnapshotMap() (map[string]*cv.Data, error) {
	snaps := map[string]*cv.Data{}
	if err := r.Metadata.CVStateSnapshots.Unmarshal(&snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

// SetCVStateSnapshotMap re-stores the snapshot set.
func (r *Record) SetCVStateSnapshotMap(snaps map[string]*cv.Data) error {
	slot, err := NewSlot(snaps)
	if err != nil {
		return err
	}
	r.Metadata.CVStateSnapshots = slot
	return nil
}

// ProposalCacheMap unmarshals the (already-resolved) proposal cache.
func (r *Record) ProposalCacheMap() (map[string]Proposal, error) {
	cache := map[string]Proposal{}
	if err := r.Metadata.ProposalCache.Unmarshal(&cache); err != nil {
		return nil, err
	}
	return cache, nil
}

// SetProposalCacheMap re-stores the proposal cache.
func (r *Record) SetProposalCacheMap(cache map[string]Proposal) error {
	slot, err := NewSlot(cache)
	if err != nil {
		return err
	}
	r.Metadata.ProposalCache = slot
	return nil
}

// New bootstraps a canonical empty session record.
func New(sessionID string, ttl time.Duration) (*Record, error) {
	now := time.Now()
	r := &Record{
		SessionID: sessionID,
		Version:   1,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
		Metadata: Metadata{
			TargetLanguage: cv.LanguageEN,
			SourceLanguage: cv.LanguageEN,
			ConfirmedFlags: map[string]bool{},
			Stage:          StageLanguageSelection,
			StageHistory:   []Stage{StageLanguageSelection},
			StageRuntime:   map[Stage]StageRuntimeState{},
			ActiveStateID:  "original",
		},
	}
	if err := r.SetCV(cv.Empty()); err != nil {
		return nil, err
	}

	emptyPrefill, err := NewSlot(json.RawMessage("null"))
	if err != nil {
		return nil, err
	}
	r.Metadata.DocxPrefillUnconfirmed = emptyPrefill

	if err := r.SetProposalCacheMap(map[string]Proposal{}); err != nil {
		return nil, err
	}
	if err := r.SetCVStateSnapshotMap(map[string]*cv.Data{"original": cv.Empty()}); err != nil {
		return nil, err
	}
	eventLog, err := NewSlot([]Event{})
	if err != nil {
		return nil, err
	}
	r.Metadata.EventLog = eventLog

	return r, nil
}

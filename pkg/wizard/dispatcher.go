package wizard

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/blob"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/llm"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/render"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/session"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/store"
)

// Dispatcher wires the stage-gated action table to the collaborators a
// handler needs: the LLM call layer, the store, and the DOCX ingestion
// collaborator bootstrap_session stages a prefill snapshot from.
type Dispatcher struct {
	Store *store.Store
	LLM   *llm.Client
	Docx  render.DocxExtractor
}

// New builds a Dispatcher. Docx defaults to the in-process reference
// extractor; assign d.Docx directly to swap in a real one, or nil to
// disable document ingestion entirely (bootstrap_session then ignores any
// docx payload instead of erroring).
func New(s *store.Store, llmClient *llm.Client) *Dispatcher {
	return &Dispatcher{Store: s, LLM: llmClient, Docx: render.StubDocxExtractor{}}
}

// Request is one action-id + params turn of the wizard.
type Request struct {
	Action Action          `json:"action"`
	Params json.RawMessage `json:"params"`
}

// Response is what a dispatched action hands back to the caller: the
// stage the session ended on, a machine-readable result code, and
// whatever payload the handler produced (a proposal preview, an updated
// field set, or nothing).
type Response struct {
	Stage  session.Stage `json:"stage"`
	Result string        `json:"result"`
	Data   any           `json:"data,omitempty"`
}

// handlerFunc is one action's business logic: given the record (already
// loaded, not yet persisted) and raw params, produce a response payload.
// Handlers never persist or touch stage/history/runtime bookkeeping
// themselves; Dispatch does that uniformly around every call.
type handlerFunc func(ctx context.Context, d *Dispatcher, rec *session.Record, params json.RawMessage) (any, error)

var handlers = map[Action]handlerFunc{
	ActionSelectLanguage:             handleSelectLanguage,
	ActionUpdateField:                handleUpdateField,
	ActionConfirmContact:             handleConfirmContact,
	ActionConfirmEducation:           handleConfirmEducation,
	ActionRunBulkTranslation:         handleRunBulkTranslation,
	ActionAcceptBulkTranslation:      handleAcceptBulkTranslation,
	ActionRunEducationTranslation:    handleRunEducationTranslation,
	ActionAcceptEducationTranslation: handleAcceptEducationTranslation,
	ActionRunJobPosting:              handleRunJobPosting,
	ActionAcceptJobPosting:           handleAcceptJobPosting,
	ActionRunWorkExperience:          handleRunWorkExperience,
	ActionAcceptWorkExperience:       handleAcceptWorkExperience,
	ActionRunFurtherExperience:       handleRunFurtherExperience,
	ActionAcceptFurtherExperience:    handleAcceptFurtherExperience,
	ActionRunSkills:                  handleRunSkills,
	ActionAcceptSkills:               handleAcceptSkills,
	ActionRunCoverLetter:             handleRunCoverLetter,
	ActionAcceptCoverLetter:          handleAcceptCoverLetter,
}

// advanceAfter lists actions that, on success, move the wizard to the
// next declared stage rather than leaving it parked on the stage
// the action belongs to.
var advanceAfter = map[Action]bool{
	ActionSelectLanguage:             true,
	ActionAcceptBulkTranslation:      true,
	ActionConfirmContact:             true,
	ActionConfirmEducation:           true,
	ActionAcceptJobPosting:           true,
	ActionAcceptWorkExperience:       true,
	ActionAcceptFurtherExperience:    true,
	ActionAcceptSkills:               true,
}

// Bootstrap creates a brand-new session record (extract_and_store_cv on a
// session_id that doesn't exist yet). Bootstrapping an existing
// session is rejected as a stage violation: the action is idempotent only
// in the sense that retrying it with the same session_id is a no-op
// error, never a silent reset of in-progress work.
//
// docxBytes is the optional uploaded word-processing document:
// when non-empty and d.Docx is configured, it is run through the DOCX
// collaborator and the result is staged into Metadata.DocxPrefillUnconfirmed
// as read-only reference data, never written into cv_data here. A
// photo the extractor finds is uploaded to the blob store under
// cv-photos/{session_id} and its data URI recorded on the same
// prefill snapshot for a later confirm action to pick up.
func Bootstrap(ctx context.Context, d *Dispatcher, sessionID string, ttl time.Duration, docxBytes []byte) (*session.Record, error) {
	if _, err := d.Store.Get(ctx, sessionID); err == nil {
		return nil, fmt.Errorf("%w: session %q already exists", ErrStageViolation, sessionID)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	rec, err := session.New(sessionID, ttl)
	if err != nil {
		return nil, err
	}

	if len(docxBytes) > 0 && d.Docx != nil {
		fields, err := d.Docx.Extract(ctx, docxBytes)
		if err != nil {
			return nil, fmt.Errorf("wizard: docx extraction: %w", err)
		}
		prefill := docxPrefill{
			FullName:       fields.FullName,
			Email:          fields.Email,
			Phone:          fields.Phone,
			AddressLines:   fields.AddressLines,
			WorkExperience: fields.WorkExperience,
			Education:      fields.Education,
		}
		if len(fields.PhotoBytes) > 0 {
			key := fmt.Sprintf("%s/%s.%s", blob.PrefixPhoto, sessionID, photoExtension(fields.PhotoMIMEType))
			if _, err := d.Store.Blobs.Put(ctx, key, fields.PhotoBytes); err != nil {
				return nil, fmt.Errorf("wizard: upload extracted photo: %w", err)
			}
			prefill.PhotoURL = photoDataURI(fields.PhotoMIMEType, fields.PhotoBytes)
		}
		if err := rec.SetDocxPrefillUnconfirmed(prefill); err != nil {
			return nil, err
		}
	}

	if err := d.Store.Put(ctx, rec, 0); err != nil {
		return nil, err
	}
	return rec, nil
}

// docxPrefill is the read-only reference snapshot staged into
// Metadata.DocxPrefillUnconfirmed: ExtractedFields plus the derived
// photo data URI, since the canonical schema's photo_url field is a
// data URI, not raw bytes.
type docxPrefill struct {
	FullName       string                      `json:"full_name"`
	Email          string                      `json:"email"`
	Phone          string                      `json:"phone"`
	AddressLines   []string                    `json:"address_lines"`
	WorkExperience []render.ExtractedWorkRole  `json:"work_experience"`
	Education      []render.ExtractedEducation `json:"education"`
	PhotoURL       string                      `json:"photo_url,omitempty"`
}

// photoDataURI base64-encodes a photo into the data URI the canonical
// schema's photo_url field expects.
func photoDataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// photoExtension maps a photo MIME type onto the cv-photos blob key
// extension (jpg|png); anything
// else falls back to jpg.
func photoExtension(mimeType string) string {
	if mimeType == "image/png" {
		return "png"
	}
	return "jpg"
}

// Dispatch is the single per-turn entry point: gate the action
// against the current stage, run its handler, advance stage/history,
// and append an event_log entry, all before returning. It neither loads
// nor persists the record; the caller owns that Get/Put cycle.
func (d *Dispatcher) Dispatch(ctx context.Context, rec *session.Record, req Request) (Response, error) {
	stageBefore := rec.Metadata.Stage

	if req.Action == ActionGotoStage {
		return d.dispatchGoto(rec, req, stageBefore)
	}

	handler, ok := handlers[req.Action]
	if !ok {
		return Response{}, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}

	if want, gated := stageOf[req.Action]; gated {
		if !stageReachable(rec.Metadata.StageHistory, rec.Metadata.Stage, want) {
			d.logEvent(rec, req.Action, stageBefore, "stage_violation")
			return Response{}, fmt.Errorf("%w: action %q not reachable from stage %q", ErrStageViolation, req.Action, rec.Metadata.Stage)
		}
		if rec.Metadata.Stage != want {
			setStage(rec, want)
		}
	}

	data, err := handler(ctx, d, rec, req.Params)
	if err != nil {
		d.logEvent(rec, req.Action, stageBefore, "error")
		return Response{}, err
	}

	if advanceAfter[req.Action] {
		advance(rec)
	}

	d.logEvent(rec, req.Action, stageBefore, "ok")
	return Response{Stage: rec.Metadata.Stage, Result: "ok", Data: data}, nil
}

func (d *Dispatcher) dispatchGoto(rec *session.Record, req Request, stageBefore session.Stage) (Response, error) {
	var body struct {
		Target session.Stage `json:"target_stage"`
	}
	if err := json.Unmarshal(req.Params, &body); err != nil {
		return Response{}, fmt.Errorf("wizard: goto_stage params: %w", err)
	}
	if !allowedJump(rec.Metadata.StageHistory, rec.Metadata.Stage, body.Target) {
		d.logEvent(rec, req.Action, stageBefore, "stage_violation")
		return Response{}, fmt.Errorf("%w: cannot jump from %q to %q", ErrStageViolation, rec.Metadata.Stage, body.Target)
	}
	setStage(rec, body.Target)
	d.logEvent(rec, req.Action, stageBefore, "ok")
	return Response{Stage: rec.Metadata.Stage, Result: "ok"}, nil
}

// setStage moves the record to s, keeping stage_history[-1] == s: a
// revisited stage is moved to the tail rather than left at its original
// position, since a reader of stage_history expects the last entry to
// always be the current stage.
func setStage(rec *session.Record, s session.Stage) {
	rec.Metadata.Stage = s
	for i, h := range rec.Metadata.StageHistory {
		if h == s {
			rec.Metadata.StageHistory = append(rec.Metadata.StageHistory[:i], rec.Metadata.StageHistory[i+1:]...)
			break
		}
	}
	rec.Metadata.StageHistory = append(rec.Metadata.StageHistory, s)
	if len(rec.Metadata.StageHistory) > session.StageHistoryCap {
		rec.Metadata.StageHistory = rec.Metadata.StageHistory[len(rec.Metadata.StageHistory)-session.StageHistoryCap:]
	}
}

func advance(rec *session.Record) {
	idx := indexOf(rec.Metadata.Stage)
	if idx < 0 || idx+1 >= len(session.Order) {
		return
	}
	setStage(rec, session.Order[idx+1])
}

func (d *Dispatcher) logEvent(rec *session.Record, action Action, stageBefore session.Stage, result string) {
	_ = rec.AppendEvent(session.Event{
		Timestamp:   time.Now(),
		ActionID:    string(action),
		StageBefore: stageBefore,
		StageAfter:  rec.Metadata.Stage,
		Result:      result,
	})
}

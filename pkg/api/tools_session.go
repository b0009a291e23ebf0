package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cv"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/readiness"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/session"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/wizard"
)

// bootstrapSessionParams is the params shape for bootstrap_session: an
// optional base64-encoded uploaded document. The client sends it once,
// at bootstrap time; no other tool call accepts a document payload.
type bootstrapSessionParams struct {
	DocxBase64 string `json:"docx_base64,omitempty"`
}

// bootstrapSession handles the bootstrap_session tool: it is rejected
// when the session already exists, never a silent reset. Callers supply the session_id they want to bootstrap;
// the orchestrator never invents one on the client's behalf. When the
// request carries docx_base64, the uploaded document is run through the
// DOCX collaborator and staged as docx_prefill_unconfirmed before the
// record is persisted.
func (s *Server) bootstrapSession(ctx context.Context, req ToolCallRequest) (*ToolResponse, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("%w: bootstrap_session requires session_id", ErrBadRequest)
	}

	var docxBytes []byte
	if len(req.Params) > 0 {
		var body bootstrapSessionParams
		if err := json.Unmarshal(req.Params, &body); err != nil {
			return nil, fmt.Errorf("%w: bootstrap_session params: %v", ErrBadRequest, err)
		}
		if body.DocxBase64 != "" {
			decoded, err := base64.StdEncoding.DecodeString(body.DocxBase64)
			if err != nil {
				return nil, fmt.Errorf("%w: bootstrap_session docx_base64: %v", ErrBadRequest, err)
			}
			docxBytes = decoded
		}
	}

	rec, err := wizard.Bootstrap(ctx, s.dispatcher, req.SessionID, s.cfg.Features.SessionTTL, docxBytes)
	if err != nil {
		return nil, err
	}
	return &ToolResponse{
		AssistantText: "Session created.",
		UIAction:      &UIAction{Name: "select_language"},
		Data:          summarizeRecord(rec),
	}, nil
}

// getSession handles the get_session tool: a blob-aware read with no
// mutation, no dispatch, no persistence.
func (s *Server) getSession(ctx context.Context, req ToolCallRequest) (*ToolResponse, error) {
	rec, err := s.store.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	return &ToolResponse{Data: summarizeRecord(rec)}, nil
}

// updateField handles the update_field tool as a direct shortcut onto the
// wizard's ActionUpdateField handler:
// params are the raw {path, value} or {updates: [...]} body, unwrapped.
func (s *Server) updateField(ctx context.Context, req ToolCallRequest) (*ToolResponse, error) {
	return s.dispatchTurn(ctx, req.SessionID, wizard.Request{Action: wizard.ActionUpdateField, Params: req.Params})
}

// processCVOrchestratedParams is the params shape for process_cv_orchestrated:
// the generic single-turn tool that wraps any wizard action.
type processCVOrchestratedParams struct {
	ActionID wizard.Action   `json:"action_id"`
	Payload  json.RawMessage `json:"payload"`
}

// processCVOrchestrated handles the process_cv_orchestrated tool: the
// single backend tool invoked per HTTP turn: load session, dispatch the
// named action, persist, respond.
func (s *Server) processCVOrchestrated(ctx context.Context, req ToolCallRequest) (*ToolResponse, error) {
	var body processCVOrchestratedParams
	if err := json.Unmarshal(req.Params, &body); err != nil {
		return nil, fmt.Errorf("api: process_cv_orchestrated params: %w", err)
	}
	if body.ActionID == wizard.ActionBootstrapSession {
		return s.bootstrapSession(ctx, ToolCallRequest{ToolName: req.ToolName, SessionID: req.SessionID, Params: body.Payload})
	}
	return s.dispatchTurn(ctx, req.SessionID, wizard.Request{Action: body.ActionID, Params: body.Payload})
}

// dispatchTurn is the shared load -> dispatch -> persist turn every
// non-bootstrap wizard action tool goes through.
func (s *Server) dispatchTurn(ctx context.Context, sessionID string, wreq wizard.Request) (*ToolResponse, error) {
	rec, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	prevVersion := rec.Version

	resp, err := s.dispatcher.Dispatch(ctx, rec, wreq)
	if err != nil {
		return nil, err
	}

	rec.Version = prevVersion + 1
	if err := s.store.Put(ctx, rec, prevVersion); err != nil {
		// Persistence failure is logged (store.Put already does so) and
		// swallowed here; the turn's in-memory result is still
		// functionally correct and must reach the client.
		return &ToolResponse{
			AssistantText: "Saved with a warning; some session state may not persist.",
			StageUpdates:  resp,
		}, nil
	}

	return &ToolResponse{StageUpdates: resp}, nil
}

// generateContextPack handles the generate_context_pack tool: a bounded,
// non-authoritative capsule of session state the client's conversation
// layer can show without re-deriving it from the full record.
func (s *Server) generateContextPack(ctx context.Context, req ToolCallRequest) (*ToolResponse, error) {
	rec, err := s.store.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	pack, err := wizard.BuildContextPack(rec)
	if err != nil {
		return nil, err
	}
	return &ToolResponse{Data: pack}, nil
}

// sessionSearchParams is the params shape for session_search.
type sessionSearchParams struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// sessionSearch handles the session_search tool: a full-text search over
// persisted session payloads.
func (s *Server) sessionSearch(ctx context.Context, req ToolCallRequest) (*ToolResponse, error) {
	var body sessionSearchParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &body); err != nil {
			return nil, fmt.Errorf("api: session_search params: %w", err)
		}
	}
	if body.Query == "" {
		return nil, fmt.Errorf("api: session_search requires a query")
	}
	ids, err := s.store.SearchSessions(ctx, body.Query, body.Limit)
	if err != nil {
		return nil, err
	}
	return &ToolResponse{Data: map[string]any{"session_ids": ids}}, nil
}

// cleanupExpiredSessions handles the cleanup_expired_sessions tool: an
// on-demand retention pass, reusing the same RunOnce the background
// cleanup.Service ticks on its own schedule.
func (s *Server) cleanupExpiredSessions(ctx context.Context, _ ToolCallRequest) (*ToolResponse, error) {
	if s.cleanup == nil {
		return nil, fmt.Errorf("api: cleanup service not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	s.cleanup.RunOnce(ctx)
	return &ToolResponse{AssistantText: "Retention pass complete."}, nil
}

// recordSummary is the trimmed, client-facing projection of a session
// record returned by get_session/bootstrap_session; it never includes
// offload-pointer internals (blob keys, sha256 digests).
type recordSummary struct {
	SessionID      string          `json:"session_id"`
	Stage          session.Stage   `json:"stage"`
	Version        int64           `json:"version"`
	CVData         *cv.Data        `json:"cv_data"`
	ConfirmedFlags map[string]bool `json:"confirmed_flags"`
	Readiness      readiness.Result `json:"readiness"`
}

func summarizeRecord(rec *session.Record) recordSummary {
	d, err := rec.CV()
	if err != nil {
		d = cv.Empty()
	}
	validation := cv.Validate(d)
	hasPending := false
	for _, st := range rec.Metadata.StageRuntime {
		if st == session.RuntimePreview {
			hasPending = true
			break
		}
	}
	return recordSummary{
		SessionID:      rec.SessionID,
		Stage:          rec.Metadata.Stage,
		Version:        rec.Version,
		CVData:         d,
		ConfirmedFlags: rec.Metadata.ConfirmedFlags,
		Readiness:      readiness.Check(d, rec.Metadata.ConfirmedFlags, validation, hasPending),
	}
}

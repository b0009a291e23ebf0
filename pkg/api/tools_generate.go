package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cv"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/readiness"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/render"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/session"
)

// validateCV handles the validate_cv tool: a pure, read-only run of the
// canonical schema validator against the session's active document.
func (s *Server) validateCV(ctx context.Context, req ToolCallRequest) (*ToolResponse, error) {
	rec, err := s.store.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	d, err := rec.CV()
	if err != nil {
		return nil, err
	}
	return &ToolResponse{Data: cv.Validate(d)}, nil
}

// previewHTMLParams is the params shape for the debug preview_html tool.
type previewHTMLParams struct {
	Kind render.Kind `json:"kind"`
}

// previewHTML handles the preview_html debug tool: renders the HTML
// intermediate without touching the blob store or PDFRefs. There is no
// partial-PDF preview; the HTML debug render is the only preview surface.
func (s *Server) previewHTML(ctx context.Context, req ToolCallRequest) (*ToolResponse, error) {
	var body previewHTMLParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &body); err != nil {
			return nil, fmt.Errorf("api: preview_html params: %w", err)
		}
	}
	if body.Kind == "" {
		body.Kind = render.KindCV
	}

	rec, err := s.store.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	d, err := rec.CV()
	if err != nil {
		return nil, err
	}
	html := render.PreviewHTML(d, body.Kind)
	return &ToolResponse{Data: map[string]any{"html": html}}, nil
}

// generatePDF is shared by generate_cv_from_session and
// generate_cover_letter_from_session: check the readiness gate (applied
// to both kinds; a cover letter is not offered while CV generation is
// blocked), render, persist the updated pdf_refs, and return the bytes
// for the caller to stream back as application/pdf (these two tools never
// return the generic ToolResponse envelope).
func (s *Server) generatePDF(ctx context.Context, sessionID string, kind render.Kind) ([]byte, *session.PDFRef, error) {
	rec, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	prevVersion := rec.Version

	d, err := rec.CV()
	if err != nil {
		return nil, nil, err
	}
	validation := cv.Validate(d)

	hasPending := false
	for _, st := range rec.Metadata.StageRuntime {
		if st == session.RuntimePreview {
			hasPending = true
			break
		}
	}
	gate := readiness.Check(d, rec.Metadata.ConfirmedFlags, validation, hasPending)
	if !gate.CanGenerate {
		return nil, nil, &readinessError{Missing: gate.Missing}
	}

	debugAllowPages := s.cfg.Features.DebugAllowPages || rec.Metadata.DebugAllowPages
	ref, err := s.renderPath.Render(ctx, rec, kind, s.cfg.Features.IdempotencyLatch, debugAllowPages)
	if err != nil {
		return nil, nil, err
	}

	rec.Version = prevVersion + 1
	if err := s.store.Put(ctx, rec, prevVersion); err != nil {
		// store.Put has already logged the failure as PERSIST_FAILED. The PDF
		// bytes are already durably uploaded to the blob store, so the
		// caller still gets a usable artifact even though the session's
		// pdf_refs pointer to it didn't persist this turn.
	}

	pdfBytes, err := s.store.Blobs.Get(ctx, ref.BlobKey)
	if err != nil {
		return nil, nil, fmt.Errorf("api: fetch rendered pdf: %w", err)
	}
	return pdfBytes, ref, nil
}

package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/llm"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/render"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/store"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/wizard"
)

func TestMapError_Taxonomy(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{
			name:       "readiness not met",
			err:        &readinessError{Missing: []string{"target_role"}},
			wantStatus: http.StatusConflict,
			wantKind:   "readiness_not_met",
		},
		{
			name:       "llm invalid",
			err:        &llm.InvalidError{Stage: "draft_summary", Violations: []string{"missing field"}},
			wantStatus: http.StatusBadGateway,
			wantKind:   "llm_invalid",
		},
		{
			name:       "renderer failed",
			err:        render.ErrNotTwoPages,
			wantStatus: http.StatusBadGateway,
			wantKind:   "renderer_failed",
		},
		{
			name:       "size limit exceeded",
			err:        &store.SizeLimitError{SessionID: "sess-1", FinalSize: 999999},
			wantStatus: http.StatusInsufficientStorage,
			wantKind:   "size_limit_exceeded",
		},
		{
			name:       "stage violation",
			err:        fmt.Errorf("%w: bad jump", wizard.ErrStageViolation),
			wantStatus: http.StatusConflict,
			wantKind:   "stage_violation",
		},
		{
			name:       "unknown action maps to stage violation",
			err:        fmt.Errorf("%w: %q", wizard.ErrUnknownAction, "frobnicate"),
			wantStatus: http.StatusBadRequest,
			wantKind:   "stage_violation",
		},
		{
			name:       "no pending proposal maps to stage violation",
			err:        wizard.ErrNoPendingProposal,
			wantStatus: http.StatusBadRequest,
			wantKind:   "stage_violation",
		},
		{
			name:       "bad request",
			err:        fmt.Errorf("%w: bootstrap_session docx_base64: illegal base64 data", ErrBadRequest),
			wantStatus: http.StatusBadRequest,
			wantKind:   "validation_failed",
		},
		{
			name:       "not found",
			err:        store.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantKind:   "not_found",
		},
		{
			name:       "unrecognized error falls back to internal",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantKind:   "internal",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := mapError(tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantKind, body.Error)
			assert.NotEmpty(t, body.TraceID, "every mapped error carries a trace id")
		})
	}
}

func TestMapError_InternalNeverLeaksRawError(t *testing.T) {
	_, body := mapError(fmt.Errorf("sensitive internal detail: conn string xyz"))
	assert.Empty(t, body.Details, "internal errors must not echo the underlying error text to the client")
	assert.Empty(t, body.Suggestion)
}

func TestMapError_DistinctTraceIDsPerCall(t *testing.T) {
	_, first := mapError(store.ErrNotFound)
	_, second := mapError(store.ErrNotFound)
	assert.NotEqual(t, first.TraceID, second.TraceID, "trace ids correlate one failed request to one log line")
}

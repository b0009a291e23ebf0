package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"
	"github.com/google/uuid"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/llm"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/render"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/store"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/wizard"
)

// ErrBadRequest marks a tool handler error as malformed client input (bad
// JSON, an undecodable field) rather than an internal failure; wrap it
// with fmt.Errorf("%w: ...", ErrBadRequest) so mapError reports 400
// instead of swallowing the detail into a generic 500.
var ErrBadRequest = errors.New("api: bad request")

// readinessError carries the structured "missing" list a blocked
// generate_cv_from_session/generate_cover_letter_from_session call
// surfaces.
type readinessError struct {
	Missing []string
}

func (e *readinessError) Error() string { return "readiness_not_met" }

// mapError turns any error a tool handler returns into the error
// taxonomy: a machine-readable kind, an HTTP status, and human-facing
// details. Only
// errors with no recognized kind fall through to "internal", which never
// leaks the underlying error text to the client (it is logged instead).
func mapError(err error) (status int, body ErrorResponse) {
	traceID := uuid.NewString()

	var readiness *readinessError
	if errors.As(err, &readiness) {
		return http.StatusConflict, ErrorResponse{
			Error:   "readiness_not_met",
			Details: readiness.Missing,
			TraceID: traceID,
		}
	}

	var invalid *llm.InvalidError
	if errors.As(err, &invalid) {
		return http.StatusBadGateway, ErrorResponse{
			Error:      "llm_invalid",
			Details:    invalid.Violations,
			Suggestion: "retry the stage; if it persists, edit the field manually",
			TraceID:    traceID,
		}
	}

	if errors.Is(err, render.ErrNotTwoPages) {
		return http.StatusBadGateway, ErrorResponse{
			Error:      "renderer_failed",
			Details:    []string{err.Error()},
			Suggestion: "shorten the document or set debug_allow_pages for inspection",
			TraceID:    traceID,
		}
	}

	var sizeLimit *store.SizeLimitError
	if errors.As(err, &sizeLimit) {
		// This must already have been logged as PERSIST_FAILED and
		// swallowed by the caller; reaching here means a caller chose
		// to surface it anyway (e.g. a diagnostics tool).
		return http.StatusInsufficientStorage, ErrorResponse{
			Error:   "size_limit_exceeded",
			Details: []string{err.Error()},
			TraceID: traceID,
		}
	}

	if errors.Is(err, wizard.ErrStageViolation) {
		return http.StatusConflict, ErrorResponse{
			Error:   "stage_violation",
			Details: []string{err.Error()},
			TraceID: traceID,
		}
	}
	if errors.Is(err, wizard.ErrUnknownAction) || errors.Is(err, wizard.ErrNoPendingProposal) {
		return http.StatusBadRequest, ErrorResponse{
			Error:   "stage_violation",
			Details: []string{err.Error()},
			TraceID: traceID,
		}
	}

	if errors.Is(err, ErrBadRequest) {
		return http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Details: []string{err.Error()},
			TraceID: traceID,
		}
	}

	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			TraceID: traceID,
		}
	}

	slog.Error("api: internal error", "error", err, "trace_id", traceID)
	return http.StatusInternalServerError, ErrorResponse{
		Error:   "internal",
		TraceID: traceID,
	}
}

// writeError maps err and writes it as the response body: recovered
// errors become structured JSON, never a bare 5xx with a stack trace.
func writeError(c *echo.Context, err error) error {
	status, body := mapError(err)
	return c.JSON(status, body)
}

package api

import (
	"fmt"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/render"
)

// toolFunc is one JSON-responding tool's handler. The two
// PDF-producing tools are special-cased in toolCallHandler since they
// return raw bytes instead of a ToolResponse envelope.
type toolFunc func(c *echo.Context, req ToolCallRequest) (*ToolResponse, error)

// jsonTools maps every tool name except the two PDF-producing ones onto
// its handler.
func (s *Server) jsonTools() map[string]toolFunc {
	return map[string]toolFunc{
		"bootstrap_session": func(c *echo.Context, req ToolCallRequest) (*ToolResponse, error) {
			return s.bootstrapSession(c.Request().Context(), req)
		},
		"get_session": func(c *echo.Context, req ToolCallRequest) (*ToolResponse, error) {
			return s.getSession(c.Request().Context(), req)
		},
		"update_field": func(c *echo.Context, req ToolCallRequest) (*ToolResponse, error) {
			return s.updateField(c.Request().Context(), req)
		},
		"process_cv_orchestrated": func(c *echo.Context, req ToolCallRequest) (*ToolResponse, error) {
			return s.processCVOrchestrated(c.Request().Context(), req)
		},
		"generate_context_pack": func(c *echo.Context, req ToolCallRequest) (*ToolResponse, error) {
			return s.generateContextPack(c.Request().Context(), req)
		},
		"session_search": func(c *echo.Context, req ToolCallRequest) (*ToolResponse, error) {
			return s.sessionSearch(c.Request().Context(), req)
		},
		"validate_cv": func(c *echo.Context, req ToolCallRequest) (*ToolResponse, error) {
			return s.validateCV(c.Request().Context(), req)
		},
		"preview_html": func(c *echo.Context, req ToolCallRequest) (*ToolResponse, error) {
			return s.previewHTML(c.Request().Context(), req)
		},
		"cleanup_expired_sessions": func(c *echo.Context, req ToolCallRequest) (*ToolResponse, error) {
			return s.cleanupExpiredSessions(c.Request().Context(), req)
		},
	}
}

// pdfTools names the two tools that return raw PDF bytes with
// Content-Type: application/pdf instead of the generic ToolResponse
// envelope.
var pdfTools = map[string]render.Kind{
	"generate_cv_from_session":          render.KindCV,
	"generate_cover_letter_from_session": render.KindCoverLetter,
}

// toolCallHandler handles POST /cv-tool-call-handler: the
// single entry point every HTTP turn goes through.
func (s *Server) toolCallHandler(c *echo.Context) error {
	var req ToolCallRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ToolName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tool_name is required")
	}
	if req.SessionID == "" && req.ToolName != "bootstrap_session" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}

	if kind, ok := pdfTools[req.ToolName]; ok {
		pdfBytes, _, err := s.generatePDF(c.Request().Context(), req.SessionID, kind)
		if err != nil {
			return writeError(c, err)
		}
		return c.Blob(http.StatusOK, "application/pdf", pdfBytes)
	}

	handler, ok := s.jsonTools()[req.ToolName]
	if !ok {
		return writeError(c, fmt.Errorf("api: unknown tool %q", req.ToolName))
	}

	resp, err := handler(c, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Package api implements the orchestrated entry point: the single
// HTTP surface a conversational client drives, turning each
// POST /cv-tool-call-handler call into a load -> dispatch -> persist turn
// and mapping every collaborator error onto the error taxonomy.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cleanup"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/config"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/render"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/store"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/wizard"
)

// maxToolCallBodyBytes bounds the request body: a single generous
// ceiling set above the largest legitimate payload (a job posting,
// capped at 20 KiB) plus a base64 document and JSON envelope overhead.
const maxToolCallBodyBytes = 512 * 1024

// Server is the HTTP API server wiring every orchestrator collaborator
// into the tool-call surface.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	cfg        *config.Config
	store      *store.Store
	dispatcher *wizard.Dispatcher
	renderPath *render.Path
	cleanup    *cleanup.Service
}

// NewServer builds a ready-to-serve Server. cleanupSvc may be nil; the
// cleanup_expired_sessions tool then returns an error instead of running
// a retention pass.
func NewServer(cfg *config.Config, s *store.Store, d *wizard.Dispatcher, rp *render.Path, cleanupSvc *cleanup.Service) *Server {
	e := echo.New()

	srv := &Server{
		echo:       e,
		cfg:        cfg,
		store:      s,
		dispatcher: d,
		renderPath: rp,
		cleanup:    cleanupSvc,
	}

	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	s.echo.Use(middleware.BodyLimit(maxToolCallBodyBytes))

	s.echo.GET("/health", s.healthHandler)
	s.echo.POST("/cv-tool-call-handler", s.toolCallHandler)
}

// Start starts the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.echo}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener, used
// by tests to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(c *echo.Context) error {
	_, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	return c.JSON(http.StatusOK, &HealthResponse{Status: "healthy"})
}

// Package cleanup provides the background retention loop: expiring
// sessions past their TTL and garbage-collecting blobs those sessions
// left behind.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/store"
)

// Config controls the cleanup loop's cadence and blob grace period.
type Config struct {
	Interval       time.Duration
	BlobGracePeriod time.Duration
}

// DefaultConfig runs the loop hourly and keeps orphaned blobs around for a day after their session is
// gone in case of a slow client retry.
func DefaultConfig() Config {
	return Config{Interval: time.Hour, BlobGracePeriod: 24 * time.Hour}
}

// Service periodically enforces retention: soft-deletes expired sessions
// and removes blob rows orphaned by that expiry. All operations are
// idempotent and safe to run from multiple replicas.
type Service struct {
	cfg   Config
	store *store.Store

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService builds a cleanup service over the given store.
func NewService(cfg Config, s *store.Store) *Service {
	return &Service{cfg: cfg, store: s}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("cleanup: service started", "interval", s.cfg.Interval, "blob_grace_period", s.cfg.BlobGracePeriod)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("cleanup: service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes one retention pass; also invoked directly by the
// cleanup_expired_sessions tool for an on-demand pass.
func (s *Service) RunOnce(ctx context.Context) {
	expired, err := s.store.ExpireSessions(ctx)
	if err != nil {
		slog.Error("cleanup: expire sessions failed", "error", err)
	} else if expired > 0 {
		slog.Info("cleanup: expired sessions", "count", expired)
	}

	collected, err := s.store.CollectOrphanedBlobs(ctx, s.cfg.BlobGracePeriod)
	if err != nil {
		slog.Error("cleanup: orphaned blob collection failed", "error", err)
	} else if collected > 0 {
		slog.Info("cleanup: collected orphaned blobs", "count", collected)
	}
}

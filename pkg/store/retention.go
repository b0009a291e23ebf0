package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// ExpireSessions soft-deletes every session whose expires_at has passed
// and that isn't already deleted (the cleanup_expired_sessions tool).
// Returns the number of rows touched.
func (s *Store) ExpireSessions(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE cv_sessions SET deleted_at = now()
		WHERE expires_at < now() AND deleted_at IS NULL
	`)
	if err != nil {
		return 0, fmt.Errorf("store: expire sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CollectOrphanedBlobs deletes blob rows whose owning session has been
// soft-deleted for longer than grace, or never existed at all (a partial
// write that failed after the blob upload but before the session row
// committed). Blob keys are namespaced {prefix}/{session_id}/... or, for
// extracted photos, {prefix}/{session_id}.{ext}, so the owning session id
// is recovered from the key itself.
func (s *Store) CollectOrphanedBlobs(ctx context.Context, grace time.Duration) (int, error) {
	keys, err := s.Blobs.Keys(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("store: list blob keys: %w", err)
	}

	collected := 0
	for _, key := range keys {
		sessionID := sessionIDFromBlobKey(key)
		if sessionID == "" {
			continue
		}
		orphaned, err := s.sessionOrphaned(ctx, sessionID, grace)
		if err != nil {
			return collected, err
		}
		if !orphaned {
			continue
		}
		if err := s.Blobs.Delete(ctx, key); err != nil {
			return collected, fmt.Errorf("store: delete orphaned blob %q: %w", key, err)
		}
		collected++
	}
	return collected, nil
}

func sessionIDFromBlobKey(key string) string {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) < 2 {
		return ""
	}
	if len(parts) == 2 {
		return strings.TrimSuffix(parts[1], path.Ext(parts[1]))
	}
	return parts[1]
}

func (s *Store) sessionOrphaned(ctx context.Context, sessionID string, grace time.Duration) (bool, error) {
	var deletedAt *time.Time
	err := s.pool.QueryRow(ctx, `SELECT deleted_at FROM cv_sessions WHERE session_id = $1`, sessionID).Scan(&deletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return true, nil
		}
		return false, fmt.Errorf("store: lookup session %q for gc: %w", sessionID, err)
	}
	if deletedAt == nil {
		return false, nil
	}
	return time.Since(*deletedAt) > grace, nil
}

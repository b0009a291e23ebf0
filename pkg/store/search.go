package store

import (
	"context"
	"fmt"
)

// defaultSearchLimit applies when the caller doesn't bound the result
// set.
const defaultSearchLimit = 20

// SearchSessions performs full-text search over persisted session
// payloads (the session_search tool), run against the JSONB payload as a
// whole, since the canonical document
// it searches (full_name, profile, target_role, ...) may itself be
// offloaded to a blob and isn't reliably present as plain columns.
func (s *Store) SearchSessions(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT session_id FROM cv_sessions
		WHERE deleted_at IS NULL
		  AND to_tsvector('english', payload::text) @@ plainto_tsquery('english', $1)
		ORDER BY updated_at DESC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan search result: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

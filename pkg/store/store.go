// Package store implements the primary session store: a size-aware
// put that transparently offloads oversized fields to the blob store, and
// a blob-aware get that transparently expands them back.
package store

import (
	stdsql "database/sql"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/blob"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/session"
)

// primaryPropertyLimitBytes approximates the hard per-property size limit
// of a small-document backing store: a record above this size must
// offload before it can be written directly.
const primaryPropertyLimitBytes = 64 * 1024

// maxWriteRetries bounds size-aware write retries (offload passes plus
// one shrink-metadata pass).
const maxWriteRetries = 3

// ErrNotFound is returned by Get when no live session matches the id.
var ErrNotFound = errors.New("store: session not found")

// ErrVersionConflict is returned by Put when the record's Version does not
// follow the version currently persisted; the caller must re-read and
// retry from fresh state.
var ErrVersionConflict = errors.New("store: version conflict")

// SizeLimitError is the terminal failure of the offload discipline: even
// after offloading every candidate field and shrinking metadata, the
// record still doesn't fit. This must never crash the request: callers
// log PERSIST_FAILED and keep serving the in-memory result.
type SizeLimitError struct {
	SessionID string
	FinalSize int
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("store: session %s exceeds primary store size limit after shrink (size=%d)", e.SessionID, e.FinalSize)
}

// Store is the primary session store, backed by Postgres, with an
// attached content-addressed blob store for offloaded fields and terminal
// artifacts.
type Store struct {
	pool  *pgxpool.Pool
	Blobs *blob.Store
}

// Open connects to Postgres, runs embedded migrations, and returns a
// ready Store: database/sql + pgx's stdlib driver for migrations,
// pgxpool for runtime queries.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	migrationDB, err := stdsql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("store: open migration connection: %w", err)
	}
	defer migrationDB.Close()

	if err := migrationDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if err := runMigrations(migrationDB, cfg.Database); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("store: parse pool config: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("store: open pool: %w", err)
	}

	return &Store{pool: pool, Blobs: blob.New(pool)}, nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.pool.Close() }

// Get performs a blob-aware read: the raw record is loaded and
// every offloaded slot is transparently expanded. A slot that fails to
// resolve is left as a pointer; its error is logged as a warning rather
// than failing the whole read.
func (s *Store) Get(ctx context.Context, sessionID string) (*session.Record, error) {
	rec, err := s.GetRaw(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if errs := rec.ResolveAll(ctx, s.Blobs); len(errs) > 0 {
		for _, e := range errs {
			slog.Warn("store: slot resolve failed, returning pointer intact", "session_id", sessionID, "error", e)
		}
	}
	return rec, nil
}

// GetRaw loads a record without expanding offload pointers. Used for
// diagnostics only; orchestrator paths must use Get.
func (s *Store) GetRaw(ctx context.Context, sessionID string) (*session.Record, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `
		SELECT payload FROM cv_sessions WHERE session_id = $1 AND deleted_at IS NULL
	`, sessionID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get %q: %w", sessionID, err)
	}

	var rec session.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("store: unmarshal %q: %w", sessionID, err)
	}
	return &rec, nil
}

// Put performs a size-aware write. rec.Version must already be set
// to the new version being persisted; expectedPrevVersion is the version
// the caller read the record at (0 for a brand-new session).
func (s *Store) Put(ctx context.Context, rec *session.Record, expectedPrevVersion int64) error {
	rec.UpdatedAt = time.Now()

	var lastErr error
	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("store: marshal %q: %w", rec.SessionID, err)
		}

		if len(payload) <= primaryPropertyLimitBytes {
			if err := s.writeRow(ctx, rec, payload, expectedPrevVersion); err != nil {
				slog.Error("PERSIST_FAILED", "session_id", rec.SessionID, "error", err)
				return err
			}
			return nil
		}

		switch attempt {
		case 0:
			for len(payload) > primaryPropertyLimitBytes {
				if err := s.offloadLargest(ctx, rec); err != nil {
					lastErr = err
					break
				}
				if payload, err = json.Marshal(rec); err != nil {
					return fmt.Errorf("store: marshal %q: %w", rec.SessionID, err)
				}
			}
		case 1:
			shrinkMetadata(rec)
		default:
			slog.Error("PERSIST_FAILED", "session_id", rec.SessionID, "size", len(payload))
			return &SizeLimitError{SessionID: rec.SessionID, FinalSize: len(payload)}
		}
	}

	payload, _ := json.Marshal(rec)
	slog.Error("PERSIST_FAILED", "session_id", rec.SessionID, "size", len(payload), "last_error", lastErr)
	return &SizeLimitError{SessionID: rec.SessionID, FinalSize: len(payload)}
}

func (s *Store) writeRow(ctx context.Context, rec *session.Record, payload []byte, expectedPrevVersion int64) error {
	if expectedPrevVersion == 0 {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO cv_sessions (session_id, payload, version, updated_at, expires_at, deleted_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, rec.SessionID, payload, rec.Version, rec.UpdatedAt, rec.ExpiresAt, rec.DeletedAt)
		if err != nil {
			return fmt.Errorf("store: insert %q: %w", rec.SessionID, err)
		}
		return nil
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE cv_sessions
		SET payload = $1, version = $2, updated_at = $3, expires_at = $4, deleted_at = $5
		WHERE session_id = $6 AND version = $7
	`, payload, rec.Version, rec.UpdatedAt, rec.ExpiresAt, rec.DeletedAt, rec.SessionID, expectedPrevVersion)
	if err != nil {
		return fmt.Errorf("store: update %q: %w", rec.SessionID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

// candidateField names one offloadable slot for logging/keying purposes.
type candidateField struct {
	name string
	slot *session.Slot
}

// offloadLargest moves the single largest not-yet-offloaded candidate
// field to the blob store. Callers loop this until the record fits.
func (s *Store) offloadLargest(ctx context.Context, rec *session.Record) error {
	candidates := []candidateField{
		{"cv_data", &rec.CVData},
		{"docx_prefill_unconfirmed", &rec.Metadata.DocxPrefillUnconfirmed},
		{"proposal_cache", &rec.Metadata.ProposalCache},
		{"event_log", &rec.Metadata.EventLog},
		{"cv_state_snapshots", &rec.Metadata.CVStateSnapshots},
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].slot.InlineSize() > candidates[j].slot.InlineSize()
	})

	for _, c := range candidates {
		if c.slot.IsOffloaded() {
			continue
		}
		key := fmt.Sprintf("%s/%s/%s.json", blob.PrefixArtifact, rec.SessionID, c.name)
		if err := c.slot.Offload(ctx, s.Blobs, key); err != nil {
			return fmt.Errorf("store: offload %s: %w", c.name, err)
		}
		slog.Info("store: offloaded oversized field", "session_id", rec.SessionID, "field", c.name, "key", key)
		return nil
	}
	return fmt.Errorf("store: no remaining offload candidates for %q", rec.SessionID)
}

// shrinkMetadata is the last-resort fallback: drop
// non-essential keys outright rather than offload them: proposal cache
// history, the raw DOCX prefill snapshot, and all but the most recent
// event-log tail.
func shrinkMetadata(rec *session.Record) {
	emptyCache, _ := session.NewSlot(map[string]session.Proposal{})
	rec.Metadata.ProposalCache = emptyCache

	emptyPrefill, _ := session.NewSlot(json.RawMessage("null"))
	rec.Metadata.DocxPrefillUnconfirmed = emptyPrefill

	if evs, err := rec.EventLogEntries(); err == nil && len(evs) > 5 {
		tail := evs[len(evs)-5:]
		if slot, err := session.NewSlot(tail); err == nil {
			rec.Metadata.EventLog = slot
		}
	}

	slog.Warn("store: shrink_metadata applied", "session_id", rec.SessionID)
}

// Package blob provides content-addressed storage for oversized session
// fields and terminal artifacts (PDFs, photos, offloaded proposals).
//
// No object-storage SDK appears anywhere in the retrieval pack this
// repository was built from, so the blob store is implemented on the same
// Postgres connection the primary session store already uses (see
// DESIGN.md) rather than reaching for a fabricated dependency.
package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a key has no matching blob.
var ErrNotFound = errors.New("blob: not found")

// Store is a content-addressed key/value blob store.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an existing connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Key namespaces for persisted artifacts.
const (
	PrefixArtifact = "cv-artifacts"
	PrefixPDF      = "cv-pdfs"
	PrefixPhoto    = "cv-photos"
)

// Sum256Hex returns the hex-encoded sha256 digest of data.
func Sum256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Put stores data under the given logical key and returns its sha256 digest.
// Writes are idempotent: the same key+bytes pair can be written repeatedly
// without error, since a write to an existing key replaces that row. Rows
// are keyed by the logical key, not the digest, so identical bytes
// written under two different keys are stored twice.
func (s *Store) Put(ctx context.Context, key string, data []byte) (sha256Hex string, err error) {
	digest := Sum256Hex(data)
	_, err = s.pool.Exec(ctx, `
		INSERT INTO cv_blobs (blob_key, sha256, bytes, size)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (blob_key) DO UPDATE
		SET sha256 = EXCLUDED.sha256, bytes = EXCLUDED.bytes, size = EXCLUDED.size
	`, key, digest, data, len(data))
	if err != nil {
		return "", fmt.Errorf("blob: put %q: %w", key, err)
	}
	return digest, nil
}

// Get retrieves the bytes stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT bytes FROM cv_blobs WHERE blob_key = $1`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("blob: get %q: %w", key, err)
	}
	return data, nil
}

// Delete removes a blob. Deleting a key that doesn't exist is not an error
// (garbage collection is idempotent).
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM cv_blobs WHERE blob_key = $1`, key)
	if err != nil {
		return fmt.Errorf("blob: delete %q: %w", key, err)
	}
	return nil
}

// Keys returns every stored key with the given prefix, for out-of-band
// garbage collection (orphaned artifact sweep in pkg/cleanup).
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT blob_key FROM cv_blobs WHERE blob_key LIKE $1`, prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("blob: list %q: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

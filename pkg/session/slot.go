package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/blob"
)

// offloadKind is the discriminator written into an offload pointer so Get
// can tell a real JSON value from a pointer at unmarshal time.
const offloadKind = "offload-ref"

// offloadRef is the small pointer object that replaces an oversized field
// in the primary record once it has been moved to the blob store.
type offloadRef struct {
	Kind   string `json:"kind"`
	Key    string `json:"key"`
	SHA256 string `json:"sha256"`
	Bytes  int    `json:"bytes"`
}

// Slot holds one offloadable record field. It is either inline (the raw
// JSON value lives in the record) or offloaded (replaced by a small
// pointer, with the real bytes in the blob store). Slot round-trips
// through JSON transparently: offload is invisible to anything that only
// calls Unmarshal after Resolve.
type Slot struct {
	inline []byte
	ref    *offloadRef
}

// NewSlot wraps a value as an inline slot.
func NewSlot(v any) (Slot, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Slot{}, fmt.Errorf("slot: marshal: %w", err)
	}
	return Slot{inline: raw}, nil
}

// IsOffloaded reports whether this slot currently points at the blob store.
func (s Slot) IsOffloaded() bool { return s.ref != nil }

// Size returns the marshaled size of the slot as it would appear in the
// primary record right now (pointer size once offloaded, full value
// otherwise), used to pick offload candidates by actual savings.
func (s Slot) Size() int {
	if s.ref != nil {
		b, _ := json.Marshal(s.ref)
		return len(b)
	}
	return len(s.inline)
}

// InlineSize returns the size the value would take up if NOT offloaded,
// regardless of current state, used to rank offload candidates.
func (s Slot) InlineSize() int {
	if s.ref == nil {
		return len(s.inline)
	}
	return s.ref.Bytes
}

// Offload moves the slot's current value into the blob store under the
// given key, replacing it with a pointer. A no-op if already offloaded.
func (s *Slot) Offload(ctx context.Context, blobs *blob.Store, key string) error {
	if s.ref != nil {
		return nil
	}
	digest, err := blobs.Put(ctx, key, s.inline)
	if err != nil {
		return err
	}
	s.ref = &offloadRef{Kind: offloadKind, Key: key, SHA256: digest, Bytes: len(s.inline)}
	s.inline = nil
	return nil
}

// Resolve expands an offloaded slot by fetching its bytes from the blob
// store. Per the blob-aware read failure policy, a fetch failure
// leaves the pointer intact and returns an error the caller can downgrade
// to a warning instead of failing the whole read.
func (s *Slot) Resolve(ctx context.Context, blobs *blob.Store) error {
	if s.ref == nil {
		return nil
	}
	data, err := blobs.Get(ctx, s.ref.Key)
	if err != nil {
		return fmt.Errorf("slot: resolve %q: %w", s.ref.Key, err)
	}
	s.inline = data
	s.ref = nil
	return nil
}

// Unmarshal decodes the slot's current inline value into v. Callers must
// Resolve an offloaded slot first; Unmarshal on a still-offloaded slot
// returns an error rather than silently decoding the pointer shape.
func (s Slot) Unmarshal(v any) error {
	if s.ref != nil {
		return fmt.Errorf("slot: still offloaded (key=%s), call Resolve first", s.ref.Key)
	}
	if s.inline == nil {
		return nil
	}
	return json.Unmarshal(s.inline, v)
}

// MarshalJSON implements json.Marshaler.
func (s Slot) MarshalJSON() ([]byte, error) {
	if s.ref != nil {
		return json.Marshal(s.ref)
	}
	if s.inline == nil {
		return []byte("null"), nil
	}
	return s.inline, nil
}

// UnmarshalJSON implements json.Unmarshaler. It peeks at the payload to
// tell an offload pointer apart from a real value.
func (s *Slot) UnmarshalJSON(data []byte) error {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err == nil && probe.Kind == offloadKind {
		var ref offloadRef
		if err := json.Unmarshal(data, &ref); err != nil {
			return err
		}
		s.ref = &ref
		s.inline = nil
		return nil
	}
	s.inline = append([]byte(nil), data...)
	s.ref = nil
	return nil
}

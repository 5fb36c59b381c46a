package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrUnavailable is returned by blob operations when the backing store
	// could not be established. Callers are expected to keep working in
	// metadata-only mode instead of failing the request.
	ErrUnavailable = errors.New("blob store unavailable")

	// ErrNotFound is returned by Get for an id that has no stored payload.
	// This is distinct from ErrUnavailable so callers can tell "never
	// stored" apart from "store is gone".
	ErrNotFound = errors.New("blob not found")
)

// BlobStore persists raw attachment content keyed by record id.
//
// Implementations must treat absence of the backing store as a state, not a
// constructor failure: Available reports it, and every operation on an
// unavailable store returns ErrUnavailable.
type BlobStore interface {
	// Put stores the content read from r under id, overwriting any
	// previous payload with the same id.
	Put(ctx context.Context, id string, r io.Reader) error

	// Get returns the stored payload. The caller owns the returned
	// ReadCloser. Returns ErrNotFound when id has no payload.
	Get(ctx context.Context, id string) (io.ReadCloser, error)

	// Delete removes the payload. Deleting a missing id is a no-op.
	Delete(ctx context.Context, id string) error

	// Available reports whether the backing store was established.
	Available() bool
}

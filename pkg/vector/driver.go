// Package vector provides interfaces and implementations for vector storage
// of embedded document chunks.
package vector

import (
	"context"

	"github.com/google/uuid"
)

// Payload is the fixed metadata record stored alongside every vector.
// The field names map one-to-one onto the store's payload keys.
type Payload struct {
	// DocumentID is the stable identifier of the source document.
	DocumentID string

	// ChunkIndex is the 0-based emission order of the chunk within its document.
	ChunkIndex int

	// Text is the chunk text itself.
	Text string

	// ChunkID is the human-readable chunk identifier
	// ("{document_id}_chunk_{index}").
	ChunkID string
}

// Point is one stored vector plus its payload, addressed by a deterministic id.
type Point struct {
	// ID is derived from (document_id, chunk_index) via a name-based UUID,
	// so re-ingesting the same document overwrites rather than accumulates.
	ID uuid.UUID

	// Vector is the embedding of Payload.Text.
	Vector []float32

	Payload Payload
}

// ScoredPoint is a search hit with its similarity score.
type ScoredPoint struct {
	Payload

	// ID is the point identifier.
	ID uuid.UUID

	// Score is the similarity score (higher = more similar, cosine).
	Score float32
}

// Driver handles storage and retrieval of embedded document chunks.
//
// Implementations do not retry failed operations; retry policy belongs to
// the caller. All operations may return ErrUnavailable when the backend
// cannot be reached.
type Driver interface {
	// EnsureCollection creates the named collection with the given vector
	// dimensionality if it does not exist. An existing collection with
	// matching dimensions is a no-op; a dimension conflict returns
	// ErrSchemaMismatch.
	EnsureCollection(ctx context.Context, name string, dims uint64) error

	// Upsert inserts or overwrites points by id. Implementations write in
	// bounded batches and wait for each batch to be acknowledged before
	// sending the next, so a crash leaves only whole batches missing.
	Upsert(ctx context.Context, name string, points []Point) error

	// DeleteByDocument removes every point whose payload document id equals
	// documentID. Used as the first step of re-ingestion so a document's old
	// chunk set is replaced, never accumulated.
	DeleteByDocument(ctx context.Context, name string, documentID string) error

	// Search returns the limit nearest points to the query vector by the
	// collection's metric. A non-empty documentID restricts results to
	// points of that document.
	Search(ctx context.Context, name string, queryVector []float32, documentID string, limit uint64) ([]ScoredPoint, error)

	// ListDocumentIDs enumerates the distinct document ids present in the
	// collection, sorted, without reading vectors.
	ListDocumentIDs(ctx context.Context, name string) ([]string, error)

	// Close releases any resources held by the driver.
	Close() error
}

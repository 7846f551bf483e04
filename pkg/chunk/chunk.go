// Package chunk splits preprocessed document text into bounded, overlapping
// windows and derives stable identifiers for each window.
package chunk

import (
	"fmt"

	"github.com/google/uuid"
)

// Chunk is one bounded window of a document's text, the unit of embedding
// and retrieval.
type Chunk struct {
	// DocumentID is the stable identifier of the source document.
	DocumentID string

	// Index is the 0-based emission order of the chunker for one document.
	// It is not stable across re-chunking with different parameters.
	Index int

	// Text is the trimmed window text.
	Text string
}

// ID returns the human-readable chunk identifier,
// "{document_id}_chunk_{index}".
func (c Chunk) ID() string {
	return ChunkID(c.DocumentID, c.Index)
}

// PointID returns the deterministic vector-store point id for this chunk.
func (c Chunk) PointID() uuid.UUID {
	return PointID(c.DocumentID, c.Index)
}

// ChunkID derives the chunk identifier for a document position.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// PointID derives a name-based (version 5) UUID from the chunk identifier.
// Calling twice with the same inputs always yields the same id, which is
// what makes re-ingestion idempotent: delete-then-insert can be retried
// without accumulating duplicate points.
//
// The hash input is exactly the chunk id string under the DNS namespace,
// matching ids already present in existing collections.
func PointID(documentID string, index int) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(ChunkID(documentID, index)))
}

package vector

import "errors"

var (
	// ErrConfig is returned for invalid configuration: bad chunker
	// parameters, missing targets, zero dimensions.
	ErrConfig = errors.New("invalid configuration")

	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrUnavailable is returned when the vector store cannot be reached.
	ErrUnavailable = errors.New("vector store unavailable")

	// ErrSchemaMismatch is returned when an existing collection's
	// dimensionality conflicts with the configured embedder.
	ErrSchemaMismatch = errors.New("collection schema mismatch")
)

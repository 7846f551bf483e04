// Package embeddings provides text embedding capabilities behind a small
// provider-agnostic interface.
package embeddings

import "context"

// Embedder converts text into fixed-dimension vector embeddings.
// The output dimensionality is fixed per embedder instance and must match
// the vector collection it feeds.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}

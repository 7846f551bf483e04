// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"

	"github.com/legisrag/legisrag/pkg/embeddings"
	"github.com/legisrag/legisrag/pkg/embeddings/ollama"
	"github.com/legisrag/legisrag/pkg/embeddings/openai"
)

// NewEmbedderOpts selects and configures an embedding provider.
type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	APIKey       string
	Model        string
}

// NewEmbedder constructs the configured embedding provider.
func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case "ollama":
		return ollama.NewEmbedder(ollama.Config{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	case "openai":
		return openai.NewEmbedder(openai.Config{
			BaseURL: o.TargetURL,
			APIKey:  o.APIKey,
			Model:   o.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}

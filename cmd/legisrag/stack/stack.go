// Package stack wires the vector store and embedder from resolved
// configuration. Shared by every command that touches the index so flag,
// env, and file precedence behaves identically across them.
package stack

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/legisrag/legisrag/pkg/dotdir"
	"github.com/legisrag/legisrag/pkg/embeddings"
	embeddingutils "github.com/legisrag/legisrag/pkg/embeddings/utils"
	"github.com/legisrag/legisrag/pkg/retrieve"
	"github.com/legisrag/legisrag/pkg/vector"
	vectorutils "github.com/legisrag/legisrag/pkg/vector/utils"
)

const defaultDBFile = "legisrag.db"

// Stack holds the constructed store and embedder plus the resolved
// collection settings.
type Stack struct {
	Store      vector.Driver
	Embedder   embeddings.Embedder
	Collection string
	Dimensions uint64
}

// New builds a Stack from resolved viper configuration.
func New(v *viper.Viper, logger *zap.Logger) (*Stack, error) {
	sqlitePath, err := resolveSQLitePath(v)
	if err != nil {
		return nil, err
	}

	store, err := vectorutils.NewDriver(&vectorutils.NewDriverOpts{
		ProviderType: v.GetString("vector_store.provider"),
		TargetURL:    v.GetString("vector_store.target"),
		APIKey:       v.GetString("vector_store.api_key"),
		SQLitePath:   sqlitePath,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: v.GetString("embedding.provider"),
		TargetURL:    v.GetString("embedding.target"),
		APIKey:       v.GetString("embedding.api_key"),
		Model:        v.GetString("embedding.model"),
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	return &Stack{
		Store:      store,
		Embedder:   embedder,
		Collection: v.GetString("corpus.collection"),
		Dimensions: uint64(v.GetUint("embedding.dimensions")),
	}, nil
}

// Close releases the store and embedder.
func (s *Stack) Close() {
	_ = s.Embedder.Close()
	_ = s.Store.Close()
}

// NewRetriever builds a retriever over the stack's collection.
func (s *Stack) NewRetriever(logger *zap.Logger) (*retrieve.Retriever, error) {
	return retrieve.NewRetriever(retrieve.Config{
		Store:      s.Store,
		Embedder:   s.Embedder,
		Collection: s.Collection,
		Logger:     logger,
	})
}

// resolveSQLitePath returns the configured SQLite path, falling back to
// legisrag.db inside the resolved .legisrag/ directory.
func resolveSQLitePath(v *viper.Viper) (string, error) {
	if path := v.GetString("storage.sqlite_path"); path != "" {
		return path, nil
	}

	// Only the sqlite provider needs a path.
	if v.GetString("vector_store.provider") != "sqlite" {
		return "", nil
	}

	target, err := dotdir.NewManager().Target("")
	if err != nil {
		return "", fmt.Errorf("resolving database directory: %w", err)
	}

	return filepath.Join(target, defaultDBFile), nil
}

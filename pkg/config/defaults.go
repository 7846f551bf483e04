package config

const (
	defaultAPIListen = ":8080"

	defaultVectorProvider = "sqlite"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultChunkSize    = 1000
	defaultChunkOverlap = 200

	defaultCorpusDir  = "data/bills"
	defaultCollection = "bill_chunks"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Chunker: ChunkerConfig{
			Size:    defaultChunkSize,
			Overlap: defaultChunkOverlap,
		},
		Corpus: CorpusConfig{
			Dir:                     defaultCorpusDir,
			Collection:              defaultCollection,
			NormalizeSectionHeaders: true,
		},
	}
}

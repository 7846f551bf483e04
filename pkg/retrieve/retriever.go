// Package retrieve answers natural-language questions against indexed
// documents. Per-document retrieval is hybrid: an explicit section
// reference in the query reserves the first result slot for that section's
// best-matching chunk, and semantic search fills the rest.
package retrieve

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/legisrag/legisrag/pkg/embeddings"
	"github.com/legisrag/legisrag/pkg/vector"
)

const (
	// DefaultTopK is the per-document excerpt count when none is requested.
	DefaultTopK = 3

	// DefaultGlobalTopK is the cross-document excerpt count when none is
	// requested.
	DefaultGlobalTopK = 5
)

// Excerpt is one retrieved chunk of a single document.
type Excerpt struct {
	Text  string
	Score float32
}

// GlobalExcerpt is one retrieved chunk from a cross-document search.
type GlobalExcerpt struct {
	DocumentID string
	Text       string
	Score      float32
}

// Config holds the collaborators for a Retriever.
type Config struct {
	// Store is the vector store queried for excerpts.
	Store vector.Driver

	// Embedder embeds queries; it must match the one used at ingest time.
	Embedder embeddings.Embedder

	// Collection is the collection to search.
	Collection string

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// Retriever searches one collection. It is stateless and safe for
// concurrent use.
type Retriever struct {
	store      vector.Driver
	embedder   embeddings.Embedder
	collection string
	logger     *zap.Logger
}

// NewRetriever validates the configuration and returns a Retriever.
func NewRetriever(c Config) (*Retriever, error) {
	if c.Store == nil {
		return nil, fmt.Errorf("%w: vector store is required", vector.ErrConfig)
	}
	if c.Embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", vector.ErrConfig)
	}
	if c.Collection == "" {
		return nil, fmt.Errorf("%w: collection name is required", vector.ErrConfig)
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return &Retriever{
		store:      c.Store,
		embedder:   c.Embedder,
		collection: c.Collection,
		logger:     c.Logger,
	}, nil
}

// Retrieve returns up to topK excerpts from one document, most relevant
// first. When the query names a section ("section 3", any case), the best
// chunk for that section reference is placed first and the remaining slots
// come from semantic search over the full query. Results are deduplicated
// by exact text. An unknown document yields an empty slice, not an error.
func (r *Retriever) Retrieve(ctx context.Context, documentID string, query string, topK int) ([]Excerpt, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	excerpts := make([]Excerpt, 0, topK)
	seen := make(map[string]bool)

	if ref, ok := SectionReference(query); ok {
		boosted, err := r.searchOne(ctx, ref, documentID)
		if err != nil {
			return nil, err
		}
		for _, p := range boosted {
			if !seen[p.Text] {
				seen[p.Text] = true
				excerpts = append(excerpts, Excerpt{Text: p.Text, Score: p.Score})
			}
		}
		r.logger.Debug("section boost applied",
			zap.String("document_id", documentID),
			zap.String("section", ref),
			zap.Int("hits", len(boosted)),
		)
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	points, err := r.store.Search(ctx, r.collection, queryVec, documentID, uint64(topK))
	if err != nil {
		return nil, fmt.Errorf("searching document %q: %w", documentID, err)
	}

	for _, p := range points {
		if len(excerpts) == topK {
			break
		}
		if seen[p.Text] {
			continue
		}
		seen[p.Text] = true
		excerpts = append(excerpts, Excerpt{Text: p.Text, Score: p.Score})
	}

	return excerpts, nil
}

// RetrieveGlobal returns up to topK excerpts across all documents in the
// collection, most relevant first. No section boost applies.
func (r *Retriever) RetrieveGlobal(ctx context.Context, query string, topK int) ([]GlobalExcerpt, error) {
	if topK <= 0 {
		topK = DefaultGlobalTopK
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	points, err := r.store.Search(ctx, r.collection, queryVec, "", uint64(topK))
	if err != nil {
		return nil, fmt.Errorf("searching collection %q: %w", r.collection, err)
	}

	excerpts := make([]GlobalExcerpt, 0, len(points))
	for _, p := range points {
		excerpts = append(excerpts, GlobalExcerpt{
			DocumentID: p.DocumentID,
			Text:       p.Text,
			Score:      p.Score,
		})
	}

	return excerpts, nil
}

// ListDocuments returns the distinct document ids in the collection.
func (r *Retriever) ListDocuments(ctx context.Context) ([]string, error) {
	return r.store.ListDocumentIDs(ctx, r.collection)
}

// searchOne embeds text and returns the single best match within a document.
func (r *Retriever) searchOne(ctx context.Context, text string, documentID string) ([]vector.ScoredPoint, error) {
	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding section reference: %w", err)
	}

	points, err := r.store.Search(ctx, r.collection, vec, documentID, 1)
	if err != nil {
		return nil, fmt.Errorf("searching document %q: %w", documentID, err)
	}

	return points, nil
}

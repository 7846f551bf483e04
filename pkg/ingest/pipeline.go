// Package ingest orchestrates preprocessing, chunking, embedding, and
// vector-store writes for whole documents, with replace (not append)
// semantics per document.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/legisrag/legisrag/pkg/chunk"
	"github.com/legisrag/legisrag/pkg/embeddings"
	"github.com/legisrag/legisrag/pkg/vector"
)

const (
	// DefaultChunkSize is the character window size used when none is
	// configured.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the window overlap used when none is
	// configured.
	DefaultChunkOverlap = 200
)

// Config holds the collaborators and parameters for a Pipeline.
type Config struct {
	// Store is the vector store the pipeline writes to.
	Store vector.Driver

	// Embedder generates chunk embeddings.
	Embedder embeddings.Embedder

	// Collection is the target collection name (one per corpus).
	Collection string

	// Dimensions is the embedder's output dimensionality; the collection
	// is created with it and checked against it.
	Dimensions uint64

	// ChunkSize is the window size in characters. Defaults to
	// DefaultChunkSize when zero.
	ChunkSize int

	// ChunkOverlap is the window overlap in characters. Defaults to
	// DefaultChunkOverlap when ChunkSize is also zero.
	ChunkOverlap int

	// NormalizeSectionHeaders forces "SEC. <n>." headers onto their own
	// line during preprocessing.
	NormalizeSectionHeaders bool

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// Stats summarizes one document ingestion.
type Stats struct {
	// Chunks is the number of windows produced and written.
	Chunks int

	// Characters is the total character count across those windows.
	Characters int
}

// Pipeline ingests documents into a vector collection. It is stateless
// between calls; ingestions of different documents are safe to run
// concurrently.
type Pipeline struct {
	store      vector.Driver
	embedder   embeddings.Embedder
	pre        chunk.Preprocessor
	chunker    *chunk.Chunker
	collection string
	logger     *zap.Logger
}

// NewPipeline validates the configuration and ensures the target collection
// exists before any document is ingested. Invalid chunker parameters and
// collection dimension conflicts are rejected here, not at ingest time.
func NewPipeline(ctx context.Context, c Config) (*Pipeline, error) {
	if c.Store == nil {
		return nil, fmt.Errorf("%w: vector store is required", vector.ErrConfig)
	}
	if c.Embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", vector.ErrConfig)
	}
	if c.Collection == "" {
		return nil, fmt.Errorf("%w: collection name is required", vector.ErrConfig)
	}

	size, overlap := c.ChunkSize, c.ChunkOverlap
	if size == 0 {
		size = DefaultChunkSize
		if overlap == 0 {
			overlap = DefaultChunkOverlap
		}
	}

	chunker, err := chunk.NewChunker(size, overlap)
	if err != nil {
		return nil, err
	}

	if err := c.Store.EnsureCollection(ctx, c.Collection, c.Dimensions); err != nil {
		return nil, err
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	return &Pipeline{
		store:      c.Store,
		embedder:   c.Embedder,
		pre:        chunk.Preprocessor{NormalizeSectionHeaders: c.NormalizeSectionHeaders},
		chunker:    chunker,
		collection: c.Collection,
		logger:     c.Logger,
	}, nil
}

// Collection returns the collection the pipeline writes to.
func (p *Pipeline) Collection() string { return p.collection }

// Ingest replaces the stored chunk set for one document: preprocess, chunk,
// embed every chunk, then delete the document's old points and upsert the
// new ones in acknowledged batches.
//
// Every chunk is embedded before anything is deleted, so an embedding
// failure leaves the previously stored chunk set untouched. If the delete
// succeeds and a later upsert batch fails, re-running Ingest repairs the
// document: point ids are deterministic.
func (p *Pipeline) Ingest(ctx context.Context, documentID string, raw string) (Stats, error) {
	text := p.pre.Preprocess(raw)
	pieces := p.chunker.Split(text)

	points := make([]vector.Point, 0, len(pieces))
	characters := 0

	for idx, pieceText := range pieces {
		embedding, err := p.embedder.Embed(ctx, pieceText)
		if err != nil {
			return Stats{}, fmt.Errorf("embedding %s: %w", chunk.ChunkID(documentID, idx), err)
		}

		points = append(points, vector.Point{
			ID:     chunk.PointID(documentID, idx),
			Vector: embedding,
			Payload: vector.Payload{
				DocumentID: documentID,
				ChunkIndex: idx,
				Text:       pieceText,
				ChunkID:    chunk.ChunkID(documentID, idx),
			},
		})
		characters += len(pieceText)
	}

	// Replace semantics: clear the old chunk set even when the new one is
	// empty, so re-ingesting an emptied document removes stale chunks.
	if err := p.store.DeleteByDocument(ctx, p.collection, documentID); err != nil {
		return Stats{}, fmt.Errorf("removing previous chunks for document %q: %w", documentID, err)
	}

	if len(points) == 0 {
		p.logger.Info("document produced no chunks",
			zap.String("document_id", documentID),
		)
		return Stats{}, nil
	}

	if err := p.store.Upsert(ctx, p.collection, points); err != nil {
		return Stats{}, fmt.Errorf("uploading chunks for document %q: %w", documentID, err)
	}

	p.logger.Info("ingested document",
		zap.String("document_id", documentID),
		zap.String("collection", p.collection),
		zap.Int("chunks", len(points)),
		zap.Int("characters", characters),
	)

	return Stats{Chunks: len(points), Characters: characters}, nil
}

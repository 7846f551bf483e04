// Package qdrant provides a Qdrant vector database driver implementation
// over the official gRPC client.
package qdrant

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	qd "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/legisrag/legisrag/pkg/vector"
)

const (
	// DefaultBatchSize is the number of points sent per upsert request.
	// Each batch is acknowledged (wait=true) before the next is sent.
	DefaultBatchSize = 100

	// scrollPageSize bounds the metadata scroll used for document listing.
	scrollPageSize = 10000
)

// Driver implements vector.Driver against a Qdrant instance.
type Driver struct {
	client    *qd.Client
	batchSize int
	logger    *zap.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Host is the Qdrant gRPC host (e.g., "localhost" or a cloud endpoint).
	Host string

	// Port is the gRPC port. Defaults to 6334 if zero.
	Port int

	// APIKey authenticates against managed Qdrant. Empty for local instances.
	APIKey string

	// UseTLS enables TLS on the gRPC channel. Required by Qdrant Cloud.
	UseTLS bool

	// BatchSize overrides DefaultBatchSize when positive.
	BatchSize int
}

// NewDriver connects to Qdrant and returns a Driver.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("%w: qdrant host is required", vector.ErrConfig)
	}

	port := c.Port
	if port == 0 {
		port = 6334
	}

	batchSize := c.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	client, err := qd.NewClient(&qd.Config{
		Host:   c.Host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", vector.ErrUnavailable, err)
	}

	logger.Info("connected to Qdrant",
		zap.String("host", c.Host),
		zap.Int("port", port),
		zap.Bool("tls", c.UseTLS),
	)

	return &Driver{
		client:    client,
		batchSize: batchSize,
		logger:    logger,
	}, nil
}

// EnsureCollection creates the collection with cosine distance if it does
// not exist. An existing collection is checked for dimension agreement and
// returns vector.ErrSchemaMismatch on conflict; the mismatch is never
// silently resolved.
func (d *Driver) EnsureCollection(ctx context.Context, name string, dims uint64) error {
	if dims == 0 {
		return fmt.Errorf("%w: collection dimensions cannot be 0", vector.ErrConfig)
	}

	exists, err := d.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: checking collection %q: %v", vector.ErrUnavailable, name, err)
	}

	if exists {
		info, err := d.client.GetCollectionInfo(ctx, name)
		if err != nil {
			return fmt.Errorf("%w: inspecting collection %q: %v", vector.ErrUnavailable, name, err)
		}

		existing := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
		if existing != dims {
			return fmt.Errorf("%w: collection %q has %d dimensions, embedder produces %d",
				vector.ErrSchemaMismatch, name, existing, dims)
		}
		return nil
	}

	err = d.client.CreateCollection(ctx, &qd.CreateCollection{
		CollectionName: name,
		VectorsConfig: qd.NewVectorsConfig(&qd.VectorParams{
			Size:     dims,
			Distance: qd.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: creating collection %q: %v", vector.ErrUnavailable, name, err)
	}

	d.logger.Info("created collection",
		zap.String("collection", name),
		zap.Uint64("dimensions", dims),
	)

	return nil
}

// Upsert writes points in acknowledged batches. A failure mid-way leaves
// earlier batches committed; re-running the ingestion repairs the gap
// because point ids are deterministic.
func (d *Driver) Upsert(ctx context.Context, name string, points []vector.Point) error {
	for i := 0; i < len(points); i += d.batchSize {
		end := i + d.batchSize
		if end > len(points) {
			end = len(points)
		}

		batch := make([]*qd.PointStruct, 0, end-i)
		for _, p := range points[i:end] {
			batch = append(batch, &qd.PointStruct{
				Id:      qd.NewID(p.ID.String()),
				Vectors: qd.NewVectors(p.Vector...),
				Payload: payloadToValueMap(p.Payload),
			})
		}

		_, err := d.client.Upsert(ctx, &qd.UpsertPoints{
			CollectionName: name,
			Points:         batch,
			Wait:           qd.PtrOf(true),
		})
		if err != nil {
			return fmt.Errorf("%w: upserting batch %d-%d of %d points: %v",
				vector.ErrUnavailable, i, end, len(points), err)
		}

		d.logger.Debug("upserted batch",
			zap.String("collection", name),
			zap.Int("from", i),
			zap.Int("to", end),
		)
	}

	return nil
}

// DeleteByDocument removes every point whose document_id payload equals
// documentID.
func (d *Driver) DeleteByDocument(ctx context.Context, name string, documentID string) error {
	_, err := d.client.Delete(ctx, &qd.DeletePoints{
		CollectionName: name,
		Points: qd.NewPointsSelectorFilter(&qd.Filter{
			Must: []*qd.Condition{
				qd.NewMatch("document_id", documentID),
			},
		}),
		Wait: qd.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: deleting points for document %q: %v", vector.ErrUnavailable, documentID, err)
	}

	return nil
}

// Search returns the limit nearest points by cosine similarity, optionally
// restricted to one document.
func (d *Driver) Search(ctx context.Context, name string, queryVector []float32, documentID string, limit uint64) ([]vector.ScoredPoint, error) {
	query := &qd.QueryPoints{
		CollectionName: name,
		Query:          qd.NewQuery(queryVector...),
		Limit:          qd.PtrOf(limit),
		WithPayload:    qd.NewWithPayload(true),
	}

	if documentID != "" {
		query.Filter = &qd.Filter{
			Must: []*qd.Condition{
				qd.NewMatch("document_id", documentID),
			},
		}
	}

	hits, err := d.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: searching collection %q: %v", vector.ErrUnavailable, name, err)
	}

	results := make([]vector.ScoredPoint, 0, len(hits))
	for _, hit := range hits {
		sp := vector.ScoredPoint{
			Payload: payloadFromValueMap(hit.GetPayload()),
			Score:   hit.GetScore(),
		}
		if id, err := uuid.Parse(hit.GetId().GetUuid()); err == nil {
			sp.ID = id
		}
		results = append(results, sp)
	}

	d.logger.Debug("searched collection",
		zap.String("collection", name),
		zap.String("document_id", documentID),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// ListDocumentIDs scrolls the collection's document_id payload field without
// vectors and returns the distinct, sorted ids.
func (d *Driver) ListDocumentIDs(ctx context.Context, name string) ([]string, error) {
	points, err := d.client.Scroll(ctx, &qd.ScrollPoints{
		CollectionName: name,
		Limit:          qd.PtrOf(uint32(scrollPageSize)),
		WithPayload:    qd.NewWithPayloadInclude("document_id"),
		WithVectors:    qd.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scrolling collection %q: %v", vector.ErrUnavailable, name, err)
	}

	seen := make(map[string]bool)
	for _, p := range points {
		if id := p.GetPayload()["document_id"].GetStringValue(); id != "" {
			seen[id] = true
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids, nil
}

// Close releases the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

// payloadToValueMap converts the fixed payload record to Qdrant's value map.
// The wire keys are the stable payload contract of the collections.
func payloadToValueMap(p vector.Payload) map[string]*qd.Value {
	return qd.NewValueMap(map[string]any{
		"document_id": p.DocumentID,
		"chunk_index": int64(p.ChunkIndex),
		"text":        p.Text,
		"chunk_id":    p.ChunkID,
	})
}

// payloadFromValueMap converts a Qdrant value map back to the payload record.
// Missing fields decode to zero values; the core never writes such points,
// so they only arise from stores that predate this schema.
func payloadFromValueMap(m map[string]*qd.Value) vector.Payload {
	return vector.Payload{
		DocumentID: m["document_id"].GetStringValue(),
		ChunkIndex: int(m["chunk_index"].GetIntegerValue()),
		Text:       m["text"].GetStringValue(),
		ChunkID:    m["chunk_id"].GetStringValue(),
	}
}

var _ vector.Driver = (*Driver)(nil)

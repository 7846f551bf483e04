// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
// It keeps whole corpora on local disk (or in memory) with no external
// service, which suits offline ingestion and tests.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"regexp"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/legisrag/legisrag/pkg/vector"
)

// DefaultBatchSize is the number of points committed per upsert transaction.
const DefaultBatchSize = 100

// filteredOverfetch is how many KNN candidates are pulled when a document
// filter applies. vec0 KNN cannot pre-filter on joined columns, so the
// filter runs on the candidate set; the overfetch keeps recall reasonable
// for collections holding many documents.
const filteredOverfetch = 16

// collectionNameRe restricts collection names to identifier characters,
// since the name becomes part of the vec0 table name.
var collectionNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Driver implements vector.Driver using SQLite with the sqlite-vec extension.
type Driver struct {
	db        *sql.DB
	batchSize int
	logger    *zap.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// BatchSize overrides DefaultBatchSize when positive.
	BatchSize int
}

// NewDriver opens the database and prepares the schema shared by all
// collections.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("%w: database path is required", vector.ErrConfig)
	}

	batchSize := c.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", vector.ErrUnavailable, err)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: sqlite-vec not available: %v", vector.ErrUnavailable, err)
	}

	// Collection registry: dimensions are fixed at creation and checked on
	// every EnsureCollection call.
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			dims INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating collections table: %v", vector.ErrUnavailable, err)
	}

	// Chunk payload rows. vec0 virtual tables use integer rowids, so this
	// table also maps point UUIDs to the rowids of the per-collection
	// embedding tables.
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			collection TEXT NOT NULL,
			point_id TEXT NOT NULL,
			document_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			chunk_id TEXT NOT NULL,
			text TEXT NOT NULL,
			UNIQUE(collection, point_id)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating chunks table: %v", vector.ErrUnavailable, err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		zap.String("db_path", c.DBPath),
		zap.String("vec_version", vecVersion),
	)

	return &Driver{
		db:        db,
		batchSize: batchSize,
		logger:    logger,
	}, nil
}

// EnsureCollection registers the collection and creates its vec0 table.
// A dimension conflict with an existing collection returns
// vector.ErrSchemaMismatch.
func (d *Driver) EnsureCollection(ctx context.Context, name string, dims uint64) error {
	if dims == 0 {
		return fmt.Errorf("%w: collection dimensions cannot be 0", vector.ErrConfig)
	}
	if !collectionNameRe.MatchString(name) {
		return fmt.Errorf("%w: invalid collection name %q", vector.ErrConfig, name)
	}

	var existing uint64
	err := d.db.QueryRowContext(ctx,
		`SELECT dims FROM collections WHERE name = ?`, name,
	).Scan(&existing)

	switch err {
	case nil:
		if existing != dims {
			return fmt.Errorf("%w: collection %q has %d dimensions, embedder produces %d",
				vector.ErrSchemaMismatch, name, existing, dims)
		}
		return nil
	case sql.ErrNoRows:
		// fall through to create
	default:
		return fmt.Errorf("%w: checking collection %q: %v", vector.ErrUnavailable, name, err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(embedding float[%d] distance_metric=cosine)`,
		vecTable(name), dims,
	)
	if _, err := d.db.ExecContext(ctx, createVec); err != nil {
		return fmt.Errorf("%w: creating vec0 table for %q: %v", vector.ErrUnavailable, name, err)
	}

	if _, err := d.db.ExecContext(ctx,
		`INSERT INTO collections(name, dims) VALUES (?, ?)`, name, dims,
	); err != nil {
		return fmt.Errorf("%w: registering collection %q: %v", vector.ErrUnavailable, name, err)
	}

	d.logger.Info("created collection",
		zap.String("collection", name),
		zap.Uint64("dimensions", dims),
	)

	return nil
}

// Upsert writes points in batches, one committed transaction per batch, so
// an interruption leaves only whole batches missing.
func (d *Driver) Upsert(ctx context.Context, name string, points []vector.Point) error {
	for i := 0; i < len(points); i += d.batchSize {
		end := i + d.batchSize
		if end > len(points) {
			end = len(points)
		}

		if err := d.upsertBatch(ctx, name, points[i:end]); err != nil {
			return fmt.Errorf("upserting batch %d-%d of %d points: %w", i, end, len(points), err)
		}
	}

	return nil
}

func (d *Driver) upsertBatch(ctx context.Context, name string, points []vector.Point) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", vector.ErrUnavailable, err)
	}
	defer tx.Rollback()

	vec := vecTable(name)

	for _, p := range points {
		embBlob, err := serializeFloat32(p.Vector)
		if err != nil {
			return fmt.Errorf("serializing embedding for %s: %w", p.Payload.ChunkID, err)
		}

		var existingRowID int64
		err = tx.QueryRowContext(ctx,
			`SELECT rowid FROM chunks WHERE collection = ? AND point_id = ?`,
			name, p.ID.String(),
		).Scan(&existingRowID)

		switch err {
		case nil:
			if _, err := tx.ExecContext(ctx,
				`UPDATE chunks SET document_id = ?, chunk_index = ?, chunk_id = ?, text = ? WHERE rowid = ?`,
				p.Payload.DocumentID, p.Payload.ChunkIndex, p.Payload.ChunkID, p.Payload.Text, existingRowID,
			); err != nil {
				return fmt.Errorf("%w: updating chunk %s: %v", vector.ErrUnavailable, p.Payload.ChunkID, err)
			}

			// vec0 does not support UPDATE; replace via DELETE + INSERT.
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`DELETE FROM %s WHERE rowid = ?`, vec), existingRowID,
			); err != nil {
				return fmt.Errorf("%w: deleting old embedding for %s: %v", vector.ErrUnavailable, p.Payload.ChunkID, err)
			}

			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`INSERT INTO %s(rowid, embedding) VALUES (?, ?)`, vec),
				existingRowID, embBlob,
			); err != nil {
				return fmt.Errorf("%w: re-inserting embedding for %s: %v", vector.ErrUnavailable, p.Payload.ChunkID, err)
			}
		case sql.ErrNoRows:
			result, err := tx.ExecContext(ctx,
				`INSERT INTO chunks(collection, point_id, document_id, chunk_index, chunk_id, text)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				name, p.ID.String(), p.Payload.DocumentID, p.Payload.ChunkIndex, p.Payload.ChunkID, p.Payload.Text,
			)
			if err != nil {
				return fmt.Errorf("%w: inserting chunk %s: %v", vector.ErrUnavailable, p.Payload.ChunkID, err)
			}

			rowID, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("%w: getting rowid for %s: %v", vector.ErrUnavailable, p.Payload.ChunkID, err)
			}

			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf(`INSERT INTO %s(rowid, embedding) VALUES (?, ?)`, vec),
				rowID, embBlob,
			); err != nil {
				return fmt.Errorf("%w: inserting embedding for %s: %v", vector.ErrUnavailable, p.Payload.ChunkID, err)
			}
		default:
			return fmt.Errorf("%w: checking for existing chunk %s: %v", vector.ErrUnavailable, p.Payload.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", vector.ErrUnavailable, err)
	}

	return nil
}

// DeleteByDocument removes every chunk of the given document, embeddings
// included.
func (d *Driver) DeleteByDocument(ctx context.Context, name string, documentID string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", vector.ErrUnavailable, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE rowid IN (
			SELECT rowid FROM chunks WHERE collection = ? AND document_id = ?
		)`, vecTable(name)),
		name, documentID,
	); err != nil {
		return fmt.Errorf("%w: deleting embeddings for document %q: %v", vector.ErrUnavailable, documentID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM chunks WHERE collection = ? AND document_id = ?`,
		name, documentID,
	); err != nil {
		return fmt.Errorf("%w: deleting chunks for document %q: %v", vector.ErrUnavailable, documentID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", vector.ErrUnavailable, err)
	}

	return nil
}

// Search runs a KNN query via vec0 MATCH, joins back to chunk payloads, and
// optionally filters to one document.
func (d *Driver) Search(ctx context.Context, name string, queryVector []float32, documentID string, limit uint64) ([]vector.ScoredPoint, error) {
	if limit == 0 {
		return nil, nil
	}

	queryBlob, err := serializeFloat32(queryVector)
	if err != nil {
		return nil, fmt.Errorf("serializing query embedding: %w", err)
	}

	knnLimit := limit
	if documentID != "" {
		knnLimit = limit * filteredOverfetch
	}

	query := fmt.Sprintf(`
		SELECT
			c.point_id,
			c.document_id,
			c.chunk_index,
			c.chunk_id,
			c.text,
			ve.distance
		FROM %s ve
		INNER JOIN chunks c ON c.rowid = ve.rowid
		WHERE ve.embedding MATCH ?
			AND ve.k = ?
			AND c.collection = ?
			AND (? = '' OR c.document_id = ?)
		ORDER BY ve.distance
		LIMIT ?
	`, vecTable(name))

	rows, err := d.db.QueryContext(ctx, query,
		queryBlob, knnLimit, name, documentID, documentID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying vectors: %v", vector.ErrUnavailable, err)
	}
	defer rows.Close()

	var results []vector.ScoredPoint
	for rows.Next() {
		var pointID string
		var p vector.Payload
		var distance float64
		if err := rows.Scan(&pointID, &p.DocumentID, &p.ChunkIndex, &p.ChunkID, &p.Text, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		sp := vector.ScoredPoint{
			Payload: p,
			// Cosine distance to similarity: higher = more similar.
			Score: float32(1.0 - distance),
		}
		if id, err := uuid.Parse(pointID); err == nil {
			sp.ID = id
		}
		results = append(results, sp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	d.logger.Debug("queried sqlite-vec",
		zap.String("collection", name),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// ListDocumentIDs returns the distinct, sorted document ids in a collection.
func (d *Driver) ListDocumentIDs(ctx context.Context, name string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT DISTINCT document_id FROM chunks WHERE collection = ? ORDER BY document_id`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: listing documents: %v", vector.ErrUnavailable, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning document id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document ids: %w", err)
	}

	return ids, nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.db.Close()
}

// vecTable names the per-collection vec0 virtual table.
func vecTable(collection string) string {
	return "vec_" + collection
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) ([]byte, error) {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf, nil
}

var _ vector.Driver = (*Driver)(nil)

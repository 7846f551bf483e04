package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/legisrag/legisrag/pkg/ingest"
	"github.com/legisrag/legisrag/pkg/vector"
)

// WatcherConfig holds the collaborators for a Watcher.
type WatcherConfig struct {
	// Dir is the corpus directory to watch.
	Dir string

	// Pool receives an ingestion job for every created or modified .txt file.
	Pool *ingest.Pool

	// Store handles chunk removal when a document file is deleted.
	Store vector.Driver

	// Collection is the collection deletions apply to.
	Collection string

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// Watcher mirrors filesystem changes in the corpus directory into the index:
// created or modified documents are re-ingested, removed documents have
// their chunks deleted.
type Watcher struct {
	fsw        *fsnotify.Watcher
	pool       *ingest.Pool
	store      vector.Driver
	collection string
	logger     *zap.Logger
	wg         sync.WaitGroup
}

// NewWatcher starts watching the corpus directory.
func NewWatcher(c WatcherConfig) (*Watcher, error) {
	if c.Pool == nil {
		return nil, fmt.Errorf("ingestion pool is required")
	}
	if c.Store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if c.Collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating filesystem watcher: %w", err)
	}

	if err := fsw.Add(c.Dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching corpus directory %q: %w", c.Dir, err)
	}

	w := &Watcher{
		fsw:        fsw,
		pool:       c.Pool,
		store:      c.Store,
		collection: c.Collection,
		logger:     c.Logger,
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Close stops the watcher. Jobs already enqueued keep processing until the
// pool itself is closed.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("corpus watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Ext(event.Name) != ".txt" {
		return
	}

	id := DocumentID(event.Name)

	switch {
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		data, err := os.ReadFile(event.Name)
		if err != nil {
			// Writes arrive in bursts; the file may already be gone again.
			w.logger.Warn("reading changed document",
				zap.String("document_id", id),
				zap.Error(err),
			)
			return
		}
		w.pool.Enqueue(ingest.Job{DocumentID: id, Text: string(data)})

	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		if err := w.store.DeleteByDocument(context.Background(), w.collection, id); err != nil {
			w.logger.Error("removing chunks for deleted document",
				zap.String("document_id", id),
				zap.Error(err),
			)
			return
		}
		w.logger.Info("removed document from index",
			zap.String("document_id", id),
			zap.String("collection", w.collection),
		)
	}
}

package ingest

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is one document to ingest.
type Job struct {
	DocumentID string
	Text       string
}

// PoolConfig is the configuration options for the ingestion worker pool.
type PoolConfig struct {
	// Pipeline performs the per-document ingestion.
	Pipeline *Pipeline

	// NumWorkers is the number of background workers in the pool.
	// Independent documents ingest concurrently; batches within one
	// document stay sequential inside the pipeline.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// Totals is a snapshot of the pool's aggregate counters.
type Totals struct {
	Documents  int64
	Chunks     int64
	Characters int64
	Failures   int64
}

// Pool ingests documents asynchronously via a worker pool, bounding the
// number of in-flight store writes.
type Pool struct {
	pipeline *Pipeline
	queue    chan Job
	wg       sync.WaitGroup
	logger   *zap.Logger

	documents  atomic.Int64
	chunks     atomic.Int64
	characters atomic.Int64
	failures   atomic.Int64
}

// NewPool creates a Pool and starts its worker goroutines.
func NewPool(c *PoolConfig) (*Pool, error) {
	if c.Pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	p := &Pool{
		pipeline: c.Pipeline,
		queue:    make(chan Job, c.QueueSize),
		logger:   c.Logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// Enqueue submits a document for ingestion.
// Returns true if enqueued, false if the queue is full and the job was dropped.
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("ingestion queued",
			zap.String("document_id", job.DocumentID),
		)
		return true
	default:
		p.logger.Error("ingestion not queued, queue full, job dropped",
			zap.String("document_id", job.DocumentID),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight ingestions to drain.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// Totals returns a snapshot of the aggregate ingestion counters.
func (p *Pool) Totals() Totals {
	return Totals{
		Documents:  p.documents.Load(),
		Chunks:     p.chunks.Load(),
		Characters: p.characters.Load(),
		Failures:   p.failures.Load(),
	}
}

// worker is the inner worker goroutine that continuously pulls jobs off the
// queue.
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("ingestion worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("ingestion worker stopped", zap.Uint("worker_id", id))
}

func (p *Pool) processJob(job Job) {
	stats, err := p.pipeline.Ingest(context.Background(), job.DocumentID, job.Text)
	if err != nil {
		p.failures.Add(1)
		p.logger.Error("async ingestion failed",
			zap.String("document_id", job.DocumentID),
			zap.Error(err),
		)
		return
	}

	p.documents.Add(1)
	p.chunks.Add(int64(stats.Chunks))
	p.characters.Add(int64(stats.Characters))
}

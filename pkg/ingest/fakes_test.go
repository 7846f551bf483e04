package ingest_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/legisrag/legisrag/pkg/vector"
)

// fakeEmbedder returns a deterministic vector derived from the text length.
// When failOn is non-empty, any text containing it fails to embed.
type fakeEmbedder struct {
	dims   int
	failOn string

	mu    sync.Mutex
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, fmt.Errorf("%w: synthetic failure", vector.ErrEmbedding)
	}

	v := make([]float32, f.dims)
	for i := range v {
		v[i] = float32(len(text)%7) + float32(i)
	}
	return v, nil
}

func (f *fakeEmbedder) Close() error { return nil }

// fakeStore is an in-memory vector.Driver that records the order of
// mutating operations.
type fakeStore struct {
	mu        sync.Mutex
	ensured   map[string]uint64
	points    map[string]map[uuid.UUID]vector.Point
	ops       []string
	ensureErr error
	deleteErr error
	upsertErr error

	// deleteGate, when set, is received from inside DeleteByDocument after
	// deleteStarted is signaled, letting tests hold a worker mid-job.
	deleteGate    chan struct{}
	deleteStarted chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ensured: map[string]uint64{},
		points:  map[string]map[uuid.UUID]vector.Point{},
	}
}

func (s *fakeStore) EnsureCollection(_ context.Context, name string, dims uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensureErr != nil {
		return s.ensureErr
	}
	s.ops = append(s.ops, "ensure:"+name)
	s.ensured[name] = dims
	if s.points[name] == nil {
		s.points[name] = map[uuid.UUID]vector.Point{}
	}
	return nil
}

func (s *fakeStore) Upsert(_ context.Context, name string, points []vector.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.ops = append(s.ops, fmt.Sprintf("upsert:%s:%d", name, len(points)))
	if s.points[name] == nil {
		s.points[name] = map[uuid.UUID]vector.Point{}
	}
	for _, p := range points {
		s.points[name][p.ID] = p
	}
	return nil
}

func (s *fakeStore) DeleteByDocument(_ context.Context, name string, documentID string) error {
	if s.deleteStarted != nil {
		s.deleteStarted <- struct{}{}
	}
	if s.deleteGate != nil {
		<-s.deleteGate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.ops = append(s.ops, "delete:"+name+":"+documentID)
	for id, p := range s.points[name] {
		if p.Payload.DocumentID == documentID {
			delete(s.points[name], id)
		}
	}
	return nil
}

func (s *fakeStore) Search(_ context.Context, name string, _ []float32, documentID string, limit uint64) ([]vector.ScoredPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []vector.ScoredPoint
	for id, p := range s.points[name] {
		if documentID != "" && p.Payload.DocumentID != documentID {
			continue
		}
		out = append(out, vector.ScoredPoint{Payload: p.Payload, ID: id, Score: 1})
		if uint64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) ListDocumentIDs(_ context.Context, name string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, p := range s.points[name] {
		if !seen[p.Payload.DocumentID] {
			seen[p.Payload.DocumentID] = true
			out = append(out, p.Payload.DocumentID)
		}
	}
	return out, nil
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) opLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ops...)
}

func (s *fakeStore) stored(name string) []vector.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []vector.Point
	for _, p := range s.points[name] {
		out = append(out, p)
	}
	return out
}

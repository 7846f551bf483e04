package retrieve_test

import (
	"context"
	"errors"
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/legisrag/legisrag/pkg/retrieve"
	"github.com/legisrag/legisrag/pkg/vector"
)

// scriptEmbedder encodes each embedded text as an index into its call log,
// so the store can recover which text a query vector came from.
type scriptEmbedder struct {
	texts  []string
	failOn string
}

func (e *scriptEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.failOn != "" && strings.Contains(text, e.failOn) {
		return nil, fmt.Errorf("%w: synthetic failure", vector.ErrEmbedding)
	}
	e.texts = append(e.texts, text)
	return []float32{float32(len(e.texts) - 1)}, nil
}

func (e *scriptEmbedder) Close() error { return nil }

type searchCall struct {
	Text       string
	DocumentID string
	Limit      uint64
}

// scriptStore serves canned results keyed by the embedded query text.
type scriptStore struct {
	embedder  *scriptEmbedder
	results   map[string][]vector.ScoredPoint
	searches  []searchCall
	docIDs    []string
	searchErr error
}

func (s *scriptStore) EnsureCollection(context.Context, string, uint64) error { return nil }
func (s *scriptStore) Upsert(context.Context, string, []vector.Point) error   { return nil }
func (s *scriptStore) DeleteByDocument(context.Context, string, string) error { return nil }
func (s *scriptStore) Close() error                                           { return nil }

func (s *scriptStore) Search(_ context.Context, _ string, queryVector []float32, documentID string, limit uint64) ([]vector.ScoredPoint, error) {
	text := s.embedder.texts[int(queryVector[0])]
	s.searches = append(s.searches, searchCall{Text: text, DocumentID: documentID, Limit: limit})
	if s.searchErr != nil {
		return nil, s.searchErr
	}

	var out []vector.ScoredPoint
	for _, p := range s.results[text] {
		if documentID != "" && p.DocumentID != documentID {
			continue
		}
		out = append(out, p)
		if uint64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (s *scriptStore) ListDocumentIDs(context.Context, string) ([]string, error) {
	return s.docIDs, nil
}

func hit(documentID, text string, score float32) vector.ScoredPoint {
	return vector.ScoredPoint{
		Payload: vector.Payload{DocumentID: documentID, Text: text},
		Score:   score,
	}
}

var _ = Describe("SectionReference", func() {
	It("extracts and normalizes a section number", func() {
		ref, ok := retrieve.SectionReference("What does Section 3 require?")
		Expect(ok).To(BeTrue())
		Expect(ref).To(Equal("Section 3"))
	})

	It("matches case-insensitively and across whitespace", func() {
		ref, ok := retrieve.SectionReference("summarize SECTION   12 please")
		Expect(ok).To(BeTrue())
		Expect(ref).To(Equal("Section 12"))
	})

	It("requires a word boundary", func() {
		_, ok := retrieve.SectionReference("the dissection 4 procedure")
		Expect(ok).To(BeFalse())
	})

	It("requires a number", func() {
		_, ok := retrieve.SectionReference("the section about funding")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Retriever", func() {
	var (
		ctx      context.Context
		embedder *scriptEmbedder
		store    *scriptStore
		r        *retrieve.Retriever
	)

	BeforeEach(func() {
		ctx = context.Background()
		embedder = &scriptEmbedder{}
		store = &scriptStore{
			embedder: embedder,
			results:  map[string][]vector.ScoredPoint{},
		}

		var err error
		r, err = retrieve.NewRetriever(retrieve.Config{
			Store:      store,
			Embedder:   embedder,
			Collection: "bill_chunks",
			Logger:     zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewRetriever", func() {
		It("rejects missing collaborators", func() {
			_, err := retrieve.NewRetriever(retrieve.Config{Embedder: embedder, Collection: "c"})
			Expect(errors.Is(err, vector.ErrConfig)).To(BeTrue())

			_, err = retrieve.NewRetriever(retrieve.Config{Store: store, Collection: "c"})
			Expect(errors.Is(err, vector.ErrConfig)).To(BeTrue())

			_, err = retrieve.NewRetriever(retrieve.Config{Store: store, Embedder: embedder})
			Expect(errors.Is(err, vector.ErrConfig)).To(BeTrue())
		})

		It("works without a logger", func() {
			quiet, err := retrieve.NewRetriever(retrieve.Config{
				Store:      store,
				Embedder:   embedder,
				Collection: "bill_chunks",
			})
			Expect(err).NotTo(HaveOccurred())

			// A section query exercises the boost logging path.
			store.results["Section 2"] = []vector.ScoredPoint{
				hit("hr1", "SECTION 2. text", 0.9),
			}
			store.results["what does section 2 say?"] = nil

			excerpts, err := quiet.Retrieve(ctx, "hr1", "what does section 2 say?", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(excerpts).To(HaveLen(1))
		})
	})

	Describe("Retrieve", func() {
		It("returns semantic hits in store order", func() {
			store.results["what about funding?"] = []vector.ScoredPoint{
				hit("hr1", "funding text", 0.9),
				hit("hr1", "other text", 0.5),
			}

			excerpts, err := r.Retrieve(ctx, "hr1", "what about funding?", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(excerpts).To(Equal([]retrieve.Excerpt{
				{Text: "funding text", Score: 0.9},
				{Text: "other text", Score: 0.5},
			}))
		})

		It("defaults topK to 3", func() {
			store.results["q"] = []vector.ScoredPoint{
				hit("hr1", "a", 0.9), hit("hr1", "b", 0.8),
				hit("hr1", "c", 0.7), hit("hr1", "d", 0.6),
			}

			excerpts, err := r.Retrieve(ctx, "hr1", "q", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(excerpts).To(HaveLen(3))
		})

		It("reserves the first slot for a referenced section", func() {
			store.results["Section 2"] = []vector.ScoredPoint{
				hit("hr1", "SEC. 2. DEFINITIONS.", 0.4),
			}
			store.results["what does section 2 define?"] = []vector.ScoredPoint{
				hit("hr1", "unrelated but similar", 0.95),
				hit("hr1", "another chunk", 0.6),
			}

			excerpts, err := r.Retrieve(ctx, "hr1", "what does section 2 define?", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(excerpts).To(Equal([]retrieve.Excerpt{
				{Text: "SEC. 2. DEFINITIONS.", Score: 0.4},
				{Text: "unrelated but similar", Score: 0.95},
			}))

			Expect(store.searches).To(HaveLen(2))
			Expect(store.searches[0]).To(Equal(searchCall{Text: "Section 2", DocumentID: "hr1", Limit: 1}))
			Expect(store.searches[1].Limit).To(Equal(uint64(2)))
		})

		It("deduplicates when the boost and the search return the same chunk", func() {
			store.results["Section 5"] = []vector.ScoredPoint{
				hit("hr1", "SEC. 5. ENFORCEMENT.", 0.7),
			}
			store.results["explain section 5"] = []vector.ScoredPoint{
				hit("hr1", "SEC. 5. ENFORCEMENT.", 0.7),
				hit("hr1", "penalty schedule", 0.5),
			}

			excerpts, err := r.Retrieve(ctx, "hr1", "explain section 5", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(excerpts).To(Equal([]retrieve.Excerpt{
				{Text: "SEC. 5. ENFORCEMENT.", Score: 0.7},
				{Text: "penalty schedule", Score: 0.5},
			}))
		})

		It("returns an empty slice for an unknown document", func() {
			excerpts, err := r.Retrieve(ctx, "nope", "anything", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(excerpts).To(BeEmpty())
		})

		It("fails rather than silently returning nothing when embedding fails", func() {
			embedder.failOn = "broken"
			_, err := r.Retrieve(ctx, "hr1", "broken query", 3)
			Expect(errors.Is(err, vector.ErrEmbedding)).To(BeTrue())
		})
	})

	Describe("RetrieveGlobal", func() {
		It("searches unfiltered and carries document ids", func() {
			store.results["climate provisions"] = []vector.ScoredPoint{
				hit("hr1", "emissions text", 0.9),
				hit("s42", "energy text", 0.8),
			}

			excerpts, err := r.RetrieveGlobal(ctx, "climate provisions", 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(excerpts).To(Equal([]retrieve.GlobalExcerpt{
				{DocumentID: "hr1", Text: "emissions text", Score: 0.9},
				{DocumentID: "s42", Text: "energy text", Score: 0.8},
			}))
			Expect(store.searches[0].DocumentID).To(BeEmpty())
		})

		It("never applies the section boost", func() {
			store.results["what is in section 9?"] = nil

			_, err := r.RetrieveGlobal(ctx, "what is in section 9?", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(store.searches).To(HaveLen(1))
			Expect(store.searches[0].Limit).To(Equal(uint64(5)))
		})
	})

	Describe("ListDocuments", func() {
		It("delegates to the store", func() {
			store.docIDs = []string{"hr1", "s42"}
			ids, err := r.ListDocuments(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]string{"hr1", "s42"}))
		})
	})
})

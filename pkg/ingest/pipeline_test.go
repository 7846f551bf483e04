package ingest_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/legisrag/legisrag/pkg/chunk"
	"github.com/legisrag/legisrag/pkg/ingest"
	"github.com/legisrag/legisrag/pkg/vector"
)

var _ = Describe("Pipeline", func() {
	var (
		ctx      context.Context
		store    *fakeStore
		embedder *fakeEmbedder
		logger   *zap.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newFakeStore()
		embedder = &fakeEmbedder{dims: 8}
		logger = zap.NewNop()
	})

	newPipeline := func(c ingest.Config) (*ingest.Pipeline, error) {
		if c.Store == nil {
			c.Store = store
		}
		if c.Embedder == nil {
			c.Embedder = embedder
		}
		if c.Collection == "" {
			c.Collection = "bill_chunks"
		}
		if c.Dimensions == 0 {
			c.Dimensions = 8
		}
		if c.Logger == nil {
			c.Logger = logger
		}
		return ingest.NewPipeline(ctx, c)
	}

	Describe("NewPipeline", func() {
		It("rejects a missing store", func() {
			_, err := ingest.NewPipeline(ctx, ingest.Config{
				Embedder:   embedder,
				Collection: "bill_chunks",
				Dimensions: 8,
				Logger:     logger,
			})
			Expect(errors.Is(err, vector.ErrConfig)).To(BeTrue())
		})

		It("rejects a missing embedder", func() {
			_, err := ingest.NewPipeline(ctx, ingest.Config{
				Store:      store,
				Collection: "bill_chunks",
				Dimensions: 8,
				Logger:     logger,
			})
			Expect(errors.Is(err, vector.ErrConfig)).To(BeTrue())
		})

		It("rejects an empty collection name", func() {
			_, err := ingest.NewPipeline(ctx, ingest.Config{
				Store:      store,
				Embedder:   embedder,
				Dimensions: 8,
				Logger:     logger,
			})
			Expect(errors.Is(err, vector.ErrConfig)).To(BeTrue())
		})

		It("rejects overlap >= size", func() {
			_, err := newPipeline(ingest.Config{ChunkSize: 100, ChunkOverlap: 100})
			Expect(errors.Is(err, vector.ErrConfig)).To(BeTrue())
		})

		It("ensures the collection up front", func() {
			_, err := newPipeline(ingest.Config{})
			Expect(err).NotTo(HaveOccurred())
			Expect(store.ensured).To(HaveKeyWithValue("bill_chunks", uint64(8)))
		})

		It("propagates collection dimension conflicts", func() {
			store.ensureErr = vector.ErrSchemaMismatch
			_, err := newPipeline(ingest.Config{})
			Expect(errors.Is(err, vector.ErrSchemaMismatch)).To(BeTrue())
		})

		It("works without a logger", func() {
			p, err := ingest.NewPipeline(ctx, ingest.Config{
				Store:      store,
				Embedder:   embedder,
				Collection: "bill_chunks",
				Dimensions: 8,
			})
			Expect(err).NotTo(HaveOccurred())

			stats, err := p.Ingest(ctx, "hr1", "a short bill")
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Chunks).To(Equal(1))
		})
	})

	Describe("Ingest", func() {
		It("stores every chunk with deterministic point ids and full payloads", func() {
			p, err := newPipeline(ingest.Config{ChunkSize: 1000, ChunkOverlap: 200})
			Expect(err).NotTo(HaveOccurred())

			text := strings.Repeat("A", 2500)
			stats, err := p.Ingest(ctx, "hr1234", text)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Chunks).To(Equal(3))
			Expect(stats.Characters).To(Equal(2900))

			points := store.stored("bill_chunks")
			Expect(points).To(HaveLen(3))
			for _, pt := range points {
				Expect(pt.Payload.DocumentID).To(Equal("hr1234"))
				Expect(pt.Payload.ChunkID).To(Equal(chunk.ChunkID("hr1234", pt.Payload.ChunkIndex)))
				Expect(pt.ID).To(Equal(chunk.PointID("hr1234", pt.Payload.ChunkIndex)))
				Expect(pt.Payload.Text).NotTo(BeEmpty())
			}
		})

		It("deletes existing chunks before upserting new ones", func() {
			p, err := newPipeline(ingest.Config{})
			Expect(err).NotTo(HaveOccurred())

			_, err = p.Ingest(ctx, "hr1", "a short document")
			Expect(err).NotTo(HaveOccurred())

			ops := store.opLog()
			Expect(ops).To(Equal([]string{
				"ensure:bill_chunks",
				"delete:bill_chunks:hr1",
				"upsert:bill_chunks:1",
			}))
		})

		It("is idempotent for identical input", func() {
			p, err := newPipeline(ingest.Config{ChunkSize: 50, ChunkOverlap: 10})
			Expect(err).NotTo(HaveOccurred())

			text := strings.Repeat("legislative text ", 20)
			_, err = p.Ingest(ctx, "hr2", text)
			Expect(err).NotTo(HaveOccurred())
			first := store.stored("bill_chunks")

			_, err = p.Ingest(ctx, "hr2", text)
			Expect(err).NotTo(HaveOccurred())
			second := store.stored("bill_chunks")

			Expect(second).To(HaveLen(len(first)))
			Expect(second).To(ConsistOf(first))
		})

		It("leaves stored chunks untouched when embedding fails", func() {
			p, err := newPipeline(ingest.Config{})
			Expect(err).NotTo(HaveOccurred())

			_, err = p.Ingest(ctx, "hr3", "the original text")
			Expect(err).NotTo(HaveOccurred())
			before := store.stored("bill_chunks")

			embedder.failOn = "poison"
			_, err = p.Ingest(ctx, "hr3", "the poison revision")
			Expect(errors.Is(err, vector.ErrEmbedding)).To(BeTrue())

			Expect(store.stored("bill_chunks")).To(ConsistOf(before))

			deletes := 0
			for _, op := range store.opLog() {
				if op == "delete:bill_chunks:hr3" {
					deletes++
				}
			}
			Expect(deletes).To(Equal(1), "failed ingest must not reach the delete")
		})

		It("clears old chunks when the new text is empty", func() {
			p, err := newPipeline(ingest.Config{})
			Expect(err).NotTo(HaveOccurred())

			_, err = p.Ingest(ctx, "hr4", "content that will be withdrawn")
			Expect(err).NotTo(HaveOccurred())
			Expect(store.stored("bill_chunks")).NotTo(BeEmpty())

			stats, err := p.Ingest(ctx, "hr4", "   \n\n  ")
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(Equal(ingest.Stats{}))
			Expect(store.stored("bill_chunks")).To(BeEmpty())
		})

		It("reports delete failures", func() {
			p, err := newPipeline(ingest.Config{})
			Expect(err).NotTo(HaveOccurred())

			store.deleteErr = vector.ErrUnavailable
			_, err = p.Ingest(ctx, "hr5", "some text")
			Expect(errors.Is(err, vector.ErrUnavailable)).To(BeTrue())
		})
	})
})

package chunk_test

import (
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/legisrag/legisrag/pkg/chunk"
)

var _ = Describe("chunk identity", func() {
	It("formats the chunk id from document id and index", func() {
		Expect(chunk.ChunkID("hr-3334-118", 0)).To(Equal("hr-3334-118_chunk_0"))
		Expect(chunk.ChunkID("eo-14067", 12)).To(Equal("eo-14067_chunk_12"))
	})

	It("derives the same point id for the same inputs", func() {
		a := chunk.PointID("hr-3334-118", 3)
		b := chunk.PointID("hr-3334-118", 3)
		Expect(a).To(Equal(b))
	})

	It("derives distinct point ids for distinct positions", func() {
		ids := map[uuid.UUID]bool{
			chunk.PointID("hr-3334-118", 0): true,
			chunk.PointID("hr-3334-118", 1): true,
			chunk.PointID("eo-14067", 0):    true,
			chunk.PointID("eo-14067", 1):    true,
		}
		Expect(ids).To(HaveLen(4))
	})

	It("produces name-based (version 5) UUIDs", func() {
		id := chunk.PointID("hr-3334-118", 0)
		Expect(id.Version()).To(Equal(uuid.Version(5)))
	})

	It("exposes identity on the Chunk type", func() {
		c := chunk.Chunk{DocumentID: "hr-3334-118", Index: 2, Text: "some text"}
		Expect(c.ID()).To(Equal("hr-3334-118_chunk_2"))
		Expect(c.PointID()).To(Equal(chunk.PointID("hr-3334-118", 2)))
	})
})

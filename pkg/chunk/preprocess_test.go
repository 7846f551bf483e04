package chunk_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/legisrag/legisrag/pkg/chunk"
)

var _ = Describe("Preprocessor", func() {
	var pre chunk.Preprocessor

	BeforeEach(func() {
		pre = chunk.Preprocessor{}
	})

	It("replaces form feeds with spaces", func() {
		Expect(pre.Preprocess("page one\fpage two")).To(Equal("page one page two"))
	})

	It("collapses runs of blank lines into one paragraph separator", func() {
		Expect(pre.Preprocess("a\n\n\n\nb")).To(Equal("a\n\nb"))
		Expect(pre.Preprocess("a\n \n \nb")).To(Equal("a\n\nb"))
	})

	It("trims surrounding whitespace", func() {
		Expect(pre.Preprocess("  \n text \n ")).To(Equal("text"))
	})

	It("leaves section headers alone by default", func() {
		text := "preceding text SEC. 2. DEFINITIONS."
		Expect(pre.Preprocess(text)).To(Equal(text))
	})

	It("is idempotent", func() {
		raw := "Title\f\n\n\n\nSEC. 1. SHORT TITLE. \n\n \n\nBody text here."
		once := pre.Preprocess(raw)
		Expect(pre.Preprocess(once)).To(Equal(once))
	})

	Context("with section header normalization", func() {
		BeforeEach(func() {
			pre = chunk.Preprocessor{NormalizeSectionHeaders: true}
		})

		It("puts glued section headers on their own line", func() {
			out := pre.Preprocess("preceding text. SEC. 12. ENFORCEMENT.")
			Expect(out).To(ContainSubstring("\nSEC. 12. ENFORCEMENT."))
		})

		It("does not touch headers already at line start", func() {
			text := "intro\nSEC. 3. FUNDING."
			Expect(pre.Preprocess(text)).To(Equal(text))
		})

		It("remains idempotent", func() {
			raw := "intro text SEC. 4. REPORTS.\n\n\n\nmore\fbody"
			once := pre.Preprocess(raw)
			Expect(pre.Preprocess(once)).To(Equal(once))
		})
	})
})

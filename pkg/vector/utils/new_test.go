package vectorutils_test

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/legisrag/legisrag/pkg/vector"
	vectorutils "github.com/legisrag/legisrag/pkg/vector/utils"
)

var _ = Describe("NewDriver", func() {
	It("constructs a sqlite driver", func() {
		driver, err := vectorutils.NewDriver(&vectorutils.NewDriverOpts{
			ProviderType: "sqlite",
			SQLitePath:   filepath.Join(GinkgoT().TempDir(), "vectors.db"),
			Logger:       zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(driver).NotTo(BeNil())
		Expect(driver.Close()).To(Succeed())
	})

	It("constructs a qdrant driver from a host:port target", func() {
		driver, err := vectorutils.NewDriver(&vectorutils.NewDriverOpts{
			ProviderType: "qdrant",
			TargetURL:    "localhost:6334",
			Logger:       zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(driver).NotTo(BeNil())
		Expect(driver.Close()).To(Succeed())
	})

	It("constructs a qdrant driver from an https URL target", func() {
		driver, err := vectorutils.NewDriver(&vectorutils.NewDriverOpts{
			ProviderType: "qdrant",
			TargetURL:    "https://cluster.qdrant.example:6334",
			APIKey:       "qk-test",
			Logger:       zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(driver).NotTo(BeNil())
		Expect(driver.Close()).To(Succeed())
	})

	It("rejects an empty qdrant target", func() {
		_, err := vectorutils.NewDriver(&vectorutils.NewDriverOpts{
			ProviderType: "qdrant",
			Logger:       zap.NewNop(),
		})
		Expect(err).To(MatchError(vector.ErrConfig))
	})

	It("rejects a qdrant target with a malformed port", func() {
		_, err := vectorutils.NewDriver(&vectorutils.NewDriverOpts{
			ProviderType: "qdrant",
			TargetURL:    "localhost:http",
			Logger:       zap.NewNop(),
		})
		Expect(err).To(MatchError(vector.ErrConfig))
	})

	It("rejects an unsupported provider", func() {
		_, err := vectorutils.NewDriver(&vectorutils.NewDriverOpts{
			ProviderType: "chroma",
			Logger:       zap.NewNop(),
		})
		Expect(err).To(MatchError(ContainSubstring("unsupported vector store provider")))
	})
})

package querycmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	querycmder "github.com/legisrag/legisrag/cmd/legisrag/query"
)

var _ = Describe("NewQueryCmd", func() {
	It("creates a command with expected properties", func() {
		cmd := querycmder.NewQueryCmd()
		Expect(cmd.Use).To(Equal("query <document-id> <question>"))
		Expect(cmd.Short).NotTo(BeEmpty())
	})

	It("registers the top and full flags", func() {
		cmd := querycmder.NewQueryCmd()
		Expect(cmd.Flags().Lookup("top")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("full")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("top").DefValue).To(Equal("3"))
	})

	It("requires exactly two arguments", func() {
		cmd := querycmder.NewQueryCmd()
		cmd.SetArgs([]string{"hr1234"})
		Expect(cmd.Execute()).To(HaveOccurred())
	})
})

package legisragcmder_test

import (
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	legisragcmder "github.com/legisrag/legisrag/cmd/legisrag"
)

var _ = Describe("NewLegisragCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := legisragcmder.NewLegisragCmd()
		Expect(cmd.Use).To(Equal("legisrag"))
	})

	It("registers every subcommand", func() {
		cmd := legisragcmder.NewLegisragCmd()
		names := make([]string, 0)
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements(
			"ingest", "query", "search", "list", "serve", "config", "version",
		))
	})

	It("parses every subcommand's flags alongside the inherited globals", func() {
		// Flag shorthand collisions between a subcommand and the root's
		// persistent flags only surface when cobra merges the flag sets
		// during execution, so each subcommand is driven through the root.
		for _, name := range []string{
			"ingest", "query", "search", "list", "serve", "config",
		} {
			cmd := legisragcmder.NewLegisragCmd()
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)
			cmd.SetArgs([]string{name, "--help"})
			Expect(cmd.Execute()).To(Succeed(), "subcommand %s", name)
		}
	})

	It("has the global debug and config-dir flags", func() {
		cmd := legisragcmder.NewLegisragCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})
})

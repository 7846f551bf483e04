// Package legisragcmder
package legisragcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/legisrag/legisrag/cmd/legisrag/config"
	ingestcmder "github.com/legisrag/legisrag/cmd/legisrag/ingest"
	listcmder "github.com/legisrag/legisrag/cmd/legisrag/list"
	querycmder "github.com/legisrag/legisrag/cmd/legisrag/query"
	searchcmder "github.com/legisrag/legisrag/cmd/legisrag/search"
	servecmder "github.com/legisrag/legisrag/cmd/legisrag/serve"
	versioncmder "github.com/legisrag/legisrag/cmd/version"
)

const legisragLongDesc string = `Legisrag indexes legislative text for semantic retrieval.

Feed it bills and executive orders as plain text; ask it questions:
  legisrag ingest data/bills     Index a directory of documents
  legisrag query hr1234 "..."    Ask a question about one document
  legisrag search "..."          Search across all documents
  legisrag serve                 Run the HTTP API`

const legisragShortDesc string = "Legisrag - Legislative Text Retrieval"

func NewLegisragCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "legisrag",
		Short: legisragShortDesc,
		Long:  legisragLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory holding config.toml (default: ./.legisrag or ~/.legisrag)")

	// Add subcommands
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(querycmder.NewQueryCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(listcmder.NewListCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}

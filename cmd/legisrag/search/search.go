// Package searchcmder provides the search command for cross-document search.
package searchcmder

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/legisrag/legisrag/cmd/legisrag/stack"
	"github.com/legisrag/legisrag/pkg/config"
	"github.com/legisrag/legisrag/pkg/logger"
	"github.com/legisrag/legisrag/pkg/retrieve"
	"github.com/legisrag/legisrag/pkg/utils"
)

var (
	rankStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	docStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
)

type searchCommander struct {
	query string
	topK  int
	quiet bool

	collection string
	sqlitePath string
	vectorProv string
	vectorTgt  string
	vectorKey  string
	embedProv  string
	embedTgt   string
	embedKey   string
	embedModel string
	embedDims  uint

	v      *viper.Viper
	debug  bool
	logger *zap.Logger
}

const searchLongDesc string = `Search across every indexed document.

Returns the most relevant excerpts in the collection regardless of which
document they come from.

Use --quiet to output only document ids, one per line. This is useful for
piping into other commands like legisrag query.

Example:
  legisrag search "greenhouse gas emissions"
  legisrag search "appropriations" --top 10
  legisrag query $(legisrag search "emissions" --quiet --top 1) "which agency enforces this?"`

const searchShortDesc string = "Search across all documents"

var searchFlagKeys = []string{
	config.FlagCollection,
	config.FlagSQLite,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagVectorStoreKey,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingKey,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
}

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			var err error
			cmder.v, err = config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(cmder.v, cmd, fs, searchFlagKeys)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, fs, config.FlagCollection, &cmder.collection)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreProv, &cmder.vectorProv)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreTgt, &cmder.vectorTgt)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreKey, &cmder.vectorKey)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingProv, &cmder.embedProv)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingTgt, &cmder.embedTgt)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingKey, &cmder.embedKey)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, fs, config.FlagEmbeddingDims, &cmder.embedDims)
	cmd.Flags().IntVarP(&cmder.topK, "top", "k", retrieve.DefaultGlobalTopK, "Number of results to return")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only document ids, one per line (for piping)")

	return cmd
}

func (c *searchCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	stk, err := stack.New(c.v, c.logger)
	if err != nil {
		return err
	}
	defer stk.Close()

	retriever, err := stk.NewRetriever(c.logger)
	if err != nil {
		return err
	}

	results, err := retriever.RetrieveGlobal(context.Background(), c.query, c.topK)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		if !c.quiet {
			fmt.Println("No results found.")
		}
		return nil
	}

	if c.quiet {
		seen := map[string]bool{}
		for _, r := range results {
			if !seen[r.DocumentID] {
				seen[r.DocumentID] = true
				fmt.Println(r.DocumentID)
			}
		}
		return nil
	}

	fmt.Printf("\n%s %s\n\n",
		headerStyle.Render("Search Results for:"),
		docStyle.Render(fmt.Sprintf("%q", c.query)),
	)

	for i, r := range results {
		preview := utils.Truncate(strings.ReplaceAll(r.Text, "\n", " "), 157)

		fmt.Printf("  %s  %s  %s\n  %s\n\n",
			rankStyle.Render(fmt.Sprintf("#%d", i+1)),
			scoreStyle.Render(fmt.Sprintf("score: %.4f", r.Score)),
			docStyle.Render(r.DocumentID),
			textStyle.Render(preview),
		)
	}

	return nil
}

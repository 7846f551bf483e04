// Package querycmder provides the query command for questioning one document.
package querycmder

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
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type queryCommander struct {
	documentID string
	question   string
	topK       int
	full       bool

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

const queryLongDesc string = `Ask a question about one indexed document.

Returns the most relevant excerpts from the document. Questions that name a
section ("what does section 3 require?") pin that section's best-matching
excerpt to the top of the results.

Example:
  legisrag query hr1234 "what does section 3 require?"
  legisrag query eo14067 "reporting deadlines" --top 5 --collection executive_order_chunks`

const queryShortDesc string = "Ask a question about one document"

var queryFlagKeys = []string{
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

func NewQueryCmd() *cobra.Command {
	cmder := &queryCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "query <document-id> <question>",
		Short: queryShortDesc,
		Long:  queryLongDesc,
		Args:  cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			var err error
			cmder.v, err = config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(cmder.v, cmd, fs, queryFlagKeys)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.documentID = args[0]
			cmder.question = args[1]

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
	cmd.Flags().IntVarP(&cmder.topK, "top", "k", retrieve.DefaultTopK, "Number of excerpts to return")
	cmd.Flags().BoolVar(&cmder.full, "full", false, "Print full excerpt text instead of a preview")

	return cmd
}

func (c *queryCommander) run() error {
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

	excerpts, err := retriever.Retrieve(context.Background(), c.documentID, c.question, c.topK)
	if err != nil {
		return err
	}

	if len(excerpts) == 0 {
		fmt.Println("No excerpts found.")
		return nil
	}

	fmt.Printf("\n%s %s %s\n\n",
		headerStyle.Render("Excerpts from"),
		docStyle.Render(c.documentID),
		dimStyle.Render(fmt.Sprintf("for %q", c.question)),
	)

	for i, e := range excerpts {
		printExcerpt(i+1, e.Score, e.Text, c.full)
	}

	return nil
}

func printExcerpt(rank int, score float32, text string, full bool) {
	fmt.Printf("  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		scoreStyle.Render(fmt.Sprintf("score: %.4f", score)),
	)

	if !full {
		text = utils.Truncate(strings.ReplaceAll(text, "\n", " "), 197)
	}

	fmt.Printf("  %s\n\n", textStyle.Render(text))
}

// Package listcmder provides the list command for enumerating indexed documents.
package listcmder

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/legisrag/legisrag/cmd/legisrag/stack"
	"github.com/legisrag/legisrag/pkg/config"
	"github.com/legisrag/legisrag/pkg/logger"
)

var (
	docStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
)

type listCommander struct {
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
	quiet      bool

	v      *viper.Viper
	debug  bool
	logger *zap.Logger
}

const listLongDesc string = `List the ids of every indexed document in the collection.

Example:
  legisrag list
  legisrag list --collection executive_order_chunks`

const listShortDesc string = "List indexed documents"

var listFlagKeys = []string{
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

func NewListCmd() *cobra.Command {
	cmder := &listCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			var err error
			cmder.v, err = config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(cmder.v, cmd, fs, listFlagKeys)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
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
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only document ids, one per line")

	return cmd
}

func (c *listCommander) run() error {
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

	ids, err := retriever.ListDocuments(context.Background())
	if err != nil {
		return err
	}

	if c.quiet {
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}

	if len(ids) == 0 {
		fmt.Println("No documents indexed.")
		return nil
	}

	fmt.Printf("\n%s\n\n", headerStyle.Render(fmt.Sprintf("%d documents in %s", len(ids), stk.Collection)))
	for _, id := range ids {
		fmt.Printf("  %s\n", docStyle.Render(id))
	}
	fmt.Println()

	return nil
}

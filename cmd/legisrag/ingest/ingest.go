// Package ingestcmder provides the ingest command for indexing documents.
package ingestcmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/legisrag/legisrag/cmd/legisrag/stack"
	"github.com/legisrag/legisrag/pkg/config"
	"github.com/legisrag/legisrag/pkg/corpus"
	"github.com/legisrag/legisrag/pkg/ingest"
	"github.com/legisrag/legisrag/pkg/logger"
)

var (
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type ingestCommander struct {
	path  string
	watch bool

	collection   string
	chunkSize    uint
	chunkOverlap uint
	sqlitePath   string
	vectorProv   string
	vectorTgt    string
	vectorKey    string
	embedProv    string
	embedTgt     string
	embedKey     string
	embedModel   string
	embedDims    uint

	v      *viper.Viper
	debug  bool
	logger *zap.Logger
}

const ingestLongDesc string = `Index plain-text documents into the vector store.

The path may be a single .txt file or a directory of .txt files. The filename
stem becomes the document id: data/bills/hr1234.txt is indexed as "hr1234".
Re-ingesting a document replaces its previous chunks.

With --watch the command keeps running after the initial pass and re-indexes
documents as files are created, modified, or removed.

Example:
  legisrag ingest data/bills
  legisrag ingest data/orders/eo14067.txt --collection executive_order_chunks
  legisrag ingest data/bills --watch`

const ingestShortDesc string = "Index documents into the vector store"

var ingestFlagKeys = []string{
	config.FlagCollection,
	config.FlagChunkSize,
	config.FlagChunkOverlap,
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

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "ingest [path]",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			var err error
			cmder.v, err = config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(cmder.v, cmd, fs, ingestFlagKeys)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cmder.path = args[0]
			} else {
				cmder.path = cmder.v.GetString("corpus.dir")
			}

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, fs, config.FlagCollection, &cmder.collection)
	config.AddUintFlag(cmd, fs, config.FlagChunkSize, &cmder.chunkSize)
	config.AddUintFlag(cmd, fs, config.FlagChunkOverlap, &cmder.chunkOverlap)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreProv, &cmder.vectorProv)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreTgt, &cmder.vectorTgt)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreKey, &cmder.vectorKey)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingProv, &cmder.embedProv)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingTgt, &cmder.embedTgt)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingKey, &cmder.embedKey)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, fs, config.FlagEmbeddingDims, &cmder.embedDims)
	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Keep running and re-index on file changes")

	return cmd
}

func (c *ingestCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	ctx := context.Background()

	stk, err := stack.New(c.v, c.logger)
	if err != nil {
		return err
	}
	defer stk.Close()

	pipeline, err := ingest.NewPipeline(ctx, ingest.Config{
		Store:                   stk.Store,
		Embedder:                stk.Embedder,
		Collection:              stk.Collection,
		Dimensions:              stk.Dimensions,
		ChunkSize:               int(c.v.GetUint("chunker.size")),
		ChunkOverlap:            int(c.v.GetUint("chunker.overlap")),
		NormalizeSectionHeaders: c.v.GetBool("corpus.normalize_section_headers"),
		Logger:                  c.logger,
	})
	if err != nil {
		return err
	}

	info, err := os.Stat(c.path)
	if err != nil {
		return fmt.Errorf("reading path %q: %w", c.path, err)
	}

	// Single file: ingest synchronously and report.
	if !info.IsDir() {
		data, err := os.ReadFile(c.path)
		if err != nil {
			return fmt.Errorf("reading document %q: %w", c.path, err)
		}

		id := corpus.DocumentID(c.path)
		stats, err := pipeline.Ingest(ctx, id, string(data))
		if err != nil {
			return err
		}

		fmt.Printf("%s %s %s %s\n",
			labelStyle.Render("indexed"),
			countStyle.Render(id),
			countStyle.Render(fmt.Sprintf("%d chunks", stats.Chunks)),
			labelStyle.Render(fmt.Sprintf("(%d characters)", stats.Characters)),
		)
		return nil
	}

	pool, err := ingest.NewPool(&ingest.PoolConfig{
		Pipeline: pipeline,
		Logger:   c.logger,
	})
	if err != nil {
		return err
	}

	loader, err := corpus.NewLoader(c.path)
	if err != nil {
		return err
	}

	docs, err := loader.LoadAll()
	if err != nil {
		return err
	}

	for id, text := range docs {
		pool.Enqueue(ingest.Job{DocumentID: id, Text: text})
	}

	if !c.watch {
		pool.Close()
		c.printTotals(pool.Totals())
		return nil
	}

	watcher, err := corpus.NewWatcher(corpus.WatcherConfig{
		Dir:        c.path,
		Pool:       pool,
		Store:      stk.Store,
		Collection: stk.Collection,
		Logger:     c.logger,
	})
	if err != nil {
		pool.Close()
		return err
	}

	fmt.Printf("%s %s\n", labelStyle.Render("watching"), countStyle.Render(c.path))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))

	if err := watcher.Close(); err != nil {
		c.logger.Warn("closing watcher", zap.Error(err))
	}
	pool.Close()
	c.printTotals(pool.Totals())

	return nil
}

func (c *ingestCommander) printTotals(t ingest.Totals) {
	fmt.Printf("%s %s %s %s\n",
		labelStyle.Render("indexed"),
		countStyle.Render(fmt.Sprintf("%d documents", t.Documents)),
		countStyle.Render(fmt.Sprintf("%d chunks", t.Chunks)),
		labelStyle.Render(fmt.Sprintf("(%d failures)", t.Failures)),
	)
}

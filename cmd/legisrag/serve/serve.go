// Package servecmder provides the serve command for running the HTTP API.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/legisrag/legisrag/api"
	"github.com/legisrag/legisrag/cmd/legisrag/stack"
	"github.com/legisrag/legisrag/pkg/config"
	"github.com/legisrag/legisrag/pkg/corpus"
	"github.com/legisrag/legisrag/pkg/ingest"
	"github.com/legisrag/legisrag/pkg/logger"
)

type ServeCommander struct {
	listen string
	watch  bool

	collection   string
	chunkSize    uint
	chunkOverlap uint
	corpusDir    string
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

const serveLongDesc string = `Run the legisrag HTTP API.

Serves retrieval endpoints over the configured collection:
  GET  /ping                        Health check
  GET  /v1/documents                List indexed document ids
  GET  /v1/documents/:id/query      Ask a question about one document
  GET  /v1/search                   Search across all documents
  POST /v1/documents/:id            Ingest raw document text

With --watch the corpus directory is also watched and kept in sync with the
index while the server runs.`

const serveShortDesc string = "Run the HTTP API server"

var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagCollection,
	config.FlagChunkSize,
	config.FlagChunkOverlap,
	config.FlagCorpusDir,
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

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			var err error
			cmder.v, err = config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(cmder.v, cmd, fs, serveFlagKeys)
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

	config.AddStringFlag(cmd, fs, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, fs, config.FlagCollection, &cmder.collection)
	config.AddUintFlag(cmd, fs, config.FlagChunkSize, &cmder.chunkSize)
	config.AddUintFlag(cmd, fs, config.FlagChunkOverlap, &cmder.chunkOverlap)
	config.AddStringFlag(cmd, fs, config.FlagCorpusDir, &cmder.corpusDir)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreProv, &cmder.vectorProv)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreTgt, &cmder.vectorTgt)
	config.AddStringFlag(cmd, fs, config.FlagVectorStoreKey, &cmder.vectorKey)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingProv, &cmder.embedProv)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingTgt, &cmder.embedTgt)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingKey, &cmder.embedKey)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, fs, config.FlagEmbeddingDims, &cmder.embedDims)
	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Watch the corpus directory while serving")

	return cmd
}

func (c *ServeCommander) run() error {
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

	pool, err := ingest.NewPool(&ingest.PoolConfig{
		Pipeline: pipeline,
		Logger:   c.logger,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	retriever, err := stk.NewRetriever(c.logger)
	if err != nil {
		return err
	}

	if c.watch {
		watcher, err := corpus.NewWatcher(corpus.WatcherConfig{
			Dir:        c.v.GetString("corpus.dir"),
			Pool:       pool,
			Store:      stk.Store,
			Collection: stk.Collection,
			Logger:     c.logger,
		})
		if err != nil {
			return err
		}
		defer watcher.Close()

		c.logger.Info("watching corpus directory",
			zap.String("dir", c.v.GetString("corpus.dir")),
		)
	}

	apiServer := api.NewServer(api.Config{
		ListenAddr: c.v.GetString("api.listen"),
	}, retriever, pool, c.logger)

	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return apiServer.Shutdown()
	}
}

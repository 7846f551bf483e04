// Package api provides the HTTP server for querying and feeding the index.
package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/legisrag/legisrag/pkg/ingest"
	"github.com/legisrag/legisrag/pkg/retrieve"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string
}

// Server is the API server for querying and managing the legisrag index
type Server struct {
	config    Config
	retriever *retrieve.Retriever
	pool      *ingest.Pool
	logger    *zap.Logger
	app       *fiber.App
}

// NewServer creates a new API server.
// The retriever and pool are injected to allow sharing with other components
// (e.g., the corpus watcher started by the same serve command).
func NewServer(config Config, retriever *retrieve.Retriever, pool *ingest.Pool, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		retriever: retriever,
		pool:      pool,
		logger:    logger,
		app:       app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/documents", s.handleListDocuments)
	app.Get("/v1/documents/:id/query", s.handleQueryDocument)
	app.Get("/v1/search", s.handleSearch)
	app.Post("/v1/documents/:id", s.handleIngestDocument)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/legisrag/legisrag/pkg/ingest"
)

// ErrorResponse is the JSON body for every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ExcerptResult is one retrieved excerpt in a per-document query response.
type ExcerptResult struct {
	Text  string  `json:"text"`
	Score float32 `json:"score"`
}

// QueryResponse is the body for GET /v1/documents/:id/query.
type QueryResponse struct {
	DocumentID string          `json:"document_id"`
	Query      string          `json:"query"`
	Excerpts   []ExcerptResult `json:"excerpts"`
}

// SearchResult is one retrieved excerpt in a cross-document search response.
type SearchResult struct {
	DocumentID string  `json:"document_id"`
	Text       string  `json:"text"`
	Score      float32 `json:"score"`
}

// SearchResponse is the body for GET /v1/search.
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// DocumentsResponse is the body for GET /v1/documents.
type DocumentsResponse struct {
	Documents []string `json:"documents"`
}

// IngestResponse is the body for POST /v1/documents/:id.
type IngestResponse struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleListDocuments returns the distinct document ids in the collection.
func (s *Server) handleListDocuments(c *fiber.Ctx) error {
	ids, err := s.retriever.ListDocuments(c.Context())
	if err != nil {
		s.logger.Error("listing documents", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "failed to list documents",
		})
	}

	if ids == nil {
		ids = []string{}
	}

	return c.JSON(DocumentsResponse{Documents: ids})
}

// handleQueryDocument handles GET /v1/documents/:id/query requests.
// Query parameters:
//   - query (required): the question text
//   - top_k (optional, default 3): number of excerpts to return
func (s *Server) handleQueryDocument(c *fiber.Ctx) error {
	documentID := c.Params("id")

	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "query parameter is required",
		})
	}

	topK, err := parseTopK(c.Query("top_k"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}

	excerpts, err := s.retriever.Retrieve(c.Context(), documentID, query, topK)
	if err != nil {
		s.logger.Error("querying document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}

	resp := QueryResponse{
		DocumentID: documentID,
		Query:      query,
		Excerpts:   make([]ExcerptResult, 0, len(excerpts)),
	}
	for _, e := range excerpts {
		resp.Excerpts = append(resp.Excerpts, ExcerptResult{Text: e.Text, Score: e.Score})
	}

	return c.JSON(resp)
}

// handleSearch handles GET /v1/search requests across all documents.
// Query parameters:
//   - query (required): the search query text
//   - top_k (optional, default 5): number of results to return
func (s *Server) handleSearch(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "query parameter is required",
		})
	}

	topK, err := parseTopK(c.Query("top_k"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}

	results, err := s.retriever.RetrieveGlobal(c.Context(), query, topK)
	if err != nil {
		s.logger.Error("searching collection", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: err.Error(),
		})
	}

	resp := SearchResponse{
		Query:   query,
		Results: make([]SearchResult, 0, len(results)),
	}
	for _, r := range results {
		resp.Results = append(resp.Results, SearchResult{
			DocumentID: r.DocumentID,
			Text:       r.Text,
			Score:      r.Score,
		})
	}

	return c.JSON(resp)
}

// handleIngestDocument handles POST /v1/documents/:id with the raw document
// text as the request body. Ingestion runs asynchronously on the worker pool.
func (s *Server) handleIngestDocument(c *fiber.Ctx) error {
	documentID := c.Params("id")

	body := c.Body()
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "request body is required",
		})
	}

	if !s.pool.Enqueue(ingest.Job{DocumentID: documentID, Text: string(body)}) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "ingestion queue is full",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(IngestResponse{
		DocumentID: documentID,
		Status:     "queued",
	})
}

// parseTopK parses the optional top_k query parameter. Zero means
// "use the retriever's default".
func parseTopK(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, errors.New("top_k must be a positive integer")
	}

	return parsed, nil
}

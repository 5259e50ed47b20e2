// Package knowledge retrieves tenant-private document chunks by vector
// similarity. Retrieval is always scoped by tenant ID: the identifier is a
// mandatory parameter on every query, which makes cross-tenant leakage
// structurally impossible.
package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/opspilot/opspilot/internal/log"
)

// Embedder converts text to a fixed-length vector. Defined here, by the
// consumer, so tests can substitute a fake; the production implementation
// wraps the Genkit embedder.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Querier is the database operation the store depends on. The production
// implementation runs a pgvector nearest-neighbor query; tests use a mock.
type Querier interface {
	// NearestChunks returns up to limit chunks for the tenant, ordered by
	// ascending distance to the query embedding.
	NearestChunks(ctx context.Context, tenantID string, embedding pgvector.Vector, limit int32) ([]ChunkRow, error)
}

// searchTimeout bounds the embedding call plus the vector query so a slow
// store cannot stall the whole request.
const searchTimeout = 10 * time.Second

// Store retrieves document chunks with vector search.
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	querier  Querier
	embedder Embedder
	logger   log.Logger
}

// New creates a Store. logger may be nil.
func New(querier Querier, embedder Embedder, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{querier: querier, embedder: embedder, logger: logger}
}

// Retrieve embeds the query and returns the topK most similar chunks for the
// tenant. The raw query is expanded with a fixed synonym clause before
// embedding; the store over-fetches 2×topK because the similarity floor is
// expected to discard a fraction of the raw neighbors.
func (s *Store) Retrieve(ctx context.Context, query, tenantID string, topK int) ([]Chunk, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant ID is required")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	embedding, err := s.embedder.Embed(queryCtx, query+queryExpansion)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned for query")
	}

	rows, err := s.querier.NearestChunks(queryCtx, tenantID, pgvector.NewVector(embedding), int32(2*topK))
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	chunks := make([]Chunk, 0, topK)
	for _, row := range rows {
		similarity := 1 - row.Distance
		if similarity <= SimilarityFloor {
			continue
		}
		chunks = append(chunks, rowToChunk(row, similarity, s.logger))
		if len(chunks) == topK {
			break
		}
	}

	s.logger.Debug("retrieved chunks",
		"tenant_id", tenantID,
		"fetched", len(rows),
		"kept", len(chunks))
	return chunks, nil
}

func rowToChunk(row ChunkRow, similarity float64, logger log.Logger) Chunk {
	var metadata map[string]string
	if len(row.Metadata) > 0 {
		if err := json.Unmarshal(row.Metadata, &metadata); err != nil {
			logger.Warn("failed to parse chunk metadata", "chunk_id", row.ID, "error", err)
			metadata = nil
		}
	}

	return Chunk{
		ID:         row.ID,
		Source:     row.Source,
		ChunkIndex: row.ChunkIndex,
		Content:    row.Content,
		Metadata:   metadata,
		Similarity: similarity,
	}
}

package knowledge

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresQuerier implements Querier against the document_chunks table using
// pgvector cosine distance. The tenant predicate is part of the query itself,
// not an optional filter.
type PostgresQuerier struct {
	pool *pgxpool.Pool
}

// NewPostgresQuerier creates a querier backed by the given pool.
func NewPostgresQuerier(pool *pgxpool.Pool) *PostgresQuerier {
	return &PostgresQuerier{pool: pool}
}

const nearestChunksSQL = `
SELECT id, source, chunk_index, content, metadata,
       embedding <=> $2 AS distance
FROM document_chunks
WHERE tenant_id = $1
ORDER BY embedding <=> $2
LIMIT $3`

// NearestChunks returns the limit nearest chunks for the tenant by cosine
// distance, ascending.
func (q *PostgresQuerier) NearestChunks(ctx context.Context, tenantID string, embedding pgvector.Vector, limit int32) ([]ChunkRow, error) {
	rows, err := q.pool.Query(ctx, nearestChunksSQL, tenantID, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("querying nearest chunks: %w", err)
	}
	defer rows.Close()

	var result []ChunkRow
	for rows.Next() {
		var row ChunkRow
		if err := rows.Scan(&row.ID, &row.Source, &row.ChunkIndex, &row.Content, &row.Metadata, &row.Distance); err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunk rows: %w", err)
	}

	return result, nil
}

package model

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"google.golang.org/genai"

	"github.com/opspilot/opspilot/internal/knowledge"
)

// Embedder adapts a Genkit embedder to the knowledge.Embedder interface,
// truncating output to the pgvector schema width.
type Embedder struct {
	embedder ai.Embedder
}

// NewEmbedder creates an Embedder.
func NewEmbedder(embedder ai.Embedder) (*Embedder, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	return &Embedder{embedder: embedder}, nil
}

// Embed converts text to a fixed-length vector. gemini-embedding-001 outputs
// 3072 dimensions by default; OutputDimensionality truncates to the 768 the
// document_chunks schema stores.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	dim := int32(knowledge.VectorDimension)
	resp, err := e.embedder.Embed(ctx, &ai.EmbedRequest{
		Input:   []*ai.Document{ai.DocumentFromText(text, nil)},
		Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return resp.Embeddings[0].Embedding, nil
}

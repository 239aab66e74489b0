// internal/embedder/embedder.go
package embedder

import (
	"context"

	"github.com/MereWhiplash/specrag/internal/types"
)

// Embedder generates vector embeddings for text
type Embedder interface {
	// Embed embeds a single text
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch embeds texts in one round trip, positionally aligned with the input
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedChunk embeds the canonical text of a chunk
func EmbedChunk(ctx context.Context, e Embedder, chunk types.EndpointChunk) ([]float32, error) {
	return e.Embed(ctx, chunk.EmbeddingText())
}

// EmbedChunks embeds the canonical text of every chunk in one batch
func EmbedChunks(ctx context.Context, e Embedder, chunks []types.EndpointChunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.EmbeddingText()
	}
	return e.EmbedBatch(ctx, texts)
}

// internal/embedder/ollama.go
package embedder

import (
	"context"

	"github.com/MereWhiplash/specrag/internal/apperr"
	"github.com/MereWhiplash/specrag/internal/ollama"
)

// Ollama implements Embedder using the Ollama embed API
type Ollama struct {
	client *ollama.Client
	model  string
}

// NewOllama creates a new Ollama embedder
func NewOllama(client *ollama.Client, model string) *Ollama {
	return &Ollama{
		client: client,
		model:  model,
	}
}

// Model returns the embedding model name
func (o *Ollama) Model() string {
	return o.model
}

func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (o *Ollama) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vecs, err := o.client.Embed(ctx, o.model, texts)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindEmbedding, err, "failed to generate embeddings")
	}
	if len(vecs) == 0 {
		return nil, apperr.New(apperr.KindEmbedding, "no embeddings returned from Ollama")
	}
	if len(vecs) != len(texts) {
		return nil, apperr.New(apperr.KindEmbedding, "expected %d embeddings, got %d", len(texts), len(vecs))
	}
	for i, v := range vecs {
		if len(v) == 0 {
			return nil, apperr.New(apperr.KindEmbedding, "empty embedding at position %d", i)
		}
	}
	return vecs, nil
}

// Dimension probes the model with a fixed input and returns the vector length
func (o *Ollama) Dimension(ctx context.Context) (int, error) {
	vec, err := o.Embed(ctx, "test")
	if err != nil {
		return 0, err
	}
	return len(vec), nil
}

// Package index manages one named endpoint collection on top of a storage backend.
package index

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/MereWhiplash/specrag/internal/apperr"
	"github.com/MereWhiplash/specrag/internal/storage"
	"github.com/MereWhiplash/specrag/internal/types"
)

// Meta describes how the collection's vectors were produced.
type Meta struct {
	EmbeddingModel string
	DistanceMetric string
}

// Info is the diagnostic view of a collection.
type Info struct {
	Name     string                 `json:"name"`
	Count    int                    `json:"count"`
	Metadata storage.CollectionMeta `json:"metadata"`
}

// Index is a handle on one collection.
type Index struct {
	store  storage.Storage
	name   string
	meta   Meta
	logger *slog.Logger
}

// Open creates or reuses the named collection. With reset the collection is
// dropped first.
func Open(ctx context.Context, store storage.Storage, name string, meta Meta, reset bool, logger *slog.Logger) (*Index, error) {
	idx := &Index{store: store, name: name, meta: meta, logger: logger}
	if reset {
		if err := idx.Reset(ctx); err != nil {
			return nil, err
		}
		return idx, nil
	}
	if err := idx.ensure(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

// Name returns the collection name.
func (i *Index) Name() string {
	return i.name
}

func (i *Index) ensure(ctx context.Context) error {
	_, err := i.store.EnsureCollection(ctx, i.name, storage.CollectionMeta{
		EmbeddingModel: i.meta.EmbeddingModel,
		DistanceMetric: i.meta.DistanceMetric,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return apperr.Wrap(apperr.KindVectorStore, err, "failed to open collection %q", i.name)
	}
	return nil
}

// Reset drops and recreates the collection.
func (i *Index) Reset(ctx context.Context) error {
	if err := i.store.DropCollection(ctx, i.name); err != nil {
		return apperr.Wrap(apperr.KindVectorStore, err, "failed to reset collection %q", i.name)
	}
	i.logger.Info("collection reset", "collection", i.name)
	return i.ensure(ctx)
}

// IndexChunks upserts chunks with their vectors.
func (i *Index) IndexChunks(ctx context.Context, chunks []types.EndpointChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return apperr.New(apperr.KindVectorStore, "chunks (%d) and embeddings (%d) count mismatch", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	records := make([]storage.Record, len(chunks))
	for n, c := range chunks {
		records[n] = storage.Record{
			ID:       c.ID,
			Vector:   vectors[n],
			Document: c.EmbeddingText(),
			Metadata: Flatten(c),
		}
	}

	if err := i.store.Upsert(ctx, i.name, records); err != nil {
		return apperr.Wrap(apperr.KindVectorStore, err, "failed to index chunks")
	}
	i.logger.Info("chunks indexed", "collection", i.name, "count", len(records))
	return nil
}

// Search returns the k nearest records matching where.
func (i *Index) Search(ctx context.Context, vector []float32, k int, where storage.Where) ([]storage.Hit, error) {
	hits, err := i.store.Query(ctx, i.name, vector, k, where)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindVectorStore, err, "failed to search collection %q", i.name)
	}
	return hits, nil
}

// Info reports the collection name, size and creation metadata.
func (i *Index) Info(ctx context.Context) (Info, error) {
	meta, err := i.store.EnsureCollection(ctx, i.name, storage.CollectionMeta{
		EmbeddingModel: i.meta.EmbeddingModel,
		DistanceMetric: i.meta.DistanceMetric,
	})
	if err != nil {
		return Info{}, apperr.Wrap(apperr.KindVectorStore, err, "failed to read collection %q", i.name)
	}
	count, err := i.store.Count(ctx, i.name)
	if err != nil {
		return Info{}, apperr.Wrap(apperr.KindVectorStore, err, "failed to count collection %q", i.name)
	}
	return Info{Name: i.name, Count: count, Metadata: meta}, nil
}

// Delete drops the collection.
func (i *Index) Delete(ctx context.Context) error {
	if err := i.store.DropCollection(ctx, i.name); err != nil {
		return apperr.Wrap(apperr.KindVectorStore, err, "failed to delete collection %q", i.name)
	}
	return nil
}

// Flatten projects a chunk onto the stored metadata record.
func Flatten(c types.EndpointChunk) storage.Metadata {
	return storage.Metadata{
		Endpoint:     c.Metadata.Endpoint,
		Method:       c.Metadata.Method,
		Tags:         strings.Join(c.Metadata.Tags, ","),
		OperationID:  c.Metadata.OperationID,
		RequiresAuth: c.Metadata.RequiresAuth,
		ContentType:  c.Metadata.ContentType,
		Summary:      c.Summary,
	}
}

// Reconstruct rebuilds a chunk from stored metadata. Description, parameters,
// request body and responses are not stored and come back empty.
func Reconstruct(id string, m storage.Metadata) types.EndpointChunk {
	tags := []string{}
	for _, t := range strings.Split(m.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	return types.EndpointChunk{
		ID:      id,
		Method:  m.Method,
		Path:    m.Endpoint,
		Summary: m.Summary,
		Metadata: types.ChunkMetadata{
			Endpoint:     m.Endpoint,
			Method:       m.Method,
			Tags:         tags,
			OperationID:  m.OperationID,
			RequiresAuth: m.RequiresAuth,
			ContentType:  m.ContentType,
		},
	}
}

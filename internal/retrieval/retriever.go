package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/MereWhiplash/specrag/internal/apperr"
	"github.com/MereWhiplash/specrag/internal/embedder"
	"github.com/MereWhiplash/specrag/internal/index"
	"github.com/MereWhiplash/specrag/internal/storage"
	"github.com/MereWhiplash/specrag/internal/types"
)

// Searcher is the slice of the vector index the retriever needs.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int, where storage.Where) ([]storage.Hit, error)
}

// Retriever embeds queries and searches the index.
type Retriever struct {
	embedder  embedder.Embedder
	searcher  Searcher
	threshold float64
	logger    *slog.Logger
}

// NewRetriever creates a retriever that drops results below threshold similarity.
func NewRetriever(e embedder.Embedder, s Searcher, threshold float64, logger *slog.Logger) *Retriever {
	return &Retriever{embedder: e, searcher: s, threshold: threshold, logger: logger}
}

// Retrieve returns the chunks nearest to req.Query, ranked from 1.
func (r *Retriever) Retrieve(ctx context.Context, req types.QueryRequest) (types.RetrievalResponse, error) {
	vector, err := r.embedder.Embed(ctx, req.Query)
	if err != nil {
		return types.RetrievalResponse{}, apperr.Wrap(apperr.KindRetrieval, err, "failed to embed query")
	}

	where, err := BuildWhere(req.Filters)
	if err != nil {
		return types.RetrievalResponse{}, err
	}

	hits, err := r.searcher.Search(ctx, vector, req.TopK, where)
	if err != nil {
		return types.RetrievalResponse{}, apperr.Wrap(apperr.KindRetrieval, err, "search failed")
	}

	results := make([]types.RetrievalResult, 0, len(hits))
	for _, h := range hits {
		similarity := DistanceToSimilarity(h.Distance)
		if similarity < r.threshold {
			r.logger.Debug("result below similarity threshold", "id", h.ID, "similarity", similarity)
			continue
		}
		results = append(results, types.RetrievalResult{
			Chunk:      index.Reconstruct(h.ID, h.Metadata),
			Similarity: similarity,
			Rank:       len(results) + 1,
		})
	}

	return types.RetrievalResponse{Query: req.Query, Results: results}, nil
}

// DistanceToSimilarity maps a cosine distance in [0,2] onto [0,1].
func DistanceToSimilarity(d float64) float64 {
	s := 1 - d/2
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}

// BuildWhere converts query filters into a store predicate. Tags cannot be
// matched by equality against the joined tag string and are dropped.
func BuildWhere(filters types.Filters) (storage.Where, error) {
	var where storage.Where

	if v, ok := filters[types.FilterMethod]; ok {
		s, err := stringValue(types.FilterMethod, v)
		if err != nil {
			return nil, err
		}
		where = append(where, storage.Eq(storage.FieldMethod, strings.ToUpper(s)))
	}

	if v, ok := filters[types.FilterRequiresAuth]; ok {
		b, err := boolValue(types.FilterRequiresAuth, v)
		if err != nil {
			return nil, err
		}
		where = append(where, storage.Eq(storage.FieldRequiresAuth, b))
	}

	if v, ok := filters[types.FilterContentType]; ok {
		s, err := stringValue(types.FilterContentType, v)
		if err != nil {
			return nil, err
		}
		where = append(where, storage.Eq(storage.FieldContentType, s))
	}

	return where, nil
}

func stringValue(key string, v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case fmt.Stringer:
		return t.String(), nil
	}
	return "", apperr.New(apperr.KindRetrieval, "filter %q must be a string, got %T", key, v)
}

func boolValue(key string, v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(t)
		if err == nil {
			return b, nil
		}
	}
	return false, apperr.New(apperr.KindRetrieval, "filter %q must be a boolean, got %v", key, v)
}

package retrieval_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MereWhiplash/specrag/internal/apperr"
	"github.com/MereWhiplash/specrag/internal/logging"
	"github.com/MereWhiplash/specrag/internal/retrieval"
	"github.com/MereWhiplash/specrag/internal/storage"
	"github.com/MereWhiplash/specrag/internal/types"
)

type fakeEmbedder struct {
	err error
}

func (f fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

func (f fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

type fakeSearcher struct {
	hits      []storage.Hit
	err       error
	gotWhere  storage.Where
	gotK      int
	gotVector []float32
}

func (f *fakeSearcher) Search(ctx context.Context, vector []float32, k int, where storage.Where) ([]storage.Hit, error) {
	f.gotVector, f.gotK, f.gotWhere = vector, k, where
	return f.hits, f.err
}

func hit(id string, distance float64) storage.Hit {
	return storage.Hit{
		ID:       id,
		Distance: distance,
		Metadata: storage.Metadata{Endpoint: "/" + id, Method: "GET", Tags: "payment, admin", ContentType: "application/json"},
	}
}

func TestRetrieve_ThresholdBeforeRank(t *testing.T) {
	s := &fakeSearcher{hits: []storage.Hit{hit("a", 0.2), hit("b", 1.5), hit("c", 0.6)}}
	r := retrieval.NewRetriever(fakeEmbedder{}, s, 0.5, logging.Discard())

	resp, err := r.Retrieve(context.Background(), types.QueryRequest{
		Query:   "get payment",
		Filters: types.Filters{types.FilterMethod: "get", types.FilterTags: "payment"},
		TopK:    3,
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "a", resp.Results[0].Chunk.ID)
	assert.Equal(t, 1, resp.Results[0].Rank)
	assert.InDelta(t, 0.9, resp.Results[0].Similarity, 1e-9)
	assert.Equal(t, "c", resp.Results[1].Chunk.ID)
	assert.Equal(t, 2, resp.Results[1].Rank)
	assert.InDelta(t, 0.7, resp.Results[1].Similarity, 1e-9)

	assert.Equal(t, []string{"payment", "admin"}, resp.Results[0].Chunk.Metadata.Tags)
	assert.Equal(t, "/a", resp.Results[0].Chunk.Path)
	assert.Equal(t, 3, s.gotK)
	assert.Equal(t, storage.Where{storage.Eq(storage.FieldMethod, "GET")}, s.gotWhere)
}

func TestRetrieve_NothingSurvives(t *testing.T) {
	s := &fakeSearcher{hits: []storage.Hit{hit("a", 1.9)}}
	r := retrieval.NewRetriever(fakeEmbedder{}, s, 0.5, logging.Discard())

	resp, err := r.Retrieve(context.Background(), types.QueryRequest{Query: "x", TopK: 5})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestRetrieve_ConnectivityKeepsKind(t *testing.T) {
	down := apperr.New(apperr.KindConnectivity, "failed to connect to Ollama")
	r := retrieval.NewRetriever(fakeEmbedder{err: down}, &fakeSearcher{}, 0.5, logging.Discard())

	_, err := r.Retrieve(context.Background(), types.QueryRequest{Query: "x", TopK: 5})
	assert.True(t, errors.Is(err, apperr.ErrConnectivity))
}

func TestRetrieve_SearchError(t *testing.T) {
	s := &fakeSearcher{err: errors.New("disk full")}
	r := retrieval.NewRetriever(fakeEmbedder{}, s, 0.5, logging.Discard())

	_, err := r.Retrieve(context.Background(), types.QueryRequest{Query: "x", TopK: 5})
	assert.True(t, errors.Is(err, apperr.ErrRetrieval))
}

func TestDistanceToSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, retrieval.DistanceToSimilarity(0))
	assert.Equal(t, 0.5, retrieval.DistanceToSimilarity(1))
	assert.Equal(t, 0.0, retrieval.DistanceToSimilarity(2))
	assert.Equal(t, 0.0, retrieval.DistanceToSimilarity(2.5))
	assert.Equal(t, 1.0, retrieval.DistanceToSimilarity(-0.001))
}

func TestBuildWhere(t *testing.T) {
	where, err := retrieval.BuildWhere(types.Filters{
		types.FilterMethod:       "post",
		types.FilterTags:         "payment",
		types.FilterRequiresAuth: "true",
		types.FilterContentType:  "application/json",
	})
	require.NoError(t, err)
	assert.Equal(t, storage.Where{
		storage.Eq(storage.FieldMethod, "POST"),
		storage.Eq(storage.FieldRequiresAuth, true),
		storage.Eq(storage.FieldContentType, "application/json"),
	}, where)

	where, err = retrieval.BuildWhere(types.Filters{types.FilterTags: "payment"})
	require.NoError(t, err)
	assert.Empty(t, where)

	_, err = retrieval.BuildWhere(types.Filters{types.FilterRequiresAuth: "maybe"})
	assert.True(t, errors.Is(err, apperr.ErrRetrieval))

	_, err = retrieval.BuildWhere(types.Filters{types.FilterMethod: 42})
	assert.True(t, errors.Is(err, apperr.ErrRetrieval))
}

package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MereWhiplash/specrag/internal/types"
)

func TestEmbeddingText_Full(t *testing.T) {
	chunk := types.EndpointChunk{
		Method:      "POST",
		Path:        "/payments/{id}/approve",
		Summary:     "Approve payment",
		Description: "Approves a pending payment",
		Parameters: []types.Parameter{
			{Name: "id", In: types.InPath, Required: true},
			{Name: "X-Idempotency-Key", In: types.InHeader},
		},
		Metadata: types.ChunkMetadata{Tags: []string{"payment", "admin"}},
	}

	want := "POST /payments/{id}/approve\n" +
		"- Approve payment\n" +
		"Description: Approves a pending payment\n" +
		"Parameters: id, X-Idempotency-Key\n" +
		"Tags: payment, admin"
	assert.Equal(t, want, chunk.EmbeddingText())
}

func TestEmbeddingText_OmitsAbsentFields(t *testing.T) {
	chunk := types.EndpointChunk{Method: "GET", Path: "/health"}
	assert.Equal(t, "GET /health", chunk.EmbeddingText())
}

func TestEmbeddingText_Deterministic(t *testing.T) {
	chunk := types.EndpointChunk{Method: "GET", Path: "/items", Summary: "List items"}
	assert.Equal(t, chunk.EmbeddingText(), chunk.EmbeddingText())
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "GET_/items/{id}", types.ChunkID("get", "/items/{id}"))
}

func TestRequiredParameters(t *testing.T) {
	chunk := types.EndpointChunk{Parameters: []types.Parameter{
		{Name: "id", Required: true},
		{Name: "expand"},
		{Name: "tenant", Required: true},
	}}
	assert.Equal(t, []string{"id", "tenant"}, chunk.RequiredParameters())
}

func TestCalculateConfidence(t *testing.T) {
	score := types.CalculateConfidence(0.9, 1.0, true)
	assert.InDelta(t, 0.96, score.Overall, 1e-9)
	assert.Equal(t, types.ConfidenceHigh, score.Level)

	score = types.CalculateConfidence(0.5, 0.5, false)
	assert.InDelta(t, 0.35, score.Overall, 1e-9)
	assert.Equal(t, types.ConfidenceLow, score.Level)
}

func TestCalculateConfidence_Reproducible(t *testing.T) {
	a := types.CalculateConfidence(0.73, 0.85, true)
	b := types.CalculateConfidence(0.73, 0.85, true)
	assert.Equal(t, a, b)
}

func TestCalculateConfidence_Range(t *testing.T) {
	assert.InDelta(t, 1.0, types.CalculateConfidence(1, 1, true).Overall, 1e-9)
	assert.Equal(t, 0.0, types.CalculateConfidence(0, 0, false).Overall)
}

func TestLevelFor_Boundaries(t *testing.T) {
	assert.Equal(t, types.ConfidenceMedium, types.LevelFor(0.8))
	assert.Equal(t, types.ConfidenceLow, types.LevelFor(0.6))
	assert.Equal(t, types.ConfidenceHigh, types.LevelFor(0.8000001))
	assert.Equal(t, types.ConfidenceMedium, types.LevelFor(0.6000001))
}

func TestOperationCount(t *testing.T) {
	spec := types.OpenAPISpec{Paths: []types.PathItem{
		{Path: "/a", Get: &types.Operation{}, Post: &types.Operation{}},
		{Path: "/b", Delete: &types.Operation{}},
	}}
	assert.Equal(t, 3, spec.OperationCount())
}

func TestPathItem_SetOperation(t *testing.T) {
	var item types.PathItem
	op := &types.Operation{Summary: "x"}
	item.SetOperation("patch", op)
	assert.Same(t, op, item.Operation("patch"))
	assert.Nil(t, item.Operation("get"))
}

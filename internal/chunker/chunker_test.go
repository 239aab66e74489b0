package chunker_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MereWhiplash/specrag/internal/apperr"
	"github.com/MereWhiplash/specrag/internal/chunker"
	"github.com/MereWhiplash/specrag/internal/specparse"
	"github.com/MereWhiplash/specrag/internal/types"
)

const itemsSpec = `openapi: 3.0.0
info:
  title: Items
  version: "1"
paths:
  /items/{id}:
    post:
      summary: Replace item
      parameters:
        - name: id
          in: path
          required: true
      responses:
        "200":
          description: OK
    get:
      summary: Get item
      parameters:
        - name: id
          in: path
          required: true
      responses:
        "200":
          description: OK
`

func TestChunk_ItemsScenario(t *testing.T) {
	spec, err := specparse.Parse(context.Background(), []byte(itemsSpec), specparse.FormatYAML)
	require.NoError(t, err)

	chunks, err := chunker.Chunk(spec)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "GET_/items/{id}", chunks[0].ID, "get precedes post regardless of source order")
	assert.Equal(t, "POST_/items/{id}", chunks[1].ID)
}

func TestChunk_CountAndUniqueness(t *testing.T) {
	spec := &types.OpenAPISpec{Paths: []types.PathItem{
		{Path: "/a", Get: &types.Operation{}, Put: &types.Operation{}, Head: &types.Operation{}},
		{Path: "/b", Delete: &types.Operation{}, Options: &types.Operation{}, Patch: &types.Operation{}},
		{Path: "/c"},
	}}

	chunks, err := chunker.Chunk(spec)
	require.NoError(t, err)
	assert.Len(t, chunks, spec.OperationCount())

	ids := make(map[string]bool)
	for _, c := range chunks {
		assert.False(t, ids[c.ID], "duplicate id %s", c.ID)
		ids[c.ID] = true
	}
	assert.Equal(t, []string{"GET_/a", "PUT_/a", "HEAD_/a", "DELETE_/b", "PATCH_/b", "OPTIONS_/b"},
		[]string{chunks[0].ID, chunks[1].ID, chunks[2].ID, chunks[3].ID, chunks[4].ID, chunks[5].ID})
}

func TestChunk_Empty(t *testing.T) {
	_, err := chunker.Chunk(&types.OpenAPISpec{Paths: []types.PathItem{{Path: "/a"}}})
	assert.True(t, errors.Is(err, apperr.ErrChunking))
}

func TestFromOperation_Metadata(t *testing.T) {
	op := &types.Operation{
		Summary:     "Approve payment",
		OperationID: "approvePayment",
		Tags:        []string{"payment"},
		RequestBody: &types.RequestBody{ContentTypes: []string{"application/xml", "application/json"}},
		Security:    []types.SecurityReq{{"bearerAuth": nil}},
	}

	chunk := chunker.FromOperation("/payments/{id}/approve", "post", op)
	assert.Equal(t, "POST", chunk.Method)
	assert.Equal(t, "/payments/{id}/approve", chunk.Metadata.Endpoint)
	assert.Equal(t, "application/xml", chunk.Metadata.ContentType, "first declared media type wins")
	assert.True(t, chunk.Metadata.RequiresAuth)
	assert.Equal(t, "approvePayment", chunk.Metadata.OperationID)
}

func TestFromOperation_Defaults(t *testing.T) {
	chunk := chunker.FromOperation("/health", "get", &types.Operation{Security: []types.SecurityReq{}})
	assert.Equal(t, types.DefaultContentType, chunk.Metadata.ContentType)
	assert.False(t, chunk.Metadata.RequiresAuth, "empty security list means no auth")
	assert.NotNil(t, chunk.Metadata.Tags)
}

func TestByID(t *testing.T) {
	chunks := []types.EndpointChunk{{ID: "GET_/a"}, {ID: "POST_/a"}}
	m := chunker.ByID(chunks)
	assert.Len(t, m, 2)
	assert.Equal(t, "POST_/a", m["POST_/a"].ID)
}

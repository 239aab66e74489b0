// Package chunker splits a parsed spec into one EndpointChunk per operation.
package chunker

import (
	"strings"

	"github.com/MereWhiplash/specrag/internal/apperr"
	"github.com/MereWhiplash/specrag/internal/types"
)

// Chunk returns the chunks of spec in path-then-verb order.
func Chunk(spec *types.OpenAPISpec) ([]types.EndpointChunk, error) {
	var chunks []types.EndpointChunk
	seen := make(map[string]bool)

	for _, item := range spec.Paths {
		for _, verb := range types.Verbs {
			op := item.Operation(verb)
			if op == nil {
				continue
			}
			chunk := FromOperation(item.Path, verb, op)
			if seen[chunk.ID] {
				return nil, apperr.New(apperr.KindChunking, "duplicate chunk id %q", chunk.ID)
			}
			seen[chunk.ID] = true
			chunks = append(chunks, chunk)
		}
	}

	if len(chunks) == 0 {
		return nil, apperr.New(apperr.KindChunking, "spec produced no endpoint chunks")
	}
	return chunks, nil
}

// FromOperation builds the chunk for a single operation.
func FromOperation(path, verb string, op *types.Operation) types.EndpointChunk {
	method := strings.ToUpper(verb)

	contentType := types.DefaultContentType
	if op.RequestBody != nil && len(op.RequestBody.ContentTypes) > 0 {
		contentType = op.RequestBody.ContentTypes[0]
	}

	tags := op.Tags
	if tags == nil {
		tags = []string{}
	}

	return types.EndpointChunk{
		ID:          types.ChunkID(method, path),
		Method:      method,
		Path:        path,
		Summary:     op.Summary,
		Description: op.Description,
		Parameters:  op.Parameters,
		RequestBody: op.RequestBody,
		Responses:   op.Responses,
		Metadata: types.ChunkMetadata{
			Endpoint:     path,
			Method:       method,
			Tags:         tags,
			OperationID:  op.OperationID,
			RequiresAuth: len(op.Security) > 0,
			ContentType:  contentType,
		},
	}
}

// ByID indexes chunks by id.
func ByID(chunks []types.EndpointChunk) map[string]types.EndpointChunk {
	out := make(map[string]types.EndpointChunk, len(chunks))
	for _, c := range chunks {
		out[c.ID] = c
	}
	return out
}

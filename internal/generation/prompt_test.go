package generation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MereWhiplash/specrag/internal/generation"
	"github.com/MereWhiplash/specrag/internal/types"
)

func approveChunk() types.EndpointChunk {
	return types.EndpointChunk{
		ID:          "POST_/payments/{id}/approve",
		Method:      "POST",
		Path:        "/payments/{id}/approve",
		Summary:     "Approve payment",
		Description: "Approves a pending payment",
		Parameters: []types.Parameter{
			{Name: "id", In: types.InPath, Description: "Payment id", Required: true},
			{Name: "dry_run", In: types.InQuery},
		},
		RequestBody: &types.RequestBody{Required: true, ContentTypes: []string{"application/json", "application/xml"}},
		Responses:   []types.Response{{Status: "200", Description: "Approved"}, {Status: "404", Description: "Not found"}},
		Metadata:    types.ChunkMetadata{RequiresAuth: true},
	}
}

func TestBuild(t *testing.T) {
	req := generation.Build("approve payment", []types.EndpointChunk{approveChunk()})

	assert.Equal(t, "approve payment", req.Query)
	assert.Equal(t, generation.SystemPrompt, req.SystemPrompt)
	assert.Len(t, req.Chunks, 1)

	for _, want := range []string{
		"[Endpoint 1]",
		"Method: POST",
		"Path: /payments/{id}/approve",
		"Summary: Approve payment",
		"Description: Approves a pending payment",
		"  - id (path): Payment id [required]",
		"  - dry_run (query): N/A [optional]",
		"  Required: true",
		"  Content-Type: application/json\n  Content-Type: application/xml",
		"  200: Approved\n  404: Not found",
		"Authentication: required (Bearer token)",
		"User query: approve payment",
	} {
		assert.Contains(t, req.UserPrompt, want)
	}
}

func TestUserPrompt_SeparatesChunks(t *testing.T) {
	bare := types.EndpointChunk{Method: "GET", Path: "/health"}
	prompt := generation.UserPrompt("q", []types.EndpointChunk{approveChunk(), bare})

	assert.Equal(t, 1, strings.Count(prompt, strings.Repeat("=", 60)))
	assert.Contains(t, prompt, "[Endpoint 2]\nMethod: GET\nPath: /health\nSummary: N/A\nDescription: N/A")
	assert.Equal(t, 1, strings.Count(prompt, "Authentication:"))
}

func TestSystemPrompt_MatchesParserLabels(t *testing.T) {
	for _, label := range []string{"Explanation:", "Required inputs:", "Expected responses:", "Confidence:", "insufficient information: <item>"} {
		assert.Contains(t, generation.SystemPrompt, label)
	}
}

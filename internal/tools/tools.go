// Package tools exposes the pipeline as MCP tools. The same handlers serve
// a local service or a remote server through the HTTP client.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MereWhiplash/specrag/internal/service"
	"github.com/MereWhiplash/specrag/internal/types"
)

// Handler holds dependencies for tool handlers
type Handler struct {
	pipeline service.Pipeline
}

// NewHandler creates tool handlers over p
func NewHandler(p service.Pipeline) *Handler {
	return &Handler{pipeline: p}
}

// QueryInput defines the input schema for specrag_query
type QueryInput struct {
	Query        string `json:"query" jsonschema:"Natural-language description of the API call to build"`
	TopK         int    `json:"top_k,omitempty" jsonschema:"Number of endpoints to retrieve (1-20, default 5)"`
	Method       string `json:"method,omitempty" jsonschema:"Restrict retrieval to one HTTP method"`
	RequiresAuth *bool  `json:"requires_auth,omitempty" jsonschema:"Restrict retrieval by authentication requirement"`
	Validate     bool   `json:"validate,omitempty" jsonschema:"Validate the command and score confidence"`
	Strict       bool   `json:"strict,omitempty" jsonschema:"Fail instead of answering when the spec lacks information"`
}

// QueryOutput defines the output schema for specrag_query
type QueryOutput struct {
	Command     string   `json:"command"`
	Endpoint    string   `json:"endpoint"`
	Similarity  float64  `json:"similarity"`
	Confidence  string   `json:"confidence"`
	Score       float64  `json:"score,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	MissingInfo string   `json:"missing_info,omitempty"`
}

// IngestInput defines the input schema for specrag_ingest
type IngestInput struct {
	Path  string `json:"path" jsonschema:"Path to an OpenAPI 3.x spec file (.yaml, .yml or .json)"`
	Force bool   `json:"force,omitempty" jsonschema:"Empty the collection before indexing"`
}

// IngestOutput defines the output schema for specrag_ingest
type IngestOutput struct {
	Title      string `json:"title"`
	Version    string `json:"version"`
	Chunks     int    `json:"chunks"`
	Collection string `json:"collection"`
}

// CollectionInput defines the input schema for specrag_collection_info
type CollectionInput struct{}

// CollectionOutput defines the output schema for specrag_collection_info
type CollectionOutput struct {
	Name           string `json:"name"`
	Count          int    `json:"count"`
	EmbeddingModel string `json:"embedding_model"`
	DistanceMetric string `json:"distance_metric"`
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// Register adds all specrag tools to the MCP server
func Register(server *mcp.Server, p service.Pipeline) {
	h := NewHandler(p)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "specrag_query",
		Description: "Generate a curl command for an API described by the indexed OpenAPI spec",
	}, h.Query)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "specrag_ingest",
		Description: "Index an OpenAPI 3.x spec file for querying",
	}, h.Ingest)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "specrag_collection_info",
		Description: "Show the indexed collection's size and embedding settings",
	}, h.CollectionInfo)
}

func (h *Handler) Query(ctx context.Context, req *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, QueryOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return errorResult("query is required"), QueryOutput{}, nil
	}

	filters := types.Filters{}
	if input.Method != "" {
		filters["method"] = strings.ToUpper(input.Method)
	}
	if input.RequiresAuth != nil {
		filters["requires_auth"] = *input.RequiresAuth
	}

	result, err := h.pipeline.Query(ctx, service.QueryOptions{
		Text:     input.Query,
		TopK:     input.TopK,
		Filters:  filters,
		Validate: input.Validate,
		Strict:   input.Strict,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("failed to query: %v", err)), QueryOutput{}, nil
	}

	best := result.Best()
	gen := result.Generation
	out := QueryOutput{
		Command:     gen.Curl.Command,
		Endpoint:    best.Chunk.Method + " " + best.Chunk.Path,
		Similarity:  best.Similarity,
		Confidence:  gen.Confidence,
		Warnings:    gen.Warnings,
		MissingInfo: gen.MissingInfo,
	}
	if result.Confidence != nil {
		out.Score = result.Confidence.Overall
		out.Warnings = append(append([]string(nil), out.Warnings...), result.Compliance.Warnings...)
	}

	if gen.Refused() {
		return textResult(fmt.Sprintf("Cannot generate a command: insufficient information: %s", gen.MissingInfo)), out, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nEndpoint: %s (similarity %.2f)\n", out.Command, out.Endpoint, out.Similarity)
	if result.Explanation != "" {
		fmt.Fprintf(&b, "\n%s\n", result.Explanation)
	}
	for _, w := range out.Warnings {
		fmt.Fprintf(&b, "Warning: %s\n", w)
	}
	return textResult(b.String()), out, nil
}

func (h *Handler) Ingest(ctx context.Context, req *mcp.CallToolRequest, input IngestInput) (*mcp.CallToolResult, IngestOutput, error) {
	if input.Path == "" {
		return errorResult("path is required"), IngestOutput{}, nil
	}

	report, err := h.pipeline.Ingest(ctx, input.Path, input.Force)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to ingest: %v", err)), IngestOutput{}, nil
	}

	out := IngestOutput{
		Title:      report.Title,
		Version:    report.Version,
		Chunks:     report.Chunks,
		Collection: report.Collection,
	}
	msg := fmt.Sprintf("Indexed %d endpoints from %s %s into %s.", out.Chunks, out.Title, out.Version, out.Collection)
	return textResult(msg), out, nil
}

func (h *Handler) CollectionInfo(ctx context.Context, req *mcp.CallToolRequest, input CollectionInput) (*mcp.CallToolResult, CollectionOutput, error) {
	info, err := h.pipeline.Info(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to read collection: %v", err)), CollectionOutput{}, nil
	}

	out := CollectionOutput{
		Name:           info.Name,
		Count:          info.Count,
		EmbeddingModel: info.Metadata.EmbeddingModel,
		DistanceMetric: info.Metadata.DistanceMetric,
	}
	msg := fmt.Sprintf("Collection %s: %d endpoints (embedding model %s, %s distance)", out.Name, out.Count, out.EmbeddingModel, out.DistanceMetric)
	return textResult(msg), out, nil
}

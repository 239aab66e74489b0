package types

import (
	"fmt"
	"strings"
)

// DefaultContentType is used when an operation declares no request body.
const DefaultContentType = "application/json"

// ChunkMetadata is the filterable projection of a chunk.
type ChunkMetadata struct {
	Endpoint     string   `json:"endpoint"`
	Method       string   `json:"method"`
	Tags         []string `json:"tags"`
	OperationID  string   `json:"operation_id,omitempty"`
	RequiresAuth bool     `json:"requires_auth"`
	ContentType  string   `json:"content_type"`
}

// EndpointChunk is one (path, method) pair: the unit that is embedded,
// retrieved and validated against.
type EndpointChunk struct {
	ID          string        `json:"chunk_id"`
	Method      string        `json:"method"`
	Path        string        `json:"path"`
	Summary     string        `json:"summary,omitempty"`
	Description string        `json:"description,omitempty"`
	Parameters  []Parameter   `json:"parameters,omitempty"`
	RequestBody *RequestBody  `json:"request_body,omitempty"`
	Responses   []Response    `json:"responses,omitempty"`
	Metadata    ChunkMetadata `json:"metadata"`
}

// ChunkID formats the identity of a (method, path) pair.
func ChunkID(method, path string) string {
	return fmt.Sprintf("%s_%s", strings.ToUpper(method), path)
}

// EmbeddingText renders the canonical text that gets embedded and stored.
func (c EndpointChunk) EmbeddingText() string {
	lines := []string{fmt.Sprintf("%s %s", c.Method, c.Path)}

	if c.Summary != "" {
		lines = append(lines, "- "+c.Summary)
	}
	if c.Description != "" {
		lines = append(lines, "Description: "+c.Description)
	}
	if len(c.Parameters) > 0 {
		names := make([]string, len(c.Parameters))
		for i, p := range c.Parameters {
			names[i] = p.Name
		}
		lines = append(lines, "Parameters: "+strings.Join(names, ", "))
	}
	if len(c.Metadata.Tags) > 0 {
		lines = append(lines, "Tags: "+strings.Join(c.Metadata.Tags, ", "))
	}

	return strings.Join(lines, "\n")
}

// RequiredParameters returns the names of required parameters in order.
func (c EndpointChunk) RequiredParameters() []string {
	var names []string
	for _, p := range c.Parameters {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

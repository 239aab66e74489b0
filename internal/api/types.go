// internal/api/types.go
package api

import "github.com/MereWhiplash/specrag/internal/types"

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// IngestRequest is the body of POST /v1/ingest
type IngestRequest struct {
	// Spec is the raw OpenAPI document.
	Spec   string `json:"spec"`
	Format string `json:"format"`
	Force  bool   `json:"force,omitempty"`
}

// QueryRequest is the body of POST /v1/query
type QueryRequest struct {
	Query    string        `json:"query"`
	TopK     int           `json:"top_k,omitempty"`
	Filters  types.Filters `json:"filters,omitempty"`
	Validate bool          `json:"validate,omitempty"`
	Strict   bool          `json:"strict,omitempty"`
}

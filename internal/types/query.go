package types

// Filter keys understood by the query pipeline.
const (
	FilterMethod       = "method"
	FilterTags         = "tags"
	FilterRequiresAuth = "requires_auth"
	FilterContentType  = "content_type"
)

// Filters maps a metadata field to the value it must equal.
type Filters map[string]any

// QueryRequest is a normalized query ready for retrieval.
type QueryRequest struct {
	Query   string  `json:"query"`
	Filters Filters `json:"filters,omitempty"`
	TopK    int     `json:"top_k"`
}

// RetrievalResult is a retrieved chunk with its similarity and 1-based rank.
type RetrievalResult struct {
	Chunk      EndpointChunk `json:"chunk"`
	Similarity float64       `json:"similarity"`
	Rank       int           `json:"rank"`
}

// RetrievalResponse is the ranked output of one retrieval.
type RetrievalResponse struct {
	Query   string            `json:"query"`
	Results []RetrievalResult `json:"results"`
}

// Chunks returns the result chunks in rank order.
func (r RetrievalResponse) Chunks() []EndpointChunk {
	out := make([]EndpointChunk, len(r.Results))
	for i, res := range r.Results {
		out[i] = res.Chunk
	}
	return out
}

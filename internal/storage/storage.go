package storage

import (
	"context"
	"math"
	"time"
)

// Metadata is the flattened, filterable projection stored next to each vector.
// Only strings and booleans, so every backend can index and filter it.
type Metadata struct {
	Endpoint     string `json:"endpoint" bson:"endpoint"`
	Method       string `json:"method" bson:"method"`
	Tags         string `json:"tags" bson:"tags"`
	OperationID  string `json:"operation_id" bson:"operation_id"`
	RequiresAuth bool   `json:"requires_auth" bson:"requires_auth"`
	ContentType  string `json:"content_type" bson:"content_type"`
	Summary      string `json:"summary" bson:"summary"`
}

// Metadata field names, usable in Where conditions.
const (
	FieldEndpoint     = "endpoint"
	FieldMethod       = "method"
	FieldTags         = "tags"
	FieldOperationID  = "operation_id"
	FieldRequiresAuth = "requires_auth"
	FieldContentType  = "content_type"
	FieldSummary      = "summary"
)

// Field returns the value of a metadata field by name.
func (m Metadata) Field(name string) (any, bool) {
	switch name {
	case FieldEndpoint:
		return m.Endpoint, true
	case FieldMethod:
		return m.Method, true
	case FieldTags:
		return m.Tags, true
	case FieldOperationID:
		return m.OperationID, true
	case FieldRequiresAuth:
		return m.RequiresAuth, true
	case FieldContentType:
		return m.ContentType, true
	case FieldSummary:
		return m.Summary, true
	}
	return nil, false
}

// Record is one upserted entry.
type Record struct {
	ID       string
	Vector   []float32
	Document string
	Metadata Metadata
}

// Hit is one nearest-neighbour result. Distance is cosine distance in [0,2].
type Hit struct {
	ID       string   `json:"id"`
	Distance float64  `json:"distance"`
	Document string   `json:"document"`
	Metadata Metadata `json:"metadata"`
}

// CollectionMeta is recorded when a collection is first created.
type CollectionMeta struct {
	EmbeddingModel string    `json:"embedding_model"`
	DistanceMetric string    `json:"distance_metric"`
	CreatedAt      time.Time `json:"created_at"`
}

// Storage defines the interface for vector persistence
type Storage interface {
	// EnsureCollection creates the collection if needed and returns its stored metadata.
	EnsureCollection(ctx context.Context, name string, meta CollectionMeta) (CollectionMeta, error)
	// DropCollection removes the collection and its records. Dropping a missing collection is not an error.
	DropCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, collection string, records []Record) error
	Query(ctx context.Context, collection string, vector []float32, k int, where Where) ([]Hit, error)
	Count(ctx context.Context, collection string) (int, error)
	Close() error
}

// cosineDistance returns 1 - cos(a, b). Zero vectors are treated as orthogonal.
func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		na += float64(v) * float64(v)
	}
	for _, v := range b {
		nb += float64(v) * float64(v)
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

//go:build !cgo

package storage

import (
	"context"
	"fmt"
)

// SQLite stands in for the sqlite-vec backend when CGO is off. Every call fails.
type SQLite struct{}

var errNoCGO = fmt.Errorf("the sqlite-vec index needs a CGO build (CGO_ENABLED=1); use the memory, postgres or mongodb driver instead")

// NewSQLite returns an error in non-CGO builds
func NewSQLite(path string) (*SQLite, error) {
	return nil, errNoCGO
}

func (s *SQLite) EnsureCollection(ctx context.Context, name string, meta CollectionMeta) (CollectionMeta, error) {
	return CollectionMeta{}, errNoCGO
}

func (s *SQLite) DropCollection(ctx context.Context, name string) error {
	return errNoCGO
}

func (s *SQLite) Upsert(ctx context.Context, collection string, records []Record) error {
	return errNoCGO
}

func (s *SQLite) Query(ctx context.Context, collection string, vector []float32, k int, where Where) ([]Hit, error) {
	return nil, errNoCGO
}

func (s *SQLite) Count(ctx context.Context, collection string) (int, error) {
	return 0, errNoCGO
}

func (s *SQLite) Close() error {
	return nil
}

package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/MereWhiplash/specrag/internal/storage"
)

func record(id, method string, auth bool, vec []float32) storage.Record {
	return storage.Record{
		ID:       id,
		Vector:   vec,
		Document: method + " doc " + id,
		Metadata: storage.Metadata{
			Endpoint:     "/" + id,
			Method:       method,
			Tags:         "payment, admin",
			RequiresAuth: auth,
			ContentType:  "application/json",
			Summary:      "summary " + id,
		},
	}
}

// runContract exercises the behaviour every backend must share.
func runContract(t *testing.T, store storage.Storage, name string) {
	t.Helper()
	ctx := context.Background()

	if err := store.DropCollection(ctx, name); err != nil {
		t.Fatalf("dropping a missing collection should succeed: %v", err)
	}

	meta, err := store.EnsureCollection(ctx, name, storage.CollectionMeta{EmbeddingModel: "nomic-embed-text", DistanceMetric: "cosine"})
	if err != nil {
		t.Fatalf("EnsureCollection failed: %v", err)
	}
	if meta.EmbeddingModel != "nomic-embed-text" || meta.DistanceMetric != "cosine" {
		t.Errorf("unexpected collection metadata: %+v", meta)
	}

	again, err := store.EnsureCollection(ctx, name, storage.CollectionMeta{EmbeddingModel: "other", DistanceMetric: "cosine"})
	if err != nil {
		t.Fatalf("second EnsureCollection failed: %v", err)
	}
	if again.EmbeddingModel != "nomic-embed-text" {
		t.Errorf("existing collection metadata should be reused, got %q", again.EmbeddingModel)
	}

	records := []storage.Record{
		record("a", "GET", false, []float32{1, 0, 0}),
		record("b", "POST", true, []float32{0, 1, 0}),
		record("c", "POST", false, []float32{0.9, 0.1, 0}),
	}
	if err := store.Upsert(ctx, name, records); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	n, err := store.Count(ctx, name)
	if err != nil || n != 3 {
		t.Fatalf("expected 3 records, got %d (%v)", n, err)
	}

	// upsert by id overwrites
	if err := store.Upsert(ctx, name, []storage.Record{record("a", "GET", false, []float32{1, 0, 0})}); err != nil {
		t.Fatalf("re-upsert failed: %v", err)
	}
	if n, _ := store.Count(ctx, name); n != 3 {
		t.Errorf("expected upsert to overwrite, got %d records", n)
	}

	hits, err := store.Query(ctx, name, []float32{1, 0, 0}, 2, nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(hits) != 2 || hits[0].ID != "a" || hits[1].ID != "c" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
	if hits[0].Distance > 1e-5 {
		t.Errorf("expected ~0 distance for identical vector, got %f", hits[0].Distance)
	}
	if hits[0].Metadata.Summary != "summary a" || hits[0].Metadata.Tags != "payment, admin" || hits[0].Document != "GET doc a" {
		t.Errorf("metadata not round-tripped: %+v", hits[0])
	}

	hits, err = store.Query(ctx, name, []float32{1, 0, 0}, 5, storage.Where{storage.Eq(storage.FieldMethod, "POST")})
	if err != nil {
		t.Fatalf("filtered Query failed: %v", err)
	}
	if len(hits) != 2 || hits[0].ID != "c" {
		t.Errorf("unexpected filtered hits: %+v", hits)
	}

	hits, err = store.Query(ctx, name, []float32{1, 0, 0}, 5, storage.Where{
		storage.Eq(storage.FieldMethod, "POST"),
		storage.Eq(storage.FieldRequiresAuth, true),
	})
	if err != nil {
		t.Fatalf("conjunctive Query failed: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "b" || !hits[0].Metadata.RequiresAuth {
		t.Errorf("unexpected conjunctive hits: %+v", hits)
	}

	if err := store.DropCollection(ctx, name); err != nil {
		t.Fatalf("DropCollection failed: %v", err)
	}
	if _, err := store.Count(ctx, name); !errors.Is(err, storage.ErrCollectionNotFound) {
		t.Errorf("expected collection not found after drop, got %v", err)
	}
}

package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Storage. Contents are lost on Close.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	meta    CollectionMeta
	order   []string
	records map[string]Record
}

// NewMemory creates an empty in-process store
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]*memCollection)}
}

func (m *Memory) EnsureCollection(ctx context.Context, name string, meta CollectionMeta) (CollectionMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.collections[name]; ok {
		return c.meta, nil
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	m.collections[name] = &memCollection{meta: meta, records: make(map[string]Record)}
	return meta, nil
}

func (m *Memory) DropCollection(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, name)
	return nil
}

func (m *Memory) Upsert(ctx context.Context, collection string, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.get(collection)
	if err != nil {
		return err
	}
	for _, r := range records {
		if _, exists := c.records[r.ID]; !exists {
			c.order = append(c.order, r.ID)
		}
		r.Vector = append([]float32(nil), r.Vector...)
		c.records[r.ID] = r
	}
	return nil
}

func (m *Memory) Query(ctx context.Context, collection string, vector []float32, k int, where Where) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, err := m.get(collection)
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for _, id := range c.order {
		r := c.records[id]
		if !where.Matches(r.Metadata) {
			continue
		}
		hits = append(hits, Hit{
			ID:       r.ID,
			Distance: cosineDistance(vector, r.Vector),
			Document: r.Document,
			Metadata: r.Metadata,
		})
	}
	return nearest(hits, k), nil
}

func (m *Memory) Count(ctx context.Context, collection string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, err := m.get(collection)
	if err != nil {
		return 0, err
	}
	return len(c.records), nil
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) get(name string) (*memCollection, error) {
	c, ok := m.collections[name]
	if !ok {
		return nil, errCollectionNotFound(name)
	}
	return c, nil
}

// nearest sorts hits by ascending distance, stable on insertion order, and keeps k.
func nearest(hits []Hit, k int) []Hit {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

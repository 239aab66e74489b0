package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Postgres implements Storage using PostgreSQL with pgvector
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a new Postgres storage
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	p := &Postgres{pool: pool}
	if err := p.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return p, nil
}

// The embedding column is dimensionless so one table serves any embedding model.
func (p *Postgres) initSchema(ctx context.Context) error {
	schema := `
		CREATE EXTENSION IF NOT EXISTS vector;

		CREATE TABLE IF NOT EXISTS spec_collections (
			name TEXT PRIMARY KEY,
			embedding_model TEXT NOT NULL,
			distance_metric TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS spec_endpoints (
			collection TEXT NOT NULL REFERENCES spec_collections(name) ON DELETE CASCADE,
			id TEXT NOT NULL,
			document TEXT NOT NULL,
			endpoint TEXT NOT NULL,
			method TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '',
			operation_id TEXT NOT NULL DEFAULT '',
			requires_auth BOOLEAN NOT NULL DEFAULT FALSE,
			content_type TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			embedding vector NOT NULL,
			PRIMARY KEY (collection, id)
		);

		CREATE INDEX IF NOT EXISTS idx_spec_endpoints_method ON spec_endpoints(collection, method);
	`
	_, err := p.pool.Exec(ctx, schema)
	return err
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) EnsureCollection(ctx context.Context, name string, meta CollectionMeta) (CollectionMeta, error) {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO spec_collections (name, embedding_model, distance_metric)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO NOTHING`,
		name, meta.EmbeddingModel, meta.DistanceMetric,
	)
	if err != nil {
		return CollectionMeta{}, fmt.Errorf("failed to create collection: %w", err)
	}

	var stored CollectionMeta
	err = p.pool.QueryRow(ctx,
		`SELECT embedding_model, distance_metric, created_at FROM spec_collections WHERE name = $1`, name,
	).Scan(&stored.EmbeddingModel, &stored.DistanceMetric, &stored.CreatedAt)
	if err != nil {
		return CollectionMeta{}, fmt.Errorf("failed to read collection: %w", err)
	}
	return stored, nil
}

func (p *Postgres) DropCollection(ctx context.Context, name string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM spec_collections WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return nil
}

func (p *Postgres) Upsert(ctx context.Context, collection string, records []Record) error {
	if err := p.exists(ctx, collection); err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range records {
		m := r.Metadata
		batch.Queue(
			`INSERT INTO spec_endpoints (collection, id, document, endpoint, method, tags, operation_id, requires_auth, content_type, summary, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 ON CONFLICT (collection, id) DO UPDATE SET
				document = EXCLUDED.document,
				endpoint = EXCLUDED.endpoint,
				method = EXCLUDED.method,
				tags = EXCLUDED.tags,
				operation_id = EXCLUDED.operation_id,
				requires_auth = EXCLUDED.requires_auth,
				content_type = EXCLUDED.content_type,
				summary = EXCLUDED.summary,
				embedding = EXCLUDED.embedding`,
			collection, r.ID, r.Document, m.Endpoint, m.Method, m.Tags, m.OperationID, m.RequiresAuth, m.ContentType, m.Summary,
			pgvector.NewVector(r.Vector),
		)
	}

	br := tx.SendBatch(ctx, batch)
	for _, r := range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to upsert %s: %w", r.ID, err)
		}
	}
	if err := br.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (p *Postgres) Query(ctx context.Context, collection string, vector []float32, k int, where Where) ([]Hit, error) {
	if err := where.Validate(); err != nil {
		return nil, err
	}
	if err := p.exists(ctx, collection); err != nil {
		return nil, err
	}

	vec := pgvector.NewVector(vector)

	query := `
		SELECT id, document, endpoint, method, tags, operation_id, requires_auth, content_type, summary,
		       embedding <=> $1 AS distance
		FROM spec_endpoints
		WHERE collection = $2
	`
	args := []interface{}{vec, collection}
	argNum := 3

	for _, c := range where {
		query += fmt.Sprintf(" AND %s = $%d", columns[c.Field], argNum)
		args = append(args, c.Value)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY distance LIMIT $%d", argNum)
	args = append(args, k)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query endpoints: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		m := &h.Metadata
		err := rows.Scan(
			&h.ID, &h.Document, &m.Endpoint, &m.Method, &m.Tags, &m.OperationID,
			&m.RequiresAuth, &m.ContentType, &m.Summary, &h.Distance,
		)
		if err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}

	return hits, rows.Err()
}

func (p *Postgres) Count(ctx context.Context, collection string) (int, error) {
	if err := p.exists(ctx, collection); err != nil {
		return 0, err
	}
	var n int
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM spec_endpoints WHERE collection = $1`, collection).Scan(&n)
	return n, err
}

func (p *Postgres) exists(ctx context.Context, name string) error {
	var found string
	err := p.pool.QueryRow(ctx, `SELECT name FROM spec_collections WHERE name = $1`, name).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return errCollectionNotFound(name)
	}
	return err
}

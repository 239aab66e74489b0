//go:build cgo

// internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite implements Storage using SQLite with sqlite-vec
type SQLite struct {
	conn *sql.DB
}

// NewSQLite creates a new SQLite storage
func NewSQLite(path string) (*SQLite, error) {
	sqlite_vec.Auto()

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLite{conn: conn}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Vectors are stored as float32 blobs on a regular table and ranked with
// vec_distance_cosine, so collections of any dimension can share the table.
func (s *SQLite) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			embedding_model TEXT NOT NULL,
			distance_metric TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS endpoints (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			document TEXT NOT NULL,
			endpoint TEXT NOT NULL,
			method TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '',
			operation_id TEXT NOT NULL DEFAULT '',
			requires_auth BOOLEAN NOT NULL DEFAULT FALSE,
			content_type TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			embedding BLOB NOT NULL,
			PRIMARY KEY (collection, id)
		);

		CREATE INDEX IF NOT EXISTS idx_endpoints_method ON endpoints(collection, method);
	`
	_, err := s.conn.Exec(schema)
	return err
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}

func (s *SQLite) EnsureCollection(ctx context.Context, name string, meta CollectionMeta) (CollectionMeta, error) {
	_, err := s.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO collections (name, embedding_model, distance_metric) VALUES (?, ?, ?)`,
		name, meta.EmbeddingModel, meta.DistanceMetric,
	)
	if err != nil {
		return CollectionMeta{}, fmt.Errorf("failed to create collection: %w", err)
	}

	var stored CollectionMeta
	err = s.conn.QueryRowContext(ctx,
		`SELECT embedding_model, distance_metric, created_at FROM collections WHERE name = ?`, name,
	).Scan(&stored.EmbeddingModel, &stored.DistanceMetric, &stored.CreatedAt)
	if err != nil {
		return CollectionMeta{}, fmt.Errorf("failed to read collection: %w", err)
	}
	return stored, nil
}

func (s *SQLite) DropCollection(ctx context.Context, name string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM endpoints WHERE collection = ?`, name); err != nil {
		return fmt.Errorf("failed to delete endpoints: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return tx.Commit()
}

func (s *SQLite) Upsert(ctx context.Context, collection string, records []Record) error {
	if err := s.exists(ctx, collection); err != nil {
		return err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO endpoints (collection, id, document, endpoint, method, tags, operation_id, requires_auth, content_type, summary, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			document = excluded.document,
			endpoint = excluded.endpoint,
			method = excluded.method,
			tags = excluded.tags,
			operation_id = excluded.operation_id,
			requires_auth = excluded.requires_auth,
			content_type = excluded.content_type,
			summary = excluded.summary,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		blob, err := sqlite_vec.SerializeFloat32(r.Vector)
		if err != nil {
			return fmt.Errorf("failed to serialize embedding for %s: %w", r.ID, err)
		}
		m := r.Metadata
		_, err = stmt.ExecContext(ctx,
			collection, r.ID, r.Document, m.Endpoint, m.Method, m.Tags, m.OperationID, m.RequiresAuth, m.ContentType, m.Summary, blob,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLite) Query(ctx context.Context, collection string, vector []float32, k int, where Where) ([]Hit, error) {
	if err := where.Validate(); err != nil {
		return nil, err
	}
	if err := s.exists(ctx, collection); err != nil {
		return nil, err
	}

	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize embedding: %w", err)
	}

	query := `
		SELECT id, document, endpoint, method, tags, operation_id, requires_auth, content_type, summary,
		       vec_distance_cosine(embedding, ?) AS distance
		FROM endpoints
		WHERE collection = ?
	`
	args := []interface{}{blob, collection}

	var conds []string
	for _, c := range where {
		conds = append(conds, columns[c.Field]+" = ?")
		args = append(args, c.Value)
	}
	if len(conds) > 0 {
		query += " AND " + strings.Join(conds, " AND ")
	}

	query += `
		ORDER BY distance
		LIMIT ?
	`
	args = append(args, k)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query endpoints: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		m := &h.Metadata
		if err := rows.Scan(&h.ID, &h.Document, &m.Endpoint, &m.Method, &m.Tags, &m.OperationID, &m.RequiresAuth, &m.ContentType, &m.Summary, &h.Distance); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}

	return hits, rows.Err()
}

func (s *SQLite) Count(ctx context.Context, collection string) (int, error) {
	if err := s.exists(ctx, collection); err != nil {
		return 0, err
	}
	var n int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM endpoints WHERE collection = ?`, collection).Scan(&n)
	return n, err
}

func (s *SQLite) exists(ctx context.Context, name string) error {
	var createdAt time.Time
	err := s.conn.QueryRowContext(ctx, `SELECT created_at FROM collections WHERE name = ?`, name).Scan(&createdAt)
	if err == sql.ErrNoRows {
		return errCollectionNotFound(name)
	}
	return err
}

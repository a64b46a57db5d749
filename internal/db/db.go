// Package db provides PostgreSQL persistence for postings and their
// embedding vectors, including the pgvector nearest-neighbor search.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
	dims int
}

// StorageError wraps a failure inside the storage layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Connect establishes a connection pool, registers pgvector types, and
// ensures the postings schema exists. dims is the embedding dimension the
// schema is created with; it must match the embedding provider's output.
func Connect(ctx context.Context, databaseURL string, dims int) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{pool: pool, dims: dims}
	if err := db.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// Ping verifies database connectivity.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

func (db *DB) ensureSchema(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS postings (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	title TEXT NOT NULL,
	company TEXT NOT NULL,
	location TEXT,
	description TEXT NOT NULL,
	skills JSONB NOT NULL DEFAULT '[]',
	job_type TEXT NOT NULL DEFAULT 'unknown',
	experience_level TEXT,
	remote BOOLEAN NOT NULL DEFAULT false,
	salary_min DOUBLE PRECISION,
	salary_max DOUBLE PRECISION,
	url TEXT,
	source TEXT NOT NULL DEFAULT 'manual',
	embedding vector(%d) NOT NULL,
	embedding_model TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_postings_job_type ON postings (job_type);
CREATE INDEX IF NOT EXISTS idx_postings_created_at ON postings (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_postings_url ON postings (url);
CREATE INDEX IF NOT EXISTS idx_postings_embedding ON postings
	USING hnsw (embedding vector_cosine_ops);
`, db.dims))
	if err != nil {
		return &StorageError{Op: "ensure schema", Err: err}
	}
	return nil
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a Blob backed by a single JSONB table, for deployments that
// want conversation state to survive Redis.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Get(ctx context.Context, key string, dest any) error {
	var raw json.RawMessage
	err := p.db.QueryRow(ctx,
		"SELECT value FROM blobs WHERE key = $1", key,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("pg get %s: %w", key, err)
	}
	return json.Unmarshal(raw, dest)
}

func (p *Postgres) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = p.db.Exec(ctx,
		`INSERT INTO blobs (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, data,
	)
	if err != nil {
		return fmt.Errorf("pg set %s: %w", key, err)
	}
	return nil
}

// Update runs the read-modify-write inside a transaction holding a row
// lock on the key, so concurrent updates from any process queue up behind
// each other instead of overwriting. The row is created first when absent
// so there is always something to lock.
func (p *Postgres) Update(ctx context.Context, key string, fn func(current json.RawMessage) (json.RawMessage, error)) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg update %s: begin: %w", key, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		"INSERT INTO blobs (key, value) VALUES ($1, 'null'::jsonb) ON CONFLICT (key) DO NOTHING", key,
	)
	if err != nil {
		return fmt.Errorf("pg update %s: ensure row: %w", key, err)
	}

	var raw json.RawMessage
	if err := tx.QueryRow(ctx,
		"SELECT value FROM blobs WHERE key = $1 FOR UPDATE", key,
	).Scan(&raw); err != nil {
		return fmt.Errorf("pg update %s: lock row: %w", key, err)
	}
	if string(raw) == "null" {
		raw = nil
	}

	next, err := fn(raw)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		"UPDATE blobs SET value = $2, updated_at = now() WHERE key = $1", key, next,
	)
	if err != nil {
		return fmt.Errorf("pg update %s: write: %w", key, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pg update %s: commit: %w", key, err)
	}
	return nil
}

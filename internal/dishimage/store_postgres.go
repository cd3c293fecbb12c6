package dishimage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists terminal cache entries so ready/failed outcomes
// survive restarts and are shared across instances. Single-flight
// coalescing stays per-process in the service.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*Entry, error) {
	var e Entry
	err := s.db.QueryRow(ctx, `
		UPDATE dish_image_cache
		SET last_accessed_at = NOW()
		WHERE key = $1
		RETURNING key, status, url, created_at, last_accessed_at, expires_at
	`, key).Scan(&e.Key, &e.Status, &e.URL, &e.CreatedAt, &e.LastAccessedAt, &e.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *PostgresStore) Put(ctx context.Context, e *Entry) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO dish_image_cache (key, status, url, created_at, last_accessed_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key) DO UPDATE SET
			status = EXCLUDED.status,
			url = EXCLUDED.url,
			created_at = EXCLUDED.created_at,
			last_accessed_at = EXCLUDED.last_accessed_at,
			expires_at = EXCLUDED.expires_at
	`, e.Key, e.Status, e.URL, e.CreatedAt, e.LastAccessedAt, e.ExpiresAt)
	return err
}

package jwks

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresKeyCache implements KeyCache using PostgreSQL, sharing the cached
// JWKS document across instances of the same deployment.
type PostgresKeyCache struct {
	db *pgxpool.Pool
}

// NewPostgresKeyCache creates a new PostgreSQL key cache
func NewPostgresKeyCache(db *pgxpool.Pool) (*PostgresKeyCache, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}

	return &PostgresKeyCache{
		db: db,
	}, nil
}

// Get retrieves the cached document for key
func (c *PostgresKeyCache) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT document
		FROM sso_jwks_cache
		WHERE cache_key = $1
	`

	var document []byte
	err := c.db.QueryRow(ctx, query, key).Scan(&document)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cached key set: %w", err)
	}

	return document, nil
}

// Set stores the document under key, replacing any previous value
func (c *PostgresKeyCache) Set(ctx context.Context, key string, document []byte) error {
	query := `
		INSERT INTO sso_jwks_cache (cache_key, document, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (cache_key)
		DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()
	`

	_, err := c.db.Exec(ctx, query, key, document)
	if err != nil {
		return fmt.Errorf("failed to store key set: %w", err)
	}

	return nil
}

// Delete removes the cached document for key
func (c *PostgresKeyCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.Exec(ctx, "DELETE FROM sso_jwks_cache WHERE cache_key = $1", key)
	if err != nil {
		return fmt.Errorf("failed to delete cached key set: %w", err)
	}

	return nil
}

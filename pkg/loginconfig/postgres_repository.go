package loginconfig

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLoginConfigRepository implements LoginConfigRepository using PostgreSQL.
// The configuration lives in a single-row system table maintained by the admin UI.
type PostgresLoginConfigRepository struct {
	db *pgxpool.Pool
}

// NewPostgresLoginConfigRepository creates a new PostgreSQL login config repository
func NewPostgresLoginConfigRepository(db *pgxpool.Pool) (*PostgresLoginConfigRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}

	return &PostgresLoginConfigRepository{
		db: db,
	}, nil
}

// GetLoginConfig retrieves the persisted SSO configuration
func (r *PostgresLoginConfigRepository) GetLoginConfig(ctx context.Context) (*LoginConfig, error) {
	query := `
		SELECT base_url, token_path, jwks_path, client_id, client_secret, scope, redirect_uri
		FROM sso_login_config
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var config LoginConfig
	err := r.db.QueryRow(ctx, query).Scan(
		&config.BaseURL,
		&config.TokenPath,
		&config.JwksPath,
		&config.ClientID,
		&config.ClientSecret,
		&config.Scope,
		&config.RedirectURI,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrLoginConfigurationNotFound
		}
		return nil, fmt.Errorf("failed to get login config: %w", err)
	}

	return &config, nil
}

// SaveLoginConfig persists the SSO configuration, replacing any previous row
func (r *PostgresLoginConfigRepository) SaveLoginConfig(ctx context.Context, config *LoginConfig) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "DELETE FROM sso_login_config")
	if err != nil {
		return fmt.Errorf("failed to clear existing login config: %w", err)
	}

	query := `
		INSERT INTO sso_login_config (base_url, token_path, jwks_path, client_id, client_secret, scope, redirect_uri, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	_, err = tx.Exec(ctx, query,
		config.BaseURL,
		config.TokenPath,
		config.JwksPath,
		config.ClientID,
		config.ClientSecret,
		config.Scope,
		config.RedirectURI,
	)
	if err != nil {
		return fmt.Errorf("failed to save login config: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

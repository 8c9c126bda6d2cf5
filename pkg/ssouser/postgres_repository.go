package ssouser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations
const uniqueViolation = "23505"

// DBTX is the subset of pgxpool.Pool and pgx.Tx the repositories need
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresOAuthUserRepository implements OAuthUserRepository using PostgreSQL.
// The unique constraints on user_sub and user_id act as the conflict detector
// for concurrent first logins of the same subject.
type PostgresOAuthUserRepository struct {
	db DBTX
}

// NewPostgresOAuthUserRepository creates a new PostgreSQL shadow identity repository
func NewPostgresOAuthUserRepository(db DBTX) (*PostgresOAuthUserRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}

	return &PostgresOAuthUserRepository{
		db: db,
	}, nil
}

// The shadow table has no email column: the email rides on the user row and
// is joined in so lookups can compare it against fresh token claims.
const oauthUserQuery = `
	SELECT ou.id, ou.user_id, ou.user_sub, ou.token, ou.expiry, ou.created_at, ou.updated_at, u.email
	FROM oauth_user ou
	JOIN users u ON u.id = ou.user_id
`

// GetBySub retrieves the shadow identity for an external subject
func (r *PostgresOAuthUserRepository) GetBySub(ctx context.Context, sub string) (*ExternalAuthUser, error) {
	return r.scanAuthUser(r.db.QueryRow(ctx, oauthUserQuery+" WHERE ou.user_sub = $1", sub))
}

// GetByUserID retrieves the shadow identity linked to a local user
func (r *PostgresOAuthUserRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*ExternalAuthUser, error) {
	return r.scanAuthUser(r.db.QueryRow(ctx, oauthUserQuery+" WHERE ou.user_id = $1", userID))
}

// Create inserts a new shadow identity
func (r *PostgresOAuthUserRepository) Create(ctx context.Context, authUser *ExternalAuthUser) error {
	tokenJSON, err := marshalToken(authUser.Token)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO oauth_user (id, user_id, user_sub, token, expiry, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`

	_, err = r.db.Exec(ctx, query, authUser.ID, authUser.UserID, authUser.Sub, tokenJSON, authUser.Expiry)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrOAuthUserExists
		}
		return fmt.Errorf("failed to create oauth user: %w", err)
	}

	return nil
}

// Update persists token, expiry and email changes on an existing row
func (r *PostgresOAuthUserRepository) Update(ctx context.Context, authUser *ExternalAuthUser) error {
	tokenJSON, err := marshalToken(authUser.Token)
	if err != nil {
		return err
	}

	query := `
		UPDATE oauth_user
		SET token = $2, expiry = $3, updated_at = NOW()
		WHERE user_sub = $1
	`

	tag, err := r.db.Exec(ctx, query, authUser.Sub, tokenJSON, authUser.Expiry)
	if err != nil {
		return fmt.Errorf("failed to update oauth user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOAuthUserNotFound
	}

	return nil
}

// RemoveToken clears the stored token for a user's shadow row, keeping the row
func (r *PostgresOAuthUserRepository) RemoveToken(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE oauth_user
		SET token = NULL, updated_at = NOW()
		WHERE user_id = $1
	`

	tag, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to remove external token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOAuthUserNotFound
	}

	return nil
}

// WithTx returns a new repository instance that uses the provided transaction
func (r *PostgresOAuthUserRepository) WithTx(tx interface{}) OAuthUserRepository {
	if pgxTx, ok := tx.(pgx.Tx); ok {
		return &PostgresOAuthUserRepository{db: pgxTx}
	}
	return r
}

func (r *PostgresOAuthUserRepository) scanAuthUser(row pgx.Row) (*ExternalAuthUser, error) {
	var authUser ExternalAuthUser
	var tokenJSON []byte
	var updatedAt *time.Time

	err := row.Scan(
		&authUser.ID,
		&authUser.UserID,
		&authUser.Sub,
		&tokenJSON,
		&authUser.Expiry,
		&authUser.CreatedAt,
		&updatedAt,
		&authUser.Email,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrOAuthUserNotFound
		}
		return nil, fmt.Errorf("failed to get oauth user: %w", err)
	}

	authUser.UpdatedAt = updatedAt

	if len(tokenJSON) > 0 {
		token, err := TokenFromJSON(tokenJSON)
		if err != nil {
			return nil, fmt.Errorf("stored token is corrupt: %w", err)
		}
		authUser.Token = token
	}

	return &authUser, nil
}

func marshalToken(token *Token) ([]byte, error) {
	if token == nil {
		return nil, nil
	}

	tokenJSON, err := token.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize token: %w", err)
	}
	return tokenJSON, nil
}

// PostgresUserRepository implements the system-scoped UserRepository using
// PostgreSQL. It is distinct from any caller-facing user access: the SSO flow
// needs to write protected user fields regardless of caller permissions.
type PostgresUserRepository struct {
	db DBTX
}

// NewPostgresUserRepository creates a new PostgreSQL system user repository
func NewPostgresUserRepository(db DBTX) (*PostgresUserRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection cannot be nil")
	}

	return &PostgresUserRepository{
		db: db,
	}, nil
}

const userColumns = "id, email, username, first_name, last_name, active"

// GetByEmail retrieves a user by email
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = $1"
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

// GetByID retrieves a user by id
func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = $1"
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

// Update persists changes to the user's email, profile and active flag
func (r *PostgresUserRepository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET email = $2, username = $3, first_name = $4, last_name = $5, active = $6
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, user.ID, user.Email, user.Username, user.FirstName, user.LastName, user.Active)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *PostgresUserRepository) scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.Active,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

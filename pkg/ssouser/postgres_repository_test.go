package ssouser

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithInitScripts(filepath.Join("../../migrations", "sso_db.sql")),
		postgres.WithDatabase("sso_db"),
		postgres.WithUsername("sso"),
		postgres.WithPassword("pwd"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func insertTestUser(t *testing.T, pool *pgxpool.Pool, email string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		"INSERT INTO users (id, email, username, first_name, last_name, active) VALUES ($1, $2, $2, $2, $2, FALSE)",
		id, email)
	require.NoError(t, err)
	return id
}

func TestPostgresOAuthUserRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool := setupTestDatabase(t)
	ctx := context.Background()

	repo, err := NewPostgresOAuthUserRepository(pool)
	require.NoError(t, err)

	userID := insertTestUser(t, pool, "alice@example.com")
	otherUserID := insertTestUser(t, pool, "bob@example.com")

	token, err := NewToken("access-1", "refresh-1")
	require.NoError(t, err)
	expiry := time.Now().UTC().Add(time.Hour)

	authUser, err := NewExternalAuthUser(uuid.New(), userID, "sub-alice", token, expiry, "alice@example.com")
	require.NoError(t, err)

	t.Run("CreateAndGet", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, authUser))

		bySub, err := repo.GetBySub(ctx, "sub-alice")
		require.NoError(t, err)
		assert.Equal(t, authUser.ID, bySub.ID)
		assert.Equal(t, userID, bySub.UserID)
		assert.Equal(t, token, bySub.Token)
		assert.Equal(t, "alice@example.com", bySub.Email)
		assert.WithinDuration(t, expiry, bySub.Expiry, time.Millisecond)
		assert.False(t, bySub.CreatedAt.IsZero())
		assert.Nil(t, bySub.UpdatedAt)

		byUserID, err := repo.GetByUserID(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, bySub.ID, byUserID.ID)
	})

	t.Run("DuplicateSub", func(t *testing.T) {
		duplicate, err := NewExternalAuthUser(uuid.New(), otherUserID, "sub-alice", token, expiry, "bob@example.com")
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Create(ctx, duplicate), ErrOAuthUserExists)
	})

	t.Run("DuplicateUserID", func(t *testing.T) {
		duplicate, err := NewExternalAuthUser(uuid.New(), userID, "sub-elsewhere", token, expiry, "alice@example.com")
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Create(ctx, duplicate), ErrOAuthUserExists)
	})

	t.Run("Update", func(t *testing.T) {
		rotated, err := NewToken("access-2", "refresh-2")
		require.NoError(t, err)
		authUser.Token = rotated
		authUser.Expiry = expiry.Add(time.Hour)

		require.NoError(t, repo.Update(ctx, authUser))

		stored, err := repo.GetBySub(ctx, "sub-alice")
		require.NoError(t, err)
		assert.Equal(t, rotated, stored.Token)
		assert.WithinDuration(t, expiry.Add(time.Hour), stored.Expiry, time.Millisecond)
		assert.NotNil(t, stored.UpdatedAt)
	})

	t.Run("UpdateMissingRow", func(t *testing.T) {
		missing := *authUser
		missing.Sub = "sub-missing"
		assert.ErrorIs(t, repo.Update(ctx, &missing), ErrOAuthUserNotFound)
	})

	t.Run("RemoveToken", func(t *testing.T) {
		require.NoError(t, repo.RemoveToken(ctx, userID))

		stored, err := repo.GetByUserID(ctx, userID)
		require.NoError(t, err)
		assert.Nil(t, stored.Token)
		assert.Equal(t, "sub-alice", stored.Sub)
	})

	t.Run("RemoveTokenMissingRow", func(t *testing.T) {
		assert.ErrorIs(t, repo.RemoveToken(ctx, uuid.New()), ErrOAuthUserNotFound)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := repo.GetBySub(ctx, "sub-nobody")
		assert.ErrorIs(t, err, ErrOAuthUserNotFound)

		_, err = repo.GetByUserID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrOAuthUserNotFound)
	})
}

func TestPostgresUserRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool := setupTestDatabase(t)
	ctx := context.Background()

	repo, err := NewPostgresUserRepository(pool)
	require.NoError(t, err)

	userID := insertTestUser(t, pool, "invited@example.com")

	t.Run("GetByEmail", func(t *testing.T) {
		user, err := repo.GetByEmail(ctx, "invited@example.com")
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.True(t, user.IsInvitePlaceholder())
	})

	t.Run("GetByEmailMissing", func(t *testing.T) {
		_, err := repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		user, err := repo.GetByID(ctx, userID)
		require.NoError(t, err)

		user.Username = "invited"
		user.FirstName = "In"
		user.LastName = "Vited"
		user.Active = true
		require.NoError(t, repo.Update(ctx, user))

		updated, err := repo.GetByID(ctx, userID)
		require.NoError(t, err)
		assert.True(t, updated.Active)
		assert.Equal(t, "invited", updated.Username)
		assert.False(t, updated.IsInvitePlaceholder())
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		missing := &User{ID: uuid.New(), Email: "x@example.com"}
		assert.ErrorIs(t, repo.Update(ctx, missing), ErrUserNotFound)
	})
}

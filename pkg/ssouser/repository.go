package ssouser

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// OAuthUserRepository defines the interface for shadow identity storage.
//
// Implementations must enforce uniqueness of both Sub and UserID: concurrent
// logins for the same new subject race on the lookup-then-insert sequence, and
// the losing Create must fail with ErrOAuthUserExists rather than write a
// duplicate row.
type OAuthUserRepository interface {
	// GetBySub retrieves the shadow identity for an external subject
	GetBySub(ctx context.Context, sub string) (*ExternalAuthUser, error)

	// GetByUserID retrieves the shadow identity linked to a local user
	GetByUserID(ctx context.Context, userID uuid.UUID) (*ExternalAuthUser, error)

	// Create inserts a new shadow identity
	Create(ctx context.Context, authUser *ExternalAuthUser) error

	// Update persists token, expiry and email changes on an existing row
	Update(ctx context.Context, authUser *ExternalAuthUser) error

	// RemoveToken clears the stored token for a user's shadow row, keeping the
	// row so the subject linkage survives logout
	RemoveToken(ctx context.Context, userID uuid.UUID) error

	// WithTx returns a new repository instance that uses the provided transaction
	WithTx(tx interface{}) OAuthUserRepository
}

// UserRepository defines the system-scoped access to local platform users.
//
// The SSO flow mutates protected user fields (email sync, invite activation)
// regardless of the caller's own permissions, so services take this repository
// as an explicit elevated capability rather than reusing a caller-facing one.
type UserRepository interface {
	// GetByEmail retrieves a user by email, or ErrUserNotFound
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID retrieves a user by id, or ErrUserNotFound
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// Update persists changes to the user's email, profile and active flag
	Update(ctx context.Context, user *User) error
}

// InMemoryOAuthUserRepository implements OAuthUserRepository using in-memory storage
type InMemoryOAuthUserRepository struct {
	bySub    map[string]*ExternalAuthUser
	byUserID map[uuid.UUID]*ExternalAuthUser
	mutex    sync.RWMutex
}

// NewInMemoryOAuthUserRepository creates a new in-memory shadow identity repository
func NewInMemoryOAuthUserRepository() *InMemoryOAuthUserRepository {
	return &InMemoryOAuthUserRepository{
		bySub:    make(map[string]*ExternalAuthUser),
		byUserID: make(map[uuid.UUID]*ExternalAuthUser),
	}
}

// GetBySub retrieves the shadow identity for an external subject
func (r *InMemoryOAuthUserRepository) GetBySub(ctx context.Context, sub string) (*ExternalAuthUser, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	authUser, exists := r.bySub[sub]
	if !exists {
		return nil, ErrOAuthUserNotFound
	}

	return copyAuthUser(authUser), nil
}

// GetByUserID retrieves the shadow identity linked to a local user
func (r *InMemoryOAuthUserRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*ExternalAuthUser, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	authUser, exists := r.byUserID[userID]
	if !exists {
		return nil, ErrOAuthUserNotFound
	}

	return copyAuthUser(authUser), nil
}

// Create inserts a new shadow identity, enforcing sub and user_id uniqueness
func (r *InMemoryOAuthUserRepository) Create(ctx context.Context, authUser *ExternalAuthUser) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.bySub[authUser.Sub]; exists {
		return ErrOAuthUserExists
	}
	if _, exists := r.byUserID[authUser.UserID]; exists {
		return ErrOAuthUserExists
	}

	stored := copyAuthUser(authUser)
	r.bySub[stored.Sub] = stored
	r.byUserID[stored.UserID] = stored
	return nil
}

// Update persists changes on an existing row
func (r *InMemoryOAuthUserRepository) Update(ctx context.Context, authUser *ExternalAuthUser) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	existing, exists := r.bySub[authUser.Sub]
	if !exists {
		return ErrOAuthUserNotFound
	}

	stored := copyAuthUser(authUser)
	stored.ID = existing.ID
	stored.CreatedAt = existing.CreatedAt
	r.bySub[stored.Sub] = stored
	r.byUserID[stored.UserID] = stored
	return nil
}

// RemoveToken clears the stored token for a user's shadow row
func (r *InMemoryOAuthUserRepository) RemoveToken(ctx context.Context, userID uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	authUser, exists := r.byUserID[userID]
	if !exists {
		return ErrOAuthUserNotFound
	}

	authUser.Token = nil
	return nil
}

// WithTx returns the same instance: the in-memory implementation has no transactions
func (r *InMemoryOAuthUserRepository) WithTx(tx interface{}) OAuthUserRepository {
	return r
}

func copyAuthUser(authUser *ExternalAuthUser) *ExternalAuthUser {
	authUserCopy := *authUser
	if authUser.Token != nil {
		tokenCopy := *authUser.Token
		authUserCopy.Token = &tokenCopy
	}
	if authUser.UpdatedAt != nil {
		updatedAtCopy := *authUser.UpdatedAt
		authUserCopy.UpdatedAt = &updatedAtCopy
	}
	return &authUserCopy
}

// InMemoryUserRepository implements UserRepository using in-memory storage
type InMemoryUserRepository struct {
	users map[uuid.UUID]*User
	mutex sync.RWMutex
}

// NewInMemoryUserRepository creates a new in-memory user repository
func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: make(map[uuid.UUID]*User),
	}
}

// AddUser seeds a user, replacing any user with the same id
func (r *InMemoryUserRepository) AddUser(user *User) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	userCopy := *user
	r.users[user.ID] = &userCopy
}

// GetByEmail retrieves a user by email
func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			userCopy := *user
			return &userCopy, nil
		}
	}

	return nil, ErrUserNotFound
}

// GetByID retrieves a user by id
func (r *InMemoryUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, ErrUserNotFound
	}

	userCopy := *user
	return &userCopy, nil
}

// Update persists changes to an existing user
func (r *InMemoryUserRepository) Update(ctx context.Context, user *User) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.users[user.ID]; !exists {
		return ErrUserNotFound
	}

	userCopy := *user
	r.users[user.ID] = &userCopy
	return nil
}

package loginconfig

import (
	"context"
	"sync"
)

// LoginConfigRepository defines the interface for loading the SSO provider configuration
type LoginConfigRepository interface {
	// GetLoginConfig retrieves the persisted SSO configuration
	GetLoginConfig(ctx context.Context) (*LoginConfig, error)

	// SaveLoginConfig persists the SSO configuration
	SaveLoginConfig(ctx context.Context, config *LoginConfig) error
}

// InMemoryLoginConfigRepository implements LoginConfigRepository using in-memory storage
type InMemoryLoginConfigRepository struct {
	config *LoginConfig
	mutex  sync.RWMutex
}

// NewInMemoryLoginConfigRepository creates a new in-memory login config repository
func NewInMemoryLoginConfigRepository() *InMemoryLoginConfigRepository {
	return &InMemoryLoginConfigRepository{}
}

// GetLoginConfig retrieves the stored SSO configuration
func (r *InMemoryLoginConfigRepository) GetLoginConfig(ctx context.Context) (*LoginConfig, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.config == nil {
		return nil, ErrLoginConfigurationNotFound
	}

	// Return a copy to prevent external modifications
	configCopy := *r.config
	return &configCopy, nil
}

// SaveLoginConfig stores the SSO configuration
func (r *InMemoryLoginConfigRepository) SaveLoginConfig(ctx context.Context, config *LoginConfig) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	configCopy := *config
	r.config = &configCopy
	return nil
}

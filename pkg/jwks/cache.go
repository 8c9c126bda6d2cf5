package jwks

import (
	"context"
	"sync"
)

// KeyCache defines the interface for caching the provider's JWKS document.
// The document is stored raw so that a malformed cache entry is detected at
// read time, not hidden at write time.
type KeyCache interface {
	// Get retrieves the cached document for key, or ErrCacheMiss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores the document under key, replacing any previous value
	Set(ctx context.Context, key string, document []byte) error

	// Delete removes the cached document for key, if any
	Delete(ctx context.Context, key string) error
}

// InMemoryKeyCache implements KeyCache using in-memory storage
type InMemoryKeyCache struct {
	entries map[string][]byte
	mutex   sync.RWMutex
}

// NewInMemoryKeyCache creates a new in-memory key cache
func NewInMemoryKeyCache() *InMemoryKeyCache {
	return &InMemoryKeyCache{
		entries: make(map[string][]byte),
	}
}

// Get retrieves the cached document for key
func (c *InMemoryKeyCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	document, exists := c.entries[key]
	if !exists {
		return nil, ErrCacheMiss
	}

	// Return a copy to prevent external modifications
	documentCopy := make([]byte, len(document))
	copy(documentCopy, document)
	return documentCopy, nil
}

// Set stores the document under key
func (c *InMemoryKeyCache) Set(ctx context.Context, key string, document []byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	documentCopy := make([]byte, len(document))
	copy(documentCopy, document)
	c.entries[key] = documentCopy
	return nil
}

// Delete removes the cached document for key
func (c *InMemoryKeyCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.entries, key)
	return nil
}

package jwks

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tendant/simple-sso/pkg/loginconfig"
)

// cacheKey is the single provider-scoped cache entry for the JWKS document
const cacheKey = "sso:jwks"

// PublicKeyLoader fetches and caches the identity provider's JWKS and
// resolves signing keys by kid.
type PublicKeyLoader struct {
	configService *loginconfig.LoginConfigService
	cache         KeyCache
	httpClient    *http.Client
}

// LoaderOption is a function that configures a PublicKeyLoader
type LoaderOption func(*PublicKeyLoader)

// WithHTTPClient sets the HTTP client used for JWKS fetches
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *PublicKeyLoader) {
		l.httpClient = client
	}
}

// NewPublicKeyLoader creates a new public key loader
func NewPublicKeyLoader(configService *loginconfig.LoginConfigService, cache KeyCache, opts ...LoaderOption) *PublicKeyLoader {
	loader := &PublicKeyLoader{
		configService: configService,
		cache:         cache,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(loader)
	}

	return loader
}

// LoadPublicKey resolves the provider's signing key with the given kid.
//
// With bypassCache=false the cached JWKS document is used, falling back to a
// fresh fetch only when the cache is empty. With bypassCache=true the cache
// entry is deleted and refilled from a fresh fetch; this path exists to
// recover from provider key rotation without waiting for the cache to age
// out. The delete-then-refill is not atomic: a concurrent reader can observe
// a transient miss, which simply triggers its own fetch.
func (l *PublicKeyLoader) LoadPublicKey(ctx context.Context, keyID string, bypassCache bool) (*rsa.PublicKey, error) {
	if bypassCache {
		return l.loadFreshPublicKey(ctx, keyID)
	}

	document, err := l.cache.Get(ctx, cacheKey)
	if err == ErrCacheMiss {
		return l.loadFreshPublicKey(ctx, keyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key set cache: %w", err)
	}

	return findKeyInDocument(document, keyID)
}

// loadFreshPublicKey fetches the JWKS endpoint directly and, on success,
// replaces the cached document with the fresh one.
func (l *PublicKeyLoader) loadFreshPublicKey(ctx context.Context, keyID string) (*rsa.PublicKey, error) {
	if err := l.cache.Delete(ctx, cacheKey); err != nil {
		slog.Warn("Failed to invalidate key set cache", "error", err)
	}

	document, err := l.fetchKeySet(ctx)
	if err != nil {
		return nil, err
	}

	publicKey, err := findKeyInDocument(document, keyID)
	if err != nil {
		return nil, err
	}

	// At most one cache write per bypass call
	if err := l.cache.Set(ctx, cacheKey, document); err != nil {
		slog.Warn("Failed to repopulate key set cache", "error", err)
	}

	return publicKey, nil
}

// fetchKeySet retrieves the raw JWKS document from the provider
func (l *PublicKeyLoader) fetchKeySet(ctx context.Context) ([]byte, error) {
	config, err := l.configService.GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.JwksURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create key set request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch key set: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read key set response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("key set request failed with status %d: %s", resp.StatusCode, string(body))
	}

	slog.Info("Fetched provider key set", "url", config.JwksURL(), "bytes", len(body))
	return body, nil
}

// findKeyInDocument parses a raw JWKS document and resolves the key with keyID
func findKeyInDocument(document []byte, keyID string) (*rsa.PublicKey, error) {
	var keySet JWKS
	if err := json.Unmarshal(document, &keySet); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	jwk, found := keySet.FindKey(keyID)
	if !found {
		return nil, fmt.Errorf("%w: kid %s", ErrPublicKeyNotFound, keyID)
	}

	publicKey, err := jwk.ToPublicKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	return publicKey, nil
}

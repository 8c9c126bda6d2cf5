package idtoken

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-sso/pkg/jwks"
	"github.com/tendant/simple-sso/pkg/loginconfig"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func newConfigService(t *testing.T, baseURL string) *loginconfig.LoginConfigService {
	t.Helper()
	repo := loginconfig.NewInMemoryLoginConfigRepository()
	err := repo.SaveLoginConfig(context.Background(), &loginconfig.LoginConfig{
		BaseURL:      baseURL,
		TokenPath:    "/oauth2/token",
		JwksPath:     "/oauth2/keys",
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		Scope:        "openid profile email",
	})
	require.NoError(t, err)
	return loginconfig.NewLoginConfigService(repo)
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func serveKeySet(t *testing.T, document *[]byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(*document)
	}))
}

func keySetDocument(t *testing.T, kid string, key *rsa.PrivateKey) []byte {
	t.Helper()
	document, err := json.Marshal(jwks.JWKS{Keys: []jwks.JWK{*jwks.NewJWK(kid, &key.PublicKey)}})
	require.NoError(t, err)
	return document
}

func TestParser_ParseValidToken(t *testing.T) {
	key, err := jwks.GenerateRSAKeyPair(2048)
	require.NoError(t, err)

	document := keySetDocument(t, "key-1", key)
	server := serveKeySet(t, &document)
	defer server.Close()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	configService := newConfigService(t, server.URL)
	loader := jwks.NewPublicKeyLoader(configService, jwks.NewInMemoryKeyCache())
	parser := NewParser(configService, loader, WithClock(fixedClock{now: now}))

	idToken := signIDToken(t, key, "key-1", jwt.MapClaims{
		"iss":         server.URL,
		"sub":         "abc",
		"email":       "alice@example.com",
		"exp":         float64(now.Add(time.Hour).Unix()),
		"given_name":  "Alice",
		"family_name": "Smith",
	})

	parsed, err := parser.Parse(context.Background(), idToken)
	require.NoError(t, err)
	assert.Equal(t, "abc", parsed.Sub)
	assert.Equal(t, "alice@example.com", parsed.Email)
	assert.Equal(t, "Alice", parsed.GivenName)
	assert.Equal(t, "alice@example.com", parsed.Username)
}

func TestParser_AcceptsIssuerWithTrailingSlash(t *testing.T) {
	key, err := jwks.GenerateRSAKeyPair(2048)
	require.NoError(t, err)

	document := keySetDocument(t, "key-1", key)
	server := serveKeySet(t, &document)
	defer server.Close()

	now := time.Now().UTC()
	configService := newConfigService(t, server.URL)
	loader := jwks.NewPublicKeyLoader(configService, jwks.NewInMemoryKeyCache())
	parser := NewParser(configService, loader, WithClock(fixedClock{now: now}))

	idToken := signIDToken(t, key, "key-1", jwt.MapClaims{
		"iss":   server.URL + "/",
		"sub":   "abc",
		"email": "alice@example.com",
		"exp":   float64(now.Add(time.Hour).Unix()),
	})

	_, err = parser.Parse(context.Background(), idToken)
	assert.NoError(t, err)
}

func TestParser_RejectsForeignIssuer(t *testing.T) {
	key, err := jwks.GenerateRSAKeyPair(2048)
	require.NoError(t, err)

	document := keySetDocument(t, "key-1", key)
	server := serveKeySet(t, &document)
	defer server.Close()

	configService := newConfigService(t, server.URL)
	loader := jwks.NewPublicKeyLoader(configService, jwks.NewInMemoryKeyCache())
	parser := NewParser(configService, loader)

	idToken := signIDToken(t, key, "key-1", jwt.MapClaims{
		"iss":   "https://evil.example.com",
		"sub":   "abc",
		"email": "alice@example.com",
		"exp":   float64(time.Now().Add(time.Hour).Unix()),
	})

	_, err = parser.Parse(context.Background(), idToken)
	assert.ErrorIs(t, err, ErrInvalidIDToken)
}

func TestParser_KeyRotationRecovery(t *testing.T) {
	oldKey, err := jwks.GenerateRSAKeyPair(2048)
	require.NoError(t, err)
	newKey, err := jwks.GenerateRSAKeyPair(2048)
	require.NoError(t, err)

	// The endpoint already serves the rotated key set
	document := keySetDocument(t, "key-2", newKey)
	server := serveKeySet(t, &document)
	defer server.Close()

	now := time.Now().UTC()
	configService := newConfigService(t, server.URL)
	cache := jwks.NewInMemoryKeyCache()
	ctx := context.Background()

	// The cache still holds the pre-rotation key set
	staleDocument := keySetDocument(t, "key-1", oldKey)
	require.NoError(t, cache.Set(ctx, "sso:jwks", staleDocument))

	loader := jwks.NewPublicKeyLoader(configService, cache)
	parser := NewParser(configService, loader, WithClock(fixedClock{now: now}))

	idToken := signIDToken(t, newKey, "key-2", jwt.MapClaims{
		"iss":   server.URL,
		"sub":   "abc",
		"email": "alice@example.com",
		"exp":   float64(now.Add(time.Hour).Unix()),
	})

	parsed, err := parser.Parse(ctx, idToken)
	require.NoError(t, err)
	assert.Equal(t, "abc", parsed.Sub)

	// The bypass refilled the cache with the rotated document
	cached, err := cache.Get(ctx, "sso:jwks")
	require.NoError(t, err)
	assert.Equal(t, document, cached)
}

func TestParser_ExpiredTokenFailsAfterRetry(t *testing.T) {
	key, err := jwks.GenerateRSAKeyPair(2048)
	require.NoError(t, err)

	document := keySetDocument(t, "key-1", key)
	server := serveKeySet(t, &document)
	defer server.Close()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	configService := newConfigService(t, server.URL)
	loader := jwks.NewPublicKeyLoader(configService, jwks.NewInMemoryKeyCache())
	parser := NewParser(configService, loader, WithClock(fixedClock{now: now}))

	idToken := signIDToken(t, key, "key-1", jwt.MapClaims{
		"iss":   server.URL,
		"sub":   "abc",
		"email": "alice@example.com",
		"exp":   float64(now.Add(-time.Minute).Unix()),
	})

	_, err = parser.Parse(context.Background(), idToken)
	assert.ErrorIs(t, err, ErrInvalidIDToken)
}

func TestParser_TamperedSignatureFailsAfterRetry(t *testing.T) {
	key, err := jwks.GenerateRSAKeyPair(2048)
	require.NoError(t, err)
	otherKey, err := jwks.GenerateRSAKeyPair(2048)
	require.NoError(t, err)

	// Published key never matches the signing key
	document := keySetDocument(t, "key-1", otherKey)
	server := serveKeySet(t, &document)
	defer server.Close()

	now := time.Now().UTC()
	configService := newConfigService(t, server.URL)
	loader := jwks.NewPublicKeyLoader(configService, jwks.NewInMemoryKeyCache())
	parser := NewParser(configService, loader, WithClock(fixedClock{now: now}))

	idToken := signIDToken(t, key, "key-1", jwt.MapClaims{
		"iss":   server.URL,
		"sub":   "abc",
		"email": "alice@example.com",
		"exp":   float64(now.Add(time.Hour).Unix()),
	})

	_, err = parser.Parse(context.Background(), idToken)
	assert.ErrorIs(t, err, ErrInvalidIDToken)
}

func TestParser_UnknownKidFailsWithPublicKeyNotFound(t *testing.T) {
	key, err := jwks.GenerateRSAKeyPair(2048)
	require.NoError(t, err)

	document := keySetDocument(t, "key-1", key)
	server := serveKeySet(t, &document)
	defer server.Close()

	now := time.Now().UTC()
	configService := newConfigService(t, server.URL)
	loader := jwks.NewPublicKeyLoader(configService, jwks.NewInMemoryKeyCache())
	parser := NewParser(configService, loader, WithClock(fixedClock{now: now}))

	idToken := signIDToken(t, key, "key-9", jwt.MapClaims{
		"iss":   server.URL,
		"sub":   "abc",
		"email": "alice@example.com",
		"exp":   float64(now.Add(time.Hour).Unix()),
	})

	_, err = parser.Parse(context.Background(), idToken)
	assert.ErrorIs(t, err, jwks.ErrPublicKeyNotFound)
}

func TestParser_MissingConfiguration(t *testing.T) {
	repo := loginconfig.NewInMemoryLoginConfigRepository()
	configService := loginconfig.NewLoginConfigService(repo)
	loader := jwks.NewPublicKeyLoader(configService, jwks.NewInMemoryKeyCache())
	parser := NewParser(configService, loader)

	_, err := parser.Parse(context.Background(), "some.token.value")
	assert.ErrorIs(t, err, loginconfig.ErrLoginConfigurationNotFound)
}

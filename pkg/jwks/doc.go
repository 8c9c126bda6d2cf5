// Package jwks loads RSA signing keys from the SSO provider's JWKS endpoint.
//
// The key set document is cached under a single provider-scoped entry. The
// loader supports a one-shot cache bypass that deletes and refills the cache
// from a fresh fetch, which is how id token validation recovers when the
// provider rotates its signing keys.
//
// # Basic Usage
//
//	loader := jwks.NewPublicKeyLoader(configService, jwks.NewInMemoryKeyCache())
//	key, err := loader.LoadPublicKey(ctx, kid, false)
package jwks

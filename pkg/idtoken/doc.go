// Package idtoken parses and validates OIDC id tokens issued by the SSO provider.
//
// The parser checks the issuer against the configured provider base URL,
// verifies the RS256 signature against the key resolved from the provider's
// JWKS, and validates the temporal claims with an injected clock. When
// validation fails on the first attempt the parser retries exactly once with
// a cache-bypassing key fetch, which recovers from provider key rotation.
//
// Validated claims are exposed as an immutable ParsedIdToken built through a
// validating factory that reports every missing or invalid claim at once.
package idtoken

package jwks

import "errors"

var (
	// ErrPublicKeyNotFound is returned when the key set has no entry with the requested kid
	ErrPublicKeyNotFound = errors.New("public key not found in key set")

	// ErrInvalidPublicKey is returned when the cached key set document is malformed
	ErrInvalidPublicKey = errors.New("invalid public key document")

	// ErrCacheMiss is returned by a KeyCache when no document is stored for the key
	ErrCacheMiss = errors.New("cache miss")
)

package jwks

import (
	"crypto/rsa"
	"fmt"
)

// JWKS represents a JSON Web Key Set as defined in RFC 7517
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key as defined in RFC 7517
type JWK struct {
	// Key Type - "RSA" for RSA keys
	Kty string `json:"kty"`

	// Public Key Use - "sig" for signature
	Use string `json:"use"`

	// Key ID - unique identifier for this key
	Kid string `json:"kid"`

	// Algorithm - "RS256" for RSA with SHA-256
	Alg string `json:"alg,omitempty"`

	// RSA public key modulus (base64url encoded)
	N string `json:"n"`

	// RSA public key exponent (base64url encoded)
	E string `json:"e"`
}

// FindKey returns the key whose kid matches keyID, or false if absent
func (s *JWKS) FindKey(keyID string) (*JWK, bool) {
	for i := range s.Keys {
		if s.Keys[i].Kid == keyID {
			return &s.Keys[i], true
		}
	}
	return nil, false
}

// ToPublicKey converts a JWK to an RSA public key
func (j *JWK) ToPublicKey() (*rsa.PublicKey, error) {
	if j.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type: %s", j.Kty)
	}

	n, err := DecodeRSAPublicKeyModulus(j.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}

	e, err := DecodeRSAPublicKeyExponent(j.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	return &rsa.PublicKey{N: n, E: e}, nil
}

// NewJWK builds a JWK from an RSA public key
func NewJWK(kid string, publicKey *rsa.PublicKey) *JWK {
	return &JWK{
		Kty: "RSA",
		Use: "sig",
		Kid: kid,
		Alg: "RS256",
		N:   EncodeRSAPublicKeyModulus(publicKey),
		E:   EncodeRSAPublicKeyExponent(publicKey),
	}
}

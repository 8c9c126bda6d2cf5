package jwks

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
)

// GenerateRSAKeyPair generates a new RSA key pair with the specified bit size
func GenerateRSAKeyPair(bits int) (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, bits)
}

// EncodeRSAPublicKeyModulus encodes the RSA public key modulus as base64url
func EncodeRSAPublicKeyModulus(publicKey *rsa.PublicKey) string {
	return base64.RawURLEncoding.EncodeToString(publicKey.N.Bytes())
}

// EncodeRSAPublicKeyExponent encodes the RSA public key exponent as base64url
func EncodeRSAPublicKeyExponent(publicKey *rsa.PublicKey) string {
	exponentBytes := big.NewInt(int64(publicKey.E)).Bytes()
	return base64.RawURLEncoding.EncodeToString(exponentBytes)
}

// DecodeRSAPublicKeyModulus decodes a base64url encoded RSA modulus
func DecodeRSAPublicKeyModulus(encoded string) (*big.Int, error) {
	bytes, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64url modulus: %w", err)
	}
	if len(bytes) == 0 {
		return nil, fmt.Errorf("empty modulus")
	}
	return new(big.Int).SetBytes(bytes), nil
}

// DecodeRSAPublicKeyExponent decodes a base64url encoded RSA exponent
func DecodeRSAPublicKeyExponent(encoded string) (int, error) {
	bytes, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return 0, fmt.Errorf("invalid base64url exponent: %w", err)
	}
	if len(bytes) == 0 {
		return 0, fmt.Errorf("empty exponent")
	}

	e := new(big.Int).SetBytes(bytes)
	if !e.IsInt64() || e.Int64() > int64(^uint32(0)) {
		return 0, fmt.Errorf("exponent out of range")
	}
	return int(e.Int64()), nil
}

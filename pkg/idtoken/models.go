package idtoken

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tendant/simple-sso/pkg/validation"
)

// ParsedIdToken is the validated claim set of a provider id token.
// Immutable after creation; construct only via NewParsedIdToken.
type ParsedIdToken struct {
	Sub        string    `json:"sub" validate:"required"`
	Email      string    `json:"email" validate:"required,email"`
	Expiry     time.Time `json:"expiry" validate:"required"`
	Username   string    `json:"username"`
	GivenName  string    `json:"given_name"`
	FamilyName string    `json:"family_name"`
}

// NewParsedIdToken builds a ParsedIdToken from verified claims.
// Sub, email and expiry are required; username, given name and family name
// fall back to the email when the provider never supplied a real value.
// Returns InvalidIDTokenDataError listing every missing or invalid claim.
func NewParsedIdToken(claims jwt.MapClaims) (*ParsedIdToken, error) {
	parsed := ParsedIdToken{
		Sub:        stringClaim(claims, "sub"),
		Email:      stringClaim(claims, "email"),
		Username:   stringClaim(claims, "preferred_username"),
		GivenName:  stringClaim(claims, "given_name"),
		FamilyName: stringClaim(claims, "family_name"),
	}

	if parsed.Username == "" {
		parsed.Username = stringClaim(claims, "username")
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		parsed.Expiry = exp.Time
	}

	if errs := validation.ValidateStruct(parsed); errs != nil {
		return nil, InvalidIDTokenDataError{Fields: errs}
	}

	if parsed.Username == "" {
		parsed.Username = parsed.Email
	}
	if parsed.GivenName == "" {
		parsed.GivenName = parsed.Email
	}
	if parsed.FamilyName == "" {
		parsed.FamilyName = parsed.Email
	}

	return &parsed, nil
}

// stringClaim returns the named claim trimmed, so blank values count as absent
func stringClaim(claims jwt.MapClaims, name string) string {
	if val, ok := claims[name]; ok {
		if str, ok := val.(string); ok {
			return strings.TrimSpace(str)
		}
	}
	return ""
}

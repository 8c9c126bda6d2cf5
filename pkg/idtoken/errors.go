package idtoken

import (
	"errors"
	"fmt"

	"github.com/tendant/simple-sso/pkg/validation"
)

var (
	// ErrInvalidIDToken is returned when issuer, signature or temporal validation
	// fails even after the key rotation retry
	ErrInvalidIDToken = errors.New("invalid id token")
)

// InvalidIDTokenDataError is returned when the token's claim set is missing or
// malformed. It carries every failing claim, not just the first.
type InvalidIDTokenDataError struct {
	Fields []validation.FieldError
}

func (e InvalidIDTokenDataError) Error() string {
	return fmt.Sprintf("invalid id token data set: %s", validation.Messages(e.Fields))
}

package ssouser

import (
	"errors"
	"fmt"

	"github.com/tendant/simple-sso/pkg/validation"
)

var (
	// ErrUserNotFound is returned when neither subject nor email resolves to an
	// existing local account. SSO login never creates platform users; the
	// account must be pre-created or invited.
	ErrUserNotFound = errors.New("user not found")

	// ErrTokenNotFound is returned when a user has no stored external token
	ErrTokenNotFound = errors.New("external token not found")

	// ErrOAuthUserNotFound is returned when no shadow identity matches the lookup
	ErrOAuthUserNotFound = errors.New("oauth user not found")

	// ErrOAuthUserExists is returned when an insert violates the sub or user_id
	// uniqueness of the shadow table
	ErrOAuthUserExists = errors.New("oauth user already exists")
)

// InvalidTokenError is returned when a stored or exchanged token pair is
// missing required values. It carries every failing field.
type InvalidTokenError struct {
	Fields []validation.FieldError
}

func (e InvalidTokenError) Error() string {
	return fmt.Sprintf("invalid token: %s", validation.Messages(e.Fields))
}

// InvalidExternalAuthUserError is returned when a shadow identity fails
// construction. It carries every failing field.
type InvalidExternalAuthUserError struct {
	Fields []validation.FieldError
}

func (e InvalidExternalAuthUserError) Error() string {
	return fmt.Sprintf("invalid external auth user: %s", validation.Messages(e.Fields))
}

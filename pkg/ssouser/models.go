package ssouser

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-sso/pkg/validation"
)

// Token is the stored credential pair for a shadow identity.
// Construct only via NewToken or TokenFromJSON.
type Token struct {
	Token        string `json:"token" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// NewToken builds a Token from an access/refresh token pair.
// Returns InvalidTokenError listing every missing field.
func NewToken(accessToken, refreshToken string) (*Token, error) {
	token := Token{
		Token:        accessToken,
		RefreshToken: refreshToken,
	}

	if errs := validation.ValidateStruct(token); errs != nil {
		return nil, InvalidTokenError{Fields: errs}
	}

	return &token, nil
}

// TokenFromJSON rebuilds a Token from its stored JSON representation
func TokenFromJSON(data []byte) (*Token, error) {
	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse stored token: %w", err)
	}

	if errs := validation.ValidateStruct(token); errs != nil {
		return nil, InvalidTokenError{Fields: errs}
	}

	return &token, nil
}

// JSON serializes the Token for storage
func (t *Token) JSON() ([]byte, error) {
	return json.Marshal(t)
}

// ExternalAuthUser is the shadow identity linking an external OIDC subject to
// a local platform account (one oauth_user row). Sub and UserID are each
// unique across rows: one external identity per local user.
type ExternalAuthUser struct {
	ID        uuid.UUID  `json:"id" validate:"required"`
	UserID    uuid.UUID  `json:"user_id" validate:"required"`
	Sub       string     `json:"user_sub" validate:"required"`
	Token     *Token     `json:"token" validate:"required"`
	Expiry    time.Time  `json:"expiry"`
	Email     string     `json:"email" validate:"required,email"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// NewExternalAuthUser builds a shadow identity for a local user.
// Returns InvalidExternalAuthUserError listing every missing or invalid field.
func NewExternalAuthUser(id, userID uuid.UUID, sub string, token *Token, expiry time.Time, email string) (*ExternalAuthUser, error) {
	authUser := ExternalAuthUser{
		ID:     id,
		UserID: userID,
		Sub:    sub,
		Token:  token,
		Expiry: expiry,
		Email:  email,
	}

	if errs := validation.ValidateStruct(authUser); errs != nil {
		return nil, InvalidExternalAuthUserError{Fields: errs}
	}

	return &authUser, nil
}

// User is the local platform account the shadow identity points at.
// This subsystem only reads it and syncs email/profile fields on login.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Active    bool      `json:"active"`
}

// IsInvitePlaceholder reports whether the user was invited by email only and
// has never logged in: admins create such accounts with the email copied into
// username, first and last name, and active left false.
func (u *User) IsInvitePlaceholder() bool {
	return !u.Active &&
		u.Username == u.Email &&
		u.FirstName == u.Email &&
		u.LastName == u.Email
}

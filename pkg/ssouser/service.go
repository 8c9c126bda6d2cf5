package ssouser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-sso/pkg/externaltoken"
	"github.com/tendant/simple-sso/pkg/idtoken"
)

// UserService orchestrates SSO login: it reconciles the provider's identity
// with the local shadow table and keeps the linked platform account in sync.
//
// The users repository must be system-scoped (see UserRepository): email sync
// and invite activation write protected fields on behalf of the login flow.
type UserService struct {
	oauthUsers   OAuthUserRepository
	users        UserRepository
	tokenService *externaltoken.ExternalTokenService
	parser       *idtoken.Parser
	clock        idtoken.Clock
}

// UserServiceOption is a function that configures a UserService
type UserServiceOption func(*UserService)

// WithClock sets the clock used for token expiry decisions
func WithClock(clock idtoken.Clock) UserServiceOption {
	return func(s *UserService) {
		s.clock = clock
	}
}

// NewUserService creates a new SSO user service
func NewUserService(
	oauthUsers OAuthUserRepository,
	users UserRepository,
	tokenService *externaltoken.ExternalTokenService,
	parser *idtoken.Parser,
	opts ...UserServiceOption,
) *UserService {
	service := &UserService{
		oauthUsers:   oauthUsers,
		users:        users,
		tokenService: tokenService,
		parser:       parser,
		clock:        idtoken.UTCClock{},
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// GetAndUpdateUserByExternalToken resolves a fresh token exchange result to a
// shadow identity, creating or updating the oauth_user row.
//
// An existing subject match refreshes the stored token and syncs a changed
// email onto the local user. With no subject match the local user is resolved
// by email; SSO login never creates platform users, so a miss is
// ErrUserNotFound. First-time linkage of an invited placeholder account also
// activates it with the profile claims from the id token.
func (s *UserService) GetAndUpdateUserByExternalToken(ctx context.Context, tokenResult *externaltoken.TokenResult) (*ExternalAuthUser, error) {
	parsed, err := s.parser.Parse(ctx, tokenResult.IDToken)
	if err != nil {
		return nil, err
	}

	token, err := NewToken(tokenResult.AccessToken, tokenResult.RefreshToken)
	if err != nil {
		return nil, err
	}
	expiry := tokenResult.ExpiresAt(s.clock.Now())

	existing, err := s.oauthUsers.GetBySub(ctx, parsed.Sub)
	if err == nil {
		return s.updateExistingAuthUser(ctx, existing, parsed, token, expiry)
	}
	if !errors.Is(err, ErrOAuthUserNotFound) {
		return nil, err
	}

	// No subject match: fall back to email to link an existing account
	user, err := s.users.GetByEmail(ctx, parsed.Email)
	if err != nil {
		return nil, err
	}

	authUser, err := NewExternalAuthUser(uuid.New(), user.ID, parsed.Sub, token, expiry, parsed.Email)
	if err != nil {
		return nil, err
	}

	// A concurrent login for the same subject loses here on the unique
	// constraints rather than writing a duplicate row
	if err := s.oauthUsers.Create(ctx, authUser); err != nil {
		return nil, err
	}

	if user.IsInvitePlaceholder() {
		if err := s.activateInvitedUser(ctx, user, parsed); err != nil {
			return nil, err
		}
	}

	slog.Info("Linked external identity to local user", "sub", parsed.Sub, "user_id", user.ID)
	return authUser, nil
}

// GetRefreshedExternalTokenForUser returns a valid access token for the user,
// transparently refreshing it through the provider when the stored one has
// expired. A token whose expiry equals the current instant is still returned
// as-is; only a strictly past expiry triggers the refresh exchange.
func (s *UserService) GetRefreshedExternalTokenForUser(ctx context.Context, userID uuid.UUID) (string, error) {
	authUser, err := s.oauthUsers.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrOAuthUserNotFound) {
			return "", ErrTokenNotFound
		}
		return "", err
	}

	if authUser.Token == nil {
		return "", ErrTokenNotFound
	}

	if !authUser.Expiry.Before(s.clock.Now()) {
		return authUser.Token.Token, nil
	}

	// Token already expired, try to fetch a new one
	result, err := s.tokenService.GetUserTokenByRefreshToken(ctx, authUser.Token.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh external token: %w", err)
	}

	token, err := NewToken(result.AccessToken, result.RefreshToken)
	if err != nil {
		return "", err
	}

	authUser.Token = token
	authUser.Expiry = result.ExpiresAt(s.clock.Now())
	if err := s.oauthUsers.Update(ctx, authUser); err != nil {
		return "", err
	}

	slog.Info("Refreshed external access token", "user_id", userID)
	return token.Token, nil
}

// RemoveExternalToken clears the stored credential for the user on logout or
// revocation. The shadow row itself stays so the subject linkage survives.
func (s *UserService) RemoveExternalToken(ctx context.Context, userID uuid.UUID) error {
	if err := s.oauthUsers.RemoveToken(ctx, userID); err != nil {
		if errors.Is(err, ErrOAuthUserNotFound) {
			return ErrTokenNotFound
		}
		return err
	}

	return nil
}

// updateExistingAuthUser refreshes the stored token on a known shadow row and
// syncs a changed provider email onto the local user.
func (s *UserService) updateExistingAuthUser(ctx context.Context, authUser *ExternalAuthUser, parsed *idtoken.ParsedIdToken, token *Token, expiry time.Time) (*ExternalAuthUser, error) {
	if authUser.Email != parsed.Email {
		user, err := s.users.GetByID(ctx, authUser.UserID)
		if err != nil {
			return nil, err
		}
		user.Email = parsed.Email
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to sync user email: %w", err)
		}
		slog.Info("Synced user email from identity provider", "user_id", authUser.UserID)
		authUser.Email = parsed.Email
	}

	authUser.Token = token
	authUser.Expiry = expiry
	if err := s.oauthUsers.Update(ctx, authUser); err != nil {
		return nil, err
	}

	return authUser, nil
}

// activateInvitedUser completes invite acceptance: the placeholder profile
// fields are replaced with the id token claims and the account is activated.
func (s *UserService) activateInvitedUser(ctx context.Context, user *User, parsed *idtoken.ParsedIdToken) error {
	user.Active = true
	user.Username = parsed.Username
	user.FirstName = parsed.GivenName
	user.LastName = parsed.FamilyName

	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to activate invited user: %w", err)
	}

	slog.Info("Activated invited user on first login", "user_id", user.ID)
	return nil
}

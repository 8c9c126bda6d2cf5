// Package ssouser links external OIDC identities to local platform accounts.
//
// Each external subject is recorded as a shadow identity (one oauth_user row)
// that carries the subject, the linked local user and the current token pair.
// The package never creates platform users: a first login only succeeds when
// the provider email matches an existing account, which may be an inactive
// invite placeholder that gets activated on that login.
//
// # Overview
//
// The ssouser package provides:
//   - Shadow identity storage keyed by external subject and by local user
//   - Login reconciliation from a fresh token exchange result
//   - Email sync from the identity provider to the local account
//   - Invite acceptance on first SSO login
//   - Transparent refresh of expired external access tokens
//   - Token removal on logout while keeping the subject linkage
//
// # Basic Usage
//
//	import "github.com/tendant/simple-sso/pkg/ssouser"
//
//	// Create service
//	service := ssouser.NewUserService(oauthUserRepo, userRepo, tokenService, parser)
//
//	// Complete a login from an exchanged token
//	authUser, err := service.GetAndUpdateUserByExternalToken(ctx, tokenResult)
//
//	// Later, obtain a valid external access token for API calls
//	accessToken, err := service.GetRefreshedExternalTokenForUser(ctx, authUser.UserID)
//
// # Storage
//
// Two repository implementations are provided: PostgresOAuthUserRepository for
// production and InMemoryOAuthUserRepository for tests. Both enforce the
// uniqueness of subject and user id, which doubles as the conflict detector
// for concurrent first logins of the same subject.
package ssouser

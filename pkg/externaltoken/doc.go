// Package externaltoken exchanges OAuth2 grants with the SSO provider's
// token endpoint.
//
// It supports the authorization_code grant used at login and the
// refresh_token grant used to renew expired access tokens. Responses are
// parsed into TokenResult; transport failures propagate to the caller.
package externaltoken

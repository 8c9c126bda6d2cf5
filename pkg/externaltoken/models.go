package externaltoken

import "time"

// TokenResult represents the provider's token endpoint response.
// It is consumed immediately by the login flow and never persisted as-is.
type TokenResult struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// ExpiresAt derives the absolute access token expiry from the response
func (t *TokenResult) ExpiresAt(now time.Time) time.Time {
	return now.Add(time.Duration(t.ExpiresIn) * time.Second)
}

package loginconfig

import (
	"fmt"
	"net/url"
	"strings"
)

// LoginConfig holds the SSO provider configuration. It is loaded once per
// request from the repository and never mutated.
type LoginConfig struct {
	BaseURL      string `json:"base_url"`
	TokenPath    string `json:"token_path"`
	JwksPath     string `json:"jwks_path"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Scope        string `json:"scope"`
	RedirectURI  string `json:"redirect_uri"`
}

// Validate validates the SSO provider configuration
func (c *LoginConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if c.TokenPath == "" {
		return fmt.Errorf("token path is required")
	}
	if c.JwksPath == "" {
		return fmt.Errorf("jwks path is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client ID is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("client secret is required")
	}

	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	return nil
}

// TokenURL returns the absolute URL of the provider token endpoint
func (c *LoginConfig) TokenURL() string {
	return joinURL(c.BaseURL, c.TokenPath)
}

// JwksURL returns the absolute URL of the provider JWKS endpoint
func (c *LoginConfig) JwksURL() string {
	return joinURL(c.BaseURL, c.JwksPath)
}

func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}

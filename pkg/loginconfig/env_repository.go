package loginconfig

import (
	"context"
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// envLoginConfig maps the SSO configuration to environment variables.
// Environment variable format:
//
//	SSO_BASE_URL=https://idp.example.com
//	SSO_TOKEN_PATH=/oauth2/token
//	SSO_JWKS_PATH=/oauth2/keys
//	SSO_CLIENT_ID=my_client_id
//	SSO_CLIENT_SECRET=my_secret
//	SSO_SCOPE="openid profile email"
//	SSO_REDIRECT_URI=https://app.example.com/sso/callback
type envLoginConfig struct {
	BaseURL      string `env:"SSO_BASE_URL"`
	TokenPath    string `env:"SSO_TOKEN_PATH" env-default:"/oauth2/token"`
	JwksPath     string `env:"SSO_JWKS_PATH" env-default:"/oauth2/keys"`
	ClientID     string `env:"SSO_CLIENT_ID"`
	ClientSecret string `env:"SSO_CLIENT_SECRET"`
	Scope        string `env:"SSO_SCOPE" env-default:"openid profile email"`
	RedirectURI  string `env:"SSO_REDIRECT_URI"`
}

// EnvLoginConfigRepository loads the SSO configuration from environment variables.
// This is a read-only repository, perfect for deployments configured per-instance.
type EnvLoginConfigRepository struct {
	config *LoginConfig
}

// NewEnvLoginConfigRepository creates a repository from environment variables
func NewEnvLoginConfigRepository() (*EnvLoginConfigRepository, error) {
	var env envLoginConfig
	if err := cleanenv.ReadEnv(&env); err != nil {
		return nil, fmt.Errorf("failed to read SSO configuration from environment: %w", err)
	}

	repo := &EnvLoginConfigRepository{}

	// No base URL means SSO is not configured for this deployment
	if env.BaseURL != "" {
		repo.config = &LoginConfig{
			BaseURL:      env.BaseURL,
			TokenPath:    env.TokenPath,
			JwksPath:     env.JwksPath,
			ClientID:     env.ClientID,
			ClientSecret: env.ClientSecret,
			Scope:        env.Scope,
			RedirectURI:  env.RedirectURI,
		}
	}

	return repo, nil
}

// GetLoginConfig retrieves the SSO configuration loaded from the environment
func (r *EnvLoginConfigRepository) GetLoginConfig(ctx context.Context) (*LoginConfig, error) {
	if r.config == nil {
		return nil, ErrLoginConfigurationNotFound
	}

	configCopy := *r.config
	return &configCopy, nil
}

// SaveLoginConfig is not supported for environment-based configuration
func (r *EnvLoginConfigRepository) SaveLoginConfig(ctx context.Context, config *LoginConfig) error {
	return fmt.Errorf("environment repository is read-only")
}

package loginconfig

import (
	"context"
	"fmt"
)

// LoginConfigService supplies the SSO provider configuration to the token and
// key loading services.
type LoginConfigService struct {
	repository LoginConfigRepository
}

// NewLoginConfigService creates a new login config service with the provided repository
func NewLoginConfigService(repository LoginConfigRepository) *LoginConfigService {
	return &LoginConfigService{
		repository: repository,
	}
}

// GetConfig returns the validated SSO configuration.
// Returns ErrLoginConfigurationNotFound when no configuration is present.
func (s *LoginConfigService) GetConfig(ctx context.Context) (*LoginConfig, error) {
	config, err := s.repository.GetLoginConfig(ctx)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid login configuration: %w", err)
	}

	return config, nil
}

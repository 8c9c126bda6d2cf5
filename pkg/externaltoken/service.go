package externaltoken

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tendant/simple-sso/pkg/loginconfig"
)

// ExternalTokenService performs the OAuth2 token exchanges against the
// provider's token endpoint.
type ExternalTokenService struct {
	configService *loginconfig.LoginConfigService
	httpClient    *http.Client
}

// Option is a function that configures an ExternalTokenService
type Option func(*ExternalTokenService)

// WithHTTPClient sets the HTTP client for token endpoint calls
func WithHTTPClient(client *http.Client) Option {
	return func(s *ExternalTokenService) {
		s.httpClient = client
	}
}

// NewExternalTokenService creates a new external token service
func NewExternalTokenService(configService *loginconfig.LoginConfigService, opts ...Option) *ExternalTokenService {
	service := &ExternalTokenService{
		configService: configService,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// GetUserToken exchanges an authorization code for tokens
func (s *ExternalTokenService) GetUserToken(ctx context.Context, code string) (*TokenResult, error) {
	config, err := s.configService.GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("scope", config.Scope)
	data.Set("client_id", config.ClientID)
	data.Set("client_secret", config.ClientSecret)
	data.Set("code", code)
	data.Set("redirect_uri", config.RedirectURI)

	return s.exchange(ctx, config, data)
}

// GetUserTokenByRefreshToken exchanges a refresh token for fresh tokens
func (s *ExternalTokenService) GetUserTokenByRefreshToken(ctx context.Context, refreshToken string) (*TokenResult, error) {
	config, err := s.configService.GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("scope", config.Scope)
	data.Set("client_id", config.ClientID)
	data.Set("client_secret", config.ClientSecret)
	data.Set("refresh_token", refreshToken)

	return s.exchange(ctx, config, data)
}

// exchange POSTs the form-encoded grant to the token endpoint and parses the
// JSON response. No retry logic here: transport failures propagate to the caller.
func (s *ExternalTokenService) exchange(ctx context.Context, config *loginconfig.LoginConfig, data url.Values) (*TokenResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.TokenURL(), strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result TokenResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	slog.Info("Token exchange successful", "grant_type", data.Get("grant_type"), "token_type", result.TokenType)
	return &result, nil
}

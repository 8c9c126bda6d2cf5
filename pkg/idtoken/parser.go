package idtoken

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tendant/simple-sso/pkg/jwks"
	"github.com/tendant/simple-sso/pkg/loginconfig"
)

// Parser validates provider id tokens against the provider's published signing keys
type Parser struct {
	configService *loginconfig.LoginConfigService
	keyLoader     *jwks.PublicKeyLoader
	clock         Clock
}

// ParserOption is a function that configures a Parser
type ParserOption func(*Parser)

// WithClock sets the clock used for temporal validation
func WithClock(clock Clock) ParserOption {
	return func(p *Parser) {
		p.clock = clock
	}
}

// NewParser creates a new id token parser
func NewParser(configService *loginconfig.LoginConfigService, keyLoader *jwks.PublicKeyLoader, opts ...ParserOption) *Parser {
	parser := &Parser{
		configService: configService,
		keyLoader:     keyLoader,
		clock:         UTCClock{},
	}

	for _, opt := range opts {
		opt(parser)
	}

	return parser
}

// Parse decodes and validates a compact id token and extracts its claim set.
//
// Validation runs at most twice: the first attempt resolves the signing key
// from the JWKS cache, and if signature or temporal validation fails the
// second attempt bypasses the cache to pick up a rotated provider key. The
// bypass flag keeps the retry bound at exactly one extra attempt.
func (p *Parser) Parse(ctx context.Context, idToken string) (*ParsedIdToken, error) {
	if idToken == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidIDToken)
	}

	config, err := p.configService.GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	unverified, _, err := jwt.NewParser().ParseUnverified(idToken, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}

	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return nil, fmt.Errorf("%w: missing kid header", ErrInvalidIDToken)
	}

	issuer, err := unverified.Claims.GetIssuer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	// Providers differ on whether the issuer carries a trailing slash
	if issuer != config.BaseURL && issuer != config.BaseURL+"/" {
		return nil, fmt.Errorf("%w: issuer %q does not match provider %q", ErrInvalidIDToken, issuer, config.BaseURL)
	}

	var claims jwt.MapClaims
	var lastErr error
	verified := false

	for _, bypassCache := range []bool{false, true} {
		var publicKey *rsa.PublicKey
		publicKey, lastErr = p.keyLoader.LoadPublicKey(ctx, kid, bypassCache)
		if lastErr != nil {
			if !bypassCache {
				slog.Info("Signing key not resolved from cache, retrying with fresh key set", "kid", kid, "error", lastErr)
			}
			continue
		}

		claims = jwt.MapClaims{}
		_, lastErr = jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithTimeFunc(p.clock.Now),
			jwt.WithExpirationRequired(),
		).ParseWithClaims(idToken, claims, func(t *jwt.Token) (interface{}, error) {
			return publicKey, nil
		})
		if lastErr == nil {
			verified = true
			break
		}

		if !bypassCache {
			slog.Info("Id token validation failed, retrying with fresh key set", "kid", kid, "error", lastErr)
		}
	}

	if !verified {
		// Key set problems that survived the retry keep their own error type
		if errors.Is(lastErr, jwks.ErrPublicKeyNotFound) || errors.Is(lastErr, jwks.ErrInvalidPublicKey) {
			return nil, lastErr
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, lastErr)
	}

	return NewParsedIdToken(claims)
}

package security

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/karahan-cpu/martek-marina/internal/core/domain"
	"github.com/karahan-cpu/martek-marina/internal/core/port"
	"github.com/karahan-cpu/martek-marina/internal/infra/config"
)

// ErrInvalidToken indicates the bearer token failed verification.
var ErrInvalidToken = errors.New("security: invalid token")

// TokenVerifier validates HMAC-signed bearer tokens issued by the platform
// auth service. This service never mints tokens; it only verifies them.
type TokenVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

// NewTokenVerifier constructs a TokenVerifier from auth settings.
func NewTokenVerifier(cfg config.AuthSettings) (*TokenVerifier, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("security: auth secret is required")
	}
	return &TokenVerifier{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}, nil
}

type accessClaims struct {
	Admin bool `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// VerifyToken parses and validates the token, returning the caller identity.
func (v *TokenVerifier) VerifyToken(_ context.Context, token string) (*domain.Identity, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.audience))
	}

	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, parserOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &domain.Identity{
		UserID: claims.Subject,
		Admin:  claims.Admin,
	}, nil
}

var _ port.IdentityVerifier = (*TokenVerifier)(nil)

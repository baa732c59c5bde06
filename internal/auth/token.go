package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tickerbell/ticket-service/internal/config"
	"github.com/tickerbell/ticket-service/internal/domain"
)

// TokenCodec issues and validates signed access and refresh tokens. It holds
// no state beyond the signing secret and lifetimes and is safe for
// concurrent use once constructed.
type TokenCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenCodec builds a codec from the auth configuration.
func NewTokenCodec(cfg config.AuthConfig) (*TokenCodec, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("token codec: empty signing secret")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}
	return &TokenCodec{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL(),
		refreshTTL: cfg.RefreshTokenTTL(),
	}, nil
}

// Claims describes the JWT payload.
type Claims struct {
	Role     domain.Role      `json:"role"`
	MemberID string           `json:"uid"`
	Type     domain.TokenType `json:"type"`
	jwt.RegisteredClaims
}

// Lifetime returns how long tokens of the given type stay valid.
func (tc *TokenCodec) Lifetime(tokenType domain.TokenType) time.Duration {
	if tokenType == domain.TokenTypeRefresh {
		return tc.refreshTTL
	}
	return tc.accessTTL
}

// Issue builds and signs a token of the given type for identity.
func (tc *TokenCodec) Issue(identity domain.Identity, tokenType domain.TokenType, now time.Time) (domain.Token, error) {
	if !tokenType.Valid() {
		return domain.Token{}, fmt.Errorf("issue token: unknown type %q", tokenType)
	}
	if identity.Subject == "" || !identity.Role.Valid() {
		return domain.Token{}, errors.New("issue token: incomplete identity")
	}

	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(tc.Lifetime(tokenType)))
	claims := &Claims{
		Role:     identity.Role,
		MemberID: identity.ID,
		Type:     tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.Subject,
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tc.secret)
	if err != nil {
		return domain.Token{}, fmt.Errorf("sign token: %w", err)
	}
	return domain.Token{
		Value:     signed,
		Type:      tokenType,
		Subject:   identity.Subject,
		Role:      identity.Role,
		IssuedAt:  issuedAt.Time,
		ExpiresAt: expiresAt.Time,
	}, nil
}

// Validate verifies the signature and claims of tokenStr and returns the
// identity it carries. A token is accepted for any now in [iat, exp].
func (tc *TokenCodec) Validate(tokenStr string, expected domain.TokenType, now time.Time) (domain.Identity, error) {
	claims, err := tc.parse(tokenStr)
	if err != nil {
		return domain.Identity{}, err
	}

	if now.Before(claims.IssuedAt.Time) {
		return domain.Identity{}, fmt.Errorf("%w: issued in the future", ErrMalformedToken)
	}
	if now.After(claims.ExpiresAt.Time) {
		return domain.Identity{}, ErrTokenExpired
	}
	if claims.Type != expected {
		return domain.Identity{}, fmt.Errorf("%w: got %s, want %s", ErrTokenTypeMismatch, claims.Type, expected)
	}

	return domain.Identity{
		Subject: claims.Subject,
		Role:    claims.Role,
		ID:      claims.MemberID,
	}, nil
}

// parse checks structure and signature only. Time checks are done by
// Validate against the caller's clock.
func (tc *TokenCodec) parse(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithoutClaimsValidation(),
	)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tc.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformedToken
	}
	switch {
	case claims.Subject == "":
		return nil, fmt.Errorf("%w: missing sub", ErrMalformedToken)
	case !claims.Role.Valid():
		return nil, fmt.Errorf("%w: invalid role", ErrMalformedToken)
	case !claims.Type.Valid():
		return nil, fmt.Errorf("%w: invalid type", ErrMalformedToken)
	case claims.IssuedAt == nil || claims.ExpiresAt == nil:
		return nil, fmt.Errorf("%w: missing iat or exp", ErrMalformedToken)
	}
	return claims, nil
}

package domain

import "time"

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "ACCESS"
	TokenTypeRefresh TokenType = "REFRESH"
)

// Valid reports whether t is a known token type.
func (t TokenType) Valid() bool {
	return t == TokenTypeAccess || t == TokenTypeRefresh
}

// Identity is the authenticated member as seen by request handlers.
type Identity struct {
	Subject string
	Role    Role
	ID      string
}

// Token is a signed credential together with the claims it carries.
type Token struct {
	Value     string
	Type      TokenType
	Subject   string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is returned by login and refresh. RefreshToken is nil when a
// refresh did not rotate the refresh token.
type TokenPair struct {
	AccessToken  Token
	RefreshToken *Token
}

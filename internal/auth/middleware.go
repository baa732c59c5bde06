package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tickerbell/ticket-service/internal/domain"
)

const identityKey = "auth_identity"

type identityCtxKey struct{}

// AuthMiddleware is the authorization gate in front of protected routes.
type AuthMiddleware struct {
	codec *TokenCodec
	now   func() time.Time
}

// NewAuthMiddleware constructs middleware. now may be nil.
func NewAuthMiddleware(codec *TokenCodec, now func() time.Time) *AuthMiddleware {
	if now == nil {
		now = time.Now
	}
	return &AuthMiddleware{codec: codec, now: now}
}

// Authorize resolves the identity behind an Authorization header value.
func (m *AuthMiddleware) Authorize(authHeader string, now time.Time) (domain.Identity, error) {
	token, ok := bearerToken(authHeader)
	if !ok {
		return domain.Identity{}, ErrMissingToken
	}
	identity, err := m.codec.Validate(token, domain.TokenTypeAccess, now)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return identity, nil
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	identity, err := m.Authorize(c.Get(fiber.HeaderAuthorization), m.now())
	if err != nil {
		return ToDomainError(err)
	}

	c.Locals(identityKey, identity)
	c.SetUserContext(WithIdentity(c.UserContext(), identity))
	return c.Next()
}

// IdentityFromFiber retrieves the authenticated member from the fiber context.
func IdentityFromFiber(c *fiber.Ctx) (domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(domain.Identity)
	return identity, ok
}

// WithIdentity returns a context carrying identity.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, identity)
}

// IdentityFromContext retrieves the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey{}).(domain.Identity)
	return identity, ok
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

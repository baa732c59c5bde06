package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tickerbell/ticket-service/internal/domain"
)

// RequireIdentity ensures the gate ran and left a usable identity behind.
// Routes only carry the role claim; they do not enforce role policy.
func RequireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromFiber(c)
		if !ok || identity.Subject == "" || !identity.Role.Valid() {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}

// SelfAssignableRoles lists roles a member may pick when joining.
var SelfAssignableRoles = []domain.Role{domain.RoleUser, domain.RoleHost}

package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/civickit/grievance-service/pkg/util/errorutil"
)

// RequireCitizen ensures a citizen principal.
func RequireCitizen() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Role != RoleCitizen {
			return apperrors.NewForbidden("citizen role required")
		}
		return c.Next()
	}
}

// RequireStaff ensures an officer or admin principal.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || !principal.IsStaff() {
			return apperrors.NewForbidden("staff role required")
		}
		return c.Next()
	}
}

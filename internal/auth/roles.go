package auth

import (
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/schedulo/internal/domain"
	apperrors "github.com/spec-kit/schedulo/pkg/util/errorutil"
)

// Authenticated passes any principal attached by the auth middleware.
func Authenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// AllowRoles rejects principals whose role is not listed.
func AllowRoles(roles ...domain.Role) fiber.Handler {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	denied := "requires role " + strings.Join(names, " or ")

	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !slices.Contains(roles, p.Role) {
			return apperrors.NewForbidden(denied)
		}
		return c.Next()
	}
}

// StaffOnly admits admins and heads of department.
func StaffOnly() fiber.Handler {
	return AllowRoles(domain.RoleAdmin, domain.RoleHOD)
}

// AdminOnly admits admins.
func AdminOnly() fiber.Handler {
	return AllowRoles(domain.RoleAdmin)
}

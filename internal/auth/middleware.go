package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/schedulo/internal/domain"
	apperrors "github.com/spec-kit/schedulo/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	Role       domain.Role
	Credential *domain.Credential
}

// IdentityLoader reloads the credential named by validated claims.
type IdentityLoader interface {
	CurrentUser(ctx context.Context, claims *Claims) (*domain.Credential, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	loader IdentityLoader
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, loader IdentityLoader) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, loader: loader}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("not authorized, no token")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}
	return m.authenticate(c, strings.TrimSpace(parts[1]))
}

// HandleQueryToken authenticates with ?token= for clients that cannot set headers
// (browser websockets).
func (m *AuthMiddleware) HandleQueryToken(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return m.Handle(c)
	}
	return m.authenticate(c, token)
}

func (m *AuthMiddleware) authenticate(c *fiber.Ctx, raw string) error {
	claims, err := m.tokens.Verify(raw)
	if err != nil {
		return apperrors.NewUnauthorized("not authorized, token failed")
	}

	cred, err := m.loader.CurrentUser(c.UserContext(), claims)
	if err != nil {
		return err
	}

	c.Locals(principalKey, &Principal{Role: cred.Role, Credential: cred})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil && principal.Credential != nil
}

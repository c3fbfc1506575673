package serverutils

import (
	"strings"

	"metrocare-be/internal/pkg/identity"

	"github.com/gofiber/fiber/v2"
)

// AuthCookieName is the HTTP-only cookie set on login.
const AuthCookieName = "auth-token"

// TokenFromRequest reads the bearer header, then the auth cookie.
func TokenFromRequest(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ctx.Cookies(AuthCookieName)
}

// NewJwtMiddleware authenticates the request and puts the caller into the
// user context and the "user_id"/"role" locals.
func NewJwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := TokenFromRequest(ctx)
		if tokenStr == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}

		caller, err := identity.ParseToken(secret, tokenStr)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}

		ctx.SetUserContext(identity.WithCaller(ctx.UserContext(), caller))
		ctx.Locals("user_id", caller.UserId.String())
		ctx.Locals("role", string(caller.Role))
		return ctx.Next()
	}
}

// RequireRoles must run after the JWT middleware.
func RequireRoles(roles ...identity.Role) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		caller, ok := identity.FromContext(ctx.UserContext())
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Authentication required"))
		}
		for _, r := range roles {
			if caller.Role == r {
				return ctx.Next()
			}
		}
		return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(fiber.StatusForbidden, "Access denied"))
	}
}

// NewOptionalJwtMiddleware sets the caller when a valid token is present and
// lets anonymous requests through.
func NewOptionalJwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if tokenStr := TokenFromRequest(ctx); tokenStr != "" {
			if caller, err := identity.ParseToken(secret, tokenStr); err == nil {
				ctx.SetUserContext(identity.WithCaller(ctx.UserContext(), caller))
				ctx.Locals("user_id", caller.UserId.String())
				ctx.Locals("role", string(caller.Role))
			}
		}
		return ctx.Next()
	}
}

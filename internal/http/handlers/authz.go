package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"grocerly/internal/domain"
	applog "grocerly/internal/log"
	"grocerly/internal/services"
)

const authCookie = "Authorization"

// bearer reads the credential from the cookie, falling back to the Authorization header.
func bearer(c *fiber.Ctx) string {
	if tok := c.Cookies(authCookie); tok != "" {
		return tok
	}
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

func clearAuthCookie(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     authCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteStrictMode,
		Expires:  time.Unix(0, 0),
	})
}

// RequireUser rejects requests without a valid, unrevoked token and stores the identity in Locals("user").
func RequireUser(auth *services.AuthService, secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := bearer(c)
		if tok == "" {
			applog.Security(c, "access.denied", map[string]any{"reason": "no token"})
			return respond(c, fiber.StatusUnauthorized, "Access token required", nil)
		}
		id, err := auth.Verify(c.UserContext(), tok)
		if err != nil {
			if services.KindOf(err) == services.KindAuth {
				clearAuthCookie(c, secure)
			}
			return fail(c, "access.denied", err)
		}
		c.Locals("user", id)
		c.Locals("token", tok)
		return c.Next()
	}
}

func identity(c *fiber.Ctx) *domain.Identity {
	id, _ := c.Locals("user").(*domain.Identity)
	return id
}

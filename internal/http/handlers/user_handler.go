package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	applog "grocerly/internal/log"
	"grocerly/internal/services"
)

type UserHandler struct {
	Auth         *services.AuthService
	SecureCookie bool
	TokenTTL     time.Duration
}

func (h *UserHandler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	u, err := h.Auth.Register(c.UserContext(), in)
	if err != nil {
		return fail(c, "auth.register.fail", err)
	}
	applog.Audit(c, "auth.register", map[string]any{"user_id": u.ID})
	return respond(c, fiber.StatusCreated, "User registered successfully", fiber.Map{
		"userId":     u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"contact_no": u.ContactNumber,
	})
}

func (h *UserHandler) Login(c *fiber.Ctx) error {
	var in services.LoginInput
	if err := c.BodyParser(&in); err != nil {
		return respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	tok, u, err := h.Auth.Login(c.UserContext(), in)
	if err != nil {
		return fail(c, "auth.login.fail", err)
	}

	ck := &fiber.Cookie{
		Name:     authCookie,
		Value:    tok,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.SecureCookie,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
	if h.TokenTTL > 0 {
		ck.Expires = time.Now().Add(h.TokenTTL)
	}
	c.Cookie(ck)

	applog.Audit(c, "auth.login.success", map[string]any{"user_id": u.ID})
	return respond(c, fiber.StatusOK, "Login successful", fiber.Map{"accessToken": tok, "user": u})
}

func (h *UserHandler) Logout(c *fiber.Ctx) error {
	tok, _ := c.Locals("token").(string)
	if err := h.Auth.Logout(c.UserContext(), tok); err != nil {
		return fail(c, "auth.logout.fail", err)
	}
	clearAuthCookie(c, h.SecureCookie)
	applog.Audit(c, "auth.logout", nil)
	return respond(c, fiber.StatusOK, "Logged out successfully", nil)
}

func (h *UserHandler) Profile(c *fiber.Ctx) error {
	u, err := h.Auth.Profile(c.UserContext(), identity(c).UserID)
	if err != nil {
		return fail(c, "user.profile.fail", err)
	}
	return respond(c, fiber.StatusOK, "User fetched successfully", u)
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var in services.ProfileInput
	if err := c.BodyParser(&in); err != nil {
		return respond(c, fiber.StatusBadRequest, "Invalid request body", nil)
	}
	u, err := h.Auth.UpdateProfile(c.UserContext(), identity(c).UserID, in)
	if err != nil {
		return fail(c, "user.profile.update.fail", err)
	}
	applog.Audit(c, "user.profile.update", nil)
	return respond(c, fiber.StatusOK, "Profile updated successfully", u)
}

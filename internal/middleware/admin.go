package middleware

import (
	"strings"

	"starmatch/internal/logger"
	"starmatch/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	AdminCookie         = "starmatch_admin"
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer "
	AdminClaimsKey      = "adminClaims" // Key for storing *dto.AdminClaims in fiber.Ctx locals
	AdminLoginPath      = "/admin/login"
)

// AdminGuard protects the admin panel with the admin session token, read
// from the admin cookie or a Bearer header. Without a configured password
// the panel is open. Page requests are redirected to the login page; other
// requests get 401.
func AdminGuard(auth service.AdminAuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !auth.Enabled() {
			return c.Next()
		}

		tokenString := c.Cookies(AdminCookie)
		if header := c.Get(AuthorizationHeader); strings.HasPrefix(header, BearerSchema) {
			tokenString = strings.TrimPrefix(header, BearerSchema)
		}
		if tokenString == "" {
			return deny(c)
		}

		claims, err := auth.ValidateJWT(tokenString)
		if err != nil {
			logger.Get().Debug("AdminGuard: token rejected", zap.Error(err), zap.String("path", c.Path()))
			c.ClearCookie(AdminCookie)
			return deny(c)
		}

		c.Locals(AdminClaimsKey, claims)
		return c.Next()
	}
}

func deny(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodGet && !wantsJSON(c) {
		return c.Redirect(AdminLoginPath, fiber.StatusSeeOther)
	}
	return fiber.NewError(fiber.StatusUnauthorized, "admin login required")
}

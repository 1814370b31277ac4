package middleware

import (
	"studio-backend/internal/domain"
	"studio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const adminLocal = "admin"

// RequireAdmin lets the request through only when the session holds an admin user.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin := GetAdmin(c)
		if admin == nil {
			return response.Unauthorized(c, "")
		}
		if admin.Role != domain.RoleAdmin {
			return response.Forbidden(c, "")
		}
		return c.Next()
	}
}

// GetAdmin returns the signed-in admin, or nil.
func GetAdmin(c *fiber.Ctx) *SessionUser {
	u, _ := c.Locals(adminLocal).(*SessionUser)
	return u
}

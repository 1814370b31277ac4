package auth

import (
	authsvc "studio-backend/internal/auth"
	"studio-backend/internal/middleware"
	"studio-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Finder authsvc.AdminFinder
	Rdb    *redis.Client
	Config middleware.SessionConfig
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login POST /api/v1/auth/login
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.Finder == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
		return response.Error(c, authsvc.ErrCredentialsRequired.Error(), fiber.StatusBadRequest, nil)
	}

	admin, err := h.Finder.FindByEmailAndPassword(c.UserContext(), req.Email, req.Password)
	if err != nil {
		switch err {
		case authsvc.ErrCredentialsRequired:
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case authsvc.ErrUnknownAdmin, authsvc.ErrWrongPassword:
			log.Info().Err(err).Str("email", req.Email).Msg("Admin login rejected")
			return response.Unauthorized(c, authsvc.ErrBadCredentials.Error())
		default:
			log.Error().Err(err).Msg("Admin login failed")
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}

	user := middleware.SessionUser{
		AdminID: admin.ID.String(),
		Name:    admin.Name,
		Email:   admin.Email,
		Role:    admin.Role,
	}
	middleware.StartSession(c, h.Config, user)
	log.Info().Str("admin_id", user.AdminID).Msg("Admin logged in")

	return response.Success(c, "Login successful", fiber.Map{"user": user}, nil)
}

// Me GET /api/v1/auth/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	admin := middleware.GetAdmin(c)
	if admin == nil {
		return response.Unauthorized(c, authsvc.ErrNoAdminSession.Error())
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": admin}, nil)
}

// Logout DELETE /api/v1/auth/logout
func (h *Handlers) Logout(c *fiber.Ctx) error {
	if err := middleware.DestroySession(c, h.Rdb, h.Config); err != nil {
		log.Warn().Err(err).Msg("Session delete failed")
	}
	return response.Success(c, "Logged out successfully", nil, nil)
}

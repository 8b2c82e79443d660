package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/token-queue-service/internal/api/dto"
	"github.com/spec-kit/token-queue-service/internal/service"
	apperrors "github.com/spec-kit/token-queue-service/pkg/util"
)

// AuthHandler manages staff login.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	token, expiresAt, err := h.service.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{Success: true, Token: token, ExpiresAt: expiresAt})
}

package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/token-queue-service/internal/api/dto"
	"github.com/spec-kit/token-queue-service/internal/domain"
	"github.com/spec-kit/token-queue-service/internal/repository"
	"github.com/spec-kit/token-queue-service/internal/service"
)

// AdminHandler manages the admin queue view.
type AdminHandler struct {
	service *service.TokenService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(tokenService *service.TokenService) *AdminHandler {
	return &AdminHandler{service: tokenService}
}

// ListTokens GET /admin/tokens?page=&pageSize=&search=&status=.
func (h *AdminHandler) ListTokens(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("pageSize"), 20)

	filter := repository.TokenFilter{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.Search = &search
	}
	if statusStr := strings.TrimSpace(c.Query("status")); statusStr != "" {
		status := domain.Status(strings.ToLower(statusStr))
		if status.Valid() {
			filter.Status = &status
		}
	}

	tokens, total, err := h.service.ListTokens(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenListResponse{
		Tokens:     dto.NewTokenViews(tokens),
		TotalCount: total,
	})
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

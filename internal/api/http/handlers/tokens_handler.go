package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/token-queue-service/internal/api/dto"
	"github.com/spec-kit/token-queue-service/internal/repository"
	"github.com/spec-kit/token-queue-service/internal/service"
	apperrors "github.com/spec-kit/token-queue-service/pkg/util"
)

// TokensHandler manages the public token endpoints used by the booking form,
// the printed-ticket page and the display board.
type TokensHandler struct {
	service *service.TokenService
}

// NewTokensHandler constructs the handler.
func NewTokensHandler(tokenService *service.TokenService) *TokensHandler {
	return &TokensHandler{service: tokenService}
}

// Create POST /token/create.
func (h *TokensHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.FullName) == "" {
		return apperrors.NewValidationError("fullName required", nil)
	}

	token, err := h.service.CreateToken(c.UserContext(), service.TokenCreateInput{
		FullName: strings.TrimSpace(req.FullName),
		Mobile:   strings.TrimSpace(req.Mobile),
		Purpose:  strings.TrimSpace(req.Purpose),
		Extra:    req.Extra,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TokenEnvelope{
		Success: true,
		Token:   dto.NewTokenView(token),
	})
}

// GetByGuid GET /token/by-guid/:guid.
func (h *TokensHandler) GetByGuid(c *fiber.Ctx) error {
	token, err := h.service.GetToken(c.UserContext(), c.Params("guid"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.TokenEnvelope{Success: false})
		}
		return err
	}
	return c.JSON(dto.TokenEnvelope{Success: true, Token: dto.NewTokenView(token)})
}

// DisplayStatus GET /token/display-status.
func (h *TokensHandler) DisplayStatus(c *fiber.Ctx) error {
	snapshot, err := h.service.DisplayStatus(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.DisplayStatusResponse{
		Success:    true,
		NowServing: dto.NewTokenView(snapshot.NowServing),
		Queue:      dto.NewTokenViews(snapshot.Queue),
	})
}

// Search POST /token/search.
func (h *TokensHandler) Search(c *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	token, err := h.service.SearchToken(c.UserContext(), req.SearchTerm)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(dto.SearchResponse{Success: false})
		}
		return err
	}
	return c.JSON(dto.SearchResponse{Success: true, TokenGuid: token.ID})
}

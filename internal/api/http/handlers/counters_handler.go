package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/token-queue-service/internal/api/dto"
	"github.com/spec-kit/token-queue-service/internal/domain"
	"github.com/spec-kit/token-queue-service/internal/repository"
	"github.com/spec-kit/token-queue-service/internal/service"
	apperrors "github.com/spec-kit/token-queue-service/pkg/util"
)

// CountersHandler manages the counter-terminal endpoints.
type CountersHandler struct {
	service *service.TokenService
}

// NewCountersHandler constructs the handler.
func NewCountersHandler(tokenService *service.TokenService) *CountersHandler {
	return &CountersHandler{service: tokenService}
}

// CallNext POST /handler/call-next.
//
// An empty queue is a normal outcome reported with success:false and a
// message, not an error status.
func (h *CountersHandler) CallNext(c *fiber.Ctx) error {
	var req dto.CallNextRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	counterName := strings.TrimSpace(req.CounterName)
	if counterName == "" {
		return apperrors.NewValidationError("counterName required", nil)
	}

	token, err := h.service.CallNext(c.UserContext(), counterName)
	if err != nil {
		if errors.Is(err, service.ErrNoPendingTokens) {
			return c.JSON(dto.CallNextResponse{
				Success: false,
				Message: "no pending tokens in queue",
			})
		}
		if errors.Is(err, service.ErrCounterBusy) {
			return apperrors.NewConflict("COUNTER_BUSY", err.Error())
		}
		return err
	}

	return c.JSON(dto.CallNextResponse{
		Success:     true,
		TokenGuid:   token.ID,
		TokenNumber: token.Number,
		FullName:    token.FullName,
		Purpose:     token.Purpose,
	})
}

// UpdateStatus POST /handler/update-status.
func (h *CountersHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TokenGuid == "" {
		return apperrors.NewValidationError("tokenGuid required", nil)
	}

	status := domain.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if !status.Valid() {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": req.Status})
	}

	if _, err := h.service.UpdateStatus(c.UserContext(), req.TokenGuid, status, strings.TrimSpace(req.CounterName)); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperrors.NewNotFound("token")
		case errors.Is(err, domain.ErrInvalidTransition):
			return apperrors.NewConflict("INVALID_TRANSITION", err.Error())
		case errors.Is(err, service.ErrCounterBusy):
			return apperrors.NewConflict("COUNTER_BUSY", err.Error())
		}
		return err
	}
	return c.JSON(dto.StatusResponse{Success: true})
}

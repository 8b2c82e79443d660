package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/token-queue-service/internal/config"
	"github.com/spec-kit/token-queue-service/internal/events"
)

// NotificationService forwards token lifecycle events to the configured
// webhook. With no webhook URL configured it only logs.
type NotificationService struct {
	cfg        config.NotificationConfig
	dispatcher events.Dispatcher
	logger     *zap.Logger
	client     *http.Client
}

// NewNotificationService constructs the service.
func NewNotificationService(cfg config.NotificationConfig, dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     logger,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// RegisterHandlers subscribes the notification hooks to the dispatcher.
func (s *NotificationService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Subscribe(events.EventTokenCalled, s.handleTokenCalled)
}

func (s *NotificationService) handleTokenCalled(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TokenCalledPayload)
	if !ok {
		return nil
	}

	s.logger.Info("token called",
		zap.Int("token_number", payload.TokenNumber),
		zap.String("counter", payload.CounterName),
	)

	if s.cfg.WebhookURL == "" {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("webhook notification failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.logger.Warn("webhook notification rejected", zap.Int("status", resp.StatusCode))
	}
	return nil
}

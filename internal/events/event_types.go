package events

import (
	"time"

	"github.com/spec-kit/token-queue-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTokenCreated       EventType = "token_created"
	EventTokenCalled        EventType = "token_called"
	EventTokenStatusChanged EventType = "token_status_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TokenID   string      `json:"token_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TokenCreatedPayload payload.
type TokenCreatedPayload struct {
	TokenNumber int    `json:"token_number"`
	FullName    string `json:"full_name"`
	Purpose     string `json:"purpose"`
}

// TokenCalledPayload payload.
type TokenCalledPayload struct {
	TokenNumber int    `json:"token_number"`
	CounterName string `json:"counter_name"`
	FullName    string `json:"full_name"`
}

// TokenStatusChangedPayload payload.
type TokenStatusChangedPayload struct {
	OldStatus domain.Status `json:"old_status"`
	NewStatus domain.Status `json:"new_status"`
}

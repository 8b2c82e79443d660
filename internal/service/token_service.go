package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/token-queue-service/internal/domain"
	"github.com/spec-kit/token-queue-service/internal/events"
	"github.com/spec-kit/token-queue-service/internal/repository"
)

const (
	displayCacheKey = "display_status"
	displayCacheTTL = 2 * time.Second
)

// TokenService coordinates the token queue workflows.
type TokenService struct {
	tokens     repository.TokenStore
	cache      *redis.Client
	dispatcher events.Dispatcher
	queueSize  int
}

// TokenDependencies bundles collaborators for the token service.
type TokenDependencies struct {
	TokenStore repository.TokenStore
	Cache      *redis.Client
	Dispatcher events.Dispatcher
	// QueueSize is how many upcoming tokens the display snapshot includes.
	QueueSize int
}

// TokenCreateInput describes a booking submission.
type TokenCreateInput struct {
	FullName string
	Mobile   string
	Purpose  string
	Extra    domain.Extra
}

// DisplaySnapshot is the authoritative state a display board reconciles
// against: the token being served plus the upcoming queue.
type DisplaySnapshot struct {
	NowServing *domain.Token  `json:"nowServing"`
	Queue      []domain.Token `json:"queue"`
}

// NewTokenService constructs the service.
func NewTokenService(deps TokenDependencies) *TokenService {
	queueSize := deps.QueueSize
	if queueSize <= 0 {
		queueSize = 10
	}
	return &TokenService{
		tokens:     deps.TokenStore,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		queueSize:  queueSize,
	}
}

// CreateToken books a new pending token for today's queue.
func (s *TokenService) CreateToken(ctx context.Context, input TokenCreateInput) (*domain.Token, error) {
	now := time.Now().UTC()
	token := &domain.Token{
		ID:        uuid.NewString(),
		FullName:  input.FullName,
		Mobile:    input.Mobile,
		Purpose:   input.Purpose,
		Extra:     input.Extra,
		Status:    domain.StatusPending,
		TokenDate: now.Truncate(24 * time.Hour),
		CreatedAt: now,
	}

	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, err
	}

	s.invalidateDisplayCache(ctx)
	s.publish(ctx, events.EventTokenCreated, token.ID, events.TokenCreatedPayload{
		TokenNumber: token.Number,
		FullName:    token.FullName,
		Purpose:     token.Purpose,
	})
	return token, nil
}

// GetToken fetches a token by its immutable id.
func (s *TokenService) GetToken(ctx context.Context, id string) (*domain.Token, error) {
	return s.tokens.GetByID(ctx, id)
}

// SearchToken resolves a token number or a name/mobile fragment to a token,
// most recently created first.
func (s *TokenService) SearchToken(ctx context.Context, term string) (*domain.Token, error) {
	return s.tokens.Search(ctx, term)
}

// ListTokens returns a filtered page of tokens plus the unpaged total.
func (s *TokenService) ListTokens(ctx context.Context, filter repository.TokenFilter) ([]domain.Token, int, error) {
	return s.tokens.List(ctx, filter)
}

// DisplayStatus returns the display snapshot, served from the Redis cache
// when warm. Cache failures fall through to the store: the cache only ever
// shortens the hot path, it never owns the truth.
func (s *TokenService) DisplayStatus(ctx context.Context) (*DisplaySnapshot, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, displayCacheKey).Bytes(); err == nil {
			var snapshot DisplaySnapshot
			if err := json.Unmarshal(cached, &snapshot); err == nil {
				return &snapshot, nil
			}
		}
	}

	nowServing, err := s.tokens.NowServing(ctx)
	if err != nil {
		return nil, err
	}
	queue, err := s.tokens.PendingQueue(ctx, s.queueSize)
	if err != nil {
		return nil, err
	}

	snapshot := &DisplaySnapshot{NowServing: nowServing, Queue: queue}
	if s.cache != nil {
		if encoded, err := json.Marshal(snapshot); err == nil {
			s.cache.Set(ctx, displayCacheKey, encoded, displayCacheTTL)
		}
	}
	return snapshot, nil
}

// UpdateStatus applies a handler-requested status change through the
// transition validator and persists the result. Illegal moves return
// domain.ErrInvalidTransition and leave the stored token untouched.
func (s *TokenService) UpdateStatus(ctx context.Context, id string, next domain.Status, counterName string) (*domain.Token, error) {
	token, err := s.tokens.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Moving to called through this path must honor the same one-token-per-
	// counter rule the allocator enforces.
	if next == domain.StatusCalled {
		active, err := s.tokens.ActiveForCounter(ctx, counterName)
		if err != nil {
			return nil, err
		}
		if active != nil && active.ID != id {
			return nil, ErrCounterBusy
		}
	}

	updated, err := domain.ApplyTransition(*token, next, counterName, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.tokens.UpdateStatus(ctx, &updated); err != nil {
		return nil, err
	}

	s.invalidateDisplayCache(ctx)
	s.publish(ctx, events.EventTokenStatusChanged, updated.ID, events.TokenStatusChangedPayload{
		OldStatus: token.Status,
		NewStatus: updated.Status,
	})
	return &updated, nil
}

func (s *TokenService) invalidateDisplayCache(ctx context.Context) {
	if s.cache != nil {
		s.cache.Del(ctx, displayCacheKey)
	}
}

func (s *TokenService) publish(ctx context.Context, eventType events.EventType, tokenID string, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TokenID:   tokenID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

package repository

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/token-queue-service/internal/domain"
)

// MemoryTokenStore is an in-process TokenStore with the same claim semantics
// as the Postgres implementation. It backs the DSN-less development mode and
// the allocator tests.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*domain.Token
}

// NewMemoryTokenStore returns an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]*domain.Token)}
}

func (s *MemoryTokenStore) Create(_ context.Context, token *domain.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	max := 0
	for _, existing := range s.tokens {
		if sameDay(existing.TokenDate, token.TokenDate) && existing.Number > max {
			max = existing.Number
		}
	}
	token.Number = max + 1

	clone := *token
	s.tokens[token.ID] = &clone
	return nil
}

func (s *MemoryTokenStore) GetByID(_ context.Context, id string) (*domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *token
	return &clone, nil
}

func (s *MemoryTokenStore) OldestPending(_ context.Context) (*domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := time.Now().UTC()
	var oldest *domain.Token
	for _, token := range s.tokens {
		if token.Status != domain.StatusPending || !sameDay(token.TokenDate, today) {
			continue
		}
		if oldest == nil || token.Number < oldest.Number {
			oldest = token
		}
	}
	if oldest == nil {
		return nil, ErrNotFound
	}
	clone := *oldest
	return &clone, nil
}

// Claim performs the compare-and-swap under the store mutex: the busy check,
// the status check and the update are one atomic step, matching the guarded
// conditional UPDATE of the Postgres store.
func (s *MemoryTokenStore) Claim(_ context.Context, id, counterName string, calledAt time.Time) (*domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeForCounterLocked(counterName) != nil {
		return nil, ErrCounterBusy
	}

	token, ok := s.tokens[id]
	if !ok || token.Status != domain.StatusPending {
		return nil, ErrConflict
	}

	token.Status = domain.StatusCalled
	token.CounterName = &counterName
	at := calledAt
	token.CalledAt = &at

	clone := *token
	return &clone, nil
}

func (s *MemoryTokenStore) UpdateStatus(_ context.Context, token *domain.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tokens[token.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Status = token.Status
	existing.CounterName = token.CounterName
	existing.CalledAt = token.CalledAt
	existing.ServedAt = token.ServedAt
	return nil
}

func (s *MemoryTokenStore) NowServing(_ context.Context) (*domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := time.Now().UTC()
	var latest *domain.Token
	for _, token := range s.tokens {
		if token.Status != domain.StatusCalled || !sameDay(token.TokenDate, today) {
			continue
		}
		if latest == nil || laterCall(token, latest) {
			latest = token
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

func (s *MemoryTokenStore) ActiveForCounter(_ context.Context, counterName string) (*domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.activeForCounterLocked(counterName)
	if active == nil {
		return nil, nil
	}
	clone := *active
	return &clone, nil
}

func (s *MemoryTokenStore) activeForCounterLocked(counterName string) *domain.Token {
	today := time.Now().UTC()
	for _, token := range s.tokens {
		if token.Status != domain.StatusCalled || !sameDay(token.TokenDate, today) {
			continue
		}
		if token.CounterName != nil && *token.CounterName == counterName {
			return token
		}
	}
	return nil
}

func (s *MemoryTokenStore) PendingQueue(_ context.Context, limit int) ([]domain.Token, error) {
	if limit <= 0 {
		limit = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	today := time.Now().UTC()
	var pending []domain.Token
	for _, token := range s.tokens {
		if token.Status == domain.StatusPending && sameDay(token.TokenDate, today) {
			pending = append(pending, *token)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Number < pending[j].Number })
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *MemoryTokenStore) Search(_ context.Context, term string) (*domain.Token, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrNotFound
	}

	number, numeric := 0, false
	if n, err := strconv.Atoi(term); err == nil {
		number, numeric = n, true
	}
	lower := strings.ToLower(term)

	s.mu.Lock()
	defer s.mu.Unlock()

	var best *domain.Token
	for _, token := range s.tokens {
		match := (numeric && token.Number == number) ||
			strings.Contains(strings.ToLower(token.FullName), lower) ||
			strings.Contains(strings.ToLower(token.Mobile), lower)
		if !match {
			continue
		}
		if best == nil || token.CreatedAt.After(best.CreatedAt) {
			best = token
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	clone := *best
	return &clone, nil
}

func (s *MemoryTokenStore) List(_ context.Context, filter TokenFilter) ([]domain.Token, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []domain.Token
	for _, token := range s.tokens {
		if filter.Status != nil && token.Status != *filter.Status {
			continue
		}
		if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
			term := strings.TrimSpace(*filter.Search)
			lower := strings.ToLower(term)
			numeric := false
			if n, err := strconv.Atoi(term); err == nil && token.Number == n {
				numeric = true
			}
			if !numeric &&
				!strings.Contains(strings.ToLower(token.FullName), lower) &&
				!strings.Contains(strings.ToLower(token.Mobile), lower) {
				continue
			}
		}
		matched = append(matched, *token)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := len(matched)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func laterCall(a, b *domain.Token) bool {
	if a.CalledAt == nil {
		return false
	}
	if b.CalledAt == nil {
		return true
	}
	return a.CalledAt.After(*b.CalledAt)
}

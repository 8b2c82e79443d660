package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/token-queue-service/internal/domain"
	"github.com/spec-kit/token-queue-service/internal/repository"
)

func newTestService(t *testing.T) (*TokenService, *repository.MemoryTokenStore) {
	t.Helper()
	store := repository.NewMemoryTokenStore()
	svc := NewTokenService(TokenDependencies{TokenStore: store})
	return svc, store
}

func seedPending(t *testing.T, svc *TokenService, names ...string) []*domain.Token {
	t.Helper()
	ctx := context.Background()
	tokens := make([]*domain.Token, 0, len(names))
	for _, name := range names {
		token, err := svc.CreateToken(ctx, TokenCreateInput{FullName: name, Mobile: "555-0100", Purpose: "Consultation"})
		require.NoError(t, err)
		tokens = append(tokens, token)
	}
	return tokens
}

func TestCallNextEmptyQueue(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CallNext(context.Background(), "Counter 1")
	assert.ErrorIs(t, err, ErrNoPendingTokens)
}

func TestCallNextClaimsOldestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seeded := seedPending(t, svc, "Alice", "Bob", "Carol")

	for i, want := range seeded {
		claimed, err := svc.CallNext(ctx, "Counter 1")
		require.NoError(t, err, "call %d", i+1)
		assert.Equal(t, want.ID, claimed.ID)
		assert.Equal(t, want.Number, claimed.Number)
		assert.Equal(t, domain.StatusCalled, claimed.Status)
		require.NotNil(t, claimed.CounterName)
		assert.Equal(t, "Counter 1", *claimed.CounterName)
		require.NotNil(t, claimed.CalledAt)

		// Resolve before the next call; a counter serves one token at a time.
		_, err = svc.UpdateStatus(ctx, claimed.ID, domain.StatusServed, "Counter 1")
		require.NoError(t, err)
	}

	_, err := svc.CallNext(ctx, "Counter 1")
	assert.ErrorIs(t, err, ErrNoPendingTokens)
}

func TestCallNextConcurrentCountersClaimDistinctTokens(t *testing.T) {
	svc, _ := newTestService(t)
	seedPending(t, svc, "Alice")

	const counters = 2
	results := make([]*domain.Token, counters)
	errs := make([]error, counters)

	var wg sync.WaitGroup
	for i := 0; i < counters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.CallNext(context.Background(), fmt.Sprintf("Counter %d", i+1))
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := 0; i < counters; i++ {
		if errs[i] == nil {
			winners++
			assert.Equal(t, domain.StatusCalled, results[i].Status)
		} else {
			assert.ErrorIs(t, errs[i], ErrNoPendingTokens)
		}
	}
	assert.Equal(t, 1, winners, "exactly one counter must win the single pending token")
}

func TestCallNextManyConcurrentClaimsAreDisjoint(t *testing.T) {
	svc, _ := newTestService(t)
	const tokens = 8
	names := make([]string, tokens)
	for i := range names {
		names[i] = "Visitor"
	}
	seedPending(t, svc, names...)

	claimed := make(chan string, tokens)
	var wg sync.WaitGroup
	for i := 0; i < tokens; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, err := svc.CallNext(context.Background(), fmt.Sprintf("Counter %d", i+1))
			if err == nil {
				claimed <- token.ID
			}
		}(i)
	}
	wg.Wait()
	close(claimed)

	seen := make(map[string]bool)
	for id := range claimed {
		assert.False(t, seen[id], "token %s claimed twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, tokens)
}

func TestCallNextRefusesBusyCounter(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seeded := seedPending(t, svc, "Alice", "Bob")

	first, err := svc.CallNext(ctx, "Counter 1")
	require.NoError(t, err)
	assert.Equal(t, seeded[0].ID, first.ID)

	// The counter still holds a called token, so the second claim must be
	// refused and the next candidate must stay pending.
	_, err = svc.CallNext(ctx, "Counter 1")
	assert.ErrorIs(t, err, ErrCounterBusy)

	second, err := store.GetByID(ctx, seeded[1].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, second.Status)

	// Another counter is free to claim it.
	other, err := svc.CallNext(ctx, "Counter 2")
	require.NoError(t, err)
	assert.Equal(t, seeded[1].ID, other.ID)

	// Resolving the current token frees the counter again.
	_, err = svc.UpdateStatus(ctx, first.ID, domain.StatusServed, "Counter 1")
	require.NoError(t, err)
	seedPending(t, svc, "Carol")
	_, err = svc.CallNext(ctx, "Counter 1")
	require.NoError(t, err)
}

func TestSameCounterConcurrentCallNextWinsAtMostOnce(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seeded := seedPending(t, svc, "Alice", "Bob")

	const attempts = 4
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CallNext(ctx, "Counter 1")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrCounterBusy)
		}
	}
	assert.Equal(t, 1, winners, "a counter may hold at most one called token")

	calledAtCounter := 0
	for _, id := range []string{seeded[0].ID, seeded[1].ID} {
		token, err := store.GetByID(ctx, id)
		require.NoError(t, err)
		if token.Status == domain.StatusCalled {
			calledAtCounter++
			require.NotNil(t, token.CounterName)
			assert.Equal(t, "Counter 1", *token.CounterName)
		}
	}
	assert.Equal(t, 1, calledAtCounter)
}

func TestUpdateStatusToCalledHonorsBusyCounter(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seeded := seedPending(t, svc, "Alice", "Bob")

	_, err := svc.CallNext(ctx, "Counter 1")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, seeded[1].ID, domain.StatusCalled, "Counter 1")
	assert.ErrorIs(t, err, ErrCounterBusy)

	stored, err := svc.GetToken(ctx, seeded[1].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
}

func TestCallNextCancelledContext(t *testing.T) {
	svc, _ := newTestService(t)
	seedPending(t, svc, "Alice")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.CallNext(ctx, "Counter 1")
	assert.True(t, errors.Is(err, context.Canceled))
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/token-queue-service/internal/domain"
	"github.com/spec-kit/token-queue-service/internal/events"
	"github.com/spec-kit/token-queue-service/internal/repository"
)

// CallNext atomically claims the oldest pending token for the named counter.
//
// A counter serves one token at a time: while it holds a called token the
// claim is refused with ErrCounterBusy, enforced inside the store's claim so
// concurrent calls from the same counter cannot both win.
//
// Selection and claim are separate store calls, so two counters may select
// the same token; the claim itself is a compare-and-swap guarded by the
// token's pending status, and the loser falls through to the next-oldest
// candidate. ErrNoPendingTokens is returned once no candidates remain.
func (s *TokenService) CallNext(ctx context.Context, counterName string) (*domain.Token, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidate, err := s.tokens.OldestPending(ctx)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNoPendingTokens
			}
			return nil, err
		}

		claimed, err := s.tokens.Claim(ctx, candidate.ID, counterName, time.Now().UTC())
		if err != nil {
			if errors.Is(err, repository.ErrCounterBusy) {
				return nil, ErrCounterBusy
			}
			if errors.Is(err, repository.ErrConflict) {
				// Lost the race; the token is no longer pending. Retry
				// selection, which skips it.
				continue
			}
			return nil, err
		}

		s.invalidateDisplayCache(ctx)
		s.publish(ctx, events.EventTokenCalled, claimed.ID, events.TokenCalledPayload{
			TokenNumber: claimed.Number,
			CounterName: counterName,
			FullName:    claimed.FullName,
		})
		return claimed, nil
	}
}

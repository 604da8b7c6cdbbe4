package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/tripproposal/internal/domain"
	"github.com/pkordes/tripproposal/internal/ratelimit"
)

// throttledTripStore waits on a per-trip token bucket before every call.
type throttledTripStore struct {
	next    TripStore
	limiter *ratelimit.KeyedLimiter
}

// Throttle wraps a TripStore so calls for the same trip share one rate limit.
func Throttle(next TripStore, limiter *ratelimit.KeyedLimiter) TripStore {
	return &throttledTripStore{next: next, limiter: limiter}
}

func (t *throttledTripStore) wait(ctx context.Context, tripID uuid.UUID) error {
	if err := t.limiter.Wait(ctx, tripID.String()); err != nil {
		return fmt.Errorf("repo.Throttle: %w: %w", domain.ErrTransient, err)
	}
	return nil
}

func (t *throttledTripStore) FetchTrip(ctx context.Context, tripID uuid.UUID) (domain.Trip, error) {
	if err := t.wait(ctx, tripID); err != nil {
		return domain.Trip{}, err
	}
	return t.next.FetchTrip(ctx, tripID)
}

func (t *throttledTripStore) ApplyStays(ctx context.Context, tripID uuid.UUID, cmds []domain.StayCommand) ([]domain.StayRecord, error) {
	if err := t.wait(ctx, tripID); err != nil {
		return nil, err
	}
	return t.next.ApplyStays(ctx, tripID, cmds)
}

func (t *throttledTripStore) CreateStay(ctx context.Context, tripID uuid.UUID, cmd domain.StayCommand) (domain.StayRecord, error) {
	if err := t.wait(ctx, tripID); err != nil {
		return domain.StayRecord{}, err
	}
	return t.next.CreateStay(ctx, tripID, cmd)
}

func (t *throttledTripStore) DeleteStay(ctx context.Context, tripID, stayID uuid.UUID) error {
	if err := t.wait(ctx, tripID); err != nil {
		return err
	}
	return t.next.DeleteStay(ctx, tripID, stayID)
}

package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pkordes/tripproposal/internal/domain"
)

// DefaultPlanTTL is how long a split-stay configuration survives in the cache
// without being touched.
const DefaultPlanTTL = 30 * 24 * time.Hour

// PlanCache stores the per-trip split-stay configuration. It is advisory:
// the trip store stays the source of truth and callers validate whatever
// they load against the current trip.
type PlanCache interface {
	// Load returns domain.ErrNotFound when nothing is cached for the trip.
	Load(ctx context.Context, tripID uuid.UUID) (domain.SplitStay, error)
	Save(ctx context.Context, plan domain.SplitStay) error
	Delete(ctx context.Context, tripID uuid.UUID) error
}

// RedisPlanCache keeps one JSON document per trip under "splitstay:<trip id>".
type RedisPlanCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ PlanCache = (*RedisPlanCache)(nil)

// RedisConfig configures NewRedisClient.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings with a short timeout so a bad address
// fails at startup rather than on the first request.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("repo.NewRedisClient: ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewRedisPlanCache wraps an existing client. A non-positive ttl falls back
// to DefaultPlanTTL.
func NewRedisPlanCache(client redis.UniversalClient, ttl time.Duration) *RedisPlanCache {
	if ttl <= 0 {
		ttl = DefaultPlanTTL
	}
	return &RedisPlanCache{client: client, ttl: ttl}
}

func (c *RedisPlanCache) Load(ctx context.Context, tripID uuid.UUID) (domain.SplitStay, error) {
	data, err := c.client.Get(ctx, planKey(tripID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.SplitStay{}, fmt.Errorf("repo.RedisPlanCache.Load: %w", domain.ErrNotFound)
		}
		return domain.SplitStay{}, fmt.Errorf("repo.RedisPlanCache.Load: %w", err)
	}

	var plan domain.SplitStay
	if err := json.Unmarshal(data, &plan); err != nil {
		return domain.SplitStay{}, fmt.Errorf("repo.RedisPlanCache.Load: decode: %w", err)
	}
	return plan, nil
}

func (c *RedisPlanCache) Save(ctx context.Context, plan domain.SplitStay) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("repo.RedisPlanCache.Save: encode: %w", err)
	}
	if err := c.client.Set(ctx, planKey(plan.TripID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("repo.RedisPlanCache.Save: %w", err)
	}
	return nil
}

func (c *RedisPlanCache) Delete(ctx context.Context, tripID uuid.UUID) error {
	if err := c.client.Del(ctx, planKey(tripID)).Err(); err != nil {
		return fmt.Errorf("repo.RedisPlanCache.Delete: %w", err)
	}
	return nil
}

func planKey(tripID uuid.UUID) string {
	return "splitstay:" + tripID.String()
}

// MemoryPlanCache is the in-process PlanCache. Entries do not expire.
type MemoryPlanCache struct {
	mu    sync.RWMutex
	plans map[uuid.UUID]domain.SplitStay
}

var _ PlanCache = (*MemoryPlanCache)(nil)

func NewMemoryPlanCache() *MemoryPlanCache {
	return &MemoryPlanCache{plans: make(map[uuid.UUID]domain.SplitStay)}
}

func (c *MemoryPlanCache) Load(_ context.Context, tripID uuid.UUID) (domain.SplitStay, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	plan, ok := c.plans[tripID]
	if !ok {
		return domain.SplitStay{}, fmt.Errorf("repo.MemoryPlanCache.Load: %w", domain.ErrNotFound)
	}
	return clonePlan(plan), nil
}

func (c *MemoryPlanCache) Save(_ context.Context, plan domain.SplitStay) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans[plan.TripID] = clonePlan(plan)
	return nil
}

func (c *MemoryPlanCache) Delete(_ context.Context, tripID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.plans, tripID)
	return nil
}

func clonePlan(p domain.SplitStay) domain.SplitStay {
	p.Durations = slices.Clone(p.Durations)
	p.Segments = slices.Clone(p.Segments)
	return p
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"parcel-dispatch-service/internal/domain"
	"parcel-dispatch-service/internal/platform/obs"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	PlanKeyPrefix   = "dispatch:plan:"
	DefaultPlanTTL  = 30 * time.Minute
	redisPingBudget = 5 * time.Second
)

// Redis backed cache of committed plan records, stored as JSON.
type RedisPlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPlanCache connects to addr and verifies the connection.
// A non-positive ttl selects DefaultPlanTTL.
func NewRedisPlanCache(ctx context.Context, addr, password string, ttl time.Duration) (*RedisPlanCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingBudget)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("plan cache: redis connection failed: %w", err)
	}

	return NewRedisPlanCacheFromClient(client, ttl), nil
}

func NewRedisPlanCacheFromClient(client *redis.Client, ttl time.Duration) *RedisPlanCache {
	if ttl <= 0 {
		ttl = DefaultPlanTTL
	}
	return &RedisPlanCache{client: client, ttl: ttl}
}

func planKey(runID string) string {
	return PlanKeyPrefix + runID
}

func (c *RedisPlanCache) GetPlan(ctx context.Context, runID string) (_ *domain.PlanRecord, _ bool, err error) {
	defer obs.Time(ctx, "cache.GetPlan")(&err)

	data, err := c.client.Get(ctx, planKey(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("plan cache: redis get %s: %w", runID, err)
	}

	var rec domain.PlanRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("plan cache: decode %s: %w", runID, err)
	}
	return &rec, true, nil
}

func (c *RedisPlanCache) SetPlan(ctx context.Context, rec domain.PlanRecord) (err error) {
	defer obs.Time(ctx, "cache.SetPlan")(&err)

	if rec.RunID == "" {
		return fmt.Errorf("plan cache: missing run id: %w", domain.ErrValidation)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("plan cache: encode %s: %w", rec.RunID, err)
	}

	if err := c.client.Set(ctx, planKey(rec.RunID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("plan cache: redis set %s: %w", rec.RunID, err)
	}
	return nil
}

func (c *RedisPlanCache) Close() error {
	return c.client.Close()
}

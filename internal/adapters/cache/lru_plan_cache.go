package cache

import (
	"context"
	"fmt"
	"parcel-dispatch-service/internal/domain"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultPlanCacheSize = 128

// In-process plan cache used when no Redis address is configured.
// Records are stored by value; callers get their own copy of the top-level
// struct but share slices, which nothing mutates after commit.
type LRUPlanCache struct {
	plans *lru.Cache[string, domain.PlanRecord]
}

// A non-positive size selects DefaultPlanCacheSize.
func NewLRUPlanCache(size int) (*LRUPlanCache, error) {
	if size <= 0 {
		size = DefaultPlanCacheSize
	}
	plans, err := lru.New[string, domain.PlanRecord](size)
	if err != nil {
		return nil, fmt.Errorf("plan cache: new lru: %w", err)
	}
	return &LRUPlanCache{plans: plans}, nil
}

func (c *LRUPlanCache) GetPlan(_ context.Context, runID string) (*domain.PlanRecord, bool, error) {
	rec, ok := c.plans.Get(runID)
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

func (c *LRUPlanCache) SetPlan(_ context.Context, rec domain.PlanRecord) error {
	if rec.RunID == "" {
		return fmt.Errorf("plan cache: missing run id: %w", domain.ErrValidation)
	}
	c.plans.Add(rec.RunID, rec)
	return nil
}

func (c *LRUPlanCache) Len() int { return c.plans.Len() }

package cache

import (
	"context"
	"parcel-dispatch-service/internal/domain"
	"parcel-dispatch-service/internal/ports"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.PlanCache = (*RedisPlanCache)(nil)
	_ ports.PlanCache = (*LRUPlanCache)(nil)
)

func sampleRecord(runID string) domain.PlanRecord {
	pid := domain.ParcelID(4)
	at := domain.NewClock(9, 12)
	return domain.PlanRecord{
		RunID:     runID,
		Attempts:  1,
		Hub:       "HUB",
		CreatedAt: time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC),
		Drivers:   []string{"Driver1"},
		Parcels: []domain.ParcelRecord{{
			ID: pid, Street: "A", Deadline: domain.EndOfDay, Status: domain.Delivered, DeliveredAt: &at,
			History: []domain.AddressChangeRecord{{Street: "A"}},
		}},
		Events: []domain.EventRecord{{Vehicle: 0, Parcel: &pid, At: at, Action: domain.Deliver, Address: "A", Actual: &at}},
	}
}

func newMiniredisCache(t *testing.T, ttl time.Duration) (*RedisPlanCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := NewRedisPlanCache(context.Background(), mr.Addr(), "", ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisPlanCacheRoundTrip(t *testing.T) {
	c, mr := newMiniredisCache(t, time.Minute)
	ctx := context.Background()

	_, ok, err := c.GetPlan(ctx, "run-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetPlan(ctx, sampleRecord("run-1")))
	assert.True(t, mr.Exists(PlanKeyPrefix+"run-1"))
	assert.Equal(t, time.Minute, mr.TTL(PlanKeyPrefix+"run-1"))

	got, ok, err := c.GetPlan(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleRecord("run-1"), *got)
}

func TestRedisPlanCacheExpires(t *testing.T) {
	c, mr := newMiniredisCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.SetPlan(ctx, sampleRecord("run-2")))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.GetPlan(ctx, "run-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisPlanCacheRejectsCorruptEntry(t *testing.T) {
	c, mr := newMiniredisCache(t, 0)
	require.NoError(t, mr.Set(PlanKeyPrefix+"bad", "{not json"))

	_, _, err := c.GetPlan(context.Background(), "bad")
	assert.Error(t, err)
}

func TestRedisPlanCacheDefaultTTL(t *testing.T) {
	c := NewRedisPlanCacheFromClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), 0)
	t.Cleanup(func() { _ = c.Close() })
	assert.Equal(t, DefaultPlanTTL, c.ttl)
}

func TestNewRedisPlanCacheUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisPlanCache(context.Background(), addr, "", 0)
	assert.Error(t, err)
}

func TestLRUPlanCacheEvictsOldest(t *testing.T) {
	c, err := NewLRUPlanCache(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.SetPlan(ctx, sampleRecord("a")))
	require.NoError(t, c.SetPlan(ctx, sampleRecord("b")))
	require.NoError(t, c.SetPlan(ctx, sampleRecord("c")))
	assert.Equal(t, 2, c.Len())

	_, ok, err := c.GetPlan(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err := c.GetPlan(ctx, "c")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "c", got.RunID)

	assert.ErrorIs(t, c.SetPlan(ctx, domain.PlanRecord{}), domain.ErrValidation)
}

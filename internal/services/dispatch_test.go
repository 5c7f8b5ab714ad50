package services

import (
	"context"
	"errors"
	"parcel-dispatch-service/internal/adapters/repositories"
	"parcel-dispatch-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	parcels []*domain.Parcel
	err     error
}

func (s staticSource) ListParcels(context.Context) ([]*domain.Parcel, error) {
	return s.parcels, s.err
}

func newTestDispatcher(parcels []*domain.Parcel) *Dispatcher {
	return NewDispatcher(staticSource{parcels: parcels}, sixStops(), repositories.NewMemoryRepository, nil)
}

func TestPlanDeliveriesRetriesWithLargerFleet(t *testing.T) {
	baseline := sixParcels()[:3]
	d := newTestDispatcher(baseline)

	plan, err := d.PlanDeliveries(context.Background(), DispatchRequest{
		Hub:      "HUB",
		Vehicles: 1,
		Drivers:  1,
		Capacity: 2,
		SpeedMPH: 18,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, plan.Attempts)
	assert.Len(t, plan.Fleet.Vehicles, 2)
	assert.Equal(t, []string{"Driver1"}, plan.Fleet.Drivers)
	assert.NotEmpty(t, plan.RunID)
	require.Len(t, plan.Parcels, 3)
	for _, p := range plan.Parcels {
		assert.Equal(t, domain.Delivered, p.Status, "parcel %d", p.ID)
	}
	assert.Positive(t, plan.TotalDistance())

	for _, p := range baseline {
		assert.Equal(t, domain.AtHub, p.Status, "baseline parcel %d untouched", p.ID)
		assert.Nil(t, p.Vehicle)
		assert.Nil(t, p.Priority)
	}
}

func TestPlanDeliveriesGivesUp(t *testing.T) {
	d := newTestDispatcher(sixParcels())

	_, err := d.PlanDeliveries(context.Background(), DispatchRequest{
		Hub:         "HUB",
		Vehicles:    1,
		Drivers:     1,
		Capacity:    1,
		MaxAttempts: 2,
	})
	assert.ErrorIs(t, err, domain.ErrInfeasible)
}

func TestPlanDeliveriesRejectsUnknownAddress(t *testing.T) {
	parcels := sixParcels()[:2]
	parcels[1].Address.Street = "Nowhere"

	_, err := newTestDispatcher(parcels).PlanDeliveries(context.Background(), DispatchRequest{Hub: "HUB"})
	assert.ErrorIs(t, err, domain.ErrUnknownAddress)
}

func TestPlanDeliveriesRejectsUnknownCorrection(t *testing.T) {
	parcels := sixParcels()[:2]
	parcels[0].Note = domain.AddressCorrection{At: domain.NewClock(10, 0), Address: domain.Address{Street: "Nowhere"}}

	_, err := newTestDispatcher(parcels).PlanDeliveries(context.Background(), DispatchRequest{Hub: "HUB"})
	assert.ErrorIs(t, err, domain.ErrUnknownAddress)
}

func TestPlanDeliveriesStopsOnValidationError(t *testing.T) {
	parcels := []*domain.Parcel{
		parcelAt(1, "A", domain.NewClock(9, 0), domain.Delayed{Until: domain.NewClock(10, 0)}),
	}

	_, err := newTestDispatcher(parcels).PlanDeliveries(context.Background(), DispatchRequest{Hub: "HUB", GroupDelayedWithDeadline: true})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "attempt 1")
}

func TestPlanDeliveriesSourceError(t *testing.T) {
	boom := errors.New("boom")
	d := NewDispatcher(staticSource{err: boom}, sixStops(), repositories.NewMemoryRepository, nil)

	_, err := d.PlanDeliveries(context.Background(), DispatchRequest{Hub: "HUB"})
	assert.ErrorIs(t, err, boom)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"parcel-dispatch-service/internal/domain"
	"parcel-dispatch-service/internal/platform/obs"
	"parcel-dispatch-service/internal/ports"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultMaxAttempts = 10
	DefaultVehicles    = 3
	DefaultDrivers     = 2
)

type DispatchRequest struct {
	Hub         string
	Vehicles    int
	Drivers     int
	Capacity    int
	SpeedMPH    float64
	MaxAttempts int
	// Split delayed parcels with deadlines into mutually satisfiable groups.
	GroupDelayedWithDeadline bool
	// Seeds the cluster splitter so runs are reproducible.
	Seed uint64
}

func (r DispatchRequest) withDefaults() DispatchRequest {
	if r.Hub == "" {
		r.Hub = domain.DefaultHub
	}
	if r.Vehicles <= 0 {
		r.Vehicles = DefaultVehicles
	}
	if r.Drivers < 0 {
		r.Drivers = 0
	}
	if r.Capacity <= 0 {
		r.Capacity = domain.DefaultCapacity
	}
	if r.SpeedMPH <= 0 {
		r.SpeedMPH = domain.DefaultSpeedMPH
	}
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = DefaultMaxAttempts
	}
	return r
}

// Dispatcher runs the whole planning pipeline: constraint resolution,
// loading, timeline construction and replay.
type Dispatcher struct {
	Parcels       ports.ParcelSource
	Dist          ports.DistanceProvider
	Reporter      ports.Reporter
	Pacer         Pacer
	NewRepository func([]*domain.Parcel) ports.ParcelRepository
	Now           func() time.Time
}

func NewDispatcher(
	parcels ports.ParcelSource,
	dist ports.DistanceProvider,
	newRepo func([]*domain.Parcel) ports.ParcelRepository,
	reporter ports.Reporter,
) *Dispatcher {
	if reporter == nil {
		reporter = ports.NopReporter{}
	}
	return &Dispatcher{
		Parcels:       parcels,
		Dist:          dist,
		Reporter:      reporter,
		Pacer:         NoopPacer{},
		NewRepository: newRepo,
		Now:           time.Now,
	}
}

// PlanDeliveries plans and replays one service day.
//
// Each attempt starts from a deep copy of the baseline parcels. When an
// attempt is infeasible or the fleet is empty, the next attempt adds a
// vehicle, the one after adds a driver, and so on until MaxAttempts.
// Any other failure ends the run immediately.
func (d *Dispatcher) PlanDeliveries(ctx context.Context, req DispatchRequest) (plan *domain.Plan, err error) {
	defer obs.Time(ctx, "plan_deliveries")(&err)
	defer func() { obs.DispatchRuns.WithLabelValues(outcome(err)).Inc() }()

	req = req.withDefaults()

	baseline, err := d.Parcels.ListParcels(ctx)
	if err != nil {
		return nil, fmt.Errorf("plan deliveries: list parcels: %w", err)
	}
	if err := d.validateAddresses(req.Hub, baseline); err != nil {
		return nil, fmt.Errorf("plan deliveries: %w", err)
	}

	vehicles, drivers := req.Vehicles, req.Drivers
	var lastErr error

	for attempt := 1; attempt <= req.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("plan deliveries: %w", err)
		}

		d.Reporter.Info("Attempt %d with %d vehicles and %d drivers", attempt, vehicles, drivers)
		p, err := d.attempt(ctx, req, baseline, vehicles, drivers, attempt)
		if err == nil {
			p.RunID = uuid.NewString()
			p.Attempts = attempt
			obs.DispatchAttempts.Observe(float64(attempt))
			obs.FleetMileage.Observe(p.TotalDistance())
			return p, nil
		}
		if !domain.Retryable(err) {
			return nil, fmt.Errorf("plan deliveries: attempt %d: %w", attempt, err)
		}

		lastErr = err
		if attempt%2 == 1 {
			vehicles++
			d.Reporter.Info("Attempt %d failed (%v); adding a vehicle", attempt, err)
		} else {
			drivers++
			d.Reporter.Info("Attempt %d failed (%v); adding a driver", attempt, err)
		}
	}

	return nil, fmt.Errorf("plan deliveries: gave up after %d attempts: %w", req.MaxAttempts, lastErr)
}

func (d *Dispatcher) attempt(
	ctx context.Context,
	req DispatchRequest,
	baseline []*domain.Parcel,
	vehicles, drivers, attempt int,
) (*domain.Plan, error) {
	parcels := make([]*domain.Parcel, 0, len(baseline))
	for _, p := range baseline {
		parcels = append(parcels, p.Clone())
	}
	repo := d.NewRepository(parcels)

	fleet := domain.NewFleet(vehicles, req.Capacity, req.SpeedMPH, req.Hub)
	fleet.AssignDrivers(domain.DriverNames(drivers))

	resolver := NewConstraintResolver(repo, d.Reporter)
	resolver.GroupDelayedWithDeadline = req.GroupDelayedWithDeadline
	queue, err := resolver.Resolve(fleet)
	if err != nil {
		return nil, err
	}

	splitter := NewClusterSplitter(d.Dist, rand.New(rand.NewPCG(req.Seed, uint64(attempt))))
	loader := NewFleetLoader(d.Dist, splitter, d.Reporter)
	if err := loader.Load(fleet, queue); err != nil {
		return nil, err
	}

	sim := NewSimulator(d.Dist, d.Pacer, d.Reporter)
	tl, err := sim.BuildTimeline(fleet)
	if err != nil {
		return nil, err
	}
	if err := sim.Replay(ctx, fleet, tl); err != nil {
		return nil, err
	}

	return &domain.Plan{
		Hub:       req.Hub,
		CreatedAt: d.Now(),
		Fleet:     fleet,
		Timeline:  tl,
		Parcels:   repo.All(),
	}, nil
}

// validateAddresses rejects parcels whose street, or corrected street, is
// not in the address table.
func (d *Dispatcher) validateAddresses(hub string, parcels []*domain.Parcel) error {
	seen := make(map[string]struct{})
	check := func(id domain.ParcelID, street string) error {
		if _, ok := seen[street]; ok {
			return nil
		}
		if _, err := d.Dist.Distance(hub, street); err != nil {
			return fmt.Errorf("parcel %d: %w", id, err)
		}
		seen[street] = struct{}{}
		return nil
	}

	for _, p := range parcels {
		if err := check(p.ID, p.Address.Street); err != nil {
			return err
		}
		if fix, ok := p.Note.(domain.AddressCorrection); ok {
			if err := check(p.ID, fix.Address.Street); err != nil {
				return err
			}
		}
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "planned"
	case domain.Retryable(err):
		return "infeasible"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrUnknownAddress), errors.Is(err, domain.ErrUnknownParcel):
		return "invalid"
	default:
		return "error"
	}
}

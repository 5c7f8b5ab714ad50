package services

import (
	"fmt"
	"parcel-dispatch-service/internal/domain"
	"parcel-dispatch-service/internal/ports"
	"slices"

	"github.com/samber/lo"
)

// FleetLoader assigns queued work to vehicles.
type FleetLoader struct {
	Dist     ports.DistanceProvider
	Splitter *ClusterSplitter
	Reporter ports.Reporter
}

func NewFleetLoader(dist ports.DistanceProvider, splitter *ClusterSplitter, reporter ports.Reporter) *FleetLoader {
	if reporter == nil {
		reporter = ports.NopReporter{}
	}
	return &FleetLoader{Dist: dist, Splitter: splitter, Reporter: reporter}
}

// Load runs every loading stage in order: pinned parcels, the highest
// priority work onto empty staffed vehicles, a pass over staffed vehicles,
// then a pass over unstaffed ones. Any parcel left over is infeasible.
// Route distances are reset afterwards; they are measured again on replay.
func (l *FleetLoader) Load(fleet *domain.Fleet, queue *LoadQueue) error {
	if fleet.Len() == 0 {
		return fmt.Errorf("load fleet: %w", domain.ErrEmptyFleet)
	}

	if err := l.LoadAssigned(fleet, queue); err != nil {
		return fmt.Errorf("load fleet: %w", err)
	}
	if err := l.LoadEmptyWithDrivers(fleet, queue); err != nil {
		return fmt.Errorf("load fleet: %w", err)
	}
	if err := l.LoadPass(fleet, queue, true); err != nil {
		return fmt.Errorf("load fleet: staffed pass: %w", err)
	}
	if err := l.LoadPass(fleet, queue, false); err != nil {
		return fmt.Errorf("load fleet: unstaffed pass: %w", err)
	}

	if !queue.Empty() {
		ids := lo.Map(queue.Pending(), func(p *domain.Parcel, _ int) domain.ParcelID { return p.ID })
		return fmt.Errorf("load fleet: parcels %v could not be placed: %w", ids, domain.ErrInfeasible)
	}

	for _, v := range fleet.Vehicles {
		v.Distance = 0
	}
	return nil
}

// LoadAssigned places parcels that already name a vehicle, together with
// the rest of their co-delivery group. Assignments that would overflow the
// vehicle, or name a vehicle outside the fleet, are left in the queue.
func (l *FleetLoader) LoadAssigned(fleet *domain.Fleet, queue *LoadQueue) error {
	for _, p := range queue.Pending() {
		if p.Vehicle == nil || slices.Contains(fleet.Parcels(), p) {
			continue
		}
		v, ok := fleet.Vehicle(*p.Vehicle)
		if !ok {
			p.Vehicle = nil
			continue
		}

		unit := []*domain.Parcel{p}
		if p.Group != nil && groupHasCoDelivery(queue, *p.Group) {
			unit = lo.Filter(queue.Pending(), func(q *domain.Parcel, _ int) bool { return sameGroup(q.Group, p.Group) })
		}
		if len(unit) > v.Capacity() {
			p.Vehicle = nil
			continue
		}

		for _, q := range unit {
			if err := v.Load(q); err != nil {
				return fmt.Errorf("load assigned parcel %d: %w", q.ID, err)
			}
			queue.Remove(q)
			l.Reporter.Progress("  -LOADING Parcel %d ONTO Vehicle %d", q.ID, v.Number())
		}
	}
	return nil
}

// LoadEmptyWithDrivers gives each empty vehicle that has a driver the next
// unit of work, splitting it when it exceeds the vehicle's capacity.
func (l *FleetLoader) LoadEmptyWithDrivers(fleet *domain.Fleet, queue *LoadQueue) error {
	empty := lo.Filter(fleet.Vehicles, func(v *domain.Vehicle, _ int) bool { return v.HasDriver() && v.Empty() })

	for _, v := range empty {
		if queue.Empty() {
			return nil
		}

		work := queue.Next()
		if len(work) > v.Capacity() {
			var err error
			work, err = l.Splitter.SplitToFit(v.Capacity(), queue, work)
			if err != nil {
				return fmt.Errorf("load empty vehicle %d: %w", v.Number(), err)
			}
		}

		if err := v.LoadMultiple(work); err != nil {
			return fmt.Errorf("load empty vehicle %d: %w", v.Number(), err)
		}
		for _, p := range work {
			l.Reporter.Progress("  -LOADING Parcel %d ONTO Vehicle %d", p.ID, v.Number())
		}
	}
	return nil
}

type candidateRoute struct {
	vehicle *domain.Vehicle
	route   Route
}

// LoadPass assigns queued work to vehicles with (staffed) or without a
// driver. For every unit of work each vehicle with room is tried, and the
// feasible route that yields the smallest total fleet distance is committed.
// The unstaffed pass widens to the whole fleet once it runs out of vehicles,
// provided no pending parcel carries a deadline. Load always runs the staffed
// pass first, so by then the staffed vehicles are full as well and the
// widening only finds room when LoadPass is called on its own.
func (l *FleetLoader) LoadPass(fleet *domain.Fleet, queue *LoadQueue, staffed bool) error {
	inPass := func(v *domain.Vehicle) bool { return v.HasDriver() == staffed }

	for _, v := range fleet.Vehicles {
		if !inPass(v) || v.Empty() {
			continue
		}
		r, err := NearestNeighborRoute(v.Route, v.Home, l.Dist)
		if err != nil {
			return fmt.Errorf("order vehicle %d: %w", v.Number(), err)
		}
		if err := v.Commit(r.Parcels, r.Distance); err != nil {
			return err
		}
	}

	candidates := lo.Filter(fleet.Vehicles, func(v *domain.Vehicle, _ int) bool { return inPass(v) && v.Capacity() > 0 })
	relaxed := false
	iteration := 0

	for !queue.Empty() {
		if len(candidates) == 0 {
			if staffed || relaxed || queue.HasDeadline() {
				return nil
			}
			candidates = lo.Filter(fleet.Vehicles, func(v *domain.Vehicle, _ int) bool { return v.Capacity() > 0 })
			relaxed = true
			if len(candidates) == 0 {
				return nil
			}
			l.Reporter.Info("No unstaffed vehicle left; widening to %d vehicles with room", len(candidates))
		}

		iteration++
		work := queue.Next()
		l.Reporter.Info("Iteration %d: %d parcels, starting with parcel %d", iteration, len(work), work[0].ID)

		available := fitting(candidates, len(work))
		if len(available) == 0 {
			roomiest := lo.MaxBy(candidates, func(a, b *domain.Vehicle) bool { return a.Capacity() > b.Capacity() })
			var err error
			work, err = l.Splitter.SplitToFit(roomiest.Capacity(), queue, work)
			if err != nil {
				return fmt.Errorf("iteration %d: %w", iteration, err)
			}
			available = fitting(candidates, len(work))
		}

		var feasible []candidateRoute
		for _, v := range available {
			test := append(slices.Clone(v.Route), work...)
			r, err := NearestNeighborRoute(test, v.Home, l.Dist)
			if err != nil {
				return fmt.Errorf("iteration %d: test vehicle %d: %w", iteration, v.Number(), err)
			}
			ok, err := CheckFeasibility(r.Parcels, v.SpeedMPH, v.Home, l.Dist)
			if err != nil {
				return fmt.Errorf("iteration %d: test vehicle %d: %w", iteration, v.Number(), err)
			}
			if ok {
				feasible = append(feasible, candidateRoute{vehicle: v, route: r})
			}
		}

		if len(feasible) == 0 {
			ids := lo.Map(work, func(p *domain.Parcel, _ int) domain.ParcelID { return p.ID })
			return fmt.Errorf("iteration %d: no feasible route for parcels %v: %w", iteration, ids, domain.ErrInfeasible)
		}

		current := lo.SumBy(feasible, func(c candidateRoute) float64 { return c.vehicle.Distance })
		best := 0
		bestTotal := 0.0
		for i, c := range feasible {
			total := current - c.vehicle.Distance + c.route.Distance
			if i == 0 || total < bestTotal {
				best, bestTotal = i, total
			}
		}

		chosen := feasible[best]
		if err := chosen.vehicle.Commit(chosen.route.Parcels, chosen.route.Distance); err != nil {
			return fmt.Errorf("iteration %d: %w", iteration, err)
		}
		l.Reporter.Info("Vehicle %d produced the optimal feasible route with a distance of %.1f", chosen.vehicle.Number(), chosen.route.Distance)
		for _, p := range work {
			l.Reporter.Progress("  -LOADING Parcel %d ONTO Vehicle %d", p.ID, chosen.vehicle.Number())
		}

		if chosen.vehicle.Capacity() == 0 {
			candidates = lo.Without(candidates, chosen.vehicle)
		}
	}
	return nil
}

func fitting(vehicles []*domain.Vehicle, n int) []*domain.Vehicle {
	return lo.Filter(vehicles, func(v *domain.Vehicle, _ int) bool { return v.Capacity() >= n })
}

func groupHasCoDelivery(queue *LoadQueue, group int) bool {
	for _, p := range queue.Pending() {
		if p.Group != nil && *p.Group == group && p.HasCoDeliveryNote() {
			return true
		}
	}
	return false
}

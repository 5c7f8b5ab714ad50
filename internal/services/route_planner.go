package services

import (
	"errors"
	"fmt"
	"parcel-dispatch-service/internal/domain"
	"parcel-dispatch-service/internal/ports"
)

// Ordered delivery sequence and its round-trip distance in miles.
type Route struct {
	Parcels  []*domain.Parcel
	Distance float64
}

// Planned arrival at one stop. Parcel is nil for the return leg.
type Stop struct {
	Parcel   *domain.Parcel
	Address  string
	Distance float64
	ArriveAt domain.Clock
}

// Plan a delivery route using a greedy nearest-neighbor algorithm.
//
// The algorithm minimizes the immediate leg distance at each step and
// breaks ties by input order. It does not attempt global route optimization.
// The returned distance includes the leg out of start and the leg back.
func NearestNeighborRoute(parcels []*domain.Parcel, start string, dist ports.DistanceProvider) (Route, error) {
	if start == "" {
		return Route{}, errors.New("plan route: start address must be non-empty")
	}

	if len(parcels) == 0 {
		return Route{Parcels: []*domain.Parcel{}}, nil
	}

	remaining := make([]*domain.Parcel, len(parcels))
	copy(remaining, parcels)

	route := make([]*domain.Parcel, 0, len(parcels))
	current := start
	total := 0.0

	for len(remaining) > 0 {
		best := -1
		bestDistance := 0.0

		// Select next stop by minimum distance (greedy step).
		for i, p := range remaining {
			d, err := dist.Distance(current, p.Address.Street)
			if err != nil {
				return Route{}, fmt.Errorf("plan route: from %q to %q: %w", current, p.Address.Street, err)
			}
			// Strict comparison keeps the first-found parcel on ties.
			if best < 0 || d < bestDistance {
				best = i
				bestDistance = d
			}
		}

		next := remaining[best]
		remaining = append(remaining[:best], remaining[best+1:]...)

		route = append(route, next)
		total += bestDistance
		current = next.Address.Street
	}

	back, err := dist.Distance(current, start)
	if err != nil {
		return Route{}, fmt.Errorf("plan route: return leg from %q to %q: %w", current, start, err)
	}
	total += back

	return Route{Parcels: route, Distance: total}, nil
}

// DepartureTime is the earliest moment a vehicle can leave with the route on
// board: the start of day or the latest delayed arrival, whichever is later.
func DepartureTime(route []*domain.Parcel) domain.Clock {
	depart := domain.DayStart
	for _, p := range route {
		if until, ok := p.DelayedUntil(); ok {
			depart = domain.MaxClock(depart, until)
		}
	}
	return depart
}

// PlanStops walks the route leg by leg from start and back, accumulating
// arrival times at the given speed. Consecutive parcels at the same address
// share one arrival. An unreachable leg is reported as infeasible.
func PlanStops(
	route []*domain.Parcel,
	start string,
	departAt domain.Clock,
	speedMPH float64,
	dist ports.DistanceProvider,
) ([]Stop, error) {
	stops := make([]Stop, 0, len(route)+1)
	current := start
	at := departAt

	leg := func(to string) (float64, domain.Clock, error) {
		if to == current {
			return 0, at, nil
		}
		d, err := dist.Distance(current, to)
		if err != nil {
			return 0, at, fmt.Errorf("plan stops: from %q to %q: %w", current, to, err)
		}
		minutes, ok := domain.TravelMinutes(d, speedMPH)
		if !ok {
			return 0, at, fmt.Errorf("plan stops: leg %q -> %q at %.1f mph cannot be driven: %w", current, to, speedMPH, domain.ErrInfeasible)
		}
		return d, at.Add(minutes), nil
	}

	for _, p := range route {
		d, arrive, err := leg(p.Address.Street)
		if err != nil {
			return nil, err
		}
		stops = append(stops, Stop{Parcel: p, Address: p.Address.Street, Distance: d, ArriveAt: arrive})
		current, at = p.Address.Street, arrive
	}

	d, arrive, err := leg(start)
	if err != nil {
		return nil, err
	}
	stops = append(stops, Stop{Address: start, Distance: d, ArriveAt: arrive})

	return stops, nil
}

// CheckFeasibility reports whether every parcel on the route is reached by
// its deadline when the vehicle leaves start at DepartureTime(route).
//
// Routes without a real deadline are always feasible. Legs between parcels
// sharing an address take no time. Capacity and co-delivery are not checked.
func CheckFeasibility(
	route []*domain.Parcel,
	speedMPH float64,
	start string,
	dist ports.DistanceProvider,
) (bool, error) {
	hasDeadline := false
	for _, p := range route {
		if p.HasDeadline() {
			hasDeadline = true
			break
		}
	}
	if !hasDeadline {
		return true, nil
	}

	stops, err := PlanStops(route, start, DepartureTime(route), speedMPH, dist)
	if errors.Is(err, domain.ErrInfeasible) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check feasibility: %w", err)
	}

	for _, s := range stops {
		if s.Parcel != nil && s.ArriveAt > s.Parcel.Deadline {
			return false, nil
		}
	}
	return true, nil
}

package services

import (
	"cmp"
	"container/heap"
	"context"
	"fmt"
	"parcel-dispatch-service/internal/domain"
	"parcel-dispatch-service/internal/ports"
	"slices"
	"time"
)

// Pacer stretches replay over wall-clock time for observers. It has no
// effect on the outcome of a replay.
type Pacer interface {
	Wait(ctx context.Context, travelMinutes int) error
}

// NoopPacer replays as fast as possible.
type NoopPacer struct{}

func (NoopPacer) Wait(ctx context.Context, _ int) error { return ctx.Err() }

// ScaledPacer sleeps one second per Rate simulated minutes.
type ScaledPacer struct {
	Rate float64
}

func (p ScaledPacer) Wait(ctx context.Context, travelMinutes int) error {
	if p.Rate <= 0 || travelMinutes <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(time.Duration(float64(travelMinutes) / p.Rate * float64(time.Second)))
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Simulator builds and replays the delivery timeline of a loaded fleet.
type Simulator struct {
	Dist     ports.DistanceProvider
	Pacer    Pacer
	Reporter ports.Reporter
}

func NewSimulator(dist ports.DistanceProvider, pacer Pacer, reporter ports.Reporter) *Simulator {
	if pacer == nil {
		pacer = NoopPacer{}
	}
	if reporter == nil {
		reporter = ports.NopReporter{}
	}
	return &Simulator{Dist: dist, Pacer: pacer, Reporter: reporter}
}

// driverTimes is a min-heap of the times drivers become available.
type driverTimes []domain.Clock

func (h driverTimes) Len() int           { return len(h) }
func (h driverTimes) Less(i, j int) bool { return h[i] < h[j] }
func (h driverTimes) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *driverTimes) Push(x any)        { *h = append(*h, x.(domain.Clock)) }
func (h *driverTimes) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// BuildTimeline schedules Depart, Deliver and Return events for every
// vehicle with a route.
//
// Vehicles with a driver leave at DepartureTime of their route. Vehicles
// without one wait, in fleet order, for the earliest driver to come back,
// and never leave before their own delayed parcels arrive. Vehicles with an
// empty route stay at the hub and their driver joins the idle pool.
// The result is sorted by time; ties keep insertion order.
func (s *Simulator) BuildTimeline(fleet *domain.Fleet) (*domain.Timeline, error) {
	tl := &domain.Timeline{}
	free := &driverTimes{}

	for _, v := range fleet.Vehicles {
		if v.HasDriver() && v.Empty() {
			s.Reporter.Info("Vehicle %d has no parcels; releasing %s", v.Number(), v.Driver)
			v.Driver = ""
		}
	}
	for range fleet.IdleDrivers() {
		heap.Push(free, domain.DayStart)
	}

	var waiting []*domain.Vehicle
	for _, v := range fleet.Vehicles {
		if v.Empty() {
			continue
		}
		if !v.HasDriver() {
			waiting = append(waiting, v)
			continue
		}
		ret, err := s.schedule(tl, v, DepartureTime(v.Route))
		if err != nil {
			return nil, fmt.Errorf("build timeline: %w", err)
		}
		heap.Push(free, ret)
	}

	for _, v := range waiting {
		if free.Len() == 0 {
			return nil, fmt.Errorf("build timeline: no driver for vehicle %d: %w", v.Number(), domain.ErrInfeasible)
		}
		driverBack := heap.Pop(free).(domain.Clock)
		ret, err := s.schedule(tl, v, domain.MaxClock(driverBack, DepartureTime(v.Route)))
		if err != nil {
			return nil, fmt.Errorf("build timeline: %w", err)
		}
		heap.Push(free, ret)
	}

	tl.Sort()
	return tl, nil
}

func (s *Simulator) schedule(tl *domain.Timeline, v *domain.Vehicle, departAt domain.Clock) (domain.Clock, error) {
	stops, err := PlanStops(v.Route, v.Home, departAt, v.SpeedMPH, s.Dist)
	if err != nil {
		return 0, fmt.Errorf("vehicle %d: %w", v.Number(), err)
	}

	v.DepartAt = departAt
	tl.Append(domain.Event{Vehicle: v, At: departAt, Action: domain.Depart, Address: v.Home})
	for _, st := range stops {
		if st.Parcel == nil {
			continue
		}
		tl.Append(domain.Event{Vehicle: v, Parcel: st.Parcel, At: st.ArriveAt, Action: domain.Deliver, Address: st.Address})
	}

	ret := stops[len(stops)-1].ArriveAt
	v.ReturnAt = &ret
	tl.Append(domain.Event{Vehicle: v, At: ret, Action: domain.Return, Address: v.Home})
	return ret, nil
}

type position struct {
	address string
	at      domain.Clock
}

// Replay executes the timeline in order, measuring real distances and
// arrival times from each vehicle's last known position.
//
// When a delivery's parcel carries an address correction whose time has been
// reached, the parcel is redirected before the leg is driven and every later
// event for that parcel is patched to the new street. This is the only
// mutation of queued events and happens on the replay goroutine alone.
func (s *Simulator) Replay(ctx context.Context, fleet *domain.Fleet, tl *domain.Timeline) error {
	for _, v := range fleet.Vehicles {
		v.Distance = 0
	}

	freed := fleet.IdleDrivers()
	last := make(map[int]position, fleet.Len())

	for i := range tl.Events {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("replay: %w", err)
		}

		e := &tl.Events[i]
		v := e.Vehicle

		switch e.Action {
		case domain.Depart:
			if !v.HasDriver() {
				if len(freed) == 0 {
					return fmt.Errorf("replay: no free driver for vehicle %d at %s: %w", v.Number(), e.At, domain.ErrInfeasible)
				}
				v.Driver, freed = freed[0], freed[1:]
			}
			for _, p := range v.Route {
				p.Status = domain.EnRoute
			}
			last[v.ID] = position{address: v.Home, at: e.At}
			at := e.At
			e.Actual = &at
			s.Reporter.Progress("%-9s %s | Vehicle: %d | Driver: %s | From: %s", e.Action, e.At, v.Number(), v.Driver, v.Home)

		case domain.Deliver:
			p := e.Parcel
			pos := last[v.ID]

			if fix, ok := p.Note.(domain.AddressCorrection); ok && !p.Corrected() && pos.at >= fix.At {
				old := p.Address.Street
				if err := p.CorrectAddress(fix.At, fix.Address); err != nil {
					return fmt.Errorf("replay: %w", err)
				}
				e.Address = p.Address.Street
				for j := i + 1; j < len(tl.Events); j++ {
					if tl.Events[j].Parcel == p {
						tl.Events[j].Address = p.Address.Street
					}
				}
				s.Reporter.Progress("  Address correction for parcel %d: %s -> %s", p.ID, old, p.Address.Street)
			}

			arrive, minutes, err := s.drive(v, pos, p.Address.Street)
			if err != nil {
				return fmt.Errorf("replay: deliver parcel %d: %w", p.ID, err)
			}
			if err := s.Pacer.Wait(ctx, minutes); err != nil {
				return fmt.Errorf("replay: %w", err)
			}

			p.Status = domain.Delivered
			p.DeliveredAt = &arrive
			e.Actual = &arrive
			last[v.ID] = position{address: p.Address.Street, at: arrive}

			s.Reporter.Progress("%-9s %s | Parcel: %-3d | Address: %-40s | Deadline: %s", e.Action, arrive, p.ID, p.Address.Street, deadlineLabel(p))

		case domain.Return:
			pos := last[v.ID]
			arrive, minutes, err := s.drive(v, pos, v.Home)
			if err != nil {
				return fmt.Errorf("replay: return vehicle %d: %w", v.Number(), err)
			}
			if err := s.Pacer.Wait(ctx, minutes); err != nil {
				return fmt.Errorf("replay: %w", err)
			}

			v.ReturnAt = &arrive
			e.Actual = &arrive
			last[v.ID] = position{address: v.Home, at: arrive}
			freed = append(freed, v.Driver)

			s.Reporter.Progress("%-9s %s | Vehicle: %d | To: %s", e.Action, arrive, v.Number(), v.Home)
		}
	}

	for _, v := range fleet.Vehicles {
		s.Reporter.Info("Vehicle %d final route distance: %.1f", v.Number(), v.Distance)
	}
	return nil
}

// drive moves v from pos to address, adding the leg to its distance.
func (s *Simulator) drive(v *domain.Vehicle, pos position, address string) (domain.Clock, int, error) {
	if pos.address == address {
		return pos.at, 0, nil
	}
	d, err := s.Dist.Distance(pos.address, address)
	if err != nil {
		return 0, 0, err
	}
	minutes, ok := domain.TravelMinutes(d, v.SpeedMPH)
	if !ok {
		return 0, 0, fmt.Errorf("leg %q -> %q cannot be driven: %w", pos.address, address, domain.ErrInfeasible)
	}
	v.Distance += d
	return pos.at.Add(minutes), minutes, nil
}

// Point-in-time view of one parcel.
type ParcelSnapshot struct {
	Parcel  *domain.Parcel
	Address string
}

// StatusAt projects parcel statuses as of t from the timeline, on private
// copies of the parcels. Events are applied at their replayed time when
// known. Every snapshot reports the address the parcel was bound for at t.
func StatusAt(parcels []*domain.Parcel, tl *domain.Timeline, t domain.Clock) []ParcelSnapshot {
	copies := make(map[domain.ParcelID]*domain.Parcel, len(parcels))
	out := make([]ParcelSnapshot, 0, len(parcels))
	for _, p := range parcels {
		c := p.Clone()
		c.Status = domain.AtHub
		c.DeliveredAt = nil
		copies[c.ID] = c
		out = append(out, ParcelSnapshot{Parcel: c})
	}

	if tl != nil {
		for _, e := range tl.Events {
			at := e.EffectiveAt()
			if at > t {
				continue
			}
			switch e.Action {
			case domain.Depart:
				for _, c := range copies {
					if c.Vehicle != nil && *c.Vehicle == e.Vehicle.ID && c.Status == domain.AtHub {
						c.Status = domain.EnRoute
					}
				}
			case domain.Deliver:
				if c, ok := copies[e.Parcel.ID]; ok {
					c.Status = domain.Delivered
					c.DeliveredAt = &at
				}
			}
		}
	}

	for i := range out {
		out[i].Address = out[i].Parcel.AddressAt(t)
	}
	slices.SortFunc(out, func(a, b ParcelSnapshot) int { return cmp.Compare(a.Parcel.ID, b.Parcel.ID) })
	return out
}

func deadlineLabel(p *domain.Parcel) string {
	if !p.HasDeadline() {
		return "EOD"
	}
	return p.Deadline.String()
}

package domain

import (
	"fmt"
	"slices"
)

const (
	DefaultCapacity = 16
	DefaultSpeedMPH = 18.0
	DefaultHub      = "4001 South 700 East"
)

// Delivery vehicle aggregate holding an ordered route of parcels.
// Remaining capacity is always MaxCapacity minus the route length.
type Vehicle struct {
	ID          int
	MaxCapacity int
	SpeedMPH    float64
	Driver      string
	DepartAt    Clock
	ReturnAt    *Clock
	Home        string
	Route       []*Parcel
	Distance    float64
}

func NewVehicle(id int, capacity int, speedMPH float64, home string) *Vehicle {
	return &Vehicle{
		ID:          id,
		MaxCapacity: capacity,
		SpeedMPH:    speedMPH,
		DepartAt:    DayStart,
		Home:        home,
	}
}

// Number displays the vehicle the way operators count them (1-based).
func (v *Vehicle) Number() int { return v.ID + 1 }

// Capacity returns the number of free parcel slots.
func (v *Vehicle) Capacity() int { return v.MaxCapacity - len(v.Route) }

func (v *Vehicle) HasDriver() bool { return v.Driver != "" }

func (v *Vehicle) Empty() bool { return len(v.Route) == 0 }

// Load a single parcel onto the end of the route.
func (v *Vehicle) Load(p *Parcel) error {
	if v.Capacity() <= 0 {
		return fmt.Errorf("load vehicle: vehicle %d is at full capacity (capacity=%d): %w", v.Number(), v.MaxCapacity, ErrInfeasible)
	}
	v.Route = append(v.Route, p)
	id := v.ID
	p.Vehicle = &id
	return nil
}

// Load multiple parcels onto the vehicle.
func (v *Vehicle) LoadMultiple(ps []*Parcel) error {
	if len(ps) > v.Capacity() {
		return fmt.Errorf("load vehicle: vehicle %d cannot take %d parcels (free=%d): %w", v.Number(), len(ps), v.Capacity(), ErrInfeasible)
	}
	for _, p := range ps {
		if err := v.Load(p); err != nil {
			return err
		}
	}
	return nil
}

// Commit replaces the route with a planned sequence and its distance.
func (v *Vehicle) Commit(route []*Parcel, distance float64) error {
	if len(route) > v.MaxCapacity {
		return fmt.Errorf("commit route: vehicle %d route of %d exceeds capacity %d: %w", v.Number(), len(route), v.MaxCapacity, ErrInfeasible)
	}
	v.Route = slices.Clone(route)
	v.Distance = distance
	for _, p := range v.Route {
		id := v.ID
		p.Vehicle = &id
	}
	return nil
}

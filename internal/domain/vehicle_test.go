package domain

import (
	"errors"
	"testing"
)

func TestVehicleLoadRespectsCapacity(t *testing.T) {
	v := NewVehicle(0, 3, DefaultSpeedMPH, "HUB")

	pkgs := []*Parcel{
		NewParcel(1, Address{Street: "A"}, EndOfDay, 1, nil),
		NewParcel(2, Address{Street: "B"}, EndOfDay, 1, nil),
		NewParcel(3, Address{Street: "C"}, EndOfDay, 1, nil),
	}

	for i, p := range pkgs {
		if err := v.Load(p); err != nil {
			t.Fatalf("unexpected error loading parcel %d: %v", p.ID, err)
		}
		if got, want := v.Capacity()+len(v.Route), v.MaxCapacity; got != want {
			t.Fatalf("after load %d: capacity+route = %d, want %d", i, got, want)
		}
		if p.Vehicle == nil || *p.Vehicle != v.ID {
			t.Errorf("parcel %d vehicle = %v, want %d", p.ID, p.Vehicle, v.ID)
		}
	}

	err := v.Load(NewParcel(4, Address{Street: "D"}, EndOfDay, 1, nil))
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("load on full vehicle: err = %v, want ErrInfeasible", err)
	}
	if v.Capacity() != 0 {
		t.Errorf("capacity = %d, want 0", v.Capacity())
	}
}

func TestVehicleCommitReplacesRoute(t *testing.T) {
	v := NewVehicle(2, 2, DefaultSpeedMPH, "HUB")
	a := NewParcel(1, Address{Street: "A"}, EndOfDay, 1, nil)
	b := NewParcel(2, Address{Street: "B"}, EndOfDay, 1, nil)

	if err := v.Load(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := v.Commit([]*Parcel{b, a}, 7.5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.Route) != 2 || v.Route[0] != b || v.Route[1] != a {
		t.Fatalf("route not replaced: %v", v.Route)
	}
	if v.Distance != 7.5 {
		t.Errorf("distance = %v, want 7.5", v.Distance)
	}
	if b.Vehicle == nil || *b.Vehicle != 2 {
		t.Errorf("parcel b vehicle = %v, want 2", b.Vehicle)
	}

	c := NewParcel(3, Address{Street: "C"}, EndOfDay, 1, nil)
	if err := v.Commit([]*Parcel{a, b, c}, 1); !errors.Is(err, ErrInfeasible) {
		t.Fatalf("over-capacity commit: err = %v, want ErrInfeasible", err)
	}
}

func TestFleetAssignDrivers(t *testing.T) {
	f := NewFleet(3, DefaultCapacity, DefaultSpeedMPH, DefaultHub)
	f.AssignDrivers(DriverNames(2))

	if f.Vehicles[0].Driver != "Driver1" || f.Vehicles[1].Driver != "Driver2" {
		t.Fatalf("drivers = %q, %q", f.Vehicles[0].Driver, f.Vehicles[1].Driver)
	}
	if f.Vehicles[2].HasDriver() {
		t.Errorf("vehicle 3 should have no driver, got %q", f.Vehicles[2].Driver)
	}
	if idle := f.IdleDrivers(); len(idle) != 0 {
		t.Errorf("idle drivers = %v, want none", idle)
	}

	f.AssignDrivers([]string{"Driver3", "Driver4"})
	if f.Vehicles[2].Driver != "Driver3" {
		t.Errorf("vehicle 3 driver = %q, want Driver3", f.Vehicles[2].Driver)
	}
	if idle := f.IdleDrivers(); len(idle) != 1 || idle[0] != "Driver4" {
		t.Errorf("idle drivers = %v, want [Driver4]", idle)
	}
}

package domain

import "fmt"

// Ordered collection of vehicles plus the pool of driver identities.
// Drivers beyond the number of vehicles wait at the hub until a vehicle
// needs one.
type Fleet struct {
	Vehicles []*Vehicle
	Drivers  []string
}

func NewFleet(vehicles int, capacity int, speedMPH float64, hub string) *Fleet {
	f := &Fleet{Vehicles: make([]*Vehicle, 0, vehicles)}
	for i := 0; i < vehicles; i++ {
		f.Vehicles = append(f.Vehicles, NewVehicle(i, capacity, speedMPH, hub))
	}
	return f
}

// DriverNames returns Driver1..DriverN.
func DriverNames(n int) []string {
	names := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		names = append(names, fmt.Sprintf("Driver%d", i))
	}
	return names
}

// AssignDrivers seats each driver on the first vehicle without one.
func (f *Fleet) AssignDrivers(drivers []string) {
	f.Drivers = append(f.Drivers, drivers...)
	for _, d := range drivers {
		for _, v := range f.Vehicles {
			if !v.HasDriver() {
				v.Driver = d
				break
			}
		}
	}
}

// IdleDrivers returns drivers that are not seated on any vehicle.
func (f *Fleet) IdleDrivers() []string {
	seated := make(map[string]struct{}, len(f.Vehicles))
	for _, v := range f.Vehicles {
		if v.HasDriver() {
			seated[v.Driver] = struct{}{}
		}
	}

	idle := make([]string, 0)
	for _, d := range f.Drivers {
		if _, ok := seated[d]; !ok {
			idle = append(idle, d)
		}
	}
	return idle
}

func (f *Fleet) Vehicle(index int) (*Vehicle, bool) {
	if index < 0 || index >= len(f.Vehicles) {
		return nil, false
	}
	return f.Vehicles[index], true
}

func (f *Fleet) Len() int { return len(f.Vehicles) }

// Parcels returns every parcel currently on a vehicle, in fleet and route order.
func (f *Fleet) Parcels() []*Parcel {
	out := make([]*Parcel, 0)
	for _, v := range f.Vehicles {
		out = append(out, v.Route...)
	}
	return out
}

func (f *Fleet) TotalDistance() float64 {
	total := 0.0
	for _, v := range f.Vehicles {
		total += v.Distance
	}
	return total
}

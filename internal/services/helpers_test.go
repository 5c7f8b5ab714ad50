package services

import (
	"math"
	"math/rand/v2"
	"parcel-dispatch-service/internal/adapters/distance"
	"parcel-dispatch-service/internal/adapters/repositories"
	"parcel-dispatch-service/internal/domain"
	"slices"
)

// planeProvider answers straight-line distances between named points.
func planeProvider(points map[string][2]float64) *distance.MockDistanceProvider {
	names := make([]string, 0, len(points))
	for n := range points {
		names = append(names, n)
	}
	slices.Sort(names)

	var pairs []distance.MockPair
	for i, a := range names {
		for _, b := range names[i+1:] {
			pa, pb := points[a], points[b]
			pairs = append(pairs, distance.MockPair{From: a, To: b, Miles: math.Hypot(pa[0]-pb[0], pa[1]-pb[1])})
		}
	}
	return distance.NewMockDistanceProvider(pairs)
}

func sixStops() *distance.MockDistanceProvider {
	return planeProvider(map[string][2]float64{
		"HUB": {0, 0},
		"A":   {1, 0},
		"B":   {2, 0},
		"C":   {0, 1},
		"D":   {0, 2},
		"E":   {-1, 0},
		"F":   {-2, 0},
	})
}

func newRepo(parcels ...*domain.Parcel) *repositories.MemoryParcelRepository {
	return repositories.NewMemoryParcelRepository(parcels)
}

func staffedFleet(vehicles, drivers, capacity int, speed float64) *domain.Fleet {
	f := domain.NewFleet(vehicles, capacity, speed, "HUB")
	f.AssignDrivers(domain.DriverNames(drivers))
	return f
}

func seeded() *rand.Rand { return rand.New(rand.NewPCG(7, 11)) }

func ptr[T any](v T) *T { return &v }

func ids(parcels []*domain.Parcel) []domain.ParcelID {
	out := make([]domain.ParcelID, 0, len(parcels))
	for _, p := range parcels {
		out = append(out, p.ID)
	}
	return out
}

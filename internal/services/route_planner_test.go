package services

import (
	"errors"
	"parcel-dispatch-service/internal/adapters/distance"
	"parcel-dispatch-service/internal/domain"
	"testing"
)

func parcelAt(id domain.ParcelID, street string, deadline domain.Clock, note domain.Note) *domain.Parcel {
	return domain.NewParcel(id, domain.Address{Street: street}, deadline, 1, note)
}

func triangleProvider() *distance.MockDistanceProvider {
	return distance.NewMockDistanceProvider([]distance.MockPair{
		{From: "HUB", To: "A", Miles: 1},
		{From: "HUB", To: "B", Miles: 2},
		{From: "HUB", To: "C", Miles: 1.5},
		{From: "A", To: "B", Miles: 0.8},
		{From: "A", To: "C", Miles: 0.7},
		{From: "B", To: "C", Miles: 0.9},
	})
}

func TestRoutePlannerNearestNeighborRoute(t *testing.T) {
	parcels := []*domain.Parcel{
		parcelAt(1, "A", domain.EndOfDay, nil),
		parcelAt(2, "B", domain.EndOfDay, nil),
		parcelAt(3, "C", domain.EndOfDay, nil),
	}

	route, err := NearestNeighborRoute(parcels, "HUB", triangleProvider())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(route.Parcels) != 3 {
		t.Fatalf("expected 3 stops, got %d", len(route.Parcels))
	}
	if route.Parcels[0].ID != 1 {
		t.Fatalf("expected first stop A, got %q", route.Parcels[0].Address.Street)
	}
	if route.Parcels[1].ID != 3 {
		t.Fatalf("expected second stop C, got %q", route.Parcels[1].Address.Street)
	}
	if route.Parcels[2].ID != 2 {
		t.Fatalf("expected third stop B, got %q", route.Parcels[2].Address.Street)
	}

	// 1 + 0.7 + 0.9 + 2 back to the hub
	if diff := route.Distance - 4.6; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("distance = %v, want 4.6", route.Distance)
	}
}

func TestRoutePlannerEmptyRoute(t *testing.T) {
	route, err := NearestNeighborRoute(nil, "HUB", triangleProvider())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(route.Parcels) != 0 || route.Distance != 0 {
		t.Fatalf("route = %+v, want empty with zero distance", route)
	}
}

func TestRoutePlannerTiesKeepInputOrder(t *testing.T) {
	provider := distance.NewMockDistanceProvider([]distance.MockPair{
		{From: "HUB", To: "X", Miles: 1},
		{From: "HUB", To: "Y", Miles: 1},
		{From: "X", To: "Y", Miles: 1},
	})
	parcels := []*domain.Parcel{parcelAt(7, "Y", domain.EndOfDay, nil), parcelAt(3, "X", domain.EndOfDay, nil)}

	route, err := NearestNeighborRoute(parcels, "HUB", provider)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if route.Parcels[0].ID != 7 {
		t.Fatalf("first stop = %d, want 7", route.Parcels[0].ID)
	}
}

func TestRoutePlannerUnknownAddress(t *testing.T) {
	_, err := NearestNeighborRoute([]*domain.Parcel{parcelAt(1, "Z", domain.EndOfDay, nil)}, "HUB", triangleProvider())
	if !errors.Is(err, domain.ErrUnknownAddress) {
		t.Fatalf("err = %v, want ErrUnknownAddress", err)
	}
}

func TestCheckFeasibilityDeadlineMet(t *testing.T) {
	provider := distance.NewMockDistanceProvider([]distance.MockPair{{From: "HUB", To: "Elm", Miles: 10}})
	route := []*domain.Parcel{parcelAt(1, "Elm", domain.NewClock(10, 30), nil)}

	stops, err := PlanStops(route, "HUB", domain.DayStart, 20, provider)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := stops[0].ArriveAt, domain.NewClock(8, 30); got != want {
		t.Fatalf("arrival = %s, want %s", got, want)
	}

	ok, err := CheckFeasibility(route, 20, "HUB", provider)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("route should be feasible")
	}
}

func TestCheckFeasibilityHonoursDelay(t *testing.T) {
	provider := distance.NewMockDistanceProvider([]distance.MockPair{{From: "HUB", To: "Elm", Miles: 3}})
	delayed := parcelAt(1, "Elm", domain.NewClock(9, 10), domain.Delayed{Until: domain.NewClock(9, 5)})

	if got, want := DepartureTime([]*domain.Parcel{delayed}), domain.NewClock(9, 5); got != want {
		t.Fatalf("departure = %s, want %s", got, want)
	}

	ok, err := CheckFeasibility([]*domain.Parcel{delayed}, domain.DefaultSpeedMPH, "HUB", provider)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("arrival at 9:15 should miss the 9:10 deadline")
	}
}

func TestCheckFeasibilitySharedAddressIsFree(t *testing.T) {
	provider := distance.NewMockDistanceProvider([]distance.MockPair{{From: "HUB", To: "Elm", Miles: 9}})
	route := []*domain.Parcel{
		parcelAt(1, "Elm", domain.NewClock(8, 30), nil),
		parcelAt(2, "Elm", domain.NewClock(8, 30), nil),
	}

	ok, err := CheckFeasibility(route, domain.DefaultSpeedMPH, "HUB", provider)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("both parcels arrive at 8:30 and should be feasible")
	}
}

func TestNearestNeighborWithoutDeadlinesIsAlwaysFeasible(t *testing.T) {
	orders := [][]*domain.Parcel{
		{parcelAt(1, "A", domain.EndOfDay, nil), parcelAt(2, "B", domain.EndOfDay, nil), parcelAt(3, "C", domain.EndOfDay, nil)},
		{parcelAt(3, "C", domain.EndOfDay, nil), parcelAt(1, "A", domain.EndOfDay, nil), parcelAt(2, "B", domain.EndOfDay, nil)},
		{parcelAt(2, "B", domain.EndOfDay, nil), parcelAt(3, "C", domain.EndOfDay, nil), parcelAt(1, "A", domain.EndOfDay, nil)},
	}

	for i, parcels := range orders {
		route, err := NearestNeighborRoute(parcels, "HUB", triangleProvider())
		if err != nil {
			t.Fatalf("order %d: unexpected error: %v", i, err)
		}
		ok, err := CheckFeasibility(route.Parcels, 0.1, "HUB", triangleProvider())
		if err != nil {
			t.Fatalf("order %d: unexpected error: %v", i, err)
		}
		if !ok {
			t.Fatalf("order %d: route without deadlines must be feasible", i)
		}
	}
}

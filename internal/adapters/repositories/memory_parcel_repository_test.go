package repositories

import (
	"parcel-dispatch-service/internal/domain"
	"testing"
)

func TestMemoryParcelRepository(t *testing.T) {
	a := domain.NewParcel(3, domain.Address{Street: "A"}, domain.EndOfDay, 1, nil)
	b := domain.NewParcel(1, domain.Address{Street: "B"}, domain.EndOfDay, 1, nil)
	repo := NewMemoryParcelRepository([]*domain.Parcel{a})

	if err := repo.Insert(b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Insert(nil); err == nil {
		t.Fatalf("expected error inserting nil parcel")
	}

	got, ok := repo.Search(3)
	if !ok || got != a {
		t.Fatalf("search 3 = %v, %v; want parcel a", got, ok)
	}
	if _, ok := repo.Search(99); ok {
		t.Fatalf("search 99 should miss")
	}

	all := repo.All()
	if len(all) != 2 || all[0].ID != 1 || all[1].ID != 3 {
		t.Fatalf("all = %v, want parcels 1 and 3 in id order", all)
	}
}

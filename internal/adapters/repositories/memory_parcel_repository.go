package repositories

import (
	"cmp"
	"errors"
	"parcel-dispatch-service/internal/domain"
	"parcel-dispatch-service/internal/ports"
	"slices"
	"sync"
)

// In-memory implementation of the ParcelRepository port.
type MemoryParcelRepository struct {
	mu      sync.RWMutex
	parcels map[domain.ParcelID]*domain.Parcel
}

func NewMemoryParcelRepository(parcels []*domain.Parcel) *MemoryParcelRepository {
	r := &MemoryParcelRepository{parcels: make(map[domain.ParcelID]*domain.Parcel, len(parcels))}
	for _, p := range parcels {
		r.parcels[p.ID] = p
	}
	return r
}

// NewMemoryRepository matches the factory shape the dispatcher expects.
func NewMemoryRepository(parcels []*domain.Parcel) ports.ParcelRepository {
	return NewMemoryParcelRepository(parcels)
}

func (r *MemoryParcelRepository) Insert(p *domain.Parcel) error {
	if p == nil {
		return errors.New("memory parcel repository: insert nil parcel")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parcels[p.ID] = p
	return nil
}

func (r *MemoryParcelRepository) Search(id domain.ParcelID) (*domain.Parcel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parcels[id]
	return p, ok
}

func (r *MemoryParcelRepository) All() []*domain.Parcel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Parcel, 0, len(r.parcels))
	for _, p := range r.parcels {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *domain.Parcel) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

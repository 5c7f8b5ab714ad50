package ports

import (
	"context"
	"parcel-dispatch-service/internal/domain"
)

// Keyed parcel store the planning services use for group-membership lookups.
type ParcelRepository interface {
	// Add a parcel; inserting an existing id replaces it.
	Insert(p *domain.Parcel) error
	Search(id domain.ParcelID) (*domain.Parcel, bool)
	// Return every parcel ordered by id.
	All() []*domain.Parcel
}

// Port: a boundary for retrieving Parcel entities from a data source.
type ParcelSource interface {
	// Retrieve all parcels available for dispatch.
	ListParcels(ctx context.Context) ([]*domain.Parcel, error)
}

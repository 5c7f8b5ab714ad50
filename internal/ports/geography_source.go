package ports

import (
	"context"
	"parcel-dispatch-service/internal/geography"
)

// Port: a boundary for loading the address table and distance matrix.
type GeographySource interface {
	LoadGeography(ctx context.Context) (*geography.Geography, error)
}

package ports

import (
	"context"
	"parcel-dispatch-service/internal/domain"
)

// Durable record of committed plans.
type PlanStore interface {
	SavePlan(ctx context.Context, plan *domain.Plan) error
	// Return the stored record, or ok=false when the run is unknown.
	LoadPlan(ctx context.Context, runID string) (rec *domain.PlanRecord, ok bool, err error)
}

// Short-lived lookup of recent plans by run id.
type PlanCache interface {
	// Return the cached record, or ok=false on a miss.
	GetPlan(ctx context.Context, runID string) (rec *domain.PlanRecord, ok bool, err error)
	SetPlan(ctx context.Context, rec domain.PlanRecord) error
}

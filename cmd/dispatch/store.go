package main

import (
	"context"
	"database/sql"
	"fmt"
	"parcel-dispatch-service/internal/adapters/repositories"
	"parcel-dispatch-service/internal/domain"

	_ "modernc.org/sqlite"
)

func savePlan(ctx context.Context, path string, plan *domain.Plan) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("save plan: open sqlite database %q: %w", path, err)
	}
	defer db.Close()

	if err := repositories.InitSchema(db); err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	return repositories.NewSQLPlanStore(db, repositories.SQLite).SavePlan(ctx, plan)
}

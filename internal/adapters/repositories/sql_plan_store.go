package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"parcel-dispatch-service/internal/domain"
	"parcel-dispatch-service/internal/platform/obs"
)

// SQLPlanStore persists committed plans: the full record as JSON plus one
// row per timeline event for ad-hoc queries.
type SQLPlanStore struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewSQLPlanStore(db *sql.DB, d Dialect) *SQLPlanStore {
	return &SQLPlanStore{DB: db, Dialect: d}
}

func (s *SQLPlanStore) SavePlan(ctx context.Context, plan *domain.Plan) (err error) {
	defer obs.Time(ctx, "plans.SavePlan")(&err)

	if s.DB == nil {
		return errors.New("plan store: DB is nil")
	}
	if plan == nil || plan.RunID == "" {
		return fmt.Errorf("save plan: missing run id: %w", domain.ErrValidation)
	}

	rec := domain.NewPlanRecord(plan)
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("save plan %s: encode record: %w", plan.RunID, err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save plan %s: begin tx: %w", plan.RunID, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, s.Dialect.bind(`
	INSERT INTO plans (run_id, created_at, attempts, total_miles, record)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (run_id) DO UPDATE
	SET created_at = EXCLUDED.created_at,
		attempts = EXCLUDED.attempts,
		total_miles = EXCLUDED.total_miles,
		record = EXCLUDED.record;
	`), plan.RunID, plan.CreatedAt.UTC(), plan.Attempts, plan.TotalDistance(), string(body))
	if err != nil {
		return fmt.Errorf("save plan %s: upsert plan: %w", plan.RunID, err)
	}

	if _, err := tx.ExecContext(ctx, s.Dialect.bind(`DELETE FROM plan_events WHERE run_id = ?;`), plan.RunID); err != nil {
		return fmt.Errorf("save plan %s: clear events: %w", plan.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, s.Dialect.bind(`
	INSERT INTO plan_events (run_id, seq, vehicle, parcel_id, action, scheduled, actual, address)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`))
	if err != nil {
		return fmt.Errorf("save plan %s: prepare event insert: %w", plan.RunID, err)
	}
	defer stmt.Close()

	for seq, e := range rec.Events {
		var parcelID sql.NullInt64
		if e.Parcel != nil {
			parcelID = sql.NullInt64{Int64: int64(*e.Parcel), Valid: true}
		}
		var actual sql.NullString
		if e.Actual != nil {
			actual = sql.NullString{String: e.Actual.String(), Valid: true}
		}

		_, err := stmt.ExecContext(ctx, plan.RunID, seq, e.Vehicle, parcelID, e.Action.String(), e.At.String(), actual, e.Address)
		if err != nil {
			return fmt.Errorf("save plan %s: insert event #%d: %w", plan.RunID, seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save plan %s: commit tx: %w", plan.RunID, err)
	}
	return nil
}

func (s *SQLPlanStore) LoadPlan(ctx context.Context, runID string) (_ *domain.PlanRecord, _ bool, err error) {
	defer obs.Time(ctx, "plans.LoadPlan")(&err)

	if s.DB == nil {
		return nil, false, errors.New("plan store: DB is nil")
	}

	var body []byte
	err = s.DB.QueryRowContext(ctx, s.Dialect.bind(`SELECT record FROM plans WHERE run_id = ?;`), runID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load plan %s: query plans table: %w", runID, err)
	}

	var rec domain.PlanRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, false, fmt.Errorf("load plan %s: decode record: %w", runID, err)
	}
	return &rec, true, nil
}

package repositories

import (
	"context"
	"database/sql"
)

var postgresSchema = []string{
	`
	CREATE TABLE IF NOT EXISTS addresses (
		address_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		street TEXT NOT NULL UNIQUE
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS distances (
		from_id INTEGER NOT NULL,
		to_id INTEGER NOT NULL,
		miles DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (from_id, to_id)
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS parcels (
		parcel_id INTEGER PRIMARY KEY,
		street TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		zip TEXT NOT NULL DEFAULT '',
		deadline TEXT NOT NULL DEFAULT 'EOD',
		weight_kilo DOUBLE PRECISION NOT NULL DEFAULT 0,
		note TEXT NOT NULL DEFAULT ''
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS plans (
		run_id TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		attempts INTEGER NOT NULL,
		total_miles DOUBLE PRECISION NOT NULL,
		record JSONB NOT NULL
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS plan_events (
		run_id TEXT NOT NULL REFERENCES plans(run_id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		vehicle INTEGER NOT NULL,
		parcel_id INTEGER,
		action TEXT NOT NULL,
		scheduled TEXT NOT NULL,
		actual TEXT,
		address TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_plan_events_parcel
	ON plan_events(parcel_id, run_id);
	`,
}

// InitPostgresSchema creates the Postgres tables used by the dispatcher.
func InitPostgresSchema(ctx context.Context, db *sql.DB) error {
	return initSchema(ctx, db, postgresSchema)
}

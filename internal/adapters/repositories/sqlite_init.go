package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"parcel-dispatch-service/internal/adapters/ingest"
	"parcel-dispatch-service/internal/domain"
	"strconv"
	"strings"
)

// Dialect covers the SQL differences between the SQLite and Postgres stores.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// bind rewrites ? placeholders into the dialect's form.
func (d Dialect) bind(query string) string {
	if d != Postgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

var sqliteSchema = []string{
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
		miles REAL NOT NULL,
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
		weight_kilo REAL NOT NULL DEFAULT 0,
		note TEXT NOT NULL DEFAULT ''
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS plans (
		run_id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		attempts INTEGER NOT NULL,
		total_miles REAL NOT NULL,
		record TEXT NOT NULL
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

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	return initSchema(context.Background(), db, sqliteSchema)
}

func initSchema(ctx context.Context, db *sql.DB, statements []string) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// SeedDataset populates the address table, the distance matrix and the
// parcel list, replacing rows with the same keys.
func SeedDataset(ctx context.Context, db *sql.DB, d Dialect, ds *ingest.Dataset) error {
	if db == nil {
		return errors.New("seed dataset: DB is nil")
	}
	if _, err := ds.Geography(); err != nil {
		return fmt.Errorf("seed dataset: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed dataset: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := seedAddresses(ctx, tx, d, ds); err != nil {
		return err
	}
	if err := seedDistances(ctx, tx, d, ds); err != nil {
		return err
	}
	if err := seedParcels(ctx, tx, d, ds); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed dataset: commit tx: %w", err)
	}

	return nil
}

func seedAddresses(ctx context.Context, tx *sql.Tx, d Dialect, ds *ingest.Dataset) error {
	stmt, err := tx.PrepareContext(ctx, d.bind(`
	INSERT INTO addresses (address_id, name, street)
	VALUES (?, ?, ?)
	ON CONFLICT (address_id) DO UPDATE
	SET name = EXCLUDED.name,
		street = EXCLUDED.street;
	`))
	if err != nil {
		return fmt.Errorf("seed addresses: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range ds.Addresses {
		if _, err := stmt.ExecContext(ctx, a.ID, a.Name, strings.TrimSpace(a.Street)); err != nil {
			return fmt.Errorf("seed addresses: insert address_id=%d: %w", a.ID, err)
		}
	}
	return nil
}

// seedDistances stores the lower triangle, diagonal included. Unreachable
// pairs are left out and come back as +Inf.
func seedDistances(ctx context.Context, tx *sql.Tx, d Dialect, ds *ingest.Dataset) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM distances;`); err != nil {
		return fmt.Errorf("seed distances: clear table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, d.bind(`
	INSERT INTO distances (from_id, to_id, miles)
	VALUES (?, ?, ?);
	`))
	if err != nil {
		return fmt.Errorf("seed distances: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range ds.Matrix {
		for j := 0; j <= i; j++ {
			if math.IsInf(row[j], 1) {
				continue
			}
			if _, err := stmt.ExecContext(ctx, i, j, row[j]); err != nil {
				return fmt.Errorf("seed distances: insert (%d,%d): %w", i, j, err)
			}
		}
	}
	return nil
}

func seedParcels(ctx context.Context, tx *sql.Tx, d Dialect, ds *ingest.Dataset) error {
	stmt, err := tx.PrepareContext(ctx, d.bind(`
	INSERT INTO parcels (parcel_id, street, city, state, zip, deadline, weight_kilo, note)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (parcel_id) DO UPDATE
	SET street = EXCLUDED.street,
		city = EXCLUDED.city,
		state = EXCLUDED.state,
		zip = EXCLUDED.zip,
		deadline = EXCLUDED.deadline,
		weight_kilo = EXCLUDED.weight_kilo,
		note = EXCLUDED.note;
	`))
	if err != nil {
		return fmt.Errorf("seed parcels: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range ds.Parcels {
		deadline := "EOD"
		if p.HasDeadline() {
			deadline = p.Deadline.Kitchen()
		}
		_, err := stmt.ExecContext(ctx,
			int(p.ID), p.Address.Street, p.Address.City, p.Address.State, p.Address.Zip,
			deadline, p.WeightKilo, domain.NoteString(p.Note),
		)
		if err != nil {
			return fmt.Errorf("seed parcels: insert parcel_id=%d: %w", p.ID, err)
		}
	}
	return nil
}

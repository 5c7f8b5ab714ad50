package repositories

import (
	"context"
	"database/sql"
	"math"
	"parcel-dispatch-service/internal/adapters/ingest"
	"parcel-dispatch-service/internal/domain"
	"parcel-dispatch-service/internal/geography"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, InitSchema(db))
	return db
}

func testDataset() *ingest.Dataset {
	inf := math.Inf(1)
	return &ingest.Dataset{
		Addresses: []geography.AddressEntry{
			{ID: 0, Name: "Hub", Street: "HUB"},
			{ID: 1, Name: "North", Street: "A"},
			{ID: 2, Name: "South", Street: "B"},
		},
		Matrix: [][]float64{
			{0, 2.5, 4},
			{2.5, 0, inf},
			{4, inf, 0},
		},
		Parcels: []*domain.Parcel{
			domain.NewParcel(2, domain.Address{Street: "B", City: "Salt Lake City", State: "UT", Zip: "84101"}, domain.NewClock(10, 30), 3.5, domain.Delayed{Until: domain.NewClock(9, 5)}),
			domain.NewParcel(1, domain.Address{Street: "A"}, domain.EndOfDay, 1, domain.MustShipWith{Parcels: []domain.ParcelID{2}}),
		},
	}
}

func TestSeedAndListParcels(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, SeedDataset(ctx, db, SQLite, testDataset()))
	// Seeding twice replaces rows.
	require.NoError(t, SeedDataset(ctx, db, SQLite, testDataset()))

	parcels, err := NewSQLParcelRepository(db).ListParcels(ctx)
	require.NoError(t, err)
	require.Len(t, parcels, 2)

	assert.Equal(t, domain.ParcelID(1), parcels[0].ID)
	assert.Equal(t, domain.EndOfDay, parcels[0].Deadline)
	assert.Equal(t, domain.MustShipWith{Parcels: []domain.ParcelID{2}}, parcels[0].Note)

	second := parcels[1]
	assert.Equal(t, "84101", second.Address.Zip)
	assert.Equal(t, domain.NewClock(10, 30), second.Deadline)
	assert.InDelta(t, 3.5, second.WeightKilo, 1e-9)
	assert.Equal(t, domain.Delayed{Until: domain.NewClock(9, 5)}, second.Note)
}

func TestLoadGeographyFromSQLite(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, SeedDataset(ctx, db, SQLite, testDataset()))

	g, err := NewSQLParcelRepository(db).LoadGeography(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Len())

	d, err := g.Distance("B", "HUB")
	require.NoError(t, err)
	assert.Equal(t, 4.0, d)

	d, err = g.Distance("A", "B")
	require.NoError(t, err)
	assert.True(t, math.IsInf(d, 1))

	_, err = g.Distance("A", "Z")
	assert.ErrorIs(t, err, domain.ErrUnknownAddress)
}

func TestSeedRejectsInvalidGeography(t *testing.T) {
	db := openTestDB(t)
	ds := testDataset()
	ds.Matrix[0][1] = 9

	err := SeedDataset(context.Background(), db, SQLite, ds)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPlanStoreRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := NewSQLPlanStore(db, SQLite)

	p := domain.NewParcel(1, domain.Address{Street: "A"}, domain.EndOfDay, 1, nil)
	fleet := domain.NewFleet(1, 16, 18, "HUB")
	fleet.AssignDrivers(domain.DriverNames(1))
	require.NoError(t, fleet.Vehicles[0].Commit([]*domain.Parcel{p}, 5))

	delivered := domain.NewClock(8, 8)
	p.Status, p.DeliveredAt = domain.Delivered, &delivered
	tl := &domain.Timeline{}
	tl.Append(
		domain.Event{Vehicle: fleet.Vehicles[0], At: domain.DayStart, Action: domain.Depart, Address: "HUB"},
		domain.Event{Vehicle: fleet.Vehicles[0], Parcel: p, At: delivered, Action: domain.Deliver, Address: "A", Actual: &delivered},
	)

	plan := &domain.Plan{
		RunID:     "run-1",
		Attempts:  2,
		Hub:       "HUB",
		CreatedAt: time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC),
		Fleet:     fleet,
		Timeline:  tl,
		Parcels:   []*domain.Parcel{p},
	}
	require.NoError(t, store.SavePlan(ctx, plan))
	require.NoError(t, store.SavePlan(ctx, plan))

	rec, ok, err := store.LoadPlan(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, rec.Attempts)
	assert.Len(t, rec.Events, 2)

	restored, err := rec.Restore()
	require.NoError(t, err)
	assert.Equal(t, domain.Delivered, restored.Parcels[0].Status)
	assert.InDelta(t, 5, restored.TotalDistance(), 1e-9)

	var events int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM plan_events WHERE run_id = ?`, "run-1").Scan(&events))
	assert.Equal(t, 2, events)

	_, ok, err = store.LoadPlan(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPlanStoreRequiresRunID(t *testing.T) {
	err := NewSQLPlanStore(openTestDB(t), SQLite).SavePlan(context.Background(), &domain.Plan{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDialectBind(t *testing.T) {
	q := `SELECT * FROM t WHERE a = ? AND b = ?`
	assert.Equal(t, q, SQLite.bind(q))
	assert.Equal(t, `SELECT * FROM t WHERE a = $1 AND b = $2`, Postgres.bind(q))
}

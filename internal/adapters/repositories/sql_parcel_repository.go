package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"parcel-dispatch-service/internal/adapters/ingest"
	"parcel-dispatch-service/internal/domain"
	"parcel-dispatch-service/internal/geography"
	"parcel-dispatch-service/internal/platform/obs"
)

// SQL-backed implementation of the ParcelSource and GeographySource ports.
// The queries are plain enough to run unchanged on SQLite and Postgres.
type SQLParcelRepository struct{ DB *sql.DB }

func NewSQLParcelRepository(db *sql.DB) *SQLParcelRepository {
	return &SQLParcelRepository{DB: db}
}

// Return all parcels stored in the database, ordered by id.
func (s *SQLParcelRepository) ListParcels(ctx context.Context) (_ []*domain.Parcel, err error) {
	defer obs.Time(ctx, "parcels.ListParcels")(&err)

	if s.DB == nil {
		return nil, errors.New("sql parcel repository: DB is nil")
	}

	query := `
	SELECT
		parcel_id,
		street,
		city,
		state,
		zip,
		deadline,
		weight_kilo,
		note
	FROM parcels
	ORDER BY parcel_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list parcels: query parcels table: %w", err)
	}
	defer rows.Close()

	parcels := make([]*domain.Parcel, 0, 64)
	for rows.Next() {
		var row ingest.ParcelRow
		err := rows.Scan(&row.ID, &row.Street, &row.City, &row.State, &row.Zip, &row.Deadline, &row.Weight, &row.Note)
		if err != nil {
			return nil, fmt.Errorf("list parcels: scan row: %w", err)
		}

		p, err := row.Parcel()
		if err != nil {
			return nil, fmt.Errorf("list parcels: %w", err)
		}
		parcels = append(parcels, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list parcels: row iteration: %w", err)
	}

	return parcels, nil
}

// LoadGeography rebuilds the address table and distance matrix. Pairs with
// no stored distance in either direction are unreachable.
func (s *SQLParcelRepository) LoadGeography(ctx context.Context) (_ *geography.Geography, err error) {
	defer obs.Time(ctx, "parcels.LoadGeography")(&err)

	if s.DB == nil {
		return nil, errors.New("sql parcel repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT address_id, name, street
	FROM addresses
	ORDER BY address_id;
	`)
	if err != nil {
		return nil, fmt.Errorf("load geography: query addresses table: %w", err)
	}
	defer rows.Close()

	var entries []geography.AddressEntry
	for rows.Next() {
		var e geography.AddressEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Street); err != nil {
			return nil, fmt.Errorf("load geography: scan address: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load geography: address iteration: %w", err)
	}

	n := len(entries)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		for j := range matrix[i] {
			matrix[i][j] = math.NaN()
		}
	}

	drows, err := s.DB.QueryContext(ctx, `SELECT from_id, to_id, miles FROM distances;`)
	if err != nil {
		return nil, fmt.Errorf("load geography: query distances table: %w", err)
	}
	defer drows.Close()

	for drows.Next() {
		var i, j int
		var miles float64
		if err := drows.Scan(&i, &j, &miles); err != nil {
			return nil, fmt.Errorf("load geography: scan distance: %w", err)
		}
		if i < 0 || i >= n || j < 0 || j >= n {
			return nil, fmt.Errorf("load geography: distance (%d,%d) outside %d addresses: %w", i, j, n, domain.ErrValidation)
		}
		matrix[i][j] = miles
	}
	if err := drows.Err(); err != nil {
		return nil, fmt.Errorf("load geography: distance iteration: %w", err)
	}

	geography.MirrorLowerTriangle(matrix)

	g, err := geography.New(entries, matrix)
	if err != nil {
		return nil, fmt.Errorf("load geography: %w", err)
	}
	return g, nil
}

package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"parcel-dispatch-service/internal/domain"
	"parcel-dispatch-service/internal/geography"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Paths names the three input files of a service day.
type Paths struct {
	Parcels   string
	Addresses string
	Distances string
}

// PathsIn returns the default file names inside dir.
func PathsIn(dir, parcels, addresses, distances string) Paths {
	return Paths{
		Parcels:   filepath.Join(dir, parcels),
		Addresses: filepath.Join(dir, addresses),
		Distances: filepath.Join(dir, distances),
	}
}

// Dataset is everything needed to plan one service day.
type Dataset struct {
	Parcels   []*domain.Parcel
	Addresses []geography.AddressEntry
	Matrix    [][]float64
}

// Geography validates the address table against the matrix.
func (d *Dataset) Geography() (*geography.Geography, error) {
	g, err := geography.New(d.Addresses, d.Matrix)
	if err != nil {
		return nil, fmt.Errorf("dataset geography: %w", err)
	}
	return g, nil
}

// ListParcels returns deep copies of the dataset parcels.
func (d *Dataset) ListParcels(context.Context) ([]*domain.Parcel, error) {
	out := make([]*domain.Parcel, 0, len(d.Parcels))
	for _, p := range d.Parcels {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (d *Dataset) LoadGeography(context.Context) (*geography.Geography, error) {
	return d.Geography()
}

// LoadDataset reads the three files concurrently and validates the
// geography before returning.
func LoadDataset(ctx context.Context, paths Paths) (*Dataset, error) {
	var ds Dataset
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return readFile(ctx, paths.Parcels, func(r io.Reader) (err error) {
			ds.Parcels, err = ReadParcels(r)
			return err
		})
	})
	g.Go(func() error {
		return readFile(ctx, paths.Addresses, func(r io.Reader) (err error) {
			ds.Addresses, err = ReadAddresses(r)
			return err
		})
	})
	g.Go(func() error {
		return readFile(ctx, paths.Distances, func(r io.Reader) (err error) {
			ds.Matrix, err = ReadDistances(r)
			return err
		})
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if _, err := ds.Geography(); err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return &ds, nil
}

func readFile(ctx context.Context, path string, parse func(io.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	if err := parse(f); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

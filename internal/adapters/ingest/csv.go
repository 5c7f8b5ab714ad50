// Package ingest reads and writes the three input files of a service day:
// parcels, the address table and the lower-triangular distance matrix.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"parcel-dispatch-service/internal/domain"
	"parcel-dispatch-service/internal/geography"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParcelRow is one line of the parcel file:
// id, street, city, state, zip, deadline, weight, note.
type ParcelRow struct {
	ID       int     `validate:"gt=0"`
	Street   string  `validate:"required"`
	City     string  `validate:"omitempty,max=64"`
	State    string  `validate:"omitempty,max=32"`
	Zip      string  `validate:"omitempty,max=16"`
	Deadline string  `validate:"max=16"`
	Weight   float64 `validate:"gte=0"`
	Note     string
}

// AddressRow is one line of the address file: id, name, street.
type AddressRow struct {
	ID     int `validate:"gte=0"`
	Name   string
	Street string `validate:"required"`
}

// ReadParcels parses the parcel file. A header line is skipped when its
// first cell is not a number. Empty and "None" cells count as blank.
func ReadParcels(r io.Reader) ([]*domain.Parcel, error) {
	records, err := readAll(r, 8)
	if err != nil {
		return nil, fmt.Errorf("read parcels: %w", err)
	}

	parcels := make([]*domain.Parcel, 0, len(records))
	seen := make(map[domain.ParcelID]struct{}, len(records))
	for i, rec := range records {
		row, err := parseParcelRow(rec)
		if err != nil {
			return nil, fmt.Errorf("read parcels: line %d: %w", i+1, err)
		}

		p, err := row.Parcel()
		if err != nil {
			return nil, fmt.Errorf("read parcels: line %d: %w", i+1, err)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("read parcels: line %d: duplicate parcel id %d: %w", i+1, p.ID, domain.ErrValidation)
		}
		seen[p.ID] = struct{}{}
		parcels = append(parcels, p)
	}
	return parcels, nil
}

func parseParcelRow(rec []string) (ParcelRow, error) {
	id, err := strconv.Atoi(clean(rec[0]))
	if err != nil {
		return ParcelRow{}, fmt.Errorf("parcel id %q: %w", rec[0], domain.ErrValidation)
	}

	weight := 0.0
	if w := clean(rec[6]); w != "" {
		weight, err = strconv.ParseFloat(w, 64)
		if err != nil {
			return ParcelRow{}, fmt.Errorf("parcel %d weight %q: %w", id, rec[6], domain.ErrValidation)
		}
	}

	row := ParcelRow{
		ID:       id,
		Street:   clean(rec[1]),
		City:     clean(rec[2]),
		State:    clean(rec[3]),
		Zip:      clean(rec[4]),
		Deadline: clean(rec[5]),
		Weight:   weight,
		Note:     clean(rec[7]),
	}
	if err := validate.Struct(row); err != nil {
		return ParcelRow{}, fmt.Errorf("parcel %d: %v: %w", id, err, domain.ErrValidation)
	}
	return row, nil
}

// Parcel converts a validated row into a parcel.
func (row ParcelRow) Parcel() (*domain.Parcel, error) {
	deadline, err := domain.ParseDeadline(row.Deadline)
	if err != nil {
		return nil, fmt.Errorf("parcel %d: %w", row.ID, err)
	}
	note, err := domain.ParseNote(row.Note)
	if err != nil {
		return nil, fmt.Errorf("parcel %d: %w", row.ID, err)
	}

	addr := domain.Address{Street: row.Street, City: row.City, State: row.State, Zip: row.Zip}
	return domain.NewParcel(domain.ParcelID(row.ID), addr, deadline, row.Weight, note), nil
}

// ReadAddresses parses the address file.
func ReadAddresses(r io.Reader) ([]geography.AddressEntry, error) {
	records, err := readAll(r, 3)
	if err != nil {
		return nil, fmt.Errorf("read addresses: %w", err)
	}

	entries := make([]geography.AddressEntry, 0, len(records))
	for i, rec := range records {
		id, err := strconv.Atoi(clean(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("read addresses: line %d: id %q: %w", i+1, rec[0], domain.ErrValidation)
		}

		row := AddressRow{ID: id, Name: strings.TrimSpace(rec[1]), Street: strings.TrimSpace(rec[2])}
		if err := validate.Struct(row); err != nil {
			return nil, fmt.Errorf("read addresses: line %d: %v: %w", i+1, err, domain.ErrValidation)
		}
		entries = append(entries, geography.AddressEntry{ID: row.ID, Name: row.Name, Street: row.Street})
	}
	return entries, nil
}

// ReadDistances parses a lower-triangular distance file into a full
// symmetric matrix. The matrix is as wide as the file is long; blank cells
// are filled from their mirror, and pairs blank on both sides are
// unreachable (+Inf).
func ReadDistances(r io.Reader) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read distances: %w", err)
	}

	n := len(records)
	m := make([][]float64, n)
	for i, rec := range records {
		if len(rec) > n {
			for _, extra := range rec[n:] {
				if strings.TrimSpace(extra) != "" {
					return nil, fmt.Errorf("read distances: line %d has %d cells for %d addresses: %w", i+1, len(rec), n, domain.ErrValidation)
				}
			}
		}

		m[i] = make([]float64, n)
		for j := range m[i] {
			m[i][j] = math.NaN()
			if j >= len(rec) {
				continue
			}
			cell := strings.TrimSpace(rec[j])
			if cell == "" {
				continue
			}
			d, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("read distances: line %d column %d %q: %w", i+1, j+1, cell, domain.ErrValidation)
			}
			m[i][j] = d
		}
	}

	geography.MirrorLowerTriangle(m)
	return m, nil
}

// WriteParcels writes parcels in the format ReadParcels accepts.
func WriteParcels(w io.Writer, parcels []*domain.Parcel) error {
	cw := csv.NewWriter(w)
	for _, p := range parcels {
		deadline := "EOD"
		if p.HasDeadline() {
			deadline = p.Deadline.Kitchen()
		}
		rec := []string{
			strconv.Itoa(int(p.ID)),
			p.Address.Street,
			p.Address.City,
			p.Address.State,
			p.Address.Zip,
			deadline,
			strconv.FormatFloat(p.WeightKilo, 'f', -1, 64),
			domain.NoteString(p.Note),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write parcels: parcel %d: %w", p.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAddresses writes the address table in the format ReadAddresses accepts.
func WriteAddresses(w io.Writer, entries []geography.AddressEntry) error {
	cw := csv.NewWriter(w)
	for _, e := range entries {
		if err := cw.Write([]string{strconv.Itoa(e.ID), e.Name, e.Street}); err != nil {
			return fmt.Errorf("write addresses: address %d: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDistances writes the lower triangle of m, diagonal included.
// Unreachable pairs are written blank.
func WriteDistances(w io.Writer, m [][]float64) error {
	cw := csv.NewWriter(w)
	for i, row := range m {
		rec := make([]string, len(m))
		for j := 0; j <= i && j < len(row); j++ {
			if math.IsInf(row[j], 1) {
				continue
			}
			rec[j] = strconv.FormatFloat(row[j], 'f', 1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write distances: row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// readAll reads fixed-width records, skipping a leading header line.
func readAll(r io.Reader, width int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out [][]string
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if line == 1 {
			if _, err := strconv.Atoi(clean(rec[0])); err != nil {
				continue
			}
		}
		if len(rec) != width {
			return nil, fmt.Errorf("line %d has %d fields, want %d: %w", line, len(rec), width, domain.ErrValidation)
		}
		out = append(out, rec)
	}
	return out, nil
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "none") {
		return ""
	}
	return s
}

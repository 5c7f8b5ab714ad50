// Package geography resolves delivery addresses to matrix indices and
// answers point-to-point distances from a precomputed symmetric matrix.
package geography

import (
	"fmt"
	"math"
	"parcel-dispatch-service/internal/domain"
	"strings"
)

// One row of the address table.
type AddressEntry struct {
	ID     int
	Name   string
	Street string
}

// Geography is immutable once built and safe for concurrent reads.
type Geography struct {
	entries []AddressEntry
	index   map[string]int
	matrix  [][]float64
}

// New validates the address table and the distance matrix together.
// Entry IDs are the matrix indices: they must be unique and in [0, n).
// Missing pairs are +Inf and must be missing on both sides.
func New(entries []AddressEntry, matrix [][]float64) (*Geography, error) {
	n := len(matrix)
	if n < 2 {
		return nil, fmt.Errorf("new geography: matrix must hold at least 2 addresses, got %d: %w", n, domain.ErrValidation)
	}
	if len(entries) != n {
		return nil, fmt.Errorf("new geography: %d addresses for a %dx%d matrix: %w", len(entries), n, n, domain.ErrValidation)
	}

	for i, row := range matrix {
		if len(row) != n {
			return nil, fmt.Errorf("new geography: row %d has %d columns, want %d: %w", i, len(row), n, domain.ErrValidation)
		}
	}

	for i := 0; i < n; i++ {
		d := matrix[i][i]
		if d != 0 && !math.IsInf(d, 1) {
			return nil, fmt.Errorf("new geography: diagonal [%d][%d] = %v, want 0 or +Inf: %w", i, i, d, domain.ErrValidation)
		}
		for j := i + 1; j < n; j++ {
			a, b := matrix[i][j], matrix[j][i]
			if math.IsNaN(a) || math.IsNaN(b) || a < 0 || b < 0 {
				return nil, fmt.Errorf("new geography: negative or NaN distance at [%d][%d]: %w", i, j, domain.ErrValidation)
			}
			if math.IsInf(a, 1) && math.IsInf(b, 1) {
				continue
			}
			if a != b {
				return nil, fmt.Errorf("new geography: asymmetric distance [%d][%d]=%v [%d][%d]=%v: %w", i, j, a, j, i, b, domain.ErrValidation)
			}
		}
	}

	g := &Geography{
		entries: make([]AddressEntry, n),
		index:   make(map[string]int, n),
		matrix:  make([][]float64, n),
	}
	seen := make(map[int]struct{}, n)
	for _, e := range entries {
		street := strings.TrimSpace(e.Street)
		if street == "" {
			return nil, fmt.Errorf("new geography: address id %d has an empty street: %w", e.ID, domain.ErrValidation)
		}
		if e.ID < 0 || e.ID >= n {
			return nil, fmt.Errorf("new geography: address id %d out of range [0,%d): %w", e.ID, n, domain.ErrValidation)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("new geography: duplicate address id %d: %w", e.ID, domain.ErrValidation)
		}
		if _, dup := g.index[street]; dup {
			return nil, fmt.Errorf("new geography: duplicate street %q: %w", street, domain.ErrValidation)
		}
		seen[e.ID] = struct{}{}
		e.Street = street
		g.entries[e.ID] = e
		g.index[street] = e.ID
	}

	for i, row := range matrix {
		g.matrix[i] = append([]float64(nil), row...)
	}

	return g, nil
}

// Index returns the matrix index of a street.
func (g *Geography) Index(street string) (int, error) {
	i, ok := g.index[strings.TrimSpace(street)]
	if !ok {
		return 0, fmt.Errorf("geography index: %q: %w", street, domain.ErrUnknownAddress)
	}
	return i, nil
}

// Distance in miles between two streets. Unreachable pairs are +Inf.
func (g *Geography) Distance(a, b string) (float64, error) {
	i, err := g.Index(a)
	if err != nil {
		return 0, fmt.Errorf("geography distance: %w", err)
	}
	j, err := g.Index(b)
	if err != nil {
		return 0, fmt.Errorf("geography distance: %w", err)
	}
	return g.matrix[i][j], nil
}

func (g *Geography) Len() int { return len(g.entries) }

// MirrorLowerTriangle completes a lower-triangular matrix in place.
// NaN cells stand for blanks in the source file: a blank whose mirror is
// also blank becomes +Inf, otherwise it takes the mirrored value.
func MirrorLowerTriangle(m [][]float64) {
	for i := range m {
		for j := range m[i] {
			if j >= len(m) || i >= len(m[j]) {
				continue
			}
			a, b := m[i][j], m[j][i]
			switch {
			case math.IsNaN(a) && math.IsNaN(b):
				m[i][j], m[j][i] = math.Inf(1), math.Inf(1)
			case math.IsNaN(a):
				m[i][j] = b
			case math.IsNaN(b):
				m[j][i] = a
			}
		}
	}
}

// Package datagen builds synthetic service days: an address table, a
// symmetric distance matrix and a parcel list with deadlines and notes.
package datagen

import (
	"fmt"
	"math"
	"math/rand"
	"parcel-dispatch-service/internal/adapters/ingest"
	"parcel-dispatch-service/internal/domain"
	"parcel-dispatch-service/internal/geography"
	"slices"
	"strings"

	"github.com/jaswdr/faker"
)

const (
	MinParcels   = 20
	MaxParcels   = 40
	MinLowerHour = 9
	MaxLowerHour = 16
	MinUpperHour = 10
	MaxUpperHour = 18

	// Side of the square service area, in miles.
	areaMiles = 12
)

type Options struct {
	Parcels       int
	Addresses     int
	ConstraintPct int
	DeadlinePct   int
	LowerHour     int
	UpperHour     int
	Hub           string
	Seed          int64
}

func DefaultOptions() Options {
	return Options{
		Parcels:       20,
		Addresses:     27,
		ConstraintPct: 20,
		DeadlinePct:   20,
		LowerHour:     MinLowerHour,
		UpperHour:     MaxUpperHour,
		Hub:           domain.DefaultHub,
		Seed:          1,
	}
}

// Clamp pulls every option into its supported range and orders the hour band.
func (o Options) Clamp() Options {
	o.Parcels = clamp(o.Parcels, MinParcels, MaxParcels)
	o.ConstraintPct = clamp(o.ConstraintPct, 0, 100)
	o.DeadlinePct = clamp(o.DeadlinePct, 0, 100)
	o.LowerHour = clamp(o.LowerHour, MinLowerHour, MaxLowerHour)
	o.UpperHour = clamp(o.UpperHour, MinUpperHour, MaxUpperHour)
	if o.LowerHour > o.UpperHour {
		o.LowerHour, o.UpperHour = o.UpperHour, o.LowerHour
	}
	if o.Addresses < 2 {
		o.Addresses = 2
	}
	if o.Hub == "" {
		o.Hub = domain.DefaultHub
	}
	return o
}

type Generator struct {
	opts Options
	fake faker.Faker
}

func New(opts Options) *Generator {
	opts = opts.Clamp()
	return &Generator{
		opts: opts,
		fake: faker.NewWithSeed(rand.NewSource(opts.Seed)),
	}
}

// Generate returns a dataset whose geography always validates.
func (g *Generator) Generate() (*ingest.Dataset, error) {
	addrs := g.addresses()
	ds := &ingest.Dataset{
		Addresses: addrs,
		Matrix:    g.distances(len(addrs)),
	}
	ds.Parcels = g.parcels(addrs[1:])

	if _, err := ds.Geography(); err != nil {
		return nil, fmt.Errorf("generate dataset: %w", err)
	}
	return ds, nil
}

// addresses places the hub at id 0 and fills the rest with unique streets.
func (g *Generator) addresses() []geography.AddressEntry {
	out := []geography.AddressEntry{{ID: 0, Name: "Hub", Street: g.opts.Hub}}
	seen := map[string]struct{}{g.opts.Hub: {}}

	for id := 1; id < g.opts.Addresses; id++ {
		street := g.streetAddress()
		for n := 2; ; n++ {
			if _, dup := seen[street]; !dup {
				break
			}
			street = fmt.Sprintf("%s Unit %d", g.streetAddress(), n)
		}
		seen[street] = struct{}{}
		out = append(out, geography.AddressEntry{ID: id, Name: g.fake.Company().Name(), Street: street})
	}
	return out
}

// streetAddress drops the '%' placeholders faker sometimes leaves unfilled.
func (g *Generator) streetAddress() string {
	return strings.TrimSpace(strings.ReplaceAll(g.fake.Address().StreetAddress(), "%", ""))
}

// distances drops every address on a plane and measures straight-line miles,
// rounded to a tenth.
func (g *Generator) distances(n int) [][]float64 {
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range n {
		xs[i] = g.fake.Float64(2, 0, areaMiles)
		ys[i] = g.fake.Float64(2, 0, areaMiles)
	}

	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			d := math.Round(math.Hypot(xs[i]-xs[j], ys[i]-ys[j])*10) / 10
			if d == 0 {
				d = 0.1
			}
			m[i][j], m[j][i] = d, d
		}
	}
	return m
}

func (g *Generator) parcels(destinations []geography.AddressEntry) []*domain.Parcel {
	n := g.opts.Parcels
	ids := make([]domain.ParcelID, 0, n)
	parcels := make(map[domain.ParcelID]*domain.Parcel, n)

	for i := 1; i <= n; i++ {
		id := domain.ParcelID(i)
		dest := destinations[g.fake.IntBetween(0, len(destinations)-1)]
		addr := domain.Address{
			Street: dest.Street,
			City:   g.fake.Address().City(),
			State:  g.fake.Address().StateAbbr(),
			Zip:    g.fake.Address().PostCode(),
		}
		weight := float64(g.fake.IntBetween(1, 88))
		parcels[id] = domain.NewParcel(id, addr, domain.EndOfDay, weight, nil)
		ids = append(ids, id)
	}

	for _, id := range g.sample(ids, n*g.opts.DeadlinePct/100) {
		parcels[id].Deadline = g.randomClock(g.opts.LowerHour, g.opts.UpperHour)
	}

	// Parcels sharing a street end up sharing notes and the earliest
	// deadline, so a delay has to clear every deadline on its street.
	due := make(map[string]domain.Clock)
	for _, id := range ids {
		p := parcels[id]
		if d, ok := due[p.Address.Street]; !ok || p.Deadline < d {
			due[p.Address.Street] = p.Deadline
		}
	}

	constrained := g.sample(ids, n*g.opts.ConstraintPct/100)
	for _, id := range constrained {
		p := parcels[id]
		p.Note = g.note(p, due[p.Address.Street], constrained, parcels)
	}

	out := make([]*domain.Parcel, 0, n)
	for _, id := range ids {
		out = append(out, parcels[id])
	}
	return out
}

// note picks D, T or W. A delay always lands in an hour before the hour of
// due, the earliest deadline on the parcel's street; W references
// constrained parcels that still carry no note. Whichever kind cannot be
// honoured falls back to a truck pin.
func (g *Generator) note(p *domain.Parcel, due domain.Clock, constrained []domain.ParcelID, parcels map[domain.ParcelID]*domain.Parcel) domain.Note {
	kind := g.fake.RandomStringElement([]string{"D", "T", "W"})

	if kind == "D" {
		upper := g.opts.UpperHour
		if due != domain.EndOfDay {
			upper = min(upper, due.Hour()-1)
		}
		if g.opts.LowerHour <= upper {
			return domain.Delayed{Until: g.randomClock(g.opts.LowerHour, upper)}
		}
		kind = g.fake.RandomStringElement([]string{"T", "W"})
	}

	if kind == "W" {
		candidates := make([]domain.ParcelID, 0, len(constrained))
		for _, id := range constrained {
			if id != p.ID && parcels[id].Note == nil {
				candidates = append(candidates, id)
			}
		}
		if len(candidates) > 0 {
			k := min(g.fake.IntBetween(1, 2), len(candidates))
			with := g.sample(candidates, k)
			slices.Sort(with)
			return domain.MustShipWith{Parcels: with}
		}
	}

	return domain.PinnedToVehicle{Vehicle: g.fake.IntBetween(1, 3) - 1}
}

func (g *Generator) randomClock(lowerHour, upperHour int) domain.Clock {
	return domain.NewClock(g.fake.IntBetween(lowerHour, upperHour), g.fake.IntBetween(0, 59))
}

// sample returns k distinct elements of ids in random order.
func (g *Generator) sample(ids []domain.ParcelID, k int) []domain.ParcelID {
	pool := slices.Clone(ids)
	k = min(k, len(pool))
	for i := 0; i < k; i++ {
		j := g.fake.IntBetween(i, len(pool)-1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

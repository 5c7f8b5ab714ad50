// Command datagen writes a synthetic service day as the three input CSVs.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"parcel-dispatch-service/internal/adapters/ingest"
	"parcel-dispatch-service/internal/datagen"
	"parcel-dispatch-service/internal/platform/obs"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

func main() {
	def := datagen.DefaultOptions()

	var (
		out         = flag.String("out", "data", "output directory")
		parcels     = flag.Int("n", def.Parcels, "number of parcels (20-40)")
		addresses   = flag.Int("addresses", def.Addresses, "number of addresses, hub included")
		constraints = flag.Int("c", def.ConstraintPct, "percentage of parcels with a note")
		deadlines   = flag.Int("d", def.DeadlinePct, "percentage of parcels with a deadline")
		lower       = flag.Int("l", def.LowerHour, "earliest deadline hour (9-16)")
		upper       = flag.Int("u", def.UpperHour, "latest deadline hour (10-18)")
		hub         = flag.String("hub", def.Hub, "hub street address")
		seed        = flag.Int64("seed", def.Seed, "random seed")
	)
	flag.Parse()

	obs.Setup("info", "console")

	opts := datagen.Options{
		Parcels:       *parcels,
		Addresses:     *addresses,
		ConstraintPct: *constraints,
		DeadlinePct:   *deadlines,
		LowerHour:     *lower,
		UpperHour:     *upper,
		Hub:           *hub,
		Seed:          *seed,
	}.Clamp()

	ds, err := datagen.New(opts).Generate()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot generate dataset")
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Fatal().Err(err).Msg("cannot create output directory")
	}

	paths := ingest.PathsIn(*out, "packages.csv", "addresses.csv", "distances.csv")
	files := []struct {
		path  string
		write func(io.Writer) error
	}{
		{paths.Parcels, func(w io.Writer) error { return ingest.WriteParcels(w, ds.Parcels) }},
		{paths.Addresses, func(w io.Writer) error { return ingest.WriteAddresses(w, ds.Addresses) }},
		{paths.Distances, func(w io.Writer) error { return ingest.WriteDistances(w, ds.Matrix) }},
	}
	for _, f := range files {
		if err := writeFile(f.path, f.write); err != nil {
			log.Fatal().Err(err).Str("path", f.path).Msg("cannot write file")
		}
	}

	log.Info().
		Int("parcels", len(ds.Parcels)).
		Int("addresses", len(ds.Addresses)).
		Str("dir", filepath.Clean(*out)).
		Msg("dataset written")
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

package ingest

import (
	"bytes"
	"context"
	"math"
	"os"
	"parcel-dispatch-service/internal/domain"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const parcelCSV = `id,address,city,state,zip,deadline,weight,note
1,195 W Oakland Ave,Salt Lake City,UT,84115,10:30 AM,21,None
6,3060 Lester St,West Valley City,UT,84119,10:30 AM,88,"D, 9:05 AM"
3,233 Canyon Rd,Salt Lake City,UT,84103,EOD,2,"T, 2"
14,4300 S 1300 E,Millcreek,UT,84117,9:00 AM,88,"W, 15, 19"
9,300 State St,Salt Lake City,UT,84103,EOD,2,"X, 10:20 AM, 410 S State St, Salt Lake City, UT, 84111"
`

const addressCSV = `0,Western Governors University,4001 South 700 East
1,International Peace Gardens,1060 Dalton Ave S
2,Sugar House Park,1330 2100 S
`

const distanceCSV = `0.0,,
7.2,0.0,
3.8,,0.0
`

func TestReadParcels(t *testing.T) {
	parcels, err := ReadParcels(strings.NewReader(parcelCSV))
	require.NoError(t, err)
	require.Len(t, parcels, 5)

	first := parcels[0]
	assert.Equal(t, domain.ParcelID(1), first.ID)
	assert.Equal(t, "195 W Oakland Ave", first.Address.Street)
	assert.Equal(t, "84115", first.Address.Zip)
	assert.Equal(t, domain.NewClock(10, 30), first.Deadline)
	assert.InDelta(t, 21, first.WeightKilo, 1e-9)
	assert.Nil(t, first.Note)

	assert.Equal(t, domain.Delayed{Until: domain.NewClock(9, 5)}, parcels[1].Note)
	assert.Equal(t, domain.PinnedToVehicle{Vehicle: 1}, parcels[2].Note)
	assert.Equal(t, domain.EndOfDay, parcels[2].Deadline)
	assert.Equal(t, domain.MustShipWith{Parcels: []domain.ParcelID{15, 19}}, parcels[3].Note)

	fix, ok := parcels[4].Note.(domain.AddressCorrection)
	require.True(t, ok)
	assert.Equal(t, "410 S State St", fix.Address.Street)
	assert.Equal(t, domain.NewClock(10, 20), fix.At)
}

func TestReadParcelsRejectsBadRows(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"missing street", "1,,Salt Lake City,UT,84115,EOD,2,\n"},
		{"bad id", "1,a,b,c,d,EOD,2,\nx2,a,b,c,d,EOD,2,\n"},
		{"zero id", "0,a,b,c,d,EOD,2,\n"},
		{"negative weight", "1,a,b,c,d,EOD,-2,\n"},
		{"bad deadline", "1,a,b,c,d,noon,2,\n"},
		{"bad note", "1,a,b,c,d,EOD,2,\"Q, 1\"\n"},
		{"short row", "1,a,b,c\n"},
		{"duplicate id", "1,a,b,c,d,EOD,2,\n1,b,b,c,d,EOD,2,\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadParcels(strings.NewReader(tt.csv))
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestReadDistancesMirrorsLowerTriangle(t *testing.T) {
	m, err := ReadDistances(strings.NewReader(distanceCSV))
	require.NoError(t, err)
	require.Len(t, m, 3)

	assert.Equal(t, 7.2, m[0][1])
	assert.Equal(t, 7.2, m[1][0])
	assert.Equal(t, 3.8, m[0][2])
	assert.True(t, math.IsInf(m[1][2], 1))
	assert.True(t, math.IsInf(m[2][1], 1))
	assert.Zero(t, m[2][2])
}

func TestWriteRoundTrip(t *testing.T) {
	parcels, err := ReadParcels(strings.NewReader(parcelCSV))
	require.NoError(t, err)
	addrs, err := ReadAddresses(strings.NewReader(addressCSV))
	require.NoError(t, err)
	m, err := ReadDistances(strings.NewReader(distanceCSV))
	require.NoError(t, err)

	var pb, ab, db bytes.Buffer
	require.NoError(t, WriteParcels(&pb, parcels))
	require.NoError(t, WriteAddresses(&ab, addrs))
	require.NoError(t, WriteDistances(&db, m))

	again, err := ReadParcels(&pb)
	require.NoError(t, err)
	require.Len(t, again, len(parcels))
	for i := range parcels {
		assert.Equal(t, parcels[i].Note, again[i].Note)
		assert.Equal(t, parcels[i].Deadline, again[i].Deadline)
	}

	addrs2, err := ReadAddresses(&ab)
	require.NoError(t, err)
	assert.Equal(t, addrs, addrs2)

	m2, err := ReadDistances(&db)
	require.NoError(t, err)
	assert.Equal(t, m, m2)
}

func TestLoadDataset(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "parcels.csv"), []byte("1,1060 Dalton Ave S,SLC,UT,84104,EOD,2,\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "addresses.csv"), []byte(addressCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "distances.csv"), []byte(distanceCSV), 0o644))

	ds, err := LoadDataset(context.Background(), PathsIn(dir, "parcels.csv", "addresses.csv", "distances.csv"))
	require.NoError(t, err)
	require.Len(t, ds.Parcels, 1)

	g, err := ds.LoadGeography(context.Background())
	require.NoError(t, err)
	d, err := g.Distance("4001 South 700 East", "1060 Dalton Ave S")
	require.NoError(t, err)
	assert.Equal(t, 7.2, d)

	copies, err := ds.ListParcels(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, ds.Parcels[0], copies[0])
}

func TestLoadDatasetMissingFile(t *testing.T) {
	_, err := LoadDataset(context.Background(), PathsIn(t.TempDir(), "a.csv", "b.csv", "c.csv"))
	assert.Error(t, err)
}

func TestLoadDatasetRejectsBadGeography(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p.csv"), []byte("1,a,b,c,d,EOD,2,\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("0,hub,HUB\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "d.csv"), []byte(distanceCSV), 0o644))

	_, err := LoadDataset(context.Background(), PathsIn(dir, "p.csv", "a.csv", "d.csv"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

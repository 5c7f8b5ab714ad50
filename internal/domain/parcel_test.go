package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNote(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want Note
	}{
		{name: "none", raw: "", want: nil},
		{name: "literal none", raw: "None", want: nil},
		{name: "delayed", raw: "D, 9:05 AM", want: Delayed{Until: NewClock(9, 5)}},
		{name: "truck is stored zero based", raw: "T, 2", want: PinnedToVehicle{Vehicle: 1}},
		{name: "ship with", raw: "W, 15, 19", want: MustShipWith{Parcels: []ParcelID{15, 19}}},
		{
			name: "correction",
			raw:  "X, 10:20 AM, 410 S State St, Salt Lake City, UT, 84111",
			want: AddressCorrection{
				At:      NewClock(10, 20),
				Address: Address{Street: "410 S State St", City: "Salt Lake City", State: "UT", Zip: "84111"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseNote(tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)

			if got != nil {
				again, err := ParseNote(got.String())
				require.NoError(t, err)
				require.Equal(t, got, again)
			}
		})
	}
}

func TestParseNoteRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"Q, 1", "T, 0", "T", "W", "W, x", "D, noon", "X, 10:20 AM, street"} {
		_, err := ParseNote(raw)
		require.ErrorIs(t, err, ErrValidation, raw)
	}
}

func TestParseDeadline(t *testing.T) {
	eod, err := ParseDeadline("EOD")
	require.NoError(t, err)
	require.Equal(t, EndOfDay, eod)

	blank, err := ParseDeadline("  ")
	require.NoError(t, err)
	require.Equal(t, EndOfDay, blank)

	c, err := ParseDeadline("10:30 AM")
	require.NoError(t, err)
	require.Equal(t, NewClock(10, 30), c)
	require.Equal(t, "10:30", c.String())
	require.Equal(t, "10:30 AM", c.Kitchen())
}

func TestTravelMinutes(t *testing.T) {
	m, ok := TravelMinutes(10, 20)
	require.True(t, ok)
	require.Equal(t, 30, m)

	m, ok = TravelMinutes(1.5, 18)
	require.True(t, ok)
	require.Equal(t, 5, m)

	_, ok = TravelMinutes(1, 0)
	require.False(t, ok)
}

func TestParcelAddressAtTime(t *testing.T) {
	p := NewParcel(9, Address{Street: "300 State St"}, NewClock(10, 0), 2, nil)
	require.Equal(t, "300 State St", p.AddressAt(NewClock(8, 0)))

	require.NoError(t, p.CorrectAddress(NewClock(10, 20), Address{Street: "410 S State St"}))
	assert.Equal(t, "300 State St", p.AddressAt(NewClock(10, 19)))
	assert.Equal(t, "410 S State St", p.AddressAt(NewClock(10, 20)))
	assert.Equal(t, "410 S State St", p.AddressAt(EndOfDay))

	err := p.CorrectAddress(NewClock(11, 0), Address{Street: "elsewhere"})
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, "410 S State St", p.Address.Street)
}

func TestParcelCloneIsDeep(t *testing.T) {
	p := NewParcel(1, Address{Street: "A"}, EndOfDay, 1, MustShipWith{Parcels: []ParcelID{2}})
	g := 3
	p.Group = &g

	c := p.Clone()
	*c.Group = 4
	c.Note.(MustShipWith).Parcels[0] = 99
	c.History[0].Street = "B"

	assert.Equal(t, 3, *p.Group)
	assert.Equal(t, ParcelID(2), p.Note.(MustShipWith).Parcels[0])
	assert.Equal(t, "A", p.History[0].Street)
}

func TestPlanRecordRestore(t *testing.T) {
	a := NewParcel(1, Address{Street: "A", City: "Salt Lake City"}, NewClock(10, 30), 2, Delayed{Until: NewClock(9, 5)})
	b := NewParcel(2, Address{Street: "B"}, EndOfDay, 3, nil)

	f := NewFleet(1, 4, DefaultSpeedMPH, "HUB")
	f.AssignDrivers(DriverNames(1))
	require.NoError(t, f.Vehicles[0].Commit([]*Parcel{a, b}, 12))

	tl := &Timeline{}
	tl.Append(
		Event{Vehicle: f.Vehicles[0], At: NewClock(9, 5), Action: Depart, Address: "HUB"},
		Event{Vehicle: f.Vehicles[0], Parcel: a, At: NewClock(9, 20), Action: Deliver, Address: "A"},
	)

	plan := &Plan{RunID: "run-1", Attempts: 2, Hub: "HUB", Fleet: f, Timeline: tl, Parcels: []*Parcel{a, b}}

	raw, err := json.Marshal(NewPlanRecord(plan))
	require.NoError(t, err)

	var rec PlanRecord
	require.NoError(t, json.Unmarshal(raw, &rec))

	restored, err := rec.Restore()
	require.NoError(t, err)
	require.Equal(t, "run-1", restored.RunID)
	require.Len(t, restored.Fleet.Vehicles, 1)
	require.Len(t, restored.Timeline.Events, 2)

	ra, ok := restored.Parcel(1)
	require.True(t, ok)
	require.Same(t, ra, restored.Fleet.Vehicles[0].Route[0])
	require.Same(t, ra, restored.Timeline.Events[1].Parcel)
	require.Equal(t, Delayed{Until: NewClock(9, 5)}, ra.Note)
	require.Equal(t, NewClock(10, 30), ra.Deadline)
	require.Equal(t, Deliver, restored.Timeline.Events[1].Action)
}

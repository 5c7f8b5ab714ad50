package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Note is the closed set of constraint annotations a parcel may carry.
// A nil Note means the parcel has no constraint. Consumers switch over the
// concrete types below; no other implementations exist.
type Note interface {
	fmt.Stringer
	note()
}

// Delayed parcels are not available at the hub before Until.
type Delayed struct {
	Until Clock
}

// PinnedToVehicle parcels may only travel on the vehicle at the given
// zero-based fleet index.
type PinnedToVehicle struct {
	Vehicle int
}

// MustShipWith parcels travel on the same vehicle as every listed parcel.
type MustShipWith struct {
	Parcels []ParcelID
}

// AddressCorrection replaces the destination once the correction time has
// been reached on the road.
type AddressCorrection struct {
	At      Clock
	Address Address
}

func (Delayed) note()           {}
func (PinnedToVehicle) note()   {}
func (MustShipWith) note()      {}
func (AddressCorrection) note() {}

func (n Delayed) String() string { return "D, " + n.Until.Kitchen() }

func (n PinnedToVehicle) String() string { return "T, " + strconv.Itoa(n.Vehicle+1) }

func (n MustShipWith) String() string {
	parts := make([]string, 0, len(n.Parcels)+1)
	parts = append(parts, "W")
	for _, id := range n.Parcels {
		parts = append(parts, strconv.Itoa(int(id)))
	}
	return strings.Join(parts, ", ")
}

func (n AddressCorrection) String() string {
	return strings.Join([]string{
		"X", n.At.Kitchen(), n.Address.Street, n.Address.City, n.Address.State, n.Address.Zip,
	}, ", ")
}

// ParseNote converts a raw note column into a Note.
//
//	D, 9:05 AM                     delayed until 9:05
//	T, 2                           only on truck 2 (stored as index 1)
//	W, 15, 19                      ship with parcels 15 and 19
//	X, 10:20 AM, street, city, state, zip
func ParseNote(raw string) (Note, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "none") {
		return nil, nil
	}

	fields := strings.Split(trimmed, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	tag := strings.ToUpper(fields[0])
	args := fields[1:]

	switch tag {
	case "D":
		if len(args) != 1 {
			return nil, fmt.Errorf("parse note %q: delayed note needs one time: %w", raw, ErrValidation)
		}
		until, err := ParseClock(args[0])
		if err != nil {
			return nil, fmt.Errorf("parse note %q: %w", raw, err)
		}
		return Delayed{Until: until}, nil

	case "T":
		if len(args) != 1 {
			return nil, fmt.Errorf("parse note %q: truck note needs one truck number: %w", raw, ErrValidation)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("parse note %q: invalid truck number: %w", raw, ErrValidation)
		}
		return PinnedToVehicle{Vehicle: n - 1}, nil

	case "W":
		if len(args) == 0 {
			return nil, fmt.Errorf("parse note %q: ship-with note needs parcel ids: %w", raw, ErrValidation)
		}
		ids := make([]ParcelID, 0, len(args))
		for _, a := range args {
			n, err := strconv.Atoi(a)
			if err != nil {
				return nil, fmt.Errorf("parse note %q: invalid parcel id %q: %w", raw, a, ErrValidation)
			}
			ids = append(ids, ParcelID(n))
		}
		return MustShipWith{Parcels: ids}, nil

	case "X":
		if len(args) != 5 {
			return nil, fmt.Errorf("parse note %q: correction note needs time, street, city, state, zip: %w", raw, ErrValidation)
		}
		at, err := ParseClock(args[0])
		if err != nil {
			return nil, fmt.Errorf("parse note %q: %w", raw, err)
		}
		addr := Address{Street: args[1], City: args[2], State: args[3], Zip: args[4]}
		if addr.Street == "" {
			return nil, fmt.Errorf("parse note %q: empty corrected street: %w", raw, ErrValidation)
		}
		return AddressCorrection{At: at, Address: addr}, nil
	}

	return nil, fmt.Errorf("parse note %q: unknown tag %q: %w", raw, fields[0], ErrValidation)
}

// CloneNote returns a copy that shares no mutable state with n.
func CloneNote(n Note) Note {
	if w, ok := n.(MustShipWith); ok {
		return MustShipWith{Parcels: slices.Clone(w.Parcels)}
	}
	return n
}

// NoteString renders a possibly-nil note.
func NoteString(n Note) string {
	if n == nil {
		return ""
	}
	return n.String()
}

package domain

import (
	"fmt"
	"slices"
)

type ParcelID int

// Delivery status of a parcel over the service day.
type Status int

const (
	AtHub Status = iota
	EnRoute
	Delivered
)

var statusNames = [...]string{"at_the_hub", "en_route", "delivered"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	i := slices.Index(statusNames[:], string(b))
	if i < 0 {
		return fmt.Errorf("unmarshal status %q: %w", b, ErrValidation)
	}
	*s = Status(i)
	return nil
}

// Destination of a parcel. Street is the identity used against the address
// table; the rest is carried for display.
type Address struct {
	Street string
	City   string
	State  string
	Zip    string
}

// One entry of a parcel's address history. The first entry has no
// timestamp and holds the original address.
type AddressChange struct {
	At     *Clock
	Street string
}

// Represents a single unit of cargo handled by the dispatcher.
// Priority, Group and Vehicle are written by the constraint resolver and the
// loader; Address, Status and DeliveredAt are written by the simulator.
type Parcel struct {
	ID          ParcelID
	Address     Address
	Deadline    Clock
	WeightKilo  float64
	Note        Note
	Status      Status
	DeliveredAt *Clock
	Vehicle     *int
	Group       *int
	Priority    *int
	History     []AddressChange
}

func NewParcel(id ParcelID, addr Address, deadline Clock, weightKilo float64, note Note) *Parcel {
	return &Parcel{
		ID:         id,
		Address:    addr,
		Deadline:   deadline,
		WeightKilo: weightKilo,
		Note:       note,
		History:    []AddressChange{{Street: addr.Street}},
	}
}

// HasDeadline reports whether the parcel carries a real (non end-of-day) deadline.
func (p *Parcel) HasDeadline() bool { return p.Deadline != EndOfDay }

func (p *Parcel) DelayedUntil() (Clock, bool) {
	if d, ok := p.Note.(Delayed); ok {
		return d.Until, true
	}
	return 0, false
}

func (p *Parcel) IsDelayed() bool {
	_, ok := p.Note.(Delayed)
	return ok
}

func (p *Parcel) HasCoDeliveryNote() bool {
	_, ok := p.Note.(MustShipWith)
	return ok
}

// HasConstraintNote reports a note other than an address correction.
func (p *Parcel) HasConstraintNote() bool {
	if p.Note == nil {
		return false
	}
	_, correction := p.Note.(AddressCorrection)
	return !correction
}

// Corrected reports whether the one permitted address correction has happened.
func (p *Parcel) Corrected() bool { return len(p.History) > 1 }

// CorrectAddress rewrites the destination and records it in the history.
// At most one correction may occur.
func (p *Parcel) CorrectAddress(at Clock, addr Address) error {
	if p.Corrected() {
		return fmt.Errorf("correct address: parcel %d was already corrected: %w", p.ID, ErrValidation)
	}
	p.Address = addr
	p.History = append(p.History, AddressChange{At: &at, Street: addr.Street})
	return nil
}

// AddressAt returns the street the parcel was destined for as of t: the
// latest timestamped entry not after t, else the original address.
func (p *Parcel) AddressAt(t Clock) string {
	if len(p.History) == 0 {
		return p.Address.Street
	}

	street := p.History[0].Street
	for _, h := range p.History[1:] {
		if h.At == nil {
			continue
		}
		if *h.At > t {
			break
		}
		street = h.Street
	}
	return street
}

// Clone returns a deep copy of the parcel.
func (p *Parcel) Clone() *Parcel {
	c := *p
	c.Note = CloneNote(p.Note)
	c.DeliveredAt = clonePtr(p.DeliveredAt)
	c.Vehicle = clonePtr(p.Vehicle)
	c.Group = clonePtr(p.Group)
	c.Priority = clonePtr(p.Priority)
	c.History = make([]AddressChange, len(p.History))
	for i, h := range p.History {
		c.History[i] = AddressChange{At: clonePtr(h.At), Street: h.Street}
	}
	return &c
}

// PriorityOr returns the assigned priority or the fallback when unset.
func (p *Parcel) PriorityOr(fallback int) int {
	if p.Priority == nil {
		return fallback
	}
	return *p.Priority
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

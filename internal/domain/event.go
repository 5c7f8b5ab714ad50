package domain

import (
	"fmt"
	"slices"
	"sort"
)

type Action int

const (
	Depart Action = iota
	Deliver
	Return
)

var actionNames = [...]string{"Departed", "Delivered", "Returned"}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return actionNames[a]
}

func (a Action) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Action) UnmarshalText(b []byte) error {
	i := slices.Index(actionNames[:], string(b))
	if i < 0 {
		return fmt.Errorf("unmarshal action %q: %w", b, ErrValidation)
	}
	*a = Action(i)
	return nil
}

// A single scheduled step of a committed plan.
// Parcel is nil for Depart and Return. Address is the street where the
// event happens; it is patched in place when a parcel's destination is
// corrected mid-route. Actual is filled in once the event is replayed.
type Event struct {
	Vehicle *Vehicle
	Parcel  *Parcel
	At      Clock
	Action  Action
	Address string
	Actual  *Clock
}

// EffectiveAt is the replayed time when known, else the scheduled one.
func (e Event) EffectiveAt() Clock {
	if e.Actual != nil {
		return *e.Actual
	}
	return e.At
}

// Chronologically ordered Depart/Deliver/Return events for a plan.
type Timeline struct {
	Events []Event
}

func (t *Timeline) Append(e ...Event) { t.Events = append(t.Events, e...) }

// Sort orders events by scheduled time; ties keep insertion order.
func (t *Timeline) Sort() {
	sort.SliceStable(t.Events, func(i, j int) bool { return t.Events[i].At < t.Events[j].At })
}

func (t *Timeline) Len() int { return len(t.Events) }

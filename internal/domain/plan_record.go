package domain

import (
	"fmt"
	"time"
)

// PlanRecord is the pointer-free form of a Plan used by caches and stores.
type PlanRecord struct {
	RunID     string          `json:"run_id"`
	Attempts  int             `json:"attempts"`
	Hub       string          `json:"hub"`
	CreatedAt time.Time       `json:"created_at"`
	Drivers   []string        `json:"drivers"`
	Vehicles  []VehicleRecord `json:"vehicles"`
	Parcels   []ParcelRecord  `json:"parcels"`
	Events    []EventRecord   `json:"events"`
}

type VehicleRecord struct {
	ID          int        `json:"id"`
	MaxCapacity int        `json:"max_capacity"`
	SpeedMPH    float64    `json:"speed_mph"`
	Driver      string     `json:"driver,omitempty"`
	DepartAt    Clock      `json:"depart_at"`
	ReturnAt    *Clock     `json:"return_at,omitempty"`
	Home        string     `json:"home"`
	Route       []ParcelID `json:"route"`
	Distance    float64    `json:"distance"`
}

type AddressChangeRecord struct {
	At     *Clock `json:"at,omitempty"`
	Street string `json:"street"`
}

type ParcelRecord struct {
	ID          ParcelID              `json:"id"`
	Street      string                `json:"street"`
	City        string                `json:"city"`
	State       string                `json:"state"`
	Zip         string                `json:"zip"`
	Deadline    Clock                 `json:"deadline"`
	WeightKilo  float64               `json:"weight_kilo"`
	Note        string                `json:"note,omitempty"`
	Status      Status                `json:"status"`
	DeliveredAt *Clock                `json:"delivered_at,omitempty"`
	Vehicle     *int                  `json:"vehicle,omitempty"`
	Group       *int                  `json:"group,omitempty"`
	Priority    *int                  `json:"priority,omitempty"`
	History     []AddressChangeRecord `json:"history"`
}

type EventRecord struct {
	Vehicle int       `json:"vehicle"`
	Parcel  *ParcelID `json:"parcel,omitempty"`
	At      Clock     `json:"at"`
	Action  Action    `json:"action"`
	Address string    `json:"address"`
	Actual  *Clock    `json:"actual,omitempty"`
}

func NewParcelRecord(p *Parcel) ParcelRecord {
	r := ParcelRecord{
		ID:          p.ID,
		Street:      p.Address.Street,
		City:        p.Address.City,
		State:       p.Address.State,
		Zip:         p.Address.Zip,
		Deadline:    p.Deadline,
		WeightKilo:  p.WeightKilo,
		Note:        NoteString(p.Note),
		Status:      p.Status,
		DeliveredAt: clonePtr(p.DeliveredAt),
		Vehicle:     clonePtr(p.Vehicle),
		Group:       clonePtr(p.Group),
		Priority:    clonePtr(p.Priority),
		History:     make([]AddressChangeRecord, 0, len(p.History)),
	}
	for _, h := range p.History {
		r.History = append(r.History, AddressChangeRecord{At: clonePtr(h.At), Street: h.Street})
	}
	return r
}

// Parcel rebuilds the domain parcel, re-parsing its note.
func (r ParcelRecord) Parcel() (*Parcel, error) {
	note, err := ParseNote(r.Note)
	if err != nil {
		return nil, fmt.Errorf("restore parcel %d: %w", r.ID, err)
	}

	p := &Parcel{
		ID:          r.ID,
		Address:     Address{Street: r.Street, City: r.City, State: r.State, Zip: r.Zip},
		Deadline:    r.Deadline,
		WeightKilo:  r.WeightKilo,
		Note:        note,
		Status:      r.Status,
		DeliveredAt: clonePtr(r.DeliveredAt),
		Vehicle:     clonePtr(r.Vehicle),
		Group:       clonePtr(r.Group),
		Priority:    clonePtr(r.Priority),
	}
	for _, h := range r.History {
		p.History = append(p.History, AddressChange{At: clonePtr(h.At), Street: h.Street})
	}
	if len(p.History) == 0 {
		p.History = []AddressChange{{Street: p.Address.Street}}
	}
	return p, nil
}

func NewPlanRecord(plan *Plan) PlanRecord {
	rec := PlanRecord{
		RunID:     plan.RunID,
		Attempts:  plan.Attempts,
		Hub:       plan.Hub,
		CreatedAt: plan.CreatedAt,
		Parcels:   make([]ParcelRecord, 0, len(plan.Parcels)),
	}

	for _, p := range plan.Parcels {
		rec.Parcels = append(rec.Parcels, NewParcelRecord(p))
	}

	if plan.Fleet != nil {
		rec.Drivers = append(rec.Drivers, plan.Fleet.Drivers...)
		for _, v := range plan.Fleet.Vehicles {
			vr := VehicleRecord{
				ID:          v.ID,
				MaxCapacity: v.MaxCapacity,
				SpeedMPH:    v.SpeedMPH,
				Driver:      v.Driver,
				DepartAt:    v.DepartAt,
				ReturnAt:    clonePtr(v.ReturnAt),
				Home:        v.Home,
				Route:       make([]ParcelID, 0, len(v.Route)),
				Distance:    v.Distance,
			}
			for _, p := range v.Route {
				vr.Route = append(vr.Route, p.ID)
			}
			rec.Vehicles = append(rec.Vehicles, vr)
		}
	}

	if plan.Timeline != nil {
		for _, e := range plan.Timeline.Events {
			er := EventRecord{
				Vehicle: e.Vehicle.ID,
				At:      e.At,
				Action:  e.Action,
				Address: e.Address,
				Actual:  clonePtr(e.Actual),
			}
			if e.Parcel != nil {
				id := e.Parcel.ID
				er.Parcel = &id
			}
			rec.Events = append(rec.Events, er)
		}
	}

	return rec
}

// Restore rebuilds a Plan with every vehicle, route and event pointing at
// the same parcel instances.
func (r PlanRecord) Restore() (*Plan, error) {
	plan := &Plan{
		RunID:     r.RunID,
		Attempts:  r.Attempts,
		Hub:       r.Hub,
		CreatedAt: r.CreatedAt,
		Fleet:     &Fleet{Drivers: append([]string(nil), r.Drivers...)},
		Timeline:  &Timeline{},
	}

	byID := make(map[ParcelID]*Parcel, len(r.Parcels))
	for _, pr := range r.Parcels {
		p, err := pr.Parcel()
		if err != nil {
			return nil, fmt.Errorf("restore plan %s: %w", r.RunID, err)
		}
		byID[p.ID] = p
		plan.Parcels = append(plan.Parcels, p)
	}

	vehicles := make(map[int]*Vehicle, len(r.Vehicles))
	for _, vr := range r.Vehicles {
		v := &Vehicle{
			ID:          vr.ID,
			MaxCapacity: vr.MaxCapacity,
			SpeedMPH:    vr.SpeedMPH,
			Driver:      vr.Driver,
			DepartAt:    vr.DepartAt,
			ReturnAt:    clonePtr(vr.ReturnAt),
			Home:        vr.Home,
			Distance:    vr.Distance,
		}
		for _, id := range vr.Route {
			p, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("restore plan %s: vehicle %d routes parcel %d: %w", r.RunID, vr.ID, id, ErrUnknownParcel)
			}
			v.Route = append(v.Route, p)
		}
		vehicles[v.ID] = v
		plan.Fleet.Vehicles = append(plan.Fleet.Vehicles, v)
	}

	for _, er := range r.Events {
		v, ok := vehicles[er.Vehicle]
		if !ok {
			return nil, fmt.Errorf("restore plan %s: event references vehicle %d: %w", r.RunID, er.Vehicle, ErrValidation)
		}
		e := Event{Vehicle: v, At: er.At, Action: er.Action, Address: er.Address, Actual: clonePtr(er.Actual)}
		if er.Parcel != nil {
			p, ok := byID[*er.Parcel]
			if !ok {
				return nil, fmt.Errorf("restore plan %s: event references parcel %d: %w", r.RunID, *er.Parcel, ErrUnknownParcel)
			}
			e.Parcel = p
		}
		plan.Timeline.Events = append(plan.Timeline.Events, e)
	}

	return plan, nil
}

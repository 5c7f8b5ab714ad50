package dto

import (
	"parcel-dispatch-service/internal/domain"
	"time"
)

// PlanRequest overrides the configured fleet for one dispatch run.
// Every field is optional.
type PlanRequest struct {
	Hub             string   `json:"hub" validate:"omitempty,max=200"`
	VehicleCount    *int     `json:"vehicle_count" validate:"omitempty,gte=1,lte=20"`
	DriverCount     *int     `json:"driver_count" validate:"omitempty,gte=0,lte=20"`
	VehicleCapacity *int     `json:"vehicle_capacity" validate:"omitempty,gte=1,lte=100"`
	SpeedMPH        *float64 `json:"speed_mph" validate:"omitempty,gt=0,lte=120"`
	MaxAttempts     *int     `json:"max_attempts" validate:"omitempty,gte=1,lte=50"`
	Seed            *uint64  `json:"seed"`
}

type VehicleResponse struct {
	Vehicle  int     `json:"vehicle"`
	Driver   string  `json:"driver,omitempty"`
	Capacity int     `json:"capacity"`
	DepartAt string  `json:"depart_at"`
	ReturnAt *string `json:"return_at,omitempty"`
	Miles    float64 `json:"miles"`
	Route    []int   `json:"route"`
}

type EventResponse struct {
	Time     string `json:"time"`
	Vehicle  int    `json:"vehicle"`
	Action   string `json:"action"`
	ParcelID *int   `json:"parcel_id,omitempty"`
	Address  string `json:"address"`
}

type PlanResponse struct {
	RunID      string            `json:"run_id"`
	Attempts   int               `json:"attempts"`
	Hub        string            `json:"hub"`
	CreatedAt  time.Time         `json:"created_at"`
	TotalMiles float64           `json:"total_miles"`
	Drivers    []string          `json:"drivers"`
	Vehicles   []VehicleResponse `json:"vehicles"`
	Timeline   []EventResponse   `json:"timeline"`
}

// NewPlanResponse flattens a plan record for clients. Vehicles are numbered
// from 1 and event times are the replayed ones.
func NewPlanResponse(rec domain.PlanRecord) PlanResponse {
	res := PlanResponse{
		RunID:     rec.RunID,
		Attempts:  rec.Attempts,
		Hub:       rec.Hub,
		CreatedAt: rec.CreatedAt,
		Drivers:   append([]string{}, rec.Drivers...),
		Vehicles:  make([]VehicleResponse, 0, len(rec.Vehicles)),
		Timeline:  make([]EventResponse, 0, len(rec.Events)),
	}

	for _, v := range rec.Vehicles {
		vr := VehicleResponse{
			Vehicle:  v.ID + 1,
			Driver:   v.Driver,
			Capacity: v.MaxCapacity,
			DepartAt: v.DepartAt.String(),
			Miles:    v.Distance,
			Route:    make([]int, 0, len(v.Route)),
		}
		if v.ReturnAt != nil {
			s := v.ReturnAt.String()
			vr.ReturnAt = &s
		}
		for _, id := range v.Route {
			vr.Route = append(vr.Route, int(id))
		}
		res.TotalMiles += v.Distance
		res.Vehicles = append(res.Vehicles, vr)
	}

	for _, e := range rec.Events {
		at := e.At
		if e.Actual != nil {
			at = *e.Actual
		}
		er := EventResponse{
			Time:    at.String(),
			Vehicle: e.Vehicle + 1,
			Action:  e.Action.String(),
			Address: e.Address,
		}
		if e.Parcel != nil {
			id := int(*e.Parcel)
			er.ParcelID = &id
		}
		res.Timeline = append(res.Timeline, er)
	}

	return res
}

type ParcelStatusResponse struct {
	ParcelID    int     `json:"parcel_id"`
	Address     string  `json:"address"`
	Deadline    string  `json:"deadline"`
	Status      string  `json:"status"`
	Vehicle     *int    `json:"vehicle,omitempty"`
	DeliveredAt *string `json:"delivered_at,omitempty"`
}

type StatusResponse struct {
	RunID   string                 `json:"run_id"`
	At      string                 `json:"at"`
	Parcels []ParcelStatusResponse `json:"parcels"`
}

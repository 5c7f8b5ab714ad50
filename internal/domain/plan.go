package domain

import "time"

// Committed output of one dispatch run: the loaded fleet, its replayed
// timeline and every parcel of the run.
type Plan struct {
	RunID     string
	Attempts  int
	Hub       string
	CreatedAt time.Time
	Fleet     *Fleet
	Timeline  *Timeline
	Parcels   []*Parcel
}

// TotalDistance is the fleet mileage measured during replay.
func (p *Plan) TotalDistance() float64 {
	if p.Fleet == nil {
		return 0
	}
	return p.Fleet.TotalDistance()
}

// Parcel looks up a parcel of the plan by id.
func (p *Plan) Parcel(id ParcelID) (*Parcel, bool) {
	for _, pc := range p.Parcels {
		if pc.ID == id {
			return pc, true
		}
	}
	return nil, false
}

package dto

import "parcel-dispatch-service/internal/domain"

type ParcelResponse struct {
	ParcelID   int     `json:"parcel_id"`
	Street     string  `json:"street"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	Zip        string  `json:"zip"`
	Deadline   string  `json:"deadline"`
	WeightKilo float64 `json:"weight_kilo"`
	Note       string  `json:"note,omitempty"`
}

type ListParcelsResponse struct {
	Parcels []ParcelResponse `json:"parcels"`
}

func NewParcelResponse(p *domain.Parcel) ParcelResponse {
	return ParcelResponse{
		ParcelID:   int(p.ID),
		Street:     p.Address.Street,
		City:       p.Address.City,
		State:      p.Address.State,
		Zip:        p.Address.Zip,
		Deadline:   DeadlineLabel(p),
		WeightKilo: p.WeightKilo,
		Note:       domain.NoteString(p.Note),
	}
}

// DeadlineLabel renders "EOD" for parcels without a real deadline.
func DeadlineLabel(p *domain.Parcel) string {
	if !p.HasDeadline() {
		return "EOD"
	}
	return p.Deadline.String()
}

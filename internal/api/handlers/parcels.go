package handlers

import (
	"fmt"
	"net/http"
	"parcel-dispatch-service/internal/api/dto"
	"parcel-dispatch-service/internal/domain"
	"parcel-dispatch-service/internal/ports"
	"strconv"
)

// ParcelHandler exposes read-only access to the baseline parcel list.
type ParcelHandler struct {
	Parcels ports.ParcelSource
}

func (h *ParcelHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	parcels, err := h.Parcels.ListParcels(r.Context())
	if err != nil {
		writeFailure(w, r, "list parcels", err)
		return
	}

	res := dto.ListParcelsResponse{
		Parcels: make([]dto.ParcelResponse, 0, len(parcels)),
	}
	for _, p := range parcels {
		res.Parcels = append(res.Parcels, dto.NewParcelResponse(p))
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Get looks up one parcel by id.
func (h *ParcelHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, "parcel id must be a positive integer")
		return
	}

	parcels, err := h.Parcels.ListParcels(r.Context())
	if err != nil {
		writeFailure(w, r, "get parcel", err)
		return
	}

	for _, p := range parcels {
		if p.ID == domain.ParcelID(id) {
			writeJSON(w, r, http.StatusOK, dto.NewParcelResponse(p))
			return
		}
	}
	writeFailure(w, r, "get parcel", fmt.Errorf("parcel %d: %w", id, domain.ErrUnknownParcel))
}

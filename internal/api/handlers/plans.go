package handlers

import (
	"context"
	"fmt"
	"net/http"
	"parcel-dispatch-service/internal/api/dto"
	"parcel-dispatch-service/internal/domain"
	"parcel-dispatch-service/internal/ports"
	"parcel-dispatch-service/internal/services"
	"strings"

	"github.com/rs/zerolog/log"
)

// Planner runs a full dispatch.
type Planner interface {
	PlanDeliveries(ctx context.Context, req services.DispatchRequest) (*domain.Plan, error)
}

type PlanHandler struct {
	Planner  Planner
	Store    ports.PlanStore
	Cache    ports.PlanCache
	Defaults services.DispatchRequest
}

// Create runs the dispatcher with the configured fleet, overridden by any
// request fields, then persists and caches the committed plan.
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.PlanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.Planner.PlanDeliveries(r.Context(), h.dispatchRequest(req))
	if err != nil {
		writeFailure(w, r, "plan deliveries", err)
		return
	}

	if err := h.Store.SavePlan(r.Context(), plan); err != nil {
		writeFailure(w, r, "save plan", err)
		return
	}

	rec := domain.NewPlanRecord(plan)
	if h.Cache != nil {
		if err := h.Cache.SetPlan(r.Context(), rec); err != nil {
			log.Warn().Str("run_id", rec.RunID).Err(err).Msg("cache plan failed")
		}
	}

	w.Header().Set("Location", "/plans/"+rec.RunID)
	writeJSON(w, r, http.StatusCreated, dto.NewPlanResponse(rec))
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewPlanResponse(*rec))
}

// Status projects every parcel of a plan at the time given by ?at=HH:MM,
// including the address it was bound for at that moment.
func (h *PlanHandler) Status(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	raw := strings.TrimSpace(r.URL.Query().Get("at"))
	if raw == "" {
		writeError(w, r, http.StatusBadRequest, "query parameter at is required")
		return
	}
	at, err := domain.ParseClock(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid time %q", raw))
		return
	}

	rec, ok := h.lookup(w, r)
	if !ok {
		return
	}
	plan, err := rec.Restore()
	if err != nil {
		writeFailure(w, r, "restore plan", err)
		return
	}

	res := dto.StatusResponse{RunID: plan.RunID, At: at.String()}
	for _, s := range services.StatusAt(plan.Parcels, plan.Timeline, at) {
		p := s.Parcel
		ps := dto.ParcelStatusResponse{
			ParcelID: int(p.ID),
			Address:  s.Address,
			Deadline: dto.DeadlineLabel(p),
			Status:   p.Status.String(),
		}
		if p.Vehicle != nil {
			n := *p.Vehicle + 1
			ps.Vehicle = &n
		}
		if p.DeliveredAt != nil {
			d := p.DeliveredAt.String()
			ps.DeliveredAt = &d
		}
		res.Parcels = append(res.Parcels, ps)
	}

	writeJSON(w, r, http.StatusOK, res)
}

// lookup reads the plan from the cache, falling back to the store and
// warming the cache on a store hit. It writes the error response itself.
func (h *PlanHandler) lookup(w http.ResponseWriter, r *http.Request) (*domain.PlanRecord, bool) {
	runID := strings.TrimSpace(r.PathValue("id"))
	if runID == "" {
		writeError(w, r, http.StatusBadRequest, "plan id is required")
		return nil, false
	}

	if h.Cache != nil {
		rec, ok, err := h.Cache.GetPlan(r.Context(), runID)
		if err != nil {
			log.Warn().Str("run_id", runID).Err(err).Msg("plan cache lookup failed")
		}
		if ok {
			return rec, true
		}
	}

	rec, ok, err := h.Store.LoadPlan(r.Context(), runID)
	if err != nil {
		writeFailure(w, r, "load plan", err)
		return nil, false
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "plan not found")
		return nil, false
	}

	if h.Cache != nil {
		if err := h.Cache.SetPlan(r.Context(), *rec); err != nil {
			log.Warn().Str("run_id", runID).Err(err).Msg("cache plan failed")
		}
	}
	return rec, true
}

func (h *PlanHandler) dispatchRequest(req dto.PlanRequest) services.DispatchRequest {
	out := h.Defaults
	if hub := strings.TrimSpace(req.Hub); hub != "" {
		out.Hub = hub
	}
	if req.VehicleCount != nil {
		out.Vehicles = *req.VehicleCount
	}
	if req.DriverCount != nil {
		out.Drivers = *req.DriverCount
	}
	if req.VehicleCapacity != nil {
		out.Capacity = *req.VehicleCapacity
	}
	if req.SpeedMPH != nil {
		out.SpeedMPH = *req.SpeedMPH
	}
	if req.MaxAttempts != nil {
		out.MaxAttempts = *req.MaxAttempts
	}
	if req.Seed != nil {
		out.Seed = *req.Seed
	}
	return out
}

package api

import (
	"net/http"
	"parcel-dispatch-service/internal/api/handlers"
	"parcel-dispatch-service/internal/ports"
	"parcel-dispatch-service/internal/services"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Parcels  ports.ParcelSource
	Planner  handlers.Planner
	Store    ports.PlanStore
	Cache    ports.PlanCache
	Defaults services.DispatchRequest
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	parcelHandler := &handlers.ParcelHandler{Parcels: deps.Parcels}
	planHandler := &handlers.PlanHandler{
		Planner:  deps.Planner,
		Store:    deps.Store,
		Cache:    deps.Cache,
		Defaults: deps.Defaults,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/parcels", parcelHandler.List)
	mux.HandleFunc("/parcels/{id}", parcelHandler.Get)
	mux.HandleFunc("/plans", planHandler.Create)
	mux.HandleFunc("/plans/{id}", planHandler.Get)
	mux.HandleFunc("/plans/{id}/status", planHandler.Status)
	mux.Handle("/metrics", promhttp.Handler())

	return requestIDMiddleware(loggingMiddleware(mux))
}

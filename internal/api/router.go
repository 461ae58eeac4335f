package api

import (
	"net/http"

	"parcel-delivery-service/internal/api/handlers"
	"parcel-delivery-service/internal/ports"
	"parcel-delivery-service/internal/services"
)

type RouterConfig struct {
	Users       ports.UserRepository
	Types       ports.ParcelTypeRepository
	Parcels     ports.ParcelRepository
	Coordinator *services.AssignmentCoordinator

	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	parcelHandler := &handlers.ParcelHandler{
		Users:       cfg.Users,
		Types:       cfg.Types,
		Parcels:     cfg.Parcels,
		Coordinator: cfg.Coordinator,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/parcel/register", parcelHandler.Register)
	mux.HandleFunc("/parcel/parcel-types", parcelHandler.ParcelTypes)
	mux.HandleFunc("/parcel/user-parcels", parcelHandler.UserParcels)
	mux.HandleFunc("/parcel/parcel-by-id", parcelHandler.ParcelByID)
	mux.HandleFunc("/parcel/assign-company", parcelHandler.AssignCompany)

	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 20
	}
	limiter := newLimiterStore(rps, burst)

	// Session runs first so the limiter keys on the assigned identity.
	var h http.Handler = mux
	h = rateLimitMiddleware(limiter, h)
	h = sessionMiddleware(h)
	h = loggingMiddleware(h)

	return h
}

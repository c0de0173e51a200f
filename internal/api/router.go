package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"campus-dispatch-service/internal/api/handlers"
	"campus-dispatch-service/internal/platform/obs"
	"campus-dispatch-service/internal/services"
)

// Deps carries everything the HTTP layer needs. Stream and Weather are optional.
type Deps struct {
	Missions    handlers.MissionService
	Catalog     *services.LocationCatalog
	History     *services.HistoryRecorder
	Weather     handlers.WeatherSource
	Stream      http.Handler
	CORSOrigins []string
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestIDMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	health := &handlers.HealthHandler{Weather: d.Weather}
	missions := &handlers.MissionHandler{Missions: d.Missions}
	locations := &handlers.LocationHandler{Catalog: d.Catalog}
	history := &handlers.HistoryHandler{History: d.History}

	r.Get("/health", health.Health)
	r.Get("/locations", locations.List)
	r.Put("/volunteers", locations.SetVolunteers)

	r.Route("/missions", func(r chi.Router) {
		r.Post("/", missions.Create)
		r.Get("/current", missions.Current)
		r.Post("/confirm-load", missions.ConfirmLoad)
		r.Post("/confirm-delivery", missions.ConfirmDelivery)
		r.Post("/cancel", missions.Cancel)
		r.Post("/retry", missions.Retry)
		r.Post("/emergency-stop", missions.EmergencyStop)
		r.Post("/emergency-resume", missions.EmergencyResume)
	})

	r.Route("/waypoints", func(r chi.Router) {
		r.Get("/", missions.ListWaypoints)
		r.Post("/", missions.AddWaypoint)
		r.Delete("/", missions.ClearWaypoints)
	})

	r.Get("/vehicle", missions.Vehicle)
	r.Post("/vehicle/return-to-depot", missions.ReturnToDepot)

	r.Get("/history", history.List)
	r.Delete("/history", history.Clear)

	if d.Stream != nil {
		r.Handle("/ws", d.Stream)
	}

	return obs.WrapHandler(r, "campus-dispatch")
}

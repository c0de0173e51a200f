package handlers

import (
	"log"
	"net/http"

	"campus-dispatch-service/internal/api/dto"
	"campus-dispatch-service/internal/services"
)

type LocationHandler struct {
	Catalog *services.LocationCatalog
}

// List returns campus locations with availability already applied
// for the current volunteer count.
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	locs, err := h.Catalog.List(ctx)
	if err != nil {
		log.Printf("op=list_locations err=%v", err)
		writeError(w, r, http.StatusInternalServerError, "failed to list locations")
		return
	}

	volunteers, err := h.Catalog.VolunteerCount(ctx)
	if err != nil {
		log.Printf("op=volunteer_count err=%v", err)
		writeError(w, r, http.StatusInternalServerError, "failed to read volunteer count")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FromLocations(locs, volunteers))
}

func (h *LocationHandler) SetVolunteers(w http.ResponseWriter, r *http.Request) {
	var req dto.VolunteersRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Catalog.SetVolunteerCount(r.Context(), *req.Count); err != nil {
		writeServiceError(w, r, "set_volunteers", err)
		return
	}

	h.List(w, r)
}

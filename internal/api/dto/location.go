package dto

import "campus-dispatch-service/internal/domain"

type LocationResponse struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Category string         `json:"category"`
	Position CoordinatesDTO `json:"position"`
	Enabled  bool           `json:"enabled"`
}

type ListLocationsResponse struct {
	Locations  []LocationResponse `json:"locations"`
	Volunteers int                `json:"volunteers"`
}

func FromLocations(locs []domain.Location, volunteers int) ListLocationsResponse {
	res := ListLocationsResponse{
		Locations:  make([]LocationResponse, 0, len(locs)),
		Volunteers: volunteers,
	}
	for _, l := range locs {
		res.Locations = append(res.Locations, LocationResponse{
			ID:       l.ID,
			Name:     l.Name,
			Category: l.Category,
			Position: FromCoordinates(l.Position),
			Enabled:  l.Enabled,
		})
	}
	return res
}

type VolunteersRequest struct {
	Count *int `json:"count" validate:"required,gte=0,lte=1000"`
}

type ListHistoryResponse struct {
	Records []domain.HistoryRecord `json:"records"`
}

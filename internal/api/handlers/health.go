package handlers

import (
	"net/http"
	"time"

	"campus-dispatch-service/internal/ports"
)

// WeatherSource reports the last observation; ok is false before the first poll.
type WeatherSource interface {
	Latest() (ports.WeatherReport, bool)
}

type HealthHandler struct {
	Weather WeatherSource
}

// Health provides a minimal liveness check endpoint, plus the latest weather
// observation when a monitor is wired in.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	res := map[string]any{"status": "ok"}

	if h.Weather != nil {
		if report, ok := h.Weather.Latest(); ok {
			res["weather"] = map[string]any{
				"condition":     report.Condition,
				"temperature_c": report.TemperatureC,
				"reported_at":   report.ReportedAt.Format(time.RFC3339),
			}
		}
	}

	writeJSON(w, r, http.StatusOK, res)
}

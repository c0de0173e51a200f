package ports

import (
	"context"
	"time"
)

type WeatherReport struct {
	Condition    string    `json:"condition"`
	TemperatureC string    `json:"temperature_c"`
	ReportedAt   time.Time `json:"reported_at"`
	// Warning is set when today's forecast turns bad while the live
	// condition is still fine.
	Warning string `json:"warning,omitempty"`
}

// Contract for reading current conditions on campus.
type WeatherProvider interface {
	Live(ctx context.Context) (WeatherReport, error)
}

// WeatherForecast is today's day and night outlook.
type WeatherForecast struct {
	DayCondition   string `json:"day_condition"`
	NightCondition string `json:"night_condition"`
}

// ForecastProvider is an optional extension of WeatherProvider.
type ForecastProvider interface {
	Forecast(ctx context.Context) (WeatherForecast, error)
}

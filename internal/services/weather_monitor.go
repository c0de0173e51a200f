package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"campus-dispatch-service/internal/ports"
)

// DegradationSink receives the service-degraded flag.
type DegradationSink interface {
	SetServiceDegraded(reason string)
	ClearServiceDegraded()
}

var badWeatherMarkers = []string{"雨", "雪", "暴", "rain", "snow", "storm", "sleet"}

// IsBadWeather reports whether a condition should block new missions.
func IsBadWeather(condition string) bool {
	c := strings.ToLower(condition)
	for _, m := range badWeatherMarkers {
		if strings.Contains(c, m) {
			return true
		}
	}
	return false
}

// WeatherMonitor polls a weather provider and toggles degradation.
type WeatherMonitor struct {
	provider ports.WeatherProvider
	sink     DegradationSink
	interval time.Duration

	mu     sync.Mutex
	latest ports.WeatherReport
	seen   bool
}

func NewWeatherMonitor(provider ports.WeatherProvider, sink DegradationSink, interval time.Duration) *WeatherMonitor {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &WeatherMonitor{provider: provider, sink: sink, interval: interval}
}

// Check performs one poll. Provider errors leave the flag untouched.
func (w *WeatherMonitor) Check(ctx context.Context) (ports.WeatherReport, error) {
	report, err := w.provider.Live(ctx)
	if err != nil {
		return ports.WeatherReport{}, fmt.Errorf("check weather: %w", err)
	}

	if IsBadWeather(report.Condition) {
		w.sink.SetServiceDegraded(report.Condition)
	} else {
		w.sink.ClearServiceDegraded()
		report.Warning = w.forecastWarning(ctx)
	}

	w.mu.Lock()
	w.latest = report
	w.seen = true
	w.mu.Unlock()

	return report, nil
}

// forecastWarning looks at today's forecast when the provider offers one.
// Forecast failures only cost the warning.
func (w *WeatherMonitor) forecastWarning(ctx context.Context) string {
	fp, ok := w.provider.(ports.ForecastProvider)
	if !ok {
		return ""
	}

	f, err := fp.Forecast(ctx)
	if err != nil {
		log.Printf("op=weather.Forecast err=%v", err)
		return ""
	}

	for _, c := range []string{f.DayCondition, f.NightCondition} {
		if IsBadWeather(c) {
			return fmt.Sprintf("forecast %s, service may pause mid-mission", c)
		}
	}
	return ""
}

// Run polls until ctx is done.
func (w *WeatherMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.Check(ctx); err != nil && ctx.Err() == nil {
			log.Printf("op=weather.Check err=%v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Latest returns the last successful report, if any.
func (w *WeatherMonitor) Latest() (ports.WeatherReport, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.latest, w.seen
}

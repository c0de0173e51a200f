package weather

import (
	"context"
	"sync"
	"time"

	"campus-dispatch-service/internal/ports"
)

// StaticWeatherProvider reports a fixed, settable condition. It backs offline
// runs and lets operators simulate bad weather.
type StaticWeatherProvider struct {
	mu        sync.Mutex
	condition string
	forecast  ports.WeatherForecast
}

func NewStaticWeatherProvider(condition string) *StaticWeatherProvider {
	if condition == "" {
		condition = "晴"
	}
	return &StaticWeatherProvider{condition: condition}
}

func (s *StaticWeatherProvider) Set(condition string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.condition = condition
}

func (s *StaticWeatherProvider) Live(ctx context.Context) (ports.WeatherReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ports.WeatherReport{Condition: s.condition, ReportedAt: time.Now()}, nil
}

// SetForecast changes today's outlook, e.g. to simulate rain arriving later.
func (s *StaticWeatherProvider) SetForecast(day, night string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forecast = ports.WeatherForecast{DayCondition: day, NightCondition: night}
}

func (s *StaticWeatherProvider) Forecast(ctx context.Context) (ports.WeatherForecast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forecast, nil
}

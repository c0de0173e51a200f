package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"campus-dispatch-service/internal/ports"
)

type stubWeather struct {
	report ports.WeatherReport
	err    error
}

func (s *stubWeather) Live(ctx context.Context) (ports.WeatherReport, error) {
	return s.report, s.err
}

type recordingSink struct {
	degraded bool
	reason   string
	calls    int
}

func (s *recordingSink) SetServiceDegraded(reason string) {
	s.degraded, s.reason = true, reason
	s.calls++
}

func (s *recordingSink) ClearServiceDegraded() {
	s.degraded, s.reason = false, ""
	s.calls++
}

func TestIsBadWeather(t *testing.T) {
	tests := []struct {
		condition string
		want      bool
	}{
		{"晴", false},
		{"多云", false},
		{"小雨", true},
		{"暴雪", true},
		{"雷阵雨", true},
		{"Light Rain", true},
		{"Thunderstorm", true},
		{"Clear", false},
	}

	for _, tt := range tests {
		if got := IsBadWeather(tt.condition); got != tt.want {
			t.Fatalf("IsBadWeather(%q) = %v, want %v", tt.condition, got, tt.want)
		}
	}
}

func TestWeatherMonitorCheck(t *testing.T) {
	ctx := context.Background()
	provider := &stubWeather{report: ports.WeatherReport{Condition: "中雨", ReportedAt: time.Now()}}
	sink := &recordingSink{}
	w := NewWeatherMonitor(provider, sink, time.Minute)

	if _, ok := w.Latest(); ok {
		t.Fatal("expected no report before the first check")
	}

	if _, err := w.Check(ctx); err != nil {
		t.Fatalf("check: %v", err)
	}
	if !sink.degraded || sink.reason != "中雨" {
		t.Fatalf("sink = %+v, want degraded by 中雨", sink)
	}

	provider.report.Condition = "晴"
	if _, err := w.Check(ctx); err != nil {
		t.Fatalf("check: %v", err)
	}
	if sink.degraded {
		t.Fatal("expected degradation cleared")
	}

	provider.err = errors.New("quota exceeded")
	if _, err := w.Check(ctx); err == nil {
		t.Fatal("expected provider error")
	}
	if sink.calls != 2 {
		t.Fatalf("sink calls = %d, want 2", sink.calls)
	}
	if latest, ok := w.Latest(); !ok || latest.Condition != "晴" {
		t.Fatalf("latest = %+v, %v", latest, ok)
	}
}

func TestWeatherMonitorDegradesController(t *testing.T) {
	h := newHarness(t)
	w := NewWeatherMonitor(&stubWeather{report: ports.WeatherReport{Condition: "小雪"}}, h.ctrl, time.Minute)

	if _, err := w.Check(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}

	snap := h.ctrl.Snapshot()
	if !snap.Degraded || snap.DegradedReason != "小雪" {
		t.Fatalf("degraded = %v reason = %q", snap.Degraded, snap.DegradedReason)
	}
}

type stubForecastWeather struct {
	stubWeather
	forecast    ports.WeatherForecast
	forecastErr error
}

func (s *stubForecastWeather) Forecast(ctx context.Context) (ports.WeatherForecast, error) {
	return s.forecast, s.forecastErr
}

func TestWeatherMonitorForecastWarning(t *testing.T) {
	tests := []struct {
		name        string
		live        string
		forecast    ports.WeatherForecast
		forecastErr error
		wantWarning bool
	}{
		{"rain tonight", "晴", ports.WeatherForecast{DayCondition: "多云", NightCondition: "中雨"}, nil, true},
		{"snow today", "阴", ports.WeatherForecast{DayCondition: "小雪", NightCondition: "晴"}, nil, true},
		{"clear outlook", "晴", ports.WeatherForecast{DayCondition: "晴", NightCondition: "多云"}, nil, false},
		{"forecast unavailable", "晴", ports.WeatherForecast{}, errors.New("quota exceeded"), false},
		{"already raining", "大雨", ports.WeatherForecast{DayCondition: "大雨"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &stubForecastWeather{
				stubWeather: stubWeather{report: ports.WeatherReport{Condition: tt.live}},
				forecast:    tt.forecast,
				forecastErr: tt.forecastErr,
			}
			w := NewWeatherMonitor(provider, &recordingSink{}, time.Minute)

			report, err := w.Check(context.Background())
			if err != nil {
				t.Fatalf("check: %v", err)
			}
			if got := report.Warning != ""; got != tt.wantWarning {
				t.Fatalf("warning = %q, want present=%v", report.Warning, tt.wantWarning)
			}
			if latest, _ := w.Latest(); latest.Warning != report.Warning {
				t.Fatalf("latest warning = %q, want %q", latest.Warning, report.Warning)
			}
		})
	}
}

package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAMapWeatherLive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/weather/weatherInfo" {
			t.Errorf("path = %q, want /v3/weather/weatherInfo", r.URL.Path)
		}
		if got := r.URL.Query().Get("city"); got != "320106" {
			t.Errorf("city = %q, want 320106", got)
		}
		w.Write([]byte(`{"status":"1","info":"OK","lives":[{"weather":"小雨","temperature":"12","reporttime":"2026-03-01 10:00:00"}]}`))
	}))
	defer srv.Close()

	p, err := NewAMapWeatherProvider("k", "320106")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report, err := p.WithBaseURL(srv.URL).Live(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Condition != "小雨" {
		t.Fatalf("condition = %q, want 小雨", report.Condition)
	}
	if report.TemperatureC != "12" {
		t.Fatalf("temperature = %q, want 12", report.TemperatureC)
	}
	if report.ReportedAt.Year() != 2026 {
		t.Fatalf("reported at = %v, want parsed report time", report.ReportedAt)
	}
}

func TestAMapWeatherRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"0","info":"INVALID_USER_KEY","lives":[]}`))
	}))
	defer srv.Close()

	p, _ := NewAMapWeatherProvider("bad", "320106")
	if _, err := p.WithBaseURL(srv.URL).Live(context.Background()); err == nil {
		t.Fatal("expected error for status 0")
	}
}

func TestStaticWeatherProvider(t *testing.T) {
	p := NewStaticWeatherProvider("")
	r, _ := p.Live(context.Background())
	if r.Condition != "晴" {
		t.Fatalf("condition = %q, want 晴", r.Condition)
	}

	p.Set("暴雪")
	r, _ = p.Live(context.Background())
	if r.Condition != "暴雪" {
		t.Fatalf("condition = %q, want 暴雪", r.Condition)
	}

	p.SetForecast("晴", "小雨")
	f, _ := p.Forecast(context.Background())
	if f.NightCondition != "小雨" {
		t.Fatalf("night condition = %q, want 小雨", f.NightCondition)
	}
}

func TestAMapWeatherForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("extensions"); got != "all" {
			t.Errorf("extensions = %q, want all", got)
		}
		w.Write([]byte(`{"status":"1","info":"OK","forecasts":[{"casts":[
			{"date":"2026-03-01","dayweather":"多云","nightweather":"小雨"},
			{"date":"2026-03-02","dayweather":"晴","nightweather":"晴"}]}]}`))
	}))
	defer srv.Close()

	p, _ := NewAMapWeatherProvider("k", "320106")
	f, err := p.WithBaseURL(srv.URL).Forecast(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.DayCondition != "多云" || f.NightCondition != "小雨" {
		t.Fatalf("forecast = %+v, want today's cast", f)
	}
}

func TestAMapWeatherForecastEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"1","info":"OK","forecasts":[]}`))
	}))
	defer srv.Close()

	p, _ := NewAMapWeatherProvider("k", "320106")
	if _, err := p.WithBaseURL(srv.URL).Forecast(context.Background()); err == nil {
		t.Fatal("expected error for missing forecast")
	}
}

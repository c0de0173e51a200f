package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"campus-dispatch-service/internal/platform/httpx"
	"campus-dispatch-service/internal/platform/obs"
	"campus-dispatch-service/internal/ports"
)

const amapBaseURL = "https://restapi.amap.com"

// AMapWeatherProvider reads live conditions for one city (adcode).
type AMapWeatherProvider struct {
	client  *httpx.Client
	baseURL string
	apiKey  string
	city    string
}

func NewAMapWeatherProvider(apiKey, city string) (*AMapWeatherProvider, error) {
	if apiKey == "" {
		return nil, errors.New("AMap api key is empty")
	}
	if city == "" {
		return nil, errors.New("AMap city is empty")
	}
	return &AMapWeatherProvider{
		client:  httpx.NewClient(10*time.Second, nil),
		baseURL: amapBaseURL,
		apiKey:  apiKey,
		city:    city,
	}, nil
}

func (a *AMapWeatherProvider) WithBaseURL(u string) *AMapWeatherProvider {
	a.baseURL = u
	return a
}

type amapLive struct {
	Weather     string `json:"weather"`
	Temperature string `json:"temperature"`
	ReportTime  string `json:"reporttime"`
}

type amapWeatherResponse struct {
	Status string     `json:"status"`
	Info   string     `json:"info"`
	Lives  []amapLive `json:"lives"`
}

func (a *AMapWeatherProvider) Live(ctx context.Context) (_ ports.WeatherReport, err error) {
	defer obs.Time(ctx, "amap.weather.Live")(&err)

	q := url.Values{}
	q.Set("city", a.city)
	q.Set("key", a.apiKey)
	q.Set("extensions", "base")
	endpoint := a.baseURL + "/v3/weather/weatherInfo?" + q.Encode()

	resp, err := a.client.DoWithRetry(ctx, func() (*http.Request, error) {
		return a.client.NewRequest(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return ports.WeatherReport{}, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	var wr amapWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return ports.WeatherReport{}, fmt.Errorf("decode weather response: %w", err)
	}
	if wr.Status != "1" {
		return ports.WeatherReport{}, fmt.Errorf("weather api status %q: %s", wr.Status, wr.Info)
	}
	if len(wr.Lives) == 0 {
		return ports.WeatherReport{}, errors.New("weather api returned no live data")
	}

	live := wr.Lives[0]
	report := ports.WeatherReport{
		Condition:    live.Weather,
		TemperatureC: live.Temperature,
		ReportedAt:   time.Now(),
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", live.ReportTime, time.Local); err == nil {
		report.ReportedAt = t
	}
	return report, nil
}

type amapCast struct {
	Date         string `json:"date"`
	DayWeather   string `json:"dayweather"`
	NightWeather string `json:"nightweather"`
}

type amapForecastResponse struct {
	Status    string `json:"status"`
	Info      string `json:"info"`
	Forecasts []struct {
		Casts []amapCast `json:"casts"`
	} `json:"forecasts"`
}

// Forecast returns today's outlook (the first cast).
func (a *AMapWeatherProvider) Forecast(ctx context.Context) (_ ports.WeatherForecast, err error) {
	defer obs.Time(ctx, "amap.weather.Forecast")(&err)

	q := url.Values{}
	q.Set("city", a.city)
	q.Set("key", a.apiKey)
	q.Set("extensions", "all")
	endpoint := a.baseURL + "/v3/weather/weatherInfo?" + q.Encode()

	resp, err := a.client.DoWithRetry(ctx, func() (*http.Request, error) {
		return a.client.NewRequest(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return ports.WeatherForecast{}, fmt.Errorf("forecast request failed: %w", err)
	}
	defer resp.Body.Close()

	var fr amapForecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return ports.WeatherForecast{}, fmt.Errorf("decode forecast response: %w", err)
	}
	if fr.Status != "1" {
		return ports.WeatherForecast{}, fmt.Errorf("weather api status %q: %s", fr.Status, fr.Info)
	}
	if len(fr.Forecasts) == 0 || len(fr.Forecasts[0].Casts) == 0 {
		return ports.WeatherForecast{}, errors.New("weather api returned no forecast")
	}

	today := fr.Forecasts[0].Casts[0]
	return ports.WeatherForecast{DayCondition: today.DayWeather, NightCondition: today.NightWeather}, nil
}

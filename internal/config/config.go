package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"campus-dispatch-service/internal/domain"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed campus.yaml
var defaultCampus []byte

type Config struct {
	Port        string
	DBPath      string
	DatabaseURL string
	RedisURL    string
	RabbitMQURI string

	RoutingProvider string
	ORSAPIKey       string
	ORSProfile      string
	AMapAPIKey      string
	AMapCity        string

	CampusFile     string
	SpeedKmh       float64
	ReturnSpeedKmh float64
	TimeScale      float64
	ConfirmTimeout time.Duration
	// "depot" or "random" (a random point inside the geofence).
	VehicleStart string

	WeatherProvider     string
	WeatherCondition    string
	WeatherForecast     string
	WeatherPollInterval time.Duration

	Environment    string
	JaegerEndpoint string
	CORSOrigins    []string
}

// Load reads .env (when present) and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg := Config{
		Port:             Get("PORT", "8080"),
		DBPath:           Get("DB_PATH", "data/app.db"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		RabbitMQURI:      os.Getenv("RABBITMQ_URI"),
		RoutingProvider:  strings.ToLower(Get("ROUTING_PROVIDER", "mock")),
		ORSAPIKey:        os.Getenv("ORS_API_KEY"),
		ORSProfile:       Get("ORS_PROFILE", "cycling-regular"),
		AMapAPIKey:       os.Getenv("AMAP_API_KEY"),
		AMapCity:         Get("AMAP_CITY", "320115"),
		CampusFile:       os.Getenv("CAMPUS_FILE"),
		VehicleStart:     strings.ToLower(Get("VEHICLE_START", "depot")),
		WeatherProvider:  strings.ToLower(Get("WEATHER_PROVIDER", "static")),
		WeatherCondition: Get("WEATHER_CONDITION", "晴"),
		WeatherForecast:  os.Getenv("WEATHER_FORECAST"),
		Environment:      Get("ENVIRONMENT", "development"),
		JaegerEndpoint:   os.Getenv("JAEGER_ENDPOINT"),
		CORSOrigins:      splitList(Get("CORS_ORIGINS", "*")),
	}

	var err error
	if cfg.SpeedKmh, err = GetFloat("VEHICLE_SPEED_KMH", 20); err != nil {
		return Config{}, err
	}
	if cfg.ReturnSpeedKmh, err = GetFloat("RETURN_SPEED_KMH", 30); err != nil {
		return Config{}, err
	}
	if cfg.TimeScale, err = GetFloat("TIME_SCALE", 1); err != nil {
		return Config{}, err
	}
	if cfg.ConfirmTimeout, err = GetDuration("CONFIRM_TIMEOUT", 0); err != nil {
		return Config{}, err
	}
	if cfg.WeatherPollInterval, err = GetDuration("WEATHER_POLL_INTERVAL", 10*time.Minute); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.RoutingProvider {
	case "mock":
	case "ors":
		if strings.TrimSpace(c.ORSAPIKey) == "" {
			return errors.New("config: ORS_API_KEY is required for ROUTING_PROVIDER=ors")
		}
	case "amap":
		if strings.TrimSpace(c.AMapAPIKey) == "" {
			return errors.New("config: AMAP_API_KEY is required for ROUTING_PROVIDER=amap")
		}
	default:
		return fmt.Errorf("config: unknown ROUTING_PROVIDER %q", c.RoutingProvider)
	}

	switch c.WeatherProvider {
	case "static":
	case "amap":
		if strings.TrimSpace(c.AMapAPIKey) == "" {
			return errors.New("config: AMAP_API_KEY is required for WEATHER_PROVIDER=amap")
		}
	default:
		return fmt.Errorf("config: unknown WEATHER_PROVIDER %q", c.WeatherProvider)
	}

	if c.VehicleStart != "depot" && c.VehicleStart != "random" {
		return fmt.Errorf("config: unknown VEHICLE_START %q", c.VehicleStart)
	}

	if c.SpeedKmh <= 0 || c.ReturnSpeedKmh <= 0 {
		return errors.New("config: vehicle speeds must be positive")
	}
	if c.TimeScale <= 0 {
		return errors.New("config: TIME_SCALE must be positive")
	}
	return nil
}

// Get returns the environment value for key or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}

func GetDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Campus is the static map data: selectable locations, the boundary ring and
// the depot the vehicle returns to.
type Campus struct {
	Depot     string               `yaml:"depot"`
	Geofence  []domain.Coordinates `yaml:"geofence"`
	Locations []domain.Location    `yaml:"locations"`
}

// LoadCampus reads path, or the embedded default campus when path is empty.
func LoadCampus(path string) (Campus, error) {
	data := defaultCampus
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Campus{}, fmt.Errorf("load campus: read %q: %w", path, err)
		}
		data = b
	}
	return ParseCampus(data)
}

func ParseCampus(data []byte) (Campus, error) {
	var c Campus
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Campus{}, fmt.Errorf("load campus: parse yaml: %w", err)
	}

	if len(c.Geofence) < 3 {
		return Campus{}, fmt.Errorf("load campus: geofence needs at least 3 points, got %d", len(c.Geofence))
	}
	if len(c.Locations) == 0 {
		return Campus{}, errors.New("load campus: no locations")
	}
	if _, ok := c.DepotLocation(); !ok {
		return Campus{}, fmt.Errorf("load campus: depot %q is not a location", c.Depot)
	}
	return c, nil
}

func (c Campus) DepotLocation() (domain.Location, bool) {
	for _, l := range c.Locations {
		if l.ID == c.Depot {
			return l, true
		}
	}
	return domain.Location{}, false
}

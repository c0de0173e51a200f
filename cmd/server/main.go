package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"campus-dispatch-service/internal/adapters/cache"
	"campus-dispatch-service/internal/adapters/events"
	"campus-dispatch-service/internal/adapters/kvstore"
	"campus-dispatch-service/internal/adapters/renderer"
	"campus-dispatch-service/internal/adapters/repositories"
	"campus-dispatch-service/internal/adapters/routing"
	"campus-dispatch-service/internal/adapters/weather"
	"campus-dispatch-service/internal/api"
	"campus-dispatch-service/internal/api/stream"
	"campus-dispatch-service/internal/config"
	"campus-dispatch-service/internal/domain"
	"campus-dispatch-service/internal/platform/db"
	"campus-dispatch-service/internal/platform/obs"
	"campus-dispatch-service/internal/ports"
	"campus-dispatch-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (SQL, Redis, routing, weather, events) behind
// ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(obs.TracingConfig{
		ServiceName:    "campus-dispatch-service",
		Environment:    cfg.Environment,
		JaegerEndpoint: cfg.JaegerEndpoint,
	})
	if err != nil {
		log.Fatal(err)
	}

	campus, err := config.LoadCampus(cfg.CampusFile)
	if err != nil {
		log.Fatal(err)
	}
	depot, ok := campus.DepotLocation()
	if !ok {
		log.Fatalf("campus depot %q is not a location", campus.Depot)
	}
	fence, err := domain.NewGeoFence(campus.Geofence)
	if err != nil {
		log.Fatal(err)
	}

	st, err := openStorage(ctx, cfg, campus.Locations)
	if err != nil {
		log.Fatal(err)
	}
	defer st.close()

	inner, err := newRoutingProvider(cfg)
	if err != nil {
		log.Fatal(err)
	}
	// Persistent leg cache avoids repeated provider calls for the same pair.
	provider := routing.NewCachedProvider(inner, st.legs)

	seed := uint64(time.Now().UnixNano())
	rng := rand.New(rand.NewPCG(seed, seed>>1))

	start := depot.Position
	if cfg.VehicleStart == "random" {
		start = fence.RandomPointInside(rng)
	}
	sim := renderer.NewSimRenderer(start, cfg.TimeScale, 0)
	defer sim.StopMove()

	hub := stream.NewHub(cfg.CORSOrigins)
	defer hub.Close()

	publisher := events.FanOut{events.LogPublisher{}, hub}
	if cfg.RabbitMQURI != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.RabbitMQURI)
		if err != nil {
			// The broker is an optional sink; the service runs without it.
			log.Printf("op=main msg=%q err=%v", "rabbitmq unavailable, events stay local", err)
		} else {
			defer amqpPub.Close()
			publisher = append(publisher, amqpPub)
		}
	}

	catalog := services.NewLocationCatalog(st.locations, st.kv)
	history := services.NewHistoryRecorder(st.kv)

	ctrl, err := services.NewMissionController(services.MissionDeps{
		Catalog:   catalog,
		Fence:     fence,
		Composer:  services.NewRouteComposer(services.NewSegmentPlanner(provider)),
		Motion:    services.NewMotionController(sim),
		History:   history,
		Publisher: publisher,
		Rand:      rng,
	}, services.MissionConfig{
		SpeedKmh:       cfg.SpeedKmh,
		ReturnSpeedKmh: cfg.ReturnSpeedKmh,
		Depot:          depot,
		ConfirmTimeout: cfg.ConfirmTimeout,
	})
	if err != nil {
		log.Fatal(err)
	}

	weatherProvider, err := newWeatherProvider(cfg)
	if err != nil {
		log.Fatal(err)
	}
	monitor := services.NewWeatherMonitor(weatherProvider, ctrl, cfg.WeatherPollInterval)
	go monitor.Run(ctx)

	router := api.NewRouter(api.Deps{
		Missions:    ctrl,
		Catalog:     catalog,
		History:     history,
		Weather:     monitor,
		Stream:      hub,
		CORSOrigins: cfg.CORSOrigins,
	})

	// No WriteTimeout: the websocket stream holds its connection open.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server listening addr=:%s provider=%s depot=%s", cfg.Port, cfg.RoutingProvider, depot.ID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("op=main.shutdown err=%v", err)
	}
	ctrl.Wait()
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Printf("op=main.shutdown_tracer err=%v", err)
	}
}

type storage struct {
	kv        ports.KVStore
	legs      ports.LegCache
	locations ports.LocationRepository
	closers   []func() error
}

func (s *storage) close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			log.Printf("op=storage.close err=%v", err)
		}
	}
}

// openStorage picks Postgres when DATABASE_URL is set and the SQLite file
// otherwise. REDIS_URL moves the key-value store (history, volunteers) to Redis.
// Schema and campus locations are (re)applied on every start.
func openStorage(ctx context.Context, cfg config.Config, locations []domain.Location) (*storage, error) {
	st := &storage{}

	if cfg.DatabaseURL != "" {
		pg, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, pg.Close)

		if err := repositories.InitPostgresSchema(ctx, pg); err != nil {
			st.close()
			return nil, fmt.Errorf("open storage: %w", err)
		}
		if err := repositories.SeedLocationsPostgres(ctx, pg, locations); err != nil {
			st.close()
			return nil, fmt.Errorf("open storage: %w", err)
		}

		st.kv = kvstore.NewSQLStore(pg)
		st.legs = cache.NewSQLLegCache(pg)
		st.locations = repositories.NewPostgresLocationRepository(pg)
	} else {
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("open storage: create %q: %w", dir, err)
			}
		}

		lite, err := db.OpenSqlite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, lite.Close)

		if err := repositories.InitSchema(lite); err != nil {
			st.close()
			return nil, fmt.Errorf("open storage: %w", err)
		}
		if err := repositories.SeedLocations(ctx, lite, locations); err != nil {
			st.close()
			return nil, fmt.Errorf("open storage: %w", err)
		}

		st.kv = kvstore.NewSqliteStore(lite)
		st.legs = cache.NewSqliteLegCache(lite)
		st.locations = repositories.NewSqliteLocationRepository(lite)
	}

	if cfg.RedisURL != "" {
		rs, err := kvstore.NewRedisStoreFromURL(ctx, cfg.RedisURL)
		if err != nil {
			st.close()
			return nil, fmt.Errorf("open storage: %w", err)
		}
		st.kv = rs
		st.closers = append([]func() error{rs.Close}, st.closers...)
	}

	return st, nil
}

func newRoutingProvider(cfg config.Config) (ports.RoutingProvider, error) {
	switch cfg.RoutingProvider {
	case "ors":
		return routing.NewORSDirectionsProvider(cfg.ORSAPIKey, cfg.ORSProfile)
	case "amap":
		return routing.NewAMapRidingProvider(cfg.AMapAPIKey)
	default:
		return routing.NewMockRoutingProvider(), nil
	}
}

func newWeatherProvider(cfg config.Config) (ports.WeatherProvider, error) {
	if cfg.WeatherProvider == "amap" {
		return weather.NewAMapWeatherProvider(cfg.AMapAPIKey, cfg.AMapCity)
	}
	static := weather.NewStaticWeatherProvider(cfg.WeatherCondition)
	if cfg.WeatherForecast != "" {
		static.SetForecast(cfg.WeatherForecast, cfg.WeatherForecast)
	}
	return static, nil
}

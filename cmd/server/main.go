package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"parcel-dispatch-service/internal/adapters/cache"
	"parcel-dispatch-service/internal/adapters/ingest"
	"parcel-dispatch-service/internal/adapters/repositories"
	"parcel-dispatch-service/internal/api"
	"parcel-dispatch-service/internal/config"
	"parcel-dispatch-service/internal/platform/obs"
	"parcel-dispatch-service/internal/ports"
	"parcel-dispatch-service/internal/report"
	"parcel-dispatch-service/internal/services"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"
)

// main is the application composition root.
// It wires concrete adapters (SQLite, Redis or LRU) behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	obs.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open database")
	}
	defer db.Close()

	// Initialize schema and seed the service day from CSV input when present.
	if err := initAndSeed(ctx, db, cfg); err != nil {
		log.Fatal().Err(err).Msg("cannot initialise database")
	}

	repo := repositories.NewSQLParcelRepository(db)
	geo, err := repo.LoadGeography(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load geography")
	}
	log.Info().Int("addresses", geo.Len()).Msg("geography loaded")

	dispatcher := services.NewDispatcher(repo, geo, repositories.NewMemoryRepository, report.NewReporter(report.Info, log.Logger))
	if cfg.PaceRate > 0 {
		dispatcher.Pacer = services.ScaledPacer{Rate: cfg.PaceRate}
	}

	planCache, closeCache, err := openPlanCache(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open plan cache")
	}
	defer closeCache()

	router := api.NewRouter(api.Deps{
		Parcels: repo,
		Planner: dispatcher,
		Store:   repositories.NewSQLPlanStore(db, repositories.SQLite),
		Cache:   planCache,
		Defaults: services.DispatchRequest{
			Hub:                      cfg.HubAddress,
			Vehicles:                 cfg.InitialVehicles,
			Drivers:                  cfg.InitialDrivers,
			Capacity:                 cfg.VehicleCapacity,
			SpeedMPH:                 cfg.VehicleSpeedMPH,
			MaxAttempts:              cfg.MaxAttempts,
			GroupDelayedWithDeadline: cfg.GroupDelayedWithDeadline,
		},
	})

	// Write timeout covers a paced replay of a full day.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	waitGroup, ctx := errgroup.WithContext(ctx)
	waitGroup.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	waitGroup.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("graceful shutdown HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		log.Info().Msg("HTTP server is stopped")
		return nil
	})

	if err := waitGroup.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func openDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", dbPath, err)
	}

	// One writer at a time; plan saves and seeding share the file.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", dbPath, err)
	}

	return db, nil
}

func initAndSeed(ctx context.Context, db *sql.DB, cfg config.Config) error {
	if err := repositories.InitSchema(db); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	paths := ingest.PathsIn(cfg.DataDir, cfg.PackageCSV, cfg.AddressCSV, cfg.DistanceCSV)
	if _, err := os.Stat(paths.Parcels); errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", paths.Parcels).Msg("no parcel file found; serving the stored dataset")
		return nil
	}

	ds, err := ingest.LoadDataset(ctx, paths)
	if err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	if err := repositories.SeedDataset(ctx, db, repositories.SQLite, ds); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	log.Info().Int("parcels", len(ds.Parcels)).Int("addresses", len(ds.Addresses)).Msg("dataset seeded")
	return nil
}

// openPlanCache prefers Redis when REDIS_ADDR is set and falls back to an
// in-process LRU otherwise.
func openPlanCache(ctx context.Context, cfg config.Config) (ports.PlanCache, func(), error) {
	if cfg.RedisAddr == "" {
		c, err := cache.NewLRUPlanCache(cfg.PlanCacheSize)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Int("size", cfg.PlanCacheSize).Msg("using in-process plan cache")
		return c, func() {}, nil
	}

	c, err := cache.NewRedisPlanCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.PlanCacheTTL)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("redis_addr", cfg.RedisAddr).Msg("redis plan cache connected")
	return c, func() { _ = c.Close() }, nil
}

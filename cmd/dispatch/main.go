// Command dispatch plans one service day from CSV input and prints the
// fleet load, the replayed timeline, mileage and status snapshots.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"parcel-dispatch-service/internal/adapters/ingest"
	"parcel-dispatch-service/internal/adapters/repositories"
	"parcel-dispatch-service/internal/config"
	"parcel-dispatch-service/internal/domain"
	"parcel-dispatch-service/internal/platform/obs"
	"parcel-dispatch-service/internal/report"
	"parcel-dispatch-service/internal/services"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	var (
		dataDir   = flag.String("data", cfg.DataDir, "directory holding the input CSV files")
		parcels   = flag.String("parcels", cfg.PackageCSV, "parcel file name")
		addresses = flag.String("addresses", cfg.AddressCSV, "address file name")
		distances = flag.String("distances", cfg.DistanceCSV, "distance file name")
		hub       = flag.String("hub", cfg.HubAddress, "hub street address")
		vehicles  = flag.Int("vehicles", cfg.InitialVehicles, "initial number of vehicles")
		drivers   = flag.Int("drivers", cfg.InitialDrivers, "initial number of drivers")
		capacity  = flag.Int("capacity", cfg.VehicleCapacity, "parcels per vehicle")
		speed     = flag.Float64("speed", cfg.VehicleSpeedMPH, "vehicle speed in mph")
		attempts  = flag.Int("attempts", cfg.MaxAttempts, "maximum planning attempts")
		seed      = flag.Uint64("seed", 1, "cluster splitter seed")
		grouping  = flag.Bool("group-delayed", cfg.GroupDelayedWithDeadline, "group delayed parcels that carry deadlines")
		pace      = flag.Float64("pace", cfg.PaceRate, "simulated minutes per wall-clock second (0 = no pacing)")
		verbosity = flag.String("verbosity", "info", "reporter level: none, progress or info")
		statusAt  = flag.String("status", "", "comma separated HH:MM times to print parcel status for")
		save      = flag.String("save", "", "SQLite file to store the committed plan in")
	)
	flag.Parse()

	obs.Setup(cfg.LogLevel, "console")

	level, err := report.ParseLevel(*verbosity)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid verbosity")
	}
	times, err := parseTimes(*statusAt)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid status time")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ds, err := ingest.LoadDataset(ctx, ingest.PathsIn(*dataDir, *parcels, *addresses, *distances))
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load dataset")
	}
	geo, err := ds.Geography()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot build geography")
	}

	dispatcher := services.NewDispatcher(ds, geo, repositories.NewMemoryRepository, report.NewReporter(level, log.Logger))
	if *pace > 0 {
		dispatcher.Pacer = services.ScaledPacer{Rate: *pace}
	}

	plan, err := dispatcher.PlanDeliveries(ctx, services.DispatchRequest{
		Hub:                      *hub,
		Vehicles:                 *vehicles,
		Drivers:                  *drivers,
		Capacity:                 *capacity,
		SpeedMPH:                 *speed,
		MaxAttempts:              *attempts,
		GroupDelayedWithDeadline: *grouping,
		Seed:                     *seed,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("dispatch failed")
	}

	fmt.Print(report.RenderFleet(plan.Fleet))
	fmt.Println()
	fmt.Print(report.RenderTimeline(plan.Timeline))
	fmt.Println()
	fmt.Print(report.RenderMileage(plan.Fleet))
	for _, at := range times {
		fmt.Println()
		fmt.Print(report.RenderStatus(services.StatusAt(plan.Parcels, plan.Timeline, at), at))
	}

	if *save != "" {
		if err := savePlan(ctx, *save, plan); err != nil {
			log.Fatal().Err(err).Msg("cannot save plan")
		}
		log.Info().Str("run_id", plan.RunID).Str("path", *save).Msg("plan saved")
	}
}

func parseTimes(raw string) ([]domain.Clock, error) {
	var out []domain.Clock
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := domain.ParseClock(part)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

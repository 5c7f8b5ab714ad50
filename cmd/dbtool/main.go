package main

import (
	"context"
	"database/sql"
	"fmt"
	"os/signal"
	"parcel-dispatch-service/internal/adapters/ingest"
	"parcel-dispatch-service/internal/adapters/repositories"
	"parcel-dispatch-service/internal/config"
	"parcel-dispatch-service/internal/platform/db"
	"parcel-dispatch-service/internal/platform/obs"
	"syscall"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	obs.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("dbtool failed")
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DatabaseURL, db.Pool{
		MaxOpenConns:    cfg.DBMaxOpen,
		MaxIdleConns:    cfg.DBMaxIdle,
		ConnMaxLifetime: cfg.DBMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("open database (is DATABASE_URL set?): %w", err)
	}
	defer conn.Close()

	paths := ingest.PathsIn(cfg.DataDir, cfg.PackageCSV, cfg.AddressCSV, cfg.DistanceCSV)
	return initAndSeed(ctx, conn, paths)
}

func initAndSeed(ctx context.Context, conn *sql.DB, paths ingest.Paths) error {
	log.Info().Msg("Initializing database schema...")
	if err := repositories.InitPostgresSchema(ctx, conn); err != nil {
		return fmt.Errorf("schema initialization: %w", err)
	}
	log.Info().Msg("Schema ready.")

	ds, err := ingest.LoadDataset(ctx, paths)
	if err != nil {
		return err
	}

	log.Info().Int("parcels", len(ds.Parcels)).Int("addresses", len(ds.Addresses)).Msg("Seeding database...")
	if err := repositories.SeedDataset(ctx, conn, repositories.Postgres, ds); err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	log.Info().Msg("Seeding complete.")

	return nil
}

// Package config reads service settings from an optional .env file and the
// process environment.
package config

import (
	"fmt"
	"parcel-dispatch-service/internal/domain"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port          string        `mapstructure:"PORT"`
	DBPath        string        `mapstructure:"DB_PATH"`
	DatabaseURL   string        `mapstructure:"DATABASE_URL"`
	DBMaxOpen     int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdle     int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	PlanCacheTTL  time.Duration `mapstructure:"PLAN_CACHE_TTL"`
	PlanCacheSize int           `mapstructure:"PLAN_CACHE_SIZE"`

	DataDir     string `mapstructure:"DATA_DIR"`
	PackageCSV  string `mapstructure:"PACKAGE_CSV"`
	AddressCSV  string `mapstructure:"ADDRESS_CSV"`
	DistanceCSV string `mapstructure:"DISTANCE_CSV"`

	HubAddress               string  `mapstructure:"HUB_ADDRESS"`
	VehicleCapacity          int     `mapstructure:"VEHICLE_CAPACITY"`
	VehicleSpeedMPH          float64 `mapstructure:"VEHICLE_SPEED_MPH"`
	InitialVehicles          int     `mapstructure:"INITIAL_VEHICLES"`
	InitialDrivers           int     `mapstructure:"INITIAL_DRIVERS"`
	MaxAttempts              int     `mapstructure:"MAX_ATTEMPTS"`
	GroupDelayedWithDeadline bool    `mapstructure:"GROUP_DELAYED_WITH_DEADLINE"`

	LogLevel  string  `mapstructure:"LOG_LEVEL"`
	LogFormat string  `mapstructure:"LOG_FORMAT"`
	PaceRate  float64 `mapstructure:"PACE_RATE"`
}

var defaults = map[string]any{
	"PORT":                        "8080",
	"DB_PATH":                     "data/app.db",
	"DATABASE_URL":                "",
	"DB_MAX_OPEN_CONNS":           10,
	"DB_MAX_IDLE_CONNS":           10,
	"DB_CONN_MAX_LIFETIME":        "30m",
	"REDIS_ADDR":                  "",
	"REDIS_PASSWORD":              "",
	"PLAN_CACHE_TTL":              "30m",
	"PLAN_CACHE_SIZE":             128,
	"DATA_DIR":                    "data",
	"PACKAGE_CSV":                 "packages.csv",
	"ADDRESS_CSV":                 "addresses.csv",
	"DISTANCE_CSV":                "distances.csv",
	"HUB_ADDRESS":                 domain.DefaultHub,
	"VEHICLE_CAPACITY":            domain.DefaultCapacity,
	"VEHICLE_SPEED_MPH":           domain.DefaultSpeedMPH,
	"INITIAL_VEHICLES":            3,
	"INITIAL_DRIVERS":             2,
	"MAX_ATTEMPTS":                10,
	"GROUP_DELAYED_WITH_DEADLINE": true,
	"LOG_LEVEL":                   "info",
	"LOG_FORMAT":                  "json",
	"PACE_RATE":                   0,
}

// Load reads .env when present, then the environment. Environment values
// win over .env values, which win over defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("load config: bind %s: %w", key, err)
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	cfg.RedisPassword = trimOptionalQuotes(cfg.RedisPassword)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.VehicleCapacity <= 0:
		return fmt.Errorf("load config: VEHICLE_CAPACITY must be positive, got %d: %w", c.VehicleCapacity, domain.ErrValidation)
	case c.VehicleSpeedMPH <= 0:
		return fmt.Errorf("load config: VEHICLE_SPEED_MPH must be positive, got %v: %w", c.VehicleSpeedMPH, domain.ErrValidation)
	case c.InitialVehicles < 0 || c.InitialDrivers < 0:
		return fmt.Errorf("load config: fleet sizes must not be negative: %w", domain.ErrValidation)
	case c.MaxAttempts <= 0:
		return fmt.Errorf("load config: MAX_ATTEMPTS must be positive, got %d: %w", c.MaxAttempts, domain.ErrValidation)
	case c.DBMaxOpen < 0 || c.DBMaxIdle < 0:
		return fmt.Errorf("load config: database pool sizes must not be negative: %w", domain.ErrValidation)
	case c.PaceRate < 0:
		return fmt.Errorf("load config: PACE_RATE must not be negative: %w", domain.ErrValidation)
	}
	return nil
}

func trimOptionalQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

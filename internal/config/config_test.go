package config

import (
	"parcel-dispatch-service/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, domain.DefaultHub, cfg.HubAddress)
	assert.Equal(t, domain.DefaultCapacity, cfg.VehicleCapacity)
	assert.Equal(t, domain.DefaultSpeedMPH, cfg.VehicleSpeedMPH)
	assert.Equal(t, 3, cfg.InitialVehicles)
	assert.Equal(t, 2, cfg.InitialDrivers)
	assert.Equal(t, 30*time.Minute, cfg.PlanCacheTTL)
	assert.True(t, cfg.GroupDelayedWithDeadline)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 10, cfg.DBMaxOpen)
	assert.Equal(t, 30*time.Minute, cfg.DBMaxLifetime)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("VEHICLE_CAPACITY", "4")
	t.Setenv("VEHICLE_SPEED_MPH", "25.5")
	t.Setenv("PLAN_CACHE_TTL", "5m")
	t.Setenv("GROUP_DELAYED_WITH_DEADLINE", "false")
	t.Setenv("REDIS_PASSWORD", `"secret"`)
	t.Setenv("DB_MAX_OPEN_CONNS", "4")
	t.Setenv("DB_CONN_MAX_LIFETIME", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 4, cfg.VehicleCapacity)
	assert.Equal(t, 25.5, cfg.VehicleSpeedMPH)
	assert.Equal(t, 5*time.Minute, cfg.PlanCacheTTL)
	assert.False(t, cfg.GroupDelayedWithDeadline)
	assert.Equal(t, "secret", cfg.RedisPassword)
	assert.Equal(t, 4, cfg.DBMaxOpen)
	assert.Equal(t, time.Hour, cfg.DBMaxLifetime)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"VEHICLE_CAPACITY", "0"},
		{"VEHICLE_SPEED_MPH", "-1"},
		{"MAX_ATTEMPTS", "0"},
		{"INITIAL_DRIVERS", "-2"},
		{"PACE_RATE", "-0.5"},
		{"DB_MAX_IDLE_CONNS", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

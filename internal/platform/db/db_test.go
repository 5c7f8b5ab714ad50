package db

import (
	"context"
	"parcel-dispatch-service/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   Pool
		want Pool
	}{
		{name: "zero", in: Pool{}, want: DefaultPool()},
		{
			name: "idle capped by open",
			in:   Pool{MaxOpenConns: 4, MaxIdleConns: 8, ConnMaxLifetime: time.Minute},
			want: Pool{MaxOpenConns: 4, MaxIdleConns: 4, ConnMaxLifetime: time.Minute},
		},
		{
			name: "explicit",
			in:   Pool{MaxOpenConns: 20, MaxIdleConns: 5, ConnMaxLifetime: time.Hour},
			want: Pool{MaxOpenConns: 20, MaxIdleConns: 5, ConnMaxLifetime: time.Hour},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.withDefaults())
		})
	}
}

func TestOpenRequiresURL(t *testing.T) {
	_, err := Open(context.Background(), "  ", Pool{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestOpenUnreachable(t *testing.T) {
	_, err := Open(context.Background(), "postgres://dispatch@127.0.0.1:1/dispatch?connect_timeout=1&sslmode=disable", Pool{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verify postgres connection")
}

// Package db opens the Postgres pool used to seed and serve parcel data.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"parcel-dispatch-service/internal/domain"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const pingTimeout = 5 * time.Second

// Pool sizes the connection pool. Zero values fall back to the defaults.
type Pool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func DefaultPool() Pool {
	return Pool{MaxOpenConns: 10, MaxIdleConns: 10, ConnMaxLifetime: 30 * time.Minute}
}

func (p Pool) withDefaults() Pool {
	def := DefaultPool()
	if p.MaxOpenConns <= 0 {
		p.MaxOpenConns = def.MaxOpenConns
	}
	if p.MaxIdleConns <= 0 {
		p.MaxIdleConns = def.MaxIdleConns
	}
	// Idle connections never exceed the open limit.
	p.MaxIdleConns = min(p.MaxIdleConns, p.MaxOpenConns)
	if p.ConnMaxLifetime <= 0 {
		p.ConnMaxLifetime = def.ConnMaxLifetime
	}
	return p
}

// Open connects to Postgres through the pgx stdlib driver and verifies the
// connection before returning.
func Open(ctx context.Context, databaseURL string, pool Pool) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("openDB: database url is required: %w", domain.ErrValidation)
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("openDB: open postgres database: %w", err)
	}

	pool = pool.withDefaults()
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("openDB: verify postgres connection: %w", err)
	}

	return db, nil
}

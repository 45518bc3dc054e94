package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolProbe reports connection pool health for the /health endpoint.
type PoolProbe struct {
	pool *pgxpool.Pool
}

// NewPoolProbe creates a health probe backed by the given pool.
func NewPoolProbe(pool *pgxpool.Pool) *PoolProbe {
	return &PoolProbe{pool: pool}
}

// Name identifies the probe in the health response.
func (p *PoolProbe) Name() string { return "database" }

// Check pings the database, acquiring a connection from the pool.
func (p *PoolProbe) Check(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

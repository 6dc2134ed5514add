package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// maxReadConns bounds the pool; the console issues at most three concurrent
// collection reads per page load.
const maxReadConns = 8

// Pool is a read-only connection pool onto the asset database.
type Pool struct {
	pool *pgxpool.Pool
}

// Open connects with every session pinned read-only and checks the database
// answers before returning.
func Open(ctx context.Context, databaseURL string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.ConnConfig.RuntimeParams["application_name"] = "console-go"
	cfg.ConnConfig.RuntimeParams["default_transaction_read_only"] = "on"
	if cfg.MaxConns > maxReadConns {
		cfg.MaxConns = maxReadConns
	}

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Pool{pool: p}, nil
}

func (p *Pool) Close() {
	if p == nil || p.pool == nil {
		return
	}
	p.pool.Close()
}

// Ping reports readiness; a nil pool has nothing to check.
func (p *Pool) Ping(ctx context.Context) error {
	if p == nil || p.pool == nil {
		return nil
	}
	return p.pool.Ping(ctx)
}

func (p *Pool) Queries() *Queries {
	if p == nil || p.pool == nil {
		return nil
	}
	return New(p.pool)
}

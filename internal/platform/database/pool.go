// Package database owns the Postgres pool the stores run on: construction
// with a startup ping, embedded schema migration, health probing, and pool
// gauges.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"signet/migrations"
)

var (
	poolOpenConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signet_db_pool_open_conns",
		Help: "Open connections, in use plus idle",
	})
	poolInUseConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signet_db_pool_in_use_conns",
		Help: "Connections currently running statements",
	})
	poolIdleConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signet_db_pool_idle_conns",
		Help: "Idle connections in the pool",
	})
	poolWaits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signet_db_pool_waits_total",
		Help: "Times a caller waited for a free connection",
	})
	poolWaitSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signet_db_pool_wait_seconds_total",
		Help: "Time callers spent waiting for a free connection",
	})
)

// Config carries the connection URL and pool limits.
type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns pool limits suitable for the account and attempt
// stores; both issue short single-row statements.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

// Pool wraps a *sql.DB with health checking and schema management.
type Pool struct {
	db *sql.DB

	lastWaits    int64
	lastWaitTime time.Duration
}

// New opens a pool for cfg.URL and verifies it with a ping.
// Returns nil if the URL is empty; callers fall back to in-memory stores.
func New(cfg Config) (*Pool, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{db: db}, nil
}

// DB exposes the underlying *sql.DB for the stores.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Migrate applies the embedded *.up.sql files in lexical order. The
// statements are idempotent (CREATE TABLE IF NOT EXISTS), so running
// Migrate on every boot is safe.
func (p *Pool) Migrate(ctx context.Context) error {
	if p == nil || p.db == nil {
		return nil
	}

	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := fs.ReadFile(migrations.FS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if _, err := p.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", file, err)
		}
	}

	return nil
}

// Health reports whether the database answers a ping.
func (p *Pool) Health(ctx context.Context) error {
	if p == nil || p.db == nil {
		return fmt.Errorf("database not configured")
	}
	return p.db.PingContext(ctx)
}

// Close releases the pool.
func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// RecordPoolStats publishes the connection gauges and turns the cumulative
// wait totals from sql.DBStats into counter increments. The server calls it
// on a fixed tick, so reads of the last-seen totals are not synchronized.
func (p *Pool) RecordPoolStats() {
	if p == nil || p.db == nil {
		return
	}
	stats := p.db.Stats()

	poolOpenConns.Set(float64(stats.OpenConnections))
	poolInUseConns.Set(float64(stats.InUse))
	poolIdleConns.Set(float64(stats.Idle))

	if d := stats.WaitCount - p.lastWaits; d > 0 {
		poolWaits.Add(float64(d))
	}
	if d := stats.WaitDuration - p.lastWaitTime; d > 0 {
		poolWaitSeconds.Add(d.Seconds())
	}
	p.lastWaits = stats.WaitCount
	p.lastWaitTime = stats.WaitDuration
}

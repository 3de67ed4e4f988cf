// Package redis owns the go-redis client the attempt store runs on:
// construction with a startup ping, health probing, and pool gauges.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	poolHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signet_redis_pool_hits_total",
		Help: "Connections served from the pool",
	})
	poolMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signet_redis_pool_misses_total",
		Help: "Connections that had to be dialed fresh",
	})
	poolTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signet_redis_pool_timeouts_total",
		Help: "Connection waits that gave up on timeout",
	})
	poolTotalConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signet_redis_pool_total_conns",
		Help: "Open connections in the pool",
	})
	poolIdleConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signet_redis_pool_idle_conns",
		Help: "Idle connections in the pool",
	})
	poolStaleConns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "signet_redis_pool_stale_conns_total",
		Help: "Stale connections removed from the pool",
	})
)

// Client wraps go-redis with the health probe and pool instrumentation the
// server wires in. It backs the attempt store when REDIS_ADDR is set.
type Client struct {
	*redis.Client
	last *redis.PoolStats
}

// New connects to the given address and logical database and verifies the
// connection with a ping. Returns nil on an empty address; callers fall
// back to the database or in-memory attempt store.
func New(addr string, db int) (*Client, error) {
	if addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck // best-effort cleanup on init failure
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health reports whether the server answers a ping.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.Client.Close()
}

// RecordPoolStats publishes the pool gauges as-is and the counters as
// growth since the previous call. The server invokes it on a fixed tick.
func (c *Client) RecordPoolStats() {
	stats := c.PoolStats()

	poolTotalConns.Set(float64(stats.TotalConns))
	poolIdleConns.Set(float64(stats.IdleConns))

	prev := c.last
	if prev == nil {
		prev = &redis.PoolStats{}
	}
	addDelta(poolHits, stats.Hits, prev.Hits)
	addDelta(poolMisses, stats.Misses, prev.Misses)
	addDelta(poolTimeouts, stats.Timeouts, prev.Timeouts)
	addDelta(poolStaleConns, stats.StaleConns, prev.StaleConns)

	c.last = stats
}

// addDelta feeds a counter the growth since the last observation. The
// go-redis totals are cumulative; a current value below the previous one
// means the client was swapped out, and that sample is skipped.
func addDelta(counter prometheus.Counter, current, previous uint32) {
	if current > previous {
		counter.Add(float64(current - previous))
	}
}

//go:build integration

// Package containers boots the backing services for integration tests as
// testcontainers. Each backend starts once per test binary and is shared
// by every suite in the package; the reaper removes them after the run.
package containers

import (
	"sync"
	"testing"
)

// Manager hands out the shared containers, booting each backend on first
// request. Safe for concurrent use by parallel suites.
type Manager struct {
	mu       sync.Mutex
	postgres *PostgresContainer
	redis    *RedisContainer
}

var manager Manager

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	return &manager
}

// GetPostgres returns the shared Postgres container, booting it on first
// use. A failed boot fails t and leaves the slot empty for a retry.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.postgres == nil {
		m.postgres = NewPostgresContainer(t)
	}
	return m.postgres
}

// GetRedis returns the shared Redis container, booting it on first use.
func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.redis == nil {
		m.redis = NewRedisContainer(t)
	}
	return m.redis
}

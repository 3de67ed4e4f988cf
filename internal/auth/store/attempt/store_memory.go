// Package attempt provides the stores for per-user sign-in failure
// accounting. Every backend offers the same contract: reads return nil for
// absent records, and RecordFailure is a single atomic conditional update
// so concurrent failures for one user can never lose an increment.
package attempt

import (
	"context"
	"sync"
	"time"

	"signet/internal/auth/models"
)

// InMemoryStore keeps attempt records in a map. Used when no database or
// redis backend is configured, and throughout the unit tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.LoginAttemptRecord
}

// NewInMemory constructs an empty in-memory attempt store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]*models.LoginAttemptRecord),
	}
}

// Get returns a copy of the record for userID, or nil when absent.
func (s *InMemoryStore) Get(_ context.Context, userID string) (*models.LoginAttemptRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[userID]
	if !exists {
		return nil, nil
	}
	out := *record
	return &out, nil
}

// RecordFailure counts one failed sign-in for userID under the store lock.
// The caller supplies the window cutoff (now minus the window length) so
// the window duration stays out of the store; a record whose window
// started before the cutoff restarts at count 1.
func (s *InMemoryStore) RecordFailure(_ context.Context, userID string, now, cutoff time.Time) (*models.LoginAttemptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[userID]
	if !exists || record.WindowStartedAt.Before(cutoff) {
		record = &models.LoginAttemptRecord{
			UserID:          userID,
			FailureCount:    1,
			WindowStartedAt: now,
			LastAttemptAt:   now,
		}
		s.records[userID] = record
	} else {
		record.FailureCount++
		record.LastAttemptAt = now
	}
	out := *record
	return &out, nil
}

// Clear removes the record for userID. Clearing an absent record is not an
// error.
func (s *InMemoryStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, userID)
	return nil
}

// PurgeExpired removes records whose last attempt predates cutoff and
// returns how many were dropped. The cutoff is provided by the caller to
// keep business rules (window length, retention grace) out of the store.
func (s *InMemoryStore) PurgeExpired(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for userID, record := range s.records {
		if record.LastAttemptAt.Before(cutoff) {
			delete(s.records, userID)
			purged++
		}
	}
	return purged, nil
}

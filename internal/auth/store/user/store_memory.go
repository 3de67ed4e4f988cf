// Package user provides the account stores. All methods return
// sentinel.ErrNotFound (wrapped) when the requested account does not
// exist and sentinel.ErrConflict when a unique constraint is violated, so
// the service can translate them into domain errors exactly once.
package user

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"signet/internal/auth/models"
	"signet/internal/sentinel"
	id "signet/pkg/domain"
)

// InMemoryStore keeps users in a map. Used when no database is configured,
// and throughout the unit tests.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[id.UserID]*models.User
}

// NewInMemory constructs an empty in-memory user store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{users: make(map[id.UserID]*models.User)}
}

// Create inserts a new user. Emails are unique; callers pass them already
// normalized.
func (s *InMemoryStore) Create(_ context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("user id already exists: %w", sentinel.ErrConflict)
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
		}
	}

	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if user, ok := s.users[userID]; ok {
		out := *user
		return &out, nil
	}
	return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			out := *user
			return &out, nil
		}
	}
	return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
}

// UpdateLastSignIn stamps the most recent successful sign-in.
func (s *InMemoryStore) UpdateLastSignIn(_ context.Context, userID id.UserID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
	}
	user.RecordSignIn(at)
	return nil
}

// List returns all users ordered by creation time, oldest first.
func (s *InMemoryStore) List(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.users))
	for _, user := range s.users {
		out := *user
		users = append(users, &out)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].Email < users[j].Email
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// Count returns the number of stored users.
func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.users), nil
}

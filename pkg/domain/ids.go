// Package domain holds the typed identifiers shared across layers.
package domain

import (
	"github.com/google/uuid"

	dErrors "signet/pkg/domain-errors"
)

// UserID identifies an account. Keeping it a distinct type stops raw strings
// and other uuids from sliding into user-keyed operations like lockout
// accounting.
type UserID uuid.UUID

// NewUserID returns a fresh random user ID. Used at sign-up and by seeding.
func NewUserID() UserID {
	return UserID(uuid.New())
}

// ParseUserID validates at trust boundaries (handlers, API inputs).
func ParseUserID(s string) (UserID, error) {
	id, err := parseUUID(s, "user ID")
	return UserID(id), err
}

// String renders the canonical UUID form for logs.
func (id UserID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero UUID.
func (id UserID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// parseUUID rejects empty and malformed input but admits the nil UUID:
// a lookup keyed by a nil ID should reach the store and come back not-found
// like any other absent row. Services that require a real ID check IsNil.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return id, nil
}

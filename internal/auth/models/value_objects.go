package models

// PermissionCode represents the access level of an account.
// Codes are stable wire/storage values; names are for display.
type PermissionCode int16

const (
	PermissionAdmin   PermissionCode = 1
	PermissionGeneral PermissionCode = 2
)

// IsValid returns true if the permission code is a known valid value.
func (p PermissionCode) IsValid() bool {
	return p == PermissionAdmin || p == PermissionGeneral
}

// Name returns the display name for the permission code.
func (p PermissionCode) Name() string {
	switch p {
	case PermissionAdmin:
		return "admin"
	case PermissionGeneral:
		return "general"
	default:
		return "unknown"
	}
}

// TokenKind distinguishes access from refresh tokens. The kind is embedded
// in token claims and checked at verification so one kind can never stand
// in for the other.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// IsValid returns true if the token kind is a known valid value.
func (k TokenKind) IsValid() bool {
	return k == TokenKindAccess || k == TokenKindRefresh
}

// String returns the string representation of the token kind.
func (k TokenKind) String() string {
	return string(k)
}

// CookieName returns the cookie this token kind is delivered in.
func (k TokenKind) CookieName() string {
	if k == TokenKindRefresh {
		return "refresh_token"
	}
	return "access_token"
}

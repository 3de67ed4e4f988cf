// Package email normalizes and sanity-checks email addresses. Addresses are
// stored and looked up in normalized form so MiXeD-case sign-ins hit the
// same account.
package email

import "strings"

// Normalize trims surrounding whitespace and lowercases the address.
// Lowercasing the local part is technically lossy per RFC 5321, but treating
// local parts case-insensitively matches every real mail provider and keeps
// the uniqueness constraint honest.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValid performs lightweight validation of an email address format.
// Full syntax checking belongs to the request validator; this exists for
// defense at the service boundary.
func IsValid(email string) bool {
	if email == "" {
		return false
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	if parts[0] == "" || parts[1] == "" {
		return false
	}
	if !strings.Contains(parts[1], ".") {
		return false
	}
	return true
}

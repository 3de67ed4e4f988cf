package models

import (
	"signet/internal/auth/email"
	s "signet/pkg/string"
	"signet/pkg/validation"
)

// SignUpRequest represents a request to register a new account.
type SignUpRequest struct {
	Email          string `json:"email" validate:"required,email,max=255"`
	Password       string `json:"password" validate:"required,password"`
	FamilyName     string `json:"family_name" validate:"required,notblank,max=100"`
	GivenName      string `json:"given_name" validate:"required,notblank,max=100"`
	PermissionCode int16  `json:"permission_code" validate:"required,oneof=1 2"`
}

// Normalize trims surrounding whitespace and case-normalizes the email.
// The password is deliberately left untouched.
func (r *SignUpRequest) Normalize() {
	if r == nil {
		return
	}
	s.TrimStrings(&r.FamilyName, &r.GivenName)
	r.Email = email.Normalize(r.Email)
}

// Validate checks field syntax, the password rules, and the permission range.
func (r *SignUpRequest) Validate() error {
	return validation.Validate(r)
}

// SignInRequest represents a credential-verification request.
// The password only needs to be present; complexity rules apply at sign-up,
// not when checking an existing credential.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

// Normalize case-normalizes the email so lookups hit the stored form.
func (r *SignInRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = email.Normalize(r.Email)
}

// Validate checks field presence and email syntax.
func (r *SignInRequest) Validate() error {
	return validation.Validate(r)
}

// RefreshRequest exchanges a refresh token for a fresh token pair.
// The handler fills RefreshToken from the refresh cookie when the body
// omits it.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Validate checks that a refresh token was supplied by body or cookie.
func (r *RefreshRequest) Validate() error {
	return validation.Validate(r)
}

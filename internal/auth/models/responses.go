package models

import "time"

// This file contains transport-layer response models for JSON output.
// These are shaped for API responses and should avoid domain behavior.

// TokenPairResult is the response payload for sign-in and refresh. The same
// tokens also travel in the Set-Cookie headers; the body copy serves
// non-browser clients, which use the expiry stamps to schedule refreshes.
type TokenPairResult struct {
	Access           string    `json:"access"`
	Refresh          string    `json:"refresh"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// PermissionResult pairs the stable permission code with its display name.
type PermissionResult struct {
	Code int16  `json:"code"`
	Name string `json:"name"`
}

// UserResult is the JSON shape of an account for sign-up echo, detail, and
// list responses. The password hash never appears here.
type UserResult struct {
	ID           string           `json:"id"`
	Email        string           `json:"email"`
	Active       bool             `json:"active"`
	Permission   PermissionResult `json:"permission"`
	FamilyName   string           `json:"family_name"`
	GivenName    string           `json:"given_name"`
	LastSignInAt *time.Time       `json:"last_sign_in_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// NewUserResult shapes a domain user for JSON output.
func NewUserResult(u *User) *UserResult {
	return &UserResult{
		ID:     u.ID.String(),
		Email:  u.Email,
		Active: u.Active,
		Permission: PermissionResult{
			Code: int16(u.Permission),
			Name: u.Permission.Name(),
		},
		FamilyName:   u.FamilyName,
		GivenName:    u.GivenName,
		LastSignInAt: u.LastSignInAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// UsersResult represents the response to a list users request.
type UsersResult struct {
	Users []*UserResult `json:"users"`
}

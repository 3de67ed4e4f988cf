// Package cookie derives Set-Cookie attributes for issued tokens. Building
// a spec is pure: no state, no I/O, identical inputs yield identical specs.
package cookie

import (
	"net/http"
	"time"

	"signet/internal/auth/models"
	"signet/internal/platform/config"
	dErrors "signet/pkg/domain-errors"
)

// Spec describes one cookie for the transport layer to attach to a
// response. MaxAge follows net/http conventions: positive is a lifetime
// in seconds, negative deletes the cookie.
type Spec struct {
	Name     string
	Value    string
	Path     string
	MaxAge   int
	Secure   bool
	HttpOnly bool
	SameSite http.SameSite
}

// Cookie converts the spec into the net/http form for http.SetCookie.
func (s Spec) Cookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.Name,
		Value:    s.Value,
		Path:     s.Path,
		MaxAge:   s.MaxAge,
		Secure:   s.Secure,
		HttpOnly: s.HttpOnly,
		SameSite: s.SameSite,
	}
}

// Policy holds the configured cookie attributes. HttpOnly is not
// configurable: token cookies are never readable from script.
type Policy struct {
	sameSite http.SameSite
	secure   bool
}

// NewPolicy maps the configured SameSite mode onto net/http. Only strict
// and lax are accepted; token cookies are never sent cross-site.
func NewPolicy(sameSite string, secure bool) (*Policy, error) {
	var mode http.SameSite
	switch sameSite {
	case config.SameSiteStrict:
		mode = http.SameSiteStrictMode
	case config.SameSiteLax:
		mode = http.SameSiteLaxMode
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "cookie same-site mode must be strict or lax")
	}
	return &Policy{sameSite: mode, secure: secure}, nil
}

// Build produces the cookie spec for one token. The lifetime is the span
// from now to the token's expiry, so cookie and token fall due together.
func (p *Policy) Build(kind models.TokenKind, value string, expiresAt, now time.Time) Spec {
	maxAge := int(expiresAt.Sub(now).Seconds())
	if maxAge <= 0 {
		// An already-expired token gets a deleting cookie.
		maxAge = -1
	}
	return Spec{
		Name:     kind.CookieName(),
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   p.secure,
		HttpOnly: true,
		SameSite: p.sameSite,
	}
}

// Expire produces a spec that deletes the cookie for kind. Used at
// sign-out to drop both tokens from the browser.
func (p *Policy) Expire(kind models.TokenKind) Spec {
	return Spec{
		Name:     kind.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   p.secure,
		HttpOnly: true,
		SameSite: p.sameSite,
	}
}

// Package token issues and verifies the HS256-signed access/refresh token
// pair. Verification is stateless: possession of a token with a valid
// signature, a live expiry and the expected kind is the whole check.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"signet/internal/auth/models"
	id "signet/pkg/domain"
	dErrors "signet/pkg/domain-errors"
)

// Verification failures carry one of these sentinels so callers can tell
// the rejection reasons apart. All of them map to an unauthorized response
// at the transport layer.
var (
	ErrBadSignature = errors.New("token signature invalid")
	ErrExpired      = errors.New("token expired")
	ErrKindMismatch = errors.New("token kind mismatch")
	ErrMalformed    = errors.New("token malformed")
)

// Claims are the payload of both token kinds. Subject carries the user id;
// Kind pins the token to one use so an access token can never stand in for
// a refresh token or vice versa.
type Claims struct {
	Kind models.TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// Pair is one issued access/refresh pair with the expiries the cookies
// are derived from.
type Pair struct {
	Access           string
	Refresh          string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Service signs and verifies token pairs with a single shared secret.
type Service struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService constructs a Service. The access lifetime must not exceed the
// refresh lifetime; a pair whose short-lived half outlives its long-lived
// half is a configuration mistake.
func NewService(secret string, accessTTL, refreshTTL time.Duration) (*Service, error) {
	if secret == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "token signing secret cannot be empty")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "token lifetimes must be positive")
	}
	if accessTTL > refreshTTL {
		return nil, dErrors.New(dErrors.CodeValidation, "access token lifetime cannot exceed refresh token lifetime")
	}
	return &Service{
		signingKey: []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// IssuePair signs a fresh access/refresh pair for userID. Both tokens are
// anchored to the caller's now, so issuance is deterministic under an
// injected clock.
func (s *Service) IssuePair(userID id.UserID, now time.Time) (Pair, error) {
	accessExpiry := now.Add(s.accessTTL)
	refreshExpiry := now.Add(s.refreshTTL)

	access, err := s.sign(userID, models.TokenKindAccess, now, accessExpiry)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.sign(userID, models.TokenKindRefresh, now, refreshExpiry)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExpiry,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

func (s *Service) sign(userID id.UserID, kind models.TokenKind, now, expiry time.Time) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	})
	signed, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not sign token")
	}
	return signed, nil
}

// Verify checks signature, expiry against the caller's now, and that the
// token is of the expected kind. The returned error wraps exactly one of
// the package sentinels.
func (s *Service) Verify(tokenString string, kind models.TokenKind, now time.Time) (*Claims, error) {
	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, dErrors.Wrap(ErrExpired, dErrors.CodeUnauthorized, "token expired")
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, dErrors.Wrap(ErrBadSignature, dErrors.CodeUnauthorized, "invalid token signature")
		default:
			return nil, dErrors.Wrap(ErrMalformed, dErrors.CodeUnauthorized, "malformed token")
		}
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, dErrors.Wrap(ErrMalformed, dErrors.CodeUnauthorized, "malformed token")
	}
	if claims.Kind != kind {
		return nil, dErrors.Wrap(ErrKindMismatch, dErrors.CodeUnauthorized, "wrong token kind")
	}
	return claims, nil
}

// VerifyAccess verifies tokenString as an access token and returns its
// subject. It satisfies the transport middleware's verifier contract.
func (s *Service) VerifyAccess(tokenString string, now time.Time) (string, error) {
	claims, err := s.Verify(tokenString, models.TokenKindAccess, now)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"signet/pkg/platform/middleware/requesttime"
)

// AccessTokenCookie is the cookie the browser sends the access token in.
// Clients without a cookie jar may use an Authorization bearer header instead.
const AccessTokenCookie = "access_token"

// AccessVerifier validates an encoded access token and returns the subject
// user id. Verification is stateless; there is no revocation lookup.
type AccessVerifier interface {
	VerifyAccess(tokenString string, now time.Time) (string, error)
}

type contextKeyUserID struct{}

// ContextKeyUserID is exported for use in handlers.
var ContextKeyUserID = contextKeyUserID{}

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(ContextKeyUserID).(string)
	if !ok {
		return ""
	}
	return userID
}

// RequireAuth authenticates the request from the access token cookie, falling
// back to an Authorization bearer header. On success the subject user id is
// stored in the request context; everything finer-grained (ownership, admin
// permission) is decided by the service layer against the stored user record.
func RequireAuth(verifier AccessVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			token := accessTokenFromRequest(r)
			if token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing access token")
				return
			}

			userID, err := verifier.VerifyAccess(token, requesttime.Now(ctx))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, ContextKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves the subject like RequireAuth but never rejects:
// requests without a token, or with an invalid one, proceed unauthenticated.
// Used on routes that are public but behave differently for a signed-in
// caller, like creating an administrator account at sign-up.
func OptionalAuth(verifier AccessVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := accessTokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := verifier.VerifyAccess(token, requesttime.Now(ctx))
			if err != nil {
				// Not worth a 401 on a public route; the request simply
				// proceeds anonymous.
				logger.WarnContext(ctx, "ignoring invalid access token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			ctx = context.WithValue(ctx, ContextKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// accessTokenFromRequest prefers the cookie; browsers never set the header.
func accessTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	const bearerPrefix = "Bearer "
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix); ok {
		return after
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}

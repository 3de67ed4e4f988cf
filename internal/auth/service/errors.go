package service

import (
	"fmt"
	"time"

	"signet/internal/auth/token"
)

// AccountLockedError reports a rejected sign-in with the time left on the
// lock. Transport layers surface RetryAfter as a Retry-After header; extract
// it with errors.As.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, retry in %s", e.RetryAfter.Round(time.Second))
}

// refreshFailureReasons maps token verification sentinels to log reasons.
// First match wins. The client-facing error stays uniform; only the log tells
// the failure modes apart.
var refreshFailureReasons = []struct {
	sentinel error
	reason   string
}{
	{token.ErrExpired, "refresh_token_expired"},
	{token.ErrBadSignature, "refresh_token_bad_signature"},
	{token.ErrKindMismatch, "refresh_token_kind_mismatch"},
	{token.ErrMalformed, "refresh_token_malformed"},
}

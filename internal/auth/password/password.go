// Package password hashes and verifies account passwords with argon2id.
//
// Encoded hashes use the PHC string format and carry their own salt and
// cost parameters, so a cost change rolls out gradually: new hashes use
// the configured costs while stored hashes keep verifying with the costs
// they were created under.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	dErrors "signet/pkg/domain-errors"
)

const (
	saltLength = 16
	keyLength  = 32
)

var (
	// ErrMismatch is returned when the password does not match the hash.
	ErrMismatch = errors.New("password does not match")

	// ErrMalformedHash is returned when a stored hash cannot be parsed.
	// Callers treat it as an authentication failure, not a server error.
	ErrMalformedHash = errors.New("malformed password hash")
)

// Params are the argon2id cost parameters applied to new hashes.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

// Hasher creates and verifies peppered argon2id password hashes.
type Hasher struct {
	pepper string
	params Params
	decoy  string
}

// New constructs a Hasher. The decoy hash consumed by DummyVerify is
// derived from a random throwaway password at the configured costs.
func New(pepper string, params Params) (*Hasher, error) {
	if pepper == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password pepper cannot be empty")
	}
	if params.MemoryKiB == 0 || params.Iterations == 0 || params.Parallelism == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "argon2id cost parameters must be positive")
	}
	h := &Hasher{pepper: pepper, params: params}

	throwaway := make([]byte, keyLength)
	if _, err := rand.Read(throwaway); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not generate decoy password")
	}
	decoy, err := h.Hash(base64.RawStdEncoding.EncodeToString(throwaway))
	if err != nil {
		return nil, err
	}
	h.decoy = decoy
	return h, nil
}

// Hash derives an argon2id key from password+pepper under a fresh random
// salt and returns it PHC-encoded.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", dErrors.New(dErrors.CodeValidation, "password cannot be empty")
	}
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate salt")
	}
	key := argon2.IDKey([]byte(password+h.pepper), salt,
		h.params.Iterations, h.params.MemoryKiB, h.params.Parallelism, keyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify compares password against an encoded hash in constant time.
// The costs embedded in the hash apply, not the configured ones, so
// hashes created under earlier settings remain verifiable.
func (h *Hasher) Verify(password, encoded string) error {
	params, salt, key, err := decode(encoded)
	if err != nil {
		return err
	}
	computed := argon2.IDKey([]byte(password+h.pepper), salt,
		params.Iterations, params.MemoryKiB, params.Parallelism, uint32(len(key))) // #nosec G115 - key length is bounded by decode
	if subtle.ConstantTimeCompare(computed, key) != 1 {
		return ErrMismatch
	}
	return nil
}

// DummyVerify burns the same hashing cost as a real verification. Callers
// use it when no account matches an email, so response timing does not
// reveal whether the address is registered.
func (h *Hasher) DummyVerify(password string) {
	_ = h.Verify(password, h.decoy)
}

// decode splits a PHC-format argon2id hash into cost parameters, salt and
// derived key: $argon2id$v=19$m=..,t=..,p=..$<salt>$<key>
func decode(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return Params{}, nil, nil, fmt.Errorf("%w: expected 6 fields", ErrMalformedHash)
	}
	if parts[1] != "argon2id" {
		return Params{}, nil, nil, fmt.Errorf("%w: unsupported algorithm %q", ErrMalformedHash, parts[1])
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Params{}, nil, nil, fmt.Errorf("%w: unsupported version %q", ErrMalformedHash, parts[2])
	}
	var params Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.MemoryKiB, &params.Iterations, &params.Parallelism); err != nil {
		return Params{}, nil, nil, fmt.Errorf("%w: bad cost parameters %q", ErrMalformedHash, parts[3])
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Params{}, nil, nil, fmt.Errorf("%w: bad salt encoding", ErrMalformedHash)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Params{}, nil, nil, fmt.Errorf("%w: bad key encoding", ErrMalformedHash)
	}
	return params, salt, key, nil
}

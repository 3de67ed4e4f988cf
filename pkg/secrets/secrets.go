// Package secrets produces random secret material, such as the HS256
// signing key. Credential hashing is not its business; that belongs to
// the password package.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	dErrors "signet/pkg/domain-errors"
)

// MinBytes is the smallest secret Generate will produce. Anything shorter
// than 128 bits makes an HMAC key worth brute-forcing.
const MinBytes = 16

// DefaultBytes yields a 256-bit secret, matching the HS256 block size.
const DefaultBytes = 32

// Generate returns n bytes of cryptographically secure randomness encoded
// as unpadded URL-safe base64, ready to paste into an environment file.
func Generate(n int) (string, error) {
	if n < MinBytes {
		return "", dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("secret must be at least %d bytes", MinBytes))
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate secret")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

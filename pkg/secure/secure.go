// Package secure provides secret-holding buffers with guaranteed best-effort
// zeroing, CSPRNG helpers, and constant-time comparison.
//
// Security Note: All random number generation uses crypto/rand which provides
// cryptographically secure random bytes from the operating system's CSPRNG.
package secure

import (
	"crypto/rand"
	"crypto/subtle"
	"io"

	serrors "github.com/sealbox/sealbox/internal/errors"
)

// Random reads cryptographically secure random bytes into the provided slice.
// It uses crypto/rand.Read which sources entropy from the OS CSPRNG.
//
// This function will only return an error if the system's random number
// generator fails, which should be treated as a critical system failure.
func Random(b []byte) error {
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return serrors.NewKeyDerivationError("Random", serrors.ErrRandomSource)
	}
	return nil
}

// RandomBytes returns n cryptographically secure random bytes.
// Returns an error if the system's CSPRNG fails.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := Random(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Reader is an io.Reader that returns cryptographically secure random bytes.
// It wraps crypto/rand.Reader for consistent error handling.
var Reader = rand.Reader

// ConstantTimeCompare compares two byte slices in constant time.
// Returns true if the slices are equal, false otherwise.
// This prevents timing attacks when comparing secrets or digests.
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeEq(int32(len(a)), int32(len(b))) == 1 &&
		subtle.ConstantTimeCompare(a, b) == 1
}

// Zeroize erases sensitive data from memory by overwriting with zeros.
// Call this on keys and secrets as soon as they are no longer needed.
//
// Note: The Go runtime may have already copied the data, and the compiler may
// optimize away dead stores. This is a best-effort hardening measure; callers
// needing stronger guarantees should use OS-level memory protections.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroizeMultiple erases multiple byte slices.
func ZeroizeMultiple(slices ...[]byte) {
	for _, s := range slices {
		Zeroize(s)
	}
}

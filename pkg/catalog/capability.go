package catalog

import (
	"sync"
)

// Capabilities records which optional primitives this process can use. It is
// resolved once at first use and treated as read-only afterwards, replacing
// per-call availability probing. Components receive it by value so tests can
// simulate hosts missing a primitive.
type Capabilities struct {
	// Whirlpool reports whether the Whirlpool hash is usable. When false the
	// hash chain substitutes SHA-512 and records a warning.
	Whirlpool bool

	// BLAKE3 reports whether the BLAKE3 hash is usable.
	BLAKE3 bool

	// Argon2 reports whether the Argon2 KDF is usable.
	Argon2 bool

	// Balloon reports whether the Balloon KDF is usable.
	Balloon bool

	// Argon2d reports whether the pure data-dependent Argon2d variant is
	// usable. The Go implementation exposes only Argon2i and Argon2id, so
	// this is false and variant "d" downgrades to "id" with a warning.
	Argon2d bool
}

var (
	detected     Capabilities
	detectedOnce sync.Once
)

// Detect returns the process-wide capability set. All compiled-in primitives
// report true; only primitives with no Go implementation report false.
func Detect() Capabilities {
	detectedOnce.Do(func() {
		detected = Capabilities{
			Whirlpool: true,
			BLAKE3:    true,
			Argon2:    true,
			Balloon:   true,
			Argon2d:   false,
		}
	})
	return detected
}

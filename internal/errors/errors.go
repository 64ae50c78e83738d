// Package errors defines the closed error taxonomy for the sealbox encryption
// engine. Every error that crosses the engine boundary is one of five kinds:
// validation, key derivation, encryption, decryption, or authentication.
//
// Authentication errors deliberately collapse payload tampering, wrong
// passwords, and wrong private keys into a single fixed message so that error
// output cannot be used as an oracle to distinguish failure stages. The
// underlying cause remains reachable through errors.Unwrap for explicitly
// gated troubleshooting, never through the message itself.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for algorithm catalog lookups
var (
	// ErrUnknownAlgorithm indicates an algorithm identifier with no catalog entry
	ErrUnknownAlgorithm = errors.New("catalog: unknown algorithm")

	// ErrAlgorithmUnavailable indicates a known algorithm whose primitive is
	// not compiled into this build
	ErrAlgorithmUnavailable = errors.New("catalog: algorithm not available in this build")

	// ErrAlgorithmDeprecated indicates an algorithm retained only for
	// decrypting legacy files
	ErrAlgorithmDeprecated = errors.New("catalog: algorithm is deprecated for encryption")
)

// Sentinel errors for cipher suite operations
var (
	// ErrInvalidKeySize indicates that a key has an incorrect size
	ErrInvalidKeySize = errors.New("suite: invalid key size")

	// ErrInvalidNonce indicates the nonce size is incorrect
	ErrInvalidNonce = errors.New("suite: invalid nonce size")

	// ErrCiphertextTooShort indicates ciphertext is too short to be valid
	ErrCiphertextTooShort = errors.New("suite: ciphertext too short")

	// ErrAuthenticationFailed indicates AEAD/MAC authentication failed
	ErrAuthenticationFailed = errors.New("suite: authentication failed")

	// ErrIntegrityCheckFailed indicates a content hash mismatch
	ErrIntegrityCheckFailed = errors.New("engine: content integrity verification failed")

	// ErrPrivateKeyRequired indicates a hybrid suite needs a private key that
	// was neither supplied nor embedded in the metadata
	ErrPrivateKeyRequired = errors.New("suite: private key required for decryption")

	// ErrInvalidPublicKey indicates a malformed post-quantum public key
	ErrInvalidPublicKey = errors.New("suite: invalid public key")

	// ErrInvalidPrivateKey indicates a malformed post-quantum private key
	ErrInvalidPrivateKey = errors.New("suite: invalid private key")

	// ErrKeyPairInconsistent indicates a freshly generated KEM key pair failed
	// its encapsulate/decapsulate self-check
	ErrKeyPairInconsistent = errors.New("suite: generated key pair is inconsistent")
)

// Sentinel errors for metadata handling
var (
	// ErrInvalidFormat indicates the file framing or header is malformed
	ErrInvalidFormat = errors.New("header: invalid file format")

	// ErrUnsupportedVersion indicates an unknown metadata format version
	ErrUnsupportedVersion = errors.New("header: unsupported format version")

	// ErrMigrationLoss indicates a migration target cannot represent a field
	ErrMigrationLoss = errors.New("header: field not representable in target version")
)

// Sentinel errors for key derivation
var (
	// ErrDerivationFailed indicates the derivation pipeline could not produce
	// a key even through its fallback chain
	ErrDerivationFailed = errors.New("derive: key derivation failed")

	// ErrRandomSource indicates the system CSPRNG failed
	ErrRandomSource = errors.New("secure: random source failure")

	// ErrBufferDestroyed indicates use of a secure buffer after destruction
	ErrBufferDestroyed = errors.New("secure: buffer already destroyed")
)

// ValidationError reports malformed or missing input parameters: unsupported
// algorithm identifiers, bad file paths, out-of-range KDF parameters.
type ValidationError struct {
	Op  string // Operation that rejected the input
	Err error  // Underlying cause
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError creates a new ValidationError.
func NewValidationError(op string, err error) *ValidationError {
	return &ValidationError{Op: op, Err: err}
}

// KeyDerivationError reports that the derivation pipeline failed and no
// fallback succeeded.
type KeyDerivationError struct {
	Op  string
	Err error
}

func (e *KeyDerivationError) Error() string {
	return fmt.Sprintf("key derivation: %s failed", e.Op)
}

func (e *KeyDerivationError) Unwrap() error { return e.Err }

// NewKeyDerivationError creates a new KeyDerivationError.
func NewKeyDerivationError(op string, err error) *KeyDerivationError {
	return &KeyDerivationError{Op: op, Err: err}
}

// EncryptionError reports a primitive failure during encryption. The message
// names the operation but never the primitive-level cause.
type EncryptionError struct {
	Op  string
	Err error
}

func (e *EncryptionError) Error() string {
	return fmt.Sprintf("encryption failed: %s", e.Op)
}

func (e *EncryptionError) Unwrap() error { return e.Err }

// NewEncryptionError creates a new EncryptionError.
func NewEncryptionError(op string, err error) *EncryptionError {
	return &EncryptionError{Op: op, Err: err}
}

// DecryptionError reports a structural failure during decryption: unparsable
// framing, truncated payload, or all nonce-fallback candidates exhausted
// without reaching tag verification.
type DecryptionError struct {
	Op  string
	Err error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("decryption failed: %s", e.Op)
}

func (e *DecryptionError) Unwrap() error { return e.Err }

// NewDecryptionError creates a new DecryptionError.
func NewDecryptionError(op string, err error) *DecryptionError {
	return &DecryptionError{Op: op, Err: err}
}

// AuthenticationError reports any MAC, tag, or content hash mismatch. Payload
// tampering, a wrong password, and a wrong private key are indistinguishable
// from the message alone; the wrapped cause is available via Unwrap for
// explicitly gated debugging.
type AuthenticationError struct {
	Op  string // Recorded for debugging; never rendered in the message
	Err error
}

func (e *AuthenticationError) Error() string {
	return "authentication failed"
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// NewAuthenticationError creates a new AuthenticationError.
func NewAuthenticationError(op string, err error) *AuthenticationError {
	return &AuthenticationError{Op: op, Err: err}
}

// IsAuthentication reports whether err is (or wraps) an AuthenticationError.
func IsAuthentication(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDecryption reports whether err is (or wraps) a DecryptionError.
func IsDecryption(err error) bool {
	var de *DecryptionError
	return errors.As(err, &de)
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

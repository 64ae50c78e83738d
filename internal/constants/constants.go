// Package constants defines security parameters and format constants for the
// sealbox file encryption engine.
package constants

// Salt and key sizes
const (
	// SaltSize is the size of the per-file random salt in bytes
	SaltSize = 16

	// PerRoundSaltSize is the size of derived per-iteration KDF salts in bytes
	PerRoundSaltSize = 16

	// KeySize is the key size for 256-bit symmetric suites in bytes
	KeySize = 32

	// SIVKeySize is the key size for AES-SIV (RFC 5297) in bytes.
	// AES-SIV splits the key into separate S2V and CTR halves.
	SIVKeySize = 64
)

// Nonce and IV sizes
const (
	// GCMNonceSize is the nonce size for AES-GCM, AES-GCM-SIV, AES-OCB3 and
	// ChaCha20-Poly1305 in bytes (96 bits)
	GCMNonceSize = 12

	// LegacyGCMNonceSize is the stored nonce size written by historical
	// versions of the format for AES-GCM and ChaCha20-Poly1305. Only the
	// first GCMNonceSize bytes were cryptographically active.
	LegacyGCMNonceSize = 16

	// XChaChaNonceSize is the stored nonce size for XChaCha20-Poly1305 in
	// bytes. The effective 96-bit nonce is derived from it, not truncated.
	XChaChaNonceSize = 24

	// SIVNonceSize is the size of the stored-but-unused AES-SIV nonce field
	SIVNonceSize = 16

	// CBCIVSize is the IV size for the legacy Camellia-CBC suite in bytes
	CBCIVSize = 16

	// TagSize is the authentication tag size for all AEAD suites in bytes
	TagSize = 16

	// HMACSize is the HMAC-SHA256 tag size for the legacy CBC suite in bytes
	HMACSize = 32
)

// Content hashing
const (
	// ContentHashSize is the size of SHA3-256 content hashes in bytes
	ContentHashSize = 32
)

// Metadata format versions
const (
	// FormatVersionMin is the oldest metadata schema still decodable
	FormatVersionMin = 1

	// FormatVersionV3 introduced embedded post-quantum key material
	FormatVersionV3 = 3

	// FormatVersionV4 introduced the nested derivation/hashes/encryption layout
	FormatVersionV4 = 4

	// FormatVersionV5 added the inner-cipher selector for hybrid envelopes
	FormatVersionV5 = 5

	// FormatVersionCurrent is the version written by the encoder
	FormatVersionCurrent = FormatVersionV5
)

// Domain separation strings. These are baked into the file format; changing
// any of them breaks decryption of existing files.
const (
	// XChaChaNonceInfo derives the effective 96-bit nonce from the stored
	// 24-byte XChaCha20-Poly1305 nonce
	XChaChaNonceInfo = "sealbox-xchacha20-nonce-v1"

	// CamelliaMACInfo derives the HMAC key from the CBC encryption key
	CamelliaMACInfo = "sealbox-camellia-mac-v1"

	// KEMPayloadInfoPrefix derives the payload AEAD key from a KEM shared
	// secret; the algorithm identifier is appended
	KEMPayloadInfoPrefix = "sealbox-kem-payload-"

	// SigHybridSalt is the fixed HKDF salt for signature-derived hybrid keys
	SigHybridSalt = "sealbox-sig-hybrid-v1"

	// SigHybridInfoPrefix derives the AES-GCM key from a signature private
	// key; the algorithm identifier is appended
	SigHybridInfoPrefix = "sealbox-sig-key-"
)

// Private key embedding
const (
	// PrivateKeySaltSize is the size of the salt mixed into the key-wrap key
	PrivateKeySaltSize = 16
)

// Key derivation defaults. These seed freshly created configurations only;
// decryption always replays the configuration stored in the file header.
const (
	// DefaultArgon2TimeCost is the default Argon2 pass count
	DefaultArgon2TimeCost = 3

	// DefaultArgon2MemoryCost is the default Argon2 memory in KiB (64 MiB)
	DefaultArgon2MemoryCost = 64 * 1024

	// DefaultArgon2Parallelism is the default Argon2 lane count
	DefaultArgon2Parallelism = 4

	// DefaultArgon2HashLen is the default Argon2 output length in bytes
	DefaultArgon2HashLen = 32

	// DefaultBalloonTimeCost is the default Balloon round count
	DefaultBalloonTimeCost = 1

	// DefaultBalloonSpaceCost is the default Balloon space cost in blocks
	DefaultBalloonSpaceCost = 1024

	// DefaultBalloonParallelism is the default Balloon lane count
	DefaultBalloonParallelism = 4

	// DefaultScryptN is the default scrypt CPU/memory cost (must be power of 2)
	DefaultScryptN = 1 << 14

	// DefaultScryptR is the default scrypt block size parameter
	DefaultScryptR = 8

	// DefaultScryptP is the default scrypt parallelism parameter
	DefaultScryptP = 1

	// DefaultPBKDF2Iterations is the default PBKDF2-HMAC iteration count
	DefaultPBKDF2Iterations = 600_000

	// LegacyPBKDF2Iterations is the implicit iteration count of format v1
	// files that carry no explicit value
	LegacyPBKDF2Iterations = 100_000
)

// File format framing
const (
	// HeaderSeparator separates the base64 metadata block from the base64
	// payload block in the on-disk format
	HeaderSeparator = ':'

	// OutputFileMode is the permission mode for written encrypted/decrypted
	// files (owner read/write only)
	OutputFileMode = 0o600
)

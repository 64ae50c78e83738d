// Package sealbox provides password-based file encryption with interchangeable
// cipher suites, including post-quantum hybrid modes.
//
// Every suite is reachable through one uniform pipeline: a layered key
// derivation chain turns a password into a key, an algorithm-specific cipher
// suite encrypts the payload, and a versioned, self-describing metadata header
// is written next to the ciphertext so that old files remain decryptable as the
// format evolves.
//
// # Quick Start
//
// Encrypting and decrypting a file:
//
//	import (
//	    "github.com/sealbox/sealbox/pkg/catalog"
//	    "github.com/sealbox/sealbox/pkg/derive"
//	    "github.com/sealbox/sealbox/pkg/engine"
//	)
//
//	eng := engine.New()
//	err := eng.EncryptFile(ctx, "notes.txt", "notes.txt.sealed",
//	    []byte("correct horse"), catalog.AESGCM, derive.DefaultConfig())
//
//	plaintext, err := eng.DecryptFile(ctx, "notes.txt.sealed", "",
//	    []byte("correct horse"))
//
// In-memory operation without touching the filesystem:
//
//	meta, payload, err := eng.Encrypt(ctx, data, password,
//	    catalog.MLKEM768Hybrid, derive.DefaultConfig())
//	recovered, err := eng.Decrypt(ctx, meta, payload, password)
//
// # Package Structure
//
// The library is organized into several packages:
//
//   - pkg/engine: Top-level encryption/decryption orchestration and file I/O
//   - pkg/catalog: Algorithm registry, nonce policies, capability probing
//   - pkg/derive: Hash chain, KDF chain, and the key derivation pipeline
//   - pkg/suite: Per-family cipher suite implementations (AEAD, SIV, legacy
//     CBC+HMAC, KEM hybrids, signature-derived hybrids)
//   - pkg/header: Versioned metadata codec (format versions 1-5) and migrations
//   - pkg/secure: Secret buffers with guaranteed zeroing, CSPRNG helpers
//   - pkg/observe: Logging and tracing hooks
//   - internal/constants: Sizes, domain separators, and format defaults
//   - internal/errors: Closed error taxonomy shared by all packages
//
// # Security Properties
//
//   - Authenticated encryption for every suite: AEAD tags, encrypt-then-MAC for
//     the legacy Camellia path, and SHA3-256 content hashes over both plaintext
//     and ciphertext
//   - Post-quantum hybrids: ML-KEM and Kyber encapsulated payload keys, plus
//     MAYO signature-key-derived symmetric keys
//   - Derivation fidelity: decryption always replays the exact stored
//     derivation configuration, never process defaults
//   - Secret hygiene: all intermediate key material lives in zeroed-on-exit
//     buffers and comparisons of secret digests are constant time
//   - Oracle resistance: tag mismatches, wrong passwords, and wrong private
//     keys all surface as the same authentication error
//
// # References
//
//   - NIST FIPS 203: Module-Lattice-Based Key-Encapsulation Mechanism Standard
//   - NIST FIPS 202: SHA-3 Standard (SHAKE)
//   - RFC 5297: Synthetic Initialization Vector (SIV) Authenticated Encryption
//   - RFC 7253: The OCB Authenticated-Encryption Algorithm
//   - RFC 9106: Argon2 Memory-Hard Function
package sealbox

// Package catalog is the static registry of cipher suites supported by the
// engine. Every algorithm identifier maps to exactly one Entry describing its
// key length, nonce policy (including legacy fallback sizes), and family.
//
// The nonce policy is an ordered list of (stored, effective) candidates.
// Encryption always writes the first candidate; decryption tries each in
// order until one authenticates, which keeps files written under earlier
// nonce-size conventions decryptable.
package catalog

import (
	"sort"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/kyber/kyber1024"
	"github.com/cloudflare/circl/kem/kyber/kyber512"
	"github.com/cloudflare/circl/kem/kyber/kyber768"
	"github.com/cloudflare/circl/kem/mlkem/mlkem1024"
	"github.com/cloudflare/circl/kem/mlkem/mlkem512"
	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
	"github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/mayo/mode1"
	"github.com/cloudflare/circl/sign/mayo/mode3"
	"github.com/cloudflare/circl/sign/mayo/mode5"

	"github.com/sealbox/sealbox/internal/constants"
	serrors "github.com/sealbox/sealbox/internal/errors"
)

// ID identifies a cipher suite. The string value is stored verbatim in file
// metadata and must never change for an existing algorithm.
type ID string

// Classical suites
const (
	AESGCM            ID = "aes-gcm"
	AESGCMSIV         ID = "aes-gcm-siv"
	AESOCB3           ID = "aes-ocb3"
	AESSIV            ID = "aes-siv"
	ChaCha20Poly1305  ID = "chacha20-poly1305"
	XChaCha20Poly1305 ID = "xchacha20-poly1305"
	Camellia          ID = "camellia"
	Fernet            ID = "fernet"
)

// KEM hybrid suites
const (
	MLKEM512Hybrid   ID = "ml-kem-512-hybrid"
	MLKEM768Hybrid   ID = "ml-kem-768-hybrid"
	MLKEM1024Hybrid  ID = "ml-kem-1024-hybrid"
	MLKEM768ChaCha20 ID = "ml-kem-768-chacha20"
	Kyber512Hybrid   ID = "kyber-512-hybrid"
	Kyber768Hybrid   ID = "kyber-768-hybrid"
	Kyber1024Hybrid  ID = "kyber-1024-hybrid"
	HQC128Hybrid     ID = "hqc-128-hybrid"
	HQC192Hybrid     ID = "hqc-192-hybrid"
	HQC256Hybrid     ID = "hqc-256-hybrid"
)

// Signature-derived hybrid suites
const (
	Mayo1Hybrid    ID = "mayo-1-hybrid"
	Mayo3Hybrid    ID = "mayo-3-hybrid"
	Mayo5Hybrid    ID = "mayo-5-hybrid"
	Cross128Hybrid ID = "cross-128-hybrid"
)

// Family classifies how a suite encrypts its payload.
type Family int

const (
	// FamilyAead covers nonce-based AEAD suites (AES-GCM, AES-GCM-SIV,
	// AES-OCB3, ChaCha20-Poly1305, XChaCha20-Poly1305)
	FamilyAead Family = iota

	// FamilySiv is the deterministic AES-SIV mode; its stored nonce field is
	// format cruft kept for structural uniformity and ignored by the primitive
	FamilySiv

	// FamilyLegacyCbcHmac is CBC with PKCS#7 padding wrapped in
	// encrypt-then-MAC, retained only for decrypting legacy Camellia files
	FamilyLegacyCbcHmac

	// FamilyFernet delegates framing, IV, and MAC to the Fernet token format
	FamilyFernet

	// FamilyKemHybrid encapsulates a fresh payload key under a KEM public key
	FamilyKemHybrid

	// FamilySignatureHybrid derives the payload key from a signature private
	// key via HKDF. This is a deliberate, non-standard construction carried
	// over from the original format; see pkg/suite.
	FamilySignatureHybrid
)

// String returns a human-readable family name.
func (f Family) String() string {
	switch f {
	case FamilyAead:
		return "aead"
	case FamilySiv:
		return "siv"
	case FamilyLegacyCbcHmac:
		return "legacy-cbc-hmac"
	case FamilyFernet:
		return "fernet"
	case FamilyKemHybrid:
		return "kem-hybrid"
	case FamilySignatureHybrid:
		return "signature-hybrid"
	default:
		return "unknown"
	}
}

// KeyEncoding describes the final encoding of the derived key.
type KeyEncoding int

const (
	// KeyEncodingRaw passes the derived bytes to the cipher unchanged
	KeyEncodingRaw KeyEncoding = iota

	// KeyEncodingBase64URL base64url-encodes the derived digest (Fernet keys)
	KeyEncodingBase64URL
)

// NonceSpec is one (stored, effective) nonce size candidate. Stored is the
// number of nonce bytes prefixed to the ciphertext on disk; Effective is the
// number of bytes actually fed to the primitive.
type NonceSpec struct {
	Stored    int
	Effective int
}

// Entry describes one algorithm.
type Entry struct {
	ID          ID
	Family      Family
	KeyLength   int
	KeyEncoding KeyEncoding

	// Nonces is the ordered fallback candidate list. Encryption uses
	// Nonces[0]; decryption tries each in order.
	Nonces []NonceSpec

	// KEM is the encapsulation scheme for FamilyKemHybrid entries. A nil
	// scheme marks an algorithm known to the format but absent from this
	// build (no Go implementation exists).
	KEM kem.Scheme

	// Sig is the signature scheme for FamilySignatureHybrid entries; nil has
	// the same meaning as a nil KEM.
	Sig sign.Scheme

	// Payload names the inner symmetric suite used by hybrid entries.
	Payload ID

	// Deprecated entries decrypt existing files but refuse new encryptions.
	Deprecated bool
}

// Available reports whether this build carries the primitive the entry needs.
func (e Entry) Available() bool {
	switch e.Family {
	case FamilyKemHybrid:
		return e.KEM != nil
	case FamilySignatureHybrid:
		return e.Sig != nil
	default:
		return true
	}
}

// Hybrid reports whether the entry wraps an asymmetric mechanism.
func (e Entry) Hybrid() bool {
	return e.Family == FamilyKemHybrid || e.Family == FamilySignatureHybrid
}

var gcmNonces = []NonceSpec{
	{Stored: constants.GCMNonceSize, Effective: constants.GCMNonceSize},
	{Stored: constants.LegacyGCMNonceSize, Effective: constants.GCMNonceSize},
}

var registry = map[ID]Entry{
	AESGCM: {
		ID: AESGCM, Family: FamilyAead, KeyLength: constants.KeySize,
		Nonces: gcmNonces,
	},
	AESGCMSIV: {
		ID: AESGCMSIV, Family: FamilyAead, KeyLength: constants.KeySize,
		Nonces: []NonceSpec{{Stored: constants.GCMNonceSize, Effective: constants.GCMNonceSize}},
	},
	AESOCB3: {
		ID: AESOCB3, Family: FamilyAead, KeyLength: constants.KeySize,
		Nonces: []NonceSpec{{Stored: constants.GCMNonceSize, Effective: constants.GCMNonceSize}},
	},
	AESSIV: {
		ID: AESSIV, Family: FamilySiv, KeyLength: constants.SIVKeySize,
		Nonces: []NonceSpec{{Stored: constants.SIVNonceSize, Effective: 0}},
	},
	ChaCha20Poly1305: {
		ID: ChaCha20Poly1305, Family: FamilyAead, KeyLength: constants.KeySize,
		Nonces: gcmNonces,
	},
	XChaCha20Poly1305: {
		ID: XChaCha20Poly1305, Family: FamilyAead, KeyLength: constants.KeySize,
		Nonces: []NonceSpec{{Stored: constants.XChaChaNonceSize, Effective: constants.GCMNonceSize}},
	},
	Camellia: {
		ID: Camellia, Family: FamilyLegacyCbcHmac, KeyLength: constants.KeySize,
		Nonces:     []NonceSpec{{Stored: constants.CBCIVSize, Effective: constants.CBCIVSize}},
		Deprecated: true,
	},
	Fernet: {
		ID: Fernet, Family: FamilyFernet, KeyLength: constants.KeySize,
		KeyEncoding: KeyEncodingBase64URL,
		Nonces:      []NonceSpec{{Stored: 0, Effective: 0}},
	},

	MLKEM512Hybrid:   kemEntry(MLKEM512Hybrid, mlkem512.Scheme(), AESGCM),
	MLKEM768Hybrid:   kemEntry(MLKEM768Hybrid, mlkem768.Scheme(), AESGCM),
	MLKEM1024Hybrid:  kemEntry(MLKEM1024Hybrid, mlkem1024.Scheme(), AESGCM),
	MLKEM768ChaCha20: kemEntry(MLKEM768ChaCha20, mlkem768.Scheme(), ChaCha20Poly1305),
	Kyber512Hybrid:   kemEntry(Kyber512Hybrid, kyber512.Scheme(), AESGCM),
	Kyber768Hybrid:   kemEntry(Kyber768Hybrid, kyber768.Scheme(), AESGCM),
	Kyber1024Hybrid:  kemEntry(Kyber1024Hybrid, kyber1024.Scheme(), AESGCM),

	// HQC has no Go implementation; the identifiers stay registered so files
	// naming them fail closed with ErrAlgorithmUnavailable instead of
	// ErrUnknownAlgorithm.
	HQC128Hybrid: kemEntry(HQC128Hybrid, nil, AESGCM),
	HQC192Hybrid: kemEntry(HQC192Hybrid, nil, AESGCM),
	HQC256Hybrid: kemEntry(HQC256Hybrid, nil, AESGCM),

	Mayo1Hybrid: sigEntry(Mayo1Hybrid, mode1.Scheme()),
	Mayo3Hybrid: sigEntry(Mayo3Hybrid, mode3.Scheme()),
	Mayo5Hybrid: sigEntry(Mayo5Hybrid, mode5.Scheme()),

	// CROSS has no Go implementation either; same fail-closed treatment.
	Cross128Hybrid: sigEntry(Cross128Hybrid, nil),
}

func kemEntry(id ID, scheme kem.Scheme, payload ID) Entry {
	// Both hybrid payload ciphers (AES-GCM and ChaCha20-Poly1305) use 96-bit
	// nonces with the 16-byte legacy fallback, so they share one candidate
	// list.
	return Entry{
		ID: id, Family: FamilyKemHybrid, KeyLength: constants.KeySize,
		Nonces: gcmNonces, KEM: scheme, Payload: payload,
	}
}

func sigEntry(id ID, scheme sign.Scheme) Entry {
	return Entry{
		ID: id, Family: FamilySignatureHybrid, KeyLength: constants.KeySize,
		Nonces: gcmNonces, Sig: scheme, Payload: AESGCM,
	}
}

// Lookup returns the catalog entry for id. Unrecognized identifiers fail with
// ErrUnknownAlgorithm; callers must additionally check Available before use.
func Lookup(id ID) (Entry, error) {
	e, ok := registry[id]
	if !ok {
		return Entry{}, serrors.ErrUnknownAlgorithm
	}
	return e, nil
}

// List returns all registered identifiers in lexical order, including
// deprecated and unavailable ones. Intended for UX-layer enumeration, never
// for trust decisions.
func List() []ID {
	ids := make([]ID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ListAvailable returns the identifiers usable for new encryptions in this
// build: available and not deprecated.
func ListAvailable() []ID {
	var ids []ID
	for _, id := range List() {
		e := registry[id]
		if e.Available() && !e.Deprecated {
			ids = append(ids, id)
		}
	}
	return ids
}

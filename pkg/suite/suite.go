// Package suite implements per-algorithm encrypt/decrypt operations behind a
// single interface. Families:
//
//   - AEAD: nonce-prefixed Seal/Open with an ordered nonce-size fallback list
//     for decryption
//   - SIV: deterministic AES-SIV; a random nonce field is stored for format
//     uniformity but ignored by the primitive
//   - Legacy CBC+HMAC: Camellia-CBC with PKCS#7 padding in an encrypt-then-MAC
//     construction, kept only to decrypt old files
//   - Fernet: token format carrying its own IV and MAC
//   - KEM hybrid: ML-KEM/Kyber encapsulate a fresh payload key; the KEM
//     ciphertext is prefixed to the AEAD payload
//   - Signature hybrid: MAYO private key run through HKDF-SHA256 yields the
//     AES-GCM payload key
//
// Failure semantics: tag or MAC mismatches surface as AuthenticationError;
// structural failures (truncation, bad framing) as DecryptionError. Callers
// above the engine boundary only ever see those closed kinds.
package suite

import (
	serrors "github.com/sealbox/sealbox/internal/errors"
	"github.com/sealbox/sealbox/pkg/catalog"
	"github.com/sealbox/sealbox/pkg/secure"
)

// EncryptRequest carries the inputs of one encryption operation.
type EncryptRequest struct {
	// Key is the derived key, sized per the catalog entry. The suite borrows
	// it; the caller wipes it.
	Key *secure.Buffer

	// Plaintext to encrypt. May be empty.
	Plaintext []byte

	// PublicKey optionally supplies an existing KEM public key for hybrid
	// suites. When nil, hybrid suites generate a fresh key pair.
	PublicKey []byte
}

// EncryptResult carries the outputs of one encryption operation.
type EncryptResult struct {
	// Payload is the algorithm-specific ciphertext, nonce/IV-prefixed where
	// applicable. For hybrid suites the KEM ciphertext precedes the nonce.
	Payload []byte

	// PublicKey is the key pair's public half (hybrid suites only).
	PublicKey []byte

	// PrivateKey is the raw private half when a fresh key pair was generated
	// (hybrid suites only). It is secret: the caller must wrap or persist it
	// and wipe it immediately.
	PrivateKey []byte
}

// DecryptRequest carries the inputs of one decryption operation.
type DecryptRequest struct {
	// Key is the derived key. For KEM hybrids it is unused by the suite
	// itself (it protects the embedded private key at the engine layer).
	Key *secure.Buffer

	// Payload is the stored ciphertext.
	Payload []byte

	// PrivateKey is the unwrapped hybrid private key, when required.
	PrivateKey []byte
}

// Suite is one algorithm's encrypt/decrypt implementation.
type Suite interface {
	// Entry returns the catalog entry this suite implements.
	Entry() catalog.Entry

	// Encrypt encrypts req.Plaintext under req.Key.
	Encrypt(req EncryptRequest) (*EncryptResult, error)

	// Decrypt recovers the plaintext, trying each nonce-size fallback
	// candidate in catalog order until one authenticates.
	Decrypt(req DecryptRequest) ([]byte, error)
}

// ForAlgorithm returns the suite implementing id.
func ForAlgorithm(id catalog.ID) (Suite, error) {
	entry, err := catalog.Lookup(id)
	if err != nil {
		return nil, serrors.NewValidationError("ForAlgorithm", err)
	}
	if !entry.Available() {
		return nil, serrors.NewValidationError("ForAlgorithm", serrors.ErrAlgorithmUnavailable)
	}

	switch entry.Family {
	case catalog.FamilyAead:
		return newAEADSuite(entry)
	case catalog.FamilySiv:
		return &sivSuite{entry: entry}, nil
	case catalog.FamilyLegacyCbcHmac:
		return &camelliaSuite{entry: entry}, nil
	case catalog.FamilyFernet:
		return &fernetSuite{entry: entry}, nil
	case catalog.FamilyKemHybrid:
		inner, err := catalog.Lookup(entry.Payload)
		if err != nil {
			return nil, serrors.NewValidationError("ForAlgorithm", err)
		}
		payload, err := newAEADSuite(inner)
		if err != nil {
			return nil, err
		}
		return &kemSuite{entry: entry, payload: payload}, nil
	case catalog.FamilySignatureHybrid:
		inner, err := catalog.Lookup(entry.Payload)
		if err != nil {
			return nil, serrors.NewValidationError("ForAlgorithm", err)
		}
		payload, err := newAEADSuite(inner)
		if err != nil {
			return nil, err
		}
		return &sigSuite{entry: entry, payload: payload}, nil
	default:
		return nil, serrors.NewValidationError("ForAlgorithm", serrors.ErrUnknownAlgorithm)
	}
}

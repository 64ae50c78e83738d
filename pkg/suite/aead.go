package suite

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"io"

	siv "github.com/secure-io/siv-go"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/sealbox/sealbox/internal/constants"
	serrors "github.com/sealbox/sealbox/internal/errors"
	"github.com/sealbox/sealbox/pkg/catalog"
	"github.com/sealbox/sealbox/pkg/secure"
)

// aeadSuite implements every nonce-based AEAD algorithm. The stored nonce is
// prefixed to the ciphertext; the effective nonce handed to the primitive is
// derived from it per the catalog's (stored, effective) candidate.
type aeadSuite struct {
	entry   catalog.Entry
	newAEAD func(key []byte) (cipher.AEAD, error)
}

func newAEADSuite(entry catalog.Entry) (*aeadSuite, error) {
	var ctor func(key []byte) (cipher.AEAD, error)
	switch entry.ID {
	case catalog.AESGCM:
		ctor = newGCM
	case catalog.AESGCMSIV:
		ctor = siv.NewGCM
	case catalog.AESOCB3:
		ctor = newOCB3
	case catalog.ChaCha20Poly1305, catalog.XChaCha20Poly1305:
		// XChaCha stores a 24-byte nonce but feeds a derived 96-bit nonce to
		// the ChaCha20-Poly1305 primitive, so both use the same constructor.
		ctor = chacha20poly1305.New
	default:
		return nil, serrors.NewValidationError("newAEADSuite", serrors.ErrUnknownAlgorithm)
	}
	return &aeadSuite{entry: entry, newAEAD: ctor}, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (s *aeadSuite) Entry() catalog.Entry { return s.entry }

func (s *aeadSuite) Encrypt(req EncryptRequest) (*EncryptResult, error) {
	if req.Key.Len() != s.entry.KeyLength {
		return nil, serrors.NewEncryptionError(string(s.entry.ID), serrors.ErrInvalidKeySize)
	}

	aead, err := s.newAEAD(req.Key.Bytes())
	if err != nil {
		return nil, serrors.NewEncryptionError(string(s.entry.ID), err)
	}

	spec := s.entry.Nonces[0]
	stored, err := secure.RandomBytes(spec.Stored)
	if err != nil {
		return nil, serrors.NewEncryptionError(string(s.entry.ID), err)
	}
	effective, err := s.effectiveNonce(stored, spec)
	if err != nil {
		return nil, serrors.NewEncryptionError(string(s.entry.ID), err)
	}

	payload := make([]byte, spec.Stored, spec.Stored+len(req.Plaintext)+aead.Overhead())
	copy(payload, stored)
	payload = aead.Seal(payload, effective, req.Plaintext, nil)

	return &EncryptResult{Payload: payload}, nil
}

func (s *aeadSuite) Decrypt(req DecryptRequest) ([]byte, error) {
	if req.Key.Len() != s.entry.KeyLength {
		return nil, serrors.NewDecryptionError(string(s.entry.ID), serrors.ErrInvalidKeySize)
	}

	aead, err := s.newAEAD(req.Key.Bytes())
	if err != nil {
		return nil, serrors.NewDecryptionError(string(s.entry.ID), err)
	}

	// Try each (stored, effective) candidate in order. A candidate that
	// reaches tag verification and fails counts as an authentication failure;
	// only payloads too short for every candidate are structural failures.
	var lastErr error
	authAttempted := false
	for _, spec := range s.entry.Nonces {
		if len(req.Payload) < spec.Stored+aead.Overhead() {
			continue
		}
		stored := req.Payload[:spec.Stored]
		effective, err := s.effectiveNonce(stored, spec)
		if err != nil {
			lastErr = err
			continue
		}
		plaintext, err := aead.Open(nil, effective, req.Payload[spec.Stored:], nil)
		if err == nil {
			return plaintext, nil
		}
		authAttempted = true
		lastErr = err
	}

	if authAttempted {
		return nil, serrors.NewAuthenticationError(string(s.entry.ID), serrors.ErrAuthenticationFailed)
	}
	if lastErr == nil {
		lastErr = serrors.ErrCiphertextTooShort
	}
	return nil, serrors.NewDecryptionError(string(s.entry.ID), lastErr)
}

// effectiveNonce maps a stored nonce to the bytes handed to the primitive.
// Legacy oversized nonces truncate; XChaCha20-Poly1305 derives its 96-bit
// nonce from the stored 24 bytes through a keyed derivation step rather than
// truncation, matching the original format convention.
func (s *aeadSuite) effectiveNonce(stored []byte, spec catalog.NonceSpec) ([]byte, error) {
	if spec.Effective == spec.Stored {
		return stored, nil
	}
	if s.entry.ID == catalog.XChaCha20Poly1305 {
		return deriveXChaChaNonce(stored, spec.Effective)
	}
	return stored[:spec.Effective], nil
}

func deriveXChaChaNonce(stored []byte, n int) ([]byte, error) {
	r := hkdf.New(sha256.New, stored, nil, []byte(constants.XChaChaNonceInfo))
	nonce := make([]byte, n)
	if _, err := io.ReadFull(r, nonce); err != nil {
		return nil, err
	}
	return nonce, nil
}

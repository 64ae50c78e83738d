package suite

import (
	"bytes"
	"crypto/sha256"
	"io"

	"github.com/cloudflare/circl/kem"
	"golang.org/x/crypto/hkdf"

	"github.com/sealbox/sealbox/internal/constants"
	serrors "github.com/sealbox/sealbox/internal/errors"
	"github.com/sealbox/sealbox/pkg/catalog"
	"github.com/sealbox/sealbox/pkg/secure"
)

// kemSuite implements hybrid encryption: a KEM (ML-KEM or Kyber) encapsulates
// a shared secret, HKDF-SHA256 expands it into the payload key, and the inner
// AEAD suite encrypts the plaintext under that key. The wire layout is
//
//	kemCiphertext || noncePrefixedAEADPayload
//
// The kemCiphertext length is fixed by the scheme, so the split is
// unambiguous.
type kemSuite struct {
	entry   catalog.Entry
	payload *aeadSuite
}

func (s *kemSuite) Entry() catalog.Entry { return s.entry }

// payloadKey expands a KEM shared secret into the inner AEAD key. The info
// string binds the key to the outer algorithm so the same shared secret can
// never serve two suites.
func (s *kemSuite) payloadKey(sharedSecret []byte) (*secure.Buffer, error) {
	inner, err := catalog.Lookup(s.entry.Payload)
	if err != nil {
		return nil, err
	}
	r := hkdf.New(sha256.New, sharedSecret, nil, []byte(constants.KEMPayloadInfoPrefix+string(s.entry.ID)))
	key := make([]byte, inner.KeyLength)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return secure.TakeBuffer(key), nil
}

func (s *kemSuite) Encrypt(req EncryptRequest) (*EncryptResult, error) {
	scheme := s.entry.KEM

	var (
		pk      kem.PublicKey
		pkBytes []byte
		skBytes []byte
		err     error
	)
	if req.PublicKey != nil {
		pk, err = scheme.UnmarshalBinaryPublicKey(req.PublicKey)
		if err != nil {
			return nil, serrors.NewEncryptionError(string(s.entry.ID), serrors.ErrInvalidPublicKey)
		}
		pkBytes = req.PublicKey
	} else {
		var sk kem.PrivateKey
		pk, sk, err = scheme.GenerateKeyPair()
		if err != nil {
			return nil, serrors.NewEncryptionError(string(s.entry.ID), err)
		}
		if err := checkKeyPair(scheme, pk, sk); err != nil {
			return nil, serrors.NewEncryptionError(string(s.entry.ID), err)
		}
		pkBytes, err = pk.MarshalBinary()
		if err != nil {
			return nil, serrors.NewEncryptionError(string(s.entry.ID), err)
		}
		skBytes, err = sk.MarshalBinary()
		if err != nil {
			return nil, serrors.NewEncryptionError(string(s.entry.ID), err)
		}
	}

	kemCT, sharedSecret, err := scheme.Encapsulate(pk)
	if err != nil {
		secure.Zeroize(skBytes)
		return nil, serrors.NewEncryptionError(string(s.entry.ID), err)
	}
	defer secure.Zeroize(sharedSecret)

	key, err := s.payloadKey(sharedSecret)
	if err != nil {
		secure.Zeroize(skBytes)
		return nil, serrors.NewEncryptionError(string(s.entry.ID), err)
	}
	defer key.Destroy()

	inner, err := s.payload.Encrypt(EncryptRequest{Key: key, Plaintext: req.Plaintext})
	if err != nil {
		secure.Zeroize(skBytes)
		return nil, err
	}

	payload := make([]byte, 0, len(kemCT)+len(inner.Payload))
	payload = append(payload, kemCT...)
	payload = append(payload, inner.Payload...)

	return &EncryptResult{
		Payload:    payload,
		PublicKey:  pkBytes,
		PrivateKey: skBytes,
	}, nil
}

func (s *kemSuite) Decrypt(req DecryptRequest) ([]byte, error) {
	scheme := s.entry.KEM

	if req.PrivateKey == nil {
		return nil, serrors.NewDecryptionError(string(s.entry.ID), serrors.ErrPrivateKeyRequired)
	}
	sk, err := scheme.UnmarshalBinaryPrivateKey(req.PrivateKey)
	if err != nil {
		return nil, serrors.NewDecryptionError(string(s.entry.ID), serrors.ErrInvalidPrivateKey)
	}

	ctSize := scheme.CiphertextSize()
	if len(req.Payload) < ctSize {
		return nil, serrors.NewDecryptionError(string(s.entry.ID), serrors.ErrCiphertextTooShort)
	}

	sharedSecret, err := scheme.Decapsulate(sk, req.Payload[:ctSize])
	if err != nil {
		return nil, serrors.NewDecryptionError(string(s.entry.ID), err)
	}
	defer secure.Zeroize(sharedSecret)

	key, err := s.payloadKey(sharedSecret)
	if err != nil {
		return nil, serrors.NewDecryptionError(string(s.entry.ID), err)
	}
	defer key.Destroy()

	return s.payload.Decrypt(DecryptRequest{Key: key, Payload: req.Payload[ctSize:]})
}

// checkKeyPair encapsulates against the fresh public key and decapsulates
// with the private key, rejecting the pair if the shared secrets disagree.
// A mismatched pair would produce files nobody can ever decrypt.
func checkKeyPair(scheme kem.Scheme, pk kem.PublicKey, sk kem.PrivateKey) error {
	ct, ssEnc, err := scheme.Encapsulate(pk)
	if err != nil {
		return err
	}
	defer secure.Zeroize(ssEnc)
	ssDec, err := scheme.Decapsulate(sk, ct)
	if err != nil {
		return serrors.ErrKeyPairInconsistent
	}
	defer secure.Zeroize(ssDec)
	if !bytes.Equal(ssEnc, ssDec) {
		return serrors.ErrKeyPairInconsistent
	}
	return nil
}

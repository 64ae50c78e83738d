package suite

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/sealbox/sealbox/internal/constants"
	serrors "github.com/sealbox/sealbox/internal/errors"
	"github.com/sealbox/sealbox/pkg/catalog"
	"github.com/sealbox/sealbox/pkg/secure"
)

// sigSuite implements the signature-derived hybrid modes. A MAYO key pair is
// generated and the payload key is expanded from the private key bytes with
// HKDF-SHA256; the inner AES-GCM suite encrypts under that key. Decryption
// re-derives the same key from the stored private key, so possession of the
// private key is what grants access. The scheme's signing operation itself is
// not used for the payload.
type sigSuite struct {
	entry   catalog.Entry
	payload *aeadSuite
}

func (s *sigSuite) Entry() catalog.Entry { return s.entry }

// keyFromPrivate expands signature private-key bytes into the inner AEAD key.
func (s *sigSuite) keyFromPrivate(skBytes []byte) (*secure.Buffer, error) {
	inner, err := catalog.Lookup(s.entry.Payload)
	if err != nil {
		return nil, err
	}
	r := hkdf.New(sha256.New, skBytes,
		[]byte(constants.SigHybridSalt),
		[]byte(constants.SigHybridInfoPrefix+string(s.entry.ID)))
	key := make([]byte, inner.KeyLength)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return secure.TakeBuffer(key), nil
}

func (s *sigSuite) Encrypt(req EncryptRequest) (*EncryptResult, error) {
	scheme := s.entry.Sig

	pk, sk, err := scheme.GenerateKey()
	if err != nil {
		return nil, serrors.NewEncryptionError(string(s.entry.ID), err)
	}
	pkBytes, err := pk.MarshalBinary()
	if err != nil {
		return nil, serrors.NewEncryptionError(string(s.entry.ID), err)
	}
	skBytes, err := sk.MarshalBinary()
	if err != nil {
		return nil, serrors.NewEncryptionError(string(s.entry.ID), err)
	}

	key, err := s.keyFromPrivate(skBytes)
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

	return &EncryptResult{
		Payload:    inner.Payload,
		PublicKey:  pkBytes,
		PrivateKey: skBytes,
	}, nil
}

func (s *sigSuite) Decrypt(req DecryptRequest) ([]byte, error) {
	scheme := s.entry.Sig

	if req.PrivateKey == nil {
		return nil, serrors.NewDecryptionError(string(s.entry.ID), serrors.ErrPrivateKeyRequired)
	}
	if len(req.PrivateKey) != scheme.PrivateKeySize() {
		return nil, serrors.NewDecryptionError(string(s.entry.ID), serrors.ErrInvalidPrivateKey)
	}

	key, err := s.keyFromPrivate(req.PrivateKey)
	if err != nil {
		return nil, serrors.NewDecryptionError(string(s.entry.ID), err)
	}
	defer key.Destroy()

	return s.payload.Decrypt(DecryptRequest{Key: key, Payload: req.Payload})
}

package suite

import (
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"io"

	"github.com/aead/camellia"
	"golang.org/x/crypto/hkdf"

	"github.com/sealbox/sealbox/internal/constants"
	serrors "github.com/sealbox/sealbox/internal/errors"
	"github.com/sealbox/sealbox/pkg/catalog"
	"github.com/sealbox/sealbox/pkg/secure"
)

// camelliaSuite is the legacy Camellia-256-CBC suite, wrapped in
// encrypt-then-MAC with an HMAC-SHA256 tag over IV || ciphertext. It exists
// so files written by old versions keep decrypting; new encryptions get a
// deprecation warning from the engine.
//
// Decryption verifies the MAC in constant time before trusting the unpadding
// result, and runs CBC decryption and unpadding regardless of the MAC outcome
// so the two failure paths cost the same.
type camelliaSuite struct {
	entry catalog.Entry
}

func (s *camelliaSuite) Entry() catalog.Entry { return s.entry }

// macKey derives the HMAC key from the CBC key so the two purposes never
// share key material.
func macKey(key []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, key, nil, []byte(constants.CamelliaMACInfo))
	mk := make([]byte, 32)
	if _, err := io.ReadFull(r, mk); err != nil {
		return nil, err
	}
	return mk, nil
}

func (s *camelliaSuite) Encrypt(req EncryptRequest) (*EncryptResult, error) {
	if req.Key.Len() != s.entry.KeyLength {
		return nil, serrors.NewEncryptionError(string(s.entry.ID), serrors.ErrInvalidKeySize)
	}

	block, err := camellia.NewCipher(req.Key.Bytes())
	if err != nil {
		return nil, serrors.NewEncryptionError(string(s.entry.ID), err)
	}

	iv, err := secure.RandomBytes(constants.CBCIVSize)
	if err != nil {
		return nil, serrors.NewEncryptionError(string(s.entry.ID), err)
	}

	padded := padPKCS7(req.Plaintext, block.BlockSize())
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)
	secure.Zeroize(padded)

	mk, err := macKey(req.Key.Bytes())
	if err != nil {
		return nil, serrors.NewEncryptionError(string(s.entry.ID), err)
	}
	defer secure.Zeroize(mk)

	mac := hmac.New(sha256.New, mk)
	mac.Write(iv)
	mac.Write(ct)
	tag := mac.Sum(nil)

	payload := make([]byte, 0, len(iv)+len(ct)+len(tag))
	payload = append(payload, iv...)
	payload = append(payload, ct...)
	payload = append(payload, tag...)
	return &EncryptResult{Payload: payload}, nil
}

func (s *camelliaSuite) Decrypt(req DecryptRequest) ([]byte, error) {
	if req.Key.Len() != s.entry.KeyLength {
		return nil, serrors.NewDecryptionError(string(s.entry.ID), serrors.ErrInvalidKeySize)
	}

	minLen := constants.CBCIVSize + camellia.BlockSize + constants.HMACSize
	if len(req.Payload) < minLen {
		return nil, serrors.NewDecryptionError(string(s.entry.ID), serrors.ErrCiphertextTooShort)
	}

	iv := req.Payload[:constants.CBCIVSize]
	tag := req.Payload[len(req.Payload)-constants.HMACSize:]
	ct := req.Payload[constants.CBCIVSize : len(req.Payload)-constants.HMACSize]
	if len(ct)%camellia.BlockSize != 0 {
		return nil, serrors.NewDecryptionError(string(s.entry.ID), serrors.ErrCiphertextTooShort)
	}

	mk, err := macKey(req.Key.Bytes())
	if err != nil {
		return nil, serrors.NewDecryptionError(string(s.entry.ID), err)
	}
	defer secure.Zeroize(mk)

	mac := hmac.New(sha256.New, mk)
	mac.Write(iv)
	mac.Write(ct)
	macOK := hmac.Equal(tag, mac.Sum(nil))

	block, err := camellia.NewCipher(req.Key.Bytes())
	if err != nil {
		return nil, serrors.NewDecryptionError(string(s.entry.ID), err)
	}

	// Decrypt and unpad unconditionally so a MAC failure and a padding
	// failure take the same path.
	padded := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ct)
	plaintext, padOK := unpadPKCS7(padded, block.BlockSize())

	if !macOK {
		secure.Zeroize(padded)
		return nil, serrors.NewAuthenticationError(string(s.entry.ID), serrors.ErrAuthenticationFailed)
	}
	if !padOK {
		secure.Zeroize(padded)
		return nil, serrors.NewDecryptionError(string(s.entry.ID), serrors.ErrCiphertextTooShort)
	}
	out := make([]byte, len(plaintext))
	copy(out, plaintext)
	secure.Zeroize(padded)
	return out, nil
}

func padPKCS7(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+n)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

// unpadPKCS7 strips padding without branching on individual byte values
// until the final validity decision.
func unpadPKCS7(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, false
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, false
	}
	valid := byte(1)
	for i := len(data) - n; i < len(data); i++ {
		if data[i] != byte(n) {
			valid = 0
		}
	}
	if valid == 0 {
		return nil, false
	}
	return data[:len(data)-n], true
}

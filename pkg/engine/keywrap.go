package engine

import (
	"crypto/aes"
	"crypto/cipher"

	"golang.org/x/crypto/sha3"

	"github.com/sealbox/sealbox/internal/constants"
	serrors "github.com/sealbox/sealbox/internal/errors"
	"github.com/sealbox/sealbox/pkg/secure"
)

// wrapKeyFor derives the AES-GCM key protecting an embedded private key:
// SHA3-256(derived_key || key_salt). The salt keeps the wrap key distinct
// from the payload key even for suites whose payload key is the derived key
// itself.
func wrapKeyFor(derived *secure.Buffer, keySalt []byte) (cipher.AEAD, error) {
	h := sha3.New256()
	h.Write(derived.Bytes())
	h.Write(keySalt)
	wrapKey := h.Sum(nil)
	defer secure.Zeroize(wrapKey)

	block, err := aes.NewCipher(wrapKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// wrapPrivateKey encrypts a hybrid private key for embedding in metadata.
// Returns the nonce||ciphertext blob and the fresh key salt.
func wrapPrivateKey(privateKey []byte, derived *secure.Buffer) ([]byte, []byte, error) {
	keySalt, err := secure.RandomBytes(constants.PrivateKeySaltSize)
	if err != nil {
		return nil, nil, serrors.NewEncryptionError("wrapPrivateKey", err)
	}

	aead, err := wrapKeyFor(derived, keySalt)
	if err != nil {
		return nil, nil, serrors.NewEncryptionError("wrapPrivateKey", err)
	}

	nonce, err := secure.RandomBytes(aead.NonceSize())
	if err != nil {
		return nil, nil, serrors.NewEncryptionError("wrapPrivateKey", err)
	}

	out := make([]byte, len(nonce), len(nonce)+len(privateKey)+aead.Overhead())
	copy(out, nonce)
	out = aead.Seal(out, nonce, privateKey, nil)
	return out, keySalt, nil
}

// unwrapPrivateKey reverses wrapPrivateKey. A wrong password produces the
// same AuthenticationError as a payload tag failure.
func unwrapPrivateKey(wrapped, keySalt []byte, derived *secure.Buffer) ([]byte, error) {
	aead, err := wrapKeyFor(derived, keySalt)
	if err != nil {
		return nil, serrors.NewDecryptionError("unwrapPrivateKey", err)
	}
	if len(wrapped) < aead.NonceSize()+aead.Overhead() {
		return nil, serrors.NewDecryptionError("unwrapPrivateKey", serrors.ErrCiphertextTooShort)
	}

	nonce := wrapped[:aead.NonceSize()]
	privateKey, err := aead.Open(nil, nonce, wrapped[aead.NonceSize():], nil)
	if err != nil {
		return nil, serrors.NewAuthenticationError("unwrapPrivateKey", serrors.ErrAuthenticationFailed)
	}
	return privateKey, nil
}

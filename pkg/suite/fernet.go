package suite

import (
	"github.com/fernet/fernet-go"

	serrors "github.com/sealbox/sealbox/internal/errors"
	"github.com/sealbox/sealbox/pkg/catalog"
)

// fernetSuite wraps the Fernet token format. The token carries its own IV,
// timestamp and HMAC, so no nonce is stored alongside it. The key arrives
// already encoded as a 44-character urlsafe-base64 string; the derivation
// pipeline produces that encoding for this algorithm.
type fernetSuite struct {
	entry catalog.Entry
}

func (s *fernetSuite) Entry() catalog.Entry { return s.entry }

func (s *fernetSuite) key(raw []byte) (*fernet.Key, error) {
	return fernet.DecodeKey(string(raw))
}

func (s *fernetSuite) Encrypt(req EncryptRequest) (*EncryptResult, error) {
	key, err := s.key(req.Key.Bytes())
	if err != nil {
		return nil, serrors.NewEncryptionError(string(s.entry.ID), serrors.ErrInvalidKeySize)
	}

	tok, err := fernet.EncryptAndSign(req.Plaintext, key)
	if err != nil {
		return nil, serrors.NewEncryptionError(string(s.entry.ID), err)
	}
	return &EncryptResult{Payload: tok}, nil
}

func (s *fernetSuite) Decrypt(req DecryptRequest) ([]byte, error) {
	key, err := s.key(req.Key.Bytes())
	if err != nil {
		return nil, serrors.NewDecryptionError(string(s.entry.ID), serrors.ErrInvalidKeySize)
	}

	// TTL 0 disables expiry; stored files have no freshness requirement.
	plaintext := fernet.VerifyAndDecrypt(req.Payload, 0, []*fernet.Key{key})
	if plaintext == nil {
		return nil, serrors.NewAuthenticationError(string(s.entry.ID), serrors.ErrAuthenticationFailed)
	}
	return plaintext, nil
}

// Package engine ties the derivation pipeline, cipher suites and metadata
// codec into the two top-level operations: encrypt bytes into a
// (metadata, payload) pair and decrypt such a pair back into plaintext.
//
// Error guarantee at this boundary: every returned error is one of the five
// kinds in internal/errors, with a fixed message. Tag mismatches, wrong
// passwords, wrong private keys and content-hash mismatches all surface as
// AuthenticationError so the error cannot be used as an oracle to tell the
// cases apart.
package engine

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/sha3"

	"github.com/sealbox/sealbox/internal/constants"
	serrors "github.com/sealbox/sealbox/internal/errors"
	"github.com/sealbox/sealbox/pkg/catalog"
	"github.com/sealbox/sealbox/pkg/derive"
	"github.com/sealbox/sealbox/pkg/header"
	"github.com/sealbox/sealbox/pkg/observe"
	"github.com/sealbox/sealbox/pkg/secure"
	"github.com/sealbox/sealbox/pkg/suite"
)

// Engine performs encryption and decryption operations. The zero value is not
// usable; construct with New.
type Engine struct {
	pipeline *derive.Pipeline
	log      *logrus.Entry
	tracer   observe.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger overrides the engine's log entry.
func WithLogger(log *logrus.Entry) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithTracer installs a tracer; the default records nothing.
func WithTracer(t observe.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithCapabilities overrides the capability set handed to the derivation
// pipeline, primarily for tests simulating hosts without optional primitives.
func WithCapabilities(caps catalog.Capabilities) Option {
	return func(e *Engine) {
		e.pipeline = derive.NewPipeline(derive.WithCapabilities(caps))
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		pipeline: derive.NewPipeline(),
		log:      observe.Component("engine"),
		tracer:   observe.NoopTracer{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EncryptOption configures one Encrypt call.
type EncryptOption func(*encryptParams)

type encryptParams struct {
	publicKey []byte
}

// WithPublicKey supplies an existing hybrid public key. No private key is
// generated or embedded; the matching private key must be supplied at
// decryption time with WithPrivateKey.
func WithPublicKey(pk []byte) EncryptOption {
	return func(p *encryptParams) {
		p.publicKey = pk
	}
}

// DecryptOption configures one Decrypt call.
type DecryptOption func(*decryptParams)

type decryptParams struct {
	privateKey []byte
}

// WithPrivateKey supplies an external hybrid private key, overriding any key
// embedded in the metadata.
func WithPrivateKey(sk []byte) DecryptOption {
	return func(p *decryptParams) {
		p.privateKey = sk
	}
}

// Encrypt derives a key from password under cfg and encrypts plaintext with
// the named algorithm. It returns the metadata record and the raw payload;
// the caller frames them with header.EncodeFile for persistence.
//
// Freshly generated hybrid private keys are encrypted under a key derived
// from the password and embedded in the metadata. All intermediate secrets
// are wiped before return.
func (e *Engine) Encrypt(ctx context.Context, plaintext, password []byte, alg catalog.ID, cfg derive.Config, opts ...EncryptOption) (*header.Metadata, []byte, error) {
	_, end := e.tracer.StartSpan(ctx, observe.SpanEncrypt, observe.AttrAlgorithm(string(alg)))
	m, payload, err := e.encrypt(plaintext, password, alg, cfg, opts...)
	end(err)
	return m, payload, err
}

func (e *Engine) encrypt(plaintext, password []byte, alg catalog.ID, cfg derive.Config, opts ...EncryptOption) (*header.Metadata, []byte, error) {
	var params encryptParams
	for _, opt := range opts {
		opt(&params)
	}

	entry, err := catalog.Lookup(alg)
	if err != nil {
		return nil, nil, serrors.NewValidationError("Encrypt", err)
	}
	if !entry.Available() {
		return nil, nil, serrors.NewValidationError("Encrypt", serrors.ErrAlgorithmUnavailable)
	}
	if entry.Deprecated {
		return nil, nil, serrors.NewValidationError("Encrypt", serrors.ErrAlgorithmDeprecated)
	}

	salt, err := secure.RandomBytes(constants.SaltSize)
	if err != nil {
		return nil, nil, serrors.NewEncryptionError("Encrypt", err)
	}

	key, outcome, err := e.pipeline.Derive(password, salt, cfg, alg)
	if err != nil {
		return nil, nil, err
	}
	defer key.Destroy()
	e.logWarnings(alg, outcome.Warnings)

	s, err := suite.ForAlgorithm(alg)
	if err != nil {
		return nil, nil, err
	}

	originalHash := sha3.Sum256(plaintext)

	res, err := s.Encrypt(suite.EncryptRequest{
		Key:       key,
		Plaintext: plaintext,
		PublicKey: params.publicKey,
	})
	if err != nil {
		return nil, nil, err
	}
	defer secure.Zeroize(res.PrivateKey)

	encryptedHash := sha3.Sum256(res.Payload)

	enc := header.Encryption{
		Algorithm:      string(alg),
		EncryptionData: encryptionData(entry),
		PublicKey:      res.PublicKey,
	}
	if res.PrivateKey != nil {
		wrapped, keySalt, err := wrapPrivateKey(res.PrivateKey, key)
		if err != nil {
			return nil, nil, err
		}
		enc.PrivateKey = wrapped
		enc.PrivateKeySalt = keySalt
		enc.KeyStored = true
		enc.KeyEncrypted = true
	}

	m := &header.Metadata{
		FormatVersion: constants.FormatVersionCurrent,
		Derivation: header.Derivation{
			Salt: salt,
			Hash: cfg.Hash,
			KDF:  cfg.KDF,
		},
		Hashes: header.Hashes{
			OriginalHash:  originalHash[:],
			EncryptedHash: encryptedHash[:],
		},
		Encryption: enc,
	}
	return m, res.Payload, nil
}

// Decrypt recovers the plaintext from a decoded metadata record and its
// payload. The stored derivation configuration is replayed verbatim; runtime
// defaults never participate.
func (e *Engine) Decrypt(ctx context.Context, m *header.Metadata, payload, password []byte, opts ...DecryptOption) ([]byte, error) {
	_, end := e.tracer.StartSpan(ctx, observe.SpanDecrypt, observe.AttrAlgorithm(m.Encryption.Algorithm))
	plaintext, err := e.decrypt(m, payload, password, opts...)
	end(err)
	return plaintext, err
}

func (e *Engine) decrypt(m *header.Metadata, payload, password []byte, opts ...DecryptOption) ([]byte, error) {
	var params decryptParams
	for _, opt := range opts {
		opt(&params)
	}

	alg := m.Algorithm()
	entry, err := catalog.Lookup(alg)
	if err != nil {
		return nil, serrors.NewValidationError("Decrypt", err)
	}
	if !entry.Available() {
		return nil, serrors.NewValidationError("Decrypt", serrors.ErrAlgorithmUnavailable)
	}

	// Integrity of the stored ciphertext is checked before any key work so
	// tampered files fail fast and identically. The nested generations always
	// wrote the hash; a v4+ header without it has been stripped.
	if len(m.Hashes.EncryptedHash) == 0 {
		if m.FormatVersion >= constants.FormatVersionV4 {
			return nil, serrors.NewValidationError("Decrypt", serrors.ErrInvalidFormat)
		}
	} else {
		sum := sha3.Sum256(payload)
		if !secure.ConstantTimeCompare(sum[:], m.Hashes.EncryptedHash) {
			return nil, serrors.NewAuthenticationError("Decrypt", serrors.ErrIntegrityCheckFailed)
		}
	}

	key, outcome, err := e.pipeline.Derive(password, m.Derivation.Salt, m.DeriveConfig(), alg)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()
	e.logWarnings(alg, outcome.Warnings)

	privateKey := params.privateKey
	var unwrapped []byte
	if privateKey == nil && entry.Hybrid() && m.Encryption.KeyStored {
		unwrapped, err = e.embeddedPrivateKey(m, key)
		if err != nil {
			return nil, err
		}
		privateKey = unwrapped
	}
	defer secure.Zeroize(unwrapped)

	s, err := suite.ForAlgorithm(alg)
	if err != nil {
		return nil, err
	}
	plaintext, err := s.Decrypt(suite.DecryptRequest{
		Key:        key,
		Payload:    payload,
		PrivateKey: privateKey,
	})
	if err != nil {
		return nil, err
	}

	if len(m.Hashes.OriginalHash) > 0 {
		sum := sha3.Sum256(plaintext)
		if !secure.ConstantTimeCompare(sum[:], m.Hashes.OriginalHash) {
			secure.Zeroize(plaintext)
			return nil, serrors.NewAuthenticationError("Decrypt", serrors.ErrIntegrityCheckFailed)
		}
	}
	return plaintext, nil
}

// embeddedPrivateKey recovers the hybrid private key stored in the metadata.
// Legacy v3 files could embed the key unencrypted; that path still reads but
// is flagged in the log.
func (e *Engine) embeddedPrivateKey(m *header.Metadata, key *secure.Buffer) ([]byte, error) {
	if !m.Encryption.KeyEncrypted {
		e.log.WithField("algorithm", m.Encryption.Algorithm).
			Warn("metadata embeds an unencrypted private key; re-encrypt this file")
		out := make([]byte, len(m.Encryption.PrivateKey))
		copy(out, m.Encryption.PrivateKey)
		return out, nil
	}
	return unwrapPrivateKey(m.Encryption.PrivateKey, m.Encryption.PrivateKeySalt, key)
}

// encryptionData names the symmetric cipher doing the payload work: the
// hybrid payload cipher, or the algorithm itself.
func encryptionData(entry catalog.Entry) string {
	if entry.Hybrid() {
		return string(entry.Payload)
	}
	return string(entry.ID)
}

func (e *Engine) logWarnings(alg catalog.ID, warnings []string) {
	for _, w := range warnings {
		e.log.WithField("algorithm", string(alg)).Warn(w)
	}
}

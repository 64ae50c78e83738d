package derive

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"

	"github.com/sirupsen/logrus"

	serrors "github.com/sealbox/sealbox/internal/errors"
	"github.com/sealbox/sealbox/pkg/catalog"
	"github.com/sealbox/sealbox/pkg/observe"
	"github.com/sealbox/sealbox/pkg/secure"
)

// Outcome reports what the pipeline actually did. It replaces shared mutable
// "was stretching applied" state with an explicit value threaded back to the
// caller.
type Outcome struct {
	// HashApplied is true if at least one hash chain round ran
	HashApplied bool

	// KDFApplied is true if at least one KDF stage succeeded
	KDFApplied bool

	// Warnings records non-fatal substitutions and fallbacks (unavailable
	// primitive, variant downgrade, skipped KDF stage)
	Warnings []string
}

// Stretched reports whether any stretching stage ran at all.
func (o Outcome) Stretched() bool {
	return o.HashApplied || o.KDFApplied
}

func (o *Outcome) warnf(format string, args ...interface{}) {
	o.Warnings = append(o.Warnings, fmt.Sprintf(format, args...))
}

// Pipeline turns (password, salt, configuration) into a usable key for a
// given algorithm. It is the single entry point for key derivation; cipher
// suites never touch passwords directly.
type Pipeline struct {
	caps catalog.Capabilities
	log  *logrus.Entry
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithCapabilities overrides the process capability set, primarily so tests
// can simulate hosts missing an optional primitive.
func WithCapabilities(caps catalog.Capabilities) PipelineOption {
	return func(p *Pipeline) {
		p.caps = caps
	}
}

// WithLogger overrides the pipeline's log entry.
func WithLogger(log *logrus.Entry) PipelineOption {
	return func(p *Pipeline) {
		p.log = log
	}
}

// NewPipeline creates a derivation pipeline with the process capability set.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		caps: catalog.Detect(),
		log:  observe.Component("derive"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Derive runs HashChain -> KDFChain -> final normalization and returns the
// key sized and encoded for the algorithm. All intermediate buffers are wiped
// before return on every path; the returned buffer is owned by the caller.
//
// Invariant: even if no hash round and no KDF stage ran, the final
// normalization hashes the running buffer once. A password is never used raw
// as key material.
func (p *Pipeline) Derive(password, salt []byte, cfg Config, algorithm catalog.ID) (*secure.Buffer, Outcome, error) {
	var out Outcome

	entry, err := catalog.Lookup(algorithm)
	if err != nil {
		return nil, out, serrors.NewValidationError("Derive", err)
	}
	if len(salt) == 0 {
		return nil, out, serrors.NewValidationError("Derive", serrors.ErrDerivationFailed)
	}
	if err := cfg.Validate(); err != nil {
		return nil, out, err
	}

	// Seed the chain with password || salt.
	running := secure.NewBuffer(len(password) + len(salt))
	copy(running.Bytes(), password)
	copy(running.Bytes()[len(password):], salt)

	running, err = p.applyHashChain(running, salt, cfg.Hash, &out)
	if err != nil {
		return nil, out, err
	}

	running, err = p.applyKDFChain(running, salt, cfg.KDF, &out)
	if err != nil {
		running.Destroy()
		return nil, out, err
	}

	key := normalizeKey(running, entry, out)
	running.Destroy()
	return key, out, nil
}

// normalizeKey produces the final key for the algorithm:
//
//   - 32-byte suites: the running buffer as-is when stretching already
//     produced exactly 32 bytes, otherwise a single SHA-256 pass
//   - 64-byte suites (AES-SIV): same rule with SHA-512
//   - base64url-encoded suites (Fernet): the 32-byte rule, then base64url
func normalizeKey(running *secure.Buffer, entry catalog.Entry, out Outcome) *secure.Buffer {
	var raw []byte
	switch entry.KeyLength {
	case 64:
		if out.Stretched() && running.Len() == 64 {
			raw, _ = running.Copy()
		} else {
			sum := sha512.Sum512(running.Bytes())
			raw = sum[:]
		}
	default:
		if out.Stretched() && running.Len() == 32 {
			raw, _ = running.Copy()
		} else {
			sum := sha256.Sum256(running.Bytes())
			raw = sum[:]
		}
	}

	if entry.KeyEncoding == catalog.KeyEncodingBase64URL {
		encoded := make([]byte, base64.URLEncoding.EncodedLen(len(raw)))
		base64.URLEncoding.Encode(encoded, raw)
		secure.Zeroize(raw)
		return secure.TakeBuffer(encoded)
	}
	return secure.TakeBuffer(raw)
}

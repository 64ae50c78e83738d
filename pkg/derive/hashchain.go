package derive

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"hash"

	"github.com/jzelinskie/whirlpool"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"

	serrors "github.com/sealbox/sealbox/internal/errors"
	"github.com/sealbox/sealbox/pkg/secure"
)

// applyHashChain runs the configured hash rounds over the running buffer.
// Each round re-hashes the previous round's output. Keyed algorithms
// (BLAKE2b/2s, BLAKE3) and the SHAKE XOFs additionally mix in a per-round
// salt derivative so identical rounds cannot collapse into a fixed point.
//
// The input buffer is consumed: ownership transfers here and the previous
// buffer is wiped as soon as a round replaces it.
func (p *Pipeline) applyHashChain(running *secure.Buffer, salt []byte, cfg HashConfig, out *Outcome) (*secure.Buffer, error) {
	round := 0
	for _, name := range hashChainOrder {
		n := cfg[name]
		if n <= 0 {
			continue
		}
		for i := 0; i < n; i++ {
			next, err := p.hashRound(name, running.Bytes(), salt, round, out)
			if err != nil {
				running.Destroy()
				return nil, err
			}
			running.Destroy()
			running = next
			round++
			out.HashApplied = true
		}
	}
	return running, nil
}

// roundSalt derives the per-round keying/domain-separation input:
// SHA-256(salt || round_index).
func roundSalt(salt []byte, round int) []byte {
	h := sha256.New()
	h.Write(salt)
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], uint32(round))
	h.Write(idx[:])
	return h.Sum(nil)
}

func (p *Pipeline) hashRound(name string, data, salt []byte, round int, out *Outcome) (*secure.Buffer, error) {
	switch name {
	case HashSHA256:
		sum := sha256.Sum256(data)
		return secure.TakeBuffer(sum[:]), nil

	case HashSHA512:
		sum := sha512.Sum512(data)
		return secure.TakeBuffer(sum[:]), nil

	case HashSHA3_256:
		sum := sha3.Sum256(data)
		return secure.TakeBuffer(sum[:]), nil

	case HashSHA3_512:
		sum := sha3.Sum512(data)
		return secure.TakeBuffer(sum[:]), nil

	case HashBLAKE2b:
		key := roundSalt(salt, round)
		defer secure.Zeroize(key)
		h, err := blake2b.New512(key)
		if err != nil {
			return nil, serrors.NewKeyDerivationError("blake2b", err)
		}
		return hashInto(h, data), nil

	case HashBLAKE2s:
		key := roundSalt(salt, round)
		defer secure.Zeroize(key)
		h, err := blake2s.New256(key)
		if err != nil {
			return nil, serrors.NewKeyDerivationError("blake2s", err)
		}
		return hashInto(h, data), nil

	case HashBLAKE3:
		if !p.caps.BLAKE3 {
			out.warnf("blake3 unavailable, substituting sha3-256 for round %d", round)
			p.log.Warn("blake3 unavailable, substituting sha3-256")
			sum := sha3.Sum256(data)
			return secure.TakeBuffer(sum[:]), nil
		}
		key := roundSalt(salt, round)
		defer secure.Zeroize(key)
		h, err := blake3.NewKeyed(key)
		if err != nil {
			return nil, serrors.NewKeyDerivationError("blake3", err)
		}
		return hashInto(h, data), nil

	case HashSHAKE128:
		return shakeRound(sha3.NewShake128(), data, salt, round, 32), nil

	case HashSHAKE256:
		return shakeRound(sha3.NewShake256(), data, salt, round, 64), nil

	case HashWhirlpool:
		if !p.caps.Whirlpool {
			// Surfaced, never silent: the substitution is both logged and
			// reported through the derivation outcome.
			out.warnf("whirlpool unavailable, substituting sha512 for round %d", round)
			p.log.Warn("whirlpool unavailable, substituting sha512")
			sum := sha512.Sum512(data)
			return secure.TakeBuffer(sum[:]), nil
		}
		return hashInto(whirlpool.New(), data), nil

	default:
		return nil, serrors.NewValidationError("hashRound", serrors.ErrDerivationFailed)
	}
}

func hashInto(h hash.Hash, data []byte) *secure.Buffer {
	h.Write(data)
	return secure.TakeBuffer(h.Sum(nil))
}

// shakeRound absorbs the round salt before the data as a domain-separation
// input and squeezes outLen bytes.
func shakeRound(x sha3.ShakeHash, data, salt []byte, round int, outLen int) *secure.Buffer {
	rs := roundSalt(salt, round)
	defer secure.Zeroize(rs)
	x.Write(rs)
	x.Write(data)
	out := make([]byte, outLen)
	x.Read(out)
	return secure.TakeBuffer(out)
}

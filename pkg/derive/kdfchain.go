package derive

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"hash"
	"io"

	"github.com/nogoegst/balloon"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"

	"github.com/sealbox/sealbox/internal/constants"
	serrors "github.com/sealbox/sealbox/internal/errors"
	"github.com/sealbox/sealbox/pkg/secure"
)

// kdfIntermediateLen is the working output length between chain stages. The
// pipeline renormalizes to the algorithm's final key length afterwards.
const kdfIntermediateLen = 32

// applyKDFChain applies the enabled KDF stages in fixed priority order:
// Argon2 -> Balloon -> scrypt -> HKDF -> PBKDF2. Each stage runs its
// configured number of iterations, deriving a fresh salt for every iteration
// after the first so the base salt is never reused.
//
// A stage that fails internally is skipped with a warning and the chain falls
// through to the next stage. The fallback path is a pure function of the
// stored configuration and the capability set, so encryption and decryption
// of the same file always walk the same chain.
func (p *Pipeline) applyKDFChain(running *secure.Buffer, salt []byte, cfg KDFConfig, out *Outcome) (*secure.Buffer, error) {
	type stage struct {
		name    string
		enabled bool
		rounds  int
		apply   func(input, iterSalt []byte) ([]byte, error)
	}

	stages := []stage{
		{"argon2", cfg.Argon2.Enabled, roundsOrDefault(cfg.Argon2.Rounds), func(in, s []byte) ([]byte, error) {
			return p.argon2Step(cfg.Argon2, in, s, out)
		}},
		{"balloon", cfg.Balloon.Enabled, roundsOrDefault(cfg.Balloon.Rounds), func(in, s []byte) ([]byte, error) {
			return p.balloonStep(cfg.Balloon, in, s)
		}},
		{"scrypt", cfg.Scrypt.Enabled, roundsOrDefault(cfg.Scrypt.Rounds), func(in, s []byte) ([]byte, error) {
			return scrypt.Key(in, s, cfg.Scrypt.N, cfg.Scrypt.R, cfg.Scrypt.P, kdfIntermediateLen)
		}},
		{"hkdf", cfg.HKDF.Enabled, roundsOrDefault(cfg.HKDF.Rounds), func(in, s []byte) ([]byte, error) {
			return hkdfStep(cfg.HKDF, in, s)
		}},
		{"pbkdf2", cfg.PBKDF2.Enabled, roundsOrDefault(cfg.PBKDF2.Rounds), func(in, s []byte) ([]byte, error) {
			return pbkdf2Step(cfg.PBKDF2, in, s)
		}},
	}

	for _, st := range stages {
		if !st.enabled {
			continue
		}
		next, err := p.runStage(st.name, st.rounds, st.apply, running, salt)
		if err != nil {
			// Fall through to the next stage in priority order.
			out.warnf("%s failed, falling back to next kdf: %v", st.name, err)
			p.log.WithField("kdf", st.name).Warn("kdf stage failed, falling back")
			continue
		}
		running.Destroy()
		running = next
		out.KDFApplied = true
	}
	return running, nil
}

// runStage executes one KDF stage for its full iteration count. The input
// buffer is left intact so the caller can fall back to the next stage if this
// one fails partway.
func (p *Pipeline) runStage(name string, rounds int, apply func(input, iterSalt []byte) ([]byte, error), running *secure.Buffer, salt []byte) (*secure.Buffer, error) {
	input, err := running.Copy()
	if err != nil {
		return nil, serrors.NewKeyDerivationError(name, err)
	}
	defer func() { secure.Zeroize(input) }()

	for i := 0; i < rounds; i++ {
		iterSalt := IterationSalt(salt, i)
		next, err := apply(input, iterSalt)
		secure.Zeroize(iterSalt)
		if err != nil {
			return nil, err
		}
		secure.Zeroize(input)
		input = next
	}

	return secure.NewBufferFrom(input), nil
}

// IterationSalt derives the salt for iteration i of a KDF stage. Iteration 0
// uses the base salt unchanged; every later iteration uses
// SHA-256(base_salt || i) truncated to 16 bytes, so the base salt is never
// reused across iterations.
func IterationSalt(baseSalt []byte, i int) []byte {
	if i == 0 {
		out := make([]byte, len(baseSalt))
		copy(out, baseSalt)
		return out
	}
	h := sha256.New()
	h.Write(baseSalt)
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], uint32(i))
	h.Write(idx[:])
	sum := h.Sum(nil)
	secure.Zeroize(sum[constants.PerRoundSaltSize:])
	return sum[:constants.PerRoundSaltSize]
}

func (p *Pipeline) argon2Step(params Argon2Params, input, iterSalt []byte, out *Outcome) ([]byte, error) {
	if !p.caps.Argon2 {
		return nil, fmt.Errorf("argon2 unavailable")
	}
	timeCost := params.TimeCost
	if timeCost == 0 {
		timeCost = 1
	}
	memory := params.MemoryCost
	if memory == 0 {
		memory = constants.DefaultArgon2MemoryCost
	}
	threads := params.Parallelism
	if threads == 0 {
		threads = 1
	}
	hashLen := params.HashLen
	if hashLen == 0 {
		hashLen = kdfIntermediateLen
	}

	switch params.Variant {
	case "i":
		return argon2.Key(input, iterSalt, timeCost, memory, threads, hashLen), nil
	case "d":
		if !p.caps.Argon2d {
			out.warnf("argon2d unavailable, using argon2id")
			p.log.Warn("argon2d unavailable, using argon2id")
		}
		return argon2.IDKey(input, iterSalt, timeCost, memory, threads, hashLen), nil
	default: // "id" or unset
		return argon2.IDKey(input, iterSalt, timeCost, memory, threads, hashLen), nil
	}
}

func (p *Pipeline) balloonStep(params BalloonParams, input, iterSalt []byte) ([]byte, error) {
	if !p.caps.Balloon {
		return nil, fmt.Errorf("balloon unavailable")
	}
	sCost := params.SpaceCost
	if sCost == 0 {
		sCost = constants.DefaultBalloonSpaceCost
	}
	tCost := params.TimeCost
	if tCost == 0 {
		tCost = 1
	}
	pCost := params.Parallelism
	if pCost == 0 {
		pCost = 1
	}
	return balloon.BalloonM(sha256.New, input, iterSalt, sCost, tCost, pCost), nil
}

func hkdfStep(params HKDFParams, input, iterSalt []byte) ([]byte, error) {
	r := hkdf.New(kdfHash(params.Hash), input, iterSalt, []byte(params.Info))
	outBytes := make([]byte, kdfIntermediateLen)
	if _, err := io.ReadFull(r, outBytes); err != nil {
		return nil, err
	}
	return outBytes, nil
}

func pbkdf2Step(params PBKDF2Params, input, iterSalt []byte) ([]byte, error) {
	iters := params.Iterations
	if iters <= 0 {
		iters = constants.DefaultPBKDF2Iterations
	}
	return pbkdf2.Key(input, iterSalt, iters, kdfIntermediateLen, kdfHash(params.Hash)), nil
}

func kdfHash(name string) func() hash.Hash {
	if name == HashSHA512 {
		return sha512.New
	}
	return sha256.New
}

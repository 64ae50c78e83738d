// Package derive implements the layered key derivation pipeline: a hash chain
// (SHA-2/3, BLAKE2/3, SHAKE, Whirlpool), a KDF chain (Argon2, Balloon,
// scrypt, HKDF, PBKDF2) applied in fixed priority order, and a final
// per-algorithm key normalization step.
//
// The configuration is data, not behavior: it is copied verbatim into file
// metadata at encryption time and replayed bit-for-bit at decryption time.
// The pipeline never substitutes process defaults for a stored configuration.
package derive

import (
	"fmt"

	"github.com/sealbox/sealbox/internal/constants"
	serrors "github.com/sealbox/sealbox/internal/errors"
)

// Hash algorithm names accepted in a HashConfig. Unknown names are rejected
// at validation time.
const (
	HashSHA256    = "sha256"
	HashSHA512    = "sha512"
	HashSHA3_256  = "sha3-256"
	HashSHA3_512  = "sha3-512"
	HashBLAKE2b   = "blake2b"
	HashBLAKE2s   = "blake2s"
	HashBLAKE3    = "blake3"
	HashSHAKE128  = "shake128"
	HashSHAKE256  = "shake256"
	HashWhirlpool = "whirlpool"
)

// hashChainOrder fixes the application order of configured hash algorithms.
// Map iteration order is not stable in Go, and the chain must be identical
// between encryption and decryption.
var hashChainOrder = []string{
	HashSHA256, HashSHA512, HashSHA3_256, HashSHA3_512,
	HashBLAKE2b, HashBLAKE2s, HashBLAKE3,
	HashSHAKE128, HashSHAKE256, HashWhirlpool,
}

// HashConfig maps a hash algorithm name to its round count. A round count of
// zero (or an absent entry) skips the algorithm.
type HashConfig map[string]int

// Argon2Params configures the Argon2 stage.
type Argon2Params struct {
	Enabled     bool   `json:"enabled"`
	TimeCost    uint32 `json:"time_cost"`
	MemoryCost  uint32 `json:"memory_cost"` // KiB
	Parallelism uint8  `json:"parallelism"`
	HashLen     uint32 `json:"hash_len"`
	Variant     string `json:"variant"` // "d", "i", or "id" (default)
	Rounds      int    `json:"rounds"`
}

// BalloonParams configures the Balloon hashing stage.
type BalloonParams struct {
	Enabled     bool   `json:"enabled"`
	TimeCost    uint64 `json:"time_cost"`
	SpaceCost   uint64 `json:"space_cost"`
	Parallelism uint64 `json:"parallelism"`
	Rounds      int    `json:"rounds"`
}

// ScryptParams configures the scrypt stage. N must be a power of two.
type ScryptParams struct {
	Enabled bool `json:"enabled"`
	N       int  `json:"n"`
	R       int  `json:"r"`
	P       int  `json:"p"`
	Rounds  int  `json:"rounds"`
}

// HKDFParams configures the HKDF stage.
type HKDFParams struct {
	Enabled bool   `json:"enabled"`
	Hash    string `json:"hash"` // "sha256" or "sha512"
	Info    string `json:"info"`
	Rounds  int    `json:"rounds"`
}

// PBKDF2Params configures the PBKDF2 stage.
type PBKDF2Params struct {
	Enabled    bool   `json:"enabled"`
	Iterations int    `json:"iterations"`
	Hash       string `json:"hash"` // "sha256" or "sha512"
	Rounds     int    `json:"rounds"`
}

// KDFConfig holds every KDF stage. Enabled stages run in the fixed priority
// order Argon2 -> Balloon -> scrypt -> HKDF -> PBKDF2 regardless of field
// order here.
type KDFConfig struct {
	Argon2  Argon2Params  `json:"argon2"`
	Balloon BalloonParams `json:"balloon"`
	Scrypt  ScryptParams  `json:"scrypt"`
	HKDF    HKDFParams    `json:"hkdf"`
	PBKDF2  PBKDF2Params  `json:"pbkdf2"`
}

// Config is the full derivation configuration for one file.
type Config struct {
	Hash HashConfig `json:"hash_config"`
	KDF  KDFConfig  `json:"kdf_config"`

	// Stored marks a configuration read back from file metadata. The
	// pipeline treats such configurations as authoritative and never merges
	// defaults into them.
	Stored bool `json:"-"`
}

// DefaultConfig returns the configuration used for new encryptions when the
// caller does not supply one: a single Argon2id pass over one SHA3-512 hash
// round.
func DefaultConfig() Config {
	return Config{
		Hash: HashConfig{HashSHA3_512: 1},
		KDF: KDFConfig{
			Argon2: Argon2Params{
				Enabled:     true,
				TimeCost:    constants.DefaultArgon2TimeCost,
				MemoryCost:  constants.DefaultArgon2MemoryCost,
				Parallelism: constants.DefaultArgon2Parallelism,
				HashLen:     constants.DefaultArgon2HashLen,
				Variant:     "id",
				Rounds:      1,
			},
			Balloon: BalloonParams{
				TimeCost:    constants.DefaultBalloonTimeCost,
				SpaceCost:   constants.DefaultBalloonSpaceCost,
				Parallelism: constants.DefaultBalloonParallelism,
				Rounds:      1,
			},
			Scrypt: ScryptParams{
				N: constants.DefaultScryptN, R: constants.DefaultScryptR, P: constants.DefaultScryptP,
				Rounds: 1,
			},
			HKDF:   HKDFParams{Hash: HashSHA256, Rounds: 1},
			PBKDF2: PBKDF2Params{Iterations: constants.DefaultPBKDF2Iterations, Hash: HashSHA256, Rounds: 1},
		},
	}
}

// MinimalConfig returns a configuration with no hash rounds and no KDF
// stages. The pipeline still normalizes through a single hash pass, so a
// password is never used raw as key material.
func MinimalConfig() Config {
	return Config{Hash: HashConfig{}}
}

// Validate checks structural soundness of the configuration. It does not
// mutate the receiver; unusable-but-well-formed stages (e.g. scrypt with a
// non-power-of-two N) are skipped with a warning at derivation time instead,
// because stored configurations from old files must keep deriving the same
// key they always did.
func (c Config) Validate() error {
	for name, rounds := range c.Hash {
		if !knownHash(name) {
			return serrors.NewValidationError("Config.Validate",
				fmt.Errorf("unknown hash algorithm %q", name))
		}
		if rounds < 0 {
			return serrors.NewValidationError("Config.Validate",
				fmt.Errorf("negative round count for %q", name))
		}
	}
	if v := c.KDF.Argon2.Variant; v != "" && v != "d" && v != "i" && v != "id" {
		return serrors.NewValidationError("Config.Validate",
			fmt.Errorf("unknown argon2 variant %q", v))
	}
	for _, h := range []string{c.KDF.HKDF.Hash, c.KDF.PBKDF2.Hash} {
		if h != "" && h != HashSHA256 && h != HashSHA512 {
			return serrors.NewValidationError("Config.Validate",
				fmt.Errorf("unsupported kdf hash %q", h))
		}
	}
	return nil
}

func knownHash(name string) bool {
	for _, h := range hashChainOrder {
		if h == name {
			return true
		}
	}
	return false
}

// roundsOrDefault returns n with the documented default of one iteration when
// the stage is enabled but no round count was given.
func roundsOrDefault(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

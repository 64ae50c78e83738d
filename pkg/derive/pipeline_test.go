package derive_test

import (
	"bytes"
	"encoding/base64"
	"io"
	"strings"
	"testing"

	"github.com/sealbox/sealbox/pkg/catalog"
	"github.com/sealbox/sealbox/pkg/derive"
	"github.com/sealbox/sealbox/pkg/observe"
)

func init() {
	observe.SetOutput(io.Discard)
}

var (
	password = []byte("correct horse battery staple")
	salt     = []byte("0123456789abcdef")
)

func mustDerive(t *testing.T, cfg derive.Config, alg catalog.ID) ([]byte, derive.Outcome) {
	t.Helper()
	key, outcome, err := derive.NewPipeline().Derive(password, salt, cfg, alg)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	out, err := key.Copy()
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	key.Destroy()
	return out, outcome
}

func TestDeriveDeterministic(t *testing.T) {
	cfg := derive.Config{
		Hash: derive.HashConfig{derive.HashSHA3_512: 2, derive.HashBLAKE2b: 1},
		KDF: derive.KDFConfig{
			HKDF:   derive.HKDFParams{Enabled: true, Hash: derive.HashSHA256, Rounds: 2},
			PBKDF2: derive.PBKDF2Params{Enabled: true, Iterations: 1000, Rounds: 1},
		},
	}
	a, _ := mustDerive(t, cfg, catalog.AESGCM)
	b, _ := mustDerive(t, cfg, catalog.AESGCM)
	if !bytes.Equal(a, b) {
		t.Fatal("identical inputs derived different keys")
	}
	if len(a) != 32 {
		t.Fatalf("key length = %d, want 32", len(a))
	}
}

func TestDeriveMinimalConfigNeverRaw(t *testing.T) {
	key, outcome, err := derive.NewPipeline().Derive(password, salt, derive.MinimalConfig(), catalog.AESGCM)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	defer key.Destroy()

	if outcome.Stretched() {
		t.Fatal("minimal config should apply no stretching stage")
	}
	if key.Len() != 32 {
		t.Fatalf("key length = %d, want 32", key.Len())
	}
	// The normalization hash must keep the raw password out of the key.
	if bytes.Contains(key.Bytes(), password) {
		t.Fatal("raw password leaked into derived key")
	}
}

func TestDeriveRequiresSalt(t *testing.T) {
	_, _, err := derive.NewPipeline().Derive(password, nil, derive.MinimalConfig(), catalog.AESGCM)
	if err == nil {
		t.Fatal("empty salt should fail")
	}
}

func TestDeriveUnknownAlgorithm(t *testing.T) {
	_, _, err := derive.NewPipeline().Derive(password, salt, derive.MinimalConfig(), "rot13")
	if err == nil {
		t.Fatal("unknown algorithm should fail")
	}
}

func TestDeriveSIVKeyLength(t *testing.T) {
	key, _ := mustDerive(t, derive.MinimalConfig(), catalog.AESSIV)
	if len(key) != 64 {
		t.Fatalf("aes-siv key length = %d, want 64", len(key))
	}
}

func TestDeriveFernetKeyEncoding(t *testing.T) {
	key, _ := mustDerive(t, derive.MinimalConfig(), catalog.Fernet)
	if len(key) != 44 {
		t.Fatalf("fernet key length = %d, want 44 (base64url of 32 bytes)", len(key))
	}
	decoded, err := base64.URLEncoding.DecodeString(string(key))
	if err != nil {
		t.Fatalf("fernet key is not valid base64url: %v", err)
	}
	if len(decoded) != 32 {
		t.Fatalf("decoded fernet key length = %d, want 32", len(decoded))
	}
}

func TestHashChainRoundsMatter(t *testing.T) {
	one, _ := mustDerive(t, derive.Config{Hash: derive.HashConfig{derive.HashSHA256: 1}}, catalog.AESGCM)
	two, _ := mustDerive(t, derive.Config{Hash: derive.HashConfig{derive.HashSHA256: 2}}, catalog.AESGCM)
	if bytes.Equal(one, two) {
		t.Fatal("different round counts produced the same key")
	}
}

func TestHashChainAllAlgorithms(t *testing.T) {
	cfg := derive.Config{Hash: derive.HashConfig{
		derive.HashSHA256: 1, derive.HashSHA512: 1,
		derive.HashSHA3_256: 1, derive.HashSHA3_512: 1,
		derive.HashBLAKE2b: 1, derive.HashBLAKE2s: 1, derive.HashBLAKE3: 1,
		derive.HashSHAKE128: 1, derive.HashSHAKE256: 1, derive.HashWhirlpool: 1,
	}}
	key, outcome := mustDerive(t, cfg, catalog.AESGCM)
	if !outcome.HashApplied {
		t.Fatal("HashApplied should be set")
	}
	if len(outcome.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", outcome.Warnings)
	}
	if len(key) != 32 {
		t.Fatalf("key length = %d, want 32", len(key))
	}
}

func TestWhirlpoolFallback(t *testing.T) {
	caps := catalog.Detect()
	caps.Whirlpool = false
	p := derive.NewPipeline(derive.WithCapabilities(caps))

	cfg := derive.Config{Hash: derive.HashConfig{derive.HashWhirlpool: 1}}
	key, outcome, err := p.Derive(password, salt, cfg, catalog.AESGCM)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	defer key.Destroy()

	found := false
	for _, w := range outcome.Warnings {
		if strings.Contains(w, "whirlpool unavailable") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a whirlpool fallback warning, got %v", outcome.Warnings)
	}

	// The fallback must change the derived key relative to real Whirlpool.
	real, _ := mustDerive(t, cfg, catalog.AESGCM)
	if bytes.Equal(key.Bytes(), real) {
		t.Fatal("fallback and real whirlpool derived the same key")
	}
}

func TestArgon2dDowngradeWarning(t *testing.T) {
	cfg := derive.Config{KDF: derive.KDFConfig{
		Argon2: derive.Argon2Params{Enabled: true, TimeCost: 1, MemoryCost: 8 * 1024, Parallelism: 1, Variant: "d", Rounds: 1},
	}}
	_, outcome := mustDerive(t, cfg, catalog.AESGCM)
	found := false
	for _, w := range outcome.Warnings {
		if strings.Contains(w, "argon2d unavailable") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an argon2d downgrade warning, got %v", outcome.Warnings)
	}
}

func TestArgon2VariantsDiffer(t *testing.T) {
	base := derive.Argon2Params{Enabled: true, TimeCost: 1, MemoryCost: 8 * 1024, Parallelism: 1, Rounds: 1}

	id := base
	id.Variant = "id"
	i := base
	i.Variant = "i"

	keyID, _ := mustDerive(t, derive.Config{KDF: derive.KDFConfig{Argon2: id}}, catalog.AESGCM)
	keyI, _ := mustDerive(t, derive.Config{KDF: derive.KDFConfig{Argon2: i}}, catalog.AESGCM)
	if bytes.Equal(keyID, keyI) {
		t.Fatal("argon2id and argon2i derived the same key")
	}
}

func TestKDFChainFullStack(t *testing.T) {
	cfg := derive.Config{
		Hash: derive.HashConfig{derive.HashSHA3_256: 1},
		KDF: derive.KDFConfig{
			Argon2:  derive.Argon2Params{Enabled: true, TimeCost: 1, MemoryCost: 8 * 1024, Parallelism: 1, Rounds: 1},
			Balloon: derive.BalloonParams{Enabled: true, TimeCost: 1, SpaceCost: 64, Parallelism: 1, Rounds: 2},
			Scrypt:  derive.ScryptParams{Enabled: true, N: 1 << 10, R: 8, P: 1, Rounds: 1},
			HKDF:    derive.HKDFParams{Enabled: true, Hash: derive.HashSHA512, Info: "test", Rounds: 1},
			PBKDF2:  derive.PBKDF2Params{Enabled: true, Iterations: 100, Hash: derive.HashSHA256, Rounds: 2},
		},
	}
	key, outcome := mustDerive(t, cfg, catalog.AESGCM)
	if !outcome.KDFApplied {
		t.Fatal("KDFApplied should be set")
	}
	if len(key) != 32 {
		t.Fatalf("key length = %d, want 32", len(key))
	}
	again, _ := mustDerive(t, cfg, catalog.AESGCM)
	if !bytes.Equal(key, again) {
		t.Fatal("full-stack derivation not deterministic")
	}
}

func TestKDFStageFailureFallsThrough(t *testing.T) {
	// Invalid scrypt N (not a power of two) must skip the stage with a
	// warning and still run PBKDF2.
	cfg := derive.Config{KDF: derive.KDFConfig{
		Scrypt: derive.ScryptParams{Enabled: true, N: 1000, R: 8, P: 1, Rounds: 1},
		PBKDF2: derive.PBKDF2Params{Enabled: true, Iterations: 100, Rounds: 1},
	}}
	key, outcome, err := derive.NewPipeline().Derive(password, salt, cfg, catalog.AESGCM)
	if err != nil {
		t.Fatalf("Derive should fall through, got %v", err)
	}
	defer key.Destroy()

	if !outcome.KDFApplied {
		t.Fatal("PBKDF2 should still have applied")
	}
	found := false
	for _, w := range outcome.Warnings {
		if strings.Contains(w, "scrypt failed") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a scrypt fallback warning, got %v", outcome.Warnings)
	}
}

func TestIterationSaltUniqueness(t *testing.T) {
	base := []byte("base salt bytes!")
	seen := map[string]bool{}
	for i := 0; i < 8; i++ {
		s := derive.IterationSalt(base, i)
		if seen[string(s)] {
			t.Fatalf("iteration salt %d repeats an earlier salt", i)
		}
		seen[string(s)] = true
	}
	if !bytes.Equal(derive.IterationSalt(base, 0), base) {
		t.Fatal("iteration 0 must use the base salt unchanged")
	}
	if len(derive.IterationSalt(base, 3)) != 16 {
		t.Fatal("derived iteration salts must be 16 bytes")
	}
}

func TestValidateRejectsUnknownHash(t *testing.T) {
	cfg := derive.Config{Hash: derive.HashConfig{"md5": 1}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("md5 should be rejected")
	}
}

func TestValidateRejectsBadVariant(t *testing.T) {
	cfg := derive.Config{KDF: derive.KDFConfig{Argon2: derive.Argon2Params{Variant: "x"}}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown argon2 variant should be rejected")
	}
}

func TestDefaultConfigValid(t *testing.T) {
	if err := derive.DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig invalid: %v", err)
	}
	if !derive.DefaultConfig().KDF.Argon2.Enabled {
		t.Fatal("default config should enable argon2")
	}
}

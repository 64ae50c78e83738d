package header_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/sealbox/sealbox/internal/errors"
	"github.com/sealbox/sealbox/pkg/derive"
	"github.com/sealbox/sealbox/pkg/header"
)

func sampleMetadata() *header.Metadata {
	return &header.Metadata{
		FormatVersion: 5,
		Derivation: header.Derivation{
			Salt: []byte("0123456789abcdef"),
			Hash: derive.HashConfig{derive.HashSHA3_512: 2},
			KDF: derive.KDFConfig{
				Argon2: derive.Argon2Params{
					Enabled: true, TimeCost: 3, MemoryCost: 65536,
					Parallelism: 4, HashLen: 32, Variant: "id", Rounds: 1,
				},
			},
		},
		Hashes: header.Hashes{
			OriginalHash:  []byte("orig-hash-32-bytes-orig-hash-32b"),
			EncryptedHash: []byte("encr-hash-32-bytes-encr-hash-32b"),
		},
		Encryption: header.Encryption{
			Algorithm:      "aes-gcm",
			EncryptionData: "aes-gcm",
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := sampleMetadata()
	encoded, err := m.Encode()
	require.NoError(t, err)

	decoded, err := header.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestEncodeWritesCurrentVersion(t *testing.T) {
	m := sampleMetadata()
	m.FormatVersion = 3
	encoded, err := m.Encode()
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(encoded, &raw))
	assert.JSONEq(t, "5", string(raw["format_version"]))
}

func TestDeriveConfigMarkedStored(t *testing.T) {
	cfg := sampleMetadata().DeriveConfig()
	assert.True(t, cfg.Stored, "decoded configurations must be authoritative")
	assert.True(t, cfg.KDF.Argon2.Enabled)
	assert.Equal(t, 2, cfg.Hash[derive.HashSHA3_512])
}

func TestDecodeV1Implicit(t *testing.T) {
	raw := fmt.Sprintf(`{"version":1,"salt":%q,"original_hash":%q,"encrypted_hash":%q}`,
		base64.StdEncoding.EncodeToString([]byte("saltsaltsaltsalt")),
		base64.StdEncoding.EncodeToString([]byte("oh")),
		base64.StdEncoding.EncodeToString([]byte("eh")))

	m, err := header.Decode([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, 1, m.FormatVersion)
	assert.Equal(t, "aes-gcm", m.Encryption.Algorithm)
	assert.Equal(t, []byte("saltsaltsaltsalt"), m.Derivation.Salt)

	// v1 files derived with a single implicit PBKDF2 pass at the legacy
	// iteration count.
	kdf := m.Derivation.KDF
	assert.True(t, kdf.PBKDF2.Enabled)
	assert.Equal(t, 100000, kdf.PBKDF2.Iterations)
	assert.False(t, kdf.Argon2.Enabled)
}

func TestDecodeV1ExplicitIterations(t *testing.T) {
	raw := fmt.Sprintf(`{"version":1,"salt":%q,"algorithm":"chacha20-poly1305","pbkdf2_iterations":250000}`,
		base64.StdEncoding.EncodeToString([]byte("saltsaltsaltsalt")))

	m, err := header.Decode([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "chacha20-poly1305", m.Encryption.Algorithm)
	assert.Equal(t, 250000, m.Derivation.KDF.PBKDF2.Iterations)
}

func TestDecodeV2HashConfig(t *testing.T) {
	raw := fmt.Sprintf(`{"version":2,"salt":%q,"algorithm":"aes-gcm","hash_config":{"sha512":3}}`,
		base64.StdEncoding.EncodeToString([]byte("saltsaltsaltsalt")))

	m, err := header.Decode([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, 2, m.FormatVersion)
	assert.Equal(t, 3, m.Derivation.Hash[derive.HashSHA512])
}

func TestDecodeV3PQCFields(t *testing.T) {
	raw := fmt.Sprintf(`{"version":3,"salt":%q,"algorithm":"ml-kem-768-hybrid","hash_config":{"sha3-256":1},"pqc_public_key":%q,"pqc_private_key":%q,"pqc_key_encrypted":true}`,
		base64.StdEncoding.EncodeToString([]byte("saltsaltsaltsalt")),
		base64.StdEncoding.EncodeToString([]byte("public-key-bytes")),
		base64.StdEncoding.EncodeToString([]byte("wrapped-private")))

	m, err := header.Decode([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "ml-kem-768-hybrid", m.Encryption.Algorithm)
	assert.Equal(t, []byte("public-key-bytes"), m.Encryption.PublicKey)
	assert.Equal(t, []byte("wrapped-private"), m.Encryption.PrivateKey)
	assert.True(t, m.Encryption.KeyStored)
	assert.True(t, m.Encryption.KeyEncrypted)
}

func TestDecodeRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"not json":        "not json at all",
		"no version":      `{"salt":"AA=="}`,
		"missing algo v4": `{"format_version":4,"derivation":{"salt":"AA=="}}`,
	}
	for name, raw := range cases {
		_, err := header.Decode([]byte(raw))
		assert.Error(t, err, name)
		assert.True(t, serrors.IsValidation(err), name)
	}
}

func TestDecodeFutureVersion(t *testing.T) {
	_, err := header.Decode([]byte(`{"format_version":9}`))
	assert.True(t, errors.Is(err, serrors.ErrUnsupportedVersion))
}

func TestMigrateV3V4Idempotent(t *testing.T) {
	kdf := derive.KDFConfig{
		Scrypt: derive.ScryptParams{Enabled: true, N: 16384, R: 8, P: 1, Rounds: 2},
	}
	v3 := &header.MetadataV3{
		Version:           3,
		Salt:              []byte("saltsaltsaltsalt"),
		Algorithm:         "kyber-768-hybrid",
		HashConfig:        derive.HashConfig{derive.HashBLAKE2b: 1},
		KDFConfig:         &kdf,
		OriginalHash:      []byte("oh"),
		EncryptedHash:     []byte("eh"),
		PQCPublicKey:      []byte("pk"),
		PQCPrivateKey:     []byte("sk-wrapped"),
		PQCPrivateKeySalt: []byte("ks"),
		PQCKeyEncrypted:   true,
	}

	v4 := header.MigrateV3ToV4(v3)
	assert.Equal(t, 4, v4.FormatVersion)
	assert.Equal(t, v3.Salt, v4.Derivation.Salt)
	assert.True(t, v4.Encryption.KeyStored)

	back := header.MigrateV4ToV3(v4)
	assert.Equal(t, v3, back)
}

func TestMigrateV4V5Idempotent(t *testing.T) {
	v4 := header.MigrateV3ToV4(&header.MetadataV3{
		Version:       3,
		Salt:          []byte("saltsaltsaltsalt"),
		Algorithm:     "aes-gcm",
		OriginalHash:  []byte("oh"),
		EncryptedHash: []byte("eh"),
	})

	v5 := header.MigrateV4ToV5(v4)
	assert.Equal(t, 5, v5.FormatVersion)
	assert.Equal(t, "aes-gcm", v5.Encryption.EncryptionData)

	back, err := header.MigrateV5ToV4(v5)
	require.NoError(t, err)
	assert.Equal(t, v4, back)
}

func TestMigrateV4V5HybridSelector(t *testing.T) {
	v4 := header.MigrateV3ToV4(&header.MetadataV3{
		Version:   3,
		Salt:      []byte("saltsaltsaltsalt"),
		Algorithm: "ml-kem-768-chacha20",
	})

	v5 := header.MigrateV4ToV5(v4)
	assert.Equal(t, "chacha20-poly1305", v5.Encryption.EncryptionData)

	_, err := header.MigrateV5ToV4(v5)
	require.NoError(t, err)
}

func TestMigrateV5ToV4RefusesForeignSelector(t *testing.T) {
	m := sampleMetadata()
	m.Encryption.Algorithm = "ml-kem-768-hybrid"
	m.Encryption.EncryptionData = "xchacha20-poly1305"

	_, err := header.MigrateV5ToV4(m)
	assert.True(t, errors.Is(err, serrors.ErrMigrationLoss))
}

func TestFileFraming(t *testing.T) {
	m := sampleMetadata()
	payload := []byte{0x01, 0x02, 0x03, 0xff}

	framed, err := header.EncodeFile(m, payload)
	require.NoError(t, err)

	gotMeta, gotPayload, err := header.DecodeFile(framed)
	require.NoError(t, err)
	assert.Equal(t, m, gotMeta)
	assert.Equal(t, payload, gotPayload)
}

func TestDecodeFileRejectsBadFraming(t *testing.T) {
	framed, err := header.EncodeFile(sampleMetadata(), []byte("payload"))
	require.NoError(t, err)
	validMeta, _, ok := bytes.Cut(framed, []byte{':'})
	require.True(t, ok)

	for name, data := range map[string][]byte{
		"no separator": []byte("YWJj"),
		"bad meta b64": []byte("!!!:YWJj"),
		"bad body b64": append(append([]byte{}, validMeta...), []byte(":!!!")...),
	} {
		_, _, err := header.DecodeFile(data)
		assert.Error(t, err, name)
	}
}

func TestPeek(t *testing.T) {
	framed, err := header.EncodeFile(sampleMetadata(), []byte("payload"))
	require.NoError(t, err)

	info, err := header.Peek(framed)
	require.NoError(t, err)
	assert.Equal(t, 5, info.FormatVersion)
	assert.Equal(t, "aes-gcm", info.Algorithm)
	assert.Equal(t, "aes-gcm", info.EncryptionData)
	assert.Equal(t, "v5 aes-gcm (aes-gcm)", info.String())
}

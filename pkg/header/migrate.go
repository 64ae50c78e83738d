package header

import (
	"github.com/sealbox/sealbox/internal/constants"
	serrors "github.com/sealbox/sealbox/internal/errors"
	"github.com/sealbox/sealbox/pkg/catalog"
	"github.com/sealbox/sealbox/pkg/derive"
)

// MetadataV3 is the flat third-generation schema: v2's fields plus embedded
// post-quantum key material and an optional explicit KDF configuration.
type MetadataV3 struct {
	Version       int               `json:"version"`
	Salt          []byte            `json:"salt"`
	Algorithm     string            `json:"algorithm"`
	HashConfig    derive.HashConfig `json:"hash_config,omitempty"`
	KDFConfig     *derive.KDFConfig `json:"kdf_config,omitempty"`
	OriginalHash  []byte            `json:"original_hash"`
	EncryptedHash []byte            `json:"encrypted_hash"`

	PQCPublicKey      []byte `json:"pqc_public_key,omitempty"`
	PQCPrivateKey     []byte `json:"pqc_private_key,omitempty"`
	PQCPrivateKeySalt []byte `json:"pqc_private_key_salt,omitempty"`
	PQCKeyEncrypted   bool   `json:"pqc_key_encrypted,omitempty"`

	// PBKDF2Iterations applies only when KDFConfig is absent; early files
	// recorded nothing but the iteration count.
	PBKDF2Iterations int `json:"pbkdf2_iterations,omitempty"`
}

// MigrateV3ToV4 nests a flat v3 record into the v4 layout. Lossless for every
// v3 field.
func MigrateV3ToV4(flat *MetadataV3) *Metadata {
	var kdf derive.KDFConfig
	if flat.KDFConfig != nil {
		kdf = *flat.KDFConfig
	} else {
		kdf = implicitPBKDF2(flat.PBKDF2Iterations)
	}
	return &Metadata{
		FormatVersion: constants.FormatVersionV4,
		Derivation: Derivation{
			Salt: flat.Salt,
			Hash: flat.HashConfig,
			KDF:  kdf,
		},
		Hashes: Hashes{
			OriginalHash:  flat.OriginalHash,
			EncryptedHash: flat.EncryptedHash,
		},
		Encryption: Encryption{
			Algorithm:      flat.Algorithm,
			PublicKey:      flat.PQCPublicKey,
			PrivateKey:     flat.PQCPrivateKey,
			PrivateKeySalt: flat.PQCPrivateKeySalt,
			KeyStored:      len(flat.PQCPrivateKey) > 0,
			KeyEncrypted:   flat.PQCKeyEncrypted,
		},
	}
}

// MigrateV4ToV3 flattens a v4 record back into the v3 layout. Every v4 field
// has a v3 home, so the round trip through MigrateV3ToV4 reproduces the
// input.
func MigrateV4ToV3(m *Metadata) *MetadataV3 {
	kdf := m.Derivation.KDF
	return &MetadataV3{
		Version:           constants.FormatVersionV3,
		Salt:              m.Derivation.Salt,
		Algorithm:         m.Encryption.Algorithm,
		HashConfig:        m.Derivation.Hash,
		KDFConfig:         &kdf,
		OriginalHash:      m.Hashes.OriginalHash,
		EncryptedHash:     m.Hashes.EncryptedHash,
		PQCPublicKey:      m.Encryption.PublicKey,
		PQCPrivateKey:     m.Encryption.PrivateKey,
		PQCPrivateKeySalt: m.Encryption.PrivateKeySalt,
		PQCKeyEncrypted:   m.Encryption.KeyEncrypted,
	}
}

// defaultEncryptionData is the inner cipher a v4 reader would assume for the
// algorithm: the hybrid payload cipher, or the algorithm itself for symmetric
// suites. Unknown identifiers default to the algorithm name so migration does
// not invent information.
func defaultEncryptionData(algorithm string) string {
	entry, err := catalog.Lookup(catalog.ID(algorithm))
	if err == nil && entry.Hybrid() {
		return string(entry.Payload)
	}
	return algorithm
}

// MigrateV4ToV5 upgrades by making the inner-cipher selector explicit with
// the value a v4 reader already implied.
func MigrateV4ToV5(m *Metadata) *Metadata {
	out := *m
	out.FormatVersion = constants.FormatVersionV5
	if out.Encryption.EncryptionData == "" {
		out.Encryption.EncryptionData = defaultEncryptionData(out.Encryption.Algorithm)
	}
	return &out
}

// MigrateV5ToV4 downgrades by dropping the inner-cipher selector. When the
// selector names a cipher different from the algorithm's v4-implicit choice,
// the downgraded header would decrypt with the wrong inner cipher, so the
// migration refuses instead of corrupting.
func MigrateV5ToV4(m *Metadata) (*Metadata, error) {
	ed := m.Encryption.EncryptionData
	if ed != "" && ed != defaultEncryptionData(m.Encryption.Algorithm) {
		return nil, serrors.NewValidationError("MigrateV5ToV4", serrors.ErrMigrationLoss)
	}
	out := *m
	out.FormatVersion = constants.FormatVersionV4
	out.Encryption.EncryptionData = ""
	return &out, nil
}

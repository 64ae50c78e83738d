// Package header implements the versioned metadata codec: the v5 schema the
// encoder writes, decoders for every schema generation back to v1, and the
// migration functions between v3, v4 and v5.
//
// On disk a sealed file is
//
//	base64(json(metadata)) ':' base64(payload)
//
// All byte-valued fields inside the JSON are base64 strings (encoding/json's
// []byte convention).
package header

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/sealbox/sealbox/internal/constants"
	serrors "github.com/sealbox/sealbox/internal/errors"
	"github.com/sealbox/sealbox/pkg/catalog"
	"github.com/sealbox/sealbox/pkg/derive"
)

// Derivation is the key derivation block of a v4/v5 header.
type Derivation struct {
	Salt []byte            `json:"salt"`
	Hash derive.HashConfig `json:"hash_config"`
	KDF  derive.KDFConfig  `json:"kdf_config"`
}

// Hashes carries the SHA3-256 content hashes.
type Hashes struct {
	OriginalHash  []byte `json:"original_hash"`
	EncryptedHash []byte `json:"encrypted_hash"`
}

// Encryption is the cipher block of a v4/v5 header. The key material fields
// are populated for hybrid suites only.
type Encryption struct {
	Algorithm string `json:"algorithm"`

	// EncryptionData names the symmetric cipher used inside a hybrid
	// envelope. Written from v5 on; empty means the algorithm's default.
	EncryptionData string `json:"encryption_data,omitempty"`

	PublicKey []byte `json:"public_key,omitempty"`

	// PrivateKey is the embedded private key, nonce||ciphertext when
	// KeyEncrypted is set, raw bytes otherwise (legacy v3 files only).
	PrivateKey     []byte `json:"private_key,omitempty"`
	PrivateKeySalt []byte `json:"private_key_salt,omitempty"`

	KeyStored    bool `json:"key_stored,omitempty"`
	KeyEncrypted bool `json:"key_encrypted,omitempty"`
}

// Metadata is the in-memory header record, shaped after the v5 schema.
// Decoders for older generations normalize into it; FormatVersion retains the
// version actually read from the file.
type Metadata struct {
	FormatVersion int        `json:"format_version"`
	Derivation    Derivation `json:"derivation"`
	Hashes        Hashes     `json:"hashes"`
	Encryption    Encryption `json:"encryption"`
}

// Algorithm returns the catalog identifier named by the header.
func (m *Metadata) Algorithm() catalog.ID {
	return catalog.ID(m.Encryption.Algorithm)
}

// DeriveConfig returns the stored derivation configuration, marked Stored so
// the pipeline treats it as authoritative and never merges process defaults.
func (m *Metadata) DeriveConfig() derive.Config {
	return derive.Config{
		Hash:   m.Derivation.Hash,
		KDF:    m.Derivation.KDF,
		Stored: true,
	}
}

// Encode serializes the metadata as current-version JSON.
func (m *Metadata) Encode() ([]byte, error) {
	m.FormatVersion = constants.FormatVersionCurrent
	b, err := json.Marshal(m)
	if err != nil {
		return nil, serrors.NewValidationError("Metadata.Encode", err)
	}
	return b, nil
}

// versionProbe extracts the schema generation before any other field is
// interpreted. v1 through v3 wrote "version"; v4 renamed it "format_version".
type versionProbe struct {
	FormatVersion int `json:"format_version"`
	Version       int `json:"version"`
}

func probeVersion(data []byte) (int, error) {
	var p versionProbe
	if err := json.Unmarshal(data, &p); err != nil {
		return 0, serrors.NewValidationError("probeVersion", serrors.ErrInvalidFormat)
	}
	v := p.FormatVersion
	if v == 0 {
		v = p.Version
	}
	if v < constants.FormatVersionMin {
		return 0, serrors.NewValidationError("probeVersion", serrors.ErrInvalidFormat)
	}
	if v > constants.FormatVersionCurrent {
		return 0, serrors.NewValidationError("probeVersion", serrors.ErrUnsupportedVersion)
	}
	return v, nil
}

// Decode parses metadata JSON of any supported generation into the normalized
// in-memory record.
func Decode(data []byte) (*Metadata, error) {
	v, err := probeVersion(data)
	if err != nil {
		return nil, err
	}

	switch v {
	case 1, 2:
		return decodeFlat(data, v)
	case 3:
		var flat MetadataV3
		if err := json.Unmarshal(data, &flat); err != nil {
			return nil, serrors.NewValidationError("Decode", serrors.ErrInvalidFormat)
		}
		m := MigrateV3ToV4(&flat)
		m.FormatVersion = 3
		return m, nil
	default: // 4, 5
		var m Metadata
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, serrors.NewValidationError("Decode", serrors.ErrInvalidFormat)
		}
		m.FormatVersion = v
		if m.Encryption.Algorithm == "" {
			return nil, serrors.NewValidationError("Decode", serrors.ErrInvalidFormat)
		}
		return &m, nil
	}
}

// metadataFlat covers the v1 and v2 generations. v1 carried no hash
// configuration; v2 added the flat hash_config map.
type metadataFlat struct {
	Version          int               `json:"version"`
	Salt             []byte            `json:"salt"`
	Algorithm        string            `json:"algorithm,omitempty"`
	HashConfig       derive.HashConfig `json:"hash_config,omitempty"`
	PBKDF2Iterations int               `json:"pbkdf2_iterations,omitempty"`
	OriginalHash     []byte            `json:"original_hash"`
	EncryptedHash    []byte            `json:"encrypted_hash"`
}

func decodeFlat(data []byte, v int) (*Metadata, error) {
	var flat metadataFlat
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, serrors.NewValidationError("decodeFlat", serrors.ErrInvalidFormat)
	}
	alg := flat.Algorithm
	if alg == "" {
		// The first generation predates algorithm selection.
		alg = string(catalog.AESGCM)
	}
	return &Metadata{
		FormatVersion: v,
		Derivation: Derivation{
			Salt: flat.Salt,
			Hash: flat.HashConfig,
			KDF:  implicitPBKDF2(flat.PBKDF2Iterations),
		},
		Hashes: Hashes{
			OriginalHash:  flat.OriginalHash,
			EncryptedHash: flat.EncryptedHash,
		},
		Encryption: Encryption{Algorithm: alg},
	}, nil
}

// implicitPBKDF2 reconstructs the derivation the early generations applied
// without recording: a single PBKDF2-HMAC-SHA256 pass.
func implicitPBKDF2(iterations int) derive.KDFConfig {
	if iterations <= 0 {
		iterations = constants.LegacyPBKDF2Iterations
	}
	return derive.KDFConfig{
		PBKDF2: derive.PBKDF2Params{
			Enabled:    true,
			Iterations: iterations,
			Hash:       derive.HashSHA256,
			Rounds:     1,
		},
	}
}

// EncodeFile frames metadata and payload into the on-disk representation.
func EncodeFile(m *Metadata, payload []byte) ([]byte, error) {
	metaJSON, err := m.Encode()
	if err != nil {
		return nil, err
	}

	metaLen := base64.StdEncoding.EncodedLen(len(metaJSON))
	out := make([]byte, metaLen+1+base64.StdEncoding.EncodedLen(len(payload)))
	base64.StdEncoding.Encode(out, metaJSON)
	out[metaLen] = constants.HeaderSeparator
	base64.StdEncoding.Encode(out[metaLen+1:], payload)
	return out, nil
}

// DecodeFile splits and decodes the on-disk representation.
func DecodeFile(data []byte) (*Metadata, []byte, error) {
	metaPart, payloadPart, err := splitFile(data)
	if err != nil {
		return nil, nil, err
	}

	metaJSON, err := base64.StdEncoding.DecodeString(string(metaPart))
	if err != nil {
		return nil, nil, serrors.NewValidationError("DecodeFile", serrors.ErrInvalidFormat)
	}
	m, err := Decode(metaJSON)
	if err != nil {
		return nil, nil, err
	}

	payload, err := base64.StdEncoding.DecodeString(string(payloadPart))
	if err != nil {
		return nil, nil, serrors.NewValidationError("DecodeFile", serrors.ErrInvalidFormat)
	}
	return m, payload, nil
}

func splitFile(data []byte) ([]byte, []byte, error) {
	// Base64 never contains the separator, so the first occurrence is the
	// frame boundary.
	i := bytes.IndexByte(data, constants.HeaderSeparator)
	if i < 0 {
		return nil, nil, serrors.NewValidationError("splitFile", serrors.ErrInvalidFormat)
	}
	return data[:i], data[i+1:], nil
}

// Info is the lightweight header peek returned without deriving any key. It
// serves UX-layer selection only, never trust decisions.
type Info struct {
	FormatVersion  int
	Algorithm      string
	EncryptionData string
}

// Peek decodes just enough of a framed file to report its version and
// algorithm.
func Peek(data []byte) (Info, error) {
	metaPart, _, err := splitFile(data)
	if err != nil {
		return Info{}, err
	}
	metaJSON, err := base64.StdEncoding.DecodeString(string(metaPart))
	if err != nil {
		return Info{}, serrors.NewValidationError("Peek", serrors.ErrInvalidFormat)
	}
	m, err := Decode(metaJSON)
	if err != nil {
		return Info{}, err
	}
	return Info{
		FormatVersion:  m.FormatVersion,
		Algorithm:      m.Encryption.Algorithm,
		EncryptionData: m.Encryption.EncryptionData,
	}, nil
}

// String implements fmt.Stringer for log output; it never includes key
// material or hashes.
func (i Info) String() string {
	if i.EncryptionData != "" {
		return fmt.Sprintf("v%d %s (%s)", i.FormatVersion, i.Algorithm, i.EncryptionData)
	}
	return fmt.Sprintf("v%d %s", i.FormatVersion, i.Algorithm)
}

package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/sealbox/sealbox/internal/constants"
	serrors "github.com/sealbox/sealbox/internal/errors"
	"github.com/sealbox/sealbox/pkg/catalog"
	"github.com/sealbox/sealbox/pkg/derive"
	"github.com/sealbox/sealbox/pkg/header"
	"github.com/sealbox/sealbox/pkg/observe"
)

// EncryptFile reads in, encrypts it, and writes the framed result to out with
// owner-only permissions. The output appears atomically: it is written to a
// temp file in the destination directory and renamed, so a failed run leaves
// no partial file behind.
func (e *Engine) EncryptFile(ctx context.Context, in, out string, password []byte, alg catalog.ID, cfg derive.Config, opts ...EncryptOption) error {
	ctx, end := e.tracer.StartSpan(ctx, observe.SpanEncryptFile, observe.AttrAlgorithm(string(alg)))
	err := e.encryptFile(ctx, in, out, password, alg, cfg, opts...)
	end(err)
	return err
}

func (e *Engine) encryptFile(ctx context.Context, in, out string, password []byte, alg catalog.ID, cfg derive.Config, opts ...EncryptOption) error {
	plaintext, err := os.ReadFile(in)
	if err != nil {
		return serrors.NewValidationError("EncryptFile", err)
	}

	m, payload, err := e.Encrypt(ctx, plaintext, password, alg, cfg, opts...)
	if err != nil {
		return err
	}

	framed, err := header.EncodeFile(m, payload)
	if err != nil {
		return err
	}
	return writeAtomic(out, framed)
}

// DecryptFile reads and decrypts in. With a non-empty out the plaintext is
// written there (atomically, owner-only permissions) and nil bytes are
// returned; with out == "" the plaintext is returned to the caller instead.
func (e *Engine) DecryptFile(ctx context.Context, in, out string, password []byte, opts ...DecryptOption) ([]byte, error) {
	ctx, end := e.tracer.StartSpan(ctx, observe.SpanDecryptFile)
	plaintext, err := e.decryptFile(ctx, in, out, password, opts...)
	end(err)
	return plaintext, err
}

func (e *Engine) decryptFile(ctx context.Context, in, out string, password []byte, opts ...DecryptOption) ([]byte, error) {
	data, err := os.ReadFile(in)
	if err != nil {
		return nil, serrors.NewValidationError("DecryptFile", err)
	}

	m, payload, err := header.DecodeFile(data)
	if err != nil {
		return nil, err
	}

	plaintext, err := e.Decrypt(ctx, m, payload, password, opts...)
	if err != nil {
		return nil, err
	}

	if out == "" {
		return plaintext, nil
	}
	if err := writeAtomic(out, plaintext); err != nil {
		return nil, err
	}
	return nil, nil
}

// PeekMetadata reports a file's format version and algorithm without deriving
// any key. The result serves UX-layer selection only, never trust decisions.
func (e *Engine) PeekMetadata(path string) (header.Info, error) {
	_, end := e.tracer.StartSpan(context.Background(), observe.SpanPeekMetadata)
	data, err := os.ReadFile(path)
	if err != nil {
		err = serrors.NewValidationError("PeekMetadata", err)
		end(err)
		return header.Info{}, err
	}
	info, err := header.Peek(data)
	end(err)
	return info, err
}

// writeAtomic writes data to path via a same-directory temp file and rename.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".sealbox-*")
	if err != nil {
		return serrors.NewValidationError("writeAtomic", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := tmp.Chmod(constants.OutputFileMode); err != nil {
		cleanup()
		return serrors.NewValidationError("writeAtomic", err)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return serrors.NewValidationError("writeAtomic", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return serrors.NewValidationError("writeAtomic", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return serrors.NewValidationError("writeAtomic", err)
	}
	return nil
}

package secure

import (
	serrors "github.com/sealbox/sealbox/internal/errors"
)

// Buffer holds secret bytes and guarantees best-effort zeroing of its
// contents when destroyed. All intermediate password and key material in the
// derivation pipeline and cipher suites is carried in Buffers so that every
// exit path (success, error, early return) can wipe it with a single deferred
// Destroy call.
//
// A Buffer is exclusively owned by the call stack that created it and is not
// safe for concurrent use.
type Buffer struct {
	data      []byte
	destroyed bool
}

// NewBuffer allocates a zeroed Buffer of n bytes.
func NewBuffer(n int) *Buffer {
	return &Buffer{data: make([]byte, n)}
}

// NewBufferFrom copies b into a fresh Buffer. The caller retains ownership of
// b and remains responsible for wiping it.
func NewBufferFrom(b []byte) *Buffer {
	data := make([]byte, len(b))
	copy(data, b)
	return &Buffer{data: data}
}

// TakeBuffer wraps b in a Buffer, taking ownership. The slice must not be
// used by the caller afterwards; Destroy will wipe it in place.
func TakeBuffer(b []byte) *Buffer {
	return &Buffer{data: b}
}

// Bytes returns the underlying slice. The returned slice aliases the Buffer's
// storage: it becomes invalid (and zeroed) once Destroy is called.
func (b *Buffer) Bytes() []byte {
	if b.destroyed {
		return nil
	}
	return b.data
}

// Len returns the number of bytes held, or 0 after destruction.
func (b *Buffer) Len() int {
	if b.destroyed {
		return 0
	}
	return len(b.data)
}

// Copy returns an independent copy of the contents. The caller owns the copy
// and is responsible for wiping it.
func (b *Buffer) Copy() ([]byte, error) {
	if b.destroyed {
		return nil, serrors.ErrBufferDestroyed
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, nil
}

// Equal compares the contents against other in constant time.
func (b *Buffer) Equal(other []byte) bool {
	if b.destroyed {
		return false
	}
	return ConstantTimeCompare(b.data, other)
}

// Destroy zeroes the contents and marks the Buffer unusable. It is safe to
// call multiple times; only the first call does work.
func (b *Buffer) Destroy() {
	if b.destroyed {
		return
	}
	Zeroize(b.data)
	b.data = nil
	b.destroyed = true
}

// Destroyed reports whether Destroy has been called.
func (b *Buffer) Destroyed() bool {
	return b.destroyed
}

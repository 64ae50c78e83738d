package suite

import (
	"bytes"
	"crypto/cipher"
	"encoding/binary"
	"encoding/hex"
	"testing"
)

func ocb3Fixture(t *testing.T) (cipher.AEAD, []byte) {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	aead, err := newOCB3(key)
	if err != nil {
		t.Fatalf("newOCB3: %v", err)
	}
	nonce := make([]byte, aead.NonceSize())
	for i := range nonce {
		nonce[i] = byte(0xa0 + i)
	}
	return aead, nonce
}

func TestOCB3RoundTripLengths(t *testing.T) {
	aead, nonce := ocb3Fixture(t)

	// Lengths straddling every block boundary case: empty, partial block,
	// exact blocks, blocks plus remainder.
	for _, n := range []int{0, 1, 15, 16, 17, 31, 32, 33, 48, 100, 1000} {
		plaintext := make([]byte, n)
		for i := range plaintext {
			plaintext[i] = byte(i * 31)
		}
		ct := aead.Seal(nil, nonce, plaintext, nil)
		if len(ct) != n+aead.Overhead() {
			t.Fatalf("len(ct) = %d for %d-byte input, want %d", len(ct), n, n+aead.Overhead())
		}
		got, err := aead.Open(nil, nonce, ct, nil)
		if err != nil {
			t.Fatalf("Open failed for %d-byte input: %v", n, err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Fatalf("round trip mismatch for %d-byte input", n)
		}
	}
}

func TestOCB3AssociatedData(t *testing.T) {
	aead, nonce := ocb3Fixture(t)

	plaintext := []byte("bound to associated data")
	for _, ad := range [][]byte{[]byte("ad"), bytes.Repeat([]byte{0x42}, 16), bytes.Repeat([]byte{0x43}, 40)} {
		ct := aead.Seal(nil, nonce, plaintext, ad)
		if _, err := aead.Open(nil, nonce, ct, ad); err != nil {
			t.Fatalf("Open with matching AD (%d bytes) failed: %v", len(ad), err)
		}
		if _, err := aead.Open(nil, nonce, ct, []byte("other")); err == nil {
			t.Fatal("Open succeeded with mismatched AD")
		}
		if _, err := aead.Open(nil, nonce, ct, nil); err == nil {
			t.Fatal("Open succeeded with dropped AD")
		}
	}
}

func TestOCB3NonceChangesCiphertext(t *testing.T) {
	aead, nonce := ocb3Fixture(t)

	plaintext := []byte("same plaintext")
	a := aead.Seal(nil, nonce, plaintext, nil)

	nonce2 := make([]byte, len(nonce))
	copy(nonce2, nonce)
	nonce2[11] ^= 0x01
	b := aead.Seal(nil, nonce2, plaintext, nil)

	if bytes.Equal(a, b) {
		t.Fatal("different nonces produced identical ciphertext")
	}
	if _, err := aead.Open(nil, nonce2, a, nil); err == nil {
		t.Fatal("ciphertext opened under the wrong nonce")
	}
}

func TestOCB3TamperRejected(t *testing.T) {
	aead, nonce := ocb3Fixture(t)

	ct := aead.Seal(nil, nonce, bytes.Repeat([]byte{0x55}, 40), nil)
	for _, i := range []int{0, 15, 16, len(ct) - 17, len(ct) - 1} {
		tampered := make([]byte, len(ct))
		copy(tampered, ct)
		tampered[i] ^= 0x80
		if _, err := aead.Open(nil, nonce, tampered, nil); err == nil {
			t.Fatalf("tampered byte %d accepted", i)
		}
	}
}

func TestOCB3Truncated(t *testing.T) {
	aead, nonce := ocb3Fixture(t)
	if _, err := aead.Open(nil, nonce, []byte{1, 2, 3}, nil); err == nil {
		t.Fatal("ciphertext shorter than the tag accepted")
	}
}

// TestOCB3IteratedKnownAnswer runs the RFC 7253 Appendix A wide-input test:
// 128 iterations of encrypting i-byte messages under counter nonces, with the
// accumulated ciphertext authenticated in a final pass. The expected value is
// the one published for KEYLEN=256, TAGLEN=128, so any divergence from the
// standardized mode, not just asymmetry, fails the test.
func TestOCB3IteratedKnownAnswer(t *testing.T) {
	key := make([]byte, 32)
	key[31] = 128 // num2str(TAGLEN, 8)
	aead, err := newOCB3(key)
	if err != nil {
		t.Fatalf("newOCB3: %v", err)
	}

	nonce := func(n uint32) []byte {
		b := make([]byte, 12)
		binary.BigEndian.PutUint32(b[8:], n)
		return b
	}

	var c []byte
	for i := 0; i < 128; i++ {
		s := make([]byte, i)
		c = aead.Seal(c, nonce(uint32(3*i+1)), s, s)
		c = aead.Seal(c, nonce(uint32(3*i+2)), s, nil)
		c = aead.Seal(c, nonce(uint32(3*i+3)), nil, s)
	}

	got := aead.Seal(nil, nonce(385), nil, c)
	const want = "d90eb8e9c977c88b79dd793d7ffa161c"
	if hex.EncodeToString(got) != want {
		t.Fatalf("iterated vector = %x, want %s", got, want)
	}
}

func TestOCB3KeySize(t *testing.T) {
	if _, err := newOCB3(make([]byte, 16)); err == nil {
		t.Fatal("16-byte key accepted; this mode is fixed to AES-256")
	}
}

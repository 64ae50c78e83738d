package suite

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"math/bits"

	serrors "github.com/sealbox/sealbox/internal/errors"
)

// ocb3 implements the OCB authenticated-encryption mode (RFC 7253) over
// AES-256 with a 96-bit nonce and a 128-bit tag, exposed through the standard
// cipher.AEAD interface. No maintained Go module implements OCB3, so this is
// the one primitive carried in-repo; everything else comes from libraries.
type ocb3 struct {
	block cipher.Block

	// lStar = E_K(0^128), lDollar = double(lStar), l[i] = double(l[i-1])
	// with l[0] = double(lDollar), per the RFC's L table.
	lStar   [16]byte
	lDollar [16]byte
	l       [][16]byte
}

const (
	ocb3NonceSize = 12
	ocb3TagSize   = 16
)

// newOCB3 builds an OCB3 AEAD over AES with the given 32-byte key.
func newOCB3(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, serrors.ErrInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	o := &ocb3{block: block}
	block.Encrypt(o.lStar[:], o.lStar[:])
	o.lDollar = double(o.lStar)

	// 64 entries covers ntz(i) for any block index representable in uint64.
	o.l = make([][16]byte, 64)
	o.l[0] = double(o.lDollar)
	for i := 1; i < len(o.l); i++ {
		o.l[i] = double(o.l[i-1])
	}
	return o, nil
}

func (o *ocb3) NonceSize() int { return ocb3NonceSize }
func (o *ocb3) Overhead() int  { return ocb3TagSize }

// double multiplies a block by x in GF(2^128) with the OCB polynomial.
func double(in [16]byte) [16]byte {
	var out [16]byte
	carry := in[0] >> 7
	for i := 0; i < 15; i++ {
		out[i] = in[i]<<1 | in[i+1]>>7
	}
	out[15] = in[15] << 1
	out[15] ^= carry * 0x87
	return out
}

func xorBlock(dst, a, b []byte) {
	for i := 0; i < 16; i++ {
		dst[i] = a[i] ^ b[i]
	}
}

// initialOffset computes Offset_0 from the nonce: the nonce is padded into a
// 16-byte block, the bottom 6 bits select a bit offset into the stretched
// encryption of the remaining bits.
func (o *ocb3) initialOffset(nonce []byte) [16]byte {
	var n [16]byte
	// taglen mod 128 == 0 for a 16-byte tag, so the top 7 bits stay zero.
	n[15-len(nonce)] |= 1
	copy(n[16-len(nonce):], nonce)

	bottom := int(n[15] & 0x3f)
	n[15] &^= 0x3f

	var ktop [16]byte
	o.block.Encrypt(ktop[:], n[:])

	var stretch [24]byte
	copy(stretch[:16], ktop[:])
	for i := 0; i < 8; i++ {
		stretch[16+i] = ktop[i] ^ ktop[i+1]
	}

	var offset [16]byte
	byteOff, bitOff := bottom/8, bottom%8
	for i := 0; i < 16; i++ {
		offset[i] = stretch[i+byteOff] << bitOff
		if bitOff > 0 {
			offset[i] |= stretch[i+byteOff+1] >> (8 - bitOff)
		}
	}
	return offset
}

// hash computes the PMAC-style authentication of the associated data.
func (o *ocb3) hash(ad []byte) [16]byte {
	var sum, offset, tmp [16]byte

	full := len(ad) / 16
	for i := 1; i <= full; i++ {
		xorBlock(tmp[:], o.l[bits.TrailingZeros64(uint64(i))][:], offset[:])
		offset = tmp
		xorBlock(tmp[:], ad[(i-1)*16:i*16], offset[:])
		o.block.Encrypt(tmp[:], tmp[:])
		xorBlock(sum[:], sum[:], tmp[:])
	}

	if rest := ad[full*16:]; len(rest) > 0 {
		xorBlock(tmp[:], o.lStar[:], offset[:])
		offset = tmp
		var padded [16]byte
		copy(padded[:], rest)
		padded[len(rest)] = 0x80
		xorBlock(tmp[:], padded[:], offset[:])
		o.block.Encrypt(tmp[:], tmp[:])
		xorBlock(sum[:], sum[:], tmp[:])
	}
	return sum
}

// Seal encrypts and authenticates plaintext per RFC 7253 and appends the
// result to dst.
func (o *ocb3) Seal(dst, nonce, plaintext, additionalData []byte) []byte {
	if len(nonce) != ocb3NonceSize {
		panic("sealbox/suite: incorrect nonce length given to OCB3")
	}

	out := make([]byte, len(plaintext)+ocb3TagSize)
	offset := o.initialOffset(nonce)
	var checksum, tmp [16]byte

	full := len(plaintext) / 16
	for i := 1; i <= full; i++ {
		p := plaintext[(i-1)*16 : i*16]
		xorBlock(tmp[:], o.l[bits.TrailingZeros64(uint64(i))][:], offset[:])
		offset = tmp
		xorBlock(tmp[:], p, offset[:])
		o.block.Encrypt(tmp[:], tmp[:])
		xorBlock(out[(i-1)*16:i*16], tmp[:], offset[:])
		xorBlock(checksum[:], checksum[:], p)
	}

	if rest := plaintext[full*16:]; len(rest) > 0 {
		xorBlock(tmp[:], o.lStar[:], offset[:])
		offset = tmp
		var pad [16]byte
		o.block.Encrypt(pad[:], offset[:])
		for i, b := range rest {
			out[full*16+i] = b ^ pad[i]
		}
		var padded [16]byte
		copy(padded[:], rest)
		padded[len(rest)] = 0x80
		xorBlock(checksum[:], checksum[:], padded[:])
	}

	var tag [16]byte
	xorBlock(tag[:], checksum[:], offset[:])
	xorBlock(tag[:], tag[:], o.lDollar[:])
	o.block.Encrypt(tag[:], tag[:])
	adHash := o.hash(additionalData)
	xorBlock(tag[:], tag[:], adHash[:])
	copy(out[len(plaintext):], tag[:])

	return append(dst, out...)
}

// Open verifies and decrypts ciphertext per RFC 7253.
func (o *ocb3) Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error) {
	if len(nonce) != ocb3NonceSize {
		return nil, serrors.ErrInvalidNonce
	}
	if len(ciphertext) < ocb3TagSize {
		return nil, serrors.ErrCiphertextTooShort
	}

	expectedTag := ciphertext[len(ciphertext)-ocb3TagSize:]
	ct := ciphertext[:len(ciphertext)-ocb3TagSize]

	out := make([]byte, len(ct))
	offset := o.initialOffset(nonce)
	var checksum, tmp [16]byte

	full := len(ct) / 16
	for i := 1; i <= full; i++ {
		c := ct[(i-1)*16 : i*16]
		xorBlock(tmp[:], o.l[bits.TrailingZeros64(uint64(i))][:], offset[:])
		offset = tmp
		xorBlock(tmp[:], c, offset[:])
		o.block.Decrypt(tmp[:], tmp[:])
		p := out[(i-1)*16 : i*16]
		xorBlock(p, tmp[:], offset[:])
		xorBlock(checksum[:], checksum[:], p)
	}

	if rest := ct[full*16:]; len(rest) > 0 {
		xorBlock(tmp[:], o.lStar[:], offset[:])
		offset = tmp
		var pad [16]byte
		o.block.Encrypt(pad[:], offset[:])
		for i, b := range rest {
			out[full*16+i] = b ^ pad[i]
		}
		var padded [16]byte
		copy(padded[:], out[full*16:])
		padded[len(rest)] = 0x80
		xorBlock(checksum[:], checksum[:], padded[:])
	}

	var tag [16]byte
	xorBlock(tag[:], checksum[:], offset[:])
	xorBlock(tag[:], tag[:], o.lDollar[:])
	o.block.Encrypt(tag[:], tag[:])
	adHash := o.hash(additionalData)
	xorBlock(tag[:], tag[:], adHash[:])

	if subtle.ConstantTimeCompare(tag[:], expectedTag) != 1 {
		return nil, serrors.ErrAuthenticationFailed
	}
	return append(dst, out...), nil
}

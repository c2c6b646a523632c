// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coding implements low-level QR coding details: bit
// sequences, segments, version selection, error correction and
// symbol construction.
package coding // import "github.com/unixdj/qrgrid/coding"

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/unixdj/qrgrid/gf256"
)

var (
	ErrInvalidArgument  = errors.New("qr: invalid argument")
	ErrInvalidCharacter = errors.New("qr: invalid character")
	ErrDataTooLong      = errors.New("qr: data too long")

	ErrLevel   = fmt.Errorf("%w: level", ErrInvalidArgument)
	ErrVersion = fmt.Errorf("%w: version", ErrInvalidArgument)
	ErrMask    = fmt.Errorf("%w: mask", ErrInvalidArgument)
)

// Field is the field for QR error correction.
var Field = gf256.NewField(0x11d, 2)

// Remainder returns n Reed-Solomon check bytes for data over Field.
func Remainder(data []byte, n int) ([]byte, error) {
	check, err := gf256.Remainder(Field, data, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %d check bytes", ErrInvalidArgument, n)
	}
	return check, nil
}

// A Version represents a QR version.
// The version specifies the size of the QR code:
// a QR code with version v has 4v+17 pixels on a side.
// Versions run from 1 to 40: the larger the version, the more
// information the code can store.
type Version int

// Code versions.
const (
	MinVersion Version = 1  // Minimum QR version
	MaxVersion Version = 40 // Maximum QR version
)

func (v Version) String() string { return strconv.Itoa(int(v)) }

// Valid reports whether v is a QR version.
func (v Version) Valid() bool { return MinVersion <= v && v <= MaxVersion }

// QR version size classes.  The class determines the length of the
// character count field of a segment.
const (
	Class0 = iota // QR versions 1 to 9
	Class1        // QR versions 10 to 26
	Class2        // QR versions 27 to 40
)

// SizeClass returns the size class of v, as documented under Class0.
func (v Version) SizeClass() int {
	if v <= 9 {
		return Class0
	}
	if v <= 26 {
		return Class1
	}
	return Class2
}

// ClassRange returns the lowest and highest versions in size class c.
func ClassRange(c int) (Version, Version) {
	switch c {
	case Class0:
		return 1, 9
	case Class1:
		return 10, 26
	}
	return 27, 40
}

// Size returns the number of pixels on a side of a QR code of
// version v.
func (v Version) Size() int { return int(v)*4 + 17 }

// Bytes returns the total number of codewords, data and check, in a
// QR code of version v.
func (v Version) Bytes() int { return vtab[v].bytes }

// DataBytes returns the number of data bytes that can be
// stored in a QR code with the given version and level.
func (v Version) DataBytes(l Level) int {
	vt := &vtab[v]
	lev := vt.level[l]
	return vt.bytes - lev.nblock*lev.check
}

// DataBits returns the number of data bits that can be
// stored in a QR code with the given version and level.
func (v Version) DataBits(l Level) int { return v.DataBytes(l) * 8 }

// Blocks returns the number of error correction blocks and the
// number of check bytes per block for the given version and level.
func (v Version) Blocks(l Level) (nblock, check int) {
	lev := vtab[v].level[l]
	return lev.nblock, lev.check
}

// A Level represents a QR error correction level.
// From least to most tolerant of errors, they are L, M, Q, H.
type Level int

const (
	L Level = iota // 7% recoverable
	M              // 15% recoverable
	Q              // 25% recoverable
	H              // 30% recoverable
)

func (l Level) String() string {
	if l.Valid() {
		return "LMQH"[l : l+1]
	}
	return strconv.Itoa(int(l))
}

// Valid reports whether l is a QR error correction level.
func (l Level) Valid() bool { return L <= l && l <= H }

// formatBits returns the two bit level indicator used in the format
// information: L=01, M=00, Q=11, H=10.
func (l Level) formatBits() uint32 { return uint32(l) ^ 1 }

// Bits is an append-only sequence of bits, most significant bit of
// each byte first.
type Bits struct {
	b    []byte
	nbit int
}

// NewBits returns Bits with enough capacity for a QR code of the
// given version.
func NewBits(v Version) *Bits {
	var n int
	if v.Valid() {
		n = v.Bytes()
	}
	return &Bits{b: make([]byte, 0, n)}
}

// Reset empties b, keeping its buffer.
func (b *Bits) Reset() {
	b.b = b.b[:0]
	b.nbit = 0
}

// Len returns the number of bits in b.
func (b *Bits) Len() int {
	return b.nbit
}

// Bit reports whether bit i of b is set.
func (b *Bits) Bit(i int) bool {
	if uint(i) >= uint(b.nbit) {
		panic("qr: bit index out of range")
	}
	return b.b[i>>3]>>(7&^i)&1 != 0
}

// Bytes returns the contents of b.  b must end on a byte boundary.
func (b *Bits) Bytes() []byte {
	if b.nbit%8 != 0 {
		panic("qr: fractional byte")
	}
	return b.b
}

// Clone returns a copy of b not sharing its buffer.
func (b *Bits) Clone() Bits {
	return Bits{b: append([]byte(nil), b.b...), nbit: b.nbit}
}

func (b *Bits) growTo(n int) {
	for cap(b.b) < n {
		b.b = append(b.b[:cap(b.b)], 0)[:len(b.b)]
	}
}

// Grow ensures b can take n more bytes without reallocating.
func (b *Bits) Grow(n int) { b.growTo(len(b.b) + n) }

// Append appends the low nbit bits of v to b, most significant first.
// It fails if nbit is outside 0 to 32 or v doesn't fit in nbit bits.
func (b *Bits) Append(v uint32, nbit int) error {
	if nbit < 0 || nbit > 32 || nbit < 32 && v>>nbit != 0 {
		return fmt.Errorf("%w: value %d in %d bits",
			ErrInvalidArgument, v, nbit)
	}
	b.write(v, nbit)
	return nil
}

// write appends nbit bits of v to b.  v must fit.
func (b *Bits) write(v uint32, nbit int) {
	if nbit == 0 {
		return
	}
	v <<= 32 - nbit
	if rem := -b.nbit & 7; rem != 0 {
		b.b[len(b.b)-1] |= byte(v >> (32 - rem))
		if rem >= nbit {
			b.nbit += nbit
			return
		}
		b.nbit += rem
		nbit -= rem
		v <<= rem
	}
	for n := nbit; n > 0; n -= 8 {
		b.b = append(b.b, byte(v>>24))
		v <<= 8
	}
	b.nbit += nbit
}

// appendBits appends the contents of s to b.
func (b *Bits) appendBits(s *Bits) {
	if b.nbit&7 == 0 {
		b.b = append(b.b, s.b...)
		b.nbit += s.nbit
		return
	}
	n := s.nbit
	for _, v := range s.b {
		if n < 8 {
			b.write(uint32(v)>>(8-n), n)
			break
		}
		b.write(uint32(v), 8)
		n -= 8
	}
}

// padTo adds up to t terminator bits to b, pads it with zero bits to
// a byte boundary, and fills it up to n bits with alternating pad
// codewords 0xec and 0x11.  n must be a multiple of 8.
func (b *Bits) padTo(t, n int) {
	b.nbit = (min(b.nbit+t, n) + 7) &^ 7
	for len(b.b)*8 < b.nbit {
		b.b = append(b.b, 0)
	}
	for pad := byte(0xec); len(b.b)*8 < n; pad ^= 0xec ^ 0x11 {
		b.b = append(b.b, pad)
	}
	b.nbit = len(b.b) * 8
}

// Terminate adds the terminator, padding and pad codewords to fill
// the data capacity of a QR code with the given version and level.
func (b *Bits) Terminate(v Version, l Level) error {
	if !v.Valid() {
		return ErrVersion
	}
	if !l.Valid() {
		return ErrLevel
	}
	nb := v.DataBits(l)
	if b.nbit > nb {
		return fmt.Errorf("%w: cannot encode %d bits into %d-bit code",
			ErrDataTooLong, b.nbit, nb)
	}
	b.growTo(nb >> 3)
	b.padTo(4, nb)
	return nil
}

// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bitString returns b as a string of 0 and 1.
func bitString(b *Bits) string {
	s := make([]byte, b.Len())
	for i := range s {
		s[i] = '0'
		if b.Bit(i) {
			s[i] = '1'
		}
	}
	return string(s)
}

func TestBitsAppend(t *testing.T) {
	var b Bits
	require.NoError(t, b.Append(5, 3))
	require.NoError(t, b.Append(1, 1))
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, "1011", bitString(&b))
	require.NoError(t, b.Append(0xab, 8))
	require.NoError(t, b.Append(5, 4))
	assert.Equal(t, []byte{0xba, 0xb5}, b.Bytes())
	require.NoError(t, b.Append(0, 0))
	assert.Equal(t, 16, b.Len())
	require.NoError(t, b.Append(0xdeadbeef, 32))
	assert.Equal(t, []byte{0xba, 0xb5, 0xde, 0xad, 0xbe, 0xef}, b.Bytes())

	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Bytes())
}

func TestBitsGrowReset(t *testing.T) {
	var b Bits
	b.Grow(10)
	buf := b.b[:1]
	require.NoError(t, b.Append(0xabcd, 16))
	require.NoError(t, b.Append(0x12345678, 32))
	assert.Equal(t, 6, len(b.b))
	assert.Same(t, &buf[0], &b.b[0], "no reallocation within Grow")

	b.Reset()
	assert.Zero(t, b.Len())
	assert.GreaterOrEqual(t, cap(b.b), 10, "buffer kept")
}

func TestBitsAppendInvalid(t *testing.T) {
	var b Bits
	for _, tc := range []struct {
		v    uint32
		nbit int
	}{
		{0, -1},
		{0, 33},
		{8, 3},
		{1, 0},
		{1 << 31, 31},
	} {
		err := b.Append(tc.v, tc.nbit)
		assert.ErrorIs(t, err, ErrInvalidArgument, "Append(%d, %d)", tc.v, tc.nbit)
	}
	assert.Equal(t, 0, b.Len(), "failed appends must not change b")
}

func TestBitsBit(t *testing.T) {
	var b Bits
	require.NoError(t, b.Append(0x2d, 7))
	assert.Equal(t, "0101101", bitString(&b))
	assert.Panics(t, func() { b.Bit(7) })
	assert.Panics(t, func() { b.Bit(-1) })
	assert.Panics(t, func() { b.Bytes() })
}

func TestBitsAppendBits(t *testing.T) {
	var a, s Bits
	require.NoError(t, s.Append(0x1ff, 9))
	require.NoError(t, a.Append(0, 3))
	a.appendBits(&s)
	a.appendBits(&s)
	assert.Equal(t, "000"+"111111111"+"111111111", bitString(&a))

	a.Reset()
	a.appendBits(&s)
	assert.Equal(t, "111111111", bitString(&a))
	require.NoError(t, a.Append(0, 7))
	assert.Equal(t, []byte{0xff, 0x80}, a.Bytes())
}

func TestBitsClone(t *testing.T) {
	var b Bits
	require.NoError(t, b.Append(0xf0, 8))
	c := b.Clone()
	require.NoError(t, b.Append(0xf, 4))
	assert.Equal(t, 8, c.Len())
	assert.Equal(t, []byte{0xf0}, c.Bytes())
}

func TestTerminate(t *testing.T) {
	// Version 1-M "HELLO WORLD".
	s, err := MakeAlphanumeric("HELLO WORLD")
	require.NoError(t, err)
	b := NewBits(1)
	s.encode(b, Class0)
	assert.Equal(t, 74, b.Len())
	require.NoError(t, b.Terminate(1, M))
	assert.Equal(t, []byte{32, 91, 11, 120, 209, 114, 220, 77,
		67, 64, 236, 17, 236, 17, 236, 17}, b.Bytes())
}

func TestTerminateTruncated(t *testing.T) {
	// 150 data bits leave room for 2 terminator bits in 1-L.
	b := NewBits(1)
	for i := 0; i < 15; i++ {
		require.NoError(t, b.Append(0x3ff, 10))
	}
	require.NoError(t, b.Terminate(1, L))
	got := b.Bytes()
	require.Len(t, got, 19)
	assert.Equal(t, byte(0xfc), got[18])

	// Exactly full: no terminator, no padding.
	b = NewBits(1)
	for i := 0; i < 19; i++ {
		require.NoError(t, b.Append(0x11, 8))
	}
	require.NoError(t, b.Terminate(1, L))
	assert.Len(t, b.Bytes(), 19)
}

func TestTerminateErrors(t *testing.T) {
	b := NewBits(1)
	for i := 0; i < 19; i++ {
		require.NoError(t, b.Append(0, 8))
	}
	require.NoError(t, b.Append(0, 1))
	assert.ErrorIs(t, b.Terminate(1, L), ErrDataTooLong)
	assert.ErrorIs(t, b.Terminate(0, L), ErrInvalidArgument)
	assert.ErrorIs(t, b.Terminate(1, H+1), ErrInvalidArgument)
}

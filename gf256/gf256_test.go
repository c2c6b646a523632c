// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gf256

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var qrField = NewField(0x11d, 2)

func TestFieldTables(t *testing.T) {
	assert.Equal(t, byte(1), qrField.Exp(0))
	assert.Equal(t, byte(2), qrField.Exp(1))
	assert.Equal(t, byte(0x1d), qrField.Exp(8))
	assert.Equal(t, qrField.Exp(0), qrField.Exp(255))
	assert.Equal(t, -1, qrField.Log(0))
	for i := 1; i < 256; i++ {
		x := byte(i)
		assert.Equal(t, x, qrField.Exp(qrField.Log(x)))
		assert.Equal(t, byte(1), qrField.Mul(x, qrField.Inv(x)), "inverse of %#x", x)
	}
}

func TestMulCommutativeNoZeroDivisors(t *testing.T) {
	for a := 0; a < 256; a++ {
		for b := a; b < 256; b++ {
			x, y := byte(a), byte(b)
			p := qrField.Mul(x, y)
			if p != qrField.Mul(y, x) {
				t.Fatalf("Mul(%#x, %#x) = %#x, reversed %#x",
					x, y, p, qrField.Mul(y, x))
			}
			if x != 0 && y != 0 && p == 0 {
				t.Fatalf("Mul(%#x, %#x) = 0", x, y)
			}
			if want := byte(mul(a, b, 0x11d)); p != want {
				t.Fatalf("Mul(%#x, %#x) = %#x, want %#x", x, y, p, want)
			}
		}
	}
}

func TestNewFieldPanics(t *testing.T) {
	assert.Panics(t, func() { NewField(0x100, 2) }) // reducible
	assert.Panics(t, func() { NewField(0xff, 2) })  // too small
	assert.Panics(t, func() { NewField(0x11d, 1) }) // not a generator
}

func TestRemainder(t *testing.T) {
	// Version 1-M "HELLO WORLD".
	data := []byte{32, 91, 11, 120, 209, 114, 220, 77,
		67, 64, 236, 17, 236, 17, 236, 17}
	want := []byte{196, 35, 39, 119, 235, 215, 231, 226, 93, 23}
	got, err := Remainder(qrField, data, len(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRemainderZero(t *testing.T) {
	for _, n := range []int{1, 7, 10, 30} {
		got, err := Remainder(qrField, make([]byte, 19), n)
		require.NoError(t, err)
		assert.Equal(t, make([]byte, n), got)
	}
}

func TestRemainderInvalid(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := Remainder(qrField, []byte{1, 2, 3}, n)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestRSEncoderReuse(t *testing.T) {
	rs := NewRSEncoder(qrField, 10)
	long := make([]byte, 40)
	for i := range long {
		long[i] = byte(i * 7)
	}
	a := make([]byte, 10)
	rs.ECC(long, a)
	short := []byte{32, 91, 11, 120}
	b := make([]byte, 10)
	rs.ECC(short, b)
	want, err := Remainder(qrField, short, 10)
	require.NoError(t, err)
	assert.Equal(t, want, b)
}

// A codeword followed by its check bytes is divisible by the
// generator, so it evaluates to zero at every root α⁰…αⁿ⁻¹.
func TestSyndromesZero(t *testing.T) {
	data := []byte("The quick brown fox")
	const n = 13
	check, err := Remainder(qrField, data, n)
	require.NoError(t, err)
	msg := append(append([]byte{}, data...), check...)
	for i := 0; i < n; i++ {
		x := qrField.Exp(i)
		var s byte
		for _, c := range msg {
			s = qrField.Mul(s, x) ^ c
		}
		assert.Zero(t, s, "syndrome %d", i)
	}
}

func BenchmarkECC(b *testing.B) {
	data := []byte("hello, world")
	check := make([]byte, 30)
	rs := NewRSEncoder(qrField, len(check))
	for i := 0; i < b.N; i++ {
		rs.ECC(data, check)
	}
}

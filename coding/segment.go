// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// A Mode is a QR segment encoding mode.
type Mode int

// Encoding modes.
const (
	Numeric      Mode = iota // numeric mode, decimal digits
	Alphanumeric             // alphanumeric mode, 45 character set
	Byte                     // byte mode, any data
	modes                    // total number of modes
)

// modeInfo describes an encoding mode.
type modeInfo struct {
	name      string
	indicator uint32  // 4 bit mode indicator
	count     [3]byte // character count field length per size class
	length    func(n int) int
}

var modeTab = [modes]modeInfo{
	Numeric: {
		name:      "numeric",
		indicator: 1,
		count:     [3]byte{10, 12, 14},
		length:    func(n int) int { return (10*n + 2) / 3 },
	},
	Alphanumeric: {
		name:      "alphanumeric",
		indicator: 2,
		count:     [3]byte{9, 11, 13},
		length:    func(n int) int { return (11*n + 1) / 2 },
	},
	Byte: {
		name:      "byte",
		indicator: 4,
		count:     [3]byte{8, 16, 16},
		length:    func(n int) int { return n * 8 },
	},
}

func (m Mode) valid() bool { return 0 <= m && m < modes }

func (m Mode) String() string {
	if m.valid() {
		return modeTab[m].name
	}
	return strconv.Itoa(int(m))
}

// Indicator returns the 4 bit mode indicator of m.
func (m Mode) Indicator() uint32 { return modeTab[m].indicator }

// CountBits returns the length of the character count field for m
// in QR version size class c.
func (m Mode) CountBits(c int) int { return int(modeTab[m].count[c]) }

// Length returns the length in bits of a segment of n characters
// encoded in mode m at QR version size class c, including the header.
func (m Mode) Length(n, c int) int {
	return 4 + m.CountBits(c) + modeTab[m].length(n)
}

// Accepts reports whether mode m can encode the byte b.
func (m Mode) Accepts(b byte) bool {
	switch m {
	case Numeric:
		return b-'0' < 10
	case Alphanumeric:
		return b >= ' ' && alphamask>>(b-' ')&1 != 0
	}
	return m == Byte
}

const alphamask uint64 = 0x07fffffe_07ffec31 // SPACE $% *+ -./ [0-9] : [A-Z]

// Alphanumeric encoding table.  Used after validation.
// "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"
var alpha = [64]byte{
	00, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, // 0x40
	25, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35, 00, 00, 00, 00, 00, // 0x50
	36, 00, 00, 00, 37, 38, 00, 00, 00, 00, 39, 40, 00, 41, 42, 43, // 0x20
	00, 01, 02, 03, 04, 05, 06, 07, 010, 9, 44, 00, 00, 00, 00, 00, // 0x30
}

// AlphanumericChars lists the alphanumeric mode character set in
// code order.
const AlphanumericChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"

// CharacterError reports a character not encodable in a mode.
type CharacterError struct {
	Mode   Mode   // encoding mode
	Text   string // rejected input
	Offset int    // byte offset of the rejected character
}

func (e *CharacterError) Error() string {
	r, _ := utf8.DecodeRuneInString(e.Text[e.Offset:])
	return fmt.Sprintf("qr: non-%s character %q at offset %d in %#q",
		e.Mode, r, e.Offset, e.Text)
}

// Is makes CharacterError match ErrInvalidCharacter.
func (e *CharacterError) Is(target error) bool {
	return target == ErrInvalidCharacter
}

// A Segment is a chunk of input data encoded in a single mode.
// A Segment is immutable.
type Segment struct {
	mode  Mode
	count int
	data  Bits
}

// Mode returns the encoding mode of s.
func (s Segment) Mode() Mode { return s.mode }

// Count returns the character count of s: digits, characters or
// bytes depending on the mode.
func (s Segment) Count() int { return s.count }

// Data returns a copy of the encoded data bits of s, without the
// header.
func (s Segment) Data() Bits { return s.data.Clone() }

// check returns the offset of the first byte in text not accepted by
// mode m, or -1.
func check(text string, m Mode) int {
	for i := 0; i < len(text); i++ {
		if !m.Accepts(text[i]) {
			return i
		}
	}
	return -1
}

// MakeNumeric returns a numeric mode segment encoding digits.
func MakeNumeric(digits string) (Segment, error) {
	if i := check(digits, Numeric); i >= 0 {
		return Segment{}, &CharacterError{Numeric, digits, i}
	}
	s := Segment{mode: Numeric, count: len(digits)}
	s.data.Grow((len(digits)*10 + 23) / 24)
	for len(digits) >= 3 {
		s.data.write(uint32(digits[0]-'0')*100+
			uint32(digits[1]-'0')*10+uint32(digits[2]-'0'), 10)
		digits = digits[3:]
	}
	switch len(digits) {
	case 2:
		s.data.write(uint32(digits[0]-'0')*10+uint32(digits[1]-'0'), 7)
	case 1:
		s.data.write(uint32(digits[0]-'0'), 4)
	}
	return s, nil
}

// MakeAlphanumeric returns an alphanumeric mode segment encoding text.
// Text may contain digits, upper case letters, space and $%*+-./:.
func MakeAlphanumeric(text string) (Segment, error) {
	if i := check(text, Alphanumeric); i >= 0 {
		return Segment{}, &CharacterError{Alphanumeric, text, i}
	}
	s := Segment{mode: Alphanumeric, count: len(text)}
	s.data.Grow((len(text)*11 + 15) / 16)
	for len(text) >= 2 {
		s.data.write(uint32(alpha[text[0]&0x3f])*45+
			uint32(alpha[text[1]&0x3f]), 11)
		text = text[2:]
	}
	if text != "" {
		s.data.write(uint32(alpha[text[0]&0x3f]), 6)
	}
	return s, nil
}

// MakeBytes returns a byte mode segment encoding data.
func MakeBytes(data []byte) Segment {
	return Segment{
		mode:  Byte,
		count: len(data),
		data:  Bits{b: append([]byte(nil), data...), nbit: len(data) * 8},
	}
}

// MakeLatin1 returns a byte mode segment encoding UTF-8 text as
// ISO 8859-1, the default character set of QR byte mode.
func MakeLatin1(text string) (Segment, error) {
	for i, r := range text {
		if r > 0xff {
			return Segment{}, &CharacterError{Byte, text, i}
		}
	}
	t, err := charmap.ISO8859_1.NewEncoder().String(text)
	if err != nil {
		return Segment{}, &CharacterError{Byte, text, 0}
	}
	return MakeBytes([]byte(t)), nil
}

// MakeText returns a segment encoding text in the most compact mode
// that accepts all of it.
func MakeText(text string) Segment {
	var s Segment
	var err error
	switch {
	case check(text, Numeric) < 0:
		s, err = MakeNumeric(text)
	case check(text, Alphanumeric) < 0:
		s, err = MakeAlphanumeric(text)
	default:
		s = MakeBytes([]byte(text))
	}
	if err != nil {
		panic("qr: internal error")
	}
	return s
}

// Length returns the encoded length of s in bits at QR version size
// class c, including the header.
func (s Segment) Length(c int) int {
	return 4 + s.mode.CountBits(c) + s.data.Len()
}

// TotalBits returns the number of bits needed to encode segs in a QR
// code of version v, not including the terminator.  The boolean is
// false if a segment's character count doesn't fit in its count field
// or the total overflows.
func TotalBits(segs []Segment, v Version) (int, bool) {
	if !v.Valid() {
		return 0, false
	}
	c := v.SizeClass()
	n := 0
	for i := range segs {
		s := &segs[i]
		if !s.mode.valid() {
			return 0, false
		}
		cb := s.mode.CountBits(c)
		if s.count >= 1<<cb {
			return 0, false
		}
		l := 4 + cb + s.data.Len()
		if n > math.MaxInt32-l {
			return 0, false
		}
		n += l
	}
	return n, true
}

// encode writes the header and data of s for size class c to b.
func (s *Segment) encode(b *Bits, c int) {
	b.write(s.mode.Indicator(), 4)
	b.write(uint32(s.count), s.mode.CountBits(c))
	b.appendBits(&s.data)
}

// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unixdj/qrgrid/coding"
)

func TestEncodeText(t *testing.T) {
	for _, tc := range []struct {
		name    string
		text    string
		level   Level
		version int
		want    Level
	}{
		{"alnum boosted", "HELLO WORLD", L, 1, Q},
		{"alnum at M", "HELLO WORLD", M, 1, Q},
		{"empty", "", L, 1, H},
		{"mixed", "https://example.com/ABC/0123456789012345", L, 3, M},
		{"class 1", strings.Repeat("a", 500), L, 15, L},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c, err := EncodeText(tc.text, tc.level)
			require.NoError(t, err)
			assert.Equal(t, tc.version, c.Version)
			assert.Equal(t, tc.want, c.Level)
			assert.Equal(t, 4*tc.version+17, c.Size)
			assert.Equal(t, (c.Size+7)/8, c.Stride)
			assert.Len(t, c.Bitmap, c.Size*c.Stride)
			assert.Equal(t, DefaultScale, c.Scale)
			assert.Equal(t, DefaultBorder, c.Border)
		})
	}
}

func TestEncodeTextOptions(t *testing.T) {
	c, err := EncodeText("HELLO WORLD", L, WithoutBoost())
	require.NoError(t, err)
	assert.Equal(t, L, c.Level)

	c, err = EncodeText("HELLO WORLD", L, WithVersionRange(5, 5), WithMask(6))
	require.NoError(t, err)
	assert.Equal(t, 5, c.Version)
	assert.Equal(t, H, c.Level)
	assert.Equal(t, 6, c.Mask)

	c, err = EncodeText(strings.Repeat("7", 100), M, WithVersionRange(8, 30))
	require.NoError(t, err)
	assert.Equal(t, 8, c.Version)

	_, err = EncodeText(strings.Repeat("a", 500), L, WithVersionRange(1, 14))
	assert.ErrorIs(t, err, ErrDataTooLong)
}

func TestEncodeTextErrors(t *testing.T) {
	_, err := EncodeText("x", 4)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = EncodeText("x", L, WithVersionRange(0, 40))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = EncodeText("x", L, WithVersionRange(30, 20))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = EncodeText("x", L, WithMask(8))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = EncodeText(strings.Repeat("\xff", 2954), L)
	assert.ErrorIs(t, err, ErrDataTooLong)
}

func TestEncodeTextMaxCapacity(t *testing.T) {
	c, err := EncodeText(strings.Repeat("\xff", 2953), L)
	require.NoError(t, err)
	assert.Equal(t, 40, c.Version)
	assert.Equal(t, 177, c.Size)

	// 7087 digits: 4+14+23624 bits plus the terminator.
	c, err = EncodeText(strings.Repeat("1", 7087), L)
	require.NoError(t, err)
	assert.Equal(t, 40, c.Version)
}

func TestEncodeBinary(t *testing.T) {
	c, err := EncodeBinary(nil, L)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Version)
	assert.Equal(t, H, c.Level)

	c, err = EncodeBinary([]byte("HELLO WORLD"), L, WithoutBoost())
	require.NoError(t, err)
	assert.Equal(t, 1, c.Version)
	assert.Equal(t, L, c.Level)
}

func TestEncodeSegments(t *testing.T) {
	num, err := coding.MakeNumeric("31415926535")
	require.NoError(t, err)
	lat, err := coding.MakeLatin1("Zürich")
	require.NoError(t, err)
	c, err := EncodeSegments([]Segment{num, lat}, Q, WithMask(3))
	require.NoError(t, err)
	assert.Equal(t, 3, c.Mask)
	assert.GreaterOrEqual(t, c.Level, Q)

	_, err = EncodeSegments([]Segment{num}, L, WithVersionRange(3, 2))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = EncodeSegments([]Segment{num}, L, WithMask(-2))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = coding.MakeNumeric("3.14")
	assert.ErrorIs(t, err, ErrInvalidCharacter)
}

// The same input always produces the same symbol.
func TestEncodeDeterministic(t *testing.T) {
	text := "The quick brown fox 0123456789 JUMPS OVER THE LAZY DOG"
	a, err := EncodeText(text, M)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		b, err := EncodeText(text, M)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "L", L.String())
	assert.Equal(t, "H", H.String())
	assert.Equal(t, "7", Level(7).String())
}

func testCode(t *testing.T) *Code {
	t.Helper()
	c, err := EncodeText("HELLO WORLD", M)
	require.NoError(t, err)
	return c
}

func TestBlack(t *testing.T) {
	c := testCode(t)
	assert.True(t, c.Black(0, 0))
	assert.False(t, c.Black(1, 1))
	assert.True(t, c.Black(3, 3))
	assert.False(t, c.Black(-1, 0))
	assert.False(t, c.Black(0, c.Size))
}

func TestString(t *testing.T) {
	c := testCode(t)
	c.Border = 1
	s := c.String()
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	pix := c.Size + 2
	require.Len(t, lines, (pix+1)/2)
	for i, l := range lines {
		assert.Equal(t, pix, utf8.RuneCountInString(l), "line %d", i)
	}
	// Border row paired with finder top edge: lower halves only at
	// the finder.
	assert.Equal(t, " "+strings.Repeat("▄", 7)+" ", string([]rune(lines[0])[:9]))
	// The last line pairs the bottom border row with the background.
	assert.Equal(t, strings.Repeat(" ", pix), lines[len(lines)-1])

	c.Reverse = true
	r := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n")
	assert.Equal(t, strings.Repeat("▀", pix), r[len(r)-1])

	assert.Empty(t, (&Code{}).String())
}

func TestImage(t *testing.T) {
	c := testCode(t)
	c.Scale = 2
	img := c.Image()
	d := (c.Size + 2*c.Border) * c.Scale
	assert.Equal(t, image.Rect(0, 0, d, d), img.Bounds())
	for y := 0; y < d; y++ {
		for x := 0; x < d; x++ {
			want := color.Color(color.Gray{0xff})
			if c.Black(x/2-c.Border, y/2-c.Border) {
				want = color.Gray{0}
			}
			require.Equal(t, want, img.At(x, y), "(%d, %d)", x, y)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	dec, err := png.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, img.Bounds(), dec.Bounds())
	for y := 0; y < d; y++ {
		for x := 0; x < d; x++ {
			g := color.GrayModel.Convert(dec.At(x, y)).(color.Gray)
			assert.Equal(t, c.Black(x/2-c.Border, y/2-c.Border), g.Y < 0x80,
				"(%d, %d)", x, y)
		}
	}
}

func TestImagePalette(t *testing.T) {
	c := testCode(t)
	bg, fg := color.RGBA{0, 0, 0xff, 0xff}, color.RGBA{0xff, 0xff, 0, 0xff}
	c.Palette = &[2]color.Color{bg, fg}
	img := c.Image()
	assert.Equal(t, color.Color(bg), img.At(0, 0))
	b := c.Border * c.Scale
	assert.Equal(t, color.Color(fg), img.At(b, b))
	c.Reverse = true
	img = c.Image()
	assert.Equal(t, color.Color(fg), img.At(0, 0))
	assert.Equal(t, color.Color(bg), img.At(b, b))
}

func TestImageInvalid(t *testing.T) {
	c := testCode(t)
	c.Scale = 0
	img := c.Image()
	assert.True(t, img.Bounds().Empty())
	assert.Equal(t, color.Color(color.Gray{0xff}), img.At(0, 0))
	assert.Equal(t, color.Color(color.Gray{0xff}), img.At(40, 40))

	c = testCode(t)
	c.Bitmap = c.Bitmap[:10]
	img = c.Image()
	assert.True(t, img.Bounds().Empty())
	assert.Equal(t, color.Color(color.Gray{0xff}), img.At(100, 100))
}

// readPBM parses a P4 image into rows of booleans.
func readPBM(t *testing.T, b []byte) [][]bool {
	t.Helper()
	f := strings.SplitN(string(b), "\n", 3)
	require.Len(t, f, 3)
	require.Equal(t, "P4", f[0])
	dim := strings.Fields(f[1])
	require.Len(t, dim, 2)
	w, err := strconv.Atoi(dim[0])
	require.NoError(t, err)
	h, err := strconv.Atoi(dim[1])
	require.NoError(t, err)
	data := []byte(f[2])
	stride := (w + 7) / 8
	require.Len(t, data, stride*h)
	rows := make([][]bool, h)
	for y := range rows {
		rows[y] = make([]bool, w)
		for x := range rows[y] {
			rows[y][x] = data[y*stride+x/8]&(0x80>>(x%8)) != 0
		}
	}
	return rows
}

func TestEncodePBM(t *testing.T) {
	c := testCode(t)
	for _, tc := range []struct {
		scale, border int
		reverse       bool
	}{
		{1, 0, false}, {1, 4, false}, {3, 2, false}, {4, 4, true},
		{5, 1, false}, {8, 4, false}, {9, 3, true},
	} {
		c.Scale, c.Border, c.Reverse = tc.scale, tc.border, tc.reverse
		var buf bytes.Buffer
		require.NoError(t, c.EncodePBM(&buf))
		rows := readPBM(t, buf.Bytes())
		d := (c.Size + 2*c.Border) * c.Scale
		require.Len(t, rows, d)
		for y, row := range rows {
			for x, black := range row {
				want := c.Black(x/c.Scale-c.Border, y/c.Scale-c.Border) != c.Reverse
				require.Equal(t, want, black, "%+v (%d, %d)", tc, x, y)
			}
		}
	}
}

func TestEncodePBMInvalid(t *testing.T) {
	c := testCode(t)
	c.Scale = 0
	assert.ErrorIs(t, c.EncodePBM(&bytes.Buffer{}), ErrArgs)
	c = testCode(t)
	c.Bitmap = c.Bitmap[:10]
	assert.ErrorIs(t, c.EncodePBM(&bytes.Buffer{}), ErrInvalidArgument)
}

func TestSetRun(t *testing.T) {
	row := make([]byte, 4)
	setRun(row, 3, 14)
	assert.Equal(t, []byte{0x1f, 0xff, 0x80, 0}, row)
	clear(row)
	setRun(row, 8, 8)
	assert.Equal(t, []byte{0, 0xff, 0, 0}, row)
	clear(row)
	setRun(row, 1, 2)
	assert.Equal(t, []byte{0x60, 0, 0, 0}, row)
}

func BenchmarkEncodeText(b *testing.B) {
	text := strings.Repeat("Lorem ipsum 1234567890 DOLOR SIT AMET ", 20)
	for i := 0; i < b.N; i++ {
		EncodeText(text, M)
	}
}

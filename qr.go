// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package qr encodes QR codes.

Text is split into numeric, alphanumeric and byte mode segments so
that the encoded data is as short as possible, the smallest QR
version holding it is chosen, and the error correction level is
raised as long as the data still fits.

	c, err := qr.EncodeText("HELLO WORLD", qr.M)
	if err != nil {
		return err
	}
	png.Encode(w, c.Image())
*/
package qr // import "github.com/unixdj/qrgrid"

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/unixdj/qrgrid/coding"
	"github.com/unixdj/qrgrid/split"
)

// A Level denotes a QR error correction level.
// From least to most tolerant of errors, they are L, M, Q, H.
type Level int

const (
	L Level = iota // 7% recoverable
	M              // 15% recoverable
	Q              // 25% recoverable
	H              // 30% recoverable
)

func (l Level) String() string { return coding.Level(l).String() }

// A Segment is a chunk of data encoded in a single mode.  Segments are
// made with coding.MakeNumeric, coding.MakeAlphanumeric,
// coding.MakeBytes and coding.MakeLatin1.
type Segment = coding.Segment

var (
	ErrDataTooLong      = coding.ErrDataTooLong
	ErrInvalidArgument  = coding.ErrInvalidArgument
	ErrInvalidCharacter = coding.ErrInvalidCharacter

	// ErrArgs is returned by renderers for a Code with bad fields.
	ErrArgs = fmt.Errorf("%w: bad Code fields", ErrInvalidArgument)
)

// Default rendering parameters of a Code.
const (
	DefaultScale  = 8 // image pixels per module
	DefaultBorder = 4 // quiet zone width in modules
)

type options struct {
	min, max coding.Version
	mask     int
	boost    bool
}

// An Option modifies the behaviour of EncodeSegments.
type Option func(*options)

// WithVersionRange limits the QR version to between min and max.
func WithVersionRange(min, max int) Option {
	return func(o *options) {
		o.min, o.max = coding.Version(min), coding.Version(max)
	}
}

// WithMask forces mask pattern m, 0 to 7.  -1 selects the mask with
// the lowest penalty, which is the default.
func WithMask(m int) Option {
	return func(o *options) { o.mask = m }
}

// WithoutBoost keeps the requested error correction level even when a
// higher one would fit in the same version.
func WithoutBoost() Option {
	return func(o *options) { o.boost = false }
}

// EncodeText returns an encoding of text at the given error correction
// level or higher.  Runs of digits and alphanumeric characters are
// encoded in the modes that represent them most compactly; any other
// bytes are encoded in byte mode unchanged.  Options are as for
// EncodeSegments.
func EncodeText(text string, level Level, opts ...Option) (*Code, error) {
	o := newOptions(opts)
	l := coding.Level(level)
	if !l.Valid() {
		return nil, coding.ErrLevel
	}
	if !o.min.Valid() || !o.max.Valid() || o.min > o.max {
		return nil, fmt.Errorf("%w: range %d to %d",
			coding.ErrVersion, o.min, o.max)
	}
	if o.mask < -1 || o.mask > 7 {
		return nil, coding.ErrMask
	}
	// The character count fields grow with the version size class,
	// so the split is redone for each class.
	err := ErrDataTooLong
	for class := o.min.SizeClass(); class <= o.max.SizeClass(); class++ {
		lo, hi := coding.ClassRange(class)
		lo, hi = max(lo, o.min), min(hi, o.max)
		if split.Length(text, class)+4 > hi.DataBits(l) {
			continue
		}
		var g *coding.Grid
		g, err = coding.Encode(split.Text(text, class), l, lo, hi,
			o.mask, o.boost)
		if err == nil {
			return newCode(g), nil
		}
		if !errors.Is(err, ErrDataTooLong) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %d bytes of text at level %s",
		err, len(text), level)
}

// EncodeBinary returns an encoding of data in byte mode at the given
// error correction level or higher.  Options are as for
// EncodeSegments.
func EncodeBinary(data []byte, level Level, opts ...Option) (*Code, error) {
	return EncodeSegments([]Segment{coding.MakeBytes(data)}, level, opts...)
}

func newOptions(opts []Option) options {
	o := options{
		min:   coding.MinVersion,
		max:   coding.MaxVersion,
		mask:  -1,
		boost: true,
	}
	for _, f := range opts {
		f(&o)
	}
	return o
}

// EncodeSegments returns an encoding of segs at the given error
// correction level.  By default any version may be used, the mask is
// chosen automatically and the level is boosted.
func EncodeSegments(segs []Segment, level Level, opts ...Option) (*Code, error) {
	o := newOptions(opts)
	g, err := coding.Encode(segs, coding.Level(level), o.min, o.max,
		o.mask, o.boost)
	if err != nil {
		return nil, err
	}
	return newCode(g), nil
}

func newCode(g *coding.Grid) *Code {
	return &Code{
		Bitmap:  g.Bitmap(),
		Size:    g.Size(),
		Stride:  g.Stride(),
		Version: int(g.Version()),
		Level:   Level(g.Level()),
		Mask:    g.Mask(),
		Scale:   DefaultScale,
		Border:  DefaultBorder,
	}
}

// A Code is a square pixel grid.
// It implements image.Image and direct PBM encoding.
type Code struct {
	Bitmap  []byte          // 1 is black, 0 is white
	Size    int             // number of pixels on a side
	Stride  int             // number of bytes per row
	Version int             // QR version
	Level   Level           // error correction level
	Mask    int             // mask pattern
	Scale   int             // number of image pixels per QR pixel
	Border  int             // quiet zone width in QR pixels
	Reverse bool            // reverse colours
	Palette *[2]color.Color // background and foreground; nil is white and black
}

// isValid reports whether the fields of c are consistent.
func (c *Code) isValid() bool {
	return c != nil && c.Size > 0 && c.Stride >= (c.Size+7)>>3 &&
		len(c.Bitmap) >= c.Size*c.Stride &&
		c.Scale > 0 && c.Border >= 0 &&
		c.Scale*(c.Size+2*c.Border) <= 1<<28
}

// Black returns true if the pixel at (x,y) is black.
// Pixels outside the code are white.
func (c *Code) Black(x, y int) bool {
	return 0 <= x && x < c.Size && 0 <= y && y < c.Size &&
		c.Bitmap[y*c.Stride+x>>3]&(0x80>>(x&7)) != 0
}

// String returns the code with its quiet zone drawn in UTF-8 half
// block characters, two pixels per character vertically.  Black
// pixels are drawn as blocks, unless c.Reverse is set.
func (c *Code) String() string {
	if !c.isValid() {
		return ""
	}
	blocks := [4]string{" ", "▄", "▀", "█"}
	bord := c.Border
	pix := c.Size + 2*bord
	var b strings.Builder
	b.Grow((pix*3 + 1) * (pix + 1) / 2)
	for y := -bord; y < c.Size+bord; y += 2 {
		for x := -bord; x < c.Size+bord; x++ {
			n := 0
			if c.Black(x, y) != c.Reverse {
				n |= 2
			}
			// The last row of an odd height is paired with a
			// background row.
			if y+1 < c.Size+bord && c.Black(x, y+1) != c.Reverse {
				n |= 1
			}
			b.WriteString(blocks[n])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Image returns an Image displaying the code, with a quiet zone of
// c.Border pixels and c.Scale image pixels per QR pixel.
func (c *Code) Image() image.Image {
	bg, fg := color.Color(color.Gray{0xff}), color.Color(color.Gray{0})
	if c.Palette != nil {
		bg, fg = c.Palette[0], c.Palette[1]
	}
	if c.Reverse {
		bg, fg = fg, bg
	}
	return &codeImage{c, color.Palette{bg, fg}}
}

// codeImage implements image.Image.  A Code with bad fields yields an
// empty image.
type codeImage struct {
	*Code
	pal color.Palette
}

func (c *codeImage) Bounds() image.Rectangle {
	if !c.isValid() {
		return image.Rectangle{}
	}
	d := (c.Size + 2*c.Border) * c.Scale
	return image.Rect(0, 0, d, d)
}

func (c *codeImage) At(x, y int) color.Color {
	return c.pal[c.ColorIndexAt(x, y)]
}

// ColorIndexAt returns the palette index of the pixel at (x, y),
// making codeImage usable as an image.PalettedImage.
func (c *codeImage) ColorIndexAt(x, y int) uint8 {
	if x < 0 || y < 0 || !c.isValid() {
		return 0
	}
	if c.Black(x/c.Scale-c.Border, y/c.Scale-c.Border) {
		return 1
	}
	return 0
}

func (c *codeImage) ColorModel() color.Model {
	return c.pal
}

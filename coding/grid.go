// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// A Grid is the module matrix of a QR code under construction.
// Modules are stored as bitmaps, one bit per module, most significant
// bit first; 1 is black.  A parallel function map marks modules
// belonging to function patterns and reserved areas, which are never
// overwritten by data or flipped by masks.
type Grid struct {
	version Version
	level   Level
	mask    int // committed mask, or -1
	size    int // number of pixels on a side
	stride  int // number of bytes per row
	bitmap  []byte
	fmap    []byte // function map: 1 is function, 0 is data
}

var errFinalized = fmt.Errorf("%w: grid finalized", ErrInvalidArgument)

// NewGrid returns an empty grid for a QR code of version v.
func NewGrid(v Version) (*Grid, error) {
	if !v.Valid() {
		return nil, ErrVersion
	}
	siz := v.Size()
	stride := (siz + 7) >> 3
	buf := make([]byte, 2*siz*stride)
	return &Grid{
		version: v,
		mask:    -1,
		size:    siz,
		stride:  stride,
		bitmap:  buf[:siz*stride],
		fmap:    buf[siz*stride:],
	}, nil
}

func (g *Grid) clone() *Grid {
	c := *g
	buf := make([]byte, len(g.bitmap)+len(g.fmap))
	c.bitmap = buf[:copy(buf, g.bitmap)]
	c.fmap = buf[len(g.bitmap):]
	copy(c.fmap, g.fmap)
	return &c
}

// Size returns the number of modules on a side of g.
func (g *Grid) Size() int { return g.size }

// Version returns the QR version of g.
func (g *Grid) Version() Version { return g.version }

// Level returns the error correction level committed by Finalize.
func (g *Grid) Level() Level { return g.level }

// Mask returns the mask committed by Finalize, or -1.
func (g *Grid) Mask() int { return g.mask }

// Stride returns the number of bytes per row in Bitmap.
func (g *Grid) Stride() int { return g.stride }

// Bitmap returns a copy of the module bitmap: Size rows of Stride
// bytes, most significant bit first, 1 is black.
func (g *Grid) Bitmap() []byte { return append([]byte(nil), g.bitmap...) }

// Module reports whether the module at (x, y) is black.
// Modules outside the grid are white.
func (g *Grid) Module(x, y int) bool {
	return 0 <= x && x < g.size && 0 <= y && y < g.size &&
		g.bitmap[y*g.stride+x>>3]&(0x80>>(x&7)) != 0
}

// IsFunction reports whether the module at (x, y) belongs to a
// function pattern or a reserved area.
func (g *Grid) IsFunction(x, y int) bool {
	return 0 <= x && x < g.size && 0 <= y && y < g.size &&
		g.fmap[y*g.stride+x>>3]&(0x80>>(x&7)) != 0
}

func (g *Grid) set(x, y int, black bool) {
	off, b := y*g.stride+x>>3, byte(0x80)>>(x&7)
	if black {
		g.bitmap[off] |= b
	} else {
		g.bitmap[off] &^= b
	}
}

// setFunction sets the module at (x, y) and marks it as function.
func (g *Grid) setFunction(x, y int, black bool) {
	g.set(x, y, black)
	g.fmap[y*g.stride+x>>3] |= 0x80 >> (x & 7)
}

// DrawFunctionPatterns draws the finder patterns with separators,
// timing patterns, alignment patterns, the dark module and, for
// versions 7 and up, the version information, and reserves the format
// information area.  It does nothing once the grid is finalized.
func (g *Grid) DrawFunctionPatterns() {
	if g.mask >= 0 {
		return
	}
	siz := g.size
	// Timing patterns (overwritten by finders).
	for i := 0; i < siz; i++ {
		g.setFunction(6, i, i&1 == 0)
		g.setFunction(i, 6, i&1 == 0)
	}

	// Position boxes with separators.
	g.finder(3, 3)
	g.finder(siz-4, 3)
	g.finder(3, siz-4)

	// Alignment boxes, except where they overlap the position boxes.
	pos := g.version.alignment()
	last := len(pos) - 1
	for i, x := range pos {
		for j, y := range pos {
			if i == 0 && (j == 0 || j == last) || i == last && j == 0 {
				continue
			}
			g.alignBox(x, y)
		}
	}

	g.drawFormatBits(0)
	if g.version >= 7 {
		g.drawVersion(versionInfo(g.version))
	}
}

// finder draws a 9x9 position box with separator centred at (x, y),
// clipped at the edges of the grid.
func (g *Grid) finder(x, y int) {
	for dy := -4; dy <= 4; dy++ {
		for dx := -4; dx <= 4; dx++ {
			xx, yy := x+dx, y+dy
			if 0 <= xx && xx < g.size && 0 <= yy && yy < g.size {
				d := max(abs(dx), abs(dy))
				g.setFunction(xx, yy, d != 2 && d != 4)
			}
		}
	}
}

// alignBox draws a 5x5 alignment box centred at (x, y).
func (g *Grid) alignBox(x, y int) {
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			g.setFunction(x+dx, y+dy, max(abs(dx), abs(dy)) != 1)
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// alignment returns the centre coordinates of alignment boxes on
// either axis, or nil for version 1.
func (v Version) alignment() []int {
	vt := &vtab[v]
	if vt.apos == 0 {
		return nil
	}
	pos := []int{6}
	for p := vt.apos; p <= v.Size()-7; p += vt.astride {
		pos = append(pos, p)
		if vt.astride == 0 {
			break
		}
	}
	return pos
}

// formatInfo returns the 15 bit format information for the given
// level and mask: 5 data bits followed by 10 BCH check bits, masked
// with 0x5412.
func formatInfo(l Level, mask int) uint32 {
	const formatPoly = 0x537
	data := l.formatBits()<<3 | uint32(mask)
	rem := data
	for i := 0; i < 10; i++ {
		rem = rem<<1 ^ rem>>9*formatPoly
	}
	return (data<<10 | rem&0x3ff) ^ 0x5412
}

// versionInfo returns the 18 bit version information for v: 6 data
// bits followed by 12 BCH check bits.
func versionInfo(v Version) uint32 {
	const versionPoly = 0x1f25
	rem := uint32(v)
	for i := 0; i < 12; i++ {
		rem = rem<<1 ^ rem>>11*versionPoly
	}
	return uint32(v)<<12 | rem&0xfff
}

// drawFormatBits writes both copies of the format information and the
// dark module.
func (g *Grid) drawFormatBits(fb uint32) {
	siz := g.size
	bit := func(i int) bool { return fb>>i&1 != 0 }
	// Around the top left position box.
	for i := 0; i < 6; i++ {
		g.setFunction(8, i, bit(i))
	}
	g.setFunction(8, 7, bit(6))
	g.setFunction(8, 8, bit(7))
	g.setFunction(7, 8, bit(8))
	for i := 9; i < 15; i++ {
		g.setFunction(14-i, 8, bit(i))
	}
	// Next to the top right and bottom left position boxes.
	for i := 0; i < 8; i++ {
		g.setFunction(siz-1-i, 8, bit(i))
	}
	for i := 8; i < 15; i++ {
		g.setFunction(8, siz-15+i, bit(i))
	}
	// One lonely black pixel
	g.setFunction(8, siz-8, true)
}

// drawVersion writes both 6x3 copies of the version information.
func (g *Grid) drawVersion(vb uint32) {
	for i := 0; i < 18; i++ {
		b := vb>>i&1 != 0
		a, c := g.size-11+i%3, i/3
		g.setFunction(a, c, b)
		g.setFunction(c, a, b)
	}
}

// DrawCodewords writes the codewords to the data modules in zigzag
// scan order: two-module columns from right to left, alternately
// upwards and downwards, skipping the vertical timing pattern.
// Modules left over after the last codeword stay white.
// It fails once the grid is finalized.
func (g *Grid) DrawCodewords(data []byte) error {
	if g.mask >= 0 {
		return errFinalized
	}
	if n := g.version.Bytes(); len(data) != n {
		return fmt.Errorf("%w: %d codewords for version %d, want %d",
			ErrInvalidArgument, len(data), g.version, n)
	}
	siz := g.size
	i, n := 0, len(data)*8
	for right := siz - 1; right >= 1; right -= 2 {
		if right == 6 { // vertical timing strip
			right = 5
		}
		up := (right+1)&2 == 0
		for vert := 0; vert < siz; vert++ {
			y := vert
			if up {
				y = siz - 1 - vert
			}
			for x := right; x > right-2; x-- {
				if i == n {
					return nil
				}
				if !g.IsFunction(x, y) {
					g.set(x, y, data[i>>3]>>(7&^i)&1 != 0)
					i++
				}
			}
		}
	}
	if i != n {
		panic("qr: internal error")
	}
	return nil
}

// Mask patterns:
//
//	0: ▄▀▄▀▄▀▄▀▄▀▄▀  1: ▄▄▄▄▄▄▄▄▄▄▄▄  2:  ██ ██ ██ ██  3: ▄█▀▄█▀▄█▀▄█▀
//	   ▄▀▄▀▄▀▄▀▄▀▄▀     ▄▄▄▄▄▄▄▄▄▄▄▄      ██ ██ ██ ██     ▀▄█▀▄█▀▄█▀▄█
//	   ▄▀▄▀▄▀▄▀▄▀▄▀     ▄▄▄▄▄▄▄▄▄▄▄▄      ██ ██ ██ ██     █▀▄█▀▄█▀▄█▀▄
//
//	4:    ███   ███  5:  ▄▄▄▄▄ ▄▄▄▄▄  6:    ▄▄▄   ▄▄▄  7: ▄█▄▀ ▀▄█▄▀ ▀
//	   ███   ███         █▀▄▀█ █▀▄▀█      ▄▀▄ █ ▄▀▄ █     ▄▀█▀▄ ▄▀█▀▄
//	      ███   ███      ██▄██ ██▄██      █▄▄▀  █▄▄▀      ▄  ▀██▄  ▀██
var maskFunc = [8]func(x, y int) bool{
	func(x, y int) bool { return (x+y)%2 == 0 },
	func(x, y int) bool { return y%2 == 0 },
	func(x, y int) bool { return x%3 == 0 },
	func(x, y int) bool { return (x+y)%3 == 0 },
	func(x, y int) bool { return (x/3+y/2)%2 == 0 },
	func(x, y int) bool { return x*y%2+x*y%3 == 0 },
	func(x, y int) bool { return (x*y%2+x*y%3)%2 == 0 },
	func(x, y int) bool { return ((x+y)%2+x*y%3)%2 == 0 },
}

// ApplyMask flips every data module for which the mask pattern holds.
// Applying the same mask twice restores the grid.  It fails once the
// grid is finalized.
func (g *Grid) ApplyMask(mask int) error {
	if mask < 0 || mask >= len(maskFunc) {
		return ErrMask
	}
	if g.mask >= 0 {
		return errFinalized
	}
	g.applyMask(mask)
	return nil
}

func (g *Grid) applyMask(mask int) {
	f := maskFunc[mask]
	for y := 0; y < g.size; y++ {
		row, frow := g.bitmap[y*g.stride:], g.fmap[y*g.stride:]
		for x := 0; x < g.size; x++ {
			b := byte(0x80) >> (x & 7)
			if frow[x>>3]&b == 0 && f(x, y) {
				row[x>>3] ^= b
			}
		}
	}
}

// Penalty scores g for mask selection; lower is better.  The total is
// the sum of penalties for runs and boxes of same-colour pixels,
// finder-like patterns and colour balance:
//
//   - runs of n >= 5 pixels in a row or column: n-2
//   - 2x2 boxes of one colour, possibly overlapping: 3
//   - 1011101 with 0000 on either side in a row or column, where
//     pixels outside the code count as white: 40 per side
//   - k% of black pixels: 10*floor(abs(k-50)/5)
func (g *Grid) Penalty() int {
	const (
		MinRun    = 5  // RunP:  miniumum run length
		RunPDelta = -2 // RunP:  add to run length
		BoxPP     = 3  // BoxP:  points per box
		FindPP    = 40 // FindP: points per pattern
		BalPP     = 10 // BalP:  points per 5%
	)
	siz := g.size
	p, dark := 0, 0
	row := make([]bool, siz)
	col := make([]bool, siz)
	for i := 0; i < siz; i++ {
		for j := 0; j < siz; j++ {
			row[j] = g.Module(j, i)
			col[j] = g.Module(i, j)
		}
		for _, line := range [2][]bool{row, col} {
			// RunP
			r := 1
			for j := 1; j < siz; j++ {
				if line[j] == line[j-1] {
					r++
					continue
				}
				if r >= MinRun {
					p += r + RunPDelta
				}
				r = 1
			}
			if r >= MinRun {
				p += r + RunPDelta
			}
			// FindP
			for j := 0; j+7 <= siz; j++ {
				if !finderCore(line[j : j+7]) {
					continue
				}
				if white(line, j-4, j) {
					p += FindPP
				}
				if white(line, j+7, j+11) {
					p += FindPP
				}
			}
		}
		// BoxP and BalP count
		for j := 0; j < siz; j++ {
			if row[j] {
				dark++
			}
			if i > 0 && j > 0 {
				c := row[j]
				if row[j-1] == c && g.Module(j, i-1) == c &&
					g.Module(j-1, i-1) == c {
					p += BoxPP
				}
			}
		}
	}
	// BalP
	sq := siz * siz
	k := abs(dark*20-sq*10) / sq
	return p + k*BalPP
}

// finderCore reports whether the seven pixels are 1011101.
func finderCore(s []bool) bool {
	return s[0] && !s[1] && s[2] && s[3] && s[4] && !s[5] && s[6]
}

// white reports whether line[from:to] is white, treating pixels
// outside the line as white.
func white(line []bool, from, to int) bool {
	for i := max(from, 0); i < min(to, len(line)); i++ {
		if line[i] {
			return false
		}
	}
	return true
}

// maskPenalty returns the penalty of g with the given mask and the
// format information for level l applied.  g is restored on return,
// except for the format information.
func (g *Grid) maskPenalty(l Level, mask int) int {
	g.drawFormatBits(formatInfo(l, mask))
	g.applyMask(mask)
	defer g.applyMask(mask)
	return g.Penalty()
}

// SelectBestMask returns the mask giving the lowest penalty for level
// l, the lowest numbered one on ties.  Masks are scored concurrently
// on scratch copies; g is not modified.
func (g *Grid) SelectBestMask(l Level) int {
	var pen [len(maskFunc)]int
	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for mask := range pen {
		mask := mask
		c := g.clone()
		eg.Go(func() error {
			pen[mask] = c.maskPenalty(l, mask)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		panic("qr: internal error: " + err.Error())
	}
	best := 0
	for mask, p := range pen {
		if p < pen[best] {
			best = mask
		}
	}
	return best
}

// Finalize applies the mask and writes the format information for
// level l and the mask.  It must be called once, after DrawCodewords.
func (g *Grid) Finalize(l Level, mask int) error {
	if !l.Valid() {
		return ErrLevel
	}
	if mask < 0 || mask >= len(maskFunc) {
		return ErrMask
	}
	if g.mask >= 0 {
		return fmt.Errorf("%w: mask %d already committed",
			ErrInvalidArgument, g.mask)
	}
	g.applyMask(mask)
	g.drawFormatBits(formatInfo(l, mask))
	g.level, g.mask = l, mask
	return nil
}

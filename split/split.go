// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package split splits text into QR code segments.

Each byte of the text is classified by the modes that can encode it:
digits by numeric, alphanumeric and byte mode, the rest of the
alphanumeric set by alphanumeric and byte mode, anything else by byte
mode only.  Runs of bytes in the same class form spans, and the
cheapest chain of segments over the spans is found by dynamic
programming at a given QR version size class.
*/
package split // import "github.com/unixdj/qrgrid/split"

import "github.com/unixdj/qrgrid/coding"

const (
	numMode    = coding.Numeric
	alphaMode  = coding.Alphanumeric
	stringMode = coding.Byte
	modes      = 3 // total number of modes

	numModes    = 1<<numMode | 1<<alphaMode | 1<<stringMode
	alphaModes  = 1<<alphaMode | 1<<stringMode
	stringModes = 1 << stringMode
)

// A chain is a sequence of segments covering the text from start to
// the end.  The first segment is encoded in mode and spans n bytes;
// the rest follow via next.
type chain struct {
	next  *chain
	start int
	n     int
	bits  int // encoded length of the whole chain
	mode  coding.Mode
}

// A span is a maximal run of bytes accepted by the same set of modes.
type span struct {
	start int
	n     int
	modes byte         // bit field of usable modes
	best  [modes]chain // cheapest chains from start, by first mode
}

// modesOf returns the bit field of modes accepting c.
func modesOf(c byte) byte {
	switch {
	case numMode.Accepts(c):
		return numModes
	case alphaMode.Accepts(c):
		return alphaModes
	}
	return stringModes
}

// classify cuts text into spans.  A mode usable in every span costs
// more than the most compact mode also usable everywhere, so all such
// modes but the most compact one are removed.
func classify(text string) []span {
	var sp []span
	common := ^byte(0)
	for i := 0; i < len(text); i++ {
		m := modesOf(text[i])
		if len(sp) == 0 || sp[len(sp)-1].modes != m {
			sp = append(sp, span{start: i, modes: m})
			common &= m
		}
		sp[len(sp)-1].n++
	}
	drop := common &^ (common & -common)
	for i := range sp {
		sp[i].modes &^= drop
	}
	return sp
}

// split finds the cheapest chain of segments over sp at the given
// size class.  Spans are visited from the last one back.  For each
// usable mode of a span, every cheapest chain of the following span
// is tried as a continuation; a continuation in the same mode is
// absorbed into a single longer segment.  On ties the lowest mode
// wins.  split returns nil for no spans.
func split(sp []span, class int) *chain {
	const inf = 1 << 30
	for i := len(sp) - 1; i >= 0; i-- {
		s := &sp[i]
		for m := coding.Mode(0); m < modes; m++ {
			best := chain{bits: inf}
			switch {
			case s.modes>>m&1 == 0:
			case i == len(sp)-1:
				best = chain{
					start: s.start,
					n:     s.n,
					bits:  m.Length(s.n, class),
					mode:  m,
				}
			default:
				for k := range sp[i+1].best {
					tail := &sp[i+1].best[k]
					if tail.bits == inf {
						continue
					}
					c := chain{next: tail, start: s.start, n: s.n, mode: m}
					if tail.mode == m {
						c.n += tail.n
						c.next = tail.next
					}
					c.bits = m.Length(c.n, class)
					if c.next != nil {
						c.bits += c.next.bits
					}
					if c.bits < best.bits {
						best = c
					}
				}
			}
			s.best[m] = best
		}
	}
	if len(sp) == 0 {
		return nil
	}
	first := &sp[0].best[0]
	for m := 1; m < modes; m++ {
		if sp[0].best[m].bits < first.bits {
			first = &sp[0].best[m]
		}
	}
	return first
}

// Length returns the encoded length in bits of the segments returned
// by Text for the same arguments, headers included.
func Length(text string, class int) int {
	if c := split(classify(text), class); c != nil {
		return c.bits
	}
	return 0
}

// Text splits text into segments with the smallest encoded length at
// QR version size class class.  Numeric and alphanumeric runs are
// preferred over byte mode where the savings outweigh the cost of
// extra segment headers.  An empty text yields no segments.
func Text(text string, class int) []coding.Segment {
	c := split(classify(text), class)
	n := 0
	for p := c; p != nil; p = p.next {
		n++
	}
	segs := make([]coding.Segment, 0, n)
	for ; c != nil; c = c.next {
		s := text[c.start : c.start+c.n]
		var (
			e   coding.Segment
			err error
		)
		switch c.mode {
		case numMode:
			e, err = coding.MakeNumeric(s)
		case alphaMode:
			e, err = coding.MakeAlphanumeric(s)
		default:
			e = coding.MakeBytes([]byte(s))
		}
		if err != nil {
			panic("qr: internal error: " + err.Error())
		}
		segs = append(segs, e)
	}
	return segs
}

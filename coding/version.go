// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"fmt"

	"github.com/unixdj/qrgrid/gf256"
)

// A version describes metadata associated with a version.
type version struct {
	apos    int // position of the first alignment box after 6, or 0
	astride int // distance between alignment boxes, or 0
	bytes   int // total codewords
	pattern int // 18 bit version information
	level   [4]level
}

type level struct {
	nblock int // number of error correction blocks
	check  int // check bytes per block
}

// terminator is the length of the terminator in bits.
const terminator = 4

// SelectVersion returns the smallest version between min and max
// whose data capacity at level l holds segs followed by the
// terminator.  If boost is set, the level is then raised as far as
// the chosen version still holds the data.
func SelectVersion(segs []Segment, l Level, min, max Version, boost bool) (Version, Level, error) {
	if !l.Valid() {
		return 0, 0, ErrLevel
	}
	if !min.Valid() || !max.Valid() || min > max {
		return 0, 0, fmt.Errorf("%w: range %d to %d", ErrVersion, min, max)
	}
	for i := range segs {
		if !segs[i].mode.valid() {
			return 0, 0, fmt.Errorf("%w: mode %s",
				ErrInvalidArgument, segs[i].mode)
		}
	}
	v := min
	n := 0
	for ; ; v++ {
		if v > max {
			return 0, 0, fmt.Errorf("%w: no version up to %d holds the data at level %s",
				ErrDataTooLong, max, l)
		}
		var ok bool
		if n, ok = TotalBits(segs, v); ok && n+terminator <= v.DataBits(l) {
			break
		}
	}
	for boost && l < H && n+terminator <= v.DataBits(l+1) {
		l++
	}
	return v, l, nil
}

// AddECCAndInterleave splits data into error correction blocks for the
// given version and level, computes the check bytes for each block
// and returns the final codeword sequence: data bytes interleaved
// column by column across blocks, followed by check bytes interleaved
// likewise.  Short blocks come first; long blocks carry one extra data
// byte.
func AddECCAndInterleave(data []byte, v Version, l Level) ([]byte, error) {
	if !v.Valid() {
		return nil, ErrVersion
	}
	if !l.Valid() {
		return nil, ErrLevel
	}
	nd := v.DataBytes(l)
	if len(data) != nd {
		return nil, fmt.Errorf("%w: %d data bytes for version %d-%s, want %d",
			ErrInvalidArgument, len(data), v, l, nd)
	}
	nblock, check := v.Blocks(l)
	out := make([]byte, v.Bytes())
	db := nd / nblock
	short := (db+1)*nblock - nd // number of short blocks
	ecc := make([]byte, nblock*check)
	if nblock == 1 {
		copy(out, data)
	} else {
		interleave(out[:nd], data, nblock)
	}
	rs := gf256.NewRSEncoder(Field, check)
	src := data
	for i := 0; i < nblock; i++ {
		n := db
		if i >= short {
			n++
		}
		rs.ECC(src[:n], ecc[i*check:(i+1)*check])
		src = src[n:]
	}
	if nblock == 1 {
		copy(out[nd:], ecc)
	} else {
		interleave(out[nd:], ecc, nblock)
	}
	return out, nil
}

// interleave interleaves nblock blocks from src to dst, which must be
// of equal length.  Blocks are len(src)/nblock bytes long, except that
// the last len(src)%nblock blocks are one byte longer.
func interleave(dst, src []byte, nblock int) {
	db := len(src) / nblock
	extra := dst[db*nblock:]
	dst = dst[:db*nblock]
	normal := nblock - len(extra)
	for i := 0; i < nblock; i++ {
		for j, v := range src[:db] {
			dst[j*nblock+i] = v
		}
		src = src[db:]
		if i >= normal {
			extra[i-normal] = src[0]
			src = src[1:]
		}
	}
}

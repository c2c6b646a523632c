// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

// Encode encodes segs at level l or higher into a finished Grid of
// the smallest version between min and max that holds the data.  If
// mask is -1, the mask with the lowest penalty is chosen, otherwise
// mask 0 to 7 is used.  If boost is set, the level is raised as far as
// the version still holds the data.  All arguments are validated
// before the grid is built.
func Encode(segs []Segment, l Level, min, max Version, mask int, boost bool) (*Grid, error) {
	if mask < -1 || mask >= len(maskFunc) {
		return nil, ErrMask
	}
	v, l, err := SelectVersion(segs, l, min, max, boost)
	if err != nil {
		return nil, err
	}

	// Concatenate segments, add terminator, padding and checksum.
	b := NewBits(v)
	class := v.SizeClass()
	for i := range segs {
		segs[i].encode(b, class)
	}
	if err := b.Terminate(v, l); err != nil {
		return nil, err
	}
	data, err := AddECCAndInterleave(b.Bytes(), v, l)
	if err != nil {
		return nil, err
	}

	// Construct the code.
	g, err := NewGrid(v)
	if err != nil {
		return nil, err
	}
	g.DrawFunctionPatterns()
	if err := g.DrawCodewords(data); err != nil {
		return nil, err
	}
	if mask < 0 {
		mask = g.SelectBestMask(l)
	}
	if err := g.Finalize(l, mask); err != nil {
		return nil, err
	}
	return g, nil
}

// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"bufio"
	"io"
	"strconv"
)

// EncodePBM writes a Portable Bit Map image displaying the code to w,
// for use with netpbm.  The image has a quiet zone of c.Border pixels
// and c.Scale image pixels per QR pixel.  EncodePBM disregards
// c.Palette, as other PNM formats are not supported.
func (c *Code) EncodePBM(w io.Writer) error {
	if !c.isValid() {
		return ErrArgs
	}
	b := bufio.NewWriter(w)
	length := c.Scale * (c.Size + 2*c.Border)
	ls := strconv.Itoa(length)
	if _, err := b.WriteString("P4\n" + ls + " " + ls + "\n"); err != nil {
		return err
	}
	row := make([]byte, (length+7)>>3)
	for y := -c.Border; y < c.Size+c.Border; y++ {
		c.pbmRow(row, y)
		for i := 0; i < c.Scale; i++ {
			if _, err := b.Write(row); err != nil {
				return err
			}
		}
	}
	return b.Flush()
}

// pbmRow encodes QR pixel row y, quiet zone included, into row at
// c.Scale bits per pixel.  In PBM, 1 is black.
func (c *Code) pbmRow(row []byte, y int) {
	clear(row)
	for x := -c.Border; x < c.Size+c.Border; x++ {
		if c.Black(x, y) != c.Reverse {
			setRun(row, (x+c.Border)*c.Scale, c.Scale)
		}
	}
}

// setRun sets n bits of row starting at bit i, most significant bit
// of each byte first.
func setRun(row []byte, i, n int) {
	for ; n > 0 && i&7 != 0; n-- {
		row[i>>3] |= 0x80 >> (i & 7)
		i++
	}
	for ; n >= 8; n -= 8 {
		row[i>>3] = 0xff
		i += 8
	}
	if n > 0 {
		row[i>>3] |= ^byte(0xff >> n)
	}
}

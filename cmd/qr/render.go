package main

import (
	"bufio"
	"fmt"
	"image/color"
	"image/png"
	"io"
	"strconv"
	"strings"

	"github.com/unixdj/qrgrid"
)

var formats = []string{
	"png", "pngi", "pbm", "pbmi", "eps", "epsi",
	"utf8", "utf8i", "ascii", "asciii",
}

var encoders = [...]func(*qr.Code, io.Writer) error{
	func(c *qr.Code, w io.Writer) error { return png.Encode(w, c.Image()) },
	(*qr.Code).EncodePBM,
	eps,
	func(c *qr.Code, w io.Writer) error {
		_, err := io.WriteString(w, c.String())
		return err
	},
	ascii,
}

// parseFormat returns the encoder index for the format name and
// whether colours are reversed.
func parseFormat(s string) (int, bool, error) {
	for i, v := range formats {
		if s == v {
			return i >> 1, i&1 != 0, nil
		}
	}
	return 0, false, fmt.Errorf("%q: unknown output format", s)
}

// rgba is a colour given on the command line or in the environment.
type rgba struct {
	R, G, B, A uint8
}

var (
	black = rgba{0x00, 0x00, 0x00, 0xff}
	white = rgba{0xff, 0xff, 0xff, 0xff}
)

func (c *rgba) String() string {
	switch {
	case *c == black:
		return "black"
	case *c == white:
		return "white"
	case c.A == 0xff:
		return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// parse sets c from a colour name, or from 3 or 4 hex digits (one
// per component) or 6 or 8 (two per component).  Alpha defaults to
// opaque.
func (c *rgba) parse(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "black":
		*c = black
		return nil
	case "white":
		*c = white
		return nil
	}
	var w int // hex digits per component
	switch len(s) {
	case 3, 4:
		w = 1
	case 6, 8:
		w = 2
	default:
		return fmt.Errorf("%q: bad colour spec", s)
	}
	v := [4]uint8{3: 0xff}
	for i := 0; i < len(s)/w; i++ {
		n, err := strconv.ParseUint(s[i*w:(i+1)*w], 16, 8)
		if err != nil {
			return fmt.Errorf("%q: bad colour spec", s)
		}
		if w == 1 {
			n *= 0x11
		}
		v[i] = uint8(n)
	}
	*c = rgba{v[0], v[1], v[2], v[3]}
	return nil
}

// palette returns the palette for bg and fg, or nil for the default
// black on white.
func palette(bg, fg rgba) *[2]color.Color {
	if bg == white && fg == black {
		return nil
	}
	return &[2]color.Color{color.RGBA(bg), color.RGBA(fg)}
}

// randr rotates and reflects c.  Destination module (x, y) is read
// from source coordinate cx set to x and the other set to y, each
// counted from the far edge when its increment is negative.
func randr(c *qr.Code, cx int, inc [2]int) *qr.Code {
	if cx == 0 && inc == [2]int{1, 1} {
		return c
	}
	n := c.Size
	from := func(i, d int) int {
		if d < 0 {
			return n - 1 - i
		}
		return i
	}
	r := *c
	r.Stride = (n + 7) >> 3
	r.Bitmap = make([]byte, n*r.Stride)
	var src [2]int
	for y := 0; y < n; y++ {
		src[cx^1] = from(y, inc[1])
		for x := 0; x < n; x++ {
			src[cx] = from(x, inc[0])
			if c.Black(src[0], src[1]) {
				r.Bitmap[y*r.Stride+x>>3] |= 0x80 >> (x & 7)
			}
		}
	}
	return &r
}

// psColour formats col as PostScript RGB operands.
func psColour(col color.Color) string {
	r, g, b, _ := col.RGBA()
	return fmt.Sprintf("%.3g %.3g %.3g",
		float64(r)/0xffff, float64(g)/0xffff, float64(b)/0xffff)
}

// eps writes c as Encapsulated PostScript centred on a US letter page,
// c.Scale points per module.  Each row of dark modules is one path of
// horizontal runs.
func eps(c *qr.Code, w io.Writer) error {
	const pageW, pageH = 612, 792
	n, scale, bord := c.Size, c.Scale, c.Border
	ext := (n + 2*bord) * scale
	x0, y0 := (pageW-ext)/2, (pageH-ext)/2
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%%!PS-Adobe-2.0 EPSF-2.0\n"+
		"%%%%Creator: qrgrid\n"+
		"%%%%Title: QR Code %d-%s\n"+
		"%%%%BoundingBox: %d %d %d %d\n"+
		"%%%%EndComments\n%%%%EndProlog\n",
		c.Version, c.Level, x0-1, y0-1, pageW-x0, pageH-y0)
	fmt.Fprintf(bw, `<< >> begin
gsave
%g %g translate
%d dup neg scale
/row 0 def
/p { 0 rmoveto 0 rlineto } def
/r { 0 row 1 add dup /row exch def moveto } def
`,
		pageW/2-float64(n*scale)/2, pageH/2+float64((n-1)*scale)/2-1,
		scale)
	if c.Palette != nil || c.Reverse {
		bg, fg := color.Color(color.White), color.Color(color.Black)
		if c.Palette != nil {
			bg, fg = c.Palette[0], c.Palette[1]
		}
		if c.Reverse {
			bg, fg = fg, bg
		}
		// Paint the background as one thick stroke across the page
		// area of the code.
		fmt.Fprintf(bw, "gsave\nnewpath %d %d moveto\n%d dup neg scale\n"+
			"%s setrgbcolor\n1 0 rlineto stroke\ngrestore\n"+
			"%s setrgbcolor\n",
			-bord, n/2, n+2*bord, psColour(bg), psColour(fg))
	}
	bw.WriteString("newpath 0 0 moveto\n")
	for y := 0; y < n; y++ {
		pen := 0
		for x := 0; x < n; {
			if !c.Black(x, y) {
				x++
				continue
			}
			start := x
			for x < n && c.Black(x, y) {
				x++
			}
			fmt.Fprintf(bw, "%d %d p ", x-start, start-pen)
			pen = x
		}
		bw.WriteString("r\n")
	}
	bw.WriteString("stroke grestore\nend\n%%Trailer\n")
	return bw.Flush()
}

// ascii writes c with each module drawn as two characters, "##" for
// black and spaces for white.
func ascii(c *qr.Code, w io.Writer) error {
	bw := bufio.NewWriter(w)
	lo, hi := -c.Border, c.Size+c.Border
	for y := lo; y < hi; y++ {
		for x := lo; x < hi; x++ {
			if c.Black(x, y) != c.Reverse {
				bw.WriteString("##")
			} else {
				bw.WriteString("  ")
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Command qr writes QR codes.
package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pborman/getopt/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/unixdj/qrgrid"
	"github.com/unixdj/qrgrid/coding"
)

var g = struct {
	scale    int      // scale
	border   int      // quiet zone
	rev      bool     // reverse colours
	fn       string   // filename
	lev      qr.Level // QR correction level
	vmin     int      // lowest QR version
	vmax     int      // highest QR version
	mask     int      // mask pattern, or -1
	format   int      // output file format
	cx       int      // randr source X coordinate index in inc
	inc      [2]int   // randr source X,Y coordinate increments
	bg, fg   rgba     // colour
	latin1   bool     // Latin-1 byte mode
	byteOnly bool     // byte mode only
	upper    bool     // uppercase
	noBoost  bool     // keep the requested level
	verbose  bool     // log the chosen parameters
}{
	inc:  [2]int{1, 1},
	vmin: int(coding.MinVersion),
	vmax: int(coding.MaxVersion),
	mask: -1,
	bg:   white,
	fg:   black,
}

var log = slog.Default()

func printUsage(w io.Writer) {
	cl := getopt.CommandLine
	prog := cl.Program()
	ul := make([]string, 1, 4)
	ul[0] = cl.UsageLine() + " [string ...]"
	ml := max(70-len("Usage: ")-1-len(prog), 0)
	for i := 0; len(ul[i]) > ml; i++ {
		s := ul[i]
		n := ml - 1
		for n > 0 && (s[n] != ' ' || s[n+1] != '[') {
			n--
		}
		ul = append(ul, s[n+1:])
		ul[i] = s[:max(n, 0)]
		ml = 60
	}
	fmt.Fprint(w, "QR code generator\nUsage: ", prog, " ",
		strings.Join(ul, "\n          "), `
If no string is given, data is read from standard input and the final
newline is stripped.  Defaults for -l, -s, -m, -t, -B and -F are taken
from QR_LEVEL, QR_SCALE, QR_BORDER, QR_FORMAT, QR_BACKGROUND and
QR_FOREGROUND, which may be set in ./.env.  QR_LOG_LEVEL sets the log
level.

`)
	var b bytes.Buffer
	cl.PrintOptions(&b)
	w.Write(b.Bytes())
}

type opt func()

func (opt) String() string                    { return "" }
func (o opt) Set(string, getopt.Option) error { o(); return nil }

// colourFlag is a getopt.Value setting an rgba.
type colourFlag struct{ c *rgba }

func (f colourFlag) String() string                      { return f.c.String() }
func (f colourFlag) Set(s string, _ getopt.Option) error { return f.c.parse(s) }

// versionRange is a getopt.Value holding "ver" or "min-max".
type versionRange struct{ min, max *int }

func (v versionRange) String() string {
	return strconv.Itoa(*v.min) + "-" + strconv.Itoa(*v.max)
}

func (v versionRange) Set(s string, _ getopt.Option) error {
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		hi = lo
	}
	a, err := strconv.Atoi(lo)
	if err != nil {
		return fmt.Errorf("%q: bad version range", s)
	}
	b, err := strconv.Atoi(hi)
	if err != nil {
		return fmt.Errorf("%q: bad version range", s)
	}
	if a < int(coding.MinVersion) || b > int(coding.MaxVersion) || a > b {
		return fmt.Errorf("%q: versions must be within %d-%d",
			s, coding.MinVersion, coding.MaxVersion)
	}
	*v.min, *v.max = a, b
	return nil
}

func usage() {
	printUsage(os.Stderr)
	os.Exit(2)
}

func help() {
	printUsage(os.Stdout)
	os.Exit(0)
}

func version() {
	fmt.Println(`qr version 0.9.0
Copyright (c) 2011 The Go Authors
Copyright (c) 2025 Vadim Vygonets`)
	os.Exit(0)
}

func flip() {
	g.inc[0] = -g.inc[0]
}

func rotate() {
	g.cx ^= 1
	m := g.inc[0] * g.inc[1]
	g.inc[0] *= m
	g.inc[1] *= -m
}

// parseFlags parses the command line, with defaults taken from cfg.
func parseFlags(cfg config) error {
	if err := g.bg.parseDefault(cfg.Background); err != nil {
		return fmt.Errorf("QR_BACKGROUND: %w", err)
	}
	if err := g.fg.parseDefault(cfg.Foreground); err != nil {
		return fmt.Errorf("QR_FOREGROUND: %w", err)
	}
	g.scale, g.border = cfg.Scale, cfg.Border

	getopt.SetUsage(usage)
	getopt.Flag(opt(help), 'h', "show this help").SetFlag()
	getopt.Flag(opt(version), 'V', "print version and copyright").SetFlag()
	getopt.FlagLong(colourFlag{&g.bg}, "background", 'B',
		`background colour; see -F`, "RGB[A]")
	getopt.FlagLong(colourFlag{&g.fg}, "foreground", 'F',
		`foreground colour as 3, 4, 6 or 8 hex digits, "black" or `+
			`"white"; only for types png[i] and eps[i]`, "RGB[A]")
	getopt.Flag(opt(flip), 'f', `flip code horizontally; `+
		`to flip vertically, use "-frr"`).SetFlag()
	getopt.Flag(opt(rotate), 'r', `rotate code 90° counterclockwise; `+
		`-r and -f may be given multiple times, `+
		`order matters: "-fr" = "-rfrr" = "-rrrf"`).SetFlag()
	getopt.Flag(&g.latin1, '1',
		"convert input from UTF-8 to Latin-1 for byte mode")
	getopt.Flag(&g.byteOnly, '8', "encode entire data in byte mode")
	getopt.Flag(&g.upper, 'i', `ignore case, convert input to uppercase`)
	getopt.Flag(&g.noBoost, 'n', `don't raise the error correction level`)
	getopt.Flag(&g.verbose, 'd', `log the chosen version, level and mask`)
	getopt.Flag(&g.scale, 's', `image pixels (type eps[i]: points) `+
		`per QR module ("pixel"); ignored for types utf8[i] and ascii[i]`,
		"scale")
	getopt.Flag(&g.border, 'm', `quiet zone pixels`, "margin")
	getopt.Flag(&g.mask, 'M', `mask pattern 0-7, or -1 to choose`, "mask")
	getopt.Flag(versionRange{&g.vmin, &g.vmax}, 'v',
		`QR version or range of versions, 1-40`, "ver[-ver]")
	fno := getopt.Flag(&g.fn, 'o', `output file, or "-" for `+
		`standard output`, "file")
	lev := getopt.Enum('l',
		[]string{"l", "m", "q", "h", "L", "M", "Q", "H"}, cfg.Level,
		"error correction level, lowest to highest", "l|m|q|h")
	ff := getopt.Enum('t', formats, cfg.Format, `output format, one of: `+
		strings.Join(formats, ", ")+
		`; types with "i" appended have colours inverted; `+
		`if no -o is given and standard output is a TTY, `+
		`default is utf8, otherwise png`, "type")

	getopt.Parse()
	if g.scale < 1 || g.scale > 1<<20 {
		return fmt.Errorf("%d: bad scale", g.scale)
	}
	if g.border < 0 || g.border > 1<<10 {
		return fmt.Errorf("%d: bad margin", g.border)
	}
	if g.mask < -1 || g.mask > 7 {
		return fmt.Errorf("%d: bad mask", g.mask)
	}
	n := strings.Index("lmqhLMQH", *lev)
	if len(*lev) != 1 || n < 0 {
		return fmt.Errorf("%q: bad level", *lev)
	}
	g.lev = qr.Level(n & 3)
	if *ff == "" {
		if !fno.Seen() && isatty.IsTerminal(os.Stdout.Fd()) {
			*ff = "utf8"
		} else {
			*ff = "png"
		}
	}
	var err error
	if g.format, g.rev, err = parseFormat(*ff); err != nil {
		return err
	}
	if g.fn == "-" {
		g.fn = ""
	}
	return nil
}

// parseDefault sets c from s unless s is empty.
func (c *rgba) parseDefault(s string) error {
	if s == "" {
		return nil
	}
	return c.parse(s)
}

// fatal logs err and exits.
func fatal(msg string, err error) {
	log.Error(msg, "err", err)
	os.Exit(1)
}

func main() {
	cfg, err := loadConfig("")
	if err != nil {
		fatal("config", err)
	}
	lvl, err := cfg.logLevel()
	if err != nil {
		fatal("config", err)
	}
	log = slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: lvl}))
	if err := parseFlags(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
	}
	if g.verbose && lvl > slog.LevelInfo {
		log = slog.New(slog.NewTextHandler(os.Stderr,
			&slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	var s string
	if args := getopt.Args(); len(args) != 0 {
		s = strings.Join(args, " ")
	} else {
		var b strings.Builder
		if _, err := io.Copy(&b, os.Stdin); err != nil {
			fatal("read", err)
		}
		s, _ = strings.CutSuffix(
			strings.ReplaceAll(b.String(), "\r\n", "\n"), "\n")
	}
	if g.upper {
		s = strings.ToUpper(s)
	}

	c, err := encode(s)
	if err != nil {
		fatal("encode", err)
	}
	log.Info("encoded", "bytes", len(s), "version", c.Version,
		"level", c.Level, "mask", c.Mask, "size", c.Size)
	if err := write(c); err != nil {
		fatal("write", err)
	}
}

// encode encodes s according to the flags.
func encode(s string) (*qr.Code, error) {
	opts := []qr.Option{
		qr.WithVersionRange(g.vmin, g.vmax),
		qr.WithMask(g.mask),
	}
	if g.noBoost {
		opts = append(opts, qr.WithoutBoost())
	}
	if g.latin1 {
		t, err := charmap.ISO8859_1.NewEncoder().String(s)
		if err != nil {
			return nil, fmt.Errorf("%w: input not representable in Latin-1",
				qr.ErrInvalidCharacter)
		}
		s = t
	}
	if g.byteOnly {
		return qr.EncodeBinary([]byte(s), g.lev, opts...)
	}
	return qr.EncodeText(s, g.lev, opts...)
}

func write(c *qr.Code) error {
	w := os.Stdout
	if g.fn != "" {
		var err error
		if w, err = os.OpenFile(g.fn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC,
			0666); err != nil {
			return err
		}
	}
	c = randr(c, g.cx, g.inc)
	c.Scale = g.scale
	c.Border = g.border
	c.Palette = palette(g.bg, g.fg)
	c.Reverse = g.rev
	err := encoders[g.format](c, w)
	if g.fn != "" {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

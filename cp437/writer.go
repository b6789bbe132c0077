package cp437

import (
	"io"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// Console control codes are written as raw bytes rather than glyphs.
var passthrough = map[rune]bool{
	'\a': true, '\b': true, '\t': true, '\n': true, '\r': true,
}

type consoleEncoder struct{ transform.NopResetter }

// ConsoleEncoder returns a transformer from UTF-8 to CP437 console output.
// Control codes the console interprets pass through; anything else without
// an encoding becomes Replacement.
func ConsoleEncoder() transform.Transformer { return consoleEncoder{} }

func (consoleEncoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if nDst >= len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		if !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}
		r, size := utf8.DecodeRune(src[nSrc:])
		dst[nDst] = consoleByte(r)
		nDst++
		nSrc += size
	}
	return nDst, nSrc, nil
}

func consoleByte(r rune) byte {
	if passthrough[r] {
		return byte(r)
	}
	if c, ok := FromRune(r); ok {
		return byte(c)
	}
	return byte(Replacement)
}

// NewWriter returns a writer that converts UTF-8 to CP437 console output on
// its way to w. Close flushes a trailing partial rune.
func NewWriter(w io.Writer) io.WriteCloser {
	return transform.NewWriter(w, ConsoleEncoder())
}

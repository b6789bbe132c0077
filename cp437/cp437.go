// Package cp437 converts between Unicode and IBM code page 437, the DOS
// console character set, using the graphical glyphs for the control range.
package cp437

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Char is a single code page 437 character.
type Char byte

// Replacement is substituted for runes that have no CP437 encoding.
const Replacement Char = '?'

// Control positions render as glyphs on the DOS console; charmap decodes
// them as C0 controls.
var glyphs = map[byte]rune{
	0x01: '☺', 0x02: '☻', 0x03: '♥', 0x04: '♦', 0x05: '♣', 0x06: '♠', 0x07: '•',
	0x08: '◘', 0x09: '○', 0x0A: '◙', 0x0B: '♂', 0x0C: '♀', 0x0D: '♪', 0x0E: '♫',
	0x0F: '☼', 0x10: '►', 0x11: '◄', 0x12: '↕', 0x13: '‼', 0x14: '¶', 0x15: '§',
	0x16: '▬', 0x17: '↨', 0x18: '↑', 0x19: '↓', 0x1A: '→', 0x1B: '←', 0x1C: '∟',
	0x1D: '↔', 0x1E: '▲', 0x1F: '▼', 0x7F: '⌂',
}

var (
	table   [256]rune
	reverse = make(map[rune]Char, 256)
)

func init() {
	for i := range table {
		b := byte(i)
		r, ok := glyphs[b]
		if !ok {
			r = charmap.CodePage437.DecodeByte(b)
		}
		table[i] = r
		reverse[r] = Char(b)
	}
}

// FromRune returns the CP437 character for r.
func FromRune(r rune) (Char, bool) {
	if r >= ' ' && r <= '~' {
		return Char(r), true
	}
	c, ok := reverse[r]
	return c, ok
}

// FromByte returns the character with code b. Every byte is a valid code.
func FromByte(b byte) Char { return Char(b) }

// Lookup returns the character with code v, or false if v is outside 0..255.
func Lookup(v int) (Char, bool) {
	if v < 0 || v > 0xFF {
		return 0, false
	}
	return Char(v), true
}

// Byte returns the code of c.
func (c Char) Byte() byte { return byte(c) }

// Rune returns the Unicode glyph for c.
func (c Char) Rune() rune { return table[c] }

func (c Char) String() string { return string(table[c]) }

// Encode converts s to CP437, replacing unmappable runes with Replacement.
func Encode(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		c, ok := FromRune(r)
		if !ok {
			c = Replacement
		}
		out = append(out, byte(c))
	}
	return out
}

// Decode converts CP437 bytes to a UTF-8 string.
func Decode(b []byte) string {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		out = utf8.AppendRune(out, table[c])
	}
	return string(out)
}

package parser

import (
	"strconv"
	"strings"

	"github.com/coregx/rxcore/option"
)

// singleCharEscapes maps a backslash letter to the literal rune it
// produces (spec.md §4.3.4).
var singleCharEscapes = map[byte]rune{
	'a': '\a',
	'b': '\b', // only inside a character class; \b outside is word-boundary
	'e': 0x1B,
	'f': '\f',
	'n': '\n',
	'r': '\r',
	't': '\t',
	'v': '\v',
}

// scanCharEscape consumes one backslash escape starting just after the
// backslash and returns its literal rune value (spec.md §4.3.4: octal,
// \xHH, \x{H...}, \uHHHH, the single-letter escapes, \cX control, bare
// letters under !Extra).
func (p *Parser) scanCharEscape() (rune, error) {
	if p.eof() {
		return 0, newErr(p.absPos(), KindIllegalEscapeAtEnd)
	}
	c := p.peek()

	if c >= '1' && c <= '7' {
		return p.scanOctal()
	}
	if c == '0' {
		p.advance()
		return p.scanOctalDigits(2), nil
	}

	switch c {
	case 'x':
		p.advance()
		return p.scanHexEscape()
	case 'u':
		p.advance()
		return p.scanFixedHex(4)
	case 'c':
		p.advance()
		return p.scanControl()
	}

	if r, ok := singleCharEscapes[c]; ok {
		p.advance()
		return r, nil
	}

	if isASCIILetter(c) {
		if p.opts().Has(option.Extra) {
			return 0, newErrf(p.absPos(), KindUnknownEscape, "\\%c", c)
		}
		p.advance()
		return rune(c), nil
	}

	// Any other character (punctuation) escapes to itself.
	r := p.peekRune()
	p.advanceRune()
	return r, nil
}

func (p *Parser) scanOctal() (rune, error) {
	return p.scanOctalDigits(3), nil
}

// scanOctalDigits consumes up to max further octal digits (the first
// digit was already confirmed present by the caller) and returns the
// resulting code point, reduced to its low eight bits (value & 0377).
func (p *Parser) scanOctalDigits(max int) rune {
	val := 0
	n := 0
	for n < max && !p.eof() && p.peek() >= '0' && p.peek() <= '7' {
		val = val*8 + int(p.peek()-'0')
		p.advance()
		n++
	}
	if val > 0377 {
		val &= 0377
	}
	return rune(val)
}

func (p *Parser) scanHexEscape() (rune, error) {
	if !p.eof() && p.peek() == '{' {
		p.advance()
		start := p.pos
		for !p.eof() && p.peek() != '}' {
			p.advance()
		}
		if p.eof() {
			return 0, newErr(p.absPos(), KindTooFewHexDigits)
		}
		digits := p.src[start:p.pos]
		p.advance() // consume '}'
		if len(digits) == 0 || len(digits) > 6 {
			return 0, newErr(p.absPos(), KindTooFewHexDigits)
		}
		v, err := strconv.ParseInt(digits, 16, 32)
		if err != nil {
			return 0, newErr(p.absPos(), KindTooFewHexDigits)
		}
		return rune(v), nil
	}
	return p.scanFixedHex(2)
}

func (p *Parser) scanFixedHex(n int) (rune, error) {
	start := p.pos
	for i := 0; i < n; i++ {
		if p.eof() || !isHexDigit(p.peek()) {
			return 0, newErr(p.absPos(), KindTooFewHexDigits)
		}
		p.advance()
	}
	v, err := strconv.ParseInt(p.src[start:p.pos], 16, 32)
	if err != nil {
		return 0, newErr(p.absPos(), KindTooFewHexDigits)
	}
	return rune(v), nil
}

func (p *Parser) scanControl() (rune, error) {
	if p.eof() {
		return 0, newErr(p.absPos(), KindMissingControlChar)
	}
	c := p.peek()
	p.advance()
	return rune(c) ^ 0x40, nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// escapeMetaChars is the exact set spec.md §6/SPEC_FULL.md §3 names.
const escapeMetaChars = `\|()[{^$*+?. #`

// Escape backslash-escapes every PCRE metacharacter and whitespace
// character in s so the result matches s literally (spec.md §6).
func Escape(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			if r < 128 && strings.ContainsRune(escapeMetaChars, r) {
				sb.WriteByte('\\')
			}
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Unescape is the inverse of Escape: it decodes the same escapes Escape
// produces (and the rest of the character-escape grammar, with
// allowNonSpecial semantics — an escaped character that isn't a recognized
// metacharacter or shorthand is taken literally rather than rejected).
func Unescape(s string) (string, error) {
	p := &Parser{src: s, stack: nil}
	var sb strings.Builder
	for !p.eof() {
		c := p.peek()
		if c != '\\' {
			r := p.peekRune()
			p.advanceRune()
			sb.WriteRune(r)
			continue
		}
		p.advance()
		r, err := p.scanCharEscape()
		if err != nil {
			return "", err
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}

package parser

import (
	"github.com/coregx/rxcore/ast"
	"github.com/coregx/rxcore/charclass"
	"github.com/coregx/rxcore/option"
)

// parseClass implements spec.md §4.3.2. The leading "[" has already been
// consumed; this scans up to and including the matching "]" and returns
// the resulting Set node (the caller discards it when scanOnly).
func (p *Parser) parseClass() (*ast.Node, error) {
	start := p.absPos()
	b := charclass.New()

	if !p.eof() && p.peek() == '^' {
		b.Negate()
		p.advance()
	}

	first := true
	var pendingLo *rune
	flushPending := func() {
		if pendingLo != nil {
			b.AddChar(*pendingLo)
			pendingLo = nil
		}
	}

	for {
		if p.eof() {
			return nil, newErr(start, KindUnterminatedBracket)
		}
		c := p.peek()

		if c == ']' && !first {
			p.advance()
			flushPending()
			break
		}
		first = false

		// POSIX "[:name:]" — recognized, skipped silently.
		if c == '[' && p.peekAt(1) == ':' {
			flushPending()
			if err := p.skipPosixClass(b); err != nil {
				return nil, err
			}
			continue
		}

		if c == '\\' {
			p.advance()
			if p.eof() {
				return nil, newErr(start, KindUnterminatedBracket)
			}
			esc := p.peek()
			switch esc {
			case 'd', 'D', 's', 'S', 'w', 'W':
				flushPending()
				p.advance()
				if err := b.AddShorthand(esc, p.opts().Has(option.ECMAScript)); err != nil {
					return nil, err
				}
				continue
			case 'p', 'P':
				flushPending()
				neg := esc == 'P'
				p.advance()
				name, err := p.scanPropertyName()
				if err != nil {
					return nil, err
				}
				b.AddCategory(name, neg)
				continue
			}
			r, err := p.scanCharEscape()
			if err != nil {
				return nil, err
			}
			pendingLo = p.maybeRange(b, pendingLo, r)
			continue
		}

		// Literal "-" is only a range operator when it has both a
		// preceding and a following operand (spec.md §4.3.2).
		if c == '-' && pendingLo != nil && p.peekAt(1) != ']' && p.peekAt(1) != 0 {
			p.advance()
			hi, err := p.scanClassChar()
			if err != nil {
				return nil, err
			}
			if hi < *pendingLo {
				return nil, newErr(p.absPos(), KindReversedRangeInClass)
			}
			b.AddRange(*pendingLo, hi)
			pendingLo = nil
			continue
		}

		r := p.peekRune()
		p.advanceRune()
		pendingLo = p.maybeRange(b, pendingLo, r)
	}

	if p.opts().Has(option.IgnoreCase) {
		b.CloseCaseInsensitive()
	}

	n := ast.New(ast.Set)
	n.Str = b.Close()
	n.CaseInsensitive = p.opts().Has(option.IgnoreCase)
	n.RightToLeft = p.opts().Has(option.RightToLeft)
	return n, nil
}

// maybeRange flushes a previously pending single char (it turned out not to
// start a range) and stashes r as the new pending char.
func (p *Parser) maybeRange(b *charclass.Builder, pending *rune, r rune) *rune {
	if pending != nil {
		b.AddChar(*pending)
	}
	v := r
	return &v
}

// scanClassChar reads one literal or escaped character inside a class,
// used as a range endpoint.
func (p *Parser) scanClassChar() (rune, error) {
	if p.peek() == '\\' {
		p.advance()
		return p.scanCharEscape()
	}
	r := p.peekRune()
	p.advanceRune()
	return r, nil
}

func (p *Parser) skipPosixClass(b *charclass.Builder) error {
	start := p.absPos()
	p.advance() // '['
	p.advance() // ':'
	nameStart := p.pos
	for !p.eof() && p.peek() != ':' {
		p.advance()
	}
	name := p.src[nameStart:p.pos]
	if p.eof() || p.peekAt(1) != ']' {
		return newErr(start, KindUnterminatedBracket)
	}
	p.advance() // ':'
	p.advance() // ']'
	b.AddPosixClass(name)
	return nil
}

func (p *Parser) scanPropertyName() (string, error) {
	if p.eof() {
		return "", newErr(p.absPos(), KindIncompleteProperty)
	}
	if p.peek() != '{' {
		// \pL shorthand: exactly one following letter.
		if !isASCIILetter(p.peek()) {
			return "", newErr(p.absPos(), KindIncompleteProperty)
		}
		c := p.peek()
		p.advance()
		return string(c), nil
	}
	p.advance()
	start := p.pos
	for !p.eof() && p.peek() != '}' {
		p.advance()
	}
	if p.eof() {
		return "", newErr(p.absPos(), KindIncompleteProperty)
	}
	name := p.src[start:p.pos]
	p.advance()
	if name == "" {
		return "", newErr(p.absPos(), KindIncompleteProperty)
	}
	return name, nil
}

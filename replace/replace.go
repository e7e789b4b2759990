// Package replace implements spec.md §6's replacement minilanguage parser:
// "$&" whole match, "$`"/"$'" left/right context, "$+" last group, "$_"
// whole input, "$N"/"${name}" capture references, "\\" -> "\", "\N" a
// digit backreference, any other "$" literal.
//
// This reuses parser's character-escape scanner (spec.md §6: "same
// tokeniser, reused for the replacement minilanguage") via
// parser.NewScanner, the same way the teacher's nfa.Compiler gives each
// syntax construct its own narrow, single-purpose method (nfa/compile.go)
// rather than one monolithic switch — applied here to replacement tokens
// instead of pattern tokens.
//
// Parsing only: spec.md §1 places "the replacement-string applier" (the
// component that actually substitutes a Match's captured text into these
// fragments) out of scope, as "a second, trivial use of the parser".
package replace

import (
	"strings"

	"github.com/coregx/rxcore/option"
	"github.com/coregx/rxcore/parser"
)

// Kind discriminates one parsed replacement fragment.
type Kind uint8

const (
	Literal Kind = iota
	WholeMatch   // $&
	LeftContext  // $`
	RightContext // $'
	LastGroup    // $+
	WholeInput   // $_
	GroupNumber  // $N or \N
	GroupName    // ${name}
)

// Fragment is one piece of a parsed replacement string.
type Fragment struct {
	Kind Kind
	Text string // Literal text
	Slot int    // external capture slot, for GroupNumber/GroupName
	Name string // group name, for GroupName (kept for diagnostics/debugging)
}

// Replacement is the result of Parse: an ordered sequence of fragments a
// (not-in-scope) applier concatenates, substituting Match data for the
// non-Literal kinds.
type Replacement struct {
	Fragments   []Fragment
	RightToLeft bool
}

// Parse implements spec.md §6's "parse_replacement(raw_replacement,
// options, caps, capsize, capnames) -> Replacement". caps maps an
// external capture slot to the raw-input offset of a group that opens it
// (as parser.Tree.Caps
// does); only its key set is consulted here, to validate a numeric "$N"/
// "\N" reference names a slot that actually exists in the pattern this
// replacement is paired with.
func Parse(raw string, opts option.Options, caps map[int]int, capsize int, capnames map[string]int) (*Replacement, error) {
	var frags []Fragment
	var lit strings.Builder
	flushLit := func() {
		if lit.Len() > 0 {
			frags = append(frags, Fragment{Kind: Literal, Text: lit.String()})
			lit.Reset()
		}
	}

	s := parser.NewScanner(raw, opts)
	for !s.Eof() {
		c := s.Peek()
		switch c {
		case '\\':
			s.Advance()
			if err := parseBackslash(s, caps, capsize, &frags, &lit); err != nil {
				return nil, err
			}
		case '$':
			if err := parseDollar(s, caps, capsize, capnames, &frags, &lit, flushLit); err != nil {
				return nil, err
			}
		default:
			r := s.PeekRune()
			lit.WriteRune(r)
			s.AdvanceRune()
		}
	}
	flushLit()

	rtl := opts.Has(option.RightToLeft)
	if rtl {
		reverseFragments(frags)
	}
	return &Replacement{Fragments: frags, RightToLeft: rtl}, nil
}

// checkSlot validates a numeric group reference against the pattern's
// actual capture slots, per spec.md §7: "every failure from parse produces
// a structured error with a source offset and a stable message identifier".
// These reuse parser.Kind rather than inventing a second error taxonomy,
// since an out-of-range or undefined group reference here is the same
// underlying mistake §4.3.6 already names for "\N" inside a pattern.
func checkSlot(offset, slot, capsize int, caps map[int]int) error {
	if slot >= capsize {
		return &parser.Error{Offset: offset, Kind: parser.KindCaptureNumberOutOfRange}
	}
	if _, ok := caps[slot]; !ok {
		return &parser.Error{Offset: offset, Kind: parser.KindUndefinedBackreference}
	}
	return nil
}

// parseBackslash handles the escape grammar after a consumed leading
// backslash: a bare digit run is a numbered backreference ("\N"); anything
// else falls through to the pattern tokenizer's general character-escape
// grammar (so "\n", "\t", "\\", etc. behave identically to inside a
// pattern).
func parseBackslash(s *parser.Scanner, caps map[int]int, capsize int, frags *[]Fragment, lit *strings.Builder) error {
	if s.Eof() {
		lit.WriteByte('\\')
		return nil
	}
	if isDigit(s.Peek()) {
		offset := s.Pos()
		flushInto(frags, lit)
		slot := scanDigits(s)
		if err := checkSlot(offset, slot, capsize, caps); err != nil {
			return err
		}
		*frags = append(*frags, Fragment{Kind: GroupNumber, Slot: slot})
		return nil
	}
	r, err := s.ScanCharEscape()
	if err != nil {
		return err
	}
	lit.WriteRune(r)
	return nil
}

func parseDollar(s *parser.Scanner, caps map[int]int, capsize int, capnames map[string]int, frags *[]Fragment, lit *strings.Builder, flushLit func()) error {
	s.Advance() // '$'
	if s.Eof() {
		lit.WriteByte('$')
		return nil
	}
	switch s.Peek() {
	case '&':
		s.Advance()
		flushLit()
		*frags = append(*frags, Fragment{Kind: WholeMatch})
	case '`':
		s.Advance()
		flushLit()
		*frags = append(*frags, Fragment{Kind: LeftContext})
	case '\'':
		s.Advance()
		flushLit()
		*frags = append(*frags, Fragment{Kind: RightContext})
	case '+':
		s.Advance()
		flushLit()
		*frags = append(*frags, Fragment{Kind: LastGroup})
	case '_':
		s.Advance()
		flushLit()
		*frags = append(*frags, Fragment{Kind: WholeInput})
	case '{':
		offset := s.Pos()
		s.Advance()
		name := scanUntilBrace(s)
		if name == "" {
			lit.WriteString("${}")
			return nil
		}
		slot, ok := capnames[name]
		if !ok {
			return &parser.Error{Offset: offset, Kind: parser.KindUndefinedNameReference}
		}
		flushLit()
		*frags = append(*frags, Fragment{Kind: GroupName, Name: name, Slot: slot})
	default:
		if isDigit(s.Peek()) {
			offset := s.Pos()
			slot := scanDigits(s)
			if err := checkSlot(offset, slot, capsize, caps); err != nil {
				return err
			}
			flushLit()
			*frags = append(*frags, Fragment{Kind: GroupNumber, Slot: slot})
			return nil
		}
		// Not a recognized "$" form: the "$" is literal, and the
		// following character is scanned normally on the next loop turn.
		lit.WriteByte('$')
	}
	return nil
}

func flushInto(frags *[]Fragment, lit *strings.Builder) {
	if lit.Len() > 0 {
		*frags = append(*frags, Fragment{Kind: Literal, Text: lit.String()})
		lit.Reset()
	}
}

func scanDigits(s *parser.Scanner) int {
	start := s.Pos()
	for !s.Eof() && isDigit(s.Peek()) {
		s.Advance()
	}
	n := 0
	for _, c := range s.Slice(start, s.Pos()) {
		n = n*10 + int(c-'0')
	}
	return n
}

func scanUntilBrace(s *parser.Scanner) string {
	var sb strings.Builder
	for !s.Eof() && s.Peek() != '}' {
		sb.WriteByte(s.Peek())
		s.Advance()
	}
	if !s.Eof() {
		s.Advance() // '}'
	}
	return sb.String()
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func reverseFragments(frags []Fragment) {
	for i, j := 0, len(frags)-1; i < j; i, j = i+1, j-1 {
		frags[i], frags[j] = frags[j], frags[i]
	}
}

package parser

import "github.com/coregx/rxcore/option"

// Scanner exposes the character-escape tokenizer Parser uses internally
// (scanCharEscape et al.) to other packages in this module that need to
// tokenize escapes outside a full pattern parse — spec.md §6 calls this out
// explicitly for the replacement minilanguage: "same tokeniser, reused for
// the replacement minilanguage". It is a thin read/advance wrapper around a
// Parser with no group-nesting state, since a replacement string has no
// groups to track.
type Scanner struct {
	p *Parser
}

// NewScanner returns a Scanner positioned at the start of src.
func NewScanner(src string, opts option.Options) *Scanner {
	return &Scanner{p: &Parser{src: src, optStack: option.NewStack(opts)}}
}

// Eof reports whether the scanner has consumed all of src.
func (s *Scanner) Eof() bool { return s.p.eof() }

// Pos returns the current byte offset into src.
func (s *Scanner) Pos() int { return s.p.pos }

// Slice returns src[start:end], for callers (e.g. package replace) that
// scanned a run of bytes with Peek/Advance and need the text back.
func (s *Scanner) Slice(start, end int) string { return s.p.src[start:end] }

// Peek returns the current byte without consuming it, or 0 at EOF.
func (s *Scanner) Peek() byte { return s.p.peek() }

// PeekAt returns the byte at the given forward offset from the cursor, or 0
// if out of range.
func (s *Scanner) PeekAt(offset int) byte { return s.p.peekAt(offset) }

// PeekRune decodes the rune at the cursor without consuming it.
func (s *Scanner) PeekRune() rune { return s.p.peekRune() }

// Advance consumes one byte.
func (s *Scanner) Advance() { s.p.advance() }

// AdvanceRune consumes one full rune (which may be more than one byte).
func (s *Scanner) AdvanceRune() { s.p.advanceRune() }

// ScanCharEscape consumes one backslash escape starting just after the
// backslash (the caller has already consumed the leading '\') and returns
// its literal rune value, using exactly the grammar spec.md §4.3.4 defines
// for pattern character escapes.
func (s *Scanner) ScanCharEscape() (rune, error) { return s.p.scanCharEscape() }

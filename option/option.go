// Package option defines the immutable parsing/matching options bitset
// shared by every stage of the regex compilation pipeline, plus the
// options stack the parser uses to save and restore local overrides
// introduced by inline "(?ims-x)" sequences and grouping constructs.
package option

import "fmt"

// Flag is a single independent option bit.
type Flag uint32

// Independent option axes. Every flag can be combined freely with every
// other flag; the mutually exclusive newline/BSR conventions live in
// separate small enumerations below rather than in this bitset.
const (
	IgnoreCase Flag = 1 << iota
	Multiline
	Singleline       // '.' also matches newline
	Extended         // pattern whitespace / 'x' mode
	ExplicitCapture  // unnamed groups are non-capturing
	RightToLeft
	ECMAScript
	CultureInvariant

	// PCRE-specific.
	Anchored
	DollarEndOnly
	Ungreedy // invert greedy/lazy unless possessive
	UTF8
	Extra // forbid meaningless backslash escapes
	DupNames
)

var flagNames = map[Flag]string{
	IgnoreCase:       "IgnoreCase",
	Multiline:        "Multiline",
	Singleline:       "Singleline",
	Extended:         "Extended",
	ExplicitCapture:  "ExplicitCapture",
	RightToLeft:      "RightToLeft",
	ECMAScript:       "ECMAScript",
	CultureInvariant: "CultureInvariant",
	Anchored:         "Anchored",
	DollarEndOnly:    "DollarEndOnly",
	Ungreedy:         "Ungreedy",
	UTF8:             "UTF8",
	Extra:            "Extra",
	DupNames:         "DupNames",
}

// Newline is the active newline convention. The zero value, NewlineDefault,
// behaves like NewlineLF until a leading "(*PRAGMA)" or inline directive
// overrides it.
type Newline uint8

const (
	NewlineDefault Newline = iota
	NewlineCR
	NewlineLF
	NewlineCRLF
	NewlineAny
	NewlineAnyCRLF
)

func (n Newline) String() string {
	switch n {
	case NewlineCR:
		return "CR"
	case NewlineLF:
		return "LF"
	case NewlineCRLF:
		return "CRLF"
	case NewlineAny:
		return "ANY"
	case NewlineAnyCRLF:
		return "ANYCRLF"
	default:
		return "DEFAULT_LF"
	}
}

// BSR is the convention used to interpret "\R".
type BSR uint8

const (
	BSRDefault BSR = iota // follows Unicode unless overridden
	BSRUnicode
	BSRAnyCRLF
)

func (b BSR) String() string {
	switch b {
	case BSRUnicode:
		return "UNICODE"
	case BSRAnyCRLF:
		return "ANYCRLF"
	default:
		return "DEFAULT_UNICODE"
	}
}

// Options is an immutable value: every mutation returns a new Options.
// This mirrors the teacher's CompilerConfig / DefaultCompilerConfig shape
// (nfa.CompilerConfig in the teacher repo), generalized from NFA execution
// knobs to PCRE parse-time flags.
type Options struct {
	flags   Flag
	newline Newline
	bsr     BSR
}

// Default returns the zero-value option set: no flags set (case-sensitive,
// not multiline, "." excludes newline), LF newline convention, Unicode
// "\R" convention.
func Default() Options {
	return Options{}
}

// Has reports whether f is set.
func (o Options) Has(f Flag) bool { return o.flags&f != 0 }

// With returns a copy of o with f set.
func (o Options) With(f Flag) Options {
	o.flags |= f
	return o
}

// Without returns a copy of o with f cleared.
func (o Options) Without(f Flag) Options {
	o.flags &^= f
	return o
}

// Newline returns the active newline convention.
func (o Options) Newline() Newline { return o.newline }

// WithNewline returns a copy of o using the given newline convention.
func (o Options) WithNewline(n Newline) Options {
	o.newline = n
	return o
}

// BSR returns the active "\R" convention.
func (o Options) BSR() BSR { return o.bsr }

// WithBSR returns a copy of o using the given "\R" convention.
func (o Options) WithBSR(b BSR) Options {
	o.bsr = b
	return o
}

// IsGreedyDefault reports whether an unsuffixed quantifier ("*", "+", "?",
// "{m,n}") is greedy under the active options. Ungreedy inverts this.
func (o Options) IsGreedyDefault() bool { return !o.Has(Ungreedy) }

// String renders a debug form of the option set. Not required by spec.md,
// but harmless and used by this repo's own tests — see SPEC_FULL.md §3.
func (o Options) String() string {
	s := ""
	for f, name := range flagNames {
		if o.Has(f) {
			if s != "" {
				s += "|"
			}
			s += name
		}
	}
	if s == "" {
		s = "none"
	}
	return fmt.Sprintf("%s newline=%s bsr=%s", s, o.newline, o.bsr)
}

// inlineLetters maps the subset of letters legal inside an inline "(?imsx)"
// or "(?imsx-imsx:...)" sequence to the flag they toggle. This is distinct
// from the trailing-modifier table in parser/preprocess.go, which also
// accepts letters (A, D, S, u, e) that have no inline form.
var inlineLetters = map[byte]Flag{
	'i': IgnoreCase,
	'm': Multiline,
	's': Singleline,
	'x': Extended,
	'n': ExplicitCapture,
	'U': Ungreedy,
	'X': Extra,
	'J': DupNames,
}

// WithInline applies each letter in letters, setting the corresponding flag
// if remove is false or clearing it if remove is true. It returns an error
// naming the first unrecognized letter.
func (o Options) WithInline(letters string, remove bool) (Options, error) {
	for i := 0; i < len(letters); i++ {
		f, ok := inlineLetters[letters[i]]
		if !ok {
			return o, fmt.Errorf("option: unrecognized inline modifier %q", letters[i])
		}
		if remove {
			o = o.Without(f)
		} else {
			o = o.With(f)
		}
	}
	return o, nil
}

// Stack is the parser's local save/restore stack for option frames pushed
// at every "(" and popped at the matching ")", even on early error return.
type Stack struct {
	frames []Options
}

// NewStack returns a stack seeded with the compilation's base options.
func NewStack(base Options) *Stack {
	return &Stack{frames: []Options{base}}
}

// Top returns the currently active options.
func (s *Stack) Top() Options {
	return s.frames[len(s.frames)-1]
}

// Push saves the current frame and begins a new one with the given options
// active (typically Top() adjusted by an inline modifier).
func (s *Stack) Push(o Options) {
	s.frames = append(s.frames, o)
}

// Pop restores the previous frame. It is a no-op below the base frame, so
// that callers can always call Pop in a defer without tracking depth.
func (s *Stack) Pop() {
	if len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Depth reports the number of frames currently on the stack, including the
// base frame (so a fresh stack has Depth() == 1).
func (s *Stack) Depth() int { return len(s.frames) }

// ReplaceTop overwrites the current frame in place, used by a tail-less
// inline "(?imsx)" sequence that modifies the enclosing scope for the rest
// of its duration rather than opening a new scope (spec.md §4.3.3).
func (s *Stack) ReplaceTop(o Options) {
	s.frames[len(s.frames)-1] = o
}

package parser

import (
	"unicode"
	"unicode/utf8"

	"github.com/coregx/rxcore/option"
)

// modifierFlags maps a trailing modifier letter to the option flag it sets.
// Letters absent from this map but present in modifierIgnored are accepted
// but have no effect; any other letter is an error (spec.md §4.1 table).
var modifierFlags = map[byte]option.Flag{
	'i': option.IgnoreCase,
	'm': option.Multiline,
	's': option.Singleline,
	'x': option.Extended,
	'n': option.ExplicitCapture,
	'A': option.Anchored,
	'D': option.DollarEndOnly,
	'U': option.Ungreedy,
	'u': option.UTF8,
	'X': option.Extra,
	'J': option.DupNames,
}

// modifierIgnored are recognized trailing letters with no option effect:
// 'S' is a study hint, 'e' is the deprecated eval modifier.
var modifierIgnored = map[byte]bool{'S': true, 'e': true}

// bracketMirror maps an opening bracket-style delimiter to its required
// closing counterpart (spec.md §4.1: "[" <-> "]", "(" <-> ")", "{" <-> "}",
// "<" <-> ">"). Any other delimiter must close with itself.
var bracketMirror = map[byte]byte{
	'[': ']',
	'(': ')',
	'{': '}',
	'<': '>',
}

// pragmaOptions are the leading "(*NAME)" sequences that set options
// (spec.md §4.1 step 3). Other "(*NAME)" sequences are left in the body for
// the main parser (they may be backtracking verbs, or a parse error).
var pragmaOptions = map[string]func(option.Options) option.Options{
	"UTF8": func(o option.Options) option.Options { return o.With(option.UTF8) },
	"BSR_UNICODE": func(o option.Options) option.Options {
		return o.WithBSR(option.BSRUnicode)
	},
	"BSR_ANYCRLF": func(o option.Options) option.Options {
		return o.WithBSR(option.BSRAnyCRLF)
	},
	"CR":      func(o option.Options) option.Options { return o.WithNewline(option.NewlineCR) },
	"LF":      func(o option.Options) option.Options { return o.WithNewline(option.NewlineLF) },
	"CRLF":    func(o option.Options) option.Options { return o.WithNewline(option.NewlineCRLF) },
	"ANYCRLF": func(o option.Options) option.Options { return o.WithNewline(option.NewlineAnyCRLF) },
	"ANY":     func(o option.Options) option.Options { return o.WithNewline(option.NewlineAny) },
}

// Preprocessed is the result of running the pattern preprocessor
// (spec.md §4.1): the pattern body handed to the main parser, the absolute
// offset in the caller's raw string at which that body begins (so the
// parser can translate its own relative offsets into raw-input offsets for
// Error.Offset), and the resolved option set.
type Preprocessed struct {
	Body      string
	BodyStart int
	Options   option.Options
}

// Preprocess runs the three ordered steps of spec.md §4.1: trailing
// modifier scan, delimiter strip, and leading "(*NAME)" pragma consumption.
func Preprocess(raw string, initial option.Options) (*Preprocessed, error) {
	endOfBody, opts, err := scanTrailingModifiers(raw, initial)
	if err != nil {
		return nil, err
	}

	openIdx, closeIdx, err := stripDelimiters(raw, endOfBody)
	if err != nil {
		return nil, err
	}

	rawBody := raw[openIdx+1 : closeIdx]
	consumed, opts := consumeLeadingPragmas(rawBody, opts)

	return &Preprocessed{
		Body:      rawBody[consumed:],
		BodyStart: openIdx + 1 + consumed,
		Options:   opts,
	}, nil
}

// scanTrailingModifiers implements spec.md §4.1 step 1.
func scanTrailingModifiers(raw string, opts option.Options) (endOfBody int, _ option.Options, err error) {
	i := len(raw)
	for i > 0 {
		c := raw[i-1]
		switch {
		case isASCIILetter(c):
			f, ok := modifierFlags[c]
			switch {
			case ok:
				opts = opts.With(f)
			case modifierIgnored[c]:
				// no effect
			default:
				return 0, opts, newErrf(i-1, KindUnknownModifier, "%q", c)
			}
			i--
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\v' || c == '\f':
			i--
		default:
			return i, opts, nil
		}
	}
	return i, opts, nil
}

// stripDelimiters implements spec.md §4.1 step 2. It returns the index of
// the opening delimiter and the index of the closing delimiter (the byte
// just before the end-of-body boundary from step 1).
func stripDelimiters(raw string, endOfBody int) (openIdx, closeIdx int, err error) {
	i := 0
	for i < endOfBody && isASCIISpace(raw[i]) {
		i++
	}
	if i >= endOfBody {
		return 0, 0, newErr(0, KindNoEndDelimiter)
	}
	r, size := utf8.DecodeRuneInString(raw[i:])
	if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\\' {
		return 0, 0, newErr(i, KindNoEndDelimiter)
	}
	openIdx = i
	bodyStart := i + size
	closeIdx = endOfBody - 1
	if closeIdx < bodyStart {
		return 0, 0, newErr(openIdx, KindNoEndDelimiter)
	}
	want := raw[openIdx : openIdx+size]
	wantClose := want
	if size == 1 {
		if mirror, ok := bracketMirror[raw[openIdx]]; ok {
			wantClose = string(mirror)
		}
	}
	gotClose := raw[closeIdx : closeIdx+1]
	if len(wantClose) != 1 || gotClose != wantClose {
		// Fallback: the closing byte may repeat a one-byte opening
		// delimiter (so "(a(" is also accepted). Only one byte is compared,
		// so a multi-byte opening delimiter never finds its closing match.
		if raw[closeIdx:endOfBody] != want {
			return 0, 0, newErr(closeIdx, KindNoEndDelimiter)
		}
	}
	return openIdx, closeIdx, nil
}

// consumeLeadingPragmas implements spec.md §4.1 step 3, operating on the
// already delimiter-stripped body. It returns the number of bytes consumed
// from the front of body.
func consumeLeadingPragmas(body string, opts option.Options) (consumed int, _ option.Options) {
	for {
		rest := body[consumed:]
		if len(rest) < 3 || rest[0] != '(' || rest[1] != '*' {
			return consumed, opts
		}
		j := 2
		for j < len(rest) && isPragmaNameByte(rest[j]) {
			j++
		}
		if j == 2 || j >= len(rest) || rest[j] != ')' {
			return consumed, opts
		}
		name := rest[2:j]
		apply, ok := pragmaOptions[name]
		if !ok {
			return consumed, opts
		}
		opts = apply(opts)
		consumed += j + 1
	}
}

func isPragmaNameByte(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isASCIISpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return true
	default:
		return false
	}
}

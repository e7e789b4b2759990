package parser

import "fmt"

// Kind is the closed sum of parse failure reasons (spec.md §4.3.6). It is
// never a plain string: callers are expected to switch on Kind, not parse
// Error.Error()'s text.
//
// Grounded on the teacher's nfa/error.go shape: a small set of named
// sentinel categories plus one struct type carrying positional context,
// rather than ad hoc fmt.Errorf call sites scattered through the parser.
type Kind uint8

const (
	KindInternal Kind = iota
	KindUnknownModifier
	KindNoEndDelimiter
	KindEmptyRegex
	KindTooManyParens
	KindNotEnoughParens
	KindIllegalEscapeAtEnd
	KindIllegalRange
	KindReversedRangeInClass
	KindUnterminatedBracket
	KindUnterminatedComment
	KindUnrecognizedGrouping
	KindUndefinedBackreference
	KindUndefinedSubroutine
	KindUndefinedNameReference
	KindMalformedNameReference
	KindDuplicateName
	KindDifferentNamesSameSlot
	KindCaptureZeroReference
	KindCaptureNumberOutOfRange
	KindNothingToQuantify
	KindNestedQuantifier
	KindTooManyAlternatives
	KindDefineMultipleBranches
	KindMissingControlChar
	KindTooFewHexDigits
	KindIncompleteProperty
	KindUnknownVerb
	KindUnknownPragma
	KindUnknownEscape
)

var kindMessages = map[Kind]string{
	KindInternal:                "internal error",
	KindUnknownModifier:         "unknown modifier",
	KindNoEndDelimiter:          "no end delimiter",
	KindEmptyRegex:              "empty regex",
	KindTooManyParens:           "too many parentheses",
	KindNotEnoughParens:         "not enough parentheses",
	KindIllegalEscapeAtEnd:      "illegal escape at end of pattern",
	KindIllegalRange:            "illegal {m,n} range: m > n",
	KindReversedRangeInClass:    "reversed range in character class",
	KindUnterminatedBracket:     "unterminated character class",
	KindUnterminatedComment:     "unterminated comment",
	KindUnrecognizedGrouping:    "unrecognized grouping construct",
	KindUndefinedBackreference:  "reference to undefined group",
	KindUndefinedSubroutine:     "reference to undefined subroutine",
	KindUndefinedNameReference:  "reference to undefined named group",
	KindMalformedNameReference:  "malformed name reference",
	KindDuplicateName:           "duplicate group name",
	KindDifferentNamesSameSlot:  "different names for the same capture slot",
	KindCaptureZeroReference:    "capture group zero used as a slot reference",
	KindCaptureNumberOutOfRange: "capture number out of range",
	KindNothingToQuantify:       "nothing to quantify",
	KindNestedQuantifier:        "nested quantifier",
	KindTooManyAlternatives:     "too many alternatives in conditional",
	KindDefineMultipleBranches:  "(?(DEFINE)...) may not have more than one branch",
	KindMissingControlChar:      "missing control character",
	KindTooFewHexDigits:         "too few hex digits",
	KindIncompleteProperty:      "incomplete \\p{...} property name",
	KindUnknownVerb:             "unknown backtracking verb",
	KindUnknownPragma:           "unrecognized (*NAME) pragma",
	KindUnknownEscape:           "unrecognized escape",
}

// Error is the structured parse failure spec.md §4.3.6/§7 describes: a
// stable Kind plus a byte offset into the caller's raw input.
type Error struct {
	Offset int
	Kind   Kind
	detail string // optional extra context, e.g. the offending name
}

func (e *Error) Error() string {
	msg := kindMessages[e.Kind]
	if e.detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.detail)
	}
	return fmt.Sprintf("regex parse error at offset %d: %s", e.Offset, msg)
}

// Is enables errors.Is(err, parser.KindX)-style matching via a sentinel
// wrapper — see ErrKind below for the idiomatic form.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// ErrKind constructs a sentinel *Error carrying only a Kind, suitable for
// errors.Is(err, parser.ErrKind(parser.KindDuplicateName)).
func ErrKind(k Kind) error { return &Error{Kind: k} }

func newErr(offset int, kind Kind) error {
	return &Error{Offset: offset, Kind: kind}
}

func newErrf(offset int, kind Kind, detail string, args ...any) error {
	return &Error{Offset: offset, Kind: kind, detail: fmt.Sprintf(detail, args...)}
}

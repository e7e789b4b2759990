package parser

import (
	"testing"

	"github.com/coregx/rxcore/option"
)

func TestPreprocessStripsSlashDelimiters(t *testing.T) {
	pre, err := Preprocess("/foo/", option.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pre.Body != "foo" {
		t.Errorf("Body = %q, want %q", pre.Body, "foo")
	}
	if pre.BodyStart != 1 {
		t.Errorf("BodyStart = %d, want 1", pre.BodyStart)
	}
}

func TestPreprocessTrailingModifiers(t *testing.T) {
	pre, err := Preprocess("/foo/im", option.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pre.Options.Has(option.IgnoreCase) || !pre.Options.Has(option.Multiline) {
		t.Errorf("Options = %+v, want IgnoreCase|Multiline set", pre.Options)
	}
}

func TestPreprocessUnknownModifierErrors(t *testing.T) {
	_, err := Preprocess("/foo/q", option.Default())
	if err == nil {
		t.Fatal("expected an error for an unknown trailing modifier")
	}
	perr, ok := err.(*Error)
	if !ok || perr.Kind != KindUnknownModifier {
		t.Fatalf("err = %v, want KindUnknownModifier", err)
	}
}

func TestPreprocessIgnoredModifiersHaveNoEffect(t *testing.T) {
	pre, err := Preprocess("/foo/Se", option.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pre.Options != option.Default() {
		t.Errorf("Options = %+v, want unchanged defaults", pre.Options)
	}
}

func TestPreprocessBracketDelimiters(t *testing.T) {
	pre, err := Preprocess("{foo}", option.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pre.Body != "foo" {
		t.Errorf("Body = %q, want %q", pre.Body, "foo")
	}
}

func TestPreprocessMismatchedBracketDelimiterErrors(t *testing.T) {
	_, err := Preprocess("{foo]", option.Default())
	if err == nil {
		t.Fatal("expected an error for a mismatched bracket-style delimiter")
	}
	perr, ok := err.(*Error)
	if !ok || perr.Kind != KindNoEndDelimiter {
		t.Fatalf("err = %v, want KindNoEndDelimiter", err)
	}
}

func TestPreprocessNoEndDelimiter(t *testing.T) {
	_, err := Preprocess("/123", option.Default())
	if err == nil {
		t.Fatal("expected an error for a missing closing delimiter")
	}
	perr, ok := err.(*Error)
	if !ok || perr.Kind != KindNoEndDelimiter {
		t.Fatalf("err = %v, want KindNoEndDelimiter", err)
	}
}

func TestPreprocessLeadingPragmas(t *testing.T) {
	pre, err := Preprocess("/(*UTF8)(*CRLF)foo/", option.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pre.Body != "foo" {
		t.Errorf("Body = %q, want %q (pragmas consumed)", pre.Body, "foo")
	}
	if !pre.Options.Has(option.UTF8) {
		t.Error("the (*UTF8) pragma should set option.UTF8")
	}
	if pre.Options.Newline() != option.NewlineCRLF {
		t.Errorf("Newline() = %v, want NewlineCRLF from (*CRLF)", pre.Options.Newline())
	}
}

func TestPreprocessUnknownPragmaLeftForMainParser(t *testing.T) {
	// (*FAIL) is a backtracking verb, not a pragma: Preprocess must not
	// consume it, leaving it for the main parser to interpret.
	pre, err := Preprocess("/(*FAIL)/", option.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pre.Body != "(*FAIL)" {
		t.Errorf("Body = %q, want %q (unknown pragma left untouched)", pre.Body, "(*FAIL)")
	}
}

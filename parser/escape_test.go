package parser

import "testing"

func TestEscapeMetaCharacters(t *testing.T) {
	got := Escape(`a.b*c(d)e`)
	want := `a\.b\*c\(d\)e`
	if got != want {
		t.Errorf("Escape(...) = %q, want %q", got, want)
	}
}

func TestEscapeWhitespace(t *testing.T) {
	got := Escape("a\nb\tc")
	want := `a\nb\tc`
	if got != want {
		t.Errorf("Escape(...) = %q, want %q", got, want)
	}
}

func TestEscapeLeavesOrdinaryRunesAlone(t *testing.T) {
	got := Escape("héllo世界")
	if got != "héllo世界" {
		t.Errorf("Escape(...) = %q, want input unchanged", got)
	}
}

func TestUnescapeRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"plain text",
		"a.b*c(d)e[f]{g}^$+?. #|\\",
		"line1\nline2\ttabbed",
		"héllo世界",
	}
	for _, s := range cases {
		escaped := Escape(s)
		got, err := Unescape(escaped)
		if err != nil {
			t.Errorf("Unescape(Escape(%q)) error: %v", s, err)
			continue
		}
		if got != s {
			t.Errorf("Unescape(Escape(%q)) = %q, want %q", s, got, s)
		}
	}
}

func TestUnescapeNonSpecialEscapeIsLiteral(t *testing.T) {
	// "\q" is not a recognized shorthand or metacharacter escape: Unescape
	// should take it literally as 'q', not reject it.
	got, err := Unescape(`\q`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "q" {
		t.Errorf("Unescape(%q) = %q, want %q", `\q`, got, "q")
	}
}

func TestUnescapeTrailingBackslashErrors(t *testing.T) {
	_, err := Unescape(`abc\`)
	if err == nil {
		t.Fatal("expected an error for a trailing backslash with nothing to escape")
	}
	perr, ok := err.(*Error)
	if !ok || perr.Kind != KindIllegalEscapeAtEnd {
		t.Fatalf("err = %v, want KindIllegalEscapeAtEnd", err)
	}
}

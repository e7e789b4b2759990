package replace

import (
	"testing"

	"github.com/coregx/rxcore/option"
	"github.com/coregx/rxcore/parser"
)

func TestParseLiteralAndSpecials(t *testing.T) {
	caps := map[int]int{0: 0, 1: 1}
	r, err := Parse("hi $& there $` $' $+ $_ end", option.Default(), caps, 2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kinds := make([]Kind, len(r.Fragments))
	for i, f := range r.Fragments {
		kinds[i] = f.Kind
	}
	want := []Kind{Literal, WholeMatch, Literal, LeftContext, Literal, RightContext,
		Literal, LastGroup, Literal, WholeInput, Literal}
	if len(kinds) != len(want) {
		t.Fatalf("got %d fragments %v, want %d %v", len(kinds), kinds, len(want), want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("fragment %d kind = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestParseGroupNumberDollar(t *testing.T) {
	caps := map[int]int{0: 0, 1: 1, 2: 2}
	r, err := Parse("a$1b$2c", option.Default(), caps, 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var slots []int
	for _, f := range r.Fragments {
		if f.Kind == GroupNumber {
			slots = append(slots, f.Slot)
		}
	}
	if len(slots) != 2 || slots[0] != 1 || slots[1] != 2 {
		t.Errorf("group numbers = %v, want [1 2]", slots)
	}
}

func TestParseGroupNumberBackslash(t *testing.T) {
	caps := map[int]int{0: 0, 1: 1}
	r, err := Parse(`x\1y`, option.Default(), caps, 2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, f := range r.Fragments {
		if f.Kind == GroupNumber && f.Slot == 1 {
			found = true
		}
	}
	if !found {
		t.Error(`expected a GroupNumber fragment for slot 1 from "\1"`)
	}
}

func TestParseGroupNumberMultiDigit(t *testing.T) {
	caps := map[int]int{0: 0, 12: 1}
	r, err := Parse("$12", option.Default(), caps, 13, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Fragments) != 1 || r.Fragments[0].Kind != GroupNumber || r.Fragments[0].Slot != 12 {
		t.Fatalf("fragments = %+v, want a single GroupNumber{Slot:12}", r.Fragments)
	}
}

func TestParseNamedGroup(t *testing.T) {
	caps := map[int]int{0: 0, 1: 1}
	capnames := map[string]int{"year": 1}
	r, err := Parse("${year}", option.Default(), caps, 2, capnames)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Fragments) != 1 || r.Fragments[0].Kind != GroupName || r.Fragments[0].Slot != 1 || r.Fragments[0].Name != "year" {
		t.Fatalf("fragments = %+v, want a single GroupName{Name:year,Slot:1}", r.Fragments)
	}
}

func TestParseUndefinedNamedGroup(t *testing.T) {
	_, err := Parse("${nope}", option.Default(), map[int]int{0: 0}, 1, map[string]int{})
	if err == nil {
		t.Fatal("expected an error for a reference to an undefined named group")
	}
	perr, ok := err.(*parser.Error)
	if !ok || perr.Kind != parser.KindUndefinedNameReference {
		t.Fatalf("err = %v, want a *parser.Error with Kind KindUndefinedNameReference", err)
	}
}

func TestParseGroupNumberOutOfRange(t *testing.T) {
	_, err := Parse("$5", option.Default(), map[int]int{0: 0}, 1, nil)
	if err == nil {
		t.Fatal("expected an error for a group number at or beyond capsize")
	}
	perr, ok := err.(*parser.Error)
	if !ok || perr.Kind != parser.KindCaptureNumberOutOfRange {
		t.Fatalf("err = %v, want a *parser.Error with Kind KindCaptureNumberOutOfRange", err)
	}
}

func TestParseUndefinedGroupNumber(t *testing.T) {
	// capsize is large enough, but slot 2 was never actually opened.
	_, err := Parse("$2", option.Default(), map[int]int{0: 0, 1: 1}, 3, nil)
	if err == nil {
		t.Fatal("expected an error for a reference to a slot never opened by the pattern")
	}
	perr, ok := err.(*parser.Error)
	if !ok || perr.Kind != parser.KindUndefinedBackreference {
		t.Fatalf("err = %v, want a *parser.Error with Kind KindUndefinedBackreference", err)
	}
}

func TestParseEmptyBraceIsLiteral(t *testing.T) {
	r, err := Parse("a${}b", option.Default(), map[int]int{0: 0}, 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Fragments) != 1 || r.Fragments[0].Kind != Literal || r.Fragments[0].Text != "a${}b" {
		t.Fatalf("fragments = %+v, want a single literal %q", r.Fragments, "a${}b")
	}
}

func TestParseUnrecognizedDollarIsLiteral(t *testing.T) {
	r, err := Parse("5$ off", option.Default(), map[int]int{0: 0}, 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Fragments) != 1 || r.Fragments[0].Kind != Literal || r.Fragments[0].Text != "5$ off" {
		t.Fatalf("fragments = %+v, want a single literal %q", r.Fragments, "5$ off")
	}
}

func TestParseBackslashEscape(t *testing.T) {
	r, err := Parse(`a\nb\\c`, option.Default(), map[int]int{0: 0}, 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Fragments) != 1 || r.Fragments[0].Kind != Literal {
		t.Fatalf("fragments = %+v, want a single literal fragment", r.Fragments)
	}
	want := "a\nb\\c"
	if r.Fragments[0].Text != want {
		t.Errorf("Text = %q, want %q", r.Fragments[0].Text, want)
	}
}

func TestParseRightToLeftReversesFragments(t *testing.T) {
	caps := map[int]int{0: 0, 1: 1}
	ltr, err := Parse("a$1b", option.Default(), caps, 2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rtl, err := Parse("a$1b", option.Default().With(option.RightToLeft), caps, 2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rtl.RightToLeft {
		t.Error("RightToLeft should be true when option.RightToLeft is set")
	}
	if len(ltr.Fragments) != len(rtl.Fragments) {
		t.Fatalf("fragment counts differ: %d vs %d", len(ltr.Fragments), len(rtl.Fragments))
	}
	n := len(ltr.Fragments)
	for i := range ltr.Fragments {
		if ltr.Fragments[i] != rtl.Fragments[n-1-i] {
			t.Errorf("rtl.Fragments should be the reverse of ltr.Fragments at index %d", i)
		}
	}
}

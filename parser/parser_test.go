package parser

import (
	"testing"

	"github.com/coregx/rxcore/ast"
	"github.com/coregx/rxcore/option"
)

func mustParse(t *testing.T, raw string) *Tree {
	t.Helper()
	tree, err := Parse(raw, option.Default())
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", raw, err)
	}
	return tree
}

func TestParseRootIsOuterCapture(t *testing.T) {
	tree := mustParse(t, `/abc/`)
	if tree.Root.Type != ast.Capture {
		t.Fatalf("Root.Type = %v, want ast.Capture", tree.Root.Type)
	}
	if tree.Root.M != 0 {
		t.Errorf("Root.M = %d, want 0 (the whole-match slot)", tree.Root.M)
	}
}

func TestParseLiteralRun(t *testing.T) {
	tree := mustParse(t, `/hello/`)
	body := tree.Root.Child(0)
	if body.Type != ast.Multi || body.Str != "hello" {
		t.Errorf("body = %+v, want Multi{Str:hello}", body)
	}
}

func TestParseCountedQuantifier(t *testing.T) {
	tree := mustParse(t, `/a{2,5}/`)
	body := tree.Root.Child(0)
	if body.Type != ast.Oneloop || body.M != 2 || body.N != 5 || body.Ch != 'a' {
		t.Errorf("body = %+v, want Oneloop{M:2,N:5,Ch:'a'}", body)
	}
}

func TestParseLazyQuantifier(t *testing.T) {
	tree := mustParse(t, `/a+?/`)
	body := tree.Root.Child(0)
	if body.Type != ast.Onelazy || body.M != 1 || body.N != ast.Infinite {
		t.Errorf("body = %+v, want Onelazy{M:1,N:Infinite}", body)
	}
}

func TestParsePossessiveQuantifierWrapsInGreedy(t *testing.T) {
	tree := mustParse(t, `/a++/`)
	body := tree.Root.Child(0)
	if body.Type != ast.Greedy {
		t.Fatalf("body.Type = %v, want ast.Greedy (possessive wraps in an atomic group)", body.Type)
	}
}

func TestParseCharacterClass(t *testing.T) {
	tree := mustParse(t, `/[a-z]/`)
	body := tree.Root.Child(0)
	if body.Type != ast.Set {
		t.Fatalf("body.Type = %v, want ast.Set", body.Type)
	}
}

func TestParseNegatedClassWithShorthand(t *testing.T) {
	tree := mustParse(t, `/[^\d\s]/`)
	body := tree.Root.Child(0)
	if body.Type != ast.Set {
		t.Fatalf("body.Type = %v, want ast.Set", body.Type)
	}
}

func TestParseReversedRangeInClassErrors(t *testing.T) {
	_, err := Parse(`/[z-a]/`, option.Default())
	if err == nil {
		t.Fatal("expected an error for a reversed range in a character class")
	}
	perr, ok := err.(*Error)
	if !ok || perr.Kind != KindReversedRangeInClass {
		t.Fatalf("err = %v, want KindReversedRangeInClass", err)
	}
}

func TestParsePosixClass(t *testing.T) {
	tree := mustParse(t, `/[[:alpha:]]/`)
	body := tree.Root.Child(0)
	if body.Type != ast.Set {
		t.Fatalf("body.Type = %v, want ast.Set", body.Type)
	}
}

func TestParseUnterminatedClassErrors(t *testing.T) {
	_, err := Parse(`/[abc/`, option.Default())
	if err == nil {
		t.Fatal("expected an error for an unterminated character class")
	}
	perr, ok := err.(*Error)
	if !ok || perr.Kind != KindUnterminatedBracket {
		t.Fatalf("err = %v, want KindUnterminatedBracket", err)
	}
}

func TestParseBackreference(t *testing.T) {
	tree := mustParse(t, `/(a)\1/`)
	seq := tree.Root.Child(0)
	if seq.Type != ast.Concatenate {
		t.Fatalf("body.Type = %v, want ast.Concatenate", seq.Type)
	}
	ref := seq.Child(1)
	if ref.Type != ast.Ref || ref.M != 1 {
		t.Errorf("second child = %+v, want Ref{M:1}", ref)
	}
}

func TestParseNamedGroupAndBackref(t *testing.T) {
	tree := mustParse(t, `/(?<word>\w+)\k<word>/`)
	if _, ok := tree.Capnames["word"]; !ok {
		t.Fatalf("Capnames = %+v, want an entry for \"word\"", tree.Capnames)
	}
}

func TestParseConditionalOnBackreference(t *testing.T) {
	tree := mustParse(t, `/(a)?(?(1)b|c)/`)
	seq := tree.Root.Child(0)
	cond := seq.Child(1)
	if cond.Type != ast.Testref {
		t.Fatalf("second child.Type = %v, want ast.Testref", cond.Type)
	}
}

func TestParseBranchResetSharesSlot(t *testing.T) {
	tree := mustParse(t, `/(?|(a)|(b))/`)
	if tree.Captop != 2 {
		t.Errorf("Captop = %d, want 2 (slot 0 plus the single shared branch-reset slot)", tree.Captop)
	}
}

func TestParseAtomicGroup(t *testing.T) {
	tree := mustParse(t, `/(?>ab)/`)
	body := tree.Root.Child(0)
	if body.Type != ast.Greedy {
		t.Fatalf("body.Type = %v, want ast.Greedy", body.Type)
	}
}

func TestParseLookaroundAssertions(t *testing.T) {
	for _, raw := range []string{`/(?=a)/`, `/(?!a)/`, `/(?<=a)/`, `/(?<!a)/`} {
		tree := mustParse(t, raw)
		body := tree.Root.Child(0)
		if body.Type != ast.Require && body.Type != ast.Prevent {
			t.Errorf("Parse(%q) body.Type = %v, want Require or Prevent", raw, body.Type)
		}
	}
}

func TestParseNestedPlainGroupDoesNotLeakOptionsStack(t *testing.T) {
	// A nested "(?:...)" that opens no options of its own must not pop the
	// enclosing "(?i:...)" scope's options frame when it closes.
	tree := mustParse(t, `/(?i:(?:a)b)/`)
	outer := tree.Root.Child(0)
	if outer.Type != ast.Group {
		t.Fatalf("outer.Type = %v, want ast.Group", outer.Type)
	}
	seq := outer.Child(0)
	if seq.Type != ast.Concatenate {
		t.Fatalf("seq.Type = %v, want ast.Concatenate", seq.Type)
	}
	inner := seq.Child(0)
	if inner.Type != ast.Group {
		t.Fatalf("inner.Type = %v, want ast.Group", inner.Type)
	}
	b := seq.Child(1)
	if !b.CaseInsensitive {
		t.Error("b.CaseInsensitive = false, want true (still inside (?i:...))")
	}
}

func TestParseNestedPlainGroupInLookbehindDoesNotLeakRightToLeft(t *testing.T) {
	// Same leak, but for RightToLeft carried by a lookbehind's scope.
	tree := mustParse(t, `/(?<=(?:a)b)/`)
	require := tree.Root.Child(0)
	if require.Type != ast.Require {
		t.Fatalf("require.Type = %v, want ast.Require", require.Type)
	}
	seq := require.Child(0)
	if seq.Type != ast.Concatenate {
		t.Fatalf("seq.Type = %v, want ast.Concatenate", seq.Type)
	}
	inner := seq.Child(0)
	if inner.Type != ast.Group {
		t.Fatalf("inner.Type = %v, want ast.Group", inner.Type)
	}
	b := seq.Child(1)
	if !b.RightToLeft {
		t.Error("b.RightToLeft = false, want true (still inside (?<=...))")
	}
}

func TestParseBacktrackingVerb(t *testing.T) {
	tree := mustParse(t, `/a(*COMMIT)b/`)
	seq := tree.Root.Child(0)
	verb := seq.Child(1)
	if verb.Type != ast.BacktrackingVerb || verb.M != ast.VerbCommit {
		t.Errorf("second child = %+v, want BacktrackingVerb{M:VerbCommit}", verb)
	}
}

func TestParseSubroutineCall(t *testing.T) {
	tree := mustParse(t, `/(?<digit>\d)(?&digit)/`)
	seq := tree.Root.Child(0)
	call := seq.Child(1)
	if call.Type != ast.CallSubroutine {
		t.Errorf("second child.Type = %v, want ast.CallSubroutine", call.Type)
	}
}

func TestParseNewlineConventionDollarCaret(t *testing.T) {
	// Under the CRLF pragma, "^"/"$" in multiline mode must synthesize the
	// CRLF-aware pseudo-nodes rather than the plain Bol/Eol leaves.
	tree := mustParse(t, `/(*CRLF)^a$/m`)
	if tree.Options.Newline() != option.NewlineCRLF {
		t.Fatalf("Options.Newline() = %v, want NewlineCRLF", tree.Options.Newline())
	}
	seq := tree.Root.Child(0)
	if seq.Type != ast.Concatenate || seq.ChildCount() != 3 {
		t.Fatalf("body = %v with %d children, want a 3-child Concatenate", seq.Type, seq.ChildCount())
	}
	if got := seq.Child(0).Type; got != ast.Greedy {
		t.Errorf("\"^\" node = %v, want the synthesized ast.Greedy wrapper", got)
	}
	if got := seq.Child(2).Type; got != ast.Require {
		t.Errorf("\"$\" node = %v, want the synthesized ast.Require lookahead", got)
	}
}

func TestParseUnknownModifierLetterErrors(t *testing.T) {
	_, err := Parse(`/a/q`, option.Default())
	if err == nil {
		t.Fatal("expected an error for an unrecognized trailing modifier")
	}
}

func TestParseUndefinedBackreferenceErrors(t *testing.T) {
	_, err := Parse(`/\1/`, option.Default())
	if err == nil {
		t.Fatal("expected an error for a backreference to a group that was never opened")
	}
	perr, ok := err.(*Error)
	if !ok || perr.Kind != KindUndefinedBackreference {
		t.Fatalf("err = %v, want KindUndefinedBackreference", err)
	}
}

func TestParseDuplicateNameErrors(t *testing.T) {
	_, err := Parse(`/(?<x>a)(?<x>b)/`, option.Default())
	if err == nil {
		t.Fatal("expected an error for a duplicate capture name without DupNames set")
	}
	perr, ok := err.(*Error)
	if !ok || perr.Kind != KindDuplicateName {
		t.Fatalf("err = %v, want KindDuplicateName", err)
	}
}

func TestParseUnbalancedParensErrors(t *testing.T) {
	_, err := Parse(`/(a/`, option.Default())
	if err == nil {
		t.Fatal("expected an error for an unclosed group")
	}
}

func TestParseEmptyPatternErrors(t *testing.T) {
	_, err := Parse(`//`, option.Default())
	if err == nil {
		t.Fatal("expected an error for an empty pattern body")
	}
	perr, ok := err.(*Error)
	if !ok || perr.Kind != KindEmptyRegex {
		t.Fatalf("err = %v, want KindEmptyRegex", err)
	}
}

func TestAssignNameSlotsRejectsDifferentNamesSameSlot(t *testing.T) {
	r := &prescanResult{
		caps:        map[int]int{0: 0, 1: 1},
		capnames:    map[string]int{"a": 1, "b": 1},
		capnamelist: []string{"a", "b"},
	}
	_, err := AssignNameSlots(r, true)
	if err == nil {
		t.Fatal("expected an error when two distinct names collapse onto the same slot")
	}
	perr, ok := err.(*Error)
	if !ok || perr.Kind != KindDifferentNamesSameSlot {
		t.Fatalf("err = %v, want KindDifferentNamesSameSlot", err)
	}
}

func TestAssignNameSlotsSortsSlots(t *testing.T) {
	r := &prescanResult{
		caps:        map[int]int{0: 0, 3: 1, 1: 1},
		capnames:    map[string]int{},
		capnamelist: nil,
	}
	slots, err := AssignNameSlots(r, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{0, 1, 3}
	if len(slots) != len(want) {
		t.Fatalf("slots = %v, want %v", slots, want)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Errorf("slots[%d] = %d, want %d", i, slots[i], want[i])
		}
	}
}

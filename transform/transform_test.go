package transform

import (
	"testing"

	"github.com/coregx/rxcore/ast"
	"github.com/coregx/rxcore/charclass"
)

func byteSet(lo, hi byte) *ast.Node {
	b := charclass.New()
	b.AddRange(rune(lo), rune(hi))
	n := ast.New(ast.Set)
	n.Str = b.Close()
	return n
}

func byteLit(ch byte) *ast.Node {
	return ast.NewChar(ast.One, rune(ch))
}

func wantSetRange(t *testing.T, n *ast.Node, lo, hi rune) {
	t.Helper()
	if n.Type != ast.Set {
		t.Fatalf("want Set node, got %v", n.Type)
	}
	neg, ranges, ok := charclass.ParseRanges(n.Str)
	if !ok || neg || len(ranges) != 1 {
		t.Fatalf("unexpected set contents %q", n.Str)
	}
	if ranges[0].Lo != lo || ranges[0].Hi != hi {
		t.Fatalf("got range %d-%d, want %d-%d", ranges[0].Lo, ranges[0].Hi, lo, hi)
	}
}

func concat(children ...*ast.Node) *ast.Node {
	n := ast.New(ast.Concatenate)
	for _, c := range children {
		n.AddChild(c)
	}
	return n
}

func TestApplyTwoByteSequence(t *testing.T) {
	c := concat(byteSet(0xC2, 0xDF), byteSet(0x80, 0xBF))
	out := Apply(c)
	if len(out.Children) != 1 {
		t.Fatalf("got %d children, want 1", len(out.Children))
	}
	wantSetRange(t, out.Children[0], 0x0080, 0x07FF)
}

func TestApplyThreeByteSequenceWithLiteralLead(t *testing.T) {
	c := concat(byteLit(0xE0), byteSet(0xA0, 0xBF), byteSet(0x80, 0xBF))
	out := Apply(c)
	if len(out.Children) != 1 {
		t.Fatalf("got %d children, want 1", len(out.Children))
	}
	wantSetRange(t, out.Children[0], 0x0800, 0x0FFF)
}

func TestApplyThreeByteSequenceWithUnrolledLoop(t *testing.T) {
	cont := &ast.Node{Type: ast.Setloop, M: 2, N: 2, Str: byteSet(0x80, 0xBF).Str}
	c := concat(byteSet(0xE1, 0xEC), cont)
	out := Apply(c)
	if len(out.Children) != 1 {
		t.Fatalf("got %d children, want 1", len(out.Children))
	}
	wantSetRange(t, out.Children[0], 0x1000, 0xCFFF)
}

func TestApplyFourByteSurrogatePair(t *testing.T) {
	cont := &ast.Node{Type: ast.Setloop, M: 2, N: 2, Str: byteSet(0x80, 0xBF).Str}
	c := concat(byteLit(0xF0), byteSet(0x90, 0xBF), cont)
	out := Apply(c)
	if len(out.Children) != 2 {
		t.Fatalf("got %d children, want 2", len(out.Children))
	}
	wantSetRange(t, out.Children[0], 0xD800, 0xD8BF)
	wantSetRange(t, out.Children[1], 0xDC00, 0xDFFF)
}

func TestApplyLeavesUnmatchedRunIntact(t *testing.T) {
	c := concat(byteLit('a'), byteLit('b'), byteLit('c'))
	out := Apply(c)
	if len(out.Children) != 3 {
		t.Fatalf("got %d children, want 3 (unchanged)", len(out.Children))
	}
}

func TestApplyLeavesPartialPrefixIntact(t *testing.T) {
	// A leading byte that matches the F0 shape but whose continuation
	// bytes don't (a malformed/unrelated class) must not be consumed.
	c := concat(byteLit(0xF0), byteSet(0x00, 0x7F))
	out := Apply(c)
	if len(out.Children) != 2 {
		t.Fatalf("got %d children, want 2 (no rewrite)", len(out.Children))
	}
	if out.Children[0].Type != ast.One || out.Children[1].Type != ast.Set {
		t.Fatalf("unexpected node types after failed match")
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	c := concat(byteSet(0xC2, 0xDF), byteSet(0x80, 0xBF))
	once := Apply(c)
	onceStr := once.Children[0].Str
	twice := Apply(once)
	if len(twice.Children) != 1 || twice.Children[0].Str != onceStr {
		t.Fatalf("second Apply changed the tree: %+v", twice.Children)
	}
}

func TestApplyRecursesIntoNestedNodes(t *testing.T) {
	inner := concat(byteSet(0xC2, 0xDF), byteSet(0x80, 0xBF))
	group := ast.New(ast.Group)
	group.AddChild(inner)
	Apply(group)
	if len(inner.Children) != 1 {
		t.Fatalf("nested Concatenate was not rewritten")
	}
}

func TestApplyIgnoresRightToLeftNodes(t *testing.T) {
	lead := byteSet(0xC2, 0xDF)
	lead.RightToLeft = true
	c := concat(lead, byteSet(0x80, 0xBF))
	out := Apply(c)
	if len(out.Children) != 2 {
		t.Fatalf("RightToLeft node should not have been rewritten, got %d children", len(out.Children))
	}
}

package ast

import "testing"

func TestNewAndAddChild(t *testing.T) {
	n := New(Concatenate)
	if n.ChildCount() != 0 {
		t.Fatalf("fresh node should have 0 children, got %d", n.ChildCount())
	}
	a := NewChar(One, 'a')
	b := NewChar(One, 'b')
	n.AddChild(a)
	n.AddChild(b)
	if n.ChildCount() != 2 {
		t.Fatalf("ChildCount() = %d, want 2", n.ChildCount())
	}
	if n.Child(0) != a || n.Child(1) != b {
		t.Error("Child should preserve append order")
	}
	if n.Child(5) != nil {
		t.Error("Child with out-of-range index should return nil")
	}
	if n.LastChild() != b {
		t.Error("LastChild should return the most recently appended child")
	}
}

func TestLastChildEmpty(t *testing.T) {
	n := New(Concatenate)
	if n.LastChild() != nil {
		t.Error("LastChild on a childless node should return nil")
	}
}

func TestReplaceChildren(t *testing.T) {
	n := New(Concatenate)
	n.AddChild(NewChar(One, 'x'))
	repl := []*Node{NewChar(One, 'y'), NewChar(One, 'z')}
	n.ReplaceChildren(repl)
	if n.ChildCount() != 2 || n.Child(0).Ch != 'y' || n.Child(1).Ch != 'z' {
		t.Error("ReplaceChildren should swap in the new slice wholesale")
	}
}

func TestIsQuantifiable(t *testing.T) {
	quantifiable := []NodeType{One, Multi, Set, Group, Capture, Loop}
	for _, nt := range quantifiable {
		if !New(nt).IsQuantifiable() {
			t.Errorf("%v should be quantifiable", nt)
		}
	}
	notQuantifiable := []NodeType{Bol, Eol, Beginning, End, EndZ, Start,
		Boundary, Nonboundary, ECMABoundary, NonECMABoundary, Empty, Nothing, ResetMatchStart}
	for _, nt := range notQuantifiable {
		if New(nt).IsQuantifiable() {
			t.Errorf("%v should not be quantifiable", nt)
		}
	}
}

func TestMakeLoopFoldsLeafKinds(t *testing.T) {
	atom := NewChar(One, 'a')
	loop := MakeLoop(atom, 1, 3, false)
	if loop.Type != Oneloop {
		t.Fatalf("MakeLoop(One, greedy) = %v, want Oneloop", loop.Type)
	}
	if loop.M != 1 || loop.N != 3 || loop.Ch != 'a' {
		t.Errorf("loop = %+v, want M=1 N=3 Ch='a'", loop)
	}
	if loop.ChildCount() != 0 {
		t.Error("a folded loop-leaf must not carry a child: the bound is folded into the node itself")
	}

	lazy := MakeLoop(NewChar(One, 'b'), 0, Infinite, true)
	if lazy.Type != Onelazy {
		t.Fatalf("MakeLoop(One, lazy) = %v, want Onelazy", lazy.Type)
	}
}

func TestMakeLoopWrapsStructuralAtoms(t *testing.T) {
	group := New(Group)
	group.AddChild(NewChar(One, 'a'))

	loop := MakeLoop(group, 2, 5, false)
	if loop.Type != Loop {
		t.Fatalf("MakeLoop(Group, greedy) = %v, want Loop", loop.Type)
	}
	if loop.ChildCount() != 1 || loop.Child(0) != group {
		t.Error("a wrapped loop must hold the original atom as its single child")
	}

	lazy := MakeLoop(New(Group), 0, 1, true)
	if lazy.Type != Lazyloop {
		t.Fatalf("MakeLoop(Group, lazy) = %v, want Lazyloop", lazy.Type)
	}
}

func TestMakeLoopPreservesNotoneAndSet(t *testing.T) {
	if got := MakeLoop(NewChar(Notone, 'x'), 0, 1, false).Type; got != Notoneloop {
		t.Errorf("MakeLoop(Notone, greedy) = %v, want Notoneloop", got)
	}
	if got := MakeLoop(NewChar(Notone, 'x'), 0, 1, true).Type; got != Notonelazy {
		t.Errorf("MakeLoop(Notone, lazy) = %v, want Notonelazy", got)
	}
	set := &Node{Type: Set, Str: "97:122"}
	if got := MakeLoop(set, 0, Infinite, false).Type; got != Setloop {
		t.Errorf("MakeLoop(Set, greedy) = %v, want Setloop", got)
	}
	if got := MakeLoop(set, 0, Infinite, true).Type; got != Setlazy {
		t.Errorf("MakeLoop(Set, lazy) = %v, want Setlazy", got)
	}
}

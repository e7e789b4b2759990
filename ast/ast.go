// Package ast defines the single polymorphic regex AST node shared by the
// parser, the UTF-8->UTF-16 transformer, and the bytecode writer.
//
// The node is a closed tagged variant (NodeType discriminant, two small int
// payloads, one optional string payload, an owned child slice), not an
// interface hierarchy — see DESIGN.md's note on teacher's nfa.State, which
// uses the same "one struct, a kind field, exhaustive switches in
// consumers" shape instead of per-kind types with virtual dispatch.
package ast

import "math"

// NodeType is the node discriminant (spec.md §3.2).
type NodeType uint8

const (
	Unknown NodeType = iota

	// Leaves matching input. Ch carries the literal character for One,
	// Notone, and their loop-leaf variants below.
	One    // a single literal character (Ch)
	Notone // any character except Ch
	Multi  // a literal run (Str)
	Set    // a character class (Str = serialized set)

	// Back-reference.
	Ref // M = external capture slot

	// Quantified single-atom leaves, produced when a quantifier is folded
	// directly onto One/Notone/Set instead of wrapping them in Loop/Lazyloop.
	// M = min repeat, N = max repeat (ast.Infinite if unbounded).
	Oneloop
	Onelazy
	Notoneloop
	Notonelazy
	Setloop
	Setlazy

	// Structural.
	Concatenate
	Alternate
	Group           // non-capturing "(?:...)"
	Capture         // M = external slot, N = uncapture-on-close slot or -1
	Require         // positive lookaround
	Prevent         // negative lookaround
	Greedy          // atomic/possessive group
	Testref         // conditional on a backreference having matched
	Testgroup       // conditional on an assertion
	DefinitionGroup // "(?(DEFINE)...)"
	Loop            // counted repetition of a general subtree, M=min N=max
	Lazyloop
	CallSubroutine   // M = external slot referenced
	BacktrackingVerb // M = verb code, see Verb* constants
	ResetMatchStart  // "\K"

	// Zero-width anchors.
	Bol
	Eol
	Beginning
	End
	EndZ
	Start

	// Zero-width word-boundary assertions.
	Boundary
	Nonboundary
	ECMABoundary
	NonECMABoundary

	Empty
	Nothing
)

// Infinite marks an unbounded loop upper bound. A pattern that genuinely
// needs more than math.MaxInt32 repetitions is a logic error, not a value
// this core supports — mirrors internal/conv's panic-on-overflow posture.
const Infinite = math.MaxInt32

// Backtracking verb codes carried in a BacktrackingVerb node's M field.
const (
	VerbAccept = iota
	VerbCommit
	VerbPrune
	VerbSkip
	VerbThen
)

// Node is the single AST node type (spec.md calls it RegexNode).
type Node struct {
	Type NodeType

	// M, N are small integer payloads: min/max repeat bound, capture
	// slot id, or verb code, depending on Type.
	M, N int

	// Ch is the literal character payload for One, Notone, Oneloop,
	// Onelazy, Notoneloop and Notonelazy.
	Ch rune

	// Str is the optional string payload: a literal run (Multi) or a
	// serialized character-set descriptor (Set/Setloop/Setlazy).
	Str string

	// CaseInsensitive/RightToLeft capture per-node options state at the
	// point the node was created, since inline modifiers can change
	// mid-pattern and each node must remember what applied to it.
	CaseInsensitive bool
	RightToLeft     bool

	Children []*Node
}

// New allocates a leaf or structural node with no children yet.
func New(t NodeType) *Node {
	return &Node{Type: t}
}

// NewChar allocates a One or Notone leaf for the given character.
func NewChar(t NodeType, ch rune) *Node {
	return &Node{Type: t, Ch: ch}
}

// AddChild appends a child node, preserving source order. Unlike the
// sibling-linked-list-plus-reversal trick spec.md's design notes attribute
// to the original implementation, a Go slice already supports in-order
// append, so no reversal step is needed here (see DESIGN.md, "ast package").
func (n *Node) AddChild(c *Node) {
	n.Children = append(n.Children, c)
}

// Child returns the i'th child, or nil if out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// ChildCount returns the number of children.
func (n *Node) ChildCount() int { return len(n.Children) }

// LastChild returns the last child, or nil if there are none.
func (n *Node) LastChild() *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[len(n.Children)-1]
}

// ReplaceChildren swaps in a new child slice wholesale. Used by the
// transform package to splice rewritten UTF-16 Set runs into a
// Concatenate's children without rebuilding the parent node.
func (n *Node) ReplaceChildren(children []*Node) {
	n.Children = children
}

// IsQuantifiable reports whether a quantifier ("*","+","?","{m,n}") may be
// attached directly to this node. Zero-width anchors and boundaries, Empty,
// Nothing and ResetMatchStart are not quantifiable; every other kind,
// including groups and captures, is. A quantifier targets the most
// recently completed unit.
func (n *Node) IsQuantifiable() bool {
	switch n.Type {
	case Bol, Eol, Beginning, End, EndZ, Start, Boundary, Nonboundary,
		ECMABoundary, NonECMABoundary, Empty, Nothing, ResetMatchStart:
		return false
	default:
		return true
	}
}

// MakeLoop wraps atom in a Loop (or Lazyloop, if lazy) node with the given
// bounds, except for the single-char/set leaf kinds, which fold the
// quantifier directly into a dedicated loop-leaf kind (Oneloop, Setlazy,
// ...) instead of allocating a wrapper node — mirroring spec.md §3.2's
// leaf enumeration, which lists those folded kinds explicitly.
func MakeLoop(atom *Node, m, n int, lazy bool) *Node {
	if folded, ok := foldedLoopType(atom.Type, lazy); ok {
		return &Node{
			Type:            folded,
			M:               m,
			N:               n,
			Ch:              atom.Ch,
			Str:             atom.Str,
			CaseInsensitive: atom.CaseInsensitive,
			RightToLeft:     atom.RightToLeft,
		}
	}
	t := Loop
	if lazy {
		t = Lazyloop
	}
	wrapper := &Node{Type: t, M: m, N: n}
	wrapper.AddChild(atom)
	return wrapper
}

func foldedLoopType(t NodeType, lazy bool) (NodeType, bool) {
	switch t {
	case One:
		if lazy {
			return Onelazy, true
		}
		return Oneloop, true
	case Notone:
		if lazy {
			return Notonelazy, true
		}
		return Notoneloop, true
	case Set:
		if lazy {
			return Setlazy, true
		}
		return Setloop, true
	default:
		return Unknown, false
	}
}

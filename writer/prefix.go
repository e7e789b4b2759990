// Derivation of the writer's search-acceleration metadata (spec.md §3.5,
// §4.5): a fixed literal prefix every match must start with, or failing
// that, a small first-character set. Grounded on the teacher's
// literal/extractor.go, which walks a parsed AST the same way to build
// prefix/suffix/inner literal sets for prefiltering — rehomed here from
// "build a multi-literal prefilter" to "derive the one leading literal (if
// any) a single compiled program starts with", since this core emits one
// program per pattern rather than a prefilter set.
package writer

import (
	"github.com/coregx/rxcore/ast"
	"github.com/coregx/rxcore/charclass"
	"github.com/coregx/rxcore/internal/search"
)

// derivePrefix walks root's leading edge (descending into the implicit
// outer Capture and the leftmost spine of Concatenate/Group/Capture
// nodes) to find the longest run of mandatory literal characters, falling
// back to a first-character set derived from the first atom that must
// match. Right-to-left patterns are skipped: a "prefix" would actually be
// a trailing literal there, which this core's writer does not attempt to
// derive (the metadata is advisory for an out-of-scope matcher).
func derivePrefix(root *ast.Node, prog *Program) {
	if prog.RightToLeft {
		return
	}

	var lit []rune
	caseFold := false
	node := leadingAtom(root)

	for node != nil {
		switch node.Type {
		case ast.One:
			if len(lit) > 0 && node.CaseInsensitive != caseFold {
				node = nil
				continue
			}
			caseFold = node.CaseInsensitive
			lit = append(lit, node.Ch)
			node = nextSibling(root, node)
		case ast.Multi:
			if len(lit) > 0 && node.CaseInsensitive != caseFold {
				node = nil
				continue
			}
			caseFold = node.CaseInsensitive
			lit = append(lit, []rune(node.Str)...)
			node = nextSibling(root, node)
		default:
			node = nil
		}
	}

	if len(lit) > 0 {
		prog.LiteralPrefix = string(lit)
		prog.LiteralPrefixCaseFold = caseFold
		table, simd := search.BuildBadCharTable(prog.LiteralPrefix, caseFold)
		prog.BadCharTable = table
		prog.SIMDCapable = simd
		return
	}

	prog.FirstSet = firstCharSet(leadingAtom(root))
}

// leadingAtom descends the leftmost spine of transparent wrapper nodes
// (the implicit root Capture, Concatenate, Group, nested Capture) to find
// the first node that actually consumes input, or nil if the leading edge
// is zero-width or structurally unbounded (Alternate, Loop with m==0,
// etc. — all of which make "the first character" ambiguous, so no hint is
// derived).
func leadingAtom(n *ast.Node) *ast.Node {
	for n != nil {
		switch n.Type {
		case ast.Capture, ast.Group, ast.Greedy:
			n = n.Child(0)
		case ast.Concatenate:
			if n.ChildCount() == 0 {
				return nil
			}
			n = n.Child(0)
		case ast.One, ast.Notone, ast.Multi, ast.Set,
			ast.Oneloop, ast.Onelazy, ast.Notoneloop, ast.Notonelazy,
			ast.Setloop, ast.Setlazy:
			if minReps(n) == 0 {
				return nil
			}
			return n
		default:
			return nil
		}
	}
	return nil
}

func minReps(n *ast.Node) int {
	switch n.Type {
	case ast.Oneloop, ast.Onelazy, ast.Notoneloop, ast.Notonelazy, ast.Setloop, ast.Setlazy:
		return n.M
	default:
		return 1
	}
}

// nextSibling finds node's following sibling within root's leading
// Concatenate spine, or nil once the run ends (node is the last child, or
// not found under a simple spine).
func nextSibling(root *ast.Node, node *ast.Node) *ast.Node {
	parent := findParentConcat(root, node)
	if parent == nil {
		return nil
	}
	for i, c := range parent.Children {
		if c == node {
			if i+1 < len(parent.Children) {
				return leadingAtom(parent.Children[i+1])
			}
			return nil
		}
	}
	return nil
}

// findParentConcat walks the same leftmost spine derivePrefix descended
// to find the Concatenate node that directly contains target.
func findParentConcat(n *ast.Node, target *ast.Node) *ast.Node {
	for n != nil {
		switch n.Type {
		case ast.Capture, ast.Group, ast.Greedy:
			n = n.Child(0)
		case ast.Concatenate:
			for _, c := range n.Children {
				if c == target {
					return n
				}
			}
			if n.ChildCount() > 0 {
				n = n.Child(0)
				continue
			}
			return nil
		default:
			return nil
		}
	}
	return nil
}

// firstCharSet derives a serialized charclass descriptor (package
// charclass's format) of the characters that can start a match from a
// single leading atom, or "" if none could be derived.
func firstCharSet(n *ast.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type {
	case ast.One, ast.Oneloop, ast.Onelazy:
		b := charclass.New()
		b.AddChar(n.Ch)
		if n.CaseInsensitive {
			b.CloseCaseInsensitive()
		}
		return b.Close()
	case ast.Notone, ast.Notoneloop, ast.Notonelazy:
		b := charclass.New()
		b.AddChar(n.Ch)
		b.Negate()
		return b.Close()
	case ast.Set, ast.Setloop, ast.Setlazy:
		return n.Str
	default:
		return ""
	}
}

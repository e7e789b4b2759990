package writer

import "github.com/coregx/rxcore/ast"

// deriveAnchor implements spec.md §4.5's "anchor mask summarizing leading
// \A/\G/^" derivation: a cheap structural check of the pattern's leading
// edge, not a full static-anchoring analysis.
func deriveAnchor(root *ast.Node, prog *Program) {
	n := leadingZeroWidth(root)
	if n == nil {
		return
	}
	switch n.Type {
	case ast.Beginning:
		prog.AnchorMask |= AnchorBeginning
	case ast.Start:
		prog.AnchorMask |= AnchorStart
	case ast.Bol:
		prog.AnchorMask |= AnchorBol
	}
}

// leadingZeroWidth descends the same transparent-wrapper spine
// leadingAtom does, but also passes through a leading zero-width node
// (Bol/Beginning/Start) to return it directly, since an anchor at the
// very start of a pattern may itself be the first "real" node.
func leadingZeroWidth(n *ast.Node) *ast.Node {
	for n != nil {
		switch n.Type {
		case ast.Capture, ast.Group, ast.Greedy:
			n = n.Child(0)
		case ast.Concatenate:
			if n.ChildCount() == 0 {
				return nil
			}
			n = n.Child(0)
		default:
			return n
		}
	}
	return nil
}

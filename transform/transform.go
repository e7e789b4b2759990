// Package transform implements the UTF-8 -> UTF-16 range transformer
// (spec.md §4.4): a pass over the AST that recognizes concatenations of
// nodes shaped like an explicit UTF-8 multi-byte sequence (written as
// literal bytes and byte-range sets, e.g. "[\xC2-\xDF][\x80-\xBF]") and
// replaces them with one or two Set nodes expressed in UTF-16 code units,
// so the matcher never has to special-case byte-range shapes at run time.
//
// Grounded on the teacher's nfa/utf8_suffix.go, which recognizes the same
// continuation-byte range shapes during NFA compilation for state sharing;
// this package recognizes the identical shapes one level up, as an AST
// rewrite rather than an NFA-construction optimization.
package transform

import (
	"github.com/coregx/rxcore/ast"
	"github.com/coregx/rxcore/charclass"
)

// Apply walks root and rewrites every Concatenate node's children in
// place, returning root. The rewrite is idempotent: a Concatenate that has
// already been rewritten (or never matched) is returned unchanged on a
// second pass, since the synthesized Set nodes never themselves match one
// of the eight input shapes below.
func Apply(root *ast.Node) *ast.Node {
	if root == nil {
		return nil
	}
	if root.Type == ast.Concatenate {
		root.ReplaceChildren(rewriteRun(root.Children))
	}
	for _, c := range root.Children {
		Apply(c)
	}
	return root
}

// rewriteRun scans children left to right, replacing every matched
// subsequence with its UTF-16 equivalent and leaving everything else
// (including a partial, unmatched prefix of a pattern) untouched.
func rewriteRun(children []*ast.Node) []*ast.Node {
	out := make([]*ast.Node, 0, len(children))
	i := 0
	for i < len(children) {
		if repl, consumed, ok := matchAt(children, i); ok {
			out = append(out, repl...)
			i += consumed
			continue
		}
		out = append(out, children[i])
		i++
	}
	return out
}

// byteRun describes one AST child that consumes exactly one UTF-8 byte
// position: either a literal One or a Set over a single, non-negated,
// byte-valued range. reps is the number of consecutive identical byte
// positions this one child accounts for (1 normally, or m==n for a
// Setloop/Setlazy inline-unrolled per spec.md §4.4).
type byteRun struct {
	lo, hi byte
	reps   int
}

// asByteRun classifies a single AST child as a byteRun, or reports ok=false
// if it is not one of the shapes the transformer understands. A node that
// carries RightToLeft is never treated as a byte run: direction affects how
// the matched bytes combine into code points, which this rewrite assumes is
// left to right.
func asByteRun(n *ast.Node) (byteRun, bool) {
	if n.RightToLeft {
		return byteRun{}, false
	}
	switch n.Type {
	case ast.One:
		if n.Ch > 0xFF {
			return byteRun{}, false
		}
		return byteRun{lo: byte(n.Ch), hi: byte(n.Ch), reps: 1}, true
	case ast.Set:
		lo, hi, ok := singleByteRange(n.Str)
		if !ok {
			return byteRun{}, false
		}
		return byteRun{lo: lo, hi: hi, reps: 1}, true
	case ast.Setloop, ast.Setlazy:
		if n.M != n.N || n.M < 1 || n.M > 3 {
			return byteRun{}, false
		}
		lo, hi, ok := singleByteRange(n.Str)
		if !ok {
			return byteRun{}, false
		}
		return byteRun{lo: lo, hi: hi, reps: n.M}, true
	default:
		return byteRun{}, false
	}
}

func singleByteRange(setStr string) (lo, hi byte, ok bool) {
	neg, ranges, parsed := charclass.ParseRanges(setStr)
	if !parsed || neg || len(ranges) != 1 {
		return 0, 0, false
	}
	r := ranges[0]
	if r.Lo < 0 || r.Hi > 0xFF {
		return 0, 0, false
	}
	return byte(r.Lo), byte(r.Hi), true
}

// pattern is one row of spec.md §4.4's table: a fixed sequence of byte
// shapes (each with an expected repeat count) matched against consecutive
// children, and a builder producing the replacement Set node(s).
type pattern struct {
	shape []shapeSpec
	build func(m []byteRun) []*ast.Node
}

type shapeSpec struct {
	lo, hi byte
	reps   int
}

var patterns = []pattern{
	{ // [\xC2-\xDF][\x80-\xBF] -> [-߿]
		shape: []shapeSpec{{0xC2, 0xDF, 1}, {0x80, 0xBF, 1}},
		build: func(m []byteRun) []*ast.Node {
			return []*ast.Node{setNode(0x0080, 0x07FF)}
		},
	},
	{ // \xE0[\xA0-\xBF][\x80-\xBF] -> [ࠀ-࿿]
		shape: []shapeSpec{{0xE0, 0xE0, 1}, {0xA0, 0xBF, 1}, {0x80, 0xBF, 1}},
		build: func(m []byteRun) []*ast.Node {
			return []*ast.Node{setNode(0x0800, 0x0FFF)}
		},
	},
	{ // [\xE1-\xEC][\x80-\xBF]{2} -> [က-쿿]
		shape: []shapeSpec{{0xE1, 0xEC, 1}, {0x80, 0xBF, 2}},
		build: func(m []byteRun) []*ast.Node {
			return []*ast.Node{setNode(0x1000, 0xCFFF)}
		},
	},
	{ // \xED[\x80-\x9F][\x80-\xBF] -> [퀀-퟿]
		shape: []shapeSpec{{0xED, 0xED, 1}, {0x80, 0x9F, 1}, {0x80, 0xBF, 1}},
		build: func(m []byteRun) []*ast.Node {
			return []*ast.Node{setNode(0xD000, 0xD7FF)}
		},
	},
	{ // [\xEE-\xEF][\x80-\xBF]{2} -> [-￿]
		shape: []shapeSpec{{0xEE, 0xEF, 1}, {0x80, 0xBF, 2}},
		build: func(m []byteRun) []*ast.Node {
			return []*ast.Node{setNode(0xE000, 0xFFFF)}
		},
	},
	{ // \xF0[\x90-\xBF][\x80-\xBF]{2} -> [\uD800-\uD8BF][\uDC00-\uDFFF]
		shape: []shapeSpec{{0xF0, 0xF0, 1}, {0x90, 0xBF, 1}, {0x80, 0xBF, 2}},
		build: func(m []byteRun) []*ast.Node {
			return []*ast.Node{setNode(0xD800, 0xD8BF), setNode(0xDC00, 0xDFFF)}
		},
	},
	{ // [\xF1-\xF3][\x80-\xBF]{3} -> [\uD8C0-\uDBBF][\uDC00-\uDFFF]
		shape: []shapeSpec{{0xF1, 0xF3, 1}, {0x80, 0xBF, 3}},
		build: func(m []byteRun) []*ast.Node {
			return []*ast.Node{setNode(0xD8C0, 0xDBBF), setNode(0xDC00, 0xDFFF)}
		},
	},
	{ // \xF4[\x80-\x8F][\x80-\xBF]{2} -> [\uDBC0-\uDBFF][\uDC00-\uDFFF]
		shape: []shapeSpec{{0xF4, 0xF4, 1}, {0x80, 0x8F, 1}, {0x80, 0xBF, 2}},
		build: func(m []byteRun) []*ast.Node {
			return []*ast.Node{setNode(0xDBC0, 0xDBFF), setNode(0xDC00, 0xDFFF)}
		},
	},
}

// matchAt tries every pattern at position i, returning the replacement
// nodes and the number of original children consumed on the first match.
// The patterns' leading byte ranges are mutually exclusive (C2-DF, E0,
// E1-EC, ED, EE-EF, F0, F1-F3, F4 never overlap), so at most one can match
// at any position.
func matchAt(children []*ast.Node, i int) ([]*ast.Node, int, bool) {
	for _, pat := range patterns {
		if consumed, runs, ok := matchShape(children, i, pat.shape); ok {
			return pat.build(runs), consumed, true
		}
	}
	return nil, 0, false
}

func matchShape(children []*ast.Node, i int, shape []shapeSpec) (int, []byteRun, bool) {
	if i+len(shape) > len(children) {
		return 0, nil, false
	}
	runs := make([]byteRun, len(shape))
	for k, want := range shape {
		got, ok := asByteRun(children[i+k])
		if !ok || got.lo != want.lo || got.hi != want.hi || got.reps != want.reps {
			return 0, nil, false
		}
		runs[k] = got
	}
	return len(shape), runs, true
}

func setNode(lo, hi rune) *ast.Node {
	b := charclass.New()
	b.AddRange(lo, hi)
	n := ast.New(ast.Set)
	n.Str = b.Close()
	return n
}

package rxcore

import (
	"github.com/coregx/rxcore/ast"
	"github.com/coregx/rxcore/option"
	"github.com/coregx/rxcore/parser"
	"github.com/coregx/rxcore/transform"
	"github.com/coregx/rxcore/writer"
)

// Parse runs preprocess -> capture prescan -> main parse (spec.md §6:
// "parse(raw_pattern, initial_options) -> RegexTree | ParseError") and
// returns the raw, untransformed AST plus its capture bookkeeping. Most
// callers want Compile; Parse is exposed for callers that need the AST
// before UTF-8->UTF-16 rewriting, e.g. a pattern linter.
func Parse(raw string, initial option.Options) (*parser.Tree, error) {
	return parser.Parse(raw, initial)
}

// Write runs the UTF-8->UTF-16 transformer over tree.Root and then the
// bytecode writer, as the final two stages of Compile. Exposed separately
// for callers that already hold a *parser.Tree (e.g. from Parse) and want
// to apply their own AST rewrite before writing.
func Write(tree *parser.Tree) (*writer.Program, error) {
	tree.Root = transform.Apply(tree.Root)
	return writer.Write(tree)
}

// Compile is this module's one new top-level entry point: it chains every
// pipeline stage spec.md §2 describes — preprocess, prescan, parse,
// UTF-8->UTF-16 transform, write — and returns the finished bytecode
// program. It never matches; running a compiled Program against an input
// string is a separate, out-of-scope matching engine's job (spec.md §1).
func Compile(raw string, initial option.Options) (*writer.Program, error) {
	tree, err := parser.Parse(raw, initial)
	if err != nil {
		return nil, err
	}
	return Write(tree)
}

// ReTransform exposes the AST rewrite stage on its own, for callers (e.g.
// a test harness checking spec.md §8's idempotence property) that need to
// apply it directly to an arbitrary node rather than a whole *parser.Tree.
func ReTransform(root *ast.Node) *ast.Node {
	return transform.Apply(root)
}

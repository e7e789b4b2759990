package parser

import (
	"github.com/coregx/rxcore/ast"
	"github.com/coregx/rxcore/option"
)

// Tree is the result of Parse: the AST root (always an outer
// Capture(slot=0) per spec.md §3.2's invariant) plus the capture
// bookkeeping the writer needs to compute its dense slot remap.
type Tree struct {
	Root       *ast.Node
	Options    option.Options
	Caps       map[int]int
	Capnames   map[string]int
	Captop     int
	Capnumlist []int // sorted external slots actually used, per spec.md §3.3
}

// Parse implements the parser's external entrypoint (spec.md §6:
// "parse(raw_pattern, initial_options) -> RegexTree | ParseError"),
// chaining Preprocess -> capture prescan -> main parse.
func Parse(raw string, initial option.Options) (*Tree, error) {
	pre, err := Preprocess(raw, initial)
	if err != nil {
		return nil, err
	}
	if pre.Body == "" {
		return nil, newErr(pre.BodyStart, KindEmptyRegex)
	}

	scan, err := prescan(pre.Body, pre.BodyStart, pre.Options)
	if err != nil {
		return nil, err
	}
	sortedSlots, err := AssignNameSlots(scan, pre.Options.Has(option.DupNames))
	if err != nil {
		return nil, err
	}

	p := &Parser{
		src:         pre.Body,
		bodyStart:   pre.BodyStart,
		optStack:    option.NewStack(pre.Options),
		caps:        copyIntMap(scan.caps),
		capnames:    copyStringMap(scan.capnames),
		capnamelist: append([]string{}, scan.capnamelist...),
		captop:      scan.captop,
	}

	body, err := p.run()
	if err != nil {
		return nil, err
	}

	root := ast.New(ast.Capture)
	root.M = 0
	root.N = -1
	root.AddChild(body)

	return &Tree{
		Root:       root,
		Options:    pre.Options,
		Caps:       p.caps,
		Capnames:   p.capnames,
		Captop:     p.captop,
		Capnumlist: sortedSlots,
	}, nil
}

func copyIntMap(m map[int]int) map[int]int {
	out := make(map[int]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyStringMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

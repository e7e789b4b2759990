package parser

import (
	"unicode/utf8"

	"github.com/coregx/rxcore/ast"
	"github.com/coregx/rxcore/option"
)

// frame is one entry of the parser's explicit group-nesting stack
// (spec.md §9: "re-implement [...] via explicit stacks; do not rely on
// host call stacks, because deeply nested alternations occur in real
// patterns"). It bundles the four per-group AST "registers" spec.md §4.3.1
// names (group/alternation/concatenation/unit) plus bookkeeping needed to
// validate and close the group correctly.
type frame struct {
	kind        groupKind
	alternation *ast.Node   // accumulating Alternate, nil until a top-level '|'
	concat      []*ast.Node // the in-progress Concatenate's children
	branch      *branchFrame
	capSlot     int // external slot for Capture frames, else -1
	uncapSlot   int // balancing slot for ")" of a branch-reset sibling, -1 if none
	startPos    int // absolute offset of this group's '(' (for prescan's caps map)

	condRef  int      // Testref's referenced slot, set by openConditional
	condNode *ast.Node // Testgroup's assertion condition, filled in by closeGroup
}

type groupKind uint8

const (
	groupCapture groupKind = iota
	groupNonCapture
	groupAtomic
	groupRequire
	groupPrevent
	groupTestref
	groupTestgroup
	groupDefinition
	groupRoot
)

// branchFrame is pushed per "(?|...)" group (spec.md §3.4).
type branchFrame struct {
	startAutocap int
	maxAutocap   int
}

// Parser is the stateful recursive-descent/stack-driven scanner that turns
// a preprocessed pattern body into an AST (spec.md §4.3). The same type,
// with scanOnly set, also backs the capture prescan (spec.md §4.2), since
// both passes must tokenize identically.
type Parser struct {
	src       string
	pos       int
	bodyStart int // added to pos to produce an absolute raw-input offset

	optStack *option.Stack

	stack []*frame
	unit  *ast.Node

	caps        map[int]int
	capnames    map[string]int
	capnamelist []string
	captop      int
	capnumlist  []int
	capOrder    []int // slot numbers in the order their '(' was scanned

	autocap int

	scanOnly bool
}

func (p *Parser) eof() bool { return p.pos >= len(p.src) }

func (p *Parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *Parser) peekAt(offset int) byte {
	i := p.pos + offset
	if i < 0 || i >= len(p.src) {
		return 0
	}
	return p.src[i]
}

func (p *Parser) advance() { p.pos++ }

func (p *Parser) peekRune() rune {
	r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
	return r
}

func (p *Parser) advanceRune() {
	_, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
}

func (p *Parser) absPos() int { return p.bodyStart + p.pos }

func (p *Parser) opts() option.Options {
	if p.optStack == nil {
		return option.Default()
	}
	return p.optStack.Top()
}

func (p *Parser) top() *frame {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

func (p *Parser) pushFrame(f *frame) { p.stack = append(p.stack, f) }

// pushGroup opens a new frame together with the options frame it carries
// for its lifetime, keeping optStack.Push/Pop 1:1 with frame push/pop no
// matter which kind of "(" the frame came from (spec.md §9). opts is
// usually p.opts() unchanged; callers that adjust an option for the new
// scope (e.g. RightToLeft inside a lookbehind) pass the adjusted value.
func (p *Parser) pushGroup(f *frame, opts option.Options) {
	p.optStack.Push(opts)
	p.pushFrame(f)
}

func (p *Parser) popFrame() *frame {
	f := p.top()
	if f != nil {
		p.stack = p.stack[:len(p.stack)-1]
	}
	return f
}

package writer

import (
	"github.com/coregx/rxcore/ast"
	"github.com/coregx/rxcore/internal/conv"
	"github.com/coregx/rxcore/option"
	"github.com/coregx/rxcore/parser"
)

// step is one unit of deferred emission work. Using a heap-allocated stack
// of closures instead of direct Go-level recursion mirrors spec.md §9's
// "do not rely on host call stacks, because deeply nested alternations
// occur in real patterns": each step runs to completion and returns
// immediately after scheduling its children's steps, so the Go call stack
// never grows with AST depth — only ctx.work does.
type step func()

// ctx carries every piece of mutable state one Write call threads through
// its trampoline.
type ctx struct {
	code      []int32
	strings   []string
	stringIdx map[string]int

	remap        map[int]int
	capPositions []int

	trackCount int

	work []step
	err  error
}

// Write implements spec.md §6's writer surface: "write(tree) -> RegexCode".
// It performs one depth-first walk of tree.Root, emitting a linear opcode
// array with back-patched forward jumps (spec.md §4.5), then derives the
// literal-prefix/first-set/anchor metadata spec.md §3.5 asks the finished
// program to carry.
func Write(tree *parser.Tree) (*Program, error) {
	remap, capSize := buildRemap(tree.Captop, tree.Capnumlist)

	w := &ctx{
		stringIdx:    map[string]int{},
		remap:        remap,
		capPositions: makeFilled(capSize, -1),
	}

	rootFlags := baseFlags(tree.Options)
	lazyIdx := w.emitJump(Lazybranch, rootFlags)
	w.schedule(
		w.stepEmit(tree.Root),
		step(func() {
			w.patch(lazyIdx, w.pos())
			w.emit0(Stop, rootFlags)
		}),
	)
	w.run()
	if w.err != nil {
		return nil, w.err
	}

	for slot, pos := range w.capPositions {
		if pos < 0 {
			return nil, newErr(KindCaptureSlotUnmapped, "dense slot %d", slot)
		}
	}

	names := make(map[string]int, len(tree.Capnames))
	for name, ext := range tree.Capnames {
		if dense, ok := remap[ext]; ok {
			names[name] = dense
		}
	}

	prog := &Program{
		Code:         w.code,
		Strings:      w.strings,
		TrackCount:   w.trackCount,
		CapSize:      capSize,
		CaptureRemap: remap,
		CaptureNames: names,
		CapPositions: w.capPositions,
		RightToLeft:  tree.Options.Has(option.RightToLeft),
	}
	derivePrefix(tree.Root, prog)
	deriveAnchor(tree.Root, prog)
	return prog, nil
}

func makeFilled(n int, v int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func baseFlags(opts option.Options) Op {
	var f Op
	if opts.Has(option.RightToLeft) {
		f |= RTL
	}
	if opts.Has(option.IgnoreCase) {
		f |= CI
	}
	return f
}

// --- trampoline plumbing ---

func (w *ctx) schedule(steps ...step) {
	for i := len(steps) - 1; i >= 0; i-- {
		w.work = append(w.work, steps[i])
	}
}

func (w *ctx) run() {
	for len(w.work) > 0 && w.err == nil {
		n := len(w.work) - 1
		s := w.work[n]
		w.work = w.work[:n]
		s()
	}
}

func (w *ctx) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// --- raw code emission ---

func (w *ctx) pos() int { return len(w.code) }

func (w *ctx) emit0(op Op, flags Op) {
	w.code = append(w.code, int32(op|flags))
	w.countTrack(op)
}

func (w *ctx) emit1(op Op, flags Op, a int) {
	w.code = append(w.code, int32(op|flags), conv.IntToInt32(a))
	w.countTrack(op)
}

func (w *ctx) emit2(op Op, flags Op, a, b int) {
	w.code = append(w.code, int32(op|flags), conv.IntToInt32(a), conv.IntToInt32(b))
	w.countTrack(op)
}

func (w *ctx) emit3(op Op, flags Op, a, b, c int) {
	w.code = append(w.code, int32(op|flags), conv.IntToInt32(a), conv.IntToInt32(b), conv.IntToInt32(c))
	w.countTrack(op)
}

// emitJump emits a two-int32 jump-family instruction with a placeholder
// target and returns the index of that operand for a later patch call.
func (w *ctx) emitJump(op Op, flags Op) int {
	w.code = append(w.code, int32(op|flags), 0)
	w.countTrack(op)
	return len(w.code) - 1
}

func (w *ctx) patch(operandIdx, target int) {
	w.code[operandIdx] = conv.IntToInt32(target)
}

// countTrack accumulates the static upper bound on backtracking stack
// frames (spec.md §3.5/§4.5): every op that pushes state a match must be
// able to undo counts once.
func (w *ctx) countTrack(op Op) {
	switch op.Base() {
	case Lazybranch, Setjump, Setmark, Nullmark, Setcount, Nullcount,
		Branchmark, Branchcount, Backjump:
		w.trackCount++
	}
}

func (w *ctx) internString(s string) int {
	if idx, ok := w.stringIdx[s]; ok {
		return idx
	}
	idx := len(w.strings)
	w.strings = append(w.strings, s)
	w.stringIdx[s] = idx
	return idx
}

func flagsOf(n *ast.Node) Op {
	var f Op
	if n.CaseInsensitive {
		f |= CI
	}
	if n.RightToLeft {
		f |= RTL
	}
	return f
}

// stepEmit returns a step that emits the subtree rooted at n, scheduling
// further steps for n's children rather than calling itself recursively.
func (w *ctx) stepEmit(n *ast.Node) step {
	return func() { w.emitNode(n) }
}

func (w *ctx) emitNode(n *ast.Node) {
	if n == nil {
		return
	}
	switch n.Type {
	case ast.Empty:
		// Zero-width, always succeeds: no instruction needed.

	case ast.Nothing:
		w.emit0(Nothing, flagsOf(n))

	case ast.One:
		w.emit1(One, flagsOf(n), int(n.Ch))
	case ast.Notone:
		w.emit1(Notone, flagsOf(n), int(n.Ch))
	case ast.Multi:
		w.emit1(Multi, flagsOf(n), w.internString(n.Str))
	case ast.Set:
		w.emit1(Set, flagsOf(n), w.internString(n.Str))

	case ast.Oneloop, ast.Onelazy, ast.Notoneloop, ast.Notonelazy:
		w.emitCharLoop(n)
	case ast.Setloop, ast.Setlazy:
		w.emitSetLoop(n)

	case ast.Ref:
		dense, ok := w.remap[n.M]
		if !ok {
			w.fail(newErr(KindCaptureSlotUnmapped, "ref to slot %d", n.M))
			return
		}
		w.emit1(Ref, flagsOf(n), dense)

	case ast.Bol:
		w.emit0(Bol, flagsOf(n))
	case ast.Eol:
		w.emit0(Eol, flagsOf(n))
	case ast.Beginning:
		w.emit0(Beginning, flagsOf(n))
	case ast.End:
		w.emit0(End, flagsOf(n))
	case ast.EndZ:
		w.emit0(EndZ, flagsOf(n))
	case ast.Start:
		w.emit0(Start, flagsOf(n))
	case ast.Boundary:
		w.emit0(Boundary, flagsOf(n))
	case ast.Nonboundary:
		w.emit0(Nonboundary, flagsOf(n))
	case ast.ECMABoundary:
		w.emit0(ECMABoundary, flagsOf(n))
	case ast.NonECMABoundary:
		w.emit0(NonECMABoundary, flagsOf(n))
	case ast.ResetMatchStart:
		w.emit0(ResetMatchStart, flagsOf(n))

	case ast.CallSubroutine:
		dense, ok := w.remap[n.M]
		if !ok {
			w.fail(newErr(KindCaptureSlotUnmapped, "call to slot %d", n.M))
			return
		}
		w.emit1(CallSubroutine, 0, dense)

	case ast.BacktrackingVerb:
		w.emit1(Verb, 0, n.M)

	case ast.Concatenate:
		steps := make([]step, len(n.Children))
		for i, c := range n.Children {
			steps[i] = w.stepEmit(c)
		}
		w.schedule(steps...)

	case ast.Group:
		w.schedule(w.stepEmit(n.Child(0)))

	case ast.Alternate:
		w.emitAlternate(n)

	case ast.Capture:
		w.emitCapture(n)

	case ast.Require:
		w.emitRequire(n, flagsOf(n))
	case ast.Prevent:
		w.emitPrevent(n, flagsOf(n))
	case ast.Greedy:
		w.emitGreedy(n, flagsOf(n))

	case ast.Loop, ast.Lazyloop:
		w.emitLoop(n)

	case ast.Testref:
		w.emitTestref(n)
	case ast.Testgroup:
		w.emitTestgroup(n)
	case ast.DefinitionGroup:
		w.emitDefinitionGroup(n)

	default:
		w.fail(newErr(KindUnknownNodeType, "%v", n.Type))
	}
}

// emitCharLoop implements spec.md §4.5's "single-char runs" rule: with
// m>0, emit a fixed Onerep/Notonerep for the mandatory prefix, then the
// remaining (n-m) as a looping form (or nothing further, if n==m).
func (w *ctx) emitCharLoop(n *ast.Node) {
	f := flagsOf(n)
	rep, loop := repAndLoopOps(n.Type)
	if n.M > 0 {
		w.emit2(rep, f, int(n.Ch), n.M)
	}
	remaining := 0
	if n.N != ast.Infinite {
		remaining = n.N - n.M
	}
	if n.N == ast.Infinite || remaining > 0 {
		top := ast.Infinite
		if n.N != ast.Infinite {
			top = remaining
		}
		w.emit3(loop, f, int(n.Ch), 0, top)
	}
}

func repAndLoopOps(t ast.NodeType) (rep, loop Op) {
	switch t {
	case ast.Oneloop:
		return Onerep, Oneloop
	case ast.Onelazy:
		return Onerep, Onelazy
	case ast.Notoneloop:
		return Notonerep, Notoneloop
	case ast.Notonelazy:
		return Notonerep, Notonelazy
	default:
		return Nothing, Nothing
	}
}

func (w *ctx) emitSetLoop(n *ast.Node) {
	f := flagsOf(n)
	str := w.internString(n.Str)
	rep := Setrep
	loop := Setloop
	if n.Type == ast.Setlazy {
		loop = Setlazy
	}
	if n.M > 0 {
		w.emit2(rep, f, str, n.M)
	}
	remaining := 0
	if n.N != ast.Infinite {
		remaining = n.N - n.M
	}
	if n.N == ast.Infinite || remaining > 0 {
		top := ast.Infinite
		if n.N != ast.Infinite {
			top = remaining
		}
		w.emit3(loop, f, str, 0, top)
	}
}

// emitAlternate implements spec.md §4.5's Alternate rule.
func (w *ctx) emitAlternate(n *ast.Node) {
	last := len(n.Children) - 1
	if last < 0 {
		return
	}
	gotoPatches := make([]int, 0, last)
	for i := 0; i <= last; i++ {
		child := n.Children[i]
		if i == last {
			w.schedule(w.stepEmit(child))
			continue
		}
		lazyIdx := w.emitJump(Lazybranch, 0)
		w.schedule(
			w.stepEmit(child),
			step(func() {
				gotoIdx := w.emitJump(Goto, 0)
				w.patch(lazyIdx, w.pos())
				gotoPatches = append(gotoPatches, gotoIdx)
			}),
		)
	}
	w.schedule(step(func() {
		for _, idx := range gotoPatches {
			w.patch(idx, w.pos())
		}
	}))
}

// emitCapture implements spec.md §4.5's Capture rule, recording the dense
// slot's opening code position for the (out-of-scope) matcher and for
// CallSubroutine targets within this same program.
func (w *ctx) emitCapture(n *ast.Node) {
	dense, ok := w.remap[n.M]
	if !ok {
		w.fail(newErr(KindCaptureSlotUnmapped, "capture slot %d", n.M))
		return
	}
	w.emit0(Setmark, 0)
	w.capPositions[dense] = w.pos()
	uncapDense := -1
	if n.N >= 0 {
		d, ok := w.remap[n.N]
		if !ok {
			w.fail(newErr(KindCaptureSlotUnmapped, "uncapture slot %d", n.N))
			return
		}
		uncapDense = d
	}
	w.schedule(
		w.stepEmit(n.Child(0)),
		step(func() { w.emit2(Capturemark, 0, dense, uncapDense) }),
	)
}

// emitRequire implements spec.md §4.5's Require (positive lookaround) rule.
func (w *ctx) emitRequire(n *ast.Node, f Op) {
	w.emit0(Setjump, f)
	w.emit0(Setmark, f)
	w.schedule(
		w.stepEmit(n.Child(0)),
		step(func() {
			w.emit0(Getmark, f)
			w.emit0(Forejump, f)
		}),
	)
}

// emitPrevent implements spec.md §4.5's Prevent (negative lookaround) rule.
func (w *ctx) emitPrevent(n *ast.Node, f Op) {
	w.emit0(Setjump, f)
	lazyIdx := w.emitJump(Lazybranch, f)
	w.schedule(
		w.stepEmit(n.Child(0)),
		step(func() {
			w.emit0(Backjump, f)
			w.patch(lazyIdx, w.pos())
			w.emit0(Forejump, f)
		}),
	)
}

// emitGreedy implements spec.md §4.5's Greedy (atomic group) rule.
func (w *ctx) emitGreedy(n *ast.Node, f Op) {
	w.emit0(Setjump, f)
	w.schedule(
		w.stepEmit(n.Child(0)),
		step(func() { w.emit0(Forejump, f) }),
	)
}

// emitLoop implements spec.md §4.5's Loop/Lazyloop rule: counted control
// (Setcount/Branchcount) when the repetition has a finite upper bound or a
// minimum above 1, otherwise uncounted control (Setmark/Branchmark) — both
// forms gated by an m==0 early-exit Goto, per spec.md's literal wording.
func (w *ctx) emitLoop(n *ast.Node) {
	lazy := n.Type == ast.Lazyloop
	counted := n.N != ast.Infinite || n.M > 1

	if counted {
		if n.M == 0 {
			w.emit1(Nullcount, 0, 0)
		} else {
			w.emit1(Setcount, 0, 1-n.M)
		}
	} else {
		if n.M == 0 {
			w.emit0(Nullmark, 0)
		} else {
			w.emit0(Setmark, 0)
		}
	}

	earlyExit := -1
	if n.M == 0 {
		earlyExit = w.emitJump(Goto, 0)
	}

	loopStart := w.pos()
	lazyFlag := Op(0)
	if lazy {
		lazyFlag = Lazy
	}
	limit := -1
	if n.N != ast.Infinite {
		limit = n.N - n.M
	}

	w.schedule(
		w.stepEmit(n.Child(0)),
		step(func() {
			if counted {
				w.emit2(Branchcount, lazyFlag, loopStart, limit)
			} else {
				w.emit1(Branchmark, lazyFlag, loopStart)
			}
			if earlyExit != -1 {
				w.patch(earlyExit, w.pos())
			}
		}),
	)
}

// emitTestref implements spec.md §4.5's Testref rule: branch on whether a
// referenced capture slot has matched.
func (w *ctx) emitTestref(n *ast.Node) {
	dense, ok := w.remap[n.M]
	if !ok {
		w.fail(newErr(KindCaptureSlotUnmapped, "testref slot %d", n.M))
		return
	}
	w.emit0(Setjump, 0)
	lazyIdx := w.emitJump(Lazybranch, 0)
	w.emit1(Testref, 0, dense)
	w.emit0(Forejump, 0)

	thenNode, elseNode := testBranches(n)
	w.schedule(
		w.stepEmit(thenNode),
		step(func() {
			gotoIdx := w.emitJump(Goto, 0)
			w.patch(lazyIdx, w.pos())
			w.schedule(
				w.stepEmit(elseNode),
				step(func() { w.patch(gotoIdx, w.pos()) }),
			)
		}),
	)
}

// emitTestgroup implements spec.md §4.5's Testgroup rule: branch on
// whether an assertion condition (now always an ast.Require/ast.Prevent
// node — see parser.closeGroup's polarity fix) holds.
func (w *ctx) emitTestgroup(n *ast.Node) {
	if n.ChildCount() < 2 {
		w.fail(newErr(KindMalformedTestgroup, "want condition+branches, got %d children", n.ChildCount()))
		return
	}
	cond := n.Child(0)
	thenNode := n.Child(1)
	var elseNode *ast.Node
	if n.ChildCount() > 2 {
		elseNode = n.Child(2)
	}

	w.emit0(Setjump, 0)
	w.emit0(Setmark, 0)
	lazyIdx := w.emitJump(Lazybranch, 0)

	emitCond := func() {
		switch cond.Type {
		case ast.Require:
			w.schedule(w.stepEmit(cond.Child(0)))
		case ast.Prevent:
			innerLazy := w.emitJump(Lazybranch, 0)
			w.schedule(
				w.stepEmit(cond.Child(0)),
				step(func() {
					w.emit0(Backjump, 0)
					w.patch(innerLazy, w.pos())
				}),
			)
		default:
			w.fail(newErr(KindMalformedTestgroup, "condition is %v", cond.Type))
		}
	}
	emitCond()

	w.schedule(step(func() {
		w.emit0(Getmark, 0)
		w.emit0(Forejump, 0)
		w.schedule(
			w.stepEmit(thenNode),
			step(func() {
				gotoIdx := w.emitJump(Goto, 0)
				w.patch(lazyIdx, w.pos())
				w.schedule(
					w.stepEmit(elseNode),
					step(func() { w.patch(gotoIdx, w.pos()) }),
				)
			}),
		)
	}))
}

func testBranches(n *ast.Node) (then, els *ast.Node) {
	then = n.Child(0)
	if n.ChildCount() > 1 {
		els = n.Child(1)
	}
	return then, els
}

// emitDefinitionGroup implements the "(?(DEFINE)...)" construct: its body
// is never reached by ordinary control flow (only CallSubroutine jumps
// into the capture groups it defines), so it is wrapped in an
// unconditional forward Goto that normal execution always takes,
// skipping straight past it.
func (w *ctx) emitDefinitionGroup(n *ast.Node) {
	skipIdx := w.emitJump(Goto, 0)
	w.schedule(
		w.stepEmit(n.Child(0)),
		step(func() { w.patch(skipIdx, w.pos()) }),
	)
}

// Package parser turns a delimited PCRE-style pattern string into an AST
// (spec.md §4), reusing the same hand-written cursor for the capture
// prescan, the main tree-building pass, and the replacement minilanguage.
//
// Grounded on the teacher's nfa.Builder: a stack-driven scanner with
// explicit integer/node stacks instead of host recursion for nesting, and
// a single exhaustive dispatch per token kind instead of a grammar-rule
// object hierarchy.
package parser

import (
	"github.com/coregx/rxcore/ast"
	"github.com/coregx/rxcore/charclass"
	"github.com/coregx/rxcore/option"
)

// alreadyQuantified reports the node kinds a quantifier may not be
// reapplied to directly (spec.md §4.3.1: "nested quantifiers on a
// quantified atom are rejected").
func alreadyQuantified(t ast.NodeType) bool {
	switch t {
	case ast.Oneloop, ast.Onelazy, ast.Notoneloop, ast.Notonelazy,
		ast.Setloop, ast.Setlazy, ast.Loop, ast.Lazyloop:
		return true
	default:
		return false
	}
}

// run drives the explicit-stack main loop over the whole preprocessed
// body, starting from a root frame, and returns the single resulting tree
// node (an outer Capture(slot=0) once tree.go wraps it, or in scanOnly mode
// simply nil).
func (p *Parser) run() (*ast.Node, error) {
	root := &frame{kind: groupRoot, capSlot: -1, uncapSlot: -1, startPos: p.absPos()}
	p.pushFrame(root)

	for !p.eof() {
		if err := p.step(); err != nil {
			return nil, err
		}
	}

	if len(p.stack) != 1 {
		return nil, newErr(p.absPos(), KindNotEnoughParens)
	}
	f := p.popFrame()
	if p.scanOnly {
		return nil, nil
	}
	return p.closeFrame(f), nil
}

// step consumes exactly one token's worth of input and updates parser
// state: a literal run, a dispatched special character, or one group-open/
// close/alternation event.
func (p *Parser) step() error {
	c := p.peek()

	if p.opts().Has(option.Extended) {
		if isASCIISpace(c) {
			p.advance()
			return nil
		}
		if c == '#' {
			for !p.eof() && p.peek() != '\n' {
				p.advance()
			}
			return nil
		}
	}

	switch c {
	case '(':
		return p.openGroup()
	case ')':
		return p.closeGroup()
	case '|':
		p.advance()
		return p.altBar()
	case '[':
		p.advance()
		n, err := p.parseClass()
		if err != nil {
			return err
		}
		return p.attachAtom(n)
	case '\\':
		return p.scanEscapeAtom()
	case '^':
		p.advance()
		return p.attachAtom(p.boundaryNode(ast.Bol, ast.Beginning))
	case '$':
		p.advance()
		return p.attachAtom(p.endNode())
	case '.':
		p.advance()
		return p.attachAtom(p.dotNode())
	case '*', '+', '?':
		return p.attachQuantifier()
	case '{':
		if p.looksLikeBoundedQuantifier() {
			return p.attachQuantifier()
		}
		return p.scanLiteralRun()
	default:
		return p.scanLiteralRun()
	}
}

// altBar closes the current concatenation as one alternative and opens a
// fresh one, per spec.md §4.3.1; inside a branch-reset frame it also
// resets the capture-slot counter (spec.md §3.4).
func (p *Parser) altBar() error {
	f := p.top()
	if f == nil {
		return newErr(p.absPos(), KindInternal)
	}
	if p.scanOnly {
		if f.branch != nil {
			if p.autocap > f.branch.maxAutocap {
				f.branch.maxAutocap = p.autocap
			}
			p.autocap = f.branch.startAutocap
		}
		return nil
	}
	if f.alternation == nil {
		f.alternation = ast.New(ast.Alternate)
	}
	f.alternation.AddChild(makeConcat(f.concat))
	f.concat = nil
	p.unit = nil
	if f.branch != nil {
		if p.autocap > f.branch.maxAutocap {
			f.branch.maxAutocap = p.autocap
		}
		p.autocap = f.branch.startAutocap
	}
	return nil
}

// attachAtom appends n to the current frame's concatenation and marks it
// as the pending quantifier target.
func (p *Parser) attachAtom(n *ast.Node) error {
	if p.scanOnly {
		p.unit = nil
		return nil
	}
	f := p.top()
	if f == nil {
		return newErr(p.absPos(), KindInternal)
	}
	f.concat = append(f.concat, n)
	p.unit = n
	return nil
}

// scanLiteralRun consumes ordinary (non-special) characters as a single
// run, folding a trailing run of length 1 into a One leaf and longer runs
// into a Multi leaf (spec.md §4.3.1).
func (p *Parser) scanLiteralRun() error {
	opts := p.opts()
	ext := opts.Has(option.Extended)

	var runes []rune
	for !p.eof() {
		c := p.peek()
		if isSpecial(c) && !(c == '{' && len(runes) == 0) {
			break
		}
		if ext && (isASCIISpace(c) || c == '#') {
			break
		}
		// Stop one rune early if the next token is a quantifier, so the
		// quantifier binds to a single trailing character rather than the
		// whole run.
		if len(runes) > 0 && isLeadingQuantifier(p, 0) {
			break
		}
		r := p.peekRune()
		p.advanceRune()
		runes = append(runes, r)
	}

	if len(runes) == 0 {
		// A quantifier metacharacter with nothing preceding it.
		return newErr(p.absPos(), KindNothingToQuantify)
	}

	if len(runes) == 1 {
		n := ast.NewChar(ast.One, runes[0])
		n.CaseInsensitive = opts.Has(option.IgnoreCase)
		n.RightToLeft = opts.Has(option.RightToLeft)
		return p.attachAtom(n)
	}

	n := ast.New(ast.Multi)
	n.Str = string(runes)
	n.CaseInsensitive = opts.Has(option.IgnoreCase)
	n.RightToLeft = opts.Has(option.RightToLeft)
	return p.attachAtom(n)
}

func isSpecial(c byte) bool {
	switch c {
	case '(', ')', '|', '[', '\\', '^', '$', '.', '*', '+', '?', '{':
		return true
	default:
		return false
	}
}

// isLeadingQuantifier peeks offset bytes ahead (relative to the current
// position) and reports whether a quantifier metachar starts there, used
// so scanLiteralRun stops one character short of a following "*","+","?"
// or "{m,n}".
func isLeadingQuantifier(p *Parser, offset int) bool {
	c := p.peekAt(offset)
	switch c {
	case '*', '+', '?':
		return true
	case '{':
		save := p.pos
		p.pos += offset
		ok := p.looksLikeBoundedQuantifier()
		p.pos = save
		return ok
	default:
		return false
	}
}

// looksLikeBoundedQuantifier reports whether the cursor (on '{') starts a
// well-formed "{m}"/"{m,}"/"{m,n}" sequence; a malformed brace is treated
// as a literal "{" rather than an error (standard PCRE leniency).
func (p *Parser) looksLikeBoundedQuantifier() bool {
	i := p.pos + 1
	start := i
	for i < len(p.src) && p.src[i] >= '0' && p.src[i] <= '9' {
		i++
	}
	hasMin := i > start
	if i < len(p.src) && p.src[i] == ',' {
		i++
		for i < len(p.src) && p.src[i] >= '0' && p.src[i] <= '9' {
			i++
		}
	} else if !hasMin {
		return false
	}
	return i < len(p.src) && p.src[i] == '}'
}

// attachQuantifier consumes a quantifier (and an optional lazy/possessive
// suffix) and folds it onto p.unit, per spec.md §4.3.1.
func (p *Parser) attachQuantifier() error {
	start := p.absPos()
	var m, n int

	switch p.peek() {
	case '*':
		p.advance()
		m, n = 0, ast.Infinite
	case '+':
		p.advance()
		m, n = 1, ast.Infinite
	case '?':
		p.advance()
		m, n = 0, 1
	case '{':
		mm, nn, err := p.scanBoundedQuantifier()
		if err != nil {
			return err
		}
		m, n = mm, nn
	}

	if p.unit == nil {
		if p.scanOnly {
			return nil
		}
		return newErr(start, KindNothingToQuantify)
	}
	if !p.scanOnly && !p.unit.IsQuantifiable() {
		return newErr(start, KindNothingToQuantify)
	}
	if !p.scanOnly && alreadyQuantified(p.unit.Type) {
		return newErr(start, KindNestedQuantifier)
	}

	lazy := false
	possessive := false
	switch p.peek() {
	case '?':
		p.advance()
		lazy = true
	case '+':
		p.advance()
		possessive = true
	}
	if p.opts().IsGreedyDefault() == false && !possessive {
		lazy = !lazy
	}

	if p.scanOnly {
		p.unit = nil
		return nil
	}

	f := p.top()
	if f == nil || len(f.concat) == 0 {
		return newErr(start, KindNothingToQuantify)
	}
	looped := ast.MakeLoop(p.unit, m, n, lazy)
	if possessive {
		wrapper := ast.New(ast.Greedy)
		wrapper.AddChild(looped)
		looped = wrapper
	}
	f.concat[len(f.concat)-1] = looped
	p.unit = looped
	return nil
}

// scanBoundedQuantifier parses "{m}", "{m,}", or "{m,n}", cursor on '{'.
func (p *Parser) scanBoundedQuantifier() (int, int, error) {
	start := p.absPos()
	p.advance() // '{'
	minStart := p.pos
	for !p.eof() && isDigit(p.peek()) {
		p.advance()
	}
	m := 0
	if p.pos > minStart {
		m = atoiSlice(p.src[minStart:p.pos])
	}
	n := m
	if !p.eof() && p.peek() == ',' {
		p.advance()
		maxStart := p.pos
		for !p.eof() && isDigit(p.peek()) {
			p.advance()
		}
		if p.pos > maxStart {
			n = atoiSlice(p.src[maxStart:p.pos])
		} else {
			n = ast.Infinite
		}
	}
	if p.eof() || p.peek() != '}' {
		return 0, 0, newErr(start, KindUnrecognizedGrouping)
	}
	p.advance()
	if n != ast.Infinite && m > n {
		return 0, 0, newErr(start, KindIllegalRange)
	}
	return m, n, nil
}

// boundaryNode returns the Bol/Beginning-style leaf for "^", respecting
// Multiline and the active newline convention (spec.md §4.3.5).
func (p *Parser) boundaryNode(multiline, anchored ast.NodeType) *ast.Node {
	opts := p.opts()
	if !opts.Has(option.Multiline) {
		return ast.New(anchored)
	}
	if nl := opts.Newline(); nl != option.NewlineDefault && nl != option.NewlineLF {
		return p.synthesizeBol(nl)
	}
	return ast.New(multiline)
}

// endNode returns the "$" leaf, honoring Multiline, DollarEndOnly and the
// active newline convention (spec.md §8 scenario 2 & §4.3.5).
func (p *Parser) endNode() *ast.Node {
	opts := p.opts()
	if opts.Has(option.Multiline) {
		if nl := opts.Newline(); nl != option.NewlineDefault && nl != option.NewlineLF {
			return p.synthesizeEol(nl)
		}
		return ast.New(ast.Eol)
	}
	if opts.Has(option.DollarEndOnly) {
		return ast.New(ast.End)
	}
	return ast.New(ast.EndZ)
}

// dotNode returns the "." leaf: Notone '\n' normally, or a negated set
// over the active newline convention's terminator bytes, widened further
// under Singleline (spec.md §4.3.5).
func (p *Parser) dotNode() *ast.Node {
	opts := p.opts()
	if opts.Has(option.Singleline) {
		b := charclass.New()
		b.Negate() // negated-empty == match anything, including newline
		n := ast.New(ast.Set)
		n.Str = b.Close()
		n.CaseInsensitive = opts.Has(option.IgnoreCase)
		n.RightToLeft = opts.Has(option.RightToLeft)
		return n
	}
	nl := opts.Newline()
	if nl == option.NewlineDefault || nl == option.NewlineLF {
		return ast.NewChar(ast.Notone, '\n')
	}
	return p.newlineNegatedSet(nl)
}

// newlineSetRunes returns the literal newline-terminator characters the
// active convention recognizes (spec.md §4.3.5/§4.4's ANY list).
func newlineSetRunes(nl option.Newline) []rune {
	switch nl {
	case option.NewlineCR:
		return []rune{'\r'}
	case option.NewlineLF:
		return []rune{'\n'}
	case option.NewlineCRLF:
		return []rune{'\r', '\n'}
	case option.NewlineAnyCRLF:
		return []rune{'\r', '\n'}
	case option.NewlineAny:
		return []rune{'\r', '\n', 0x0B, 0x0C, 0x85, 0x2028, 0x2029}
	default:
		return []rune{'\n'}
	}
}

func (p *Parser) newlineNegatedSet(nl option.Newline) *ast.Node {
	b := charclass.New()
	for _, r := range newlineSetRunes(nl) {
		b.AddChar(r)
	}
	b.Negate()
	n := ast.New(ast.Set)
	n.Str = b.Close()
	return n
}

// synthesizeBol builds an atomic lookbehind-equivalent for "^" under a
// non-LF convention: match only at the start of input or right after one
// of the convention's terminators (spec.md §4.3.5).
func (p *Parser) synthesizeBol(nl option.Newline) *ast.Node {
	alt := ast.New(ast.Alternate)
	alt.AddChild(ast.New(ast.Beginning))
	after := ast.New(ast.Concatenate)
	require := ast.New(ast.Require)
	require.RightToLeft = true
	require.AddChild(p.newlineAlternation(nl))
	after.AddChild(require)
	alt.AddChild(after)
	wrapper := ast.New(ast.Greedy)
	wrapper.AddChild(alt)
	return wrapper
}

// synthesizeEol builds the "$" equivalent under a non-LF convention: a
// positive lookahead for one of the convention's terminators, or end of
// input (spec.md §4.3.5).
func (p *Parser) synthesizeEol(nl option.Newline) *ast.Node {
	require := ast.New(ast.Require)
	alt := ast.New(ast.Alternate)
	alt.AddChild(p.newlineAlternation(nl))
	alt.AddChild(ast.New(ast.End))
	require.AddChild(alt)
	return require
}

// newlineAlternation builds an Alternate of literal runs for each
// terminator in the convention, longest first so CRLF matches greedily
// before a lone CR or LF.
func (p *Parser) newlineAlternation(nl option.Newline) *ast.Node {
	alt := ast.New(ast.Alternate)
	switch nl {
	case option.NewlineCRLF, option.NewlineAnyCRLF:
		m := ast.New(ast.Multi)
		m.Str = "\r\n"
		alt.AddChild(m)
		alt.AddChild(ast.NewChar(ast.One, '\r'))
		alt.AddChild(ast.NewChar(ast.One, '\n'))
	case option.NewlineAny:
		m := ast.New(ast.Multi)
		m.Str = "\r\n"
		alt.AddChild(m)
		for _, r := range []rune{'\r', '\n', 0x0B, 0x0C, 0x85, 0x2028, 0x2029} {
			alt.AddChild(ast.NewChar(ast.One, r))
		}
	default:
		for _, r := range newlineSetRunes(nl) {
			alt.AddChild(ast.NewChar(ast.One, r))
		}
	}
	return alt
}

// scanEscapeAtom consumes one backslash construct, dispatching between
// zero-width assertions, back-references, "\R", and ordinary character
// escapes (spec.md §4.3.4). It is used by both the prescan and the main
// parse so their tokenization of escapes stays in lockstep.
func (p *Parser) scanEscapeAtom() error {
	start := p.absPos()
	p.advance() // '\\'
	if p.eof() {
		return newErr(start, KindIllegalEscapeAtEnd)
	}
	c := p.peek()

	switch c {
	case 'b':
		p.advance()
		return p.attachAtom(p.wordBoundaryNode(false))
	case 'B':
		p.advance()
		return p.attachAtom(p.wordBoundaryNode(true))
	case 'A':
		p.advance()
		return p.attachAtom(ast.New(ast.Beginning))
	case 'G':
		p.advance()
		return p.attachAtom(ast.New(ast.Start))
	case 'z':
		p.advance()
		return p.attachAtom(ast.New(ast.End))
	case 'Z':
		p.advance()
		return p.attachAtom(p.endZNode())
	case 'K':
		p.advance()
		return p.attachAtom(ast.New(ast.ResetMatchStart))
	case 'R':
		p.advance()
		return p.attachAtom(p.backslashRNode())
	case 'd', 'D', 's', 'S', 'w', 'W':
		p.advance()
		return p.attachShorthandSet(c)
	case 'p', 'P':
		p.advance()
		return p.attachPropertySet(c == 'P')
	case 'k':
		return p.scanNamedBackref(start)
	case 'g':
		return p.scanGBackref(start)
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return p.scanNumericBackref(start)
	case 'N':
		if p.opts().Has(option.ECMAScript) {
			return p.scanNumericBackref(start)
		}
		p.advance()
		return p.attachAtom(ast.NewChar(ast.Notone, '\n'))
	case '<', '\'':
		return p.scanAngleOrQuoteBackref(start, c)
	}

	r, err := p.scanCharEscape()
	if err != nil {
		return err
	}
	n := ast.NewChar(ast.One, r)
	n.CaseInsensitive = p.opts().Has(option.IgnoreCase)
	n.RightToLeft = p.opts().Has(option.RightToLeft)
	return p.attachAtom(n)
}

func (p *Parser) wordBoundaryNode(negate bool) *ast.Node {
	t := ast.Boundary
	if negate {
		t = ast.Nonboundary
	}
	if p.opts().Has(option.ECMAScript) {
		if negate {
			t = ast.NonECMABoundary
		} else {
			t = ast.ECMABoundary
		}
	}
	return ast.New(t)
}

// endZNode synthesizes "\Z" under a non-default newline convention per
// spec.md §4.3.4/§9's open question: an atomic optional terminator
// followed by end of input, rather than the plain EndZ leaf.
func (p *Parser) endZNode() *ast.Node {
	nl := p.opts().Newline()
	if nl == option.NewlineDefault || nl == option.NewlineLF {
		return ast.New(ast.EndZ)
	}
	require := ast.New(ast.Require)
	inner := ast.New(ast.Greedy)
	opt := ast.New(ast.Loop)
	opt.M, opt.N = 0, 1
	opt.AddChild(p.newlineAlternation(nl))
	inner.AddChild(opt)
	end := ast.New(ast.End)
	concat := ast.New(ast.Concatenate)
	concat.AddChild(inner)
	concat.AddChild(end)
	require.AddChild(concat)
	return require
}

// backslashRNode synthesizes the generic line-terminator alternation
// spec.md §4.3.4 describes for "\R".
func (p *Parser) backslashRNode() *ast.Node {
	greedy := ast.New(ast.Greedy)
	alt := ast.New(ast.Alternate)
	crlf := ast.New(ast.Multi)
	crlf.Str = "\r\n"
	alt.AddChild(crlf)
	alt.AddChild(ast.NewChar(ast.One, '\r'))
	alt.AddChild(ast.NewChar(ast.One, '\n'))
	if p.opts().BSR() != option.BSRAnyCRLF {
		for _, r := range []rune{0x0B, 0x0C, 0x85, 0x2028, 0x2029} {
			alt.AddChild(ast.NewChar(ast.One, r))
		}
	}
	greedy.AddChild(alt)
	return greedy
}

func (p *Parser) attachShorthandSet(letter byte) error {
	b := charclass.New()
	if err := b.AddShorthand(letter, p.opts().Has(option.ECMAScript)); err != nil {
		return err
	}
	n := ast.New(ast.Set)
	n.Str = b.Close()
	n.RightToLeft = p.opts().Has(option.RightToLeft)
	return p.attachAtom(n)
}

func (p *Parser) attachPropertySet(negate bool) error {
	name, err := p.scanPropertyName()
	if err != nil {
		return err
	}
	b := charclass.New()
	b.AddCategory(name, negate)
	n := ast.New(ast.Set)
	n.Str = b.Close()
	n.RightToLeft = p.opts().Has(option.RightToLeft)
	return p.attachAtom(n)
}

func (p *Parser) scanNamedBackref(start int) error {
	p.advance() // 'k'
	if p.eof() {
		return newErr(start, KindMalformedNameReference)
	}
	var name string
	var err error
	switch p.peek() {
	case '<':
		p.advance()
		name, err = p.scanAngleName()
	case '\'':
		p.advance()
		name, err = p.scanQuoteName()
	case '{':
		p.advance()
		name, err = p.scanUntil(0, '}')
	default:
		return newErr(start, KindMalformedNameReference)
	}
	if err != nil {
		return err
	}
	slot, ok := p.capnames[name]
	if !ok {
		if p.scanOnly {
			return nil
		}
		return newErrf(start, KindUndefinedNameReference, "%q", name)
	}
	return p.attachBackref(start, slot)
}

func (p *Parser) scanGBackref(start int) error {
	p.advance() // 'g'
	if p.eof() {
		return newErr(start, KindMalformedNameReference)
	}
	if p.peek() == '{' {
		p.advance()
		body, err := p.scanUntil(0, '}')
		if err != nil {
			return err
		}
		if len(body) > 0 && (body[0] == '+' || body[0] == '-') {
			n := atoiSlice(body[1:])
			target := p.autocap + 1 - n
			if body[0] == '+' {
				target = p.autocap + n
			}
			return p.attachBackref(start, target)
		}
		if slot, ok := p.capnames[body]; ok {
			return p.attachBackref(start, slot)
		}
		if n := atoiSlice(body); n > 0 {
			return p.attachBackref(start, n)
		}
		if p.scanOnly {
			return nil
		}
		return newErrf(start, KindUndefinedNameReference, "%q", body)
	}
	sign := 1
	if p.peek() == '-' {
		sign = -1
		p.advance()
	} else if p.peek() == '+' {
		p.advance()
	}
	numStart := p.pos
	for !p.eof() && isDigit(p.peek()) {
		p.advance()
	}
	if numStart == p.pos {
		return newErr(start, KindMalformedNameReference)
	}
	n := atoiSlice(p.src[numStart:p.pos])
	target := n
	if sign < 0 {
		target = p.autocap + 1 - n
	}
	return p.attachBackref(start, target)
}

func (p *Parser) scanNumericBackref(start int) error {
	numStart := p.pos
	for !p.eof() && isDigit(p.peek()) {
		p.advance()
	}
	n := atoiSlice(p.src[numStart:p.pos])
	if n == 0 {
		return newErr(start, KindCaptureZeroReference)
	}
	if !p.scanOnly && n >= p.captop {
		return newErrf(start, KindUndefinedBackreference, "group %d", n)
	}
	return p.attachBackref(start, n)
}

func (p *Parser) scanAngleOrQuoteBackref(start int, open byte) error {
	p.advance()
	var name string
	var err error
	if open == '<' {
		name, err = p.scanAngleName()
	} else {
		name, err = p.scanQuoteName()
	}
	if err != nil {
		return err
	}
	if n := tryAtoi(name); n > 0 {
		return p.attachBackref(start, n)
	}
	slot, ok := p.capnames[name]
	if !ok {
		if p.scanOnly {
			return nil
		}
		return newErrf(start, KindUndefinedNameReference, "%q", name)
	}
	return p.attachBackref(start, slot)
}

func tryAtoi(s string) int {
	if s == "" {
		return 0
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return 0
		}
	}
	return atoiSlice(s)
}


package parser

import (
	"github.com/coregx/rxcore/ast"
	"github.com/coregx/rxcore/option"
)

// openGroup is invoked with the cursor sitting on '(' and implements
// spec.md §4.3.3's dispatch table. It is shared, unmodified, between the
// capture prescan and the main parse (spec.md §4.2: "it must mimic the
// main parser's tokenisation faithfully"); p.scanOnly gates only the parts
// that build AST nodes, never the tokenizing itself.
func (p *Parser) openGroup() error {
	start := p.absPos()
	p.advance() // '('

	if p.eof() {
		return newErr(start, KindNotEnoughParens)
	}

	if p.peek() == '*' {
		return p.openVerb(start)
	}

	if p.peek() != '?' {
		return p.openCapture(start, 0)
	}

	// '?' follows. Look at the character after it.
	switch p.peekAt(1) {
	case ':':
		p.advance() // '?'
		p.advance() // ':'
		return p.openPlain(groupNonCapture, start, p.opts())
	case '=':
		p.advance()
		p.advance()
		return p.openPlain(groupRequire, start, p.opts().Without(option.RightToLeft))
	case '!':
		p.advance()
		p.advance()
		return p.openPlain(groupPrevent, start, p.opts().Without(option.RightToLeft))
	case '>':
		p.advance()
		p.advance()
		return p.openPlain(groupAtomic, start, p.opts())
	case '|':
		p.advance()
		p.advance()
		return p.openBranchReset(start)
	case '#':
		p.advance()
		p.advance()
		return p.skipComment(start)
	case '(':
		p.advance()
		p.advance()
		return p.openConditional(start)
	case '<':
		switch p.peekAt(2) {
		case '=':
			p.advance()
			p.advance()
			p.advance()
			return p.openPlain(groupRequire, start, p.opts().With(option.RightToLeft))
		case '!':
			p.advance()
			p.advance()
			p.advance()
			return p.openPlain(groupPrevent, start, p.opts().With(option.RightToLeft))
		default:
			p.advance() // '?'
			p.advance() // '<'
			name, err := p.scanAngleName()
			if err != nil {
				return err
			}
			return p.openCapture(start, 0, name)
		}
	case '\'':
		p.advance()
		p.advance()
		name, err := p.scanQuoteName()
		if err != nil {
			return err
		}
		return p.openCapture(start, 0, name)
	case 'P':
		return p.openPNamed(start)
	case 'R':
		if p.peekAt(2) == ')' {
			p.advance()
			p.advance()
			p.advance()
			return p.attachSubroutine(start, 0)
		}
		return newErr(start, KindUnrecognizedGrouping)
	case '&':
		p.advance()
		p.advance()
		name, err := p.scanUntil(0, ')')
		if err != nil {
			return err
		}
		slot, ok := p.capnames[name]
		if !ok {
			if p.scanOnly {
				return p.attachSubroutine(start, -1)
			}
			return newErrf(start, KindUndefinedSubroutine, "%q", name)
		}
		return p.attachSubroutine(start, slot)
	case '+', '-':
		p.advance() // '?'
		if p.peek() == '-' && !isDigit(p.peekAt(1)) {
			return p.openInlineOptions(start)
		}
		return p.openRelativeSubroutine(start)
	default:
		if isDigit(p.peekAt(1)) {
			p.advance() // '?'
			return p.attachNumberedSubroutine(start)
		}
		p.advance() // '?'
		return p.openInlineOptions(start)
	}
}

func (p *Parser) openVerb(start int) error {
	p.advance() // '*'
	nameStart := p.pos
	for !p.eof() && p.peek() != ')' && p.peek() != ':' {
		p.advance()
	}
	name := p.src[nameStart:p.pos]
	if p.eof() {
		return newErr(start, KindUnrecognizedGrouping)
	}
	if p.peek() == ':' {
		// "(*VERB:arg)" — the argument is accepted and discarded; no
		// construct in this grammar consumes verb arguments today.
		for !p.eof() && p.peek() != ')' {
			p.advance()
		}
	}
	if p.eof() {
		return newErr(start, KindUnrecognizedGrouping)
	}
	p.advance() // ')'

	var code int
	switch name {
	case "ACCEPT":
		code = ast.VerbAccept
	case "COMMIT":
		code = ast.VerbCommit
	case "PRUNE":
		code = ast.VerbPrune
	case "SKIP":
		code = ast.VerbSkip
	case "THEN":
		code = ast.VerbThen
	case "FAIL", "F":
		if p.scanOnly {
			return nil
		}
		return p.attachAtom(ast.New(ast.Nothing))
	default:
		return newErrf(start, KindUnknownVerb, "%q", name)
	}
	if p.scanOnly {
		return nil
	}
	n := ast.New(ast.BacktrackingVerb)
	n.M = code
	return p.attachAtom(n)
}

// openPlain pushes a frame for a construct with no capture slot of its own
// (non-capturing group, lookaround, atomic group), together with the
// options frame opts carries for the construct's scope.
func (p *Parser) openPlain(kind groupKind, start int, opts option.Options) error {
	p.pushGroup(&frame{kind: kind, capSlot: -1, uncapSlot: -1, startPos: start}, opts)
	return nil
}

func (p *Parser) openPNamed(start int) error {
	switch p.peekAt(2) {
	case '<':
		p.advance() // '?'
		p.advance() // 'P'
		p.advance() // '<'
		name, err := p.scanAngleName()
		if err != nil {
			return err
		}
		return p.openCapture(start, 0, name)
	case '=':
		p.advance()
		p.advance()
		p.advance()
		name, err := p.scanUntil(0, ')')
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
	case '>':
		p.advance()
		p.advance()
		p.advance()
		name, err := p.scanUntil(0, ')')
		if err != nil {
			return err
		}
		slot, ok := p.capnames[name]
		if !ok {
			if p.scanOnly {
				return p.attachSubroutine(start, -1)
			}
			return newErrf(start, KindUndefinedSubroutine, "%q", name)
		}
		return p.attachSubroutine(start, slot)
	default:
		return newErr(start, KindUnrecognizedGrouping)
	}
}

// openCapture opens a capturing group. name is optional: when absent the
// group is numbered by the running autocap counter (unless ExplicitCapture
// suppresses auto-numbering of unnamed groups, in which case it behaves
// like a non-capturing group).
func (p *Parser) openCapture(start int, _ int, name ...string) error {
	// Consume the syntax already scanned by the caller up to the name/colon;
	// for angle/quote/P< forms the caller already advanced past the opening
	// marker and the name itself via scanAngleName/scanQuoteName.
	if p.opts().Has(option.ExplicitCapture) && len(name) == 0 {
		return p.openPlain(groupNonCapture, start, p.opts())
	}

	p.autocap++
	slot := p.autocap
	uncap := -1
	p.caps[slot] = start
	p.capOrder = append(p.capOrder, slot)
	if len(name) == 1 && name[0] != "" {
		if existing, dup := p.capnames[name[0]]; dup && existing != slot {
			if !p.opts().Has(option.DupNames) {
				return newErrf(start, KindDuplicateName, "%q", name[0])
			}
		}
		p.capnames[name[0]] = slot
		p.capnamelist = append(p.capnamelist, name[0])
	}
	if slot >= p.captop {
		p.captop = slot + 1
	}
	p.pushGroup(&frame{kind: groupCapture, capSlot: slot, uncapSlot: uncap, startPos: start}, p.opts())
	return nil
}

func (p *Parser) openBranchReset(start int) error {
	f := &frame{kind: groupNonCapture, capSlot: -1, uncapSlot: -1, startPos: start}
	f.branch = &branchFrame{startAutocap: p.autocap, maxAutocap: p.autocap}
	p.pushGroup(f, p.opts())
	return nil
}

func (p *Parser) skipComment(start int) error {
	for !p.eof() && p.peek() != ')' {
		p.advance()
	}
	if p.eof() {
		return newErr(start, KindUnterminatedComment)
	}
	p.advance()
	return nil
}

func (p *Parser) openConditional(start int) error {
	if p.eof() {
		return newErr(start, KindUnrecognizedGrouping)
	}
	if len(p.src)-p.pos >= 6 && p.src[p.pos:p.pos+6] == "DEFINE" && p.peekAt(6) == ')' {
		p.pos += 7
		p.pushGroup(&frame{kind: groupDefinition, capSlot: -1, uncapSlot: -1, startPos: start}, p.opts())
		return nil
	}
	if p.peek() == '?' {
		kind, marker, rtl, err := p.assertionMarkerAt()
		if err != nil {
			return err
		}
		p.pos += marker
		p.pushGroup(&frame{kind: groupTestgroup, capSlot: -1, uncapSlot: -1, startPos: start}, p.opts())
		var assertOpts option.Options
		if rtl {
			assertOpts = p.opts().With(option.RightToLeft)
		} else {
			assertOpts = p.opts().Without(option.RightToLeft)
		}
		p.pushGroup(&frame{kind: kind, capSlot: -1, uncapSlot: -1, startPos: start}, assertOpts)
		return nil
	}
	// Numeric or named back-reference condition: "(?(1)...)", "(?(name)...)",
	// "(?(<name>)...)", "(?('name')...)", or "(?(R)"/"(?(R&name)" recursion
	// checks (treated as a Testref on the matching slot for simplicity).
	ref, err := p.scanConditionRef(start)
	if err != nil {
		return err
	}
	p.pushGroup(&frame{kind: groupTestref, capSlot: -1, uncapSlot: -1, startPos: start, condRef: ref}, p.opts())
	return nil
}

// assertionMarkerAt reports the group kind and marker byte-length for an
// assertion starting at the cursor ("?=", "?!", "?<=", "?<!").
func (p *Parser) assertionMarkerAt() (groupKind, int, bool, error) {
	switch p.peekAt(1) {
	case '=':
		return groupRequire, 2, false, nil
	case '!':
		return groupPrevent, 2, false, nil
	case '<':
		switch p.peekAt(2) {
		case '=':
			return groupRequire, 3, true, nil
		case '!':
			return groupPrevent, 3, true, nil
		}
	}
	return 0, 0, false, newErr(p.absPos(), KindUnrecognizedGrouping)
}

func (p *Parser) scanConditionRef(start int) (int, error) {
	if p.peek() == 'R' && (p.peekAt(1) == ')' || p.peekAt(1) == '&') {
		if p.peekAt(1) == ')' {
			p.advance()
			p.advance()
			return 0, nil
		}
		p.advance()
		p.advance()
		name, err := p.scanUntil(0, ')')
		if err != nil {
			return 0, err
		}
		if slot, ok := p.capnames[name]; ok {
			return slot, nil
		}
		if p.scanOnly {
			return -1, nil
		}
		return 0, newErrf(start, KindUndefinedNameReference, "%q", name)
	}
	if p.peek() == '<' {
		p.advance()
		name, err := p.scanAngleName()
		if err != nil {
			return 0, err
		}
		if p.eof() || p.peek() != ')' {
			return 0, newErr(start, KindUnrecognizedGrouping)
		}
		p.advance()
		slot, ok := p.capnames[name]
		if !ok {
			if p.scanOnly {
				return -1, nil
			}
			return 0, newErrf(start, KindUndefinedNameReference, "%q", name)
		}
		return slot, nil
	}
	if p.peek() == '\'' {
		p.advance()
		name, err := p.scanQuoteName()
		if err != nil {
			return 0, err
		}
		if p.eof() || p.peek() != ')' {
			return 0, newErr(start, KindUnrecognizedGrouping)
		}
		p.advance()
		slot, ok := p.capnames[name]
		if !ok {
			if p.scanOnly {
				return -1, nil
			}
			return 0, newErrf(start, KindUndefinedNameReference, "%q", name)
		}
		return slot, nil
	}
	if isDigit(p.peek()) {
		numStart := p.pos
		for !p.eof() && isDigit(p.peek()) {
			p.advance()
		}
		if p.eof() || p.peek() != ')' {
			return 0, newErr(start, KindUnrecognizedGrouping)
		}
		n := atoiSlice(p.src[numStart:p.pos])
		p.advance()
		if n == 0 {
			return 0, newErr(start, KindCaptureZeroReference)
		}
		return n, nil
	}
	// Bare name without quoting: "(?(name)...)"
	nameStart := p.pos
	for !p.eof() && p.peek() != ')' {
		p.advance()
	}
	if p.eof() {
		return 0, newErr(start, KindUnrecognizedGrouping)
	}
	name := p.src[nameStart:p.pos]
	p.advance()
	if name == "" {
		return 0, newErr(start, KindUnrecognizedGrouping)
	}
	slot, ok := p.capnames[name]
	if !ok {
		if p.scanOnly {
			return -1, nil
		}
		return 0, newErrf(start, KindUndefinedNameReference, "%q", name)
	}
	return slot, nil
}

// openInlineOptions handles "(?imsx-imsx:...)" and the tail-less
// "(?imsx)" form (spec.md §4.3.3).
func (p *Parser) openInlineOptions(start int) error {
	var onLetters, offLetters []byte
	negate := false
	for !p.eof() && p.peek() != ')' && p.peek() != ':' {
		c := p.peek()
		if c == '-' {
			negate = true
			p.advance()
			continue
		}
		if negate {
			offLetters = append(offLetters, c)
		} else {
			onLetters = append(onLetters, c)
		}
		p.advance()
	}
	if p.eof() {
		return newErr(start, KindUnrecognizedGrouping)
	}
	cur := p.opts()
	next, err := cur.WithInline(string(onLetters), false)
	if err != nil {
		return newErrf(start, KindUnrecognizedGrouping, "%s", err.Error())
	}
	next, err = next.WithInline(string(offLetters), true)
	if err != nil {
		return newErrf(start, KindUnrecognizedGrouping, "%s", err.Error())
	}
	if p.peek() == ':' {
		p.advance()
		return p.openPlain(groupNonCapture, start, next)
	}
	// Tail-less form: modifies the enclosing scope for its remaining
	// duration; replace (not push) so it survives this group's close.
	p.advance() // ')'
	p.optStack.ReplaceTop(next)
	return nil
}

func (p *Parser) openRelativeSubroutine(start int) error {
	sign := 1
	if p.peek() == '-' {
		sign = -1
	}
	if p.peek() == '+' || p.peek() == '-' {
		p.advance()
	}
	numStart := p.pos
	for !p.eof() && isDigit(p.peek()) {
		p.advance()
	}
	if numStart == p.pos {
		return newErr(start, KindUnrecognizedGrouping)
	}
	if p.eof() || p.peek() != ')' {
		return newErr(start, KindUnrecognizedGrouping)
	}
	n := atoiSlice(p.src[numStart:p.pos])
	p.advance()
	var target int
	if sign < 0 {
		target = p.autocap + 1 - n
	} else {
		target = p.autocap + n
	}
	if p.scanOnly {
		return nil
	}
	return p.attachSubroutine(start, target)
}

func (p *Parser) attachNumberedSubroutine(start int) error {
	numStart := p.pos
	for !p.eof() && isDigit(p.peek()) {
		p.advance()
	}
	if numStart == p.pos || p.eof() || p.peek() != ')' {
		return newErr(start, KindUnrecognizedGrouping)
	}
	n := atoiSlice(p.src[numStart:p.pos])
	p.advance()
	return p.attachSubroutine(start, n)
}

func (p *Parser) attachSubroutine(start, slot int) error {
	if p.scanOnly {
		return nil
	}
	if slot < 0 {
		return newErrf(start, KindUndefinedSubroutine, "slot %d", slot)
	}
	n := ast.New(ast.CallSubroutine)
	n.M = slot
	return p.attachAtom(n)
}

func (p *Parser) attachBackref(start, slot int) error {
	if p.scanOnly {
		return nil
	}
	n := ast.New(ast.Ref)
	n.M = slot
	n.CaseInsensitive = p.opts().Has(option.IgnoreCase)
	n.RightToLeft = p.opts().Has(option.RightToLeft)
	return p.attachAtom(n)
}

// scanAngleName reads a "name>" sequence, cursor positioned just after '<'.
func (p *Parser) scanAngleName() (string, error) {
	return p.scanUntil(0, '>')
}

// scanQuoteName reads a "name'" sequence, cursor positioned just after the
// opening quote.
func (p *Parser) scanQuoteName() (string, error) {
	return p.scanUntil(0, '\'')
}

// scanUntil reads bytes up to (and consuming) the close byte; if open is
// non-zero it first requires/consumes that opening byte.
func (p *Parser) scanUntil(open, close byte) (string, error) {
	start := p.absPos()
	if open != 0 {
		if p.eof() || p.peek() != open {
			return "", newErr(start, KindMalformedNameReference)
		}
		p.advance()
	}
	nameStart := p.pos
	for !p.eof() && p.peek() != close {
		p.advance()
	}
	if p.eof() {
		return "", newErr(start, KindMalformedNameReference)
	}
	name := p.src[nameStart:p.pos]
	p.advance()
	if name == "" {
		return "", newErr(start, KindMalformedNameReference)
	}
	return name, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func atoiSlice(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

// closeGroup implements the ")" side of §4.3.3: close the current frame,
// build its node (unless scanOnly), pop the options stack frame pushed at
// the matching "(", and attach the result to the parent.
func (p *Parser) closeGroup() error {
	start := p.absPos()
	p.advance() // ')'

	f := p.popFrame()
	if f == nil || f.kind == groupRoot {
		return newErr(start, KindTooManyParens)
	}
	p.optStack.Pop()

	if f.kind == groupRequire || f.kind == groupPrevent {
		parent := p.top()
		if parent != nil && parent.kind == groupTestgroup && parent.condNode == nil {
			if p.scanOnly {
				return nil
			}
			wrapType := ast.Require
			if f.kind == groupPrevent {
				wrapType = ast.Prevent
			}
			wrapped := ast.New(wrapType)
			wrapped.AddChild(p.closeFrame(f))
			parent.condNode = wrapped
			return nil
		}
	}

	if f.branch != nil {
		// Branch-reset close (spec.md §3.4): the last alternative's autocap
		// counts toward the max; siblings parsed after this group continue
		// numbering from that max, not from the reset value.
		if p.autocap > f.branch.maxAutocap {
			f.branch.maxAutocap = p.autocap
		}
		p.autocap = f.branch.maxAutocap
	}

	if p.scanOnly {
		return nil
	}

	n, err := p.finishGroupNode(f)
	if err != nil {
		return err
	}
	return p.attachAtom(n)
}

// closeFrame builds the Concatenate/Alternate node for the frame's
// accumulated children, without any group-kind-specific wrapping. Used for
// the plain assertion bodies nested inside a conditional's condition.
func (p *Parser) closeFrame(f *frame) *ast.Node {
	if f.alternation != nil {
		f.alternation.AddChild(makeConcat(f.concat))
		return f.alternation
	}
	return makeConcat(f.concat)
}

func makeConcat(children []*ast.Node) *ast.Node {
	if len(children) == 1 {
		return children[0]
	}
	n := ast.New(ast.Concatenate)
	for _, c := range children {
		n.AddChild(c)
	}
	return n
}

// finishGroupNode wraps closeFrame's body per the frame's kind, per
// spec.md §3.2's invariants for Capture/Require/Prevent/Greedy/Testref/
// Testgroup/DefinitionGroup.
func (p *Parser) finishGroupNode(f *frame) (*ast.Node, error) {
	switch f.kind {
	case groupCapture:
		n := ast.New(ast.Capture)
		n.M = f.capSlot
		n.N = f.uncapSlot
		n.AddChild(p.closeFrame(f))
		return n, nil
	case groupNonCapture:
		n := ast.New(ast.Group)
		n.AddChild(p.closeFrame(f))
		return n, nil
	case groupAtomic:
		n := ast.New(ast.Greedy)
		n.AddChild(p.closeFrame(f))
		return n, nil
	case groupRequire:
		n := ast.New(ast.Require)
		n.AddChild(p.closeFrame(f))
		return n, nil
	case groupPrevent:
		n := ast.New(ast.Prevent)
		n.AddChild(p.closeFrame(f))
		return n, nil
	case groupDefinition:
		if f.alternation != nil {
			return nil, newErr(f.startPos, KindDefineMultipleBranches)
		}
		n := ast.New(ast.DefinitionGroup)
		n.AddChild(p.closeFrame(f))
		return n, nil
	case groupTestref:
		branches, err := p.branchesOf(f, 2)
		if err != nil {
			return nil, err
		}
		n := ast.New(ast.Testref)
		n.M = f.condRef
		for _, b := range branches {
			n.AddChild(b)
		}
		return n, nil
	case groupTestgroup:
		branches, err := p.branchesOf(f, 2)
		if err != nil {
			return nil, err
		}
		n := ast.New(ast.Testgroup)
		if f.condNode != nil {
			n.AddChild(f.condNode)
		}
		for _, b := range branches {
			n.AddChild(b)
		}
		return n, nil
	default:
		return nil, newErr(f.startPos, KindInternal)
	}
}

// branchesOf returns the frame's alternatives (1 if no '|' was seen, up to
// len(alternation.Children)+1 otherwise), erroring if there are more than
// max.
func (p *Parser) branchesOf(f *frame, max int) ([]*ast.Node, error) {
	if f.alternation == nil {
		return []*ast.Node{makeConcat(f.concat)}, nil
	}
	all := append(append([]*ast.Node{}, f.alternation.Children...), makeConcat(f.concat))
	if len(all) > max {
		return nil, newErr(f.startPos, KindTooManyAlternatives)
	}
	return all, nil
}

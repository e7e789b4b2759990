// Package writer implements spec.md §4.5: a single depth-first walk of a
// parsed AST that emits a linear opcode array for a backtracking NFA
// matcher, with forward jumps back-patched as each construct closes.
//
// Grounded on the teacher's nfa.Builder (nfa/builder.go): append-and-patch
// state allocation, a Validate() well-formedness pass over the finished
// artifact, and one compiled value produced at the very end — rehomed here
// from "build a Thompson-NFA state graph" to "emit a flat opcode array",
// per spec.md §4.5's opcode table.
package writer

import "fmt"

// Op is one instruction's opcode, with two high bits carrying per-instance
// flags (spec.md §4.5: "Two high bits are OR'd into every op to carry
// right-to-left and case-insensitive flags for the instruction").
type Op int32

const (
	flagShift = 24
	// RTL marks an instruction as operating right-to-left (lookbehind
	// bodies and patterns compiled with option.RightToLeft).
	RTL Op = 1 << flagShift
	// CI marks an instruction as matching case-insensitively.
	CI Op = 1 << (flagShift + 1)
	// Lazy distinguishes the lazy variant of Branchmark/Branchcount (try
	// zero more repetitions before one more) from the greedy variant
	// (try one more before backing off) — a third instance flag beyond
	// the two spec.md §4.5 names explicitly, needed because both loop
	// exit opcodes come in greedy/lazy pairs.
	Lazy Op = 1 << (flagShift + 2)

	opMask = (1 << flagShift) - 1
)

// Base strips the flag bits, returning the bare opcode.
func (op Op) Base() Op { return op & opMask }

// HasRTL reports whether the right-to-left flag is set.
func (op Op) HasRTL() bool { return op&RTL != 0 }

// HasCI reports whether the case-insensitive flag is set.
func (op Op) HasCI() bool { return op&CI != 0 }

// Opcode values, one per spec.md §4.5 instruction. Values start above zero
// so that a zeroed Code slot (e.g. an unpatched jump target left at 0 by a
// bug) never aliases a valid opcode at position 0 of the program.
const (
	_ Op = iota

	// Leaf matchers.
	One
	Notone
	Multi
	Set

	// Counted/uncounted single-atom loops.
	Oneloop
	Onelazy
	Notoneloop
	Notonelazy
	Setloop
	Setlazy
	Onerep
	Notonerep
	Setrep

	// Control flow.
	Lazybranch
	Goto
	Setjump
	Forejump
	Backjump
	Setmark
	Getmark
	Nullmark
	Setcount
	Nullcount
	Branchmark
	Branchcount

	// Capture.
	Capturemark

	// References.
	Ref
	Testref

	// Anchors.
	Bol
	Eol
	Boundary
	Nonboundary
	ECMABoundary
	NonECMABoundary
	Beginning
	Start
	EndZ
	End

	ResetMatchStart
	CallSubroutine
	Stop
	Nothing

	// Verb carries a BacktrackingVerb node's code (ast.VerbAccept etc.) as
	// its operand. spec.md §4.5's opcode table doesn't name a dedicated
	// verb opcode, only the node type (§3.2); this is the bytecode-level
	// representation it implies.
	Verb
)

var mnemonics = map[Op]string{
	One: "One", Notone: "Notone", Multi: "Multi", Set: "Set",
	Oneloop: "Oneloop", Onelazy: "Onelazy", Notoneloop: "Notoneloop", Notonelazy: "Notonelazy",
	Setloop: "Setloop", Setlazy: "Setlazy", Onerep: "Onerep", Notonerep: "Notonerep", Setrep: "Setrep",
	Lazybranch: "Lazybranch", Goto: "Goto", Setjump: "Setjump", Forejump: "Forejump",
	Backjump: "Backjump", Setmark: "Setmark", Getmark: "Getmark", Nullmark: "Nullmark",
	Setcount: "Setcount", Nullcount: "Nullcount", Branchmark: "Branchmark", Branchcount: "Branchcount",
	Capturemark: "Capturemark", Ref: "Ref", Testref: "Testref",
	Bol: "Bol", Eol: "Eol", Boundary: "Boundary", Nonboundary: "Nonboundary",
	ECMABoundary: "ECMABoundary", NonECMABoundary: "NonECMABoundary",
	Beginning: "Beginning", Start: "Start", EndZ: "EndZ", End: "End",
	ResetMatchStart: "ResetMatchStart", CallSubroutine: "CallSubroutine",
	Stop: "Stop", Nothing: "Nothing", Verb: "Verb",
}

func (op Op) String() string {
	name, ok := mnemonics[op.Base()]
	if !ok {
		name = fmt.Sprintf("Op(%d)", op.Base())
	}
	var suffix string
	if op.HasRTL() {
		suffix += "R"
	}
	if op.HasCI() {
		suffix += "I"
	}
	if suffix != "" {
		return name + "/" + suffix
	}
	return name
}

// operandCount reports how many int32 operands follow this opcode in the
// code array, used by Program.String's disassembler and by the tests'
// well-formedness walk.
func operandCount(base Op) int {
	switch base {
	case One, Notone, Multi, Set, Ref, Testref, CallSubroutine,
		Lazybranch, Goto, Setcount, Nullcount, Branchmark, Verb:
		return 1
	case Onerep, Notonerep, Setrep, Capturemark, Branchcount:
		return 2
	case Oneloop, Onelazy, Notoneloop, Notonelazy, Setloop, Setlazy:
		return 3
	default:
		return 0
	}
}

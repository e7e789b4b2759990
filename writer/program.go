package writer

import (
	"fmt"
	"strings"
)

// Program is the immutable bytecode artifact spec.md §3.5 calls RegexCode:
// a flat opcode array, a deduplicated string table, capture bookkeeping,
// and the derived search hints the (out-of-scope) matcher uses to skip
// ahead before attempting a backtracking match at every position.
type Program struct {
	Code    []int32
	Strings []string

	// TrackCount is the statically-computed upper bound on backtracking
	// stack frames a match over this program can use (spec.md §3.5, §4.5).
	TrackCount int

	// CapSize is the dense capture count (one past the highest dense
	// slot), including the whole-match slot 0.
	CapSize int
	// CaptureRemap maps an external slot number (as it appeared in the
	// pattern) to its dense index in [0, CapSize).
	CaptureRemap map[int]int
	// CaptureNames maps a named group to its dense slot, for the external
	// facade to resolve names on a returned Match.
	CaptureNames map[string]int
	// CapPositions[denseSlot] is the code position just after that
	// capture's Setmark, i.e. the first instruction of the capture's body.
	// Indexed by dense slot.
	CapPositions []int

	// FirstSet is a serialized charclass descriptor (see package charclass)
	// of characters that can legally start a match, or "" if none could be
	// derived (spec.md §4.5: "a small set of possible starting characters").
	FirstSet string
	// LiteralPrefix is the longest fixed literal run every match must
	// start with, or "" if none exists.
	LiteralPrefix         string
	LiteralPrefixCaseFold bool
	// BadCharTable is the Boyer-Moore-style skip table for LiteralPrefix,
	// built by internal/search; nil when LiteralPrefix is "".
	BadCharTable map[byte]int
	// SIMDCapable tags whether internal/search detected a CPU capable of
	// accelerating the above table at match time (informational only;
	// this core never executes a search itself).
	SIMDCapable bool

	// AnchorMask summarizes leading "\A"/"\G"/"^" anchors (spec.md §4.5).
	AnchorMask AnchorFlag

	RightToLeft bool
}

// AnchorFlag is a bitset of anchor kinds known to apply at the very start
// of any successful match.
type AnchorFlag uint8

const (
	AnchorBeginning AnchorFlag = 1 << iota // \A
	AnchorStart                            // \G
	AnchorBol                              // ^ under Multiline (without Multiline the parser emits Beginning)
)

// String renders a disassembly of the program: one opcode per line, with
// operands resolved against Strings/CaptureRemap where meaningful. Not
// required by spec.md; grounded in the teacher's habit of giving every
// state/op type a String() method (nfa/nfa.go) for debuggability. This
// repo's tests only check that it renders a non-empty listing.
func (p *Program) String() string {
	var sb strings.Builder
	i := 0
	for i < len(p.Code) {
		op := Op(p.Code[i])
		base := op.Base()
		n := operandCount(base)
		fmt.Fprintf(&sb, "%4d: %s", i, op)
		for k := 0; k < n && i+1+k < len(p.Code); k++ {
			fmt.Fprintf(&sb, " %d", p.Code[i+1+k])
		}
		if base == Multi || base == Set || base == Setloop || base == Setlazy || base == Setrep {
			idx := -1
			switch base {
			case Multi, Set:
				if len(p.Code) > i+1 {
					idx = int(p.Code[i+1])
				}
			default:
				if len(p.Code) > i+1 {
					idx = int(p.Code[i+1])
				}
			}
			if idx >= 0 && idx < len(p.Strings) {
				fmt.Fprintf(&sb, " %q", p.Strings[idx])
			}
		}
		sb.WriteByte('\n')
		i += 1 + n
	}
	return sb.String()
}

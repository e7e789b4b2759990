// Package charclass accumulates character-class ranges, Unicode category
// references, and case-insensitive closure into an opaque serialized "set
// string" that the writer embeds verbatim in a Set/Setloop/Setlazy node's
// Str field (spec.md §3.1, §4.3.2).
//
// Rehomed from the teacher's nfa/charclass_searcher.go (a runtime
// byte-range matcher used by the NFA executor) to a write-time descriptor
// builder, since this core never executes a match itself.
package charclass

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Range is an inclusive rune range.
type Range struct {
	Lo, Hi rune
}

// Builder accumulates the pieces of one character class.
type Builder struct {
	negate     bool
	ranges     []Range
	categories []catRef
}

type catRef struct {
	name    string // unicode.Categories / unicode.Scripts key, or a POSIX name
	negate  bool   // \P{Name} vs \p{Name}
	isPosix bool   // POSIX "[:name:]" classes are recognized but not expanded
}

// New returns an empty, non-negated builder.
func New() *Builder {
	return &Builder{}
}

// Negate marks the whole class as negated (a leading "^" inside "[...]").
func (b *Builder) Negate() { b.negate = true }

// AddRange adds an inclusive range. It is the caller's responsibility to
// reject lo > hi before calling (spec.md §4.3.2: "a range a-b requires
// a <= b"); AddRange itself just records the pair.
func (b *Builder) AddRange(lo, hi rune) {
	b.ranges = append(b.ranges, Range{Lo: lo, Hi: hi})
}

// AddChar adds a single-rune range.
func (b *Builder) AddChar(ch rune) {
	b.AddRange(ch, ch)
}

// AddCategory references a named Unicode general category, script, or
// property (the name as it appeared in "\p{Name}"/"\P{Name}"). The name is
// recorded as given and resolved lazily by the writer/matcher; neither this
// package nor the parser checks it against a table of known names.
func (b *Builder) AddCategory(name string, negate bool) {
	b.categories = append(b.categories, catRef{name: name, negate: negate})
}

// AddPosixClass records a recognized-but-unexpanded POSIX "[:name:]" class
// (spec.md §4.3.2: "recognised but skipped silently").
func (b *Builder) AddPosixClass(name string) {
	b.categories = append(b.categories, catRef{name: name, isPosix: true})
}

// AddShorthand adds one of the Perl class shorthands (\d \D \s \S \w \W),
// \d and \w are expressed as ASCII ranges; \D, \S and \W as negated
// category references (Nd, White_Space, Word); \s as the White_Space
// category, or as an explicit character list when ecma is set, which
// selects the ECMAScript
// definition (spec.md §4.3.2: "ECMAScript variants when ECMAScript is
// set").
func (b *Builder) AddShorthand(letter byte, ecma bool) error {
	switch letter {
	case 'd':
		b.AddRange('0', '9')
	case 'D':
		b.AddCategory("Nd", true)
	case 's':
		if ecma {
			for _, r := range []rune{' ', '\t', '\n', '\v', '\f', '\r', 0x00A0, 0xFEFF} {
				b.AddChar(r)
			}
		} else {
			b.AddCategory("White_Space", false)
		}
	case 'S':
		b.AddCategory("White_Space", true)
	case 'w':
		b.AddRange('a', 'z')
		b.AddRange('A', 'Z')
		b.AddRange('0', '9')
		b.AddChar('_')
	case 'W':
		b.AddCategory("Word", true)
	default:
		return fmt.Errorf("charclass: unknown shorthand \\%c", letter)
	}
	return nil
}

// CloseCaseInsensitive adds, for every simple-rune range already present,
// the case-folded siblings of each rune in that range (spec.md §4.3.2:
// "case-insensitive classes are closed under lowercasing per the active
// locale"). It must be called once, after all literal ranges are added and
// before Close.
func (b *Builder) CloseCaseInsensitive() {
	var extra []Range
	for _, r := range b.ranges {
		// Only fold small ranges rune-by-rune; category references already
		// fold implicitly via the writer/matcher's Unicode tables.
		if int64(r.Hi)-int64(r.Lo) > 1<<16 {
			continue
		}
		for ch := r.Lo; ch <= r.Hi; ch++ {
			lower := unicode.ToLower(ch)
			upper := unicode.ToUpper(ch)
			if lower != ch {
				extra = append(extra, Range{lower, lower})
			}
			if upper != ch {
				extra = append(extra, Range{upper, upper})
			}
			f := unicode.SimpleFold(ch)
			for f != ch {
				extra = append(extra, Range{f, f})
				f = unicode.SimpleFold(f)
			}
		}
	}
	b.ranges = append(b.ranges, extra...)
}

// normalize sorts and merges overlapping/adjacent ranges.
func (b *Builder) normalize() {
	if len(b.ranges) == 0 {
		return
	}
	sort.Slice(b.ranges, func(i, j int) bool { return b.ranges[i].Lo < b.ranges[j].Lo })
	out := b.ranges[:1]
	for _, r := range b.ranges[1:] {
		last := &out[len(out)-1]
		if r.Lo <= last.Hi+1 {
			if r.Hi > last.Hi {
				last.Hi = r.Hi
			}
			continue
		}
		out = append(out, r)
	}
	b.ranges = out
}

// Close finalizes the class and returns its opaque serialized set string.
//
// Format (stable within this module, read back only by ParseRanges, which
// transform.Apply uses): an optional leading "^" for
// negation, then each range as "lo:hi" using the rune's decimal code
// point, then each category reference as "p:name" or "P:name" (negated) or
// "x:name" for an unexpanded POSIX class, all semicolon-separated.
func (b *Builder) Close() string {
	b.normalize()
	var sb strings.Builder
	if b.negate {
		sb.WriteByte('^')
	}
	first := true
	sep := func() {
		if !first {
			sb.WriteByte(';')
		}
		first = false
	}
	for _, r := range b.ranges {
		sep()
		fmt.Fprintf(&sb, "%d:%d", r.Lo, r.Hi)
	}
	for _, c := range b.categories {
		sep()
		switch {
		case c.isPosix:
			fmt.Fprintf(&sb, "x:%s", c.name)
		case c.negate:
			fmt.Fprintf(&sb, "P:%s", c.name)
		default:
			fmt.Fprintf(&sb, "p:%s", c.name)
		}
	}
	return sb.String()
}

// Ranges exposes the accumulated simple ranges (post Close/normalize is
// not required). Code holding only a Set node's serialized string, such as
// the UTF-8->UTF-16 transformer, uses ParseRanges instead.
func (b *Builder) Ranges() []Range {
	return b.ranges
}

// ParseRanges extracts the simple numeric ranges back out of a string
// produced by Close, ignoring any category references. Used by
// transform.Apply, which only ever looks at single-range literal Set
// nodes synthesized for explicit UTF-8 byte sequences.
func ParseRanges(setStr string) (negate bool, ranges []Range, ok bool) {
	s := setStr
	if strings.HasPrefix(s, "^") {
		negate = true
		s = s[1:]
	}
	if s == "" {
		return negate, nil, true
	}
	for _, part := range strings.Split(s, ";") {
		if part == "" {
			continue
		}
		var lo, hi int64
		if strings.ContainsAny(part, "pPx") {
			return negate, nil, false
		}
		if _, err := fmt.Sscanf(part, "%d:%d", &lo, &hi); err != nil {
			return negate, nil, false
		}
		ranges = append(ranges, Range{rune(lo), rune(hi)})
	}
	return negate, ranges, true
}

package parser

import "github.com/coregx/rxcore/option"

// prescanResult carries forward the capture bookkeeping spec.md §3.3
// requires the main parse to already know: every external slot's opening
// offset, every name's slot, and the total slot count, so that a
// backreference to a not-yet-closed (possibly forward) group resolves
// correctly in one left-to-right pass.
type prescanResult struct {
	caps        map[int]int
	capnames    map[string]int
	capnamelist []string
	captop      int
}

// prescan implements spec.md §4.2: a single scanOnly pass over the body
// using the exact same tokenizer as the main parse (scanEscapeAtom,
// parseClass, openGroup/closeGroup), so that comments, escapes and
// character classes can never desynchronize the two passes' view of where
// a "(" or ")" lies.
func prescan(body string, bodyStart int, opts option.Options) (*prescanResult, error) {
	p := &Parser{
		src:       body,
		bodyStart: bodyStart,
		optStack:  option.NewStack(opts),
		scanOnly:  true,
	}
	p.caps = map[int]int{}
	p.capnames = map[string]int{}
	p.captop = 1

	if _, err := p.run(); err != nil {
		return nil, err
	}

	return &prescanResult{
		caps:        p.caps,
		capnames:    p.capnames,
		capnamelist: p.capnamelist,
		captop:      p.captop,
	}, nil
}

// AssignNameSlots sorts the prescan's numeric slots and merges in names in
// declaration order, per spec.md §4.2. It returns the sorted slot list,
// and rejects two distinct names that collapsed onto the same slot, even
// when DupNames is set — spec.md §9's first open
// question, resolved by preserving the source's observed behavior:
// uniqueness enforced unless DupNames, same-slot-different-name rejected
// unconditionally even when DupNames is set.
func AssignNameSlots(r *prescanResult, dupNames bool) (sortedSlots []int, err error) {
	seenSlotName := map[int]string{}
	for _, name := range r.capnamelist {
		slot := r.capnames[name]
		if prev, ok := seenSlotName[slot]; ok && prev != name {
			return nil, newErrf(0, KindDifferentNamesSameSlot, "%q and %q share slot %d", prev, name, slot)
		}
		seenSlotName[slot] = name
	}
	if !dupNames {
		seen := map[string]bool{}
		for _, name := range r.capnamelist {
			if seen[name] {
				return nil, newErrf(0, KindDuplicateName, "%q", name)
			}
			seen[name] = true
		}
	}
	for slot := range r.caps {
		sortedSlots = append(sortedSlots, slot)
	}
	insertionSort(sortedSlots)
	return sortedSlots, nil
}

func insertionSort(s []int) {
	for i := 1; i < len(s); i++ {
		v := s[i]
		j := i - 1
		for j >= 0 && s[j] > v {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = v
	}
}

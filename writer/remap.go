package writer

import "github.com/coregx/rxcore/internal/sparse"

// buildRemap computes the dense capture-slot remap spec.md §3.3/§8
// demands: external slot 0 (the implicit whole-match capture) always maps
// to dense slot 0; every other used external slot maps, in ascending
// numeric order, to 1, 2, 3, ... This is "dense-remap totality": every
// slot that was ever opened gets a unique value in [0, CapSize).
//
// seen (an internal/sparse.SparseSet, adapted from the teacher for exactly
// this "which small integers have I already placed" bookkeeping) guards
// against a slot number appearing twice in capnumlist, which would
// otherwise silently double-map it.
func buildRemap(captop int, capnumlist []int) (remap map[int]int, capSize int) {
	remap = map[int]int{0: 0}
	seen := sparse.ForCaptureSlots(captop + 1)
	seen.Insert(0)

	next := 1
	for _, slot := range capnumlist {
		if slot == 0 {
			continue
		}
		if seen.Contains(uint32(slot)) {
			continue
		}
		seen.Insert(uint32(slot))
		remap[slot] = next
		next++
	}
	return remap, next
}

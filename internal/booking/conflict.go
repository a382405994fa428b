package booking

// HasConflict reports whether any whole hour in [start, end) is already
// occupied. An empty or inverted interval never conflicts; the callers
// feed this partially-filled form state and expect a quiet answer.
func HasConflict(start, end int, occupied map[int]bool) bool {
	if start >= end {
		return false
	}
	for h := start; h < end; h++ {
		if occupied[h] {
			return true
		}
	}
	return false
}

// OverlapsBlocks is the interval formulation of HasConflict: a proposed
// [start, end) conflicts iff it overlaps any merged block under the
// standard half-open test. Both formulations must agree; tests hold them
// to that.
func OverlapsBlocks(start, end int, blocks []Block) bool {
	if start >= end {
		return false
	}
	for _, b := range blocks {
		if start < b.End && end > b.Start {
			return true
		}
	}
	return false
}

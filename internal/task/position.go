package task

// Positions are spaced Gap apart so a task can be dropped between two
// neighbours without renumbering the bucket. When repeated insertions
// squeeze a gap below MinGap the allocator gives up on exact adjacency
// and appends instead; true rebalancing is not worth the complexity at
// personal-list sizes.
const (
	Gap    = 1000
	MinGap = 10
)

// Placement is the caller's intent for where a task lands in a bucket.
type Placement int

const (
	PlaceBottom Placement = iota
	PlaceTop
	PlaceAfter
	PlaceBefore
)

// allocate computes a position value relative to the positions already
// occupied in the bucket. refPos is only meaningful for PlaceAfter and
// PlaceBefore. It never mutates anything; persisting is the caller's
// problem.
func allocate(positions []int, place Placement, refPos int) int {
	switch place {
	case PlaceTop:
		if len(positions) == 0 {
			return Gap
		}
		return minOf(positions) - Gap

	case PlaceAfter:
		next, ok := successor(positions, refPos)
		if !ok {
			return allocate(positions, PlaceBottom, 0)
		}
		candidate := floorMid(refPos, next)
		if candidate-refPos < MinGap {
			return allocate(positions, PlaceBottom, 0)
		}
		return candidate

	case PlaceBefore:
		prev, ok := predecessor(positions, refPos)
		if !ok {
			return allocate(positions, PlaceTop, 0)
		}
		candidate := floorMid(prev, refPos)
		if refPos-candidate < MinGap {
			return allocate(positions, PlaceTop, 0)
		}
		return candidate

	default: // PlaceBottom
		if len(positions) == 0 {
			return Gap
		}
		return maxOf(positions) + Gap
	}
}

// successor finds the smallest position strictly greater than pos.
func successor(positions []int, pos int) (int, bool) {
	best, found := 0, false
	for _, p := range positions {
		if p > pos && (!found || p < best) {
			best, found = p, true
		}
	}
	return best, found
}

// predecessor finds the greatest position strictly less than pos.
func predecessor(positions []int, pos int) (int, bool) {
	best, found := 0, false
	for _, p := range positions {
		if p < pos && (!found || p > best) {
			best, found = p, true
		}
	}
	return best, found
}

// floorMid is the floored midpoint, safe against the int overflow the
// naive (a+b)/2 would hit.
func floorMid(a, b int) int {
	return a + (b-a)/2
}

func minOf(xs []int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxOf(xs []int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

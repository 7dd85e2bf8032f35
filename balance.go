package ampzip

import (
	"fmt"
	"math"
)

const maxInt64 int64 = math.MaxInt64

// Seed of the depth/leaf search
const (
	seedDepth    int64 = 1
	seedLeafSize int64 = 10
)

// BalanceResult is a nesting layout: Depth levels, each holding Depth
// copies of the level below, over a leaf filler of LeafSize units.
type BalanceResult struct {
	Depth    int64
	LeafSize int64
	// Actual is Depth^Depth * LeafSize, the decompressed size in units
	Actual int64
}

// Balance finds a depth and leaf size whose nested expansion reaches target.
//
// Growth is depth^depth, so the search prefers adding a level while that
// still undershoots, then moves the leaf toward target/depth^depth: at most
// doubling per step, stepping by one when the candidate equals the current
// leaf. The first pair with Actual >= target is returned; it is not the
// closest pair and usually overshoots.
func Balance(target int64) (BalanceResult, error) {
	if target < 1 || target > MaxTargetSize {
		return BalanceResult{}, fmt.Errorf("%w: cannot balance %d", ErrInvalidSize, target)
	}

	depth, leaf := seedDepth, seedLeafSize
	actual := mulSat(selfPow(depth), leaf)
	for actual < target {
		if next := depth + 1; mulSat(selfPow(next), leaf) < target {
			depth = next
		}

		candidate := target / selfPow(depth)
		switch {
		case candidate > 2*leaf:
			leaf *= 2
		case candidate == leaf:
			leaf++
		default:
			leaf = candidate
		}
		actual = mulSat(selfPow(depth), leaf)
	}

	return BalanceResult{Depth: depth, LeafSize: leaf, Actual: actual}, nil
}

// selfPow returns n^n, saturating at math.MaxInt64
func selfPow(n int64) int64 {
	result := int64(1)
	for i := int64(0); i < n; i++ {
		result = mulSat(result, n)
	}
	return result
}

// mulSat multiplies non-negative values, saturating at math.MaxInt64
func mulSat(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > maxInt64/b {
		return maxInt64
	}
	return a * b
}

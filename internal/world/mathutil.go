package world

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// lerp interpolates between a and b.
func lerp[T constraints.Float](a, b, t T) T {
	return a + (b-a)*t
}

// mustSize panics when a stage produced an array of the wrong length.
// A mismatch means two stages disagree on the grid and nothing downstream
// can be trusted.
func mustSize(stage string, got, want int) {
	if got != want {
		panic(fmt.Sprintf("world: %s produced %d cells, grid has %d", stage, got, want))
	}
}
